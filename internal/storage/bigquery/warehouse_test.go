package bqwarehouse

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"

	"listings_pipeline/internal/domain"
)

func TestListingSaver_Columns(t *testing.T) {
	row := domain.ListingRow{
		Listing:      domain.Listing{MLS: "M1", Price: "350000", SqFeet: "1750", ListOffice: "Best Realty"},
		PricePerSqFt: 200,
		UpdatedAt:    time.Date(2024, 5, 1, 7, 30, 45, 0, time.FixedZone("CDT", -5*3600)),
	}
	vals, id, err := listingSaver(row).Save()
	if err != nil {
		t.Fatal(err)
	}
	if id != bigquery.NoDedupeID {
		t.Fatalf("insert id: %q", id)
	}
	if len(vals) != 18 {
		t.Fatalf("expected 18 columns, got %d", len(vals))
	}
	if vals["last_updt_ts"] != "2024-05-01 12:30:45" {
		t.Fatalf("timestamp not rendered in UTC: %v", vals["last_updt_ts"])
	}
	if vals["price_sq_feet"] != int64(200) || vals["list_office"] != "Best Realty" {
		t.Fatalf("unexpected values: %v", vals)
	}
}

func TestRowFromValues(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)
	cases := map[string]bigquery.Value{
		"timestamp": want,
		"string":    "2024-05-01 12:30:45",
	}
	for name, ts := range cases {
		t.Run(name, func(t *testing.T) {
			row, err := rowFromValues(map[string]bigquery.Value{
				"mls": "M1", "price": "350000", "price_sq_feet": int64(200),
				"list_agent": nil, "last_updt_ts": ts,
			})
			if err != nil {
				t.Fatal(err)
			}
			if !row.UpdatedAt.Equal(want) || row.MLS != "M1" || row.PricePerSqFt != 200 || row.ListAgent != "" {
				t.Fatalf("unexpected row: %+v", row)
			}
		})
	}

	if _, err := rowFromValues(map[string]bigquery.Value{"last_updt_ts": "yesterday"}); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
}

func TestFindByMLSQuery_StableOrder(t *testing.T) {
	q := findByMLSQuery("`p.d.t`")
	if !strings.Contains(q, "FROM `p.d.t` WHERE mls = @mls") {
		t.Fatalf("query: %s", q)
	}
	if !strings.Contains(q, "ORDER BY last_updt_ts DESC, price_sq_feet DESC") {
		t.Fatalf("expected a tiebreaker after last_updt_ts: %s", q)
	}
}
