package bqwarehouse

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"listings_pipeline/internal/adapters/observability"
	"listings_pipeline/internal/app"
	"listings_pipeline/internal/domain"
)

// Warehouse is the BigQuery backed domain.ListingWarehouse. Inserts use the
// streaming API; streamed rows are visible to queries right away.
type Warehouse struct {
	c     *bigquery.Client
	table *bigquery.Table
	fqn   string
}

func New(ctx context.Context, project, dataset, table string) (*Warehouse, error) {
	c, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &Warehouse{
		c:     c,
		table: c.Dataset(dataset).Table(table),
		fqn:   fmt.Sprintf("`%s.%s.%s`", project, dataset, table),
	}, nil
}

func (w *Warehouse) Close() error { return w.c.Close() }

func (w *Warehouse) FindByMLS(ctx context.Context, mls string) (out []domain.ListingRow, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("bigquery", "find", err, time.Since(start)) }()

	q := w.c.Query(findByMLSQuery(w.fqn))
	q.Parameters = []bigquery.QueryParameter{{Name: "mls", Value: mls}}
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", mls, err)
	}
	for {
		var vals map[string]bigquery.Value
		err := it.Next(&vals)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", mls, err)
		}
		row, err := rowFromValues(vals)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (w *Warehouse) InsertListing(ctx context.Context, row domain.ListingRow) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("bigquery", "insert", err, time.Since(start)) }()

	if err = w.table.Inserter().Put(ctx, listingSaver(row)); err != nil {
		return fmt.Errorf("insert %s: %w", row.MLS, err)
	}
	return nil
}

// findByMLSQuery orders newest first. Rows appended within the same second
// tie on last_updt_ts, so the remaining keys keep the order stable.
func findByMLSQuery(fqn string) string {
	return "SELECT * FROM " + fqn + " WHERE mls = @mls" +
		" ORDER BY last_updt_ts DESC, price_sq_feet DESC, price DESC, status DESC"
}

// listingSaver maps a row onto the table columns.
type listingSaver domain.ListingRow

func (s listingSaver) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"mls":           s.MLS,
		"class":         s.Class,
		"property_type": s.PropertyType,
		"status":        s.Status,
		"price":         s.Price,
		"county":        s.County,
		"address":       s.Address,
		"city":          s.City,
		"zip":           s.Zip,
		"beds":          s.Beds,
		"baths":         s.Baths,
		"half_baths":    s.HalfBaths,
		"garage":        s.Garage,
		"sq_feet":       s.SqFeet,
		"price_sq_feet": s.PricePerSqFt,
		"last_updt_ts":  app.FormatTimestamp(s.UpdatedAt),
		"list_agent":    s.ListAgent,
		"list_office":   s.ListOffice,
	}, bigquery.NoDedupeID, nil
}

func rowFromValues(v map[string]bigquery.Value) (domain.ListingRow, error) {
	str := func(k string) string {
		if s, ok := v[k].(string); ok {
			return s
		}
		if v[k] == nil {
			return ""
		}
		return fmt.Sprint(v[k])
	}
	var row domain.ListingRow
	row.MLS = str("mls")
	row.Class = str("class")
	row.PropertyType = str("property_type")
	row.Status = str("status")
	row.Price = str("price")
	row.County = str("county")
	row.Address = str("address")
	row.City = str("city")
	row.Zip = str("zip")
	row.Beds = str("beds")
	row.Baths = str("baths")
	row.HalfBaths = str("half_baths")
	row.Garage = str("garage")
	row.SqFeet = str("sq_feet")
	row.ListAgent = str("list_agent")
	row.ListOffice = str("list_office")

	switch p := v["price_sq_feet"].(type) {
	case int64:
		row.PricePerSqFt = p
	case float64:
		row.PricePerSqFt = int64(p)
	case string:
		row.PricePerSqFt, _ = strconv.ParseInt(p, 10, 64)
	}

	ts, err := parseTimestamp(v["last_updt_ts"])
	if err != nil {
		return row, fmt.Errorf("listing %s: last_updt_ts: %w", row.MLS, err)
	}
	row.UpdatedAt = ts
	return row, nil
}

// parseTimestamp accepts the column as TIMESTAMP, DATETIME or STRING.
func parseTimestamp(v bigquery.Value) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		return time.ParseInLocation(app.TimestampLayout, t, time.UTC)
	default:
		// civil.DateTime prints as 2006-01-02T15:04:05[.fraction]
		return time.ParseInLocation("2006-01-02T15:04:05.999999999", fmt.Sprint(t), time.UTC)
	}
}
