package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"listings_pipeline/internal/domain"
)

// TimestampLayout is the warehouse format of last_updt_ts.
const TimestampLayout = "2006-01-02 15:04:05"

func FormatTimestamp(t time.Time) string { return t.UTC().Format(TimestampLayout) }

func priceValue(price string) int64 {
	v, err := strconv.ParseInt(digitsOnly(price), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func sqFeetValue(sqft string) int64 {
	v, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(sqft), ",", ""), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// PricePerSqFt is floor(price/sqft), or 0 when sqft is not a positive integer.
func PricePerSqFt(price, sqft string) int64 {
	f := sqFeetValue(sqft)
	if f <= 0 {
		return 0
	}
	return priceValue(price) / f
}

// NewListingRow builds the warehouse payload: trimmed text, digits-only
// price, derived price per sqft and a UTC timestamp.
func NewListingRow(l domain.Listing, now time.Time) domain.ListingRow {
	t := strings.TrimSpace
	return domain.ListingRow{
		Listing: domain.Listing{
			PictureCount: l.PictureCount,
			MLS:          t(l.MLS),
			Class:        t(l.Class),
			PropertyType: t(l.PropertyType),
			Status:       t(l.Status),
			Price:        digitsOnly(l.Price),
			County:       t(l.County),
			Address:      t(l.Address),
			City:         t(l.City),
			Zip:          t(l.Zip),
			Beds:         t(l.Beds),
			Baths:        t(l.Baths),
			HalfBaths:    t(l.HalfBaths),
			Garage:       t(l.Garage),
			SqFeet:       t(l.SqFeet),
			ListAgent:    t(l.ListAgent),
			ListOffice:   t(l.ListOffice),
		},
		PricePerSqFt: PricePerSqFt(l.Price, l.SqFeet),
		UpdatedAt:    now.UTC().Truncate(time.Second),
	}
}

// rowDict carries every column of a row into a log line.
func rowDict(r domain.ListingRow) *zerolog.Event {
	return zerolog.Dict().
		Str("mls", r.MLS).
		Str("class", r.Class).
		Str("property_type", r.PropertyType).
		Str("status", r.Status).
		Str("price", r.Price).
		Str("county", r.County).
		Str("address", r.Address).
		Str("city", r.City).
		Str("zip", r.Zip).
		Str("beds", r.Beds).
		Str("baths", r.Baths).
		Str("half_baths", r.HalfBaths).
		Str("garage", r.Garage).
		Str("sq_feet", r.SqFeet).
		Int64("price_sq_feet", r.PricePerSqFt).
		Str("last_updt_ts", FormatTimestamp(r.UpdatedAt)).
		Str("list_agent", r.ListAgent).
		Str("list_office", r.ListOffice)
}
