package domain

import "time"

// Listing is one parsed row of a listings export. Values are kept as they
// appear in the source file; normalization happens on insert and compare.
type Listing struct {
	PictureCount int
	MLS          string
	Class        string
	PropertyType string
	Status       string
	Price        string // may carry "$" and ","
	County       string
	Address      string
	City         string
	Zip          string
	Beds         string
	Baths        string
	HalfBaths    string
	Garage       string
	SqFeet       string
	ListAgent    string
	ListOffice   string
}

// ListingRow is the warehouse shape of a listing. Rows are append-only: a
// changed listing is a new row with a newer UpdatedAt.
type ListingRow struct {
	Listing
	PricePerSqFt int64
	UpdatedAt    time.Time
}

// ObjectEvent is the payload of a storage "object finalized" event.
type ObjectEvent struct {
	Bucket     string `json:"bucket"`
	Name       string `json:"name"`
	Generation string `json:"generation,omitempty"`
}
