package app

import (
	"strings"

	"golang.org/x/text/cases"

	"listings_pipeline/internal/domain"
)

type normalizer func(string) string

func trimFold(s string) string {
	// a Caser is stateful; build one per call
	return cases.Fold().String(strings.TrimSpace(s))
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

type comparedField struct {
	name      string
	get       func(domain.Listing) string
	normalize normalizer
}

// comparedFields is the set that decides whether a listing changed.
// MLS and the derived price per sqft are not part of it.
var comparedFields = []comparedField{
	{"class", func(l domain.Listing) string { return l.Class }, trimFold},
	{"property_type", func(l domain.Listing) string { return l.PropertyType }, trimFold},
	{"status", func(l domain.Listing) string { return l.Status }, trimFold},
	{"price", func(l domain.Listing) string { return l.Price }, digitsOnly},
	{"county", func(l domain.Listing) string { return l.County }, trimFold},
	{"address", func(l domain.Listing) string { return l.Address }, trimFold},
	{"city", func(l domain.Listing) string { return l.City }, trimFold},
	{"zip", func(l domain.Listing) string { return l.Zip }, trimFold},
	{"beds", func(l domain.Listing) string { return l.Beds }, trimFold},
	{"baths", func(l domain.Listing) string { return l.Baths }, trimFold},
	{"half_baths", func(l domain.Listing) string { return l.HalfBaths }, trimFold},
	{"garage", func(l domain.Listing) string { return l.Garage }, trimFold},
	{"sq_feet", func(l domain.Listing) string { return l.SqFeet }, trimFold},
	{"list_agent", func(l domain.Listing) string { return l.ListAgent }, trimFold},
	{"list_office", func(l domain.Listing) string { return l.ListOffice }, trimFold},
}

// ChangedFields lists the compared fields whose normalized values differ.
func ChangedFields(incoming, existing domain.Listing) []string {
	var out []string
	for _, f := range comparedFields {
		if f.normalize(f.get(incoming)) != f.normalize(f.get(existing)) {
			out = append(out, f.name)
		}
	}
	return out
}

// Decide classifies incoming against the stored row for the same MLS.
func Decide(incoming domain.Listing, existing *domain.ListingRow) domain.Decision {
	if existing == nil {
		return domain.DecisionInsert
	}
	if len(ChangedFields(incoming, existing.Listing)) > 0 {
		return domain.DecisionUpdate
	}
	return domain.DecisionSkip
}

// latestRow picks the most recent row; ties keep the first.
func latestRow(rows []domain.ListingRow) *domain.ListingRow {
	if len(rows) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(rows); i++ {
		if rows[i].UpdatedAt.After(rows[best].UpdatedAt) {
			best = i
		}
	}
	return &rows[best]
}
