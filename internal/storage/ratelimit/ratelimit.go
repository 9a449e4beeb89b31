package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"listings_pipeline/internal/domain"
)

// Warehouse throttles inserts on the wrapped warehouse. Lookups pass through.
type Warehouse struct {
	domain.ListingWarehouse
	lim *rate.Limiter
}

// Wrap returns w unchanged when rps <= 0.
func Wrap(w domain.ListingWarehouse, rps float64) domain.ListingWarehouse {
	if rps <= 0 {
		return w
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Warehouse{ListingWarehouse: w, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (w *Warehouse) InsertListing(ctx context.Context, row domain.ListingRow) error {
	if err := w.lim.Wait(ctx); err != nil {
		return err
	}
	return w.ListingWarehouse.InsertListing(ctx, row)
}
