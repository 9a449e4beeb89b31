package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"listings_pipeline/internal/adapters/observability"
	"listings_pipeline/internal/domain"
)

const listingColumns = "mls, class, property_type, status, price, county, address, city, zip, " +
	"beds, baths, half_baths, garage, sq_feet, price_sq_feet, last_updt_ts, list_agent, list_office"

const insertListingSQL = `
INSERT INTO listings (` + listingColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
`

const findByMLSSQL = `
SELECT ` + listingColumns + `
FROM listings
WHERE mls = $1
ORDER BY last_updt_ts DESC, id DESC
`

// Repo is the PostgreSQL backed domain.ListingWarehouse.
type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) (*Repo, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &Repo{pool: pool}, nil
}

// Connect opens a pool for DATABASE_URL and checks it.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (r *Repo) InsertListing(ctx context.Context, row domain.ListingRow) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("postgres", "insert", err, time.Since(start)) }()

	_, err = r.pool.Exec(ctx, insertListingSQL,
		row.MLS, row.Class, row.PropertyType, row.Status, row.Price, row.County,
		row.Address, row.City, row.Zip, row.Beds, row.Baths, row.HalfBaths,
		row.Garage, row.SqFeet, row.PricePerSqFt, row.UpdatedAt.UTC(),
		row.ListAgent, row.ListOffice,
	)
	if err != nil {
		return fmt.Errorf("insert listing %s: %w", row.MLS, err)
	}
	return nil
}

func (r *Repo) FindByMLS(ctx context.Context, mls string) (out []domain.ListingRow, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("postgres", "find", err, time.Since(start)) }()

	rows, err := r.pool.Query(ctx, findByMLSSQL, mls)
	if err != nil {
		return nil, fmt.Errorf("query listings %s: %w", mls, err)
	}
	out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ListingRow, error) {
		var lr domain.ListingRow
		err := row.Scan(
			&lr.MLS, &lr.Class, &lr.PropertyType, &lr.Status, &lr.Price, &lr.County,
			&lr.Address, &lr.City, &lr.Zip, &lr.Beds, &lr.Baths, &lr.HalfBaths,
			&lr.Garage, &lr.SqFeet, &lr.PricePerSqFt, &lr.UpdatedAt,
			&lr.ListAgent, &lr.ListOffice,
		)
		lr.UpdatedAt = lr.UpdatedAt.UTC()
		return lr, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan listings %s: %w", mls, err)
	}
	return out, nil
}
