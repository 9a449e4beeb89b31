package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"listings_pipeline/internal/adapters/observability"
	"listings_pipeline/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) InsertListing(ctx context.Context, row domain.ListingRow) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("mysql", "insert", err, time.Since(start)) }()

	_, err = r.db.ExecContext(ctx, insertListingSQL,
		row.MLS,
		row.Class,
		row.PropertyType,
		row.Status,
		row.Price,
		row.County,
		row.Address,
		row.City,
		row.Zip,
		row.Beds,
		row.Baths,
		row.HalfBaths,
		row.Garage,
		row.SqFeet,
		row.PricePerSqFt,
		row.UpdatedAt.UTC(),
		row.ListAgent,
		row.ListOffice,
	)
	return err
}

func (r *Repo) FindByMLS(ctx context.Context, mls string) (out []domain.ListingRow, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("mysql", "find", err, time.Since(start)) }()

	rows, err := r.db.QueryContext(ctx, findByMLSSQL, mls)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var lr domain.ListingRow
		if err := rows.Scan(
			&lr.MLS,
			&lr.Class,
			&lr.PropertyType,
			&lr.Status,
			&lr.Price,
			&lr.County,
			&lr.Address,
			&lr.City,
			&lr.Zip,
			&lr.Beds,
			&lr.Baths,
			&lr.HalfBaths,
			&lr.Garage,
			&lr.SqFeet,
			&lr.PricePerSqFt,
			&lr.UpdatedAt, // requires parseTime=true in the DSN
			&lr.ListAgent,
			&lr.ListOffice,
		); err != nil {
			return nil, fmt.Errorf("scan listing %s: %w", mls, err)
		}
		lr.UpdatedAt = lr.UpdatedAt.UTC()
		out = append(out, lr)
	}
	return out, rows.Err()
}
