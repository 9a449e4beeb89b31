package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"listings_pipeline/internal/domain"
)

const progressEvery = 1000

type LoadService struct {
	store domain.ObjectStore
	wh    domain.ListingWarehouse
	opts  options
}

func NewLoadService(store domain.ObjectStore, wh domain.ListingWarehouse, opts ...Option) *LoadService {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &LoadService{store: store, wh: wh, opts: o}
}

// Load appends new and changed listings from the source object, then
// deletes the object. Row failures are counted and skipped; only an
// unreadable source fails the job, in which case the object is kept.
func (s *LoadService) Load(ctx context.Context, ev domain.ObjectEvent) domain.LoadSummary {
	sum := domain.LoadSummary{JobID: uuid.NewString(), Bucket: ev.Bucket, Object: ev.Name}
	l := jobLogger(ctx, sum.JobID, "load", ev)
	ctx = l.WithContext(ctx)
	l.Info().Msg("processing file")

	key, ok := s.opts.claim(ctx, "load", ev)
	if !ok {
		sum.Duplicate = true
		l.Info().Msg("event already claimed, skipping")
		return sum
	}

	if err := s.run(ctx, ev, &sum); err != nil {
		sum.Err = err.Error()
		l.Error().Err(err).Msg("failed to read CSV file")
		s.opts.release(ctx, key)
	} else {
		sum.Deleted = s.deleteSource(ctx, ev)
	}
	s.opts.publish(ctx, "listings.load", sum)

	l.Info().
		Int("total", sum.Total).
		Int("loaded", sum.Loaded).
		Int("updated", sum.Updated).
		Int("discarded", sum.Discarded).
		Int("failed", sum.Failed).
		Int("ambiguous", sum.Ambiguous).
		Bool("deleted", sum.Deleted).
		Msg("load completed")
	return sum
}

func (s *LoadService) run(ctx context.Context, ev domain.ObjectEvent, sum *domain.LoadSummary) error {
	data, err := s.store.Download(ctx, ev.Bucket, ev.Name)
	if err != nil {
		return fmt.Errorf("download %s/%s: %w", ev.Bucket, ev.Name, err)
	}
	log := zerolog.Ctx(ctx)
	log.Info().Int("bytes", len(data)).Msg("downloaded source file")

	rd, err := newListingReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, errSourceRead) {
			return err
		}
		var res domain.RowResult
		if err != nil {
			res = domain.RowResult{Line: line, MLS: rec.MLS, Err: err}
			log.Warn().Err(err).Int("line", line).Msg("skipping unparseable row")
		} else {
			res = s.processRow(ctx, line, rec)
		}
		sum.Add(res)
		if sum.Total%progressEvery == 0 {
			log.Info().Int("processed", sum.Total).Msg("load progress")
		}
	}
	return nil
}

func (s *LoadService) processRow(ctx context.Context, line int, rec domain.Listing) domain.RowResult {
	log := zerolog.Ctx(ctx).With().Int("line", line).Str("mls", rec.MLS).Logger()
	res := domain.RowResult{Line: line, MLS: rec.MLS}

	existing, err := s.wh.FindByMLS(ctx, rec.MLS)
	if err != nil {
		res.Err = fmt.Errorf("lookup %s: %w", rec.MLS, err)
		log.Error().Err(err).Msg("existing record lookup failed")
		return res
	}
	if len(existing) > 1 {
		res.Ambiguous = true
		log.Warn().Int("matches", len(existing)).Msg("multiple stored rows for MLS, comparing against the latest")
	}
	latest := latestRow(existing)

	res.Decision = Decide(rec, latest)
	if !res.Decision.Appends() {
		log.Debug().Msg("record exists and has not changed, skipping")
		return res
	}
	if res.Decision == domain.DecisionUpdate {
		log.Debug().Strs("changed", ChangedFields(rec, latest.Listing)).Msg("record changed")
	}

	row := NewListingRow(rec, s.opts.now())
	if err := s.wh.InsertListing(ctx, row); err != nil {
		res.Err = fmt.Errorf("insert %s: %w", rec.MLS, err)
		log.Error().Err(err).Dict("row", rowDict(row)).Msg("failed to insert row")
		return res
	}
	log.Debug().Dict("row", rowDict(row)).Str("decision", string(res.Decision)).Msg("inserted row")
	return res
}

func (s *LoadService) deleteSource(ctx context.Context, ev domain.ObjectEvent) bool {
	if err := s.store.Delete(ctx, ev.Bucket, ev.Name); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to delete source file")
		return false
	}
	zerolog.Ctx(ctx).Info().Msg("deleted source file")
	return true
}
