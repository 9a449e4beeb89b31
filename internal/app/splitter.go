package app

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"listings_pipeline/internal/domain"
)

const csvContentType = "text/csv"

type SplitService struct {
	store  domain.ObjectStore
	target string
	opts   options
}

func NewSplitService(store domain.ObjectStore, targetBucket string, opts ...Option) *SplitService {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &SplitService{store: store, target: targetBucket, opts: o}
}

// Split re-emits the source object as batch files of BatchSize data lines.
// Upload failures are recorded per batch; only an unreadable or empty
// source fails the job.
func (s *SplitService) Split(ctx context.Context, ev domain.ObjectEvent) domain.SplitSummary {
	sum := domain.SplitSummary{JobID: uuid.NewString(), Bucket: ev.Bucket, Object: ev.Name, Target: s.target}
	l := jobLogger(ctx, sum.JobID, "split", ev)
	ctx = l.WithContext(ctx)
	l.Info().Msg("split triggered by storage event")

	key, ok := s.opts.claim(ctx, "split", ev)
	if !ok {
		sum.Duplicate = true
		l.Info().Msg("event already claimed, skipping")
		return sum
	}

	if err := s.run(ctx, ev, &sum); err != nil {
		sum.Err = err.Error()
		l.Error().Err(err).Msg("split failed")
		s.opts.release(ctx, key)
	}
	s.opts.publish(ctx, "listings.split", sum)

	l.Info().
		Int("rows", sum.Rows).
		Int("batches", len(sum.Batches)).
		Int("uploaded", sum.Uploaded).
		Int("failed", sum.Failed).
		Msg("split completed")
	return sum
}

func (s *SplitService) run(ctx context.Context, ev domain.ObjectEvent, sum *domain.SplitSummary) error {
	data, err := s.store.Download(ctx, ev.Bucket, ev.Name)
	if err != nil {
		return fmt.Errorf("download %s/%s: %w", ev.Bucket, ev.Name, err)
	}
	zerolog.Ctx(ctx).Info().Int("bytes", len(data)).Msg("downloaded source file")

	header, batches, err := SplitBatches(bytes.NewReader(data), BatchSize)
	if err != nil {
		return err
	}
	for b, err := range batches {
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		res := s.writeBatch(ctx, header, b)
		sum.Batches = append(sum.Batches, res)
		sum.Rows += res.Rows
		if res.Err != "" {
			sum.Failed++
		} else {
			sum.Uploaded++
		}
	}
	return nil
}

func (s *SplitService) writeBatch(ctx context.Context, header string, b Batch) domain.BatchResult {
	res := domain.BatchResult{Number: b.Number, Object: BatchFileName(b.Number), Rows: len(b.Lines)}
	if err := s.store.Upload(ctx, s.target, res.Object, csvContentType, b.Encode(header)); err != nil {
		res.Err = err.Error()
		zerolog.Ctx(ctx).Error().Err(err).Str("file", res.Object).Msg("error writing batch to file")
		return res
	}
	zerolog.Ctx(ctx).Info().Str("file", res.Object).Str("target", s.target).Int("rows", res.Rows).Msg("uploaded batch")
	return res
}
