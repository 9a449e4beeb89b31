package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"listings_pipeline/internal/domain"
)

type Option func(*options)

type options struct {
	claims   domain.ClaimStore
	claimTTL time.Duration
	notifier domain.Notifier
	now      func() time.Time
}

func defaultOptions() options {
	return options{claimTTL: 24 * time.Hour, now: time.Now}
}

// WithClaims enables the duplicate-delivery guard.
func WithClaims(c domain.ClaimStore, ttl time.Duration) Option {
	return func(o *options) {
		o.claims = c
		if ttl > 0 {
			o.claimTTL = ttl
		}
	}
}

// WithNotifier publishes every job summary.
func WithNotifier(n domain.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func claimKey(pipeline string, ev domain.ObjectEvent) string {
	return pipeline + ":" + ev.Bucket + "/" + ev.Name + "#" + ev.Generation
}

// claim reports whether the event should be processed. Claim store errors
// fail open: the event is processed and the error logged.
func (o *options) claim(ctx context.Context, pipeline string, ev domain.ObjectEvent) (string, bool) {
	if o.claims == nil {
		return "", true
	}
	key := claimKey(pipeline, ev)
	ok, err := o.claims.Claim(ctx, key, o.claimTTL)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("claim failed, processing anyway")
		return "", true
	}
	return key, ok
}

func (o *options) release(ctx context.Context, key string) {
	if o.claims == nil || key == "" {
		return
	}
	if err := o.claims.Release(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("claim release failed")
	}
}

func (o *options) publish(ctx context.Context, routingKey string, v any) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Notify(ctx, routingKey, v); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("routing_key", routingKey).Msg("summary publish failed")
	}
}

func jobLogger(ctx context.Context, jobID, pipeline string, ev domain.ObjectEvent) zerolog.Logger {
	return zerolog.Ctx(ctx).With().
		Str("job_id", jobID).
		Str("pipeline", pipeline).
		Str("bucket", ev.Bucket).
		Str("object", ev.Name).
		Logger()
}
