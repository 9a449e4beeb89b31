package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"listings_pipeline/internal/adapters/observability"
)

// Timeout bounds a request; d <= 0 leaves it unbounded.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.TimeoutHandler(next, d, "timeout")
	}
}

// recorder remembers the status and body size written by a handler.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *recorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// routeOf prefers the chi pattern so metrics stay low-cardinality.
func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		observability.ObserveHTTP(routeOf(r), r.Method, rec.code(), time.Since(start))
	})
}

// Logger tags a request-scoped logger with the request and CloudEvent ids,
// stores it for zerolog.Ctx, and writes one line when the request ends.
// Client errors log at warn, server errors at error.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			zc := l.With().Str("request_id", chimw.GetReqID(r.Context()))
			if id := r.Header.Get("ce-id"); id != "" {
				zc = zc.Str("ce_id", id)
			}
			rl := zc.Logger()

			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(rl.WithContext(r.Context())))

			ev := rl.Info()
			switch status := rec.code(); {
			case status >= 500:
				ev = rl.Error()
			case status >= 400:
				ev = rl.Warn()
			}
			ev.Str("route", routeOf(r)).
				Str("method", r.Method).
				Int("status", rec.code()).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("http_request")
		})
	}
}
