package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"listings_pipeline/internal/adapters/observability"
	"listings_pipeline/internal/domain"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "listings_http_requests_total") {
		t.Fatalf("expected listings_http_requests_total in output")
	}
}

func TestObserveLoad_CountsDecisions(t *testing.T) {
	before := value(t, observability.Rows.WithLabelValues("update"))
	failedJobs := value(t, observability.Jobs.WithLabelValues("load", "failed"))

	observability.ObserveLoad(domain.LoadSummary{Loaded: 2, Updated: 3, Discarded: 1})
	observability.ObserveLoad(domain.LoadSummary{Err: "boom"})

	if got := value(t, observability.Rows.WithLabelValues("update")) - before; got != 3 {
		t.Fatalf("update rows: %v", got)
	}
	if got := value(t, observability.Jobs.WithLabelValues("load", "failed")) - failedJobs; got != 1 {
		t.Fatalf("failed jobs: %v", got)
	}
}

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}
