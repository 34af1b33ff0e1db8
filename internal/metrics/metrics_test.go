package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/v1/interviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/interviews/{id}", "418"))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/interviews/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/interviews/{id}", "418"))

	if after-before != 1 {
		t.Fatalf("expected one request counted under the route pattern, got %v", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(violationsRecorded.WithLabelValues("TAB_SWITCH", "HIGH", "api"))
	ViolationRecorded("TAB_SWITCH", "HIGH", "api")
	if got := testutil.ToFloat64(violationsRecorded.WithLabelValues("TAB_SWITCH", "HIGH", "api")); got-before != 1 {
		t.Fatalf("expected counter to increase by one, got %v", got-before)
	}

	ConnectionOpened("candidate")
	ConnectionOpened("candidate")
	ConnectionClosed("candidate")
	if got := testutil.ToFloat64(wsConnections.WithLabelValues("candidate")); got != 1 {
		t.Fatalf("expected one open connection, got %v", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	ShortlistDecision("REVIEW")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "intervuex_shortlist_decisions_total") {
		t.Fatalf("expected domain metric in exposition")
	}
}
