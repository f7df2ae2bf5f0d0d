package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPurchase(t *testing.T) {
	beforeOK := testutil.ToFloat64(purchases.WithLabelValues("success"))
	beforeCredits := testutil.ToFloat64(creditsSold)

	RecordPurchase("success", 5)
	RecordPurchase("declined", 5)

	if got := testutil.ToFloat64(purchases.WithLabelValues("success")) - beforeOK; got != 1 {
		t.Fatalf("success purchases delta = %v; want 1", got)
	}
	if got := testutil.ToFloat64(creditsSold) - beforeCredits; got != 5 {
		t.Fatalf("credits sold delta = %v; want 5", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/current_user", http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "emaily_http_requests_total") {
		t.Fatal("metrics output missing emaily_http_requests_total")
	}
}
