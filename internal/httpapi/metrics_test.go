package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := MetricsMiddleware(inner)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anything", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestRoutePatternOrPath(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/generations", nil)
	if got := routePatternOrPath(r); got != "/generations" {
		t.Fatalf("got %q", got)
	}

	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{"/generations"}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
	if got := routePatternOrPath(r); got != "/generations" {
		t.Fatalf("got %q", got)
	}
}

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 200: "200", 404: "404", 503: "503"}
	for n, want := range cases {
		if got := itoa(n); got != want {
			t.Fatalf("itoa(%d)=%q want %q", n, got, want)
		}
	}
}

func TestIncrementBackpressureNoPanic(t *testing.T) {
	IncrementBackpressure("")
	IncrementBackpressure("generate")
}
