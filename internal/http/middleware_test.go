package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-advisory-service/internal/observability"
)

func TestCorrelationIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"propagated", "test-correlation-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			var seenID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenID = observability.CorrelationIDFromContext(r.Context())
				if logger := observability.LoggerFromContext(r.Context()); logger != nil {
					logger.Info("inside")
				}
			})

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			if tt.incoming != "" {
				req.Header.Set(CorrelationIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			CorrelationIDMiddleware(zap.New(core))(next).ServeHTTP(w, req)

			got := w.Header().Get(CorrelationIDHeader)
			if got == "" {
				t.Fatal("X-Correlation-ID header missing")
			}
			if tt.incoming != "" && got != tt.incoming {
				t.Errorf("header = %q, want %q", got, tt.incoming)
			}
			if seenID != got {
				t.Errorf("context id = %q, header id = %q", seenID, got)
			}
			entries := logs.All()
			if len(entries) != 1 || entries[0].ContextMap()["correlation_id"] != got {
				t.Errorf("request logger not scoped to correlation id: %v", entries)
			}
		})
	}
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var remaining time.Duration
	var hasDeadline bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var dl time.Time
		dl, hasDeadline = r.Context().Deadline()
		remaining = time.Until(dl)
	})

	TimeoutMiddleware(time.Second)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !hasDeadline {
		t.Fatal("context has no deadline")
	}
	if remaining <= 0 || remaining > time.Second {
		t.Errorf("remaining = %v, want within (0, 1s]", remaining)
	}

	hasDeadline = false
	TimeoutMiddleware(0)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if hasDeadline {
		t.Error("zero timeout should not set a deadline")
	}
}

func TestMetricsMiddleware_RouteLabels(t *testing.T) {
	var seen string
	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = getRoute(r)
			next.ServeHTTP(w, r)
		})
	})
	noop := func(w http.ResponseWriter, r *http.Request) {}
	router.HandleFunc("/api/weather", noop)
	router.PathPrefix("/").HandlerFunc(noop)

	tests := []struct {
		path string
		want string
	}{
		{"/api/weather?city=Delhi", "/api/weather"},
		{"/index.html", "static"},
		{"/js/app.js", "static"},
	}
	for _, tt := range tests {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
		if seen != tt.want {
			t.Errorf("getRoute(%s) = %q, want %q", tt.path, seen, tt.want)
		}
	}

	if got := getRoute(httptest.NewRequest(http.MethodGet, "/nowhere", nil)); got != "unmatched" {
		t.Errorf("getRoute(no route) = %q, want unmatched", got)
	}
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	w := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", w.Code)
	}
	if InFlightCount() != 0 {
		t.Errorf("InFlightCount() = %d after request, want 0", InFlightCount())
	}
}

func TestStatusCodeString(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 302: "3xx", 404: "4xx", 503: "5xx"} {
		if got := statusCodeString(code); got != want {
			t.Errorf("statusCodeString(%d) = %q, want %q", code, got, want)
		}
	}
}
