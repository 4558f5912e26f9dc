package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/server/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery_NoPanic(t *testing.T) {
	handler := middleware.Recovery(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRecovery_Panic(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	handler := middleware.Recovery(log)(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("test panic")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected error code: %s", body.Error.Code)
	}
	if !strings.Contains(buf.String(), "test panic") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestID_GeneratesID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFrom(r.Context())
		if r.Header.Get(middleware.HeaderRequestID) == "" {
			t.Error("expected X-Request-Id in request headers")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	got := rr.Header().Get(middleware.HeaderRequestID)
	if got == "" {
		t.Fatal("expected X-Request-Id in response headers")
	}
	if seen != got {
		t.Errorf("context id = %q, header id = %q", seen, got)
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "custom-id-123")
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get(middleware.HeaderRequestID); got != "custom-id-123" {
		t.Fatalf("expected custom-id-123, got %s", got)
	}
}

func TestRequestIDFrom_Missing(t *testing.T) {
	if got := middleware.RequestIDFrom(context.Background()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// RequestLogger
// ---------------------------------------------------------------------------

func TestRequestLogger_LogsByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"success", http.StatusCreated, `"level":"debug"`},
		{"client error", http.StatusBadRequest, `"level":"warn"`},
		{"server error", http.StatusBadGateway, `"level":"error"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
			handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/executions?x=1", http.NoBody))

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			out := buf.String()
			if !strings.Contains(out, tt.level) {
				t.Errorf("expected %s in %s", tt.level, out)
			}
			if !strings.Contains(out, `"path":"/v1/executions?x=1"`) {
				t.Errorf("path missing from log: %s", out)
			}
		})
	}
}

func TestRequestLogger_SkipsHealth(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	called := false
	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

	if !called {
		t.Fatal("handler was not called")
	}
	if buf.Len() != 0 {
		t.Errorf("health check was logged: %s", buf.String())
	}
}

// ---------------------------------------------------------------------------
// BodySizeLimit
// ---------------------------------------------------------------------------

func TestBodySizeLimit(t *testing.T) {
	handler := middleware.BodySizeLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		body string
		want int
	}{
		{"short", http.StatusOK},
		{"much too long for the limit", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/", strings.NewReader(tt.body)))
		if rr.Code != tt.want {
			t.Errorf("body %q: expected %d, got %d", tt.body, tt.want, rr.Code)
		}
	}
}

// ---------------------------------------------------------------------------
// Chain
// ---------------------------------------------------------------------------

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := middleware.Chain(mark("a"), mark("b"), mark("c"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", http.NoBody))

	if got := strings.Join(order, ","); got != "a,b,c,handler" {
		t.Errorf("order = %s", got)
	}
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := observability.NewHTTPMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine := gin.New()
	engine.Use(middleware.Metrics(m))
	engine.GET("/v1/executions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/v1/executions/abc", http.NoBody))
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", http.NoBody))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	routes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "request.total" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", metric.Data)
			}
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value("route")
				routes[route.AsString()] += dp.Value
			}
		}
	}
	if routes["/v1/executions/:id"] != 1 {
		t.Errorf("templated route count = %d, want 1 (%v)", routes["/v1/executions/:id"], routes)
	}
	if routes["unmatched"] != 1 {
		t.Errorf("unmatched count = %d, want 1 (%v)", routes["unmatched"], routes)
	}
}

func TestMetrics_NilInstruments(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.Metrics(nil))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
}
