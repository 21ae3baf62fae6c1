package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dictionary"
	"github.com/ayusman/mudra/internal/inference"
)

func newTestEngine(t *testing.T) *inference.Engine {
	t.Helper()
	dict, err := dictionary.New(
		dictionary.Entry{Label: "thumbs_up", Vector: detector.ThumbsUpLandmarks().Points.Normalize().Flatten()},
		dictionary.Entry{Label: "open_palm", Vector: detector.OpenPalmLandmarks().Points.Normalize().Flatten()},
	)
	if err != nil {
		t.Fatalf("failed to build dictionary: %v", err)
	}
	return inference.New(nil, dict)
}

type brokenClassifier struct{}

func (brokenClassifier) Predict([]float32) ([]float32, error) { return nil, errors.New("session closed") }
func (brokenClassifier) Close() error                          { return nil }

func TestServer_Health(t *testing.T) {
	s := New(Config{Engine: newTestEngine(t)})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "healthy" {
			t.Errorf("expected status 'healthy', got %v", response["status"])
		}
		if response["model_loaded"] != false {
			t.Errorf("expected model_loaded false, got %v", response["model_loaded"])
		}
		if response["dictionary_size"] != float64(2) {
			t.Errorf("expected dictionary_size 2, got %v", response["dictionary_size"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_Root(t *testing.T) {
	t.Run("lists endpoints", func(t *testing.T) {
		s := New(Config{Version: "1.2.3"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		var response rootResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Status != "running" || response.Version != "1.2.3" {
			t.Errorf("unexpected response: %+v", response)
		}
		if response.Endpoints["predict"] != "/predict" {
			t.Errorf("expected predict endpoint, got %v", response.Endpoints)
		}
		if _, ok := response.Endpoints["frame"]; ok {
			t.Error("frame endpoint should not be listed without a detector")
		}
	})

	t.Run("lists frame endpoint with a detector", func(t *testing.T) {
		s := New(Config{Detector: detector.NewMockDetector()})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		var response rootResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if response.Endpoints["frame"] != "/predict/frame" {
			t.Errorf("expected frame endpoint, got %v", response.Endpoints)
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_FrameRouteNeedsDetector(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodPost, "/predict/frame", strings.NewReader("x"))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_Predict(t *testing.T) {
	s := New(Config{Engine: newTestEngine(t)})

	body, _ := json.Marshal(map[string]interface{}{"landmarks": detector.OpenPalmLandmarks().Points.Rows()})
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var response struct {
		PredictedSign string  `json:"predicted_sign"`
		Confidence    float64 `json:"confidence"`
	}
	json.NewDecoder(rec.Body).Decode(&response)
	if response.PredictedSign != "open_palm" {
		t.Errorf("expected open_palm, got %s", response.PredictedSign)
	}
}

func TestServer_Middleware(t *testing.T) {
	s := New(Config{MaxBodyBytes: 32})

	t.Run("assigns a request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a request ID header")
		}
	})

	t.Run("keeps the caller's request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("expected abc-123, got %s", got)
		}
	})

	t.Run("allows any origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected wildcard CORS origin")
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{"landmarks": detector.OpenPalmLandmarks().Points.Rows()})
		req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, rec.Code)
		}
	})
}

func TestServer_Metrics(t *testing.T) {
	s := New(Config{})

	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mudra_http_requests_total") {
		t.Error("expected request metrics in output")
	}
}

func TestRouteOf(t *testing.T) {
	tests := map[string]string{
		"/predict":       "/predict",
		"/signs/victory": "/signs/{label}",
		"/random/path":   "other",
	}
	for path, want := range tests {
		if got := routeOf(path); got != want {
			t.Errorf("routeOf(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		s := New(Config{})

		if s == nil {
			t.Fatal("expected non-nil server")
		}
		if s.config.Engine == nil {
			t.Error("expected a default engine")
		}
		if s.config.MaxBodyBytes != 1<<20 {
			t.Errorf("expected default body limit, got %d", s.config.MaxBodyBytes)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})
}

func TestServer_PredictionFailureLogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(Config{
		Engine: inference.New(brokenClassifier{}, nil),
		Logger: zap.New(core),
	})

	body, _ := json.Marshal(map[string]interface{}{"landmarks": detector.VictoryLandmarks().Points.Rows()})
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
	req.Header.Set(RequestIDHeader, "trace-me")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}

	failures := logs.FilterMessage("prediction failed").All()
	if len(failures) != 1 {
		t.Fatalf("expected 1 prediction failure log, got %d", len(failures))
	}
	if got := failures[0].ContextMap()["request_id"]; got != "trace-me" {
		t.Errorf("expected request_id trace-me, got %v", got)
	}
}
