package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dictionary"
	"github.com/ayusman/mudra/internal/inference"
)

// newTestEngine creates an Engine whose dictionary holds the fixture hands.
func newTestEngine(t *testing.T) *inference.Engine {
	t.Helper()

	dict, err := dictionary.New(
		dictionary.Entry{Label: "thumbs_up", Vector: detector.ThumbsUpLandmarks().Points.Normalize().Flatten()},
		dictionary.Entry{Label: "open_palm", Vector: detector.OpenPalmLandmarks().Points.Normalize().Flatten()},
		dictionary.Entry{Label: "victory", Vector: detector.VictoryLandmarks().Points.Normalize().Flatten()},
	)
	if err != nil {
		t.Fatalf("failed to build dictionary: %v", err)
	}
	return inference.New(nil, dict)
}

// landmarksBody encodes rows as a predict request body.
func landmarksBody(t *testing.T, rows [][]float64) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"landmarks": rows})
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

// do runs a request against h and decodes the JSON response into out.
func do(t *testing.T, h http.HandlerFunc, req *http.Request, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, req)
	if out != nil {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec
}
