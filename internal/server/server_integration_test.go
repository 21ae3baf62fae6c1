package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dictionary"
	"github.com/ayusman/mudra/internal/inference"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_PracticeWorkflow(t *testing.T) {
	// Setup: reference signs stored in SQLite, loaded like at startup
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "signs.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	dict, _ := dictionary.New(
		dictionary.Entry{Label: "hello", Vector: detector.OpenPalmLandmarks().Points.Normalize().Flatten()},
		dictionary.Entry{Label: "good", Vector: detector.ThumbsUpLandmarks().Points.Normalize().Flatten()},
	)
	if err := dictionary.ToStore(st, dict, map[string]int{"hello": 5, "good": 3}); err != nil {
		t.Fatalf("ToStore() error = %v", err)
	}
	st.Close()

	engine := inference.Load(inference.LoadConfig{DictionaryPath: dbPath}, logging.Nop())
	srv := New(Config{Engine: engine})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln, ServeOptions{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, ShutdownTimeout: time.Second})
	}()

	base := "http://" + ln.Addr().String()
	client := &http.Client{Timeout: 5 * time.Second}

	// 1. Health reports the dictionary
	resp, err := client.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	var health healthResponse
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()

	if health.DictionarySize != 2 {
		t.Errorf("dictionary_size = %d, want 2", health.DictionarySize)
	}

	// 2. List signs in stored order
	resp, _ = client.Get(base + "/signs")
	var listed struct {
		Signs []struct {
			Label string `json:"label"`
		} `json:"signs"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Signs) != 2 || listed.Signs[0].Label != "hello" {
		t.Errorf("signs = %+v, want hello first", listed.Signs)
	}

	// 3. Evaluate a practice attempt
	body, _ := json.Marshal(map[string]interface{}{"landmarks": detector.ThumbsUpLandmarks().Points.Rows()})
	resp, err = client.Post(base+"/practice/evaluate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /practice/evaluate error = %v", err)
	}
	var evaluated struct {
		PredictedSign string `json:"predicted_sign"`
		IsCorrect     bool   `json:"is_correct"`
	}
	json.NewDecoder(resp.Body).Decode(&evaluated)
	resp.Body.Close()

	if evaluated.PredictedSign != "good" || !evaluated.IsCorrect {
		t.Errorf("evaluation = %+v, want good and correct", evaluated)
	}

	// 4. Shut down gracefully
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
