package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

// encodedFrame returns a small blank JPEG.
func encodedFrame(t *testing.T) []byte {
	t.Helper()
	mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data
}

func newFrameHandler(t *testing.T) (*FrameHandler, *detector.MockDetector) {
	t.Helper()
	mock := detector.NewMockDetector()
	return NewFrameHandler(NewPredictHandler(newTestEngine(t), nil, 0), mock), mock
}

func TestFrameHandler(t *testing.T) {
	t.Run("predicts the best hand", func(t *testing.T) {
		h, mock := newFrameHandler(t)
		weak := detector.OpenPalmLandmarks()
		weak.Score = 0.3
		mock.SetHands([]detector.HandLandmarks{weak, detector.VictoryLandmarks()})

		req := httptest.NewRequest(http.MethodPost, "/predict/frame", bytes.NewReader(encodedFrame(t)))
		var resp frameResponse
		rec := do(t, h.ServeHTTP, req, &resp)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if resp.PredictedSign != "victory" {
			t.Errorf("expected victory, got %s", resp.PredictedSign)
		}
		if resp.Handedness != "Right" {
			t.Errorf("expected Right hand, got %s", resp.Handedness)
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 detector call, got %d", mock.Calls())
		}
	})

	t.Run("practice mode", func(t *testing.T) {
		h, mock := newFrameHandler(t)
		mock.SetHands([]detector.HandLandmarks{detector.ThumbsUpLandmarks()})

		req := httptest.NewRequest(http.MethodPost, "/predict/frame?mode=practice", bytes.NewReader(encodedFrame(t)))
		var resp practiceFrameResponse
		rec := do(t, h.ServeHTTP, req, &resp)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if !resp.IsCorrect || resp.Feedback != feedbackPass {
			t.Errorf("expected a passing evaluation, got %+v", resp)
		}
	})

	t.Run("no hand", func(t *testing.T) {
		h, _ := newFrameHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/predict/frame", bytes.NewReader(encodedFrame(t)))
		rec := do(t, h.ServeHTTP, req, nil)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
		}
	})

	t.Run("detector failure", func(t *testing.T) {
		h, mock := newFrameHandler(t)
		mock.SetError(errors.New("helper crashed"))

		req := httptest.NewRequest(http.MethodPost, "/predict/frame", bytes.NewReader(encodedFrame(t)))
		rec := do(t, h.ServeHTTP, req, nil)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
	})

	t.Run("undecodable image", func(t *testing.T) {
		h, mock := newFrameHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/predict/frame", bytes.NewReader([]byte("not an image")))
		rec := do(t, h.ServeHTTP, req, nil)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
		if mock.Calls() != 0 {
			t.Error("detector should not run on undecodable input")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		h, _ := newFrameHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/predict/frame", nil)
		rec := do(t, h.ServeHTTP, req, nil)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})
}
