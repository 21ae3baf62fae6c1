package api

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/metrics"
)

// FrameHandler predicts a sign from a camera frame. The request body is an
// encoded image (JPEG, PNG, ...); the best detected hand is classified.
type FrameHandler struct {
	predict  *PredictHandler
	detector detector.Detector
	logger   *zap.Logger
}

// NewFrameHandler creates a FrameHandler.
func NewFrameHandler(predict *PredictHandler, d detector.Detector) *FrameHandler {
	return &FrameHandler{predict: predict, detector: d, logger: predict.logger}
}

type frameResponse struct {
	predictResponse
	Handedness string  `json:"handedness"`
	HandScore  float64 `json:"hand_score"`
}

type practiceFrameResponse struct {
	evaluateResponse
	Handedness string  `json:"handedness"`
	HandScore  float64 `json:"hand_score"`
}

// ServeHTTP handles POST /predict/frame. ?mode=practice adds the practice
// evaluation fields.
func (h *FrameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read image")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Image body is empty")
		return
	}

	frame, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || frame.Empty() {
		if err == nil {
			frame.Close()
		}
		metrics.FramesTotal.WithLabelValues("decode_error").Inc()
		writeError(w, http.StatusBadRequest, "Could not decode image")
		return
	}
	defer frame.Close()

	hands, err := h.detector.Detect(&frame)
	if err != nil {
		metrics.FramesTotal.WithLabelValues("detect_error").Inc()
		h.logger.Error("hand detection failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Detection error: "+err.Error())
		return
	}

	hand, ok := detector.Best(hands)
	if !ok {
		metrics.FramesTotal.WithLabelValues("no_hand").Inc()
		writeError(w, http.StatusUnprocessableEntity, "No hand detected")
		return
	}
	metrics.FramesTotal.WithLabelValues("hand").Inc()

	practice := r.URL.Query().Get("mode") == "practice"
	status, body := h.predict.respondLandmarks(r.Context(), hand.Points, practice)
	switch b := body.(type) {
	case predictResponse:
		writeJSON(w, status, frameResponse{predictResponse: b, Handedness: hand.Handedness, HandScore: hand.Score})
	case evaluateResponse:
		writeJSON(w, status, practiceFrameResponse{evaluateResponse: b, Handedness: hand.Handedness, HandScore: hand.Score})
	default:
		writeJSON(w, status, body)
	}
}
