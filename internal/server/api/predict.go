package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/inference"
)

// DefaultPassThreshold is the confidence a practice attempt must exceed.
const DefaultPassThreshold = inference.DefaultPassThreshold

const (
	feedbackPass = "Excellent! Your sign is accurate."
	feedbackFail = "Try again. Make sure your hand position matches the reference."
)

// PredictHandler serves landmark predictions and practice evaluations.
type PredictHandler struct {
	engine        *inference.Engine
	logger        *zap.Logger
	passThreshold float64
}

// NewPredictHandler creates a PredictHandler. A passThreshold of 0 uses
// DefaultPassThreshold.
func NewPredictHandler(engine *inference.Engine, logger *zap.Logger, passThreshold float64) *PredictHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if passThreshold == 0 {
		passThreshold = DefaultPassThreshold
	}
	return &PredictHandler{
		engine:        engine,
		logger:        logger,
		passThreshold: passThreshold,
	}
}

// Request and response types

type predictRequest struct {
	Landmarks [][]float64 `json:"landmarks"`
}

type predictResponse struct {
	PredictedSign string  `json:"predicted_sign"`
	Confidence    float64 `json:"confidence"`
	Status        string  `json:"status"`
}

type evaluateResponse struct {
	predictResponse
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

// Predict handles POST /predict.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false)
}

// Evaluate handles POST /practice/evaluate.
func (h *PredictHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true)
}

func (h *PredictHandler) serve(w http.ResponseWriter, r *http.Request, practice bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	status, body := h.respond(r.Context(), req.Landmarks, practice)
	writeJSON(w, status, body)
}

// respond predicts rows and returns the status code and JSON body to send.
func (h *PredictHandler) respond(ctx context.Context, rows [][]float64, practice bool) (int, interface{}) {
	if len(rows) == 0 {
		return http.StatusBadRequest, errorResponse{Error: "Landmarks array is empty"}
	}

	pred, err := h.engine.PredictRows(ctx, rows)
	if err != nil {
		if inference.IsInputError(err) {
			return http.StatusBadRequest, errorResponse{Error: err.Error()}
		}
		return h.predictionFailed(ctx, err)
	}

	return http.StatusOK, h.body(pred, practice)
}

// respondLandmarks is respond for landmarks that are already validated.
func (h *PredictHandler) respondLandmarks(ctx context.Context, lm detector.Landmarks, practice bool) (int, interface{}) {
	pred, err := h.engine.Predict(ctx, lm)
	if err != nil {
		return h.predictionFailed(ctx, err)
	}
	return http.StatusOK, h.body(pred, practice)
}

func (h *PredictHandler) predictionFailed(ctx context.Context, err error) (int, interface{}) {
	h.logger.Error("prediction failed",
		zap.String("request_id", RequestID(ctx)),
		zap.Error(err),
	)
	return http.StatusInternalServerError, errorResponse{Error: "Prediction error: " + err.Error()}
}

func (h *PredictHandler) body(pred inference.Prediction, practice bool) interface{} {
	resp := predictResponse{
		PredictedSign: pred.Label,
		Confidence:    pred.Confidence,
		Status:        "success",
	}
	if !practice {
		return resp
	}

	passed := pred.Confidence > h.passThreshold
	feedback := feedbackFail
	if passed {
		feedback = feedbackPass
	}
	return evaluateResponse{
		predictResponse: resp,
		IsCorrect:       passed,
		Feedback:        feedback,
	}
}
