package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxStreamMessage bounds one landmarks message on the live socket.
const maxStreamMessage = 64 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler answers landmark messages over a WebSocket, one prediction
// per message, for live practice sessions.
type StreamHandler struct {
	predict *PredictHandler
	logger  *zap.Logger
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(predict *PredictHandler) *StreamHandler {
	return &StreamHandler{predict: predict, logger: predict.logger}
}

// ServeHTTP handles GET /predict/stream. ?mode=practice answers with
// practice evaluations instead of plain predictions.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxStreamMessage)
	practice := r.URL.Query().Get("mode") == "practice"

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("stream closed", zap.Error(err))
			}
			return
		}

		var req predictRequest
		var body interface{}
		if err := json.Unmarshal(msg, &req); err != nil {
			body = errorResponse{Error: "Invalid JSON"}
		} else {
			_, body = h.predict.respond(r.Context(), req.Landmarks, practice)
		}

		if err := conn.WriteJSON(body); err != nil {
			return
		}
	}
}
