package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/dictionary"
)

// SignHandler exposes the loaded reference dictionary read-only.
type SignHandler struct {
	dict *dictionary.Dictionary
}

// NewSignHandler creates a SignHandler over dict.
func NewSignHandler(dict *dictionary.Dictionary) *SignHandler {
	return &SignHandler{dict: dict}
}

// ServeHTTP routes /signs and /signs/{label}.
func (h *SignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	label := strings.TrimPrefix(r.URL.Path, "/signs")
	label = strings.TrimPrefix(label, "/")

	if label == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, label)
}

// Response types

type signResponse struct {
	Label  string    `json:"label"`
	Index  int       `json:"index"`
	Vector []float64 `json:"vector,omitempty"`
}

type listSignsResponse struct {
	Signs []signResponse `json:"signs"`
	Count int            `json:"count"`
}

// list handles GET /signs and returns the labels in classifier order.
func (h *SignHandler) list(w http.ResponseWriter, r *http.Request) {
	labels := h.dict.Labels()
	response := listSignsResponse{
		Signs: make([]signResponse, 0, len(labels)),
		Count: len(labels),
	}
	for i, label := range labels {
		response.Signs = append(response.Signs, signResponse{Label: label, Index: i})
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /signs/{label} and returns the reference vector.
func (h *SignHandler) get(w http.ResponseWriter, r *http.Request, label string) {
	vec, ok := h.dict.Vector(label)
	if !ok {
		writeError(w, http.StatusNotFound, "Sign not found")
		return
	}

	index := 0
	for i, l := range h.dict.Labels() {
		if l == label {
			index = i
			break
		}
	}

	writeJSON(w, http.StatusOK, signResponse{Label: label, Index: index, Vector: vec})
}
