package health

import (
	"encoding/json"
	"net/http"

	apphealth "3tcapital/ms_extraccion_facturas/internal/application/health"
	corehealth "3tcapital/ms_extraccion_facturas/internal/core/health"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
}

func NewHandler(service *apphealth.Service) *Handler {
	return &Handler{service: service}
}

// Status answers 200 when every dependency is up and 503 otherwise, always
// with the full snapshot as body.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response := h.service.Status(r.Context())

	code := http.StatusOK
	if response.Status != corehealth.StatusUp {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}
