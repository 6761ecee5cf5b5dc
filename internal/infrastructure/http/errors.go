package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error titles shared by every handler.
const (
	MessageValidation         = "Error de Validación"
	MessageUnsupportedType    = "Tipo de Archivo No Soportado"
	MessageExtraction         = "Error de Extracción"
	MessageTooManyRequests    = "Demasiadas Solicitudes"
	MessageServiceUnavailable = "Servicio No Disponible"
	MessageUnauthorized       = "No Autorizado"
	MessageNotFound           = "Recurso No Encontrado"
	MessageInternal           = "Error Interno del Servidor"
)

// ErrorResponse represents a standardized error response format.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WriteError writes a standardized JSON error response. A nil errors slice
// is rendered as an empty array.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors []string, log *slog.Logger) {
	if errors == nil {
		errors = []string{}
	}
	WriteJSON(w, statusCode, ErrorResponse{Message: message, Errors: errors}, log)
}

// WriteJSON encodes body with the given status. Encoding failures are only
// logged because the status line is already sent.
func WriteJSON(w http.ResponseWriter, statusCode int, body any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil && log != nil {
		log.Error("failed to encode response", "error", err, "status", statusCode)
	}
}
