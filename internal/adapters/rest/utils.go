package rest

import (
	"net/http"

	"github.com/goccy/go-json"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSONError отправляет JSON-ответ {error, message} с заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, errText, message string) {
	RespondWithJSON(w, statusCode, errorResponse{Error: errText, Message: message})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(response)
}
