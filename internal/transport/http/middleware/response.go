package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the handler package's error envelope so middleware rejections
// and handler rejections share one shape.
type errorBody struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, ErrorCode: status})
}
