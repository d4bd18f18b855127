package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		zap.L().Error(logMsg, zap.Int("status", status), zap.Error(err))
	}

	http.Error(w, userMsg, status)
}

// respondJSON writes v as the JSON response body
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("Failed to encode JSON response", zap.Error(err))
	}
}

// errorBody is the JSON error shape of the wizard and staff APIs
type errorBody struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}

func respondJSONError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		zap.L().Error(logMsg, zap.Int("status", status), zap.Error(err))
	}
	respondJSON(w, status, errorBody{Error: userMsg})
}
