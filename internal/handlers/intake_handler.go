package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"swimintake/internal/service"
	"swimintake/internal/summary"
	"swimintake/internal/validation"
)

// IntakeHandler serves the stateless submit endpoint used by older clients
type IntakeHandler struct {
	intake *service.IntakeService
	logger *zap.Logger
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(intake *service.IntakeService, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{
		intake: intake,
		logger: logger,
	}
}

// submitResponse mirrors the endpoint's historical {ok, messageId|error} shape
type submitResponse struct {
	OK        bool    `json:"ok"`
	MessageID *string `json:"messageId,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Submit validates a flat intake payload and mails it to the team
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, submitResponse{Error: ErrInvalidRequestBody})
		return
	}
	if err := validation.ValidatePayloadJSON(raw); err != nil {
		msg := err.Error()
		if errs, ok := validation.AsErrors(err); ok && len(errs) > 0 {
			msg = errs[0].Message
		}
		respondJSON(w, http.StatusBadRequest, submitResponse{Error: msg})
		return
	}

	var payload summary.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		respondJSON(w, http.StatusBadRequest, submitResponse{Error: ErrInvalidRequestBody})
		return
	}

	sub, err := h.intake.SubmitPayload(r.Context(), payload)
	switch {
	case errors.Is(err, service.ErrMissingFields):
		respondJSON(w, http.StatusBadRequest, submitResponse{Error: ErrMissingRequired})
		return
	case err != nil:
		h.logger.Error("intake-submit failed", zap.Error(err))
		msg := "Server error"
		if sub != nil && sub.LastError != "" {
			msg = sub.LastError
		}
		respondJSON(w, http.StatusInternalServerError, submitResponse{Error: msg})
		return
	}

	resp := submitResponse{OK: true}
	if sub.MessageID != "" {
		resp.MessageID = &sub.MessageID
	}
	respondJSON(w, http.StatusOK, resp)
}
