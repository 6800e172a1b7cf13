package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"hrdesk/internal/platform/apperr"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success   bool           `json:"success"`
	Data      any            `json:"data,omitempty"`
	Error     *Error         `json:"error,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]any, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, Details: details, RequestID: requestID})
}

// FailError reports err using its apperr kind. Unclassified errors are
// logged and hidden behind a generic message.
func FailError(w http.ResponseWriter, err error, requestID string) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		slog.Error("request failed", "requestId", requestID, "err", err)
		Fail(w, http.StatusInternalServerError, string(apperr.KindInternal), "internal error", requestID)
		return
	}
	status := apperr.HTTPStatus(appErr.Kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "requestId", requestID, "err", err)
		Fail(w, status, string(appErr.Kind), "internal error", requestID)
		return
	}
	FailWithDetails(w, status, string(appErr.Kind), err.Error(), appErr.Details, requestID)
}
