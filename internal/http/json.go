package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Client went away; nothing left to do.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
	// Message overrides Err.Error() as the user-facing text.
	Message string
	Field   string
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := p.Message
	if msg == "" && p.Err != nil {
		msg = p.Err.Error()
	}
	if msg == "" {
		msg = http.StatusText(p.Code)
	}
	WriteJSON(w, p.Code, errorBody{Error: p.ErrCode, Message: msg, Field: p.Field})
}

// WriteAppError maps an application error onto status, code and message.
// Internal errors never leak their cause; fallback is shown instead.
func WriteAppError(w http.ResponseWriter, err error, fallback string) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	WriteError(w, ErrorParams{
		Code:    apperrors.HTTPStatus(err),
		ErrCode: string(code),
		Err:     err,
		Message: apperrors.UserMessage(err, fallback),
		Field:   apperrors.GetField(err),
	})
}
