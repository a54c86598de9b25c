package gotrue

import (
	"encoding/json"
	"net/http"
	"strings"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

// errorBody covers the error shapes GoTrue has used across versions.
type errorBody struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func parseError(status int, data []byte) *domainauth.ProviderError {
	pe := &domainauth.ProviderError{Status: status}
	var b errorBody
	if err := json.Unmarshal(data, &b); err != nil {
		pe.Message = strings.TrimSpace(string(data))
		if pe.Message == "" {
			pe.Message = http.StatusText(status)
		}
		return pe
	}

	pe.Code = b.ErrorCode
	if pe.Code == "" && b.ErrorDescription != "" {
		// OAuth-style body: error is the code, error_description the text.
		pe.Code = b.Error
	}
	for _, m := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if m != "" {
			pe.Message = m
			break
		}
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(status)
	}
	return pe
}
