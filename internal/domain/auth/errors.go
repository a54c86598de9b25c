package auth

import "fmt"

// ProviderError is a rejection returned by the identity backend.
// Code is the backend's machine-readable error code when it sends one.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity provider: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("identity provider (%d): %s", e.Status, e.Message)
}
