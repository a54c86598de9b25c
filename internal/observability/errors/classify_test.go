package errors

import (
	"context"
	"fmt"
	"io"
	"testing"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"canceled", fmt.Errorf("load profile: %w", context.Canceled), "canceled"},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{"provider", fmt.Errorf("sign in: %w", &domainauth.ProviderError{Code: "invalid_credentials"}), "auth_providererror"},
		{"sentinel", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), "errors_errorstring"},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Fatalf("%s: Classify = %q, want %q", tt.name, got, tt.want)
		}
	}
}
