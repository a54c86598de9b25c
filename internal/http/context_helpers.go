package httpx

import (
	"context"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/service"
)

// Unexported context key types to avoid collisions across packages.
type (
	controllerKey struct{}
	scopeIDKey    struct{}
	authStateKey  struct{}
)

// WithSessionController returns a child context carrying the scope's controller and id.
func WithSessionController(ctx context.Context, scopeID string, ctrl *service.SessionController) context.Context {
	ctx = context.WithValue(ctx, scopeIDKey{}, scopeID)
	return context.WithValue(ctx, controllerKey{}, ctrl)
}

// SessionControllerFrom returns the controller mounted by AuthScope and whether one is present.
func SessionControllerFrom(ctx context.Context) (*service.SessionController, bool) {
	ctrl, ok := ctx.Value(controllerKey{}).(*service.SessionController)
	return ctrl, ok && ctrl != nil
}

// MustSessionController returns the mounted controller. Calling it on a route that is not
// wrapped by AuthScope is a programming error and panics.
func MustSessionController(ctx context.Context) *service.SessionController {
	ctrl, ok := SessionControllerFrom(ctx)
	if !ok {
		panic("httpx: session controller used outside AuthScope") //nolint:forbidigo // wiring bug
	}
	return ctrl
}

// ScopeIDFrom returns the client scope id of the request.
func ScopeIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(scopeIDKey{}).(string)
	return id
}

// withAuthState records the settled state RouteGuard admitted the request with.
func withAuthState(ctx context.Context, st domainauth.AuthState) context.Context {
	return context.WithValue(ctx, authStateKey{}, st)
}

// AuthStateFrom returns the state admitted by RouteGuard, falling back to the controller's
// current state on unguarded routes.
func AuthStateFrom(ctx context.Context) domainauth.AuthState {
	if st, ok := ctx.Value(authStateKey{}).(domainauth.AuthState); ok {
		return st
	}
	if ctrl, ok := SessionControllerFrom(ctx); ok {
		return ctrl.State()
	}
	return domainauth.SignedOutState()
}

// CurrentUser returns the authenticated user of the request, or nil.
func CurrentUser(ctx context.Context) domainauth.User {
	return AuthStateFrom(ctx).User
}
