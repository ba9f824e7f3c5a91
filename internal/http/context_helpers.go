package httpx

import "context"

// Caller identifies who triggered a request once trigger auth has passed.
type Caller struct {
	// Method is the auth mode that admitted the caller: none, token or oidc.
	Method  string
	Subject string
	Email   string
}

// callerKey is an unexported context key type to avoid collisions across packages.
type callerKey struct{}

// SetCallerInContext returns a child context that carries the given caller.
func SetCallerInContext(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller and whether one was set.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
