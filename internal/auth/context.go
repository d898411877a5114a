package auth

import "context"

type contextKey struct{}

// AuthContext identifies the caller of a request. SessionID is zero when the
// request authenticated with a bearer token.
type AuthContext struct {
	PersonID  int64
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// PersonID returns the authenticated person, or 0 outside an authenticated request.
func PersonID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.PersonID
}
