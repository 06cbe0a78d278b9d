package shared

import "context"

// Scope carries the resolved caller identity for a request. Business and
// branch are resolved by the calling layer; the engine only trusts and
// enforces them.
type Scope struct {
	BusinessID int64
	BranchID   int64
	ActorID    int64
}

type scopeContextKey struct{}

// ContextWithScope stores the scope in context.
func ContextWithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext extracts the scope from context.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(Scope)
	return scope, ok
}
