// Package requestctx carries authenticated request identity through context.
package requestctx

import "context"

// playerIDContextKey is the context key for authenticated player identity.
type playerIDContextKey struct{}

// WithPlayerID stores a player identifier in context.
func WithPlayerID(ctx context.Context, playerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, playerIDContextKey{}, playerID)
}

// PlayerIDFromContext returns the player identifier stored in context.
func PlayerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(playerIDContextKey{}).(string)
	return value
}
