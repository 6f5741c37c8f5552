package tools

import (
	"context"

	"github.com/google/uuid"
)

// Turn carries per-request values tools need but the model never sees:
// the authenticated owner and the provider-qualified model name selected
// for the turn.
type Turn struct {
	OwnerID uuid.UUID
	Model   string
}

type turnKey struct{}

// ContextWithTurn attaches the turn values to the context the orchestrator
// hands to the gateway; Genkit threads it through to tool handlers.
func ContextWithTurn(ctx context.Context, t Turn) context.Context {
	return context.WithValue(ctx, turnKey{}, t)
}

// TurnFromContext returns the turn values, if any.
func TurnFromContext(ctx context.Context) (Turn, bool) {
	t, ok := ctx.Value(turnKey{}).(Turn)
	return t, ok
}
