package runid

import (
	"context"

	"github.com/google/uuid"
)

type key int

const RunKey key = 0

// New generates an identifier for one pipeline run.
func New() string {
	return uuid.New().String()
}

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunKey, id)
}

func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RunKey).(string); ok {
		return id
	}
	return "unknown"
}
