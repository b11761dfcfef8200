package pipeline

import (
	"context"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithRequestID tags ctx with the id logged by every stage.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (p *Pipeline) requestLogger(ctx context.Context) *zap.Logger {
	if id := RequestIDFrom(ctx); id != "" {
		return p.logger.With(zap.String("request_id", id))
	}
	return p.logger
}
