package graph

import (
	"context"
	"net/http"

	"aurelia-be/internal/logger"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
)

// NewHandler serves the schema over POST. Identity comes from the router's
// auth middleware.
func NewHandler(r *Resolver) http.Handler {
	srv := handler.New(NewExecutableSchema(r))
	srv.AddTransport(transport.POST{})

	srv.SetRecoverFunc(func(ctx context.Context, err any) error {
		logger.FromCtx(ctx).Error("graphql panic",
			zap.String("layer", "graph"),
			zap.Any("panic", err),
		)
		return gqlerror.Errorf("internal server error")
	})

	return srv
}
