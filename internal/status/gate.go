package status

import (
	"context"
	"fmt"
	"strings"

	"aurelia-be/internal/logger"

	"go.uber.org/zap"
)

type Gate interface {
	CheckServiceAvailable(ctx context.Context) (Availability, error)
}

type gate struct {
	repo Repository
}

func NewGate(repo Repository) Gate {
	return &gate{repo: repo}
}

// CheckServiceAvailable reads the stop flag. A read failure is returned to the
// caller rather than treated as "available".
func (g *gate) CheckServiceAvailable(ctx context.Context) (Availability, error) {
	s, err := g.repo.Get(ctx)
	if err != nil {
		return Availability{}, fmt.Errorf("read service status: %w", err)
	}
	if s == nil || !s.IsStopped {
		return Availability{}, nil
	}

	msg := strings.TrimSpace(s.Message)
	if msg == "" {
		msg = DefaultStoppedMessage
	}

	logger.FromCtx(ctx).Info("service stopped by operator",
		zap.String("layer", "service"),
		zap.String("method", "CheckServiceAvailable"),
		zap.Time("since", s.UpdatedAt),
	)

	return Availability{Stopped: true, Message: msg}, nil
}
