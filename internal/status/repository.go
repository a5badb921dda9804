package status

import (
	"context"
	"database/sql"
	"errors"

	"aurelia-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	// Get returns nil, nil when no status row has been written yet.
	Get(ctx context.Context) (*ServiceStatus, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*ServiceStatus, error) {
	var (
		s       ServiceStatus
		message sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT is_stopped, message, updated_at
		FROM service_status
		ORDER BY id
		LIMIT 1
	`).Scan(&s.IsStopped, &message, &s.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to read service status",
			zap.String("layer", "repository"),
			zap.String("method", "Get"),
			zap.Error(err),
		)
		return nil, err
	}

	s.Message = message.String
	return &s, nil
}
