package user

import (
	"context"
	"database/sql"
	"errors"

	"aurelia-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	FindByID(ctx context.Context, id uint) (*User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uint) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "FindByID"),
		zap.Uint("user_id", id),
	)

	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(name, ''), email, COALESCE(phone, ''), role
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role)

	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("user not found")
		return nil, ErrUserNotFound
	}
	if err != nil {
		log.Error("db: failed to load user", zap.Error(err))
		return nil, err
	}

	return &u, nil
}
