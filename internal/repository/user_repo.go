// Package repository implements SQLite persistence for the voucher and
// assignment workflows.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/pkg/database"
	"go.uber.org/zap"
)

// UserRepository handles user rows.
type UserRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts a user.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (email, role) VALUES (?, ?)`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, user.Email, string(user.Role))
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByID retrieves a user by id. Returns nil when absent.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT id, email, role, created_at FROM users WHERE id = ?`

	var user entity.User
	var role string
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &role, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = entity.Role(role)
	return &user, nil
}

// GetByEmail retrieves a user by email. Returns nil when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT id, email, role, created_at FROM users WHERE email = ?`

	var user entity.User
	var role string
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &role, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = entity.Role(role)
	return &user, nil
}
