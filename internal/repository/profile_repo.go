package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/pkg/database"
	"go.uber.org/zap"
)

// ProfileRepository handles profile rows, including the supervisor
// references the assignment directory owns.
type ProfileRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *database.DB, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, logger: logger}
}

// Create inserts a profile for a user.
func (r *ProfileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, first_name, last_name, position, state, circuit,
			supervisor_id, fls_supervisor_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		profile.UserID,
		profile.FirstName,
		profile.LastName,
		string(profile.Position),
		profile.State,
		profile.Circuit,
		profile.SupervisorID,
		profile.FlsSupervisorID,
	)
	if err != nil {
		r.logger.Error("Failed to create profile", zap.Int64("user_id", profile.UserID), zap.Error(err))
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves a profile by its owning user. Returns nil when
// absent.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*entity.Profile, error) {
	query := `
		SELECT user_id, first_name, last_name, position, state, circuit,
			supervisor_id, fls_supervisor_id, created_at, updated_at
		FROM profiles
		WHERE user_id = ?
	`

	var profile entity.Profile
	var position string
	var supervisorID, flsSupervisorID sql.NullInt64

	err := r.db.Executor(ctx).QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.FirstName,
		&profile.LastName,
		&position,
		&profile.State,
		&profile.Circuit,
		&supervisorID,
		&flsSupervisorID,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get profile", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.Position = entity.PositionTier(position)
	if supervisorID.Valid {
		profile.SupervisorID = &supervisorID.Int64
	}
	if flsSupervisorID.Valid {
		profile.FlsSupervisorID = &flsSupervisorID.Int64
	}
	return &profile, nil
}

// UpdateSupervisor sets or clears one supervisor channel. Returns the
// number of rows updated; zero means the profile does not exist.
func (r *ProfileRepository) UpdateSupervisor(ctx context.Context, userID int64, channel entity.Channel, supervisorID *int64) (int64, error) {
	column := "supervisor_id"
	if channel == entity.ChannelFls {
		column = "fls_supervisor_id"
	}
	query := fmt.Sprintf(
		"UPDATE profiles SET %s = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?", column)

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, supervisorID, userID)
	if err != nil {
		r.logger.Error("Failed to update supervisor",
			zap.Int64("user_id", userID),
			zap.String("channel", string(channel)),
			zap.Error(err))
		return 0, fmt.Errorf("failed to update supervisor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// ListBySupervisor returns the profiles that reference the supervisor on
// either channel, ordered by user id.
func (r *ProfileRepository) ListBySupervisor(ctx context.Context, supervisorID int64) ([]*entity.Profile, error) {
	query := `
		SELECT user_id, first_name, last_name, position, state, circuit,
			supervisor_id, fls_supervisor_id, created_at, updated_at
		FROM profiles
		WHERE supervisor_id = ? OR fls_supervisor_id = ?
		ORDER BY user_id
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, supervisorID, supervisorID)
	if err != nil {
		r.logger.Error("Failed to list profiles by supervisor", zap.Int64("supervisor_id", supervisorID), zap.Error(err))
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*entity.Profile
	for rows.Next() {
		var profile entity.Profile
		var position string
		var primaryID, flsID sql.NullInt64

		if err := rows.Scan(
			&profile.UserID,
			&profile.FirstName,
			&profile.LastName,
			&position,
			&profile.State,
			&profile.Circuit,
			&primaryID,
			&flsID,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		profile.Position = entity.PositionTier(position)
		if primaryID.Valid {
			profile.SupervisorID = &primaryID.Int64
		}
		if flsID.Valid {
			profile.FlsSupervisorID = &flsID.Int64
		}
		profiles = append(profiles, &profile)
	}
	return profiles, rows.Err()
}
