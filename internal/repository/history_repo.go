package repository

import (
	"context"
	"fmt"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/pkg/database"
	"go.uber.org/zap"
)

// HistoryRepository appends and reads the immutable voucher audit trail.
type HistoryRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *database.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// Create appends an audit record. Called inside the same transaction as the
// status transition it records.
func (r *HistoryRepository) Create(ctx context.Context, history *entity.VoucherHistory) error {
	query := `
		INSERT INTO voucher_history (
			event_id, voucher_id, previous_status, new_status, action,
			actor_id, action_data
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		history.EventID,
		history.VoucherID,
		history.PreviousStatus,
		history.NewStatus,
		history.Action,
		history.ActorID,
		history.ActionData,
	)
	if err != nil {
		r.logger.Error("Failed to create voucher history",
			zap.Int64("voucher_id", history.VoucherID),
			zap.Error(err))
		return fmt.Errorf("failed to create voucher history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	history.ID = id
	return nil
}

// ListByVoucher returns the voucher's audit records oldest first.
func (r *HistoryRepository) ListByVoucher(ctx context.Context, voucherID int64) ([]*entity.VoucherHistory, error) {
	query := `
		SELECT id, event_id, voucher_id, previous_status, new_status,
			action, actor_id, action_data, created_at
		FROM voucher_history
		WHERE voucher_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, voucherID)
	if err != nil {
		r.logger.Error("Failed to list voucher history", zap.Int64("voucher_id", voucherID), zap.Error(err))
		return nil, fmt.Errorf("failed to list voucher history: %w", err)
	}
	defer rows.Close()

	var records []*entity.VoucherHistory
	for rows.Next() {
		var h entity.VoucherHistory
		if err := rows.Scan(
			&h.ID,
			&h.EventID,
			&h.VoucherID,
			&h.PreviousStatus,
			&h.NewStatus,
			&h.Action,
			&h.ActorID,
			&h.ActionData,
			&h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan voucher history: %w", err)
		}
		records = append(records, &h)
	}
	return records, rows.Err()
}
