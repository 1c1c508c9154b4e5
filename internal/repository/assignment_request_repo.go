package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"github.com/fieldops/mileage-voucher/pkg/database"
	"go.uber.org/zap"
)

// AssignmentRequestRepository handles assignment request rows.
type AssignmentRequestRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewAssignmentRequestRepository creates a new assignment request repository.
func NewAssignmentRequestRepository(db *database.DB, logger *zap.Logger) *AssignmentRequestRepository {
	return &AssignmentRequestRepository{db: db, logger: logger}
}

const requestColumns = `
	id, inspector_id, requesting_supervisor_id, status, notes,
	requested_at, processed_at, processed_by
`

// Create inserts a pending request.
func (r *AssignmentRequestRepository) Create(ctx context.Context, request *entity.AssignmentRequest) error {
	query := `
		INSERT INTO assignment_requests (
			inspector_id, requesting_supervisor_id, status, notes, requested_at
		) VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		request.InspectorID,
		request.RequestingSupervisorID,
		request.Status,
		request.Notes,
		request.RequestedAt,
	)
	if err != nil {
		// The idx_requests_one_pending index rejects a second pending row
		// for the same inspector; report that as a conflict, not a storage
		// failure.
		if isUniqueConstraint(err) {
			return fmt.Errorf("%w: inspector %d already has a pending request", workflow.ErrConflict, request.InspectorID)
		}
		r.logger.Error("Failed to create assignment request",
			zap.Int64("inspector_id", request.InspectorID),
			zap.Error(err))
		return fmt.Errorf("failed to create assignment request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	return nil
}

// GetByID retrieves a request by id. Returns nil when absent.
func (r *AssignmentRequestRepository) GetByID(ctx context.Context, id int64) (*entity.AssignmentRequest, error) {
	query := `SELECT` + requestColumns + `FROM assignment_requests WHERE id = ?`

	request, err := r.scanOne(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get assignment request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get assignment request: %w", err)
	}
	return request, nil
}

// HasPending reports whether the inspector already has a pending request.
func (r *AssignmentRequestRepository) HasPending(ctx context.Context, inspectorID int64) (bool, error) {
	query := `SELECT COUNT(1) FROM assignment_requests WHERE inspector_id = ? AND status = ?`

	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, inspectorID, entity.RequestStatusPending).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count pending requests", zap.Int64("inspector_id", inspectorID), zap.Error(err))
		return false, fmt.Errorf("failed to count pending requests: %w", err)
	}
	return count > 0, nil
}

// MarkProcessed terminates a pending request. The WHERE clause re-checks
// the pending status so concurrent processors cannot both succeed; zero
// rows means the request was already terminal (or absent).
func (r *AssignmentRequestRepository) MarkProcessed(ctx context.Context, id int64, newStatus string, processedBy int64, processedAt time.Time, notes string) (int64, error) {
	query := `
		UPDATE assignment_requests
		SET status = ?, processed_by = ?, processed_at = ?, notes = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		newStatus, processedBy, processedAt, notes, id, entity.RequestStatusPending)
	if err != nil {
		r.logger.Error("Failed to mark request processed", zap.Int64("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to mark request processed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// ListPending returns pending requests oldest first, optionally filtered by
// the requesting supervisor.
func (r *AssignmentRequestRepository) ListPending(ctx context.Context, supervisorID *int64) ([]*entity.AssignmentRequest, error) {
	query := `SELECT` + requestColumns + `FROM assignment_requests WHERE status = ?`
	args := []interface{}{entity.RequestStatusPending}

	if supervisorID != nil {
		query += " AND requesting_supervisor_id = ?"
		args = append(args, *supervisorID)
	}
	query += " ORDER BY requested_at ASC"

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list pending requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.AssignmentRequest
	for rows.Next() {
		request, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *AssignmentRequestRepository) scanOne(row rowScanner) (*entity.AssignmentRequest, error) {
	var request entity.AssignmentRequest
	var notes sql.NullString
	var processedAt sql.NullTime
	var processedBy sql.NullInt64

	err := row.Scan(
		&request.ID,
		&request.InspectorID,
		&request.RequestingSupervisorID,
		&request.Status,
		&notes,
		&request.RequestedAt,
		&processedAt,
		&processedBy,
	)
	if err != nil {
		return nil, err
	}

	if notes.Valid {
		request.Notes = notes.String
	}
	if processedAt.Valid {
		request.ProcessedAt = &processedAt.Time
	}
	if processedBy.Valid {
		request.ProcessedBy = &processedBy.Int64
	}
	return &request, nil
}
