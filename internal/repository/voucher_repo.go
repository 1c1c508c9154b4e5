package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/pkg/database"
	"go.uber.org/zap"
)

// VoucherRepository handles voucher rows. Every status transition is a
// compare-and-swap: the UPDATE re-checks the expected source status so
// concurrent approvals of the same voucher cannot both succeed.
type VoucherRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewVoucherRepository creates a new voucher repository.
func NewVoucherRepository(db *database.DB, logger *zap.Logger) *VoucherRepository {
	return &VoucherRepository{db: db, logger: logger}
}

const voucherColumns = `
	id, reference, user_id, month, year, status, total_miles,
	total_amount_cents, required_channel, submitted_at, supervisor_id,
	supervisor_approved_at, fleet_manager_id, fleet_approved_at,
	rejection_reason, form_data, pdf_url, created_at, updated_at
`

// Create inserts a draft voucher.
func (r *VoucherRepository) Create(ctx context.Context, voucher *entity.Voucher) error {
	query := `
		INSERT INTO vouchers (
			reference, user_id, month, year, status, form_data
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		voucher.Reference,
		voucher.UserID,
		voucher.Month,
		voucher.Year,
		voucher.Status,
		voucher.FormData,
	)
	if err != nil {
		r.logger.Error("Failed to create voucher",
			zap.Int64("user_id", voucher.UserID),
			zap.Int("month", voucher.Month),
			zap.Int("year", voucher.Year),
			zap.Error(err))
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	voucher.ID = id
	return nil
}

// GetByID retrieves a voucher by id. Returns nil when absent.
func (r *VoucherRepository) GetByID(ctx context.Context, id int64) (*entity.Voucher, error) {
	query := `SELECT` + voucherColumns + `FROM vouchers WHERE id = ?`

	voucher, err := r.scanOne(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get voucher", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	return voucher, nil
}

// GetByUserPeriod retrieves the voucher for a (user, month, year). Returns
// nil when absent.
func (r *VoucherRepository) GetByUserPeriod(ctx context.Context, userID int64, month, year int) (*entity.Voucher, error) {
	query := `SELECT` + voucherColumns + `FROM vouchers WHERE user_id = ? AND month = ? AND year = ?`

	voucher, err := r.scanOne(r.db.Executor(ctx).QueryRowContext(ctx, query, userID, month, year))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get voucher by period",
			zap.Int64("user_id", userID),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	return voucher, nil
}

// UpdateFormData replaces the form payload of an editable voucher. Zero
// rows means the voucher is absent or no longer editable.
func (r *VoucherRepository) UpdateFormData(ctx context.Context, id int64, formData string) (int64, error) {
	query := `
		UPDATE vouchers
		SET form_data = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		formData, id, entity.VoucherStatusDraft, entity.VoucherStatusRejected)
	if err != nil {
		r.logger.Error("Failed to update form data", zap.Int64("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to update form data: %w", err)
	}
	return rowsAffected(result)
}

// MarkSubmitted moves draft -> submitted with the computed totals and the
// audit snapshot of the required approver channel.
func (r *VoucherRepository) MarkSubmitted(ctx context.Context, id int64, totalMiles float64, totalAmountCents int64, channel entity.Channel, at time.Time) (int64, error) {
	query := `
		UPDATE vouchers
		SET status = ?, total_miles = ?, total_amount_cents = ?,
			required_channel = ?, submitted_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entity.VoucherStatusSubmitted, totalMiles, totalAmountCents,
		string(channel), at, id, entity.VoucherStatusDraft)
	if err != nil {
		r.logger.Error("Failed to mark voucher submitted", zap.Int64("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to mark voucher submitted: %w", err)
	}
	return rowsAffected(result)
}

// MarkSupervisorApproved moves submitted -> supervisor_approved and
// snapshots the approving supervisor.
func (r *VoucherRepository) MarkSupervisorApproved(ctx context.Context, id, supervisorID int64, at time.Time) (int64, error) {
	query := `
		UPDATE vouchers
		SET status = ?, supervisor_id = ?, supervisor_approved_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entity.VoucherStatusSupervisorApproved, supervisorID, at,
		id, entity.VoucherStatusSubmitted)
	if err != nil {
		r.logger.Error("Failed to mark voucher supervisor approved", zap.Int64("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to mark voucher supervisor approved: %w", err)
	}
	return rowsAffected(result)
}

// MarkFleetApproved moves supervisor_approved -> fleet_approved and
// snapshots the fleet manager.
func (r *VoucherRepository) MarkFleetApproved(ctx context.Context, id, fleetManagerID int64, at time.Time) (int64, error) {
	query := `
		UPDATE vouchers
		SET status = ?, fleet_manager_id = ?, fleet_approved_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entity.VoucherStatusFleetApproved, fleetManagerID, at,
		id, entity.VoucherStatusSupervisorApproved)
	if err != nil {
		r.logger.Error("Failed to mark voucher fleet approved", zap.Int64("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to mark voucher fleet approved: %w", err)
	}
	return rowsAffected(result)
}

// MarkRejected moves the voucher from the given source status to rejected.
// Approval timestamps from the current cycle are cleared; the document must
// be fully re-approved after edit.
func (r *VoucherRepository) MarkRejected(ctx context.Context, id int64, fromStatus, reason string) (int64, error) {
	query := `
		UPDATE vouchers
		SET status = ?, rejection_reason = ?,
			supervisor_approved_at = NULL, fleet_approved_at = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entity.VoucherStatusRejected, reason, id, fromStatus)
	if err != nil {
		r.logger.Error("Failed to mark voucher rejected", zap.Int64("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to mark voucher rejected: %w", err)
	}
	return rowsAffected(result)
}

// MarkReopened moves rejected -> draft, clearing the rejection reason and
// the prior cycle's approver snapshots.
func (r *VoucherRepository) MarkReopened(ctx context.Context, id int64) (int64, error) {
	query := `
		UPDATE vouchers
		SET status = ?, rejection_reason = NULL,
			supervisor_id = NULL, fleet_manager_id = NULL,
			submitted_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entity.VoucherStatusDraft, id, entity.VoucherStatusRejected)
	if err != nil {
		r.logger.Error("Failed to reopen voucher", zap.Int64("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to reopen voucher: %w", err)
	}
	return rowsAffected(result)
}

// ListSubmittedForSupervisor returns submitted vouchers whose owner's
// current directory entry routes to the given supervisor, oldest
// submission first.
func (r *VoucherRepository) ListSubmittedForSupervisor(ctx context.Context, supervisorID int64) ([]*entity.Voucher, error) {
	query := `
		SELECT` + prefixedVoucherColumns + `
		FROM vouchers v
		JOIN profiles p ON p.user_id = v.user_id
		WHERE v.status = ?
			AND ((v.required_channel = ? AND p.supervisor_id = ?)
				OR (v.required_channel = ? AND p.fls_supervisor_id = ?))
		ORDER BY v.submitted_at ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query,
		entity.VoucherStatusSubmitted,
		string(entity.ChannelPrimary), supervisorID,
		string(entity.ChannelFls), supervisorID)
	if err != nil {
		r.logger.Error("Failed to list supervisor queue", zap.Int64("supervisor_id", supervisorID), zap.Error(err))
		return nil, fmt.Errorf("failed to list supervisor queue: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListByStatus returns vouchers in the given status, oldest update first.
func (r *VoucherRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Voucher, error) {
	query := `SELECT` + voucherColumns + `
		FROM vouchers WHERE status = ?
		ORDER BY updated_at ASC LIMIT ? OFFSET ?`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list vouchers by status", zap.String("status", status), zap.Error(err))
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// prefixedVoucherColumns qualifies voucherColumns with the vouchers alias
// for joined queries.
const prefixedVoucherColumns = `
	v.id, v.reference, v.user_id, v.month, v.year, v.status, v.total_miles,
	v.total_amount_cents, v.required_channel, v.submitted_at, v.supervisor_id,
	v.supervisor_approved_at, v.fleet_manager_id, v.fleet_approved_at,
	v.rejection_reason, v.form_data, v.pdf_url, v.created_at, v.updated_at
`

func (r *VoucherRepository) scanAll(rows *sql.Rows) ([]*entity.Voucher, error) {
	var vouchers []*entity.Voucher
	for rows.Next() {
		voucher, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, voucher)
	}
	return vouchers, rows.Err()
}

func (r *VoucherRepository) scanOne(row rowScanner) (*entity.Voucher, error) {
	var voucher entity.Voucher
	var requiredChannel, rejectionReason, formData, pdfURL sql.NullString
	var submittedAt, supervisorApprovedAt, fleetApprovedAt sql.NullTime
	var supervisorID, fleetManagerID sql.NullInt64

	err := row.Scan(
		&voucher.ID,
		&voucher.Reference,
		&voucher.UserID,
		&voucher.Month,
		&voucher.Year,
		&voucher.Status,
		&voucher.TotalMiles,
		&voucher.TotalAmountCents,
		&requiredChannel,
		&submittedAt,
		&supervisorID,
		&supervisorApprovedAt,
		&fleetManagerID,
		&fleetApprovedAt,
		&rejectionReason,
		&formData,
		&pdfURL,
		&voucher.CreatedAt,
		&voucher.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if requiredChannel.Valid {
		voucher.RequiredChannel = entity.Channel(requiredChannel.String)
	}
	if submittedAt.Valid {
		voucher.SubmittedAt = &submittedAt.Time
	}
	if supervisorID.Valid {
		voucher.SupervisorID = &supervisorID.Int64
	}
	if supervisorApprovedAt.Valid {
		voucher.SupervisorApprovedAt = &supervisorApprovedAt.Time
	}
	if fleetManagerID.Valid {
		voucher.FleetManagerID = &fleetManagerID.Int64
	}
	if fleetApprovedAt.Valid {
		voucher.FleetApprovedAt = &fleetApprovedAt.Time
	}
	if rejectionReason.Valid {
		voucher.RejectionReason = rejectionReason.String
	}
	if formData.Valid {
		voucher.FormData = formData.String
	}
	if pdfURL.Valid {
		voucher.PDFURL = pdfURL.String
	}
	return &voucher, nil
}

func rowsAffected(result sql.Result) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
