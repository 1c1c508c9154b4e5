// Package approval drives a voucher through the approval chain: draft,
// submission, supervisor approval, fleet approval, with rejection and
// owner-only reopen. Preconditions are validated against the state machine
// and re-checked at the moment of mutation by compare-and-swap updates.
package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"github.com/fieldops/mileage-voucher/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VoucherStore is the voucher persistence the workflow needs.
type VoucherStore interface {
	Create(ctx context.Context, voucher *entity.Voucher) error
	GetByID(ctx context.Context, id int64) (*entity.Voucher, error)
	GetByUserPeriod(ctx context.Context, userID int64, month, year int) (*entity.Voucher, error)
	UpdateFormData(ctx context.Context, id int64, formData string) (int64, error)
	MarkSubmitted(ctx context.Context, id int64, totalMiles float64, totalAmountCents int64, channel entity.Channel, at time.Time) (int64, error)
	MarkSupervisorApproved(ctx context.Context, id, supervisorID int64, at time.Time) (int64, error)
	MarkFleetApproved(ctx context.Context, id, fleetManagerID int64, at time.Time) (int64, error)
	MarkRejected(ctx context.Context, id int64, fromStatus, reason string) (int64, error)
	MarkReopened(ctx context.Context, id int64) (int64, error)
	ListSubmittedForSupervisor(ctx context.Context, supervisorID int64) ([]*entity.Voucher, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Voucher, error)
}

// TripStore is the trip read access submit uses to compute totals.
type TripStore interface {
	SumMilesForPeriod(ctx context.Context, userID int64, month, year int) (float64, error)
}

// HistoryStore appends the audit record for each transition.
type HistoryStore interface {
	Create(ctx context.Context, history *entity.VoucherHistory) error
	ListByVoucher(ctx context.Context, voucherID int64) ([]*entity.VoucherHistory, error)
}

// UserStore is the user lookup the workflow needs for role checks.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// DirectoryReader is the slice of the assignment directory the approval
// chain consults when gating supervisor actions.
type DirectoryReader interface {
	SupervisorFor(ctx context.Context, inspectorID int64, channel entity.Channel) (*int64, error)
	Profile(ctx context.Context, inspectorID int64) (*entity.Profile, error)
}

// TxManager runs a function inside a database transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config holds approval workflow settings.
type Config struct {
	// MileageRate is the reimbursement rate in dollars per mile.
	MileageRate float64
}

// Workflow drives vouchers through the approval chain.
type Workflow struct {
	vouchers  VoucherStore
	trips     TripStore
	history   HistoryStore
	users     UserStore
	directory DirectoryReader
	tx        TxManager
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewWorkflow creates a voucher approval workflow.
func NewWorkflow(
	vouchers VoucherStore,
	trips TripStore,
	history HistoryStore,
	users UserStore,
	directory DirectoryReader,
	tx TxManager,
	cfg Config,
	logger *zap.Logger,
) *Workflow {
	return &Workflow{
		vouchers:  vouchers,
		trips:     trips,
		history:   history,
		users:     users,
		directory: directory,
		tx:        tx,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateDraft opens a draft voucher for the owner's reporting period. One
// voucher exists per (owner, month, year).
func (w *Workflow) CreateDraft(ctx context.Context, ownerID int64, month, year int, form *entity.VoucherForm) (*entity.Voucher, error) {
	if err := utils.ValidatePeriod(month, year); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrInvalidClaim, err)
	}

	owner, err := w.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: user %d", workflow.ErrNotFound, ownerID)
	}

	existing, err := w.vouchers.GetByUserPeriod(ctx, ownerID, month, year)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: voucher already exists for %d/%d", workflow.ErrConflict, month, year)
	}

	formData := ""
	if form != nil {
		raw, err := json.Marshal(form)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", workflow.ErrInvalidClaim, err)
		}
		formData = string(raw)
	}

	voucher := &entity.Voucher{
		Reference: uuid.NewString(),
		UserID:    ownerID,
		Month:     month,
		Year:      year,
		Status:    entity.VoucherStatusDraft,
		FormData:  formData,
	}
	if err := w.vouchers.Create(ctx, voucher); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}

	w.logger.Info("Voucher draft created",
		zap.Int64("voucher_id", voucher.ID),
		zap.String("reference", voucher.Reference),
		zap.Int64("user_id", ownerID),
		zap.Int("month", month),
		zap.Int("year", year))
	return voucher, nil
}

// Get returns a voucher by id.
func (w *Workflow) Get(ctx context.Context, voucherID int64) (*entity.Voucher, error) {
	return w.load(ctx, voucherID)
}

// UpdateForm replaces the form data of an editable voucher. Only the owner
// may edit, and only in draft or rejected.
func (w *Workflow) UpdateForm(ctx context.Context, voucherID, actorID int64, form *entity.VoucherForm) (*entity.Voucher, error) {
	voucher, err := w.load(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher.UserID != actorID {
		return nil, fmt.Errorf("%w: only the owner may edit voucher %d", workflow.ErrForbidden, voucherID)
	}
	if !voucher.Editable() {
		return nil, fmt.Errorf("%w: voucher %d is %s", workflow.ErrInvalidState, voucherID, voucher.Status)
	}

	raw, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrInvalidClaim, err)
	}

	rows, err := w.vouchers.UpdateFormData(ctx, voucherID, string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: voucher %d is no longer editable", workflow.ErrInvalidState, voucherID)
	}

	voucher.FormData = string(raw)
	return voucher, nil
}

// Submit moves an owner's draft into the approval chain. Totals are
// computed from the period's trips, the accounting distribution must sum to
// exactly 100, and the required first-approver channel is snapshotted from
// the owner's position tier for audit.
func (w *Workflow) Submit(ctx context.Context, voucherID, actorID int64) (*entity.Voucher, error) {
	voucher, err := w.load(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher.UserID != actorID {
		return nil, fmt.Errorf("%w: only the owner may submit voucher %d", workflow.ErrForbidden, voucherID)
	}
	if err := w.fire(ctx, voucher, workflow.TriggerSubmit); err != nil {
		return nil, err
	}

	form, err := entity.ParseVoucherForm(voucher.FormData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrInvalidClaim, err)
	}
	if err := form.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrInvalidClaim, err)
	}

	totalMiles, err := w.trips.SumMilesForPeriod(ctx, voucher.UserID, voucher.Month, voucher.Year)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}

	profile, err := w.directory.Profile(ctx, voucher.UserID)
	if err != nil {
		return nil, err
	}
	channel := RequiredChannel(profile.Position)

	totalAmountCents := int64(math.Round(totalMiles * w.cfg.MileageRate * 100))
	submittedAt := w.now().UTC()

	err = w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rows, err := w.vouchers.MarkSubmitted(ctx, voucherID, totalMiles, totalAmountCents, channel, submittedAt)
		if err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: voucher %d is no longer a draft", workflow.ErrInvalidState, voucherID)
		}
		return w.record(ctx, voucher, entity.VoucherStatusSubmitted, entity.ActionSubmit, actorID, map[string]interface{}{
			"total_miles":        totalMiles,
			"total_amount_cents": totalAmountCents,
			"required_channel":   string(channel),
		})
	})
	if err != nil {
		return nil, err
	}

	voucher.Status = entity.VoucherStatusSubmitted
	voucher.TotalMiles = totalMiles
	voucher.TotalAmountCents = totalAmountCents
	voucher.RequiredChannel = channel
	voucher.SubmittedAt = &submittedAt

	w.logger.Info("Voucher submitted",
		zap.Int64("voucher_id", voucherID),
		zap.Float64("total_miles", totalMiles),
		zap.Int64("total_amount_cents", totalAmountCents),
		zap.String("required_channel", string(channel)))
	return voucher, nil
}

// SupervisorApprove records the first-tier approval. Only the owner's
// current supervisor on the voucher's routed channel may act.
func (w *Workflow) SupervisorApprove(ctx context.Context, voucherID, actorID int64) (*entity.Voucher, error) {
	voucher, err := w.load(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if err := w.fire(ctx, voucher, workflow.TriggerSupervisorApprove); err != nil {
		return nil, err
	}
	if err := w.requireRoutedSupervisor(ctx, voucher, actorID); err != nil {
		return nil, err
	}

	approvedAt := w.now().UTC()
	err = w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rows, err := w.vouchers.MarkSupervisorApproved(ctx, voucherID, actorID, approvedAt)
		if err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: voucher %d is no longer submitted", workflow.ErrInvalidState, voucherID)
		}
		return w.record(ctx, voucher, entity.VoucherStatusSupervisorApproved, entity.ActionSupervisorApprove, actorID, nil)
	})
	if err != nil {
		return nil, err
	}

	voucher.Status = entity.VoucherStatusSupervisorApproved
	voucher.SupervisorID = &actorID
	voucher.SupervisorApprovedAt = &approvedAt

	w.logger.Info("Voucher supervisor approved",
		zap.Int64("voucher_id", voucherID),
		zap.Int64("supervisor_id", actorID))
	return voucher, nil
}

// FleetApprove records the final approval. Only fleet managers may act;
// fleet_approved is terminal.
func (w *Workflow) FleetApprove(ctx context.Context, voucherID, actorID int64) (*entity.Voucher, error) {
	voucher, err := w.load(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if err := w.fire(ctx, voucher, workflow.TriggerFleetApprove); err != nil {
		return nil, err
	}
	if err := w.requireRole(ctx, actorID, entity.RoleFleetManager); err != nil {
		return nil, err
	}

	approvedAt := w.now().UTC()
	err = w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rows, err := w.vouchers.MarkFleetApproved(ctx, voucherID, actorID, approvedAt)
		if err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: voucher %d is no longer supervisor approved", workflow.ErrInvalidState, voucherID)
		}
		return w.record(ctx, voucher, entity.VoucherStatusFleetApproved, entity.ActionFleetApprove, actorID, nil)
	})
	if err != nil {
		return nil, err
	}

	voucher.Status = entity.VoucherStatusFleetApproved
	voucher.FleetManagerID = &actorID
	voucher.FleetApprovedAt = &approvedAt

	w.logger.Info("Voucher fleet approved",
		zap.Int64("voucher_id", voucherID),
		zap.Int64("fleet_manager_id", actorID))
	return voucher, nil
}

// Reject sends a submitted or supervisor-approved voucher back to its
// owner. The actor must be the approver for the voucher's current stage.
// Approval timestamps from this cycle are cleared; the document must be
// fully re-approved after edit.
func (w *Workflow) Reject(ctx context.Context, voucherID, actorID int64, reason string) (*entity.Voucher, error) {
	voucher, err := w.load(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if err := w.fire(ctx, voucher, workflow.TriggerReject); err != nil {
		return nil, err
	}

	switch voucher.Status {
	case entity.VoucherStatusSubmitted:
		if err := w.requireRoutedSupervisor(ctx, voucher, actorID); err != nil {
			return nil, err
		}
	case entity.VoucherStatusSupervisorApproved:
		if err := w.requireRole(ctx, actorID, entity.RoleFleetManager); err != nil {
			return nil, err
		}
	}

	fromStatus := voucher.Status
	err = w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rows, err := w.vouchers.MarkRejected(ctx, voucherID, fromStatus, reason)
		if err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: voucher %d already left %s", workflow.ErrInvalidState, voucherID, fromStatus)
		}
		return w.record(ctx, voucher, entity.VoucherStatusRejected, entity.ActionReject, actorID, map[string]interface{}{
			"reason": reason,
		})
	})
	if err != nil {
		return nil, err
	}

	voucher.Status = entity.VoucherStatusRejected
	voucher.RejectionReason = reason
	voucher.SupervisorApprovedAt = nil
	voucher.FleetApprovedAt = nil

	w.logger.Info("Voucher rejected",
		zap.Int64("voucher_id", voucherID),
		zap.Int64("actor_id", actorID),
		zap.String("from", fromStatus))
	return voucher, nil
}

// Reopen returns a rejected voucher to draft so the owner can edit and
// resubmit. Owner only; clears the rejection reason.
func (w *Workflow) Reopen(ctx context.Context, voucherID, actorID int64) (*entity.Voucher, error) {
	voucher, err := w.load(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher.UserID != actorID {
		return nil, fmt.Errorf("%w: only the owner may reopen voucher %d", workflow.ErrForbidden, voucherID)
	}
	if err := w.fire(ctx, voucher, workflow.TriggerReopen); err != nil {
		return nil, err
	}

	err = w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rows, err := w.vouchers.MarkReopened(ctx, voucherID)
		if err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: voucher %d is no longer rejected", workflow.ErrInvalidState, voucherID)
		}
		return w.record(ctx, voucher, entity.VoucherStatusDraft, entity.ActionReopen, actorID, nil)
	})
	if err != nil {
		return nil, err
	}

	voucher.Status = entity.VoucherStatusDraft
	voucher.RejectionReason = ""
	voucher.SubmittedAt = nil
	voucher.SupervisorID = nil
	voucher.SupervisorApprovedAt = nil
	voucher.FleetManagerID = nil
	voucher.FleetApprovedAt = nil

	w.logger.Info("Voucher reopened",
		zap.Int64("voucher_id", voucherID),
		zap.Int64("owner_id", actorID))
	return voucher, nil
}

// SupervisorQueue returns the submitted vouchers routed to the supervisor,
// oldest submission first.
func (w *Workflow) SupervisorQueue(ctx context.Context, supervisorID int64) ([]*entity.Voucher, error) {
	vouchers, err := w.vouchers.ListSubmittedForSupervisor(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	return vouchers, nil
}

// FleetQueue returns supervisor-approved vouchers awaiting fleet approval.
func (w *Workflow) FleetQueue(ctx context.Context, actorID int64, limit, offset int) ([]*entity.Voucher, error) {
	if err := w.requireRole(ctx, actorID, entity.RoleFleetManager); err != nil {
		return nil, err
	}
	vouchers, err := w.vouchers.ListByStatus(ctx, entity.VoucherStatusSupervisorApproved, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	return vouchers, nil
}

// History returns the voucher's audit trail oldest first.
func (w *Workflow) History(ctx context.Context, voucherID int64) ([]*entity.VoucherHistory, error) {
	if _, err := w.load(ctx, voucherID); err != nil {
		return nil, err
	}
	records, err := w.history.ListByVoucher(ctx, voucherID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	return records, nil
}

func (w *Workflow) load(ctx context.Context, voucherID int64) (*entity.Voucher, error) {
	voucher, err := w.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if voucher == nil {
		return nil, fmt.Errorf("%w: voucher %d", workflow.ErrNotFound, voucherID)
	}
	return voucher, nil
}

// fire validates the trigger against the state machine without mutating the
// loaded voucher; the stored row is advanced by compare-and-swap.
func (w *Workflow) fire(ctx context.Context, voucher *entity.Voucher, trigger workflow.Trigger) error {
	machine, err := workflow.VoucherMachine(voucher.Status)
	if err != nil {
		return err
	}
	_, err = machine.Fire(ctx, trigger)
	return err
}

// requireRoutedSupervisor checks the actor is the owner's current
// supervisor on the voucher's routed channel.
func (w *Workflow) requireRoutedSupervisor(ctx context.Context, voucher *entity.Voucher, actorID int64) error {
	channel := voucher.RequiredChannel
	if channel == "" {
		channel = entity.ChannelPrimary
	}

	expected, err := w.directory.SupervisorFor(ctx, voucher.UserID, channel)
	if err != nil {
		return err
	}
	if expected == nil || *expected != actorID {
		return fmt.Errorf("%w: user %d is not the routed supervisor for voucher %d", workflow.ErrForbidden, actorID, voucher.ID)
	}
	return nil
}

// requireRole checks the actor holds the given role.
func (w *Workflow) requireRole(ctx context.Context, actorID int64, role entity.Role) error {
	actor, err := w.users.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if actor == nil || actor.Role != role {
		return fmt.Errorf("%w: user %d does not hold role %s", workflow.ErrForbidden, actorID, role)
	}
	return nil
}

// record appends the audit row for a transition inside its transaction.
func (w *Workflow) record(ctx context.Context, voucher *entity.Voucher, newStatus, action string, actorID int64, data map[string]interface{}) error {
	actionData := ""
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
		}
		actionData = string(raw)
	}

	history := &entity.VoucherHistory{
		EventID:        uuid.NewString(),
		VoucherID:      voucher.ID,
		PreviousStatus: voucher.Status,
		NewStatus:      newStatus,
		Action:         action,
		ActorID:        actorID,
		ActionData:     actionData,
	}
	if err := w.history.Create(ctx, history); err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	return nil
}
