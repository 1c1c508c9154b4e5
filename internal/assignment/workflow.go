// Package assignment implements the supervisor assignment request workflow:
// a supervisor asks to claim an inspector, and an actor with admin
// authority approves or rejects the request. Approval mutates the
// assignment directory's primary channel in the same transaction.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"go.uber.org/zap"
)

// RequestStore is the assignment request persistence the workflow needs.
type RequestStore interface {
	Create(ctx context.Context, request *entity.AssignmentRequest) error
	GetByID(ctx context.Context, id int64) (*entity.AssignmentRequest, error)
	HasPending(ctx context.Context, inspectorID int64) (bool, error)
	MarkProcessed(ctx context.Context, id int64, newStatus string, processedBy int64, processedAt time.Time, notes string) (int64, error)
	ListPending(ctx context.Context, supervisorID *int64) ([]*entity.AssignmentRequest, error)
}

// UserStore is the user lookup the workflow needs for role checks.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// DirectoryWriter is the slice of the assignment directory this workflow
// mutates on approval.
type DirectoryWriter interface {
	SetSupervisor(ctx context.Context, inspectorID, supervisorID int64, channel entity.Channel) (*entity.Profile, error)
}

// TxManager runs a function inside a database transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Workflow drives assignment requests from pending to a terminal state.
type Workflow struct {
	requests  RequestStore
	users     UserStore
	directory DirectoryWriter
	tx        TxManager
	logger    *zap.Logger
	now       func() time.Time
}

// NewWorkflow creates an assignment request workflow.
func NewWorkflow(requests RequestStore, users UserStore, directory DirectoryWriter, tx TxManager, logger *zap.Logger) *Workflow {
	return &Workflow{
		requests:  requests,
		users:     users,
		directory: directory,
		tx:        tx,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateRequest opens a pending request for the inspector. At most one
// pending request may exist per inspector; a duplicate is refused.
func (w *Workflow) CreateRequest(ctx context.Context, inspectorID, requestingSupervisorID int64, notes string) (*entity.AssignmentRequest, error) {
	supervisor, err := w.users.GetByID(ctx, requestingSupervisorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if supervisor == nil || !supervisor.Role.SupervisorCapable() {
		return nil, fmt.Errorf("%w: user %d is not supervisor-capable", workflow.ErrInvalidRole, requestingSupervisorID)
	}

	inspector, err := w.users.GetByID(ctx, inspectorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if inspector == nil {
		return nil, fmt.Errorf("%w: inspector %d", workflow.ErrNotFound, inspectorID)
	}

	pending, err := w.requests.HasPending(ctx, inspectorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if pending {
		return nil, fmt.Errorf("%w: inspector %d already has a pending request", workflow.ErrConflict, inspectorID)
	}

	request := &entity.AssignmentRequest{
		InspectorID:            inspectorID,
		RequestingSupervisorID: requestingSupervisorID,
		Status:                 entity.RequestStatusPending,
		Notes:                  notes,
		RequestedAt:            w.now().UTC(),
	}
	if err := w.requests.Create(ctx, request); err != nil {
		// A concurrent duplicate slips past HasPending and trips the
		// unique index instead; keep that surfaced as a conflict.
		if errors.Is(err, workflow.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}

	w.logger.Info("Assignment request created",
		zap.Int64("request_id", request.ID),
		zap.Int64("inspector_id", inspectorID),
		zap.Int64("supervisor_id", requestingSupervisorID))
	return request, nil
}

// Approve terminates a pending request as approved and assigns the
// requesting supervisor as the inspector's primary supervisor. Both writes
// commit together or not at all.
func (w *Workflow) Approve(ctx context.Context, requestID, processedBy int64) (*entity.AssignmentRequest, error) {
	request, err := w.loadForProcessing(ctx, requestID, processedBy, workflow.TriggerApproveRequest)
	if err != nil {
		return nil, err
	}

	processedAt := w.now().UTC()
	err = w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rows, err := w.requests.MarkProcessed(ctx, requestID,
			entity.RequestStatusApproved, processedBy, processedAt, request.Notes)
		if err != nil {
			return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: request %d is no longer pending", workflow.ErrInvalidState, requestID)
		}

		_, err = w.directory.SetSupervisor(ctx,
			request.InspectorID, request.RequestingSupervisorID, entity.ChannelPrimary)
		return err
	})
	if err != nil {
		return nil, err
	}

	request.Status = entity.RequestStatusApproved
	request.ProcessedAt = &processedAt
	request.ProcessedBy = &processedBy

	w.logger.Info("Assignment request approved",
		zap.Int64("request_id", requestID),
		zap.Int64("inspector_id", request.InspectorID),
		zap.Int64("supervisor_id", request.RequestingSupervisorID),
		zap.Int64("processed_by", processedBy))
	return request, nil
}

// Reject terminates a pending request as rejected, recording the reason in
// the notes. The directory is not touched.
func (w *Workflow) Reject(ctx context.Context, requestID, processedBy int64, reason string) (*entity.AssignmentRequest, error) {
	request, err := w.loadForProcessing(ctx, requestID, processedBy, workflow.TriggerRejectRequest)
	if err != nil {
		return nil, err
	}

	notes := request.Notes
	if reason != "" {
		if notes != "" {
			notes += "\n"
		}
		notes += "rejected: " + reason
	}

	processedAt := w.now().UTC()
	rows, err := w.requests.MarkProcessed(ctx, requestID,
		entity.RequestStatusRejected, processedBy, processedAt, notes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: request %d is no longer pending", workflow.ErrInvalidState, requestID)
	}

	request.Status = entity.RequestStatusRejected
	request.Notes = notes
	request.ProcessedAt = &processedAt
	request.ProcessedBy = &processedBy

	w.logger.Info("Assignment request rejected",
		zap.Int64("request_id", requestID),
		zap.Int64("processed_by", processedBy))
	return request, nil
}

// ListPending returns pending requests oldest first, optionally filtered by
// the requesting supervisor.
func (w *Workflow) ListPending(ctx context.Context, supervisorID *int64) ([]*entity.AssignmentRequest, error) {
	requests, err := w.requests.ListPending(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	return requests, nil
}

// loadForProcessing fetches the request and checks the processor's
// authority and the request's state against the lifecycle machine.
func (w *Workflow) loadForProcessing(ctx context.Context, requestID, processedBy int64, trigger workflow.Trigger) (*entity.AssignmentRequest, error) {
	request, err := w.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if request == nil {
		return nil, fmt.Errorf("%w: assignment request %d", workflow.ErrNotFound, requestID)
	}

	processor, err := w.users.GetByID(ctx, processedBy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if processor == nil || !processor.Role.AdminAuthority() {
		return nil, fmt.Errorf("%w: user %d may not process assignment requests", workflow.ErrForbidden, processedBy)
	}

	machine, err := workflow.RequestMachine(request.Status)
	if err != nil {
		return nil, err
	}
	if _, err := machine.Fire(ctx, trigger); err != nil {
		return nil, err
	}
	return request, nil
}
