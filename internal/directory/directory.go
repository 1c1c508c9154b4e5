// Package directory maintains the authoritative mapping from inspector to
// current supervisor. It is the sole writer of the supervisor columns; every
// other mutation path goes through the assignment request workflow, which
// calls in here on approval.
package directory

import (
	"context"
	"fmt"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"go.uber.org/zap"
)

// ProfileStore is the profile persistence the directory needs.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*entity.Profile, error)
	UpdateSupervisor(ctx context.Context, userID int64, channel entity.Channel, supervisorID *int64) (int64, error)
	ListBySupervisor(ctx context.Context, supervisorID int64) ([]*entity.Profile, error)
}

// UserStore is the user lookup the directory needs for role checks.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// Directory answers and mutates supervisor-of-record questions.
type Directory struct {
	profiles ProfileStore
	users    UserStore
	logger   *zap.Logger
}

// New creates a directory over the given stores.
func New(profiles ProfileStore, users UserStore, logger *zap.Logger) *Directory {
	return &Directory{profiles: profiles, users: users, logger: logger}
}

// Supervisor returns the inspector's primary supervisor id, or nil when
// none is assigned.
func (d *Directory) Supervisor(ctx context.Context, inspectorID int64) (*int64, error) {
	return d.supervisorFor(ctx, inspectorID, entity.ChannelPrimary)
}

// FlsSupervisor returns the inspector's FLS supervisor id, or nil when none
// is assigned.
func (d *Directory) FlsSupervisor(ctx context.Context, inspectorID int64) (*int64, error) {
	return d.supervisorFor(ctx, inspectorID, entity.ChannelFls)
}

// SupervisorFor returns the inspector's supervisor on the given channel.
func (d *Directory) SupervisorFor(ctx context.Context, inspectorID int64, channel entity.Channel) (*int64, error) {
	return d.supervisorFor(ctx, inspectorID, channel)
}

func (d *Directory) supervisorFor(ctx context.Context, inspectorID int64, channel entity.Channel) (*int64, error) {
	profile, err := d.profiles.GetByUserID(ctx, inspectorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: inspector %d has no profile", workflow.ErrNotFound, inspectorID)
	}
	return profile.SupervisorFor(channel), nil
}

// SetSupervisor assigns a supervisor to an inspector on the given channel
// and returns the updated profile. The target must reference a user with a
// supervisor-capable role. In-flight requests and vouchers are not touched;
// they snapshot their approver at submission time.
func (d *Directory) SetSupervisor(ctx context.Context, inspectorID, supervisorID int64, channel entity.Channel) (*entity.Profile, error) {
	if !channel.IsValid() {
		return nil, fmt.Errorf("%w: unknown channel %q", workflow.ErrInvalidRole, channel)
	}

	supervisor, err := d.users.GetByID(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if supervisor == nil || !supervisor.Role.SupervisorCapable() {
		return nil, fmt.Errorf("%w: user %d is not supervisor-capable", workflow.ErrInvalidRole, supervisorID)
	}

	rows, err := d.profiles.UpdateSupervisor(ctx, inspectorID, channel, &supervisorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: inspector %d has no profile", workflow.ErrNotFound, inspectorID)
	}

	d.logger.Info("Supervisor assigned",
		zap.Int64("inspector_id", inspectorID),
		zap.Int64("supervisor_id", supervisorID),
		zap.String("channel", string(channel)))

	return d.mustProfile(ctx, inspectorID)
}

// ClearSupervisor removes the supervisor reference on the given channel.
// Clearing an already-empty channel succeeds.
func (d *Directory) ClearSupervisor(ctx context.Context, inspectorID int64, channel entity.Channel) error {
	if !channel.IsValid() {
		return fmt.Errorf("%w: unknown channel %q", workflow.ErrInvalidRole, channel)
	}

	rows, err := d.profiles.UpdateSupervisor(ctx, inspectorID, channel, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: inspector %d has no profile", workflow.ErrNotFound, inspectorID)
	}

	d.logger.Info("Supervisor cleared",
		zap.Int64("inspector_id", inspectorID),
		zap.String("channel", string(channel)))
	return nil
}

// Inspectors returns the profiles currently assigned to the supervisor on
// either channel.
func (d *Directory) Inspectors(ctx context.Context, supervisorID int64) ([]*entity.Profile, error) {
	profiles, err := d.profiles.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	return profiles, nil
}

// Profile returns the inspector's profile, failing with NotFound when the
// profile is absent.
func (d *Directory) Profile(ctx context.Context, inspectorID int64) (*entity.Profile, error) {
	return d.mustProfile(ctx, inspectorID)
}

func (d *Directory) mustProfile(ctx context.Context, inspectorID int64) (*entity.Profile, error) {
	profile, err := d.profiles.GetByUserID(ctx, inspectorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: inspector %d has no profile", workflow.ErrNotFound, inspectorID)
	}
	return profile, nil
}
