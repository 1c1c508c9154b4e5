package directory

import (
	"context"
	"testing"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProfileStore struct {
	profiles map[int64]*entity.Profile
	updates  []struct {
		UserID       int64
		Channel      entity.Channel
		SupervisorID *int64
	}
}

func (m *mockProfileStore) GetByUserID(ctx context.Context, userID int64) (*entity.Profile, error) {
	return m.profiles[userID], nil
}

func (m *mockProfileStore) UpdateSupervisor(ctx context.Context, userID int64, channel entity.Channel, supervisorID *int64) (int64, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return 0, nil
	}
	m.updates = append(m.updates, struct {
		UserID       int64
		Channel      entity.Channel
		SupervisorID *int64
	}{userID, channel, supervisorID})
	if channel == entity.ChannelFls {
		profile.FlsSupervisorID = supervisorID
	} else {
		profile.SupervisorID = supervisorID
	}
	return 1, nil
}

func (m *mockProfileStore) ListBySupervisor(ctx context.Context, supervisorID int64) ([]*entity.Profile, error) {
	var out []*entity.Profile
	for _, p := range m.profiles {
		if (p.SupervisorID != nil && *p.SupervisorID == supervisorID) ||
			(p.FlsSupervisorID != nil && *p.FlsSupervisorID == supervisorID) {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockUserStore struct {
	users map[int64]*entity.User
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return m.users[id], nil
}

func newTestDirectory() (*Directory, *mockProfileStore) {
	profiles := &mockProfileStore{profiles: map[int64]*entity.Profile{
		2: {UserID: 2, Position: entity.TierInspector},
	}}
	users := &mockUserStore{users: map[int64]*entity.User{
		2: {ID: 2, Role: entity.RoleInspector},
		5: {ID: 5, Role: entity.RoleFleetManager},
		7: {ID: 7, Role: entity.RoleSupervisor},
	}}
	return New(profiles, users, zap.NewNop()), profiles
}

func TestDirectory_SetSupervisor(t *testing.T) {
	dir, _ := newTestDirectory()

	profile, err := dir.SetSupervisor(context.Background(), 2, 7, entity.ChannelPrimary)
	require.NoError(t, err)
	require.NotNil(t, profile.SupervisorID)
	assert.Equal(t, int64(7), *profile.SupervisorID)
	assert.Nil(t, profile.FlsSupervisorID)

	got, err := dir.Supervisor(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), *got)
}

func TestDirectory_SetSupervisor_FlsChannel(t *testing.T) {
	dir, _ := newTestDirectory()

	profile, err := dir.SetSupervisor(context.Background(), 2, 5, entity.ChannelFls)
	require.NoError(t, err)
	require.NotNil(t, profile.FlsSupervisorID)
	assert.Equal(t, int64(5), *profile.FlsSupervisorID)
	assert.Nil(t, profile.SupervisorID)

	got, err := dir.FlsSupervisor(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(5), *got)
}

func TestDirectory_SetSupervisor_TargetNotSupervisorCapable(t *testing.T) {
	dir, profiles := newTestDirectory()

	// Inspector 2 cannot be anyone's supervisor.
	_, err := dir.SetSupervisor(context.Background(), 2, 2, entity.ChannelPrimary)
	assert.ErrorIs(t, err, workflow.ErrInvalidRole)
	assert.Empty(t, profiles.updates)
}

func TestDirectory_SetSupervisor_UnknownTarget(t *testing.T) {
	dir, _ := newTestDirectory()

	_, err := dir.SetSupervisor(context.Background(), 2, 42, entity.ChannelPrimary)
	assert.ErrorIs(t, err, workflow.ErrInvalidRole)
}

func TestDirectory_SetSupervisor_NoProfile(t *testing.T) {
	dir, _ := newTestDirectory()

	_, err := dir.SetSupervisor(context.Background(), 99, 7, entity.ChannelPrimary)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestDirectory_SetSupervisor_InvalidChannel(t *testing.T) {
	dir, _ := newTestDirectory()

	_, err := dir.SetSupervisor(context.Background(), 2, 7, entity.Channel("secondary"))
	assert.ErrorIs(t, err, workflow.ErrInvalidRole)
}

func TestDirectory_ClearSupervisor_Idempotent(t *testing.T) {
	dir, _ := newTestDirectory()

	_, err := dir.SetSupervisor(context.Background(), 2, 7, entity.ChannelPrimary)
	require.NoError(t, err)

	require.NoError(t, dir.ClearSupervisor(context.Background(), 2, entity.ChannelPrimary))

	got, err := dir.Supervisor(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing an already-empty channel still succeeds.
	assert.NoError(t, dir.ClearSupervisor(context.Background(), 2, entity.ChannelPrimary))
}

func TestDirectory_Supervisor_NoProfile(t *testing.T) {
	dir, _ := newTestDirectory()

	_, err := dir.Supervisor(context.Background(), 99)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestDirectory_Inspectors(t *testing.T) {
	dir, profiles := newTestDirectory()
	supervisorID := int64(7)
	profiles.profiles[3] = &entity.Profile{UserID: 3, Position: entity.TierInspector, SupervisorID: &supervisorID}

	_, err := dir.SetSupervisor(context.Background(), 2, 7, entity.ChannelPrimary)
	require.NoError(t, err)

	inspectors, err := dir.Inspectors(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, inspectors, 2)
}
