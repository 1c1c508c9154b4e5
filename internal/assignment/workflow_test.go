package assignment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRequestStore struct {
	createFunc        func(ctx context.Context, request *entity.AssignmentRequest) error
	getByIDFunc       func(ctx context.Context, id int64) (*entity.AssignmentRequest, error)
	hasPendingFunc    func(ctx context.Context, inspectorID int64) (bool, error)
	markProcessedFunc func(ctx context.Context, id int64, newStatus string, processedBy int64, processedAt time.Time, notes string) (int64, error)
	listPendingFunc   func(ctx context.Context, supervisorID *int64) ([]*entity.AssignmentRequest, error)
}

func (m *mockRequestStore) Create(ctx context.Context, request *entity.AssignmentRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, request)
	}
	request.ID = 1
	return nil
}

func (m *mockRequestStore) GetByID(ctx context.Context, id int64) (*entity.AssignmentRequest, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRequestStore) HasPending(ctx context.Context, inspectorID int64) (bool, error) {
	if m.hasPendingFunc != nil {
		return m.hasPendingFunc(ctx, inspectorID)
	}
	return false, nil
}

func (m *mockRequestStore) MarkProcessed(ctx context.Context, id int64, newStatus string, processedBy int64, processedAt time.Time, notes string) (int64, error) {
	if m.markProcessedFunc != nil {
		return m.markProcessedFunc(ctx, id, newStatus, processedBy, processedAt, notes)
	}
	return 1, nil
}

func (m *mockRequestStore) ListPending(ctx context.Context, supervisorID *int64) ([]*entity.AssignmentRequest, error) {
	if m.listPendingFunc != nil {
		return m.listPendingFunc(ctx, supervisorID)
	}
	return []*entity.AssignmentRequest{}, nil
}

type mockUserStore struct {
	users map[int64]*entity.User
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return m.users[id], nil
}

type mockDirectoryWriter struct {
	calls []struct {
		InspectorID  int64
		SupervisorID int64
		Channel      entity.Channel
	}
}

func (m *mockDirectoryWriter) SetSupervisor(ctx context.Context, inspectorID, supervisorID int64, channel entity.Channel) (*entity.Profile, error) {
	m.calls = append(m.calls, struct {
		InspectorID  int64
		SupervisorID int64
		Channel      entity.Channel
	}{inspectorID, supervisorID, channel})
	return &entity.Profile{UserID: inspectorID, SupervisorID: &supervisorID}, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// defaultUsers: inspector 2, supervisor 7, admin 1, fleet manager 5.
func defaultUsers() *mockUserStore {
	return &mockUserStore{users: map[int64]*entity.User{
		1: {ID: 1, Role: entity.RoleAdmin},
		2: {ID: 2, Role: entity.RoleInspector},
		5: {ID: 5, Role: entity.RoleFleetManager},
		7: {ID: 7, Role: entity.RoleSupervisor},
	}}
}

func newTestWorkflow(requests *mockRequestStore, users *mockUserStore, dir *mockDirectoryWriter) *Workflow {
	if users == nil {
		users = defaultUsers()
	}
	if dir == nil {
		dir = &mockDirectoryWriter{}
	}
	w := NewWorkflow(requests, users, dir, &mockTxManager{}, zap.NewNop())
	w.now = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }
	return w
}

func TestWorkflow_CreateRequest(t *testing.T) {
	requests := &mockRequestStore{}
	w := newTestWorkflow(requests, nil, nil)

	request, err := w.CreateRequest(context.Background(), 2, 7, "transferring from circuit South")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPending, request.Status)
	assert.Equal(t, int64(2), request.InspectorID)
	assert.Equal(t, int64(7), request.RequestingSupervisorID)
	assert.False(t, request.RequestedAt.IsZero())
}

func TestWorkflow_CreateRequest_RequesterNotSupervisorCapable(t *testing.T) {
	w := newTestWorkflow(&mockRequestStore{}, nil, nil)

	// Inspector 2 cannot request to supervise anyone.
	_, err := w.CreateRequest(context.Background(), 2, 2, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidRole)
}

func TestWorkflow_CreateRequest_InspectorMissing(t *testing.T) {
	w := newTestWorkflow(&mockRequestStore{}, nil, nil)

	_, err := w.CreateRequest(context.Background(), 42, 7, "")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestWorkflow_CreateRequest_DuplicatePending(t *testing.T) {
	requests := &mockRequestStore{
		hasPendingFunc: func(ctx context.Context, inspectorID int64) (bool, error) {
			return true, nil
		},
	}
	w := newTestWorkflow(requests, nil, nil)

	_, err := w.CreateRequest(context.Background(), 2, 7, "")
	assert.ErrorIs(t, err, workflow.ErrConflict)
}

func TestWorkflow_CreateRequest_ConcurrentDuplicate(t *testing.T) {
	// A racing request can pass the pending check and still lose at the
	// unique index; the store reports that as a conflict, and CreateRequest
	// must not downgrade it to a storage error.
	requests := &mockRequestStore{
		createFunc: func(ctx context.Context, request *entity.AssignmentRequest) error {
			return fmt.Errorf("%w: inspector %d already has a pending request", workflow.ErrConflict, request.InspectorID)
		},
	}
	w := newTestWorkflow(requests, nil, nil)

	_, err := w.CreateRequest(context.Background(), 2, 7, "")
	assert.ErrorIs(t, err, workflow.ErrConflict)
	assert.NotErrorIs(t, err, workflow.ErrStorage)
}

func TestWorkflow_Approve(t *testing.T) {
	requests := &mockRequestStore{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.AssignmentRequest, error) {
			return &entity.AssignmentRequest{
				ID: 1, InspectorID: 2, RequestingSupervisorID: 7,
				Status: entity.RequestStatusPending,
			}, nil
		},
	}
	dir := &mockDirectoryWriter{}
	w := newTestWorkflow(requests, nil, dir)

	request, err := w.Approve(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusApproved, request.Status)
	require.NotNil(t, request.ProcessedBy)
	assert.Equal(t, int64(1), *request.ProcessedBy)
	require.NotNil(t, request.ProcessedAt)

	// Exactly one directory mutation, on the primary channel.
	require.Len(t, dir.calls, 1)
	assert.Equal(t, int64(2), dir.calls[0].InspectorID)
	assert.Equal(t, int64(7), dir.calls[0].SupervisorID)
	assert.Equal(t, entity.ChannelPrimary, dir.calls[0].Channel)
}

func TestWorkflow_Approve_FleetManagerHasAuthority(t *testing.T) {
	requests := &mockRequestStore{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.AssignmentRequest, error) {
			return &entity.AssignmentRequest{
				ID: 1, InspectorID: 2, RequestingSupervisorID: 7,
				Status: entity.RequestStatusPending,
			}, nil
		},
	}
	w := newTestWorkflow(requests, nil, nil)

	_, err := w.Approve(context.Background(), 1, 5)
	assert.NoError(t, err)
}

func TestWorkflow_Approve_SupervisorLacksAuthority(t *testing.T) {
	requests := &mockRequestStore{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.AssignmentRequest, error) {
			return &entity.AssignmentRequest{
				ID: 1, InspectorID: 2, RequestingSupervisorID: 7,
				Status: entity.RequestStatusPending,
			}, nil
		},
	}
	dir := &mockDirectoryWriter{}
	w := newTestWorkflow(requests, nil, dir)

	_, err := w.Approve(context.Background(), 1, 7)
	assert.ErrorIs(t, err, workflow.ErrForbidden)
	assert.Empty(t, dir.calls)
}

func TestWorkflow_Approve_AlreadyProcessed(t *testing.T) {
	requests := &mockRequestStore{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.AssignmentRequest, error) {
			return &entity.AssignmentRequest{
				ID: 1, InspectorID: 2, RequestingSupervisorID: 7,
				Status: entity.RequestStatusApproved,
			}, nil
		},
	}
	dir := &mockDirectoryWriter{}
	w := newTestWorkflow(requests, nil, dir)

	_, err := w.Approve(context.Background(), 1, 1)
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
	assert.Empty(t, dir.calls)
}

func TestWorkflow_Approve_LostRace(t *testing.T) {
	requests := &mockRequestStore{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.AssignmentRequest, error) {
			return &entity.AssignmentRequest{
				ID: 1, InspectorID: 2, RequestingSupervisorID: 7,
				Status: entity.RequestStatusPending,
			}, nil
		},
		markProcessedFunc: func(ctx context.Context, id int64, newStatus string, processedBy int64, processedAt time.Time, notes string) (int64, error) {
			return 0, nil
		},
	}
	dir := &mockDirectoryWriter{}
	w := newTestWorkflow(requests, nil, dir)

	_, err := w.Approve(context.Background(), 1, 1)
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
	assert.Empty(t, dir.calls)
}

func TestWorkflow_Reject(t *testing.T) {
	requests := &mockRequestStore{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.AssignmentRequest, error) {
			return &entity.AssignmentRequest{
				ID: 1, InspectorID: 2, RequestingSupervisorID: 7,
				Status: entity.RequestStatusPending,
				Notes:  "transferring from circuit South",
			}, nil
		},
	}
	dir := &mockDirectoryWriter{}
	w := newTestWorkflow(requests, nil, dir)

	request, err := w.Reject(context.Background(), 1, 1, "inspector stays on current assignment")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusRejected, request.Status)
	assert.Contains(t, request.Notes, "transferring from circuit South")
	assert.Contains(t, request.Notes, "rejected: inspector stays on current assignment")

	// Rejection never touches the directory.
	assert.Empty(t, dir.calls)
}

func TestWorkflow_Reject_NotFound(t *testing.T) {
	w := newTestWorkflow(&mockRequestStore{}, nil, nil)

	_, err := w.Reject(context.Background(), 42, 1, "")
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestWorkflow_ListPending_FilterBySupervisor(t *testing.T) {
	var gotFilter *int64
	requests := &mockRequestStore{
		listPendingFunc: func(ctx context.Context, supervisorID *int64) ([]*entity.AssignmentRequest, error) {
			gotFilter = supervisorID
			return []*entity.AssignmentRequest{{ID: 1}}, nil
		},
	}
	w := newTestWorkflow(requests, nil, nil)

	supervisorID := int64(7)
	list, err := w.ListPending(context.Background(), &supervisorID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NotNil(t, gotFilter)
	assert.Equal(t, int64(7), *gotFilter)
}
