package trips

import (
	"context"
	"testing"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockTripStore struct {
	createFunc  func(ctx context.Context, trip *entity.Trip) error
	getByIDFunc func(ctx context.Context, id int64) (*entity.Trip, error)
	updateFunc  func(ctx context.Context, trip *entity.Trip) error
	deleteFunc  func(ctx context.Context, id int64) error
	listFunc    func(ctx context.Context, userID int64, month, year int) ([]*entity.Trip, error)
}

func (m *mockTripStore) Create(ctx context.Context, trip *entity.Trip) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, trip)
	}
	trip.ID = 1
	return nil
}

func (m *mockTripStore) GetByID(ctx context.Context, id int64) (*entity.Trip, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTripStore) Update(ctx context.Context, trip *entity.Trip) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, trip)
	}
	return nil
}

func (m *mockTripStore) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockTripStore) ListForPeriod(ctx context.Context, userID int64, month, year int) ([]*entity.Trip, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, month, year)
	}
	return []*entity.Trip{}, nil
}

type mockVoucherReader struct {
	getByUserPeriodFunc func(ctx context.Context, userID int64, month, year int) (*entity.Voucher, error)
}

func (m *mockVoucherReader) GetByUserPeriod(ctx context.Context, userID int64, month, year int) (*entity.Voucher, error) {
	if m.getByUserPeriodFunc != nil {
		return m.getByUserPeriodFunc(ctx, userID, month, year)
	}
	return nil, nil
}

func validTrip() *entity.Trip {
	return &entity.Trip{
		Date:        "2025-06-12",
		FromAddress: "100 Main St, Dallas TX",
		ToAddress:   "4000 Plant Rd, Fort Worth TX",
		SiteName:    "Plant 12",
		Miles:       34.2,
	}
}

func TestService_Create(t *testing.T) {
	service := NewService(&mockTripStore{}, &mockVoucherReader{}, zap.NewNop())

	trip, err := service.Create(context.Background(), 2, validTrip())
	require.NoError(t, err)
	assert.Equal(t, int64(2), trip.UserID)
	assert.Equal(t, int64(1), trip.ID)
}

func TestService_Create_PeriodLocked(t *testing.T) {
	statuses := []struct {
		status   string
		editable bool
	}{
		{entity.VoucherStatusDraft, true},
		{entity.VoucherStatusRejected, true},
		{entity.VoucherStatusSubmitted, false},
		{entity.VoucherStatusSupervisorApproved, false},
		{entity.VoucherStatusFleetApproved, false},
	}

	for _, tt := range statuses {
		t.Run(tt.status, func(t *testing.T) {
			vouchers := &mockVoucherReader{
				getByUserPeriodFunc: func(ctx context.Context, userID int64, month, year int) (*entity.Voucher, error) {
					assert.Equal(t, 6, month)
					assert.Equal(t, 2025, year)
					return &entity.Voucher{ID: 1, UserID: userID, Status: tt.status}, nil
				},
			}
			service := NewService(&mockTripStore{}, vouchers, zap.NewNop())

			_, err := service.Create(context.Background(), 2, validTrip())
			if tt.editable {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, workflow.ErrInvalidState)
			}
		})
	}
}

func TestService_Create_Validation(t *testing.T) {
	service := NewService(&mockTripStore{}, &mockVoucherReader{}, zap.NewNop())

	tests := []struct {
		name   string
		mutate func(*entity.Trip)
	}{
		{"bad date", func(tr *entity.Trip) { tr.Date = "06/12/2025" }},
		{"zero miles", func(tr *entity.Trip) { tr.Miles = 0 }},
		{"excessive miles", func(tr *entity.Trip) { tr.Miles = 1200 }},
		{"missing from address", func(tr *entity.Trip) { tr.FromAddress = "" }},
		{"missing to address", func(tr *entity.Trip) { tr.ToAddress = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip := validTrip()
			tt.mutate(trip)
			_, err := service.Create(context.Background(), 2, trip)
			assert.ErrorIs(t, err, workflow.ErrInvalidClaim)
		})
	}
}

func TestService_Update_OwnerOnly(t *testing.T) {
	trips := &mockTripStore{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Trip, error) {
			existing := validTrip()
			existing.ID = id
			existing.UserID = 2
			return existing, nil
		},
	}
	service := NewService(trips, &mockVoucherReader{}, zap.NewNop())

	_, err := service.Update(context.Background(), 99, 1, validTrip())
	assert.ErrorIs(t, err, workflow.ErrForbidden)
}

func TestService_Update_ChecksBothPeriods(t *testing.T) {
	// Moving a trip from June into a locked July must fail even though
	// June is still editable.
	trips := &mockTripStore{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Trip, error) {
			existing := validTrip()
			existing.ID = id
			existing.UserID = 2
			return existing, nil
		},
	}
	vouchers := &mockVoucherReader{
		getByUserPeriodFunc: func(ctx context.Context, userID int64, month, year int) (*entity.Voucher, error) {
			if month == 7 {
				return &entity.Voucher{ID: 2, UserID: userID, Status: entity.VoucherStatusSubmitted}, nil
			}
			return nil, nil
		},
	}
	service := NewService(trips, vouchers, zap.NewNop())

	moved := validTrip()
	moved.Date = "2025-07-03"
	_, err := service.Update(context.Background(), 2, 1, moved)
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestService_Delete(t *testing.T) {
	deleted := false
	trips := &mockTripStore{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Trip, error) {
			existing := validTrip()
			existing.ID = id
			existing.UserID = 2
			return existing, nil
		},
		deleteFunc: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}
	service := NewService(trips, &mockVoucherReader{}, zap.NewNop())

	require.NoError(t, service.Delete(context.Background(), 2, 1))
	assert.True(t, deleted)
}

func TestService_Delete_NotFound(t *testing.T) {
	service := NewService(&mockTripStore{}, &mockVoucherReader{}, zap.NewNop())

	err := service.Delete(context.Background(), 2, 42)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestService_ListForPeriod_InvalidPeriod(t *testing.T) {
	service := NewService(&mockTripStore{}, &mockVoucherReader{}, zap.NewNop())

	_, err := service.ListForPeriod(context.Background(), 2, 0, 2025)
	assert.ErrorIs(t, err, workflow.ErrInvalidClaim)
}
