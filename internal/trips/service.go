// Package trips manages an inspector's trip log. Trips feed voucher totals
// at submission; they may only change while the period's voucher is still
// editable by its owner.
package trips

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/domain/workflow"
	"github.com/fieldops/mileage-voucher/pkg/utils"
	"go.uber.org/zap"
)

// TripStore is the trip persistence the service needs.
type TripStore interface {
	Create(ctx context.Context, trip *entity.Trip) error
	GetByID(ctx context.Context, id int64) (*entity.Trip, error)
	Update(ctx context.Context, trip *entity.Trip) error
	Delete(ctx context.Context, id int64) error
	ListForPeriod(ctx context.Context, userID int64, month, year int) ([]*entity.Trip, error)
}

// VoucherReader checks whether the trip's period is still open for edits.
type VoucherReader interface {
	GetByUserPeriod(ctx context.Context, userID int64, month, year int) (*entity.Voucher, error)
}

// Service manages the trip log.
type Service struct {
	trips    TripStore
	vouchers VoucherReader
	logger   *zap.Logger
}

// NewService creates a trip service.
func NewService(trips TripStore, vouchers VoucherReader, logger *zap.Logger) *Service {
	return &Service{trips: trips, vouchers: vouchers, logger: logger}
}

// Create records a trip for the actor. The period's voucher, if one exists,
// must still be editable.
func (s *Service) Create(ctx context.Context, actorID int64, trip *entity.Trip) (*entity.Trip, error) {
	trip.UserID = actorID
	if err := s.validate(trip); err != nil {
		return nil, err
	}
	if err := s.requireEditablePeriod(ctx, actorID, trip.Date); err != nil {
		return nil, err
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}

	s.logger.Info("Trip recorded",
		zap.Int64("trip_id", trip.ID),
		zap.Int64("user_id", actorID),
		zap.String("date", trip.Date),
		zap.Float64("miles", trip.Miles))
	return trip, nil
}

// Update replaces a trip's fields. Owner only; both the old and new dates
// must fall in editable periods.
func (s *Service) Update(ctx context.Context, actorID, tripID int64, updated *entity.Trip) (*entity.Trip, error) {
	existing, err := s.loadOwned(ctx, actorID, tripID)
	if err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.UserID = existing.UserID
	if err := s.validate(updated); err != nil {
		return nil, err
	}
	if err := s.requireEditablePeriod(ctx, actorID, existing.Date); err != nil {
		return nil, err
	}
	if updated.Date != existing.Date {
		if err := s.requireEditablePeriod(ctx, actorID, updated.Date); err != nil {
			return nil, err
		}
	}

	if err := s.trips.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	return updated, nil
}

// Delete removes a trip. Owner only; the trip's period must be editable.
func (s *Service) Delete(ctx context.Context, actorID, tripID int64) error {
	existing, err := s.loadOwned(ctx, actorID, tripID)
	if err != nil {
		return err
	}
	if err := s.requireEditablePeriod(ctx, actorID, existing.Date); err != nil {
		return err
	}

	if err := s.trips.Delete(ctx, tripID); err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}

	s.logger.Info("Trip deleted",
		zap.Int64("trip_id", tripID),
		zap.Int64("user_id", actorID))
	return nil
}

// ListForPeriod returns the actor's trips for a reporting period.
func (s *Service) ListForPeriod(ctx context.Context, actorID int64, month, year int) ([]*entity.Trip, error) {
	if err := utils.ValidatePeriod(month, year); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrInvalidClaim, err)
	}
	trips, err := s.trips.ListForPeriod(ctx, actorID, month, year)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	return trips, nil
}

func (s *Service) validate(trip *entity.Trip) error {
	if err := utils.ValidateTripDate(trip.Date); err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrInvalidClaim, err)
	}
	if err := utils.ValidateMiles(trip.Miles); err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrInvalidClaim, err)
	}
	if trip.FromAddress == "" || trip.ToAddress == "" {
		return fmt.Errorf("%w: trip addresses are required", workflow.ErrInvalidClaim)
	}
	return nil
}

func (s *Service) loadOwned(ctx context.Context, actorID, tripID int64) (*entity.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if trip == nil {
		return nil, fmt.Errorf("%w: trip %d", workflow.ErrNotFound, tripID)
	}
	if trip.UserID != actorID {
		return nil, fmt.Errorf("%w: trip %d belongs to another user", workflow.ErrForbidden, tripID)
	}
	return trip, nil
}

// requireEditablePeriod refuses the edit once the period's voucher has
// entered the approval chain.
func (s *Service) requireEditablePeriod(ctx context.Context, userID int64, date string) error {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrInvalidClaim, err)
	}

	voucher, err := s.vouchers.GetByUserPeriod(ctx, userID, int(parsed.Month()), parsed.Year())
	if err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrStorage, err)
	}
	if voucher != nil && !voucher.Editable() {
		return fmt.Errorf("%w: voucher for %d/%d is %s", workflow.ErrInvalidState,
			int(parsed.Month()), parsed.Year(), voucher.Status)
	}
	return nil
}
