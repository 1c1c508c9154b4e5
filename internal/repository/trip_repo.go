package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/pkg/database"
	"go.uber.org/zap"
)

// TripRepository handles trip rows. Trips are read (never written) by the
// voucher submit operation to compute period totals.
type TripRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewTripRepository creates a new trip repository.
func NewTripRepository(db *database.DB, logger *zap.Logger) *TripRepository {
	return &TripRepository{db: db, logger: logger}
}

const tripColumns = `
	id, user_id, date, from_address, to_address, site_name, purpose,
	miles, route_data, departure_time, return_time, notes,
	created_at, updated_at
`

// Create inserts a trip.
func (r *TripRepository) Create(ctx context.Context, trip *entity.Trip) error {
	query := `
		INSERT INTO trips (
			user_id, date, from_address, to_address, site_name, purpose,
			miles, route_data, departure_time, return_time, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		trip.UserID,
		trip.Date,
		trip.FromAddress,
		trip.ToAddress,
		trip.SiteName,
		trip.Purpose,
		trip.Miles,
		trip.RouteData,
		trip.DepartureTime,
		trip.ReturnTime,
		trip.Notes,
	)
	if err != nil {
		r.logger.Error("Failed to create trip", zap.Int64("user_id", trip.UserID), zap.Error(err))
		return fmt.Errorf("failed to create trip: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	trip.ID = id
	return nil
}

// GetByID retrieves a trip by id. Returns nil when absent.
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*entity.Trip, error) {
	query := `SELECT` + tripColumns + `FROM trips WHERE id = ?`

	trip, err := r.scanOne(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get trip", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// Update replaces a trip's mutable fields.
func (r *TripRepository) Update(ctx context.Context, trip *entity.Trip) error {
	query := `
		UPDATE trips
		SET date = ?, from_address = ?, to_address = ?, site_name = ?,
			purpose = ?, miles = ?, route_data = ?, departure_time = ?,
			return_time = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		trip.Date,
		trip.FromAddress,
		trip.ToAddress,
		trip.SiteName,
		trip.Purpose,
		trip.Miles,
		trip.RouteData,
		trip.DepartureTime,
		trip.ReturnTime,
		trip.Notes,
		trip.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update trip", zap.Int64("id", trip.ID), zap.Error(err))
		return fmt.Errorf("failed to update trip: %w", err)
	}
	return nil
}

// Delete removes a trip.
func (r *TripRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, "DELETE FROM trips WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete trip", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	return nil
}

// ListForPeriod returns the user's trips within the reporting period,
// ordered by date.
func (r *TripRepository) ListForPeriod(ctx context.Context, userID int64, month, year int) ([]*entity.Trip, error) {
	start, end := periodBounds(month, year)
	query := `SELECT` + tripColumns + `
		FROM trips
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date ASC, id ASC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, userID, start, end)
	if err != nil {
		r.logger.Error("Failed to list trips for period",
			zap.Int64("user_id", userID),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*entity.Trip
	for rows.Next() {
		trip, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// SumMilesForPeriod returns the total miles of the user's trips within the
// reporting period.
func (r *TripRepository) SumMilesForPeriod(ctx context.Context, userID int64, month, year int) (float64, error) {
	start, end := periodBounds(month, year)
	query := `
		SELECT COALESCE(SUM(miles), 0)
		FROM trips
		WHERE user_id = ? AND date >= ? AND date < ?
	`

	var total float64
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, userID, start, end).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to sum miles for period",
			zap.Int64("user_id", userID),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err))
		return 0, fmt.Errorf("failed to sum miles: %w", err)
	}
	return total, nil
}

// periodBounds returns [start, end) date strings covering the month.
func periodBounds(month, year int) (string, string) {
	start := fmt.Sprintf("%04d-%02d-01", year, month)
	nextMonth, nextYear := month+1, year
	if nextMonth > 12 {
		nextMonth, nextYear = 1, year+1
	}
	return start, fmt.Sprintf("%04d-%02d-01", nextYear, nextMonth)
}

func (r *TripRepository) scanOne(row rowScanner) (*entity.Trip, error) {
	var trip entity.Trip
	var siteName, purpose, routeData, departureTime, returnTime, notes sql.NullString

	err := row.Scan(
		&trip.ID,
		&trip.UserID,
		&trip.Date,
		&trip.FromAddress,
		&trip.ToAddress,
		&siteName,
		&purpose,
		&trip.Miles,
		&routeData,
		&departureTime,
		&returnTime,
		&notes,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	trip.SiteName = siteName.String
	trip.Purpose = purpose.String
	trip.RouteData = routeData.String
	trip.DepartureTime = departureTime.String
	trip.ReturnTime = returnTime.String
	trip.Notes = notes.String
	return &trip, nil
}
