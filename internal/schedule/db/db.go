package db

import (
	"context"
	"time"

	"ms-busbooking/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateSchedule(ctx context.Context, schedule *models.Schedule) error {
	_, err := d.Bun.NewInsert().Model(schedule).Exec(ctx)
	return err
}

// CreateSeats bulk-inserts the seat inventory of a freshly published
// schedule in one statement.
func (d *DB) CreateSeats(ctx context.Context, seats []models.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&seats).Exec(ctx)
	return err
}

func (d *DB) GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	var schedule models.Schedule
	err := d.Bun.NewSelect().
		Model(&schedule).
		Where("schedule_id = ?", scheduleID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// SearchSchedules lists active schedules for a route on a given day,
// earliest departure first.
func (d *DB) SearchSchedules(ctx context.Context, origin, destination string, date time.Time) ([]models.Schedule, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var schedules []models.Schedule
	err := d.Bun.NewSelect().
		Model(&schedules).
		Where("lower(origin) = lower(?)", origin).
		Where("lower(destination) = lower(?)", destination).
		Where("journey_date >= ?", dayStart).
		Where("journey_date < ?", dayEnd).
		Where("is_active = ?", true).
		Order("departure_time").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (d *DB) DeactivateSchedule(ctx context.Context, scheduleID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Schedule)(nil)).
		Set("is_active = ?", false).
		Where("schedule_id = ?", scheduleID).
		Exec(ctx)
	return err
}
