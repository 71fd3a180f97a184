package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DevenGibbs/starter-restaurant-reservation/models"
	"github.com/DevenGibbs/starter-restaurant-reservation/reservation"
)

func (s *GormStore) ListTables(ctx context.Context) ([]models.Table, error) {
	tables := []models.Table{}
	if err := s.db.WithContext(ctx).Order("table_name").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// CreateTable inserts t. When t already carries a reservation id the
// reservation is seated in the same transaction.
func (s *GormStore) CreateTable(ctx context.Context, t *models.Table) (*models.Table, error) {
	seatID := t.ReservationID
	t.ReservationID = nil

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
		if seatID == nil {
			return nil
		}
		seated, err := seat(tx, t.ID, *seatID)
		if err != nil {
			return err
		}
		*t = *seated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *GormStore) FindTable(ctx context.Context, id uint) (*models.Table, error) {
	return findTable(s.db.WithContext(ctx), id, false)
}

// Seat links a booked reservation to a free table large enough for the party.
func (s *GormStore) Seat(ctx context.Context, tableID, reservationID uint) (*models.Table, error) {
	var out *models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := seat(tx, tableID, reservationID)
		out = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Finish frees an occupied table and marks its reservation finished. A
// reservation that is already finished or cancelled keeps its status and
// only the link is cleared.
func (s *GormStore) Finish(ctx context.Context, tableID uint) (*models.Table, error) {
	var out *models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := findTable(tx, tableID, true)
		if err != nil {
			return err
		}
		if !t.Occupied() {
			return reservation.Rule("Table %d is not occupied.", t.ID)
		}

		r, err := findReservation(tx, *t.ReservationID)
		if err != nil {
			return err
		}
		if !reservation.Status(r.Status).ReleasesTable() {
			if err := reservation.Transition(reservation.Status(r.Status), reservation.Finished); err != nil {
				return err
			}
			if err := tx.Model(r).Update("status", string(reservation.Finished)).Error; err != nil {
				return fmt.Errorf("failed to finish reservation %d: %w", r.ID, err)
			}
		}
		if err := tx.Model(t).Update("reservation_id", nil).Error; err != nil {
			return fmt.Errorf("failed to free table %d: %w", t.ID, err)
		}
		t.ReservationID = nil
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func seat(tx *gorm.DB, tableID, reservationID uint) (*models.Table, error) {
	t, err := findTable(tx, tableID, true)
	if err != nil {
		return nil, err
	}
	r, err := findReservation(tx, reservationID)
	if err != nil {
		return nil, err
	}

	switch reservation.Status(r.Status) {
	case reservation.Booked:
	case reservation.Seated:
		return nil, reservation.Rule("Reservation %d is already seated.", r.ID)
	default:
		return nil, reservation.Rule("Reservation %d is %s and cannot be seated.", r.ID, r.Status)
	}
	if t.Occupied() {
		return nil, reservation.Rule("Table %d is occupied.", t.ID)
	}
	if t.Capacity < r.People {
		return nil, reservation.Rule("Table %d does not have sufficient capacity for %d people.", t.ID, r.People)
	}

	if err := tx.Model(r).Update("status", string(reservation.Seated)).Error; err != nil {
		return nil, fmt.Errorf("failed to seat reservation %d: %w", r.ID, err)
	}
	if err := tx.Model(t).Update("reservation_id", r.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to assign table %d: %w", t.ID, err)
	}
	t.ReservationID = &r.ID
	return t, nil
}

func findTable(tx *gorm.DB, id uint, lock bool) (*models.Table, error) {
	var t models.Table
	q := tx
	if lock && tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.NotFound("Table %d cannot be found.", id)
		}
		return nil, fmt.Errorf("failed to load table %d: %w", id, err)
	}
	return &t, nil
}

func findReservation(tx *gorm.DB, id uint) (*models.Reservation, error) {
	var r models.Reservation
	if err := tx.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.NotFound("Reservation %d cannot be found.", id)
		}
		return nil, fmt.Errorf("failed to load reservation %d: %w", id, err)
	}
	return &r, nil
}
