package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/DevenGibbs/starter-restaurant-reservation/models"
	"github.com/DevenGibbs/starter-restaurant-reservation/reservation"
)

// ReservationStore is the data-access side of reservation operations.
type ReservationStore interface {
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
	Insert(ctx context.Context, r *models.Reservation) (*models.Reservation, error)
	Replace(ctx context.Context, r *models.Reservation) (*models.Reservation, error)
	DeleteByID(ctx context.Context, id uint) error
	ListAll(ctx context.Context) ([]models.Reservation, error)
	ListByDate(ctx context.Context, date string) ([]models.Reservation, error)
	ListByPhoneFragment(ctx context.Context, digits string) ([]models.Reservation, error)
}

// TableStore manages tables and the seating link to reservations.
type TableStore interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	CreateTable(ctx context.Context, t *models.Table) (*models.Table, error)
	FindTable(ctx context.Context, id uint) (*models.Table, error)
	Seat(ctx context.Context, tableID, reservationID uint) (*models.Table, error)
	Finish(ctx context.Context, tableID uint) (*models.Table, error)
}

// GormStore implements ReservationStore and TableStore on top of GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.NotFound("Reservation %d cannot be found.", id)
		}
		return nil, fmt.Errorf("failed to load reservation %d: %w", id, err)
	}
	return &r, nil
}

func (s *GormStore) Insert(ctx context.Context, r *models.Reservation) (*models.Reservation, error) {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}
	return r, nil
}

// Replace saves every field of r. A reservation that ends up finished or
// cancelled gives up its table in the same transaction.
func (s *GormStore) Replace(ctx context.Context, r *models.Reservation) (*models.Reservation, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(r).Error; err != nil {
			return fmt.Errorf("failed to update reservation %d: %w", r.ID, err)
		}
		if reservation.Status(r.Status).ReleasesTable() {
			return freeTables(tx, r.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func freeTables(tx *gorm.DB, reservationID uint) error {
	if err := tx.Model(&models.Table{}).
		Where("reservation_id = ?", reservationID).
		Update("reservation_id", nil).Error; err != nil {
		return fmt.Errorf("failed to free tables for reservation %d: %w", reservationID, err)
	}
	return nil
}

func (s *GormStore) DeleteByID(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := freeTables(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Reservation{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete reservation %d: %w", id, err)
		}
		return nil
	})
}

func (s *GormStore) ListAll(ctx context.Context) ([]models.Reservation, error) {
	return s.list(ctx, s.db.WithContext(ctx))
}

func (s *GormStore) ListByDate(ctx context.Context, date string) ([]models.Reservation, error) {
	return s.list(ctx, s.db.WithContext(ctx).Where("reservation_date = ?", date))
}

// ListByPhoneFragment matches digits against the digits-only copy of each
// stored number, so "(800) 555" finds "800-555-1212".
func (s *GormStore) ListByPhoneFragment(ctx context.Context, digits string) ([]models.Reservation, error) {
	return s.list(ctx, s.db.WithContext(ctx).Where("mobile_digits LIKE ?", "%"+digits+"%"))
}

func (s *GormStore) list(_ context.Context, q *gorm.DB) ([]models.Reservation, error) {
	reservations := []models.Reservation{}
	if err := q.Order("reservation_date").Order("reservation_time").Order("id").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}
