package repository

import (
	"pos_sync/internal/models"
	"time"

	"gorm.io/gorm"
)

// TombstoneRepository records order ids the user deleted locally whose
// server-side delete has not been confirmed yet.
type TombstoneRepository interface {
	Add(id uint) error
	Remove(id uint) error
	All() ([]uint, error)
}

type tombstoneRepository struct {
	db *gorm.DB
}

func NewTombstoneRepository(db *gorm.DB) TombstoneRepository {
	return &tombstoneRepository{db: db}
}

// Add is idempotent; marking an already marked id is not an error.
func (r *tombstoneRepository) Add(id uint) error {
	row := models.OrderTombstoneRow{
		OrderID:   id,
		DeletedAt: models.FormatTimestamp(time.Now().UTC()),
	}
	if err := r.db.Where("order_id = ?", id).FirstOrCreate(&row).Error; err != nil {
		return &WriteError{Op: "mark order deleted", Err: err}
	}
	return nil
}

func (r *tombstoneRepository) Remove(id uint) error {
	if err := r.db.Delete(&models.OrderTombstoneRow{}, "order_id = ?", id).Error; err != nil {
		return &WriteError{Op: "clear order delete marker", Err: err}
	}
	return nil
}

func (r *tombstoneRepository) All() ([]uint, error) {
	var rows []models.OrderTombstoneRow
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.OrderID)
	}
	return ids, nil
}
