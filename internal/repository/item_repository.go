package repository

import (
	"errors"
	"pos_sync/internal/models"

	"gorm.io/gorm"
)

type ItemRepository interface {
	Insert(item *models.Item) (*models.Item, error)
	GetByID(id uint) (*models.Item, error)
	GetAll() ([]models.Item, error)
	Categories() ([]string, error)
	Update(item *models.Item) error
	Delete(id uint) error
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

// Insert persists a new item. A zero ID lets the store assign one; a non-zero
// ID is kept as-is, which is how server-assigned records are replicated in.
func (r *itemRepository) Insert(item *models.Item) (*models.Item, error) {
	row := models.NewItemRow(item)
	if err := r.db.Create(row).Error; err != nil {
		return nil, &WriteError{Op: "insert item", Err: err}
	}
	return row.Item(), nil
}

func (r *itemRepository) GetByID(id uint) (*models.Item, error) {
	var row models.ItemRow
	err := r.db.First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.Item(), nil
}

func (r *itemRepository) GetAll() ([]models.Item, error) {
	var rows []models.ItemRow
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]models.Item, 0, len(rows))
	for i := range rows {
		items = append(items, *rows[i].Item())
	}
	return items, nil
}

func (r *itemRepository) Categories() ([]string, error) {
	var categories []string
	err := r.db.Model(&models.ItemRow{}).Distinct("category").Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *itemRepository) Update(item *models.Item) error {
	row := models.NewItemRow(item)
	result := r.db.Model(&models.ItemRow{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
		"name":        row.Name,
		"price":       row.Price,
		"category":    row.Category,
		"description": row.Description,
		"image_url":   row.ImageURL,
		"stock":       row.Stock,
		"removed":     row.Removed,
		"created_at":  row.CreatedAt,
		"updated_at":  row.UpdatedAt,
	})
	if result.Error != nil {
		return &WriteError{Op: "update item", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *itemRepository) Delete(id uint) error {
	return r.db.Delete(&models.ItemRow{}, id).Error
}
