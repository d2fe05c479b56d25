package repository

import (
	"errors"
	"pos_sync/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Insert(order *models.Order) (*models.Order, error)
	GetByID(id uint) (*models.Order, error)
	GetAll() ([]models.Order, error)
	GetByUser(user string) ([]models.Order, error)
	Update(order *models.Order) error
	Delete(id uint) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Insert(order *models.Order) (*models.Order, error) {
	row, err := models.NewOrderRow(order)
	if err != nil {
		return nil, &WriteError{Op: "insert order", Err: err}
	}
	if err := r.db.Create(row).Error; err != nil {
		return nil, &WriteError{Op: "insert order", Err: err}
	}
	return row.Order()
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var row models.OrderRow
	err := r.db.First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.Order()
}

// GetAll returns every order, most recently created first.
func (r *orderRepository) GetAll() ([]models.Order, error) {
	var rows []models.OrderRow
	if err := r.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersFromRows(rows)
}

func (r *orderRepository) GetByUser(user string) ([]models.Order, error) {
	var rows []models.OrderRow
	if err := r.db.Where("user = ?", user).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersFromRows(rows)
}

func (r *orderRepository) Update(order *models.Order) error {
	row, err := models.NewOrderRow(order)
	if err != nil {
		return &WriteError{Op: "update order", Err: err}
	}
	result := r.db.Model(&models.OrderRow{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
		"items":         row.Items,
		"total_price":   row.TotalPrice,
		"created_at":    row.CreatedAt,
		"updated_at":    row.UpdatedAt,
		"status":        row.Status,
		"customer_name": row.CustomerName,
		"paid":          row.Paid,
		"note":          row.Note,
		"user":          row.User,
	})
	if result.Error != nil {
		return &WriteError{Op: "update order", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) Delete(id uint) error {
	return r.db.Delete(&models.OrderRow{}, id).Error
}

func ordersFromRows(rows []models.OrderRow) ([]models.Order, error) {
	orders := make([]models.Order, 0, len(rows))
	for i := range rows {
		order, err := rows[i].Order()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}
