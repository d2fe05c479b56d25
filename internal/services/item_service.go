package services

import (
	"pos_sync/internal/models"
	"pos_sync/internal/repository"
	"time"
)

type ItemService interface {
	AddItem(item *models.Item) (*models.Item, error)
	GetItem(id uint) (*models.Item, error)
	GetAllItems() ([]models.Item, error)
	Categories() ([]string, error)
	UpdateItem(item *models.Item) error
	RemoveItem(id uint) error
}

type itemService struct {
	itemRepo repository.ItemRepository
}

func NewItemService(itemRepo repository.ItemRepository) ItemService {
	return &itemService{itemRepo: itemRepo}
}

func (s *itemService) AddItem(item *models.Item) (*models.Item, error) {
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	return s.itemRepo.Insert(item)
}

func (s *itemService) GetItem(id uint) (*models.Item, error) {
	return s.itemRepo.GetByID(id)
}

func (s *itemService) GetAllItems() ([]models.Item, error) {
	return s.itemRepo.GetAll()
}

func (s *itemService) Categories() ([]string, error) {
	return s.itemRepo.Categories()
}

func (s *itemService) UpdateItem(item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	return s.itemRepo.Update(item)
}

// RemoveItem deletes the item locally. This is a true local delete; the
// sync-visible soft delete is the item's removed flag, set via UpdateItem.
func (s *itemService) RemoveItem(id uint) error {
	return s.itemRepo.Delete(id)
}
