package services

import (
	"context"
	"log"
	"pos_sync/internal/models"
	"pos_sync/internal/repository"
	"pos_sync/internal/retry"
	"time"
)

type OrderService interface {
	AddOrder(order *models.Order) (*models.Order, error)
	GetOrder(id uint) (*models.Order, error)
	GetAllOrders() ([]models.Order, error)
	UserOrders(user string) ([]models.Order, error)
	AddItemToOrder(orderID uint, item models.Item) error
	RemoveItemFromOrder(orderID, itemID uint) error
	MarkOrderAsPaid(orderID uint) error
	DeleteOrder(id uint) error
}

// ProjectionCache holds the per-user order view so the shell can render it
// without a store read. A nil cache disables it.
type ProjectionCache interface {
	RefreshUserOrders(user string, orders []models.Order) error
	GetUserOrders(user string) ([]models.Order, error)
}

// RemoteOrderDeleter propagates a user-initiated order delete upstream.
type RemoteOrderDeleter interface {
	DeleteOrder(ctx context.Context, id uint) error
}

type orderService struct {
	orderRepo  repository.OrderRepository
	tombstones repository.TombstoneRepository
	remote     RemoteOrderDeleter
	retrier    *retry.Executor
	cache      ProjectionCache
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	tombstones repository.TombstoneRepository,
	remote RemoteOrderDeleter,
	retrier *retry.Executor,
	cache ProjectionCache,
) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		tombstones: tombstones,
		remote:     remote,
		retrier:    retrier,
		cache:      cache,
	}
}

func (s *orderService) AddOrder(order *models.Order) (*models.Order, error) {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	order.TotalPrice = order.ActiveTotal()

	created, err := s.orderRepo.Insert(order)
	if err != nil {
		return nil, err
	}
	s.refreshUserProjection(created.User)
	return created, nil
}

func (s *orderService) GetOrder(id uint) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

func (s *orderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

func (s *orderService) UserOrders(user string) ([]models.Order, error) {
	if s.cache != nil {
		if orders, err := s.cache.GetUserOrders(user); err == nil && orders != nil {
			return orders, nil
		}
	}
	orders, err := s.orderRepo.GetByUser(user)
	if err != nil {
		return nil, err
	}
	s.refreshWith(user, orders)
	return orders, nil
}

// AddItemToOrder reinstates a removed line with quantity 1, increments an
// active one, or appends a new line, then recomputes the total over active
// lines. Paid orders are left untouched.
func (s *orderService) AddItemToOrder(orderID uint, item models.Item) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Paid {
		return nil
	}

	found := false
	for i := range order.Items {
		if order.Items[i].ID != item.ID {
			continue
		}
		if order.Items[i].Removed {
			order.Items[i].Removed = false
			order.Items[i].Quantity = 1
		} else {
			order.Items[i].Quantity++
		}
		found = true
		break
	}
	if !found {
		order.Items = append(order.Items, models.OrderLine{Item: item, Quantity: 1})
	}

	return s.persistMutation(order)
}

// RemoveItemFromOrder flips the matching line's removed flag. The line stays
// in the order; only the total forgets it.
func (s *orderService) RemoveItemFromOrder(orderID, itemID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Paid {
		return nil
	}

	matched := false
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			order.Items[i].Removed = true
			matched = true
		}
	}
	if !matched {
		return nil
	}

	return s.persistMutation(order)
}

// MarkOrderAsPaid re-persists and re-stamps updatedAt on every call, paid or
// not. The fresh stamp is what lets the paid flag win conflict resolution
// against a stale remote copy.
func (s *orderService) MarkOrderAsPaid(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}

	order.Paid = true
	order.UpdatedAt = time.Now().UTC()
	if err := s.orderRepo.Update(order); err != nil {
		return err
	}
	s.refreshUserProjection(order.User)
	return nil
}

// DeleteOrder removes the order locally and propagates the delete upstream.
// The id is tombstoned first so a sync cycle can neither resurrect the order
// nor lose the delete while the server is unreachable; the tombstone is
// cleared once the server confirms.
func (s *orderService) DeleteOrder(id uint) error {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return err
	}
	if s.tombstones != nil {
		if err := s.tombstones.Add(id); err != nil {
			return err
		}
	}
	if err := s.orderRepo.Delete(id); err != nil {
		return err
	}
	if order != nil {
		s.refreshUserProjection(order.User)
	}
	s.deleteUpstream(id)
	return nil
}

func (s *orderService) deleteUpstream(id uint) {
	if s.remote == nil {
		return
	}
	ctx := context.Background()
	op := func(ctx context.Context) error { return s.remote.DeleteOrder(ctx, id) }
	var err error
	if s.retrier != nil {
		err = s.retrier.Do(ctx, op)
	} else {
		err = op(ctx)
	}
	if err != nil {
		log.Printf("Failed to delete order %d upstream, the next push will finish it: %v", id, err)
		return
	}
	if s.tombstones != nil {
		if err := s.tombstones.Remove(id); err != nil {
			log.Printf("Failed to clear delete marker for order %d: %v", id, err)
		}
	}
}

func (s *orderService) persistMutation(order *models.Order) error {
	order.TotalPrice = order.ActiveTotal()
	order.UpdatedAt = time.Now().UTC()
	if err := s.orderRepo.Update(order); err != nil {
		return err
	}
	s.refreshUserProjection(order.User)
	return nil
}

func (s *orderService) refreshUserProjection(user string) {
	if s.cache == nil || user == "" {
		return
	}
	orders, err := s.orderRepo.GetByUser(user)
	if err != nil {
		log.Printf("Failed to read orders for projection refresh: %v", err)
		return
	}
	s.refreshWith(user, orders)
}

func (s *orderService) refreshWith(user string, orders []models.Order) {
	if s.cache == nil || user == "" {
		return
	}
	if err := s.cache.RefreshUserOrders(user, orders); err != nil {
		log.Printf("Failed to refresh order projection for %s: %v", user, err)
	}
}
