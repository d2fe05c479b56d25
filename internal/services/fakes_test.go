package services

import (
	"context"
	"pos_sync/internal/models"
	"sort"
	"sync"
)

func cloneOrder(o *models.Order) *models.Order {
	clone := *o
	clone.Items = append([]models.OrderLine(nil), o.Items...)
	return &clone
}

type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[uint]*models.Order
	nextID  uint
	inserts int
	updates int
	deletes int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uint]*models.Order{}, nextID: 1}
}

func (r *fakeOrderRepo) Insert(order *models.Order) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if order.ID == 0 {
		order.ID = r.nextID
		r.nextID++
	} else if order.ID >= r.nextID {
		r.nextID = order.ID + 1
	}
	r.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

func (r *fakeOrderRepo) GetByID(id uint) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(order), nil
}

func (r *fakeOrderRepo) GetAll() ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, 0, len(r.orders))
	for id := range r.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	all := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		all = append(all, *cloneOrder(r.orders[id]))
	}
	return all, nil
}

func (r *fakeOrderRepo) GetByUser(user string) ([]models.Order, error) {
	all, _ := r.GetAll()
	filtered := make([]models.Order, 0)
	for _, order := range all {
		if order.User == user {
			filtered = append(filtered, order)
		}
	}
	return filtered, nil
}

func (r *fakeOrderRepo) Update(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *fakeOrderRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserts + r.updates + r.deletes
}

type fakeItemRepo struct {
	mu      sync.Mutex
	items   map[uint]models.Item
	nextID  uint
	inserts int
	updates int
	deletes int
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: map[uint]models.Item{}, nextID: 1}
}

func (r *fakeItemRepo) Insert(item *models.Item) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if item.ID == 0 {
		item.ID = r.nextID
		r.nextID++
	} else if item.ID >= r.nextID {
		r.nextID = item.ID + 1
	}
	r.items[item.ID] = *item
	stored := r.items[item.ID]
	return &stored, nil
}

func (r *fakeItemRepo) GetByID(id uint) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *fakeItemRepo) GetAll() ([]models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	all := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		all = append(all, r.items[id])
	}
	return all, nil
}

func (r *fakeItemRepo) Categories() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var categories []string
	for _, item := range r.items {
		if !seen[item.Category] {
			seen[item.Category] = true
			categories = append(categories, item.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *fakeItemRepo) Update(item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.items[item.ID] = *item
	return nil
}

func (r *fakeItemRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	delete(r.items, id)
	return nil
}

func (r *fakeItemRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserts + r.updates + r.deletes
}

type fakeTombstones struct {
	mu  sync.Mutex
	ids map[uint]bool
}

func newFakeTombstones() *fakeTombstones {
	return &fakeTombstones{ids: map[uint]bool{}}
}

func (f *fakeTombstones) Add(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[id] = true
	return nil
}

func (f *fakeTombstones) Remove(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
	return nil
}

func (f *fakeTombstones) All() ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uint, 0, len(f.ids))
	for id := range f.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeTombstones) contains(id uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[id]
}

// fakeRemote records every outbound call. The fail* fields make the matching
// call fail permanently so retry exhaustion paths can be tested.
type fakeRemote struct {
	mu sync.Mutex

	items  []models.Item
	orders []models.Order

	createdItems  []models.Item
	updatedItems  []models.Item
	deletedItems  []uint
	createdOrders []models.Order
	deletedOrders []uint

	failFetchItems  error
	failFetchOrders error
	failCreateItem  error
	failCreateOrder error
	failDeleteOrder error

	fetchGate chan struct{} // when set, FetchItems blocks until closed
}

func (f *fakeRemote) FetchItems(ctx context.Context) ([]models.Item, error) {
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetchItems != nil {
		return nil, f.failFetchItems
	}
	return append([]models.Item(nil), f.items...), nil
}

func (f *fakeRemote) FetchOrders(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetchOrders != nil {
		return nil, f.failFetchOrders
	}
	return append([]models.Order(nil), f.orders...), nil
}

func (f *fakeRemote) CreateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateItem != nil {
		return nil, f.failCreateItem
	}
	f.createdItems = append(f.createdItems, *item)
	return item, nil
}

func (f *fakeRemote) UpdateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedItems = append(f.updatedItems, *item)
	return item, nil
}

func (f *fakeRemote) DeleteItem(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedItems = append(f.deletedItems, id)
	f.items = dropItem(f.items, id)
	return nil
}

func (f *fakeRemote) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateOrder != nil {
		return nil, f.failCreateOrder
	}
	f.createdOrders = append(f.createdOrders, *order)
	return order, nil
}

func (f *fakeRemote) DeleteOrder(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeleteOrder != nil {
		return f.failDeleteOrder
	}
	f.deletedOrders = append(f.deletedOrders, id)
	f.orders = dropOrder(f.orders, id)
	return nil
}

func dropItem(items []models.Item, id uint) []models.Item {
	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	return kept
}

func dropOrder(orders []models.Order, id uint) []models.Order {
	kept := orders[:0]
	for _, order := range orders {
		if order.ID != id {
			kept = append(kept, order)
		}
	}
	return kept
}

type fakeIdentity struct {
	username string
	manager  bool
}

func (f fakeIdentity) Username() string { return f.username }
func (f fakeIdentity) IsManager() bool  { return f.manager }
