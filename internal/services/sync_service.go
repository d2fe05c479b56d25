package services

import (
	"context"
	"fmt"
	"log"
	"pos_sync/internal/models"
	"pos_sync/internal/repository"
	"pos_sync/internal/retry"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// RemoteClient is the server-side half of a sync pass.
type RemoteClient interface {
	FetchItems(ctx context.Context) ([]models.Item, error)
	FetchOrders(ctx context.Context) ([]models.Order, error)
	CreateItem(ctx context.Context, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) (*models.Item, error)
	DeleteItem(ctx context.Context, id uint) error
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uint) error
}

// Identity supplies the logged-in user for privileged sync behavior.
type Identity interface {
	Username() string
	IsManager() bool
}

// StatusCache mirrors sync outcomes somewhere the shell can poll cheaply.
type StatusCache interface {
	StoreSyncStatus(state, lastError string, syncedAt time.Time) error
}

type SyncState string

const (
	StateIdle    SyncState = "idle"
	StateSyncing SyncState = "syncing"
	StateError   SyncState = "error"
)

type SyncStatus struct {
	State        SyncState `json:"state"`
	LastError    string    `json:"last_error,omitempty"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// SyncService reconciles the local store with the server. Pull treats the
// server as authoritative for existence and for records it holds a newer copy
// of; push propagates locally newer records upstream. Overlapping invocations
// collapse into the one in-flight pass.
type SyncService struct {
	items      repository.ItemRepository
	orders     repository.OrderRepository
	tombstones repository.TombstoneRepository
	remote     RemoteClient
	retrier    *retry.Executor
	identity   Identity
	status     StatusCache

	syncing atomic.Bool

	mu           sync.Mutex
	state        SyncState
	lastError    string
	lastSyncedAt time.Time
}

func NewSyncService(
	items repository.ItemRepository,
	orders repository.OrderRepository,
	tombstones repository.TombstoneRepository,
	remote RemoteClient,
	retrier *retry.Executor,
	identity Identity,
	status StatusCache,
) *SyncService {
	return &SyncService{
		items:      items,
		orders:     orders,
		tombstones: tombstones,
		remote:     remote,
		retrier:    retrier,
		identity:   identity,
		status:     status,
		state:      StateIdle,
	}
}

// Sync runs a pull pass followed by a push pass. This is the connectivity
// trigger's entry point.
func (s *SyncService) Sync(ctx context.Context) error {
	return s.run(ctx, s.pullPass, s.pushPass)
}

// Pull runs only the download direction (manual "download" action).
func (s *SyncService) Pull(ctx context.Context) error {
	return s.run(ctx, s.pullPass)
}

// Push runs only the upload direction (manual "upload" action).
func (s *SyncService) Push(ctx context.Context) error {
	return s.run(ctx, s.pushPass)
}

func (s *SyncService) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SyncStatus{State: s.state, LastError: s.lastError, LastSyncedAt: s.lastSyncedAt}
}

// run is the single-flight gate: the flag is claimed before any I/O, and a
// losing caller returns immediately with no error.
func (s *SyncService) run(ctx context.Context, passes ...func(context.Context) error) error {
	if !s.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer s.syncing.Store(false)

	s.setState(StateSyncing, "")

	var firstErr error
	for _, pass := range passes {
		if err := pass(ctx); err != nil {
			log.Printf("Sync pass failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		s.setState(StateError, firstErr.Error())
		return firstErr
	}

	// The stamp means "the store was reconciled then"; a cycle whose every
	// pass failed has not synced anything.
	s.mu.Lock()
	s.lastSyncedAt = time.Now().UTC()
	s.mu.Unlock()
	s.setState(StateIdle, "")
	return nil
}

func (s *SyncService) setState(state SyncState, lastError string) {
	s.mu.Lock()
	s.state = state
	s.lastError = lastError
	syncedAt := s.lastSyncedAt
	s.mu.Unlock()

	if s.status != nil {
		if err := s.status.StoreSyncStatus(string(state), lastError, syncedAt); err != nil {
			log.Printf("Failed to store sync status: %v", err)
		}
	}
}

func (s *SyncService) pullPass(ctx context.Context) error {
	itemsErr := s.pullItems(ctx)
	ordersErr := s.pullOrders(ctx)
	if itemsErr != nil {
		return itemsErr
	}
	return ordersErr
}

func (s *SyncService) pushPass(ctx context.Context) error {
	itemsErr := s.pushItems(ctx)
	ordersErr := s.pushOrders(ctx)
	if itemsErr != nil {
		return itemsErr
	}
	return ordersErr
}

// pullItems applies the server's item collection locally: insert what is
// missing, overwrite what the server holds a newer copy of, and prune local
// items the server no longer knows.
func (s *SyncService) pullItems(ctx context.Context) error {
	remoteItems, err := s.remote.FetchItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch remote items: %w", err)
	}

	localItems, err := s.items.GetAll()
	if err != nil {
		log.Printf("Failed to read local items, continuing with empty set: %v", err)
		localItems = nil
	}
	localByID := make(map[uint]models.Item, len(localItems))
	for _, item := range localItems {
		localByID[item.ID] = item
	}

	var firstErr error
	record := func(err error) {
		if err != nil {
			log.Printf("Pull items: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	remoteIDs := make(map[uint]bool, len(remoteItems))
	for i := range remoteItems {
		remoteItem := remoteItems[i]
		remoteIDs[remoteItem.ID] = true

		local, ok := localByID[remoteItem.ID]
		if !ok {
			_, err := s.items.Insert(&remoteItem)
			record(err)
			continue
		}
		if remoteItem.UpdatedAt.After(local.UpdatedAt) {
			record(s.items.Update(&remoteItem))
		}
	}

	for _, local := range localItems {
		if !remoteIDs[local.ID] {
			record(s.items.Delete(local.ID))
		}
	}
	return firstErr
}

func (s *SyncService) pullOrders(ctx context.Context) error {
	remoteOrders, err := s.remote.FetchOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch remote orders: %w", err)
	}

	localOrders, err := s.orders.GetAll()
	if err != nil {
		log.Printf("Failed to read local orders, continuing with empty set: %v", err)
		localOrders = nil
	}
	localByID := make(map[uint]models.Order, len(localOrders))
	for _, order := range localOrders {
		localByID[order.ID] = order
	}

	var firstErr error
	record := func(err error) {
		if err != nil {
			log.Printf("Pull orders: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	pending := s.pendingDeletes()

	remoteIDs := make(map[uint]bool, len(remoteOrders))
	for i := range remoteOrders {
		remoteOrder := remoteOrders[i]
		remoteIDs[remoteOrder.ID] = true

		// A user-deleted order awaiting its upstream delete must not come back.
		if pending[remoteOrder.ID] {
			continue
		}

		local, ok := localByID[remoteOrder.ID]
		if !ok {
			_, err := s.orders.Insert(&remoteOrder)
			record(err)
			continue
		}
		if remoteOrder.UpdatedAt.After(local.UpdatedAt) {
			record(s.orders.Update(&remoteOrder))
		}
	}

	for _, local := range localOrders {
		if !remoteIDs[local.ID] {
			record(s.orders.Delete(local.ID))
		}
	}
	return firstErr
}

// pendingDeletes returns the ids of orders deleted by the user whose
// server-side delete has not been confirmed yet.
func (s *SyncService) pendingDeletes() map[uint]bool {
	if s.tombstones == nil {
		return nil
	}
	ids, err := s.tombstones.All()
	if err != nil {
		log.Printf("Failed to read pending order deletes: %v", err)
		return nil
	}
	pending := make(map[uint]bool, len(ids))
	for _, id := range ids {
		pending[id] = true
	}
	return pending
}

// pushItems uploads locally newer or locally new items, each wrapped in the
// retry executor. Remote items absent locally are deleted upstream, but only
// for a manager session. Per-record failures are recorded, not fatal.
func (s *SyncService) pushItems(ctx context.Context) error {
	remoteItems, err := s.remote.FetchItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch remote items: %w", err)
	}
	localItems, err := s.items.GetAll()
	if err != nil {
		log.Printf("Failed to read local items, continuing with empty set: %v", err)
		localItems = nil
	}

	remoteByID := make(map[uint]models.Item, len(remoteItems))
	for _, item := range remoteItems {
		remoteByID[item.ID] = item
	}
	localIDs := make(map[uint]bool, len(localItems))
	for _, item := range localItems {
		localIDs[item.ID] = true
	}

	var g errgroup.Group
	for i := range localItems {
		local := localItems[i]
		remoteItem, exists := remoteByID[local.ID]

		switch {
		case !exists:
			g.Go(func() error {
				err := s.retrier.Do(ctx, func(ctx context.Context) error {
					_, err := s.remote.CreateItem(ctx, &local)
					return err
				})
				if err != nil {
					return fmt.Errorf("failed to push item %d: %w", local.ID, err)
				}
				return nil
			})
		case local.UpdatedAt.After(remoteItem.UpdatedAt):
			g.Go(func() error {
				err := s.retrier.Do(ctx, func(ctx context.Context) error {
					_, err := s.remote.UpdateItem(ctx, &local)
					return err
				})
				if err != nil {
					return fmt.Errorf("failed to push item %d: %w", local.ID, err)
				}
				return nil
			})
		}
	}

	if s.identity != nil && s.identity.IsManager() {
		for i := range remoteItems {
			remoteItem := remoteItems[i]
			if localIDs[remoteItem.ID] {
				continue
			}
			g.Go(func() error {
				err := s.retrier.Do(ctx, func(ctx context.Context) error {
					return s.remote.DeleteItem(ctx, remoteItem.ID)
				})
				if err != nil {
					return fmt.Errorf("failed to delete remote item %d: %w", remoteItem.ID, err)
				}
				return nil
			})
		}
	}

	return g.Wait()
}

// pushOrders uploads locally newer or locally new orders via the server's
// upsert-by-id create, then finishes any user-initiated deletes still marked
// pending. Reconciliation itself never deletes a remote order.
func (s *SyncService) pushOrders(ctx context.Context) error {
	remoteOrders, err := s.remote.FetchOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch remote orders: %w", err)
	}
	localOrders, err := s.orders.GetAll()
	if err != nil {
		log.Printf("Failed to read local orders, continuing with empty set: %v", err)
		localOrders = nil
	}

	remoteByID := make(map[uint]models.Order, len(remoteOrders))
	for _, order := range remoteOrders {
		remoteByID[order.ID] = order
	}

	var g errgroup.Group
	for i := range localOrders {
		local := localOrders[i]
		remoteOrder, exists := remoteByID[local.ID]
		if exists && !local.UpdatedAt.After(remoteOrder.UpdatedAt) {
			continue
		}
		g.Go(func() error {
			err := s.retrier.Do(ctx, func(ctx context.Context) error {
				_, err := s.remote.CreateOrder(ctx, &local)
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to push order %d: %w", local.ID, err)
			}
			return nil
		})
	}

	if s.tombstones != nil {
		pendingIDs, err := s.tombstones.All()
		if err != nil {
			log.Printf("Failed to read pending order deletes: %v", err)
			pendingIDs = nil
		}
		for _, id := range pendingIDs {
			id := id
			if _, exists := remoteByID[id]; !exists {
				// Already gone upstream, nothing left to do but clear the marker.
				if err := s.tombstones.Remove(id); err != nil {
					log.Printf("Failed to clear delete marker for order %d: %v", id, err)
				}
				continue
			}
			g.Go(func() error {
				err := s.retrier.Do(ctx, func(ctx context.Context) error {
					return s.remote.DeleteOrder(ctx, id)
				})
				if err != nil {
					return fmt.Errorf("failed to delete remote order %d: %w", id, err)
				}
				return s.tombstones.Remove(id)
			})
		}
	}

	return g.Wait()
}
