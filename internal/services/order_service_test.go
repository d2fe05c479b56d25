package services

import (
	"errors"
	"pos_sync/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestOrderService(repo *fakeOrderRepo) OrderService {
	return NewOrderService(repo, newFakeTombstones(), nil, nil, nil)
}

func seedOrder(t *testing.T, repo *fakeOrderRepo, order *models.Order) *models.Order {
	t.Helper()
	created, err := repo.Insert(order)
	require.NoError(t, err)
	return created
}

func espresso() models.Item {
	return models.Item{ID: 9, Name: "Espresso", Price: 10, Category: "coffee"}
}

func TestAddItemToOrderIncrementsExistingLine(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	order := seedOrder(t, repo, &models.Order{
		ID:         1,
		Items:      []models.OrderLine{{Item: espresso(), Quantity: 1}},
		TotalPrice: 10,
	})

	require.NoError(t, svc.AddItemToOrder(order.ID, espresso()))

	got, err := svc.GetOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, 2, got.Items[0].Quantity)
	require.Equal(t, 20.0, got.TotalPrice)
}

func TestAddItemToOrderAppendsNewLine(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	order := seedOrder(t, repo, &models.Order{ID: 1})

	require.NoError(t, svc.AddItemToOrder(order.ID, espresso()))

	got, _ := svc.GetOrder(order.ID)
	require.Len(t, got.Items, 1)
	require.Equal(t, 1, got.Items[0].Quantity)
	require.Equal(t, 10.0, got.TotalPrice)
}

func TestAddItemToOrderReinstatesRemovedLine(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	order := seedOrder(t, repo, &models.Order{
		ID:    1,
		Items: []models.OrderLine{{Item: espresso(), Quantity: 3, Removed: true}},
	})

	require.NoError(t, svc.AddItemToOrder(order.ID, espresso()))

	got, _ := svc.GetOrder(order.ID)
	require.Len(t, got.Items, 1)
	require.False(t, got.Items[0].Removed)
	require.Equal(t, 1, got.Items[0].Quantity, "reinstated line resets to quantity 1")
	require.Equal(t, 10.0, got.TotalPrice)
}

func TestAddItemToOrderUnknownOrder(t *testing.T) {
	svc := newTestOrderService(newFakeOrderRepo())
	err := svc.AddItemToOrder(99, espresso())
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRemoveItemFromOrderSoftDeletes(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	order := seedOrder(t, repo, &models.Order{
		ID:         1,
		Items:      []models.OrderLine{{Item: espresso(), Quantity: 2}},
		TotalPrice: 20,
	})

	require.NoError(t, svc.RemoveItemFromOrder(order.ID, 9))

	got, _ := svc.GetOrder(order.ID)
	require.Len(t, got.Items, 1, "removal never shrinks the line list")
	require.True(t, got.Items[0].Removed)
	require.Equal(t, 0.0, got.TotalPrice)
}

// The example flow: one espresso at 10, add the same item, remove it.
func TestAddThenRemoveScenario(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	order := seedOrder(t, repo, &models.Order{
		ID:         1,
		Items:      []models.OrderLine{{Item: espresso(), Quantity: 1}},
		TotalPrice: 10,
	})

	require.NoError(t, svc.AddItemToOrder(order.ID, espresso()))
	got, _ := svc.GetOrder(order.ID)
	require.Equal(t, 2, got.Items[0].Quantity)
	require.Equal(t, 20.0, got.TotalPrice)

	require.NoError(t, svc.RemoveItemFromOrder(order.ID, 9))
	got, _ = svc.GetOrder(order.ID)
	require.True(t, got.Items[0].Removed)
	require.Equal(t, 0.0, got.TotalPrice)
	require.Len(t, got.Items, 1)
}

func TestTotalTracksActiveLinesOnly(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	tea := models.Item{ID: 5, Name: "Tea", Price: 3}
	order := seedOrder(t, repo, &models.Order{ID: 1})

	require.NoError(t, svc.AddItemToOrder(order.ID, espresso()))
	require.NoError(t, svc.AddItemToOrder(order.ID, tea))
	require.NoError(t, svc.AddItemToOrder(order.ID, tea))
	require.NoError(t, svc.RemoveItemFromOrder(order.ID, espresso().ID))

	got, _ := svc.GetOrder(order.ID)
	require.Equal(t, 6.0, got.TotalPrice)

	sum := 0.0
	for _, line := range got.Items {
		if !line.Removed {
			sum += line.Price * float64(line.Quantity)
		}
	}
	require.Equal(t, sum, got.TotalPrice)
}

func TestPaidOrderMutationsAreNoOps(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	order := seedOrder(t, repo, &models.Order{
		ID:         1,
		Paid:       true,
		Items:      []models.OrderLine{{Item: espresso(), Quantity: 1}},
		TotalPrice: 10,
	})
	writesBefore := repo.writes()

	require.NoError(t, svc.AddItemToOrder(order.ID, espresso()))
	require.NoError(t, svc.RemoveItemFromOrder(order.ID, 9))

	got, _ := svc.GetOrder(order.ID)
	require.Equal(t, 1, got.Items[0].Quantity)
	require.False(t, got.Items[0].Removed)
	require.Equal(t, writesBefore, repo.writes())
}

func TestMarkOrderAsPaidRestampsEveryCall(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	order := seedOrder(t, repo, &models.Order{ID: 1})

	require.NoError(t, svc.MarkOrderAsPaid(order.ID))
	first, _ := svc.GetOrder(order.ID)
	require.True(t, first.Paid)

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, svc.MarkOrderAsPaid(order.ID))
	second, _ := svc.GetOrder(order.ID)
	require.True(t, second.UpdatedAt.After(first.UpdatedAt),
		"marking an already-paid order still advances updatedAt")
}

func TestAddOrderRecomputesTotalAndDefaults(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)

	created, err := svc.AddOrder(&models.Order{
		Items:      []models.OrderLine{{Item: espresso(), Quantity: 3}},
		TotalPrice: 999, // stale caller value is ignored
		User:       "alice",
	})
	require.NoError(t, err)
	require.Equal(t, 30.0, created.TotalPrice)
	require.Equal(t, models.OrderPending, created.Status)
	require.False(t, created.CreatedAt.IsZero())
	require.NotZero(t, created.ID)
}

func TestDeleteOrderRemovesRow(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	order := seedOrder(t, repo, &models.Order{ID: 4, User: "bob"})

	require.NoError(t, svc.DeleteOrder(order.ID))
	got, err := svc.GetOrder(order.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDeleteOrderPropagatesUpstream(t *testing.T) {
	repo := newFakeOrderRepo()
	tombs := newFakeTombstones()
	remote := &fakeRemote{}
	svc := NewOrderService(repo, tombs, remote, fastRetrier(), nil)
	order := seedOrder(t, repo, &models.Order{ID: 5, User: "bob"})

	require.NoError(t, svc.DeleteOrder(order.ID))

	require.Equal(t, []uint{5}, remote.deletedOrders)
	require.False(t, tombs.contains(5), "a confirmed upstream delete clears the marker")
}

func TestDeleteOrderOfflineKeepsMarker(t *testing.T) {
	repo := newFakeOrderRepo()
	tombs := newFakeTombstones()
	remote := &fakeRemote{failDeleteOrder: errors.New("network down")}
	svc := NewOrderService(repo, tombs, remote, fastRetrier(), nil)
	order := seedOrder(t, repo, &models.Order{ID: 5})

	require.NoError(t, svc.DeleteOrder(order.ID), "an unreachable server does not fail the local delete")

	got, err := svc.GetOrder(order.ID)
	require.NoError(t, err)
	require.Nil(t, got)
	require.True(t, tombs.contains(5), "the marker survives so a later push can finish the delete")
}

func TestRemoveItemFromOrderUnknownItemWritesNothing(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	order := seedOrder(t, repo, &models.Order{
		ID:        1,
		Items:     []models.OrderLine{{Item: espresso(), Quantity: 1}},
		UpdatedAt: at(1),
	})
	writesBefore := repo.writes()

	require.NoError(t, svc.RemoveItemFromOrder(order.ID, 77))

	got, _ := svc.GetOrder(order.ID)
	require.Equal(t, at(1), got.UpdatedAt, "no matching line means no re-stamp")
	require.Equal(t, writesBefore, repo.writes())
}

func TestUserOrdersFiltersByCreator(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo)
	seedOrder(t, repo, &models.Order{ID: 1, User: "alice"})
	seedOrder(t, repo, &models.Order{ID: 2, User: "bob"})
	seedOrder(t, repo, &models.Order{ID: 3, User: "alice"})

	orders, err := svc.UserOrders("alice")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, order := range orders {
		require.Equal(t, "alice", order.User)
	}
}
