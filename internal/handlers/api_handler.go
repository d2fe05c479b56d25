package handlers

import (
	"errors"
	"net/http"
	"pos_sync/internal/connectivity"
	"pos_sync/internal/models"
	"pos_sync/internal/repository"
	"pos_sync/internal/services"
	"strconv"

	"github.com/gin-gonic/gin"
)

// APIHandler is the local control surface the app shell talks to: catalog and
// order operations, manual sync triggers and the connectivity signal.
type APIHandler struct {
	itemService  services.ItemService
	orderService services.OrderService
	syncService  *services.SyncService
	monitor      *connectivity.Monitor
}

func NewAPIHandler(
	itemService services.ItemService,
	orderService services.OrderService,
	syncService *services.SyncService,
	monitor *connectivity.Monitor,
) *APIHandler {
	return &APIHandler{
		itemService:  itemService,
		orderService: orderService,
		syncService:  syncService,
		monitor:      monitor,
	}
}

// Sync endpoints

// Download runs only the pull direction. If a pass is already in flight the
// call is a no-op and the current status is returned.
func (h *APIHandler) Download(c *gin.Context) {
	if err := h.syncService.Pull(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": h.syncService.Status()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.syncService.Status()})
}

// Upload runs only the push direction.
func (h *APIHandler) Upload(c *gin.Context) {
	if err := h.syncService.Push(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": h.syncService.Status()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.syncService.Status()})
}

func (h *APIHandler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncService.Status())
}

func (h *APIHandler) SetConnectivity(c *gin.Context) {
	var req struct {
		Online bool `json:"online"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	h.monitor.Set(req.Online)
	c.JSON(http.StatusOK, gin.H{"online": req.Online})
}

// Catalog endpoints

func (h *APIHandler) ListItems(c *gin.Context) {
	items, err := h.itemService.GetAllItems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *APIHandler) ListCategories(c *gin.Context) {
	categories, err := h.itemService.Categories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *APIHandler) CreateItem(c *gin.Context) {
	var item models.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	created, err := h.itemService.AddItem(&item)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *APIHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var item models.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	item.ID = id
	if err := h.itemService.UpdateItem(&item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *APIHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.itemService.RemoveItem(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "deleted"})
}

// Order endpoints

func (h *APIHandler) ListOrders(c *gin.Context) {
	if user := c.Query("user"); user != "" {
		orders, err := h.orderService.UserOrders(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
		return
	}
	orders, err := h.orderService.GetAllOrders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *APIHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *APIHandler) CreateOrder(c *gin.Context) {
	var order models.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	created, err := h.orderService.AddOrder(&order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *APIHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "deleted"})
}

func (h *APIHandler) AddItemToOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var item models.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if err := h.orderService.AddItemToOrder(id, item); err != nil {
		h.orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "status": "updated"})
}

func (h *APIHandler) RemoveItemFromOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}
	if err := h.orderService.RemoveItemFromOrder(id, itemID); err != nil {
		h.orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "item_id": itemID, "status": "updated"})
}

func (h *APIHandler) MarkOrderAsPaid(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.MarkOrderAsPaid(id); err != nil {
		h.orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "paid": true})
}

func (h *APIHandler) orderError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context, param string) (uint, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
