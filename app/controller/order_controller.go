package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"boulangerie/logging"
	"boulangerie/models"
	"boulangerie/repository"
	"boulangerie/service"
)

// OrderController handles HTTP requests for orders
type OrderController struct {
	repository    repository.OrderRepositoryInterface
	checkout      *service.CheckoutService
	notifications *service.NotificationCenter
}

// NewOrderController creates a new OrderController
func NewOrderController(
	repo repository.OrderRepositoryInterface,
	checkout *service.CheckoutService,
	notifications *service.NotificationCenter,
) *OrderController {
	return &OrderController{
		repository:    repo,
		checkout:      checkout,
		notifications: notifications,
	}
}

// CreateOrder handles POST /api/orders
// Example request:
//
//	{
//	  "lines": [{"productId": "5f0c...", "name": "Baguette", "price": 1.20, "quantity": 2}],
//	  "totalPrice": 5.90,
//	  "customer": {"name": "Marie", "phone": "0601020304", "address": "3 rue du Four"}
//	}
func (c *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 CreateOrder: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "CreateOrder")
		return
	}

	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.L().Warnf("❌ CreateOrder: Failed to decode request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	order, err := c.checkout.CreateOrder(r.Context(), &req)
	switch {
	case errors.Is(err, service.ErrInvalidOrder), errors.Is(err, service.ErrMissingCustomer):
		logging.L().Warnf("❌ CreateOrder: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid order", err)
		return
	case err != nil:
		logging.L().Errorf("❌ CreateOrder: Error creating order: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create order", err)
		return
	}

	logging.L().Infof("✅ CreateOrder: Successfully created order id=%s", order.ID)
	writeJSON(w, http.StatusCreated, order)
}

func (c *OrderController) getOrder(w http.ResponseWriter, r *http.Request, prefix string) {
	id := pathID(r.URL.Path, prefix)
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid order id", nil)
		return
	}

	order, err := c.repository.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	if err != nil {
		logging.L().Errorf("❌ GetOrder: Error fetching %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to get order", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// GetOrder handles GET /api/orders/{id}
func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 GetOrder: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GetOrder")
		return
	}
	c.getOrder(w, r, "/api/orders/")
}

// Orders handles GET /admin/orders (newest first) and DELETE /admin/orders
func (c *OrderController) Orders(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 Orders: Received %s request to %s", r.Method, r.URL.Path)

	switch r.Method {
	case http.MethodGet:
		orders, err := c.repository.List(r.Context())
		if err != nil {
			logging.L().Errorf("❌ ListOrders: Error listing orders: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	case http.MethodDelete:
		count, err := c.repository.DeleteAll(r.Context())
		if err != nil {
			logging.L().Errorf("❌ DeleteOrders: Error deleting orders: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete orders", err)
			return
		}
		c.notifications.Reset()
		logging.L().Infof("✅ DeleteOrders: Deleted %d orders", count)
		writeJSON(w, http.StatusOK, models.DeleteOrdersResponse{Message: "Orders deleted", Count: count})
	default:
		methodNotAllowed(w, r, "Orders")
	}
}

// Order handles GET, PUT and DELETE /admin/orders/{id}
// PUT body: {"status": "confirmed", "comment": "Prête à 17h"}
func (c *OrderController) Order(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 Order: Received %s request to %s", r.Method, r.URL.Path)

	switch r.Method {
	case http.MethodGet:
		c.getOrder(w, r, "/admin/orders/")
	case http.MethodPut, http.MethodPatch:
		c.updateStatus(w, r)
	case http.MethodDelete:
		c.deleteOrder(w, r)
	default:
		methodNotAllowed(w, r, "Order")
	}
}

func (c *OrderController) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/admin/orders/")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid order id", nil)
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.Status = strings.TrimSpace(req.Status)
	if !models.ValidOrderStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Invalid status", nil)
		return
	}

	order, err := c.repository.UpdateStatus(r.Context(), id, req.Status, strings.TrimSpace(req.Comment))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	if err != nil {
		logging.L().Errorf("❌ UpdateOrderStatus: Error updating %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to update order", err)
		return
	}

	logging.L().Infof("✅ UpdateOrderStatus: order %s is now %s", id, order.Status)
	writeJSON(w, http.StatusOK, order)
}

func (c *OrderController) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/admin/orders/")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid order id", nil)
		return
	}

	err := c.repository.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	if err != nil {
		logging.L().Errorf("❌ DeleteOrder: Error deleting %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete order", err)
		return
	}

	c.notifications.Forget(id)
	logging.L().Infof("✅ DeleteOrder: Successfully deleted order id=%s", id)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Order deleted"})
}

// NewOrders handles GET /admin/orders/new: orders of the last 24 hours, at most 10
func (c *OrderController) NewOrders(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 NewOrders: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "NewOrders")
		return
	}

	orders, err := c.notifications.NewOrders(r.Context())
	if err != nil {
		logging.L().Errorf("❌ NewOrders: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list new orders", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewOrdersResponse{Orders: orders, Count: len(orders)})
}

// NewOrderWebhook handles POST /api/webhooks/new-order
// Example request: {"orderId": "5f0c..."}
func (c *OrderController) NewOrderWebhook(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 NewOrderWebhook: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "NewOrderWebhook")
		return
	}

	var req models.WebhookNewOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "Missing order id", nil)
		return
	}
	if !validID(req.OrderID) {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}

	order, err := c.repository.GetByID(r.Context(), req.OrderID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	if err != nil {
		logging.L().Errorf("❌ NewOrderWebhook: Error fetching %s: %v", req.OrderID, err)
		writeError(w, http.StatusInternalServerError, "Failed to process webhook", err)
		return
	}

	c.notifications.Push(*order)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Notification received"})
}
