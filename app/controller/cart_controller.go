package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"boulangerie/cart"
	"boulangerie/logging"
	"boulangerie/models"
	"boulangerie/repository"
	"boulangerie/service"
)

const (
	// SessionHeader carries the cart session id
	SessionHeader = "X-Cart-Session"
	// SessionCookie carries the cart session id for browsers
	SessionCookie = "cart_session"
)

var errProductUnavailable = errors.New("product is not available")

// CartController handles HTTP requests for the per-session cart
type CartController struct {
	sessions *cart.Sessions
	products repository.ProductRepositoryInterface
	checkout *service.CheckoutService
}

// NewCartController creates a new CartController
func NewCartController(sessions *cart.Sessions, products repository.ProductRepositoryInterface, checkout *service.CheckoutService) *CartController {
	return &CartController{
		sessions: sessions,
		products: products,
		checkout: checkout,
	}
}

// sessionID returns the caller's session id, issuing a new one when missing
func sessionID(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			id = strings.TrimSpace(cookie.Value)
		}
	}
	if !validID(id) {
		id = uuid.NewString()
		logging.L().Debugf("🆕 Issued cart session %s", id)
	}
	w.Header().Set(SessionHeader, id)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func toCartProduct(p *models.Product) cart.Product {
	return cart.Product{
		ID:          p.ID,
		Name:        p.Name,
		Image:       p.Image,
		Category:    p.Category,
		BasePrice:   p.Price,
		PromoPrice:  p.PromoPrice,
		OnPromotion: p.OnPromotion,
	}
}

func cartResponse(session string, state cart.State) models.CartResponse {
	return models.CartResponse{
		SessionID: session,
		ItemCount: state.ItemCount(),
		State:     state,
	}
}

// resolveProduct loads a product from the catalog for the cart
func (c *CartController) resolveProduct(r *http.Request, productID string) (cart.Product, error) {
	if !validID(productID) {
		return cart.Product{}, fmt.Errorf("product %q: %w", productID, repository.ErrNotFound)
	}
	product, err := c.products.GetByID(r.Context(), productID)
	if err != nil {
		return cart.Product{}, err
	}
	if !product.Available {
		return cart.Product{}, errProductUnavailable
	}
	return toCartProduct(product), nil
}

func (c *CartController) writeResolveError(w http.ResponseWriter, handler string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found", nil)
	case errors.Is(err, errProductUnavailable):
		writeError(w, http.StatusBadRequest, "Product unavailable", err)
	default:
		logging.L().Errorf("❌ %s: Error loading product: %v", handler, err)
		writeError(w, http.StatusInternalServerError, "Failed to load product", err)
	}
}

// dispatch applies the action to the session's cart and replies with the new state
func (c *CartController) dispatch(w http.ResponseWriter, r *http.Request, handler, session string, action cart.Action) {
	store, err := c.sessions.Get(r.Context(), session)
	if err != nil {
		logging.L().Errorf("❌ %s: Error loading cart %s: %v", handler, session, err)
		writeError(w, http.StatusInternalServerError, "Failed to load cart", err)
		return
	}

	state, err := store.Dispatch(r.Context(), action)
	if err != nil {
		logging.L().Warnf("⚠️  %s: cart %s updated but not saved: %v", handler, session, err)
	}

	logging.L().Infof("✅ %s: cart %s %s -> %d items, total %s", handler, session, action.Kind(), state.ItemCount(), state.Total.StringFixed(2))
	writeJSON(w, http.StatusOK, cartResponse(session, state))
}

// Cart handles GET /api/cart and DELETE /api/cart
func (c *CartController) Cart(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 Cart: Received %s request to %s", r.Method, r.URL.Path)
	session := sessionID(w, r)

	switch r.Method {
	case http.MethodGet:
		state, err := c.sessions.View(r.Context(), session)
		if err != nil {
			logging.L().Errorf("❌ Cart: Error loading cart %s: %v", session, err)
			writeError(w, http.StatusInternalServerError, "Failed to load cart", err)
			return
		}
		writeJSON(w, http.StatusOK, cartResponse(session, state))
	case http.MethodDelete:
		c.dispatch(w, r, "ClearCart", session, cart.ClearCart{})
	default:
		methodNotAllowed(w, r, "Cart")
	}
}

// AddItem handles POST /api/cart/items
// Example request: {"productId": "5f0c..."}
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 AddItem: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "AddItem")
		return
	}
	session := sessionID(w, r)

	var req models.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !validID(req.ProductID) {
		writeError(w, http.StatusBadRequest, "productId is required", nil)
		return
	}

	product, err := c.resolveProduct(r, req.ProductID)
	if err != nil {
		c.writeResolveError(w, "AddItem", err)
		return
	}
	c.dispatch(w, r, "AddItem", session, cart.AddItem{Product: product})
}

// Item handles PUT and DELETE /api/cart/items/{productId}
// PUT body: {"quantity": 3}; a quantity of 0 or less removes the line
func (c *CartController) Item(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 CartItem: Received %s request to %s", r.Method, r.URL.Path)

	productID := pathID(r.URL.Path, "/api/cart/items/")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "Product id is required", nil)
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		session := sessionID(w, r)
		var req models.SetQuantityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.Quantity == nil {
			writeError(w, http.StatusBadRequest, "quantity is required", nil)
			return
		}
		c.dispatch(w, r, "SetQuantity", session, cart.SetQuantity{ProductID: productID, Quantity: *req.Quantity})
	case http.MethodDelete:
		c.dispatch(w, r, "RemoveItem", sessionID(w, r), cart.RemoveItem{ProductID: productID})
	default:
		methodNotAllowed(w, r, "CartItem")
	}
}

// Actions handles POST /api/cart/actions with a tagged action
// Example request: {"kind": "SetQuantity", "productId": "5f0c...", "quantity": 2}
// AddItem takes a productId and is priced from the catalog. Discounts,
// shipping overrides and snapshot restores are admin operations.
func (c *CartController) Actions(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 CartActions: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "CartActions")
		return
	}
	session := sessionID(w, r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}
	action, err := cart.ParseAction(body)
	if err != nil {
		logging.L().Warnf("❌ CartActions: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid action", err)
		return
	}

	switch a := action.(type) {
	case cart.AddItem:
		product, err := c.resolveProduct(r, a.Product.ID)
		if err != nil {
			c.writeResolveError(w, "CartActions", err)
			return
		}
		action = cart.AddItem{Product: product}
	case cart.RemoveItem, cart.SetQuantity, cart.ClearCart:
	default:
		writeError(w, http.StatusForbidden, "Action reserved to the shop", nil)
		return
	}

	c.dispatch(w, r, "CartActions", session, action)
}

// Checkout handles POST /api/cart/checkout
// Example request:
//
//	{
//	  "customer": {"name": "Marie", "phone": "0601020304", "address": "3 rue du Four"},
//	  "notes": "Sans sésame"
//	}
func (c *CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 Checkout: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "Checkout")
		return
	}
	session := sessionID(w, r)

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	order, err := c.checkout.Checkout(r.Context(), session, &req)
	switch {
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrMissingCustomer):
		writeError(w, http.StatusBadRequest, "Cannot place order", err)
		return
	case err != nil:
		logging.L().Errorf("❌ Checkout: Error placing order for %s: %v", session, err)
		writeError(w, http.StatusInternalServerError, "Failed to place order", err)
		return
	}

	logging.L().Infof("✅ Checkout: order %s placed for cart %s", order.ID, session)
	writeJSON(w, http.StatusCreated, order)
}

// AdminCart handles POST /admin/carts/{session}/discount and
// POST /admin/carts/{session}/shipping with {"amount": 2.50}.
// DELETE /admin/carts/{session} drops the session and its saved cart.
func (c *CartController) AdminCart(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 AdminCart: Received %s request to %s", r.Method, r.URL.Path)

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/admin/carts/"), "/")
	session, operation, _ := strings.Cut(path, "/")
	if !validID(session) {
		writeError(w, http.StatusBadRequest, "Invalid session id", nil)
		return
	}

	switch {
	case r.Method == http.MethodDelete && operation == "":
		if err := c.sessions.Clear(r.Context(), session); err != nil {
			logging.L().Errorf("❌ AdminCart: Error clearing cart %s: %v", session, err)
			writeError(w, http.StatusInternalServerError, "Failed to clear cart", err)
			return
		}
		logging.L().Infof("✅ AdminCart: cart %s cleared", session)
		writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Cart cleared"})
		return
	case r.Method != http.MethodPost:
		methodNotAllowed(w, r, "AdminCart")
		return
	}

	var req models.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount == nil || req.Amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must be a number greater than or equal to 0", nil)
		return
	}

	switch operation {
	case "discount":
		c.dispatch(w, r, "ApplyDiscount", session, cart.ApplyDiscount{Amount: *req.Amount})
	case "shipping":
		c.dispatch(w, r, "SetShippingFee", session, cart.SetShippingFee{Amount: *req.Amount})
	default:
		writeError(w, http.StatusNotFound, "Not found", nil)
	}
}
