package router

import (
	"net/http"
	"strings"

	"boulangerie/app/controller"
	"boulangerie/service"
)

type Controllers struct {
	Product *controller.ProductController
	Cart    *controller.CartController
	Order   *controller.OrderController
	Admin   *controller.AdminController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// SetupRoutes registers every route on mux and returns the CORS-wrapped handler
func SetupRoutes(mux *http.ServeMux, controllers *Controllers, auth *service.AuthService) http.Handler {
	admin := func(h http.HandlerFunc) http.HandlerFunc { return requireAdmin(auth, h) }

	// Ping endpoint
	mux.HandleFunc("/ping", pingHandler)

	// Catalog routes
	mux.HandleFunc("/api/products", controllers.Product.ListProducts)

	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/products/")

		if strings.HasPrefix(path, "category/") {
			controllers.Product.ListByCategory(w, r)
			return
		}
		if strings.HasSuffix(path, "/image") {
			controllers.Product.GetProductImage(w, r)
			return
		}
		if strings.Contains(path, "/") {
			http.NotFound(w, r)
			return
		}
		controllers.Product.GetProduct(w, r)
	})

	// Cart routes
	mux.HandleFunc("/api/cart", controllers.Cart.Cart)
	mux.HandleFunc("/api/cart/items", controllers.Cart.AddItem)
	mux.HandleFunc("/api/cart/items/", controllers.Cart.Item)
	mux.HandleFunc("/api/cart/actions", controllers.Cart.Actions)
	mux.HandleFunc("/api/cart/checkout", controllers.Cart.Checkout)

	// Order routes
	mux.HandleFunc("/api/orders", controllers.Order.CreateOrder)
	mux.HandleFunc("/api/orders/", controllers.Order.GetOrder)
	mux.HandleFunc("/api/webhooks/new-order", controllers.Order.NewOrderWebhook)

	// Admin routes
	mux.HandleFunc("/admin/login", controllers.Admin.Login)

	mux.HandleFunc("/admin/products", admin(controllers.Product.CreateProduct))

	mux.HandleFunc("/admin/products/", admin(func(w http.ResponseWriter, r *http.Request) {
		// Route to appropriate handler based on HTTP method
		switch r.Method {
		case http.MethodPut:
			controllers.Product.UpdateProduct(w, r)
		case http.MethodDelete:
			controllers.Product.DeleteProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.HandleFunc("/admin/orders", admin(controllers.Order.Orders))
	// Orders of the last 24 hours
	mux.HandleFunc("/admin/orders/new", admin(controllers.Order.NewOrders))
	mux.HandleFunc("/admin/orders/", admin(controllers.Order.Order))

	mux.HandleFunc("/admin/notifications", admin(controllers.Admin.Notifications))
	mux.HandleFunc("/admin/notifications/seen", admin(controllers.Admin.MarkNotificationsSeen))

	mux.HandleFunc("/admin/carts/", admin(controllers.Cart.AdminCart))

	mux.HandleFunc("/admin/catalog/render", admin(controllers.Admin.RenderCatalog))
	mux.HandleFunc("/admin/catalog/pdf", admin(controllers.Admin.CatalogPDF))

	return withCORS(mux)
}
