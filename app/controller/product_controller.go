package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"boulangerie/logging"
	"boulangerie/models"
	"boulangerie/pricing"
	"boulangerie/repository"
	"boulangerie/service"
)

// ProductController handles HTTP requests for the catalog
type ProductController struct {
	repository repository.ProductRepositoryInterface
	images     *service.ImageService
}

// NewProductController creates a new ProductController
func NewProductController(repo repository.ProductRepositoryInterface, images *service.ImageService) *ProductController {
	return &ProductController{
		repository: repo,
		images:     images,
	}
}

// parseProductFilter reads catalog filters from the query string
func parseProductFilter(q url.Values) (models.ProductFilter, error) {
	var filter models.ProductFilter

	if v := strings.TrimSpace(q.Get("search")); v != "" {
		filter.Search = &v
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		filter.Category = &v
	}
	for name, dst := range map[string]**decimal.Decimal{"minPrice": &filter.MinPrice, "maxPrice": &filter.MaxPrice} {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, fmt.Errorf("%s must be a number", name)
		}
		*dst = &d
	}
	for name, dst := range map[string]**bool{"promotion": &filter.Promotion, "available": &filter.Available} {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("%s must be true or false", name)
		}
		*dst = &b
	}

	switch sort := q.Get("sort"); sort {
	case "", models.SortPriceAsc, models.SortPriceDesc, models.SortAlphabetical, models.SortNewest, models.SortPopular:
		filter.Sort = sort
	default:
		return filter, fmt.Errorf("unknown sort %q", sort)
	}
	return filter, nil
}

func validateProductRequest(req *models.ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(req.Image) == "" {
		return errors.New("image is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return errors.New("description is required")
	}
	if err := pricing.ValidatePromotion(req.Price, req.PromoPrice); err != nil {
		return err
	}
	if req.OnPromotion && req.PromoPrice == nil {
		return errors.New("promoPrice is required when onPromotion is set")
	}
	return nil
}

// ListProducts handles GET /api/products
// Query params: search, category, minPrice, maxPrice, promotion, available,
// sort (price_asc, price_desc, alphabetical, newest, popular)
func (c *ProductController) ListProducts(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 ListProducts: Received %s request to %s", r.Method, r.URL.String())

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "ListProducts")
		return
	}

	filter, err := parseProductFilter(r.URL.Query())
	if err != nil {
		logging.L().Warnf("❌ ListProducts: Invalid filter: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	products, err := c.repository.Filter(r.Context(), filter)
	if err != nil {
		logging.L().Errorf("❌ ListProducts: Error filtering products: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}

	logging.L().Infof("✅ ListProducts: Returning %d products", len(products))
	writeJSON(w, http.StatusOK, products)
}

// ListByCategory handles GET /api/products/category/{category}
func (c *ProductController) ListByCategory(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 ListByCategory: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "ListByCategory")
		return
	}

	category := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/products/category/"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "Category is required", nil)
		return
	}

	products, err := c.repository.ListByCategory(r.Context(), category)
	if err != nil {
		logging.L().Errorf("❌ ListByCategory: Error listing %s: %v", category, err)
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/products/{id}
func (c *ProductController) GetProduct(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 GetProduct: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GetProduct")
		return
	}

	id := pathID(r.URL.Path, "/api/products/")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid product id", nil)
		return
	}

	product, err := c.repository.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	if err != nil {
		logging.L().Errorf("❌ GetProduct: Error fetching %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to get product", err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// GetProductImage handles GET /api/products/{id}/image?size=thumb|medium
// Returns an optimized JPEG
func (c *ProductController) GetProductImage(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 GetProductImage: Received %s request to %s", r.Method, r.URL.String())

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GetProductImage")
		return
	}

	id := pathID(r.URL.Path, "/api/products/")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid product id", nil)
		return
	}

	size := r.URL.Query().Get("size")
	data, err := c.images.ProductImage(r.Context(), id, size)
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrNoImage):
		writeError(w, http.StatusNotFound, "Image not found", err)
		return
	case err != nil:
		logging.L().Errorf("❌ GetProductImage: Error optimizing image for %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to get image", err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.L().Errorf("❌ GetProductImage: Error writing image: %v", err)
	}
}

// CreateProduct handles POST /admin/products
// Example request:
// POST /admin/products
//
//	{
//	  "name": "Baguette Tradition",
//	  "image": "https://cdn.example.com/baguette.jpg",
//	  "price": 1.20,
//	  "description": "Levain naturel, cuite sur sole",
//	  "ingredients": ["Farine de blé", "Eau", "Sel", "Levain"],
//	  "category": "Pains"
//	}
func (c *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 CreateProduct: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "CreateProduct")
		return
	}

	var req models.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.L().Warnf("❌ CreateProduct: Failed to decode request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validateProductRequest(&req); err != nil {
		logging.L().Warnf("❌ CreateProduct: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}

	product, err := c.repository.Create(r.Context(), &req)
	if err != nil {
		logging.L().Errorf("❌ CreateProduct: Error creating product: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create product", err)
		return
	}

	logging.L().Infof("✅ CreateProduct: Successfully created product id=%s", product.ID)
	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /admin/products/{id}
func (c *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 UpdateProduct: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, "UpdateProduct")
		return
	}

	id := pathID(r.URL.Path, "/admin/products/")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid product id", nil)
		return
	}

	var req models.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.L().Warnf("❌ UpdateProduct: Failed to decode request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validateProductRequest(&req); err != nil {
		logging.L().Warnf("❌ UpdateProduct: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}

	product, err := c.repository.Update(r.Context(), id, &req)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	if err != nil {
		logging.L().Errorf("❌ UpdateProduct: Error updating %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to update product", err)
		return
	}

	logging.L().Infof("✅ UpdateProduct: Successfully updated product id=%s", id)
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /admin/products/{id}
func (c *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	logging.L().Infof("📥 DeleteProduct: Received %s request to %s", r.Method, r.URL.Path)

	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, "DeleteProduct")
		return
	}

	id := pathID(r.URL.Path, "/admin/products/")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid product id", nil)
		return
	}

	err := c.repository.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	if err != nil {
		logging.L().Errorf("❌ DeleteProduct: Error deleting %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete product", err)
		return
	}

	logging.L().Infof("✅ DeleteProduct: Successfully deleted product id=%s", id)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Product deleted"})
}
