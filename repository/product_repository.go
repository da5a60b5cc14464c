package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"boulangerie/db"
	"boulangerie/logging"
	"boulangerie/models"
)

const productColumns = `id::text, name, image, images, price, description, ingredients, category,
	on_promotion, promo_price, featured, available, created_at, updated_at`

// ProductRepository handles database operations for products
type ProductRepository struct{}

// NewProductRepository creates a new ProductRepository
func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

// Ensure ProductRepository implements ProductRepositoryInterface
var _ ProductRepositoryInterface = (*ProductRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p           models.Product
		images      []byte
		ingredients []byte
		promo       decimal.NullDecimal
	)
	err := row.Scan(&p.ID, &p.Name, &p.Image, &images, &p.Price, &p.Description, &ingredients,
		&p.Category, &p.OnPromotion, &promo, &p.Featured, &p.Available, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if err := json.Unmarshal(ingredients, &p.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to decode ingredients: %w", err)
	}
	if promo.Valid {
		p.PromoPrice = &promo.Decimal
	}
	return &p, nil
}

func encodeList(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func nullPromo(promo *decimal.Decimal) decimal.NullDecimal {
	if promo == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *promo, Valid: true}
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	logging.L().Infof("📦 CreateProduct: name=%s, category=%s", req.Name, req.Category)

	images, err := encodeList(req.Images)
	if err != nil {
		return nil, err
	}
	ingredients, err := encodeList(req.Ingredients)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	query := `
		INSERT INTO products (id, name, image, images, price, description, ingredients, category,
			on_promotion, promo_price, featured, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + productColumns

	product, err := scanProduct(db.DB.QueryRowContext(ctx, query,
		uuid.New().String(), req.Name, req.Image, images, req.Price, req.Description, ingredients,
		category, req.OnPromotion, nullPromo(req.PromoPrice), req.Featured, available))
	if err != nil {
		logging.L().Errorf("❌ Error creating product: %v", err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logging.L().Infof("✓ Product created: id=%s", product.ID)
	return product, nil
}

// GetByID retrieves a product by id
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(db.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		logging.L().Errorf("❌ Error fetching product %s: %v", id, err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// Update replaces the editable fields of a product
func (r *ProductRepository) Update(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error) {
	logging.L().Infof("📦 UpdateProduct: id=%s", id)

	images, err := encodeList(req.Images)
	if err != nil {
		return nil, err
	}
	ingredients, err := encodeList(req.Ingredients)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	var available sql.NullBool
	if req.Available != nil {
		available = sql.NullBool{Bool: *req.Available, Valid: true}
	}

	query := `
		UPDATE products SET
			name = $2, image = $3, images = $4, price = $5, description = $6, ingredients = $7,
			category = $8, on_promotion = $9, promo_price = $10, featured = $11,
			available = COALESCE($12, available), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	product, err := scanProduct(db.DB.QueryRowContext(ctx, query,
		id, req.Name, req.Image, images, req.Price, req.Description, ingredients,
		category, req.OnPromotion, nullPromo(req.PromoPrice), req.Featured, available))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		logging.L().Errorf("❌ Error updating product %s: %v", id, err)
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := db.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		logging.L().Errorf("❌ Error deleting product %s: %v", id, err)
		return fmt.Errorf("failed to delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	logging.L().Infof("✓ Product deleted: id=%s", id)
	return nil
}

// buildFilterQuery assembles the catalog query for the given filters
func buildFilterQuery(filter models.ProductFilter) (string, []any) {
	query := `SELECT ` + productColumns + ` FROM products`

	var conditions []string
	var args []any
	argIndex := 1

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		argIndex++
	}

	if filter.Category != nil && *filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	// price bounds apply to the effective price
	effectivePrice := "CASE WHEN on_promotion AND promo_price IS NOT NULL THEN promo_price ELSE price END"

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", effectivePrice, argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", effectivePrice, argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	if filter.Promotion != nil && *filter.Promotion {
		conditions = append(conditions, "on_promotion = true")
	}

	if filter.Available != nil {
		conditions = append(conditions, fmt.Sprintf("available = $%d", argIndex))
		args = append(args, *filter.Available)
		argIndex++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch filter.Sort {
	case models.SortPriceAsc:
		query += " ORDER BY " + effectivePrice + " ASC, name ASC"
	case models.SortPriceDesc:
		query += " ORDER BY " + effectivePrice + " DESC, name ASC"
	case models.SortAlphabetical:
		query += " ORDER BY name ASC"
	case models.SortPopular:
		query += " ORDER BY featured DESC, created_at DESC"
	default:
		query += " ORDER BY created_at DESC"
	}

	return query, args
}

// Filter retrieves products matching the provided filters
func (r *ProductRepository) Filter(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query, args := buildFilterQuery(filter)

	rows, err := db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logging.L().Errorf("❌ Error filtering products: %v", err)
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			logging.L().Errorf("❌ Error scanning product: %v", err)
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		logging.L().Errorf("❌ Error iterating products: %v", err)
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	logging.L().Debugf("✓ Filtered %d products with %d args", len(products), len(args))
	return products, nil
}

// ListByCategory retrieves the products of one category, alphabetically
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return r.Filter(ctx, models.ProductFilter{Category: &category, Sort: models.SortAlphabetical})
}
