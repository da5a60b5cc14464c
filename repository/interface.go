package repository

import (
	"context"
	"errors"
	"time"

	"boulangerie/models"
)

// ErrNotFound is returned when a product or order does not exist
var ErrNotFound = errors.New("not found")

// ProductRepositoryInterface defines the contract for product persistence
type ProductRepositoryInterface interface {
	Create(ctx context.Context, req *models.ProductRequest) (*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	Filter(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
}

// OrderRepositoryInterface defines the contract for order persistence
type OrderRepositoryInterface interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status string, comment string) (*models.Order, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]models.Order, error)
}
