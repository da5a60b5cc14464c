// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"boulangerie/models"
	"boulangerie/pricing"
	"boulangerie/repository"
)

// Products is an in-memory ProductRepositoryInterface
type Products struct {
	mu    sync.Mutex
	items map[string]models.Product
	Err   error
}

var _ repository.ProductRepositoryInterface = (*Products)(nil)

// NewProducts returns a repository seeded with products
func NewProducts(seed ...models.Product) *Products {
	p := &Products{items: make(map[string]models.Product)}
	for _, s := range seed {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		p.items[s.ID] = s
	}
	return p
}

func fromRequest(id string, req *models.ProductRequest, created time.Time) models.Product {
	category := req.Category
	if category == "" {
		category = models.DefaultCategory
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return models.Product{
		ID: id, Name: req.Name, Image: req.Image, Images: req.Images, Price: req.Price,
		Description: req.Description, Ingredients: req.Ingredients, Category: category,
		OnPromotion: req.OnPromotion, PromoPrice: req.PromoPrice, Featured: req.Featured,
		Available: available, CreatedAt: created, UpdatedAt: time.Now(),
	}
}

func (r *Products) Create(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := fromRequest(uuid.NewString(), req, time.Now())
	r.items[p.ID] = p
	return &p, nil
}

func (r *Products) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (r *Products) Update(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
	}
	if req.Available == nil {
		req.Available = &old.Available
	}
	p := fromRequest(id, req, old.CreatedAt)
	r.items[id] = p
	return &p, nil
}

func (r *Products) Delete(ctx context.Context, id string) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

func (r *Products) Filter(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Product{}
	for _, p := range r.items {
		price := pricing.EffectiveUnitPrice(p.Price, p.PromoPrice, p.OnPromotion)
		switch {
		case f.Search != nil && *f.Search != "" &&
			!strings.Contains(strings.ToLower(p.Name+" "+p.Description), strings.ToLower(*f.Search)):
			continue
		case f.Category != nil && *f.Category != "" && p.Category != *f.Category:
			continue
		case f.MinPrice != nil && price.LessThan(*f.MinPrice):
			continue
		case f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice):
			continue
		case f.Promotion != nil && *f.Promotion && !p.OnPromotion:
			continue
		case f.Available != nil && p.Available != *f.Available:
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Products) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return r.Filter(ctx, models.ProductFilter{Category: &category, Sort: models.SortAlphabetical})
}

// Orders is an in-memory OrderRepositoryInterface
type Orders struct {
	mu     sync.Mutex
	orders []models.Order
	Now    func() time.Time
	Err    error
}

var _ repository.OrderRepositoryInterface = (*Orders)(nil)

// NewOrders returns an empty order repository
func NewOrders() *Orders {
	return &Orders{Now: time.Now}
}

func (r *Orders) indexOf(id string) int {
	for i, o := range r.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (r *Orders) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if len(order.Lines) == 0 {
		return nil, errors.New("order must contain at least one line")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	o := *order
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = models.StatusPending
	}
	o.CreatedAt = r.Now()
	o.UpdatedAt = o.CreatedAt
	o.History = []models.HistoryEvent{{Status: o.Status, Date: o.CreatedAt, Comment: repository.InitialHistoryComment}}
	r.orders = append(r.orders, o)
	return &o, nil
}

func (r *Orders) GetByID(ctx context.Context, id string) (*models.Order, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("order %s: %w", id, repository.ErrNotFound)
	}
	o := r.orders[i]
	return &o, nil
}

func (r *Orders) newestFirst() []models.Order {
	out := append([]models.Order{}, r.orders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *Orders) List(ctx context.Context) ([]models.Order, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newestFirst(), nil
}

func (r *Orders) UpdateStatus(ctx context.Context, id, status, comment string) (*models.Order, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("order %s: %w", id, repository.ErrNotFound)
	}
	if comment == "" {
		comment = repository.StatusComment(status)
	}
	o := &r.orders[i]
	o.Status = status
	o.UpdatedAt = r.Now()
	o.History = append(o.History, models.HistoryEvent{Status: status, Date: o.UpdatedAt, Comment: comment})
	out := *o
	return &out, nil
}

func (r *Orders) Delete(ctx context.Context, id string) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("order %s: %w", id, repository.ErrNotFound)
	}
	r.orders = append(r.orders[:i], r.orders[i+1:]...)
	return nil
}

func (r *Orders) DeleteAll(ctx context.Context) (int64, error) {
	if r.Err != nil {
		return 0, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.orders))
	r.orders = nil
	return n, nil
}

func (r *Orders) ListSince(ctx context.Context, since time.Time, limit int) ([]models.Order, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.newestFirst() {
		if o.CreatedAt.Before(since) {
			continue
		}
		out = append(out, o)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
