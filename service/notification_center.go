package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"boulangerie/logging"
	"boulangerie/models"
	"boulangerie/repository"
)

const (
	newOrdersWindow = 24 * time.Hour
	newOrdersLimit  = 10
	maxRecentOrders = 10
)

// NotificationCenter watches for new orders and keeps the admin badge state
type NotificationCenter struct {
	orders   repository.OrderRepositoryInterface
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	seen   map[string]bool
	unread int
	latest *models.Order
	recent []models.Order
}

// NewNotificationCenter creates a NotificationCenter polling every interval
func NewNotificationCenter(orders repository.OrderRepositoryInterface, interval time.Duration) *NotificationCenter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &NotificationCenter{
		orders:   orders,
		interval: interval,
		now:      time.Now,
		seen:     make(map[string]bool),
		recent:   []models.Order{},
	}
}

// NewOrders returns the orders created in the last 24 hours, newest first
func (c *NotificationCenter) NewOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := c.orders.ListSince(ctx, c.now().Add(-newOrdersWindow), newOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list new orders: %w", err)
	}
	return orders, nil
}

// Poll fetches recent orders and records the ones not seen before.
// It returns how many orders were new.
func (c *NotificationCenter) Poll(ctx context.Context) (int, error) {
	orders, err := c.NewOrders(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	// oldest first so the newest ends up at the head of recent
	for i := len(orders) - 1; i >= 0; i-- {
		if c.record(orders[i]) {
			added++
		}
	}
	if added > 0 {
		logging.L().Infof("🔔 %d new order(s), %d unread", added, c.unread)
	}
	return added, nil
}

// Push records an order created in this process
func (c *NotificationCenter) Push(order models.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(order)
}

func (c *NotificationCenter) record(order models.Order) bool {
	if c.seen[order.ID] {
		return false
	}
	c.seen[order.ID] = true
	c.unread++
	latest := order
	c.latest = &latest
	c.recent = append([]models.Order{order}, c.recent...)
	if len(c.recent) > maxRecentOrders {
		c.recent = c.recent[:maxRecentOrders]
	}
	return true
}

// MarkSeen resets the unread counter
func (c *NotificationCenter) MarkSeen() {
	c.mu.Lock()
	c.unread = 0
	c.mu.Unlock()
}

// Forget drops a deleted order from the recent list
func (c *NotificationCenter) Forget(orderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]models.Order, 0, len(c.recent))
	for _, o := range c.recent {
		if o.ID != orderID {
			kept = append(kept, o)
		}
	}
	c.recent = kept
	if c.latest != nil && c.latest.ID == orderID {
		c.latest = nil
	}
}

// Reset clears all notification state
func (c *NotificationCenter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seen = make(map[string]bool)
	c.unread = 0
	c.latest = nil
	c.recent = []models.Order{}
}

// Summary returns a copy of the current notification state
func (c *NotificationCenter) Summary() models.NotificationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := models.NotificationSummary{
		Unread: c.unread,
		Recent: append([]models.Order{}, c.recent...),
	}
	if c.latest != nil {
		latest := *c.latest
		summary.Latest = &latest
	}
	return summary
}

// Run polls until ctx is done
func (c *NotificationCenter) Run(ctx context.Context) {
	logging.L().Infof("🔔 Watching for new orders every %s", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if _, err := c.Poll(ctx); err != nil && ctx.Err() == nil {
			logging.L().Warnf("⚠️  Failed to check for new orders: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
