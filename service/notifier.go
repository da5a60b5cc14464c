package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"boulangerie/logging"
	"boulangerie/models"
	"boulangerie/utils"
)

// Notifier announces newly placed orders
type Notifier interface {
	NotifyNewOrder(ctx context.Context, order *models.Order) error
}

// FormatOrderMessage renders the shop-side message for a new order
func FormatOrderMessage(order *models.Order) string {
	var b strings.Builder
	b.WriteString("Nouvelle commande !\n\nProduits:\n")
	for _, line := range order.Lines {
		lineTotal := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		fmt.Fprintf(&b, "%dx %s (%s€)\n", line.Quantity, line.Name, utils.FormatAmount(lineTotal))
	}
	fmt.Fprintf(&b, "\nTotal: %s€\n", utils.FormatAmount(order.TotalPrice))
	fmt.Fprintf(&b, "\nClient:\n%s\n%s\n%s\n", order.Customer.Name, order.Customer.Phone, order.Customer.Address)
	if order.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", order.Notes)
	}
	return b.String()
}

// LogNotifier writes the order message to the application log
type LogNotifier struct{}

// NotifyNewOrder logs the formatted order message
func (LogNotifier) NotifyNewOrder(ctx context.Context, order *models.Order) error {
	logging.L().Infof("🔔 New order %s\n%s", order.ID, FormatOrderMessage(order))
	return nil
}

// MultiNotifier fans an order out to several notifiers
type MultiNotifier []Notifier

// NotifyNewOrder calls every notifier and joins their errors
func (m MultiNotifier) NotifyNewOrder(ctx context.Context, order *models.Order) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyNewOrder(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AMQPNotifier publishes new orders as JSON to a RabbitMQ queue
type AMQPNotifier struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewAMQPNotifier connects to RabbitMQ and declares the order queue
func NewAMQPNotifier(url, queue string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s queue: %w", queue, err)
	}

	logging.L().Infof("✓ Publishing new orders to RabbitMQ queue %s", q.Name)
	return &AMQPNotifier{conn: conn, ch: ch, queue: q.Name}, nil
}

// NotifyNewOrder publishes the order
func (n *AMQPNotifier) NotifyNewOrder(ctx context.Context, order *models.Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order message: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.ch.PublishWithContext(ctx,
		"",
		n.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    order.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish order %s: %w", order.ID, err)
	}
	return nil
}

// Close closes the channel and the connection
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return errors.Join(n.ch.Close(), n.conn.Close())
}
