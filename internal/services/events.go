package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// Routing keys of the order events.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
	EventOrderDeleted       = "order.deleted"
)

// EventPublisher sends an encoded event under a routing key.
// pkg/rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderEventItem is an order line as carried in an event.
type OrderEventItem struct {
	ProductID   string          `json:"product_id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
}

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	Type          string             `json:"type"`
	OrderID       string             `json:"order_id"`
	UserID        string             `json:"user_id"`
	Status        models.OrderStatus `json:"status"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	StockReleased bool               `json:"stock_released"`
	Items         []OrderEventItem   `json:"items"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// NewOrderEvent builds the event payload for an order.
func NewOrderEvent(eventType string, order *models.Order) OrderEvent {
	items := make([]OrderEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderEventItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
		})
	}
	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		StockReleased: order.StockReleased,
		Items:         items,
		OccurredAt:    time.Now().UTC(),
	}
}

// DecodeOrderEvent parses an event body received from the broker.
func DecodeOrderEvent(body []byte) (OrderEvent, error) {
	var ev OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return OrderEvent{}, fmt.Errorf("failed to decode order event: %w", err)
	}
	if ev.Type == "" || ev.OrderID == "" {
		return OrderEvent{}, fmt.Errorf("order event is missing type or order id")
	}
	return ev, nil
}

// publishOrderEvent is best-effort: the order change has already committed,
// so a broker failure is logged and never undoes it.
func publishOrderEvent(publisher EventPublisher, eventType string, order *models.Order) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(NewOrderEvent(eventType, order))
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", eventType, order.ID, err)
		return
	}
	if err := publisher.Publish(eventType, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", eventType, order.ID, err)
		return
	}
	log.Printf("Published %s event for order %s", eventType, order.ID)
}
