// Package events carries order lifecycle notifications over AMQP.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Type names an order lifecycle event.
type Type string

const (
	OrderCreated  Type = "order.created"
	OrderCanceled Type = "order.canceled"
	OrderPaid     Type = "order.paid"
	OrderShipped  Type = "order.shipped"
)

// Item is one product line of an order event.
type Item struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// Event is the JSON body of every queued message.
type Event struct {
	Type       Type            `json:"type"`
	OrderNo    int64           `json:"orderNo"`
	UserID     uint            `json:"userId"`
	Payment    decimal.Decimal `json:"payment"`
	Items      []Item          `json:"items,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Publisher sends order events to the rest of the system.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event. Used when AMQP_URL is empty.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
