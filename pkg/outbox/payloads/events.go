package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/seedshop-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout inserts a pending order.
type OrderCreatedEvent struct {
	OrderID   uuid.UUID       `json:"order_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// OrderPaidEvent is emitted once when an order moves from pending to paid.
type OrderPaidEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Total         decimal.Decimal `json:"total"`
	SessionID     string          `json:"session_id"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	PaidAt        time.Time       `json:"paid_at"`
}

// OrderCanceledEvent is emitted when checkout compensation or a payment
// expiry cancels an order and releases its stock.
type OrderCanceledEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	Reason        string    `json:"reason"`
	StockReleased bool      `json:"stock_released"`
	CanceledAt    time.Time `json:"canceled_at"`
}

// OrderStateChangedEvent records an administrative status change.
type OrderStateChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// OrderExpiredEvent is emitted by the cron job for stale pending orders.
type OrderExpiredEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiredAt time.Time `json:"expired_at"`
}
