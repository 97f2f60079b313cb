package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	"github.com/angelmondragon/seedshop-backend/pkg/types"
)

// Order is the durable record created by checkout.
type Order struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	Total            decimal.Decimal       `gorm:"column:total;type:numeric(10,2);not null"`
	ShippingAddress  types.ShippingAddress `gorm:"column:shipping_address;type:jsonb"`
	Notes            *string               `gorm:"column:notes"`
	PaymentSessionID *string               `gorm:"column:payment_session_id;index"`
	Items            []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	return nil
}

// ItemsTotal sums the snapshotted item prices.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}
