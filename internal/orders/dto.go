package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	"github.com/angelmondragon/seedshop-backend/pkg/pagination"
	"github.com/angelmondragon/seedshop-backend/pkg/types"
)

// OrderDTO is the order payload shared by the account and admin surfaces.
type OrderDTO struct {
	ID               uuid.UUID             `json:"id"`
	UserID           uuid.UUID             `json:"user_id"`
	Status           enums.OrderStatus     `json:"status"`
	Total            decimal.Decimal       `json:"total"`
	ShippingAddress  types.ShippingAddress `json:"shipping_address"`
	Notes            *string               `json:"notes,omitempty"`
	PaymentSessionID *string               `json:"payment_session_id,omitempty"`
	Items            []OrderItemDTO        `json:"items"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// OrderItemDTO exposes the snapshotted line.
type OrderItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    *uuid.UUID      `json:"product_id,omitempty"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// NewOrderDTO maps the persisted order and its preloaded items.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:               order.ID,
		UserID:           order.UserID,
		Status:           order.Status,
		Total:            order.Total,
		ShippingAddress:  order.ShippingAddress,
		Notes:            order.Notes,
		PaymentSessionID: order.PaymentSessionID,
		Items:            make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
			Subtotal:     item.Subtotal(),
		})
	}
	return dto
}

func newOrderDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewOrderDTO(&rows[i]))
	}
	return out
}

// OrderList is one page of the admin listing.
type OrderList = pagination.Page[OrderDTO]
