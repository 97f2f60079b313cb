package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/seedshop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines order reads and lifecycle transitions.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	AdminList(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	MarkPaid(ctx context.Context, input MarkPaidInput) (*models.Order, bool, error)
	Cancel(ctx context.Context, input CancelInput) (bool, error)
}

// UpdateStatusInput is an administrative status change.
type UpdateStatusInput struct {
	OrderID     uuid.UUID
	Status      enums.OrderStatus
	ActorUserID uuid.UUID
	ActorRole   string
}

// MarkPaidInput identifies the order confirmed by the payment gateway.
type MarkPaidInput struct {
	OrderID       uuid.UUID
	SessionID     string
	CustomerEmail string
	Actor         *outbox.ActorRef
}

// CancelInput describes a cancellation of a pending order.
type CancelInput struct {
	OrderID      uuid.UUID
	Reason       string
	ReleaseStock bool
	// Expired emits order_expired instead of order_canceled.
	Expired bool
	Actor   *outbox.ActorRef
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory InventoryReleaser
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, inventory InventoryReleaser, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outbox,
		inventory: inventory,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderDTOs(rows), nil
}

// GetForUser hides orders owned by someone else behind NOT_FOUND.
func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error) {
	rows, err := s.repo.List(ctx, params, filters)
	if err != nil {
		if _, cursorErr := pagination.ParseCursor(params.Cursor); cursorErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.BuildPage(newOrderDTOs(rows), params.Limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

// UpdateStatus sets any valid status from any status. Each change emits
// order_state_changed; setting the current status again is a no-op.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			return mapLoadError(err)
		}
		from := order.Status
		if from == input.Status {
			updated = order
			return nil
		}
		if err := txRepo.UpdateStatus(ctx, order.ID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.Status

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStateChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.UserActor(input.ActorUserID, input.ActorRole),
			Data: payloads.OrderStateChangedEvent{
				OrderID: order.ID,
				From:    from,
				To:      input.Status,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order state changed")
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, updated.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "status", updated.Status), "order status updated")
	}
	dto := NewOrderDTO(updated)
	return &dto, nil
}

// MarkPaid moves a pending order to paid and emits order_paid. The bool is
// false when the order was already past pending, in which case nothing is
// written.
func (s *service) MarkPaid(ctx context.Context, input MarkPaidInput) (*models.Order, bool, error) {
	var (
		order   *models.Order
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		var err error
		changed, err = txRepo.TransitionStatus(ctx, input.OrderID, enums.OrderStatusPending, enums.OrderStatusPaid)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		order, err = txRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			return mapLoadError(err)
		}
		if !changed {
			return nil
		}
		if order.PaymentSessionID == nil && input.SessionID != "" {
			if err := txRepo.SetPaymentSession(ctx, order.ID, input.SessionID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment session")
			}
			order.PaymentSessionID = &input.SessionID
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderPaidEvent{
				OrderID:       order.ID,
				UserID:        order.UserID,
				Total:         order.Total,
				SessionID:     input.SessionID,
				CustomerEmail: input.CustomerEmail,
				PaidAt:        s.now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order paid")
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return order, changed, nil
}

// Cancel moves a pending order to cancelled, optionally releasing the stock
// held by its items. Orders past pending are left alone and false is returned.
func (s *service) Cancel(ctx context.Context, input CancelInput) (bool, error) {
	var changed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		var err error
		changed, err = txRepo.TransitionStatus(ctx, input.OrderID, enums.OrderStatusPending, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !changed {
			return nil
		}
		order, err := txRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			return mapLoadError(err)
		}
		if input.ReleaseStock {
			for _, item := range order.Items {
				if item.ProductID == nil {
					continue
				}
				if err := s.inventory.Release(ctx, tx, *item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
				}
			}
		}
		return s.outbox.Emit(ctx, tx, s.cancelEvent(order, input))
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (s *service) cancelEvent(order *models.Order, input CancelInput) outbox.DomainEvent {
	now := s.now().UTC()
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCanceled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         input.Actor,
		Data: payloads.OrderCanceledEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			Reason:        input.Reason,
			StockReleased: input.ReleaseStock,
			CanceledAt:    now,
		},
	}
	if input.Expired {
		event.EventType = enums.EventOrderExpired
		event.Data = payloads.OrderExpiredEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			CreatedAt: order.CreatedAt,
			ExpiredAt: now,
		}
	}
	return event
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
