package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/internal/cart"
	"github.com/angelmondragon/seedshop-backend/internal/orders"
	pkgcheckout "github.com/angelmondragon/seedshop-backend/pkg/checkout"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/seedshop-backend/pkg/stripe"
	"github.com/angelmondragon/seedshop-backend/pkg/types"
)

const (
	stepValidateAddress = "validate_address"
	stepCreateOrder     = "create_order"
	stepInsertItems     = "insert_items"
	stepReserveStock    = "reserve_stock"
	stepPaymentSession  = "payment_session"

	successPath = "/checkout/sucesso"
	cancelPath  = "/carrinho"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartLoader interface {
	Load(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type inventory interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type orderCanceller interface {
	Cancel(ctx context.Context, input orders.CancelInput) (bool, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input stripe.CheckoutSessionInput) (*stripe.CheckoutSession, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*Result, error)
}

// CheckoutInput is the authenticated request to pay for the current cart.
type CheckoutInput struct {
	UserID    uuid.UUID
	Email     string
	ActorRole string
	Address   types.ShippingAddress
	Notes     *string
}

// Result is returned after the payment session is opened; the client
// redirects to CheckoutURL.
type Result struct {
	Order       orders.OrderDTO `json:"order"`
	CheckoutURL string          `json:"checkout_url"`
	SessionID   string          `json:"session_id"`
}

// Config tunes the orchestration.
type Config struct {
	FrontendURL string
	// CompensateOnPaymentFailure cancels the order and restores stock when the
	// payment session cannot be created. When false the order stays pending
	// until the expiry job releases it.
	CompensateOnPaymentFailure bool
}

// ServiceParams groups the checkout dependencies.
type ServiceParams struct {
	Config    Config
	Tx        txRunner
	Carts     cartLoader
	Orders    orders.Repository
	Canceller orderCanceller
	Inventory inventory
	Outbox    outboxPublisher
	Payments  paymentGateway
	Logger    *logger.Logger
	Metrics   stepObserver
}

type service struct {
	cfg       Config
	tx        txRunner
	carts     cartLoader
	orders    orders.Repository
	canceller orderCanceller
	inventory inventory
	outbox    outboxPublisher
	payments  paymentGateway
	logg      *logger.Logger
	metrics   stepObserver
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart loader required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Canceller == nil:
		return nil, fmt.Errorf("order canceller required")
	case params.Inventory == nil:
		return nil, fmt.Errorf("inventory required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Payments == nil:
		return nil, fmt.Errorf("payment gateway required")
	case strings.TrimSpace(params.Config.FrontendURL) == "":
		return nil, fmt.Errorf("frontend url required")
	}
	return &service{
		cfg:       params.Config,
		tx:        params.Tx,
		carts:     params.Carts,
		orders:    params.Orders,
		canceller: params.Canceller,
		inventory: params.Inventory,
		outbox:    params.Outbox,
		payments:  params.Payments,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// run carries the state shared between saga steps of one checkout.
type run struct {
	input    CheckoutInput
	cart     *cart.Cart
	address  types.ShippingAddress
	order    *models.Order
	reserved []models.OrderItem
	session  *stripe.CheckoutSession
}

func (s *service) Execute(ctx context.Context, input CheckoutInput) (*Result, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	c, err := s.carts.Load(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	if s.logg != nil {
		ctx = s.logg.WithUserID(ctx, input.UserID.String())
	}

	r := &run{input: input, cart: c}
	saga := NewSaga(s.logg, s.metrics).
		Add(Step{Name: stepValidateAddress, Do: r.validateAddress}).
		Add(Step{Name: stepCreateOrder, Do: s.createOrder(r), Undo: s.cancelOrder(r)}).
		Add(Step{Name: stepInsertItems, Do: s.insertItems(r)}).
		Add(Step{Name: stepReserveStock, Do: s.reserveStock(r), Undo: s.releaseStock(r)}).
		Add(Step{Name: stepPaymentSession, Do: s.openSession(r), NoRollback: !s.cfg.CompensateOnPaymentFailure})

	if err := saga.Run(ctx); err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, input.UserID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart not cleared after checkout")
	}

	order, err := s.orders.FindByID(ctx, r.order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithSessionID(logCtx, r.session.ID), "checkout session opened")
	}
	return &Result{
		Order:       orders.NewOrderDTO(order),
		CheckoutURL: r.session.URL,
		SessionID:   r.session.ID,
	}, nil
}

func (r *run) validateAddress(context.Context) error {
	addr, err := pkgcheckout.ValidateShippingAddress(r.input.Address)
	if err != nil {
		return err
	}
	r.address = addr
	return nil
}

func (s *service) createOrder(r *run) func(context.Context) error {
	return func(ctx context.Context) error {
		order := &models.Order{
			UserID:          r.input.UserID,
			Status:          enums.OrderStatusPending,
			Total:           r.cart.Total(),
			ShippingAddress: r.address,
			Notes:           r.input.Notes,
		}
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.orders.WithTx(tx).CreateOrder(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         outbox.UserActor(r.input.UserID, r.input.ActorRole),
				Data: payloads.OrderCreatedEvent{
					OrderID:   order.ID,
					UserID:    order.UserID,
					Total:     order.Total,
					ItemCount: r.cart.ItemCount(),
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
			}
			return nil
		})
		if err != nil {
			return err
		}
		r.order = order
		return nil
	}
}

func (s *service) cancelOrder(r *run) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.canceller.Cancel(ctx, orders.CancelInput{
			OrderID: r.order.ID,
			Reason:  "checkout_failed",
			Actor:   outbox.SystemActor("checkout"),
		})
		return err
	}
}

func (s *service) insertItems(r *run) func(context.Context) error {
	return func(ctx context.Context) error {
		items := make([]models.OrderItem, 0, len(r.cart.Items))
		for _, line := range r.cart.Items {
			productID := line.ProductID
			items = append(items, models.OrderItem{
				OrderID:      r.order.ID,
				ProductID:    &productID,
				ProductName:  lineName(line),
				ProductPrice: line.Price,
				Quantity:     line.Quantity,
			})
		}
		if err := s.orders.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order items")
		}
		r.order.Items = items
		return nil
	}
}

// reserveStock decrements every line inside one transaction, so a guard
// failure rolls back the decrements already applied by this step.
func (s *service) reserveStock(r *run) func(context.Context) error {
	return func(ctx context.Context) error {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			for _, item := range r.order.Items {
				ok, err := s.inventory.Reserve(ctx, tx, *item.ProductID, item.Quantity)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
				}
				if !ok {
					return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").WithDetails(map[string]any{
						"product_id": item.ProductID,
						"name":       item.ProductName,
						"requested":  item.Quantity,
					})
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		r.reserved = r.order.Items
		return nil
	}
}

func (s *service) releaseStock(r *run) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			for _, item := range r.reserved {
				if err := s.inventory.Release(ctx, tx, *item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			return nil
		})
	}
}

func (s *service) openSession(r *run) func(context.Context) error {
	return func(ctx context.Context) error {
		lines := make([]stripe.LineItem, 0, len(r.cart.Items))
		for _, line := range r.cart.Items {
			lines = append(lines, stripe.LineItem{
				Name:      lineName(line),
				UnitPrice: line.Price,
				Image:     line.Image,
				Quantity:  int64(line.Quantity),
			})
		}
		base := strings.TrimRight(s.cfg.FrontendURL, "/")
		session, err := s.payments.CreateCheckoutSession(ctx, stripe.CheckoutSessionInput{
			OrderID:       r.order.ID,
			UserID:        r.input.UserID,
			Items:         lines,
			Address:       r.address,
			CustomerEmail: r.input.Email,
			SuccessURL:    base + successPath + "?session_id=" + stripe.SessionIDPlaceholder,
			CancelURL:     base + cancelPath,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePayment, err, "could not start payment").
				WithDetails(map[string]any{"order_id": r.order.ID})
		}
		if err := s.orders.SetPaymentSession(ctx, r.order.ID, session.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment session")
		}
		r.session = session
		return nil
	}
}

func lineName(line cart.Item) string {
	if line.IsCombo && line.Description != "" {
		return line.Name + " (" + line.Description + ")"
	}
	return line.Name
}
