package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/seedshop-backend/internal/orders"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox"
)

const actorSource = "stripe_webhook"

type orderLifecycle interface {
	MarkPaid(ctx context.Context, input orders.MarkPaidInput) (*models.Order, bool, error)
	Cancel(ctx context.Context, input orders.CancelInput) (bool, error)
}

type sessionLookup interface {
	FindByPaymentSessionID(ctx context.Context, sessionID string) (*models.Order, error)
}

type ServiceParams struct {
	Orders   orderLifecycle
	Sessions sessionLookup
	Logger   *logger.Logger
}

type Service struct {
	orders   orderLifecycle
	sessions sessionLookup
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order session lookup required")
	}
	return &Service{
		orders:   params.Orders,
		sessions: params.Sessions,
		logg:     params.Logger,
	}, nil
}

// HandleEvent applies a verified Stripe event. Unknown event types are ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.sessionCompleted(ctx, session)
	case stripe.EventTypeCheckoutSessionExpired:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.sessionExpired(ctx, session)
	default:
		return nil
	}
}

func decodeSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	return &session, nil
}

func (s *Service) sessionCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		// delayed payment methods complete later with async_payment_succeeded
		return nil
	}
	orderID, err := s.resolveOrder(ctx, session)
	if err != nil {
		return err
	}
	var email string
	if session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}
	if email == "" {
		email = session.CustomerEmail
	}
	_, changed, err := s.orders.MarkPaid(ctx, orders.MarkPaidInput{
		OrderID:       orderID,
		SessionID:     session.ID,
		CustomerEmail: email,
		Actor:         outbox.SystemActor(actorSource),
	})
	if err != nil {
		return err
	}
	if changed && s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order marked paid by webhook")
	}
	return nil
}

func (s *Service) sessionExpired(ctx context.Context, session *stripe.CheckoutSession) error {
	orderID, err := s.resolveOrder(ctx, session)
	if err != nil {
		return err
	}
	changed, err := s.orders.Cancel(ctx, orders.CancelInput{
		OrderID:      orderID,
		Reason:       "payment_session_expired",
		ReleaseStock: true,
		Expired:      true,
		Actor:        outbox.SystemActor(actorSource),
	})
	if err != nil {
		return err
	}
	if changed && s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order expired by webhook")
	}
	return nil
}

// resolveOrder prefers the order_id metadata and falls back to the stored
// session id.
func (s *Service) resolveOrder(ctx context.Context, session *stripe.CheckoutSession) (uuid.UUID, error) {
	if raw, ok := session.Metadata["order_id"]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			return id, nil
		}
	}
	order, err := s.sessions.FindByPaymentSessionID(ctx, session.ID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order for checkout session not found")
	}
	return order.ID, nil
}
