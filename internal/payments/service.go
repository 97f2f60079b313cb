package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/seedshop-backend/internal/orders"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox"
	"github.com/angelmondragon/seedshop-backend/pkg/stripe"
)

const (
	resultPaid   = "paid"
	resultUnpaid = "unpaid"
	resultError  = "error"
)

type sessionGetter interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

type orderService interface {
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDTO, error)
	MarkPaid(ctx context.Context, input orders.MarkPaidInput) (*models.Order, bool, error)
}

type verificationObserver interface {
	ObserveVerification(result string)
}

// Service confirms hosted payment sessions after the customer returns.
type Service interface {
	Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error)
}

// VerifyInput identifies the session the returning customer claims to have paid.
type VerifyInput struct {
	UserID    uuid.UUID
	ActorRole string
	SessionID string
}

// VerifyResult mirrors the verification response body.
type VerifyResult struct {
	Success       bool       `json:"success"`
	Paid          bool       `json:"paid"`
	Status        string     `json:"status,omitempty"`
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	CustomerEmail string     `json:"customer_email,omitempty"`
}

type service struct {
	sessions sessionGetter
	orders   orderService
	logg     *logger.Logger
	metrics  verificationObserver
}

// NewService wires the verification service.
func NewService(sessions sessionGetter, orders orderService, logg *logger.Logger, metrics verificationObserver) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session getter required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	return &service{sessions: sessions, orders: orders, logg: logg, metrics: metrics}, nil
}

// Verify retrieves the session and marks its order paid when the gateway
// reports payment. Repeated calls for a paid order are harmless.
func (s *service) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required").
			WithDetails(map[string]string{"session_id": "required"})
	}
	if s.logg != nil {
		ctx = s.logg.WithSessionID(ctx, sessionID)
	}

	session, err := s.sessions.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		s.observe(resultError)
		return nil, pkgerrors.Wrap(pkgerrors.CodePayment, err, "could not verify payment")
	}

	// The caller must own the order before any session state is reported.
	orderID, err := uuid.Parse(session.OrderID)
	if err != nil {
		s.observe(resultError)
		return nil, pkgerrors.New(pkgerrors.CodePayment, "payment session has no order").
			WithDetails(map[string]any{"session_id": sessionID})
	}
	if _, err := s.orders.GetForUser(ctx, input.UserID, orderID); err != nil {
		s.observe(resultError)
		return nil, err
	}

	if !session.Paid() {
		s.observe(resultUnpaid)
		return &VerifyResult{Success: true, Paid: false, Status: session.PaymentStatus}, nil
	}

	order, changed, err := s.orders.MarkPaid(ctx, orders.MarkPaidInput{
		OrderID:       orderID,
		SessionID:     sessionID,
		CustomerEmail: session.CustomerEmail,
		Actor:         outbox.UserActor(input.UserID, input.ActorRole),
	})
	if err != nil {
		s.observe(resultError)
		return nil, err
	}
	s.observe(resultPaid)

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		switch {
		case changed:
			s.logg.Info(logCtx, "order marked paid")
		case order.Status.IsTerminal():
			s.logg.Warn(s.logg.WithField(logCtx, "status", order.Status), "payment confirmed for closed order")
		}
	}
	return &VerifyResult{
		Success:       true,
		Paid:          true,
		OrderID:       &orderID,
		CustomerEmail: session.CustomerEmail,
	}, nil
}

func (s *service) observe(result string) {
	if s.metrics != nil {
		s.metrics.ObserveVerification(result)
	}
}
