package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/seedshop-backend/pkg/types"
)

const (
	MetadataOrderID = "order_id"
	MetadataUserID  = "user_id"

	// SessionIDPlaceholder is replaced by Stripe with the session id on redirect.
	SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one priced row of a hosted checkout session.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Image     string
	Quantity  int64
}

// CheckoutSessionInput describes a payment-mode session for one order.
type CheckoutSessionInput struct {
	OrderID       uuid.UUID
	UserID        uuid.UUID
	Items         []LineItem
	Address       types.ShippingAddress
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the subset of a Stripe session the storefront reads.
type CheckoutSession struct {
	ID            string
	URL           string
	Status        string
	PaymentStatus string
	OrderID       string
	CustomerEmail string
}

// Paid reports whether Stripe considers the session paid.
func (s CheckoutSession) Paid() bool {
	return s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid)
}

// CheckoutSessionClient creates and retrieves hosted checkout sessions.
type CheckoutSessionClient interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type checkoutSessionWrapper struct{}

// NewCheckoutSessionClient returns the package-level Stripe session API bound
// to the key configured by NewClient.
func NewCheckoutSessionClient(api *Client) CheckoutSessionClient {
	if api == nil {
		return nil
	}
	return &checkoutSessionWrapper{}
}

func (w *checkoutSessionWrapper) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}

func (w *checkoutSessionWrapper) Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params == nil {
		params = &stripe.CheckoutSessionParams{}
	}
	params.Context = ctx
	return session.Get(id, params)
}

// Gateway builds session requests from domain input and maps the responses.
type Gateway struct {
	sessions CheckoutSessionClient
	currency string
}

// NewGateway wires a session client with the checkout currency.
func NewGateway(sessions CheckoutSessionClient, currency string) (*Gateway, error) {
	if sessions == nil {
		return nil, errors.New("checkout session client is required")
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = defaultCurrency
	}
	return &Gateway{sessions: sessions, currency: currency}, nil
}

// CreateCheckoutSession opens a hosted payment session for the order.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	params, err := BuildCheckoutSessionParams(g.currency, input)
	if err != nil {
		return nil, err
	}
	created, err := g.sessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return SessionFromStripe(created), nil
}

// GetCheckoutSession retrieves a session by id.
func (g *Gateway) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}
	found, err := g.sessions.Get(ctx, sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return SessionFromStripe(found), nil
}

// BuildCheckoutSessionParams converts the input into Stripe params. Prices
// are sent in the currency's minor unit.
func BuildCheckoutSessionParams(currency string, input CheckoutSessionInput) (*stripe.CheckoutSessionParams, error) {
	if input.OrderID == uuid.Nil {
		return nil, errors.New("order id is required")
	}
	if len(input.Items) == 0 {
		return nil, errors.New("at least one line item is required")
	}
	if input.SuccessURL == "" || input.CancelURL == "" {
		return nil, errors.New("success and cancel urls are required")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("line item %q has invalid quantity %d", item.Name, item.Quantity)
		}
		if !item.UnitPrice.IsPositive() {
			return nil, fmt.Errorf("line item %q has non-positive price", item.Name)
		}
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Image != "" {
			product.Images = stripe.StringSlice([]string{item.Image})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(ToMinorUnits(item.UnitPrice)),
				ProductData: product,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
	}
	if input.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}

	params.AddMetadata(MetadataOrderID, input.OrderID.String())
	if input.UserID != uuid.Nil {
		params.AddMetadata(MetadataUserID, input.UserID.String())
	}
	for key, value := range input.Address.Metadata() {
		params.AddMetadata("shipping_"+key, value)
	}
	return params, nil
}

// SessionFromStripe maps the Stripe object to CheckoutSession.
func SessionFromStripe(s *stripe.CheckoutSession) *CheckoutSession {
	if s == nil {
		return nil
	}
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		OrderID:       s.Metadata[MetadataOrderID],
		CustomerEmail: s.CustomerEmail,
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out
}

// ToMinorUnits converts a decimal amount into cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// ConstructEvent verifies a webhook payload against the signing secret.
func (c *Client) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if c == nil || c.signingSecret == "" {
		return stripe.Event{}, errSecretRequired
	}
	return webhook.ConstructEvent(payload, signature, c.signingSecret)
}
