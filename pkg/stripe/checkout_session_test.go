package stripe

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/seedshop-backend/pkg/types"
)

type fakeSessions struct {
	created  *stripe.CheckoutSessionParams
	response *stripe.CheckoutSession
	err      error
	gotID    string
}

func (f *fakeSessions) Create(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeSessions) Get(_ context.Context, id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.gotID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func sampleInput() CheckoutSessionInput {
	return CheckoutSessionInput{
		OrderID: uuid.New(),
		UserID:  uuid.New(),
		Items: []LineItem{
			{Name: "Produto A", UnitPrice: decimal.NewFromInt(100), Image: "https://cdn.test/a.png", Quantity: 2},
		},
		Address: types.ShippingAddress{
			Street: "Rua A", Number: "1", Neighborhood: "Centro", City: "Recife", State: "PE", ZipCode: "50000-000",
		},
		CustomerEmail: "ana@example.com",
		SuccessURL:    "https://shop.test/checkout/sucesso?session_id=" + SessionIDPlaceholder,
		CancelURL:     "https://shop.test/carrinho",
	}
}

func TestBuildCheckoutSessionParams(t *testing.T) {
	input := sampleInput()
	params, err := BuildCheckoutSessionParams("brl", input)
	require.NoError(t, err)

	require.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	require.Equal(t, int64(2), *item.Quantity)
	require.Equal(t, int64(10000), *item.PriceData.UnitAmount)
	require.Equal(t, "brl", *item.PriceData.Currency)
	require.Equal(t, "Produto A", *item.PriceData.ProductData.Name)
	require.Equal(t, "https://cdn.test/a.png", *item.PriceData.ProductData.Images[0])
	require.Equal(t, input.OrderID.String(), params.Metadata[MetadataOrderID])
	require.Equal(t, input.UserID.String(), params.Metadata[MetadataUserID])
	require.Equal(t, "50000-000", params.Metadata["shipping_zip_code"])
	require.Equal(t, "ana@example.com", *params.CustomerEmail)
}

func TestBuildCheckoutSessionParamsRejectsBadInput(t *testing.T) {
	input := sampleInput()
	input.Items = nil
	_, err := BuildCheckoutSessionParams("brl", input)
	require.Error(t, err)

	input = sampleInput()
	input.Items[0].Quantity = 0
	_, err = BuildCheckoutSessionParams("brl", input)
	require.Error(t, err)

	input = sampleInput()
	input.OrderID = uuid.Nil
	_, err = BuildCheckoutSessionParams("brl", input)
	require.Error(t, err)
}

func TestToMinorUnits(t *testing.T) {
	require.Equal(t, int64(4990), ToMinorUnits(decimal.RequireFromString("49.90")))
	require.Equal(t, int64(1), ToMinorUnits(decimal.RequireFromString("0.005")))
	require.Equal(t, int64(12345), ToMinorUnits(decimal.RequireFromString("123.45")))
}

func TestGatewayCreateAndGet(t *testing.T) {
	fake := &fakeSessions{response: &stripe.CheckoutSession{
		ID:            "cs_test_1",
		URL:           "https://checkout.stripe.com/c/pay/cs_test_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{MetadataOrderID: "order-1"},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "buyer@example.com",
		},
	}}
	gateway, err := NewGateway(fake, "")
	require.NoError(t, err)

	created, err := gateway.CreateCheckoutSession(context.Background(), sampleInput())
	require.NoError(t, err)
	require.Equal(t, "cs_test_1", created.ID)
	require.Equal(t, "brl", *fake.created.LineItems[0].PriceData.Currency)

	found, err := gateway.GetCheckoutSession(context.Background(), "cs_test_1")
	require.NoError(t, err)
	require.Equal(t, "cs_test_1", fake.gotID)
	require.True(t, found.Paid())
	require.Equal(t, "order-1", found.OrderID)
	require.Equal(t, "buyer@example.com", found.CustomerEmail)

	_, err = gateway.GetCheckoutSession(context.Background(), " ")
	require.Error(t, err)
}

func TestGatewayWrapsErrors(t *testing.T) {
	gateway, err := NewGateway(&fakeSessions{err: errors.New("card network down")}, "brl")
	require.NoError(t, err)
	_, err = gateway.CreateCheckoutSession(context.Background(), sampleInput())
	require.ErrorContains(t, err, "card network down")

	_, err = NewGateway(nil, "brl")
	require.Error(t, err)
}
