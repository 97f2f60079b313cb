package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/seedshop-backend/internal/cart"
	"github.com/angelmondragon/seedshop-backend/internal/orders"
	product "github.com/angelmondragon/seedshop-backend/internal/products"
	"github.com/angelmondragon/seedshop-backend/pkg/db"
	"github.com/angelmondragon/seedshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox"
	"github.com/angelmondragon/seedshop-backend/pkg/stripe"
	"github.com/angelmondragon/seedshop-backend/pkg/types"
)

type fakeCarts struct {
	cart    *cart.Cart
	cleared bool
}

func (f *fakeCarts) Load(context.Context, uuid.UUID) (*cart.Cart, error) {
	if f.cart == nil {
		return &cart.Cart{}, nil
	}
	return f.cart, nil
}

func (f *fakeCarts) Clear(context.Context, uuid.UUID) error {
	f.cleared = true
	return nil
}

type fakeGateway struct {
	input stripe.CheckoutSessionInput
	err   error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, input stripe.CheckoutSessionInput) (*stripe.CheckoutSession, error) {
	g.input = input
	if g.err != nil {
		return nil, g.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.test/cs_test_123", OrderID: input.OrderID.String()}, nil
}

type fixture struct {
	client  *db.Client
	carts   *fakeCarts
	gateway *fakeGateway
	svc     Service
}

func newFixture(t *testing.T, compensate bool) fixture {
	t.Helper()
	client := dbtest.Open(t)
	emitter := outbox.NewService(outbox.NewRepository(client.DB()), nil)
	inventory := product.NewInventory()
	orderRepo := orders.NewRepository(client.DB())
	orderSvc, err := orders.NewService(orderRepo, client, emitter, inventory, nil)
	require.NoError(t, err)

	carts := &fakeCarts{}
	gateway := &fakeGateway{}
	svc, err := NewService(ServiceParams{
		Config:    Config{FrontendURL: "https://loja.test/", CompensateOnPaymentFailure: compensate},
		Tx:        client,
		Carts:     carts,
		Orders:    orderRepo,
		Canceller: orderSvc,
		Inventory: inventory,
		Outbox:    emitter,
		Payments:  gateway,
	})
	require.NoError(t, err)
	return fixture{client: client, carts: carts, gateway: gateway, svc: svc}
}

func (f fixture) seedProduct(t *testing.T, name string, price int64, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Slug: strings.ToLower(name) + "-" + uuid.NewString()[:8], Price: decimal.NewFromInt(price), Stock: stock}
	require.NoError(t, f.client.DB().Create(&p).Error)
	return p
}

func (f fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.client.DB().First(&p, "id = ?", id).Error)
	return p.Stock
}

func (f fixture) onlyOrder(t *testing.T) models.Order {
	t.Helper()
	var rows []models.Order
	require.NoError(t, f.client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	return rows[0]
}

func (f fixture) countEvents(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func address() types.ShippingAddress {
	return types.ShippingAddress{
		Street:       "Rua Augusta",
		Number:       "1500",
		Neighborhood: "Consolação",
		City:         "São Paulo",
		State:        "sp",
		ZipCode:      "01304-001",
	}
}

func TestExecuteCreatesPendingOrderAndSession(t *testing.T) {
	f := newFixture(t, true)
	a := f.seedProduct(t, "A", 100, 5)
	f.carts.cart = &cart.Cart{Items: []cart.Item{withQty(cart.Snapshot(a), 2)}}
	userID := uuid.New()

	res, err := f.svc.Execute(context.Background(), CheckoutInput{UserID: userID, Email: "ana@example.com", Address: address()})
	require.NoError(t, err)

	require.Equal(t, "cs_test_123", res.SessionID)
	require.Equal(t, "https://checkout.stripe.test/cs_test_123", res.CheckoutURL)
	require.Equal(t, enums.OrderStatusPending, res.Order.Status)
	require.True(t, decimal.NewFromInt(200).Equal(res.Order.Total))
	require.Len(t, res.Order.Items, 1)
	require.Equal(t, "SP", res.Order.ShippingAddress.State)

	require.Len(t, f.gateway.input.Items, 1)
	line := f.gateway.input.Items[0]
	require.Equal(t, "A", line.Name)
	require.True(t, decimal.NewFromInt(100).Equal(line.UnitPrice))
	require.EqualValues(t, 2, line.Quantity)
	require.Equal(t, "https://loja.test/checkout/sucesso?session_id={CHECKOUT_SESSION_ID}", f.gateway.input.SuccessURL)
	require.Equal(t, "https://loja.test/carrinho", f.gateway.input.CancelURL)

	order := f.onlyOrder(t)
	require.NotNil(t, order.PaymentSessionID)
	require.Equal(t, "cs_test_123", *order.PaymentSessionID)
	require.Equal(t, 3, f.stock(t, a.ID))
	require.True(t, f.carts.cleared)
	require.EqualValues(t, 1, f.countEvents(t, enums.EventOrderCreated))
}

func TestOrderSnapshotSurvivesPriceChange(t *testing.T) {
	f := newFixture(t, true)
	a := f.seedProduct(t, "A", 100, 5)
	f.carts.cart = &cart.Cart{Items: []cart.Item{withQty(cart.Snapshot(a), 2)}}

	res, err := f.svc.Execute(context.Background(), CheckoutInput{UserID: uuid.New(), Address: address()})
	require.NoError(t, err)

	products, err := product.NewService(product.NewRepository(f.client.DB()), f.client)
	require.NoError(t, err)
	price := decimal.NewFromInt(250)
	_, err = products.UpdateProduct(context.Background(), a.ID, product.UpdateProductInput{Price: &price})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, f.client.DB().Preload("Items").First(&order, "id = ?", res.Order.ID).Error)
	require.True(t, decimal.NewFromInt(200).Equal(order.Total))
	require.Len(t, order.Items, 1)
	require.True(t, decimal.NewFromInt(100).Equal(order.Items[0].ProductPrice))
	require.True(t, order.Total.Equal(order.ItemsTotal()))
}

func TestExecuteRejectsEmptyCart(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.svc.Execute(context.Background(), CheckoutInput{UserID: uuid.New(), Address: address()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Nil(t, f.gateway.input.Items)
}

func TestExecuteRejectsInvalidAddressWithoutOrder(t *testing.T) {
	f := newFixture(t, true)
	a := f.seedProduct(t, "A", 100, 5)
	f.carts.cart = &cart.Cart{Items: []cart.Item{withQty(cart.Snapshot(a), 1)}}
	addr := address()
	addr.ZipCode = "123"

	_, err := f.svc.Execute(context.Background(), CheckoutInput{UserID: uuid.New(), Address: addr})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var n int64
	require.NoError(t, f.client.DB().Model(&models.Order{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestExecuteInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t, true)
	a := f.seedProduct(t, "A", 100, 5)
	last := f.seedProduct(t, "Last", 30, 1)
	f.carts.cart = &cart.Cart{Items: []cart.Item{
		withQty(cart.Snapshot(a), 2),
		withQty(cart.Snapshot(last), 1),
	}}
	// another buyer takes the last unit after it was added to this cart
	require.NoError(t, f.client.DB().Model(&models.Product{}).Where("id = ?", last.ID).Update("stock", 0).Error)

	_, err := f.svc.Execute(context.Background(), CheckoutInput{UserID: uuid.New(), Address: address()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Last", details["name"])
	require.Equal(t, 1, details["requested"])

	require.Equal(t, 5, f.stock(t, a.ID))
	require.Equal(t, 0, f.stock(t, last.ID))
	require.Equal(t, enums.OrderStatusCancelled, f.onlyOrder(t).Status)
	require.False(t, f.carts.cleared)
	require.Nil(t, f.gateway.input.Items)
}

func TestExecutePaymentFailureCompensates(t *testing.T) {
	f := newFixture(t, true)
	a := f.seedProduct(t, "A", 100, 5)
	f.carts.cart = &cart.Cart{Items: []cart.Item{withQty(cart.Snapshot(a), 2)}}
	f.gateway.err = errors.New("stripe unavailable")

	_, err := f.svc.Execute(context.Background(), CheckoutInput{UserID: uuid.New(), Address: address()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePayment))

	require.Equal(t, 5, f.stock(t, a.ID))
	require.Equal(t, enums.OrderStatusCancelled, f.onlyOrder(t).Status)
	require.EqualValues(t, 1, f.countEvents(t, enums.EventOrderCanceled))
	require.False(t, f.carts.cleared)
}

func TestExecutePaymentFailureWithoutCompensationKeepsReservation(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedProduct(t, "A", 100, 5)
	f.carts.cart = &cart.Cart{Items: []cart.Item{withQty(cart.Snapshot(a), 2)}}
	f.gateway.err = errors.New("stripe unavailable")

	_, err := f.svc.Execute(context.Background(), CheckoutInput{UserID: uuid.New(), Address: address()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePayment))

	require.Equal(t, 3, f.stock(t, a.ID))
	order := f.onlyOrder(t)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Nil(t, order.PaymentSessionID)
	require.False(t, f.carts.cleared)
}

func TestLineNameIncludesComboSelections(t *testing.T) {
	item := cart.Item{Name: "Combo 3", IsCombo: true, Description: "Sementes selecionadas: A, B, C"}
	require.Equal(t, "Combo 3 (Sementes selecionadas: A, B, C)", lineName(item))
	require.Equal(t, "A", lineName(cart.Item{Name: "A"}))
}

func withQty(item cart.Item, qty int) cart.Item {
	item.Quantity = qty
	return item
}
