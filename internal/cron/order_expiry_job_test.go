package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/seedshop-backend/internal/orders"
	product "github.com/angelmondragon/seedshop-backend/internal/products"
	"github.com/angelmondragon/seedshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox"
)

func TestOrderExpiryJobCancelsStaleOrdersAndReleasesStock(t *testing.T) {
	client := dbtest.Open(t)
	db := client.DB()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	seed := models.Product{Name: "Seed", Slug: "seed", Price: decimal.NewFromInt(40), Stock: 1}
	require.NoError(t, db.Create(&seed).Error)

	newOrder := func(status enums.OrderStatus, createdAt time.Time, qty int) models.Order {
		order := models.Order{UserID: uuid.New(), Status: status, Total: decimal.NewFromInt(40), CreatedAt: createdAt}
		require.NoError(t, db.Omit("Items").Create(&order).Error)
		item := models.OrderItem{OrderID: order.ID, ProductID: &seed.ID, ProductName: seed.Name, ProductPrice: seed.Price, Quantity: qty}
		require.NoError(t, db.Create(&item).Error)
		return order
	}
	stale := []models.Order{
		newOrder(enums.OrderStatusPending, now.Add(-72*time.Hour), 2),
		newOrder(enums.OrderStatusPending, now.Add(-60*time.Hour), 1),
		newOrder(enums.OrderStatusPending, now.Add(-50*time.Hour), 1),
	}
	fresh := newOrder(enums.OrderStatusPending, now.Add(-time.Hour), 1)
	paid := newOrder(enums.OrderStatusPaid, now.Add(-72*time.Hour), 1)

	repo := orders.NewRepository(db)
	orderSvc, err := orders.NewService(repo, client, outbox.NewService(outbox.NewRepository(db), nil), product.NewInventory(), nil)
	require.NoError(t, err)

	jobIface, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger:    testLogger(),
		Pending:   repo,
		Canceller: orderSvc,
		TTL:       48 * time.Hour,
		BatchSize: 2,
	})
	require.NoError(t, err)
	job := jobIface.(*orderExpiryJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	status := func(id uuid.UUID) enums.OrderStatus {
		var o models.Order
		require.NoError(t, db.First(&o, "id = ?", id).Error)
		return o.Status
	}
	for _, order := range stale {
		require.Equal(t, enums.OrderStatusCancelled, status(order.ID))
	}
	require.Equal(t, enums.OrderStatusPending, status(fresh.ID))
	require.Equal(t, enums.OrderStatusPaid, status(paid.ID))

	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", seed.ID).Error)
	require.Equal(t, 5, stored.Stock)

	var expiredEvents int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderExpired).Count(&expiredEvents).Error)
	require.EqualValues(t, 3, expiredEvents)
}
