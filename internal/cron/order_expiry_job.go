package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/seedshop-backend/internal/orders"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox"
)

const (
	defaultPendingOrderTTL = 48 * time.Hour
	defaultExpiryBatch     = 100
	orderExpiryJobName     = "order-expiry"
)

type pendingOrderReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderCanceller interface {
	Cancel(ctx context.Context, input orders.CancelInput) (bool, error)
}

// OrderExpiryJobParams configure the pending order expiry job.
type OrderExpiryJobParams struct {
	Logger    *logger.Logger
	Pending   pendingOrderReader
	Canceller orderCanceller
	TTL       time.Duration
	BatchSize int
}

// NewOrderExpiryJob builds the job that cancels orders left pending past the
// TTL and returns their stock.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pending == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Canceller == nil {
		return nil, fmt.Errorf("order canceller required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &orderExpiryJob{
		logg:      params.Logger,
		pending:   params.Pending,
		canceller: params.Canceller,
		ttl:       ttl,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg      *logger.Logger
	pending   pendingOrderReader
	canceller orderCanceller
	ttl       time.Duration
	batch     int
	now       func() time.Time
}

func (j *orderExpiryJob) Name() string { return orderExpiryJobName }

// Run expires batches until a short batch is read. Orders that fail to
// cancel are skipped for the rest of the run and retried next cycle.
func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	failed := map[uuid.UUID]struct{}{}
	var (
		errs    error
		expired int
	)
	for {
		limit := j.batch + len(failed)
		rows, err := j.pending.FindPendingBefore(ctx, cutoff, limit)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("query pending orders: %w", err))
		}
		progressed := false
		for _, order := range rows {
			if _, skip := failed[order.ID]; skip {
				continue
			}
			changed, err := j.canceller.Cancel(ctx, orders.CancelInput{
				OrderID:      order.ID,
				Reason:       "pending_ttl_exceeded",
				ReleaseStock: true,
				Expired:      true,
				Actor:        outbox.SystemActor(orderExpiryJobName),
			})
			if err != nil {
				failed[order.ID] = struct{}{}
				errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
				continue
			}
			progressed = true
			if changed {
				expired++
			}
		}
		if !progressed || len(rows) < limit {
			break
		}
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": expired,
		"failed":  len(failed),
	}), "order expiry loop complete")
	return errs
}
