package admin

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/internal/repo"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
)

// Stats is the dashboard summary.
type Stats struct {
	TotalProducts   int64           `json:"total_products"`
	TotalOrders     int64           `json:"total_orders"`
	TotalUsers      int64           `json:"total_users"`
	TotalCategories int64           `json:"total_categories"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PendingOrders   int64           `json:"pending_orders"`
}

// StatsService aggregates the dashboard counters straight from the store.
type StatsService struct {
	repo.Base
}

func NewStatsService(db *gorm.DB) (*StatsService, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &StatsService{Base: repo.NewBase(db)}, nil
}

// Stats counts rows per table. Revenue sums every order total regardless of
// status.
func (s *StatsService) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	counts := []struct {
		model any
		dest  *int64
		where []any
	}{
		{&models.Product{}, &out.TotalProducts, nil},
		{&models.Order{}, &out.TotalOrders, nil},
		{&models.Profile{}, &out.TotalUsers, nil},
		{&models.Category{}, &out.TotalCategories, nil},
		{&models.Order{}, &out.PendingOrders, []any{"status = ?", enums.OrderStatusPending}},
	}
	for _, c := range counts {
		qb := s.DB(ctx).Model(c.model)
		if len(c.where) > 0 {
			qb = qb.Where(c.where[0], c.where[1:]...)
		}
		if err := qb.Count(c.dest).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count rows")
		}
	}

	row := s.DB(ctx).Model(&models.Order{}).Select("COALESCE(SUM(total), 0)").Row()
	if err := row.Scan(&out.TotalRevenue); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	return &out, nil
}
