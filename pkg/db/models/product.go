package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/seedshop-backend/pkg/db/types"
)

// Product is a seed listing or a combo bundle.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Slug          string              `gorm:"column:slug;not null;uniqueIndex"`
	Description   *string             `gorm:"column:description"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	OriginalPrice *decimal.Decimal    `gorm:"column:original_price;type:numeric(10,2)"`
	CategoryID    *uuid.UUID          `gorm:"column:category_id;type:uuid;index"`
	Category      *Category           `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Images        dbtypes.StringArray `gorm:"column:images;not null"`
	Stock         int                 `gorm:"column:stock;not null;default:0"`
	IsNew         bool                `gorm:"column:is_new;not null;default:false"`
	IsPromo       bool                `gorm:"column:is_promo;not null;default:false"`
	Genetics      *string             `gorm:"column:genetics"`
	FloweringTime *string             `gorm:"column:flowering_time"`
	THCLevel      *string             `gorm:"column:thc_level"`
	CBDLevel      *string             `gorm:"column:cbd_level"`
	YieldInfo     *string             `gorm:"column:yield_info"`
	IsCombo       bool                `gorm:"column:is_combo;not null;default:false"`
	ComboSeedType *string             `gorm:"column:combo_seed_type"`
	ComboQuantity *int                `gorm:"column:combo_quantity"`
	DisplayOrder  int                 `gorm:"column:display_order;not null;default:0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Images == nil {
		p.Images = dbtypes.StringArray{}
	}
	return nil
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}
