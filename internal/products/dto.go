package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Description     *string          `json:"description,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	DiscountPercent *int             `json:"discount_percent,omitempty"`
	Category        *CategoryRefDTO  `json:"category,omitempty"`
	Images          []string         `json:"images"`
	Stock           int              `json:"stock"`
	InStock         bool             `json:"in_stock"`
	IsNew           bool             `json:"is_new"`
	IsPromo         bool             `json:"is_promo"`
	Genetics        *string          `json:"genetics,omitempty"`
	FloweringTime   *string          `json:"flowering_time,omitempty"`
	THCLevel        *string          `json:"thc_level,omitempty"`
	CBDLevel        *string          `json:"cbd_level,omitempty"`
	YieldInfo       *string          `json:"yield_info,omitempty"`
	IsCombo         bool             `json:"is_combo"`
	ComboSeedType   *string          `json:"combo_seed_type,omitempty"`
	ComboQuantity   *int             `json:"combo_quantity,omitempty"`
	DisplayOrder    int              `json:"display_order"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CategoryRefDTO is the category summary embedded in product payloads.
type CategoryRefDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:            product.ID,
		Name:          product.Name,
		Slug:          product.Slug,
		Description:   product.Description,
		Price:         product.Price,
		OriginalPrice: product.OriginalPrice,
		Images:        append([]string{}, product.Images...),
		Stock:         product.Stock,
		InStock:       product.InStock(),
		IsNew:         product.IsNew,
		IsPromo:       product.IsPromo,
		Genetics:      product.Genetics,
		FloweringTime: product.FloweringTime,
		THCLevel:      product.THCLevel,
		CBDLevel:      product.CBDLevel,
		YieldInfo:     product.YieldInfo,
		IsCombo:       product.IsCombo,
		ComboSeedType: product.ComboSeedType,
		ComboQuantity: product.ComboQuantity,
		DisplayOrder:  product.DisplayOrder,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
	if product.Category != nil {
		dto.Category = &CategoryRefDTO{
			ID:   product.Category.ID,
			Name: product.Category.Name,
			Slug: product.Category.Slug,
		}
	}
	dto.DiscountPercent = discountPercent(product.Price, product.OriginalPrice)
	return dto
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out
}

// discountPercent rounds (original - price) / original to a whole percent.
func discountPercent(price decimal.Decimal, original *decimal.Decimal) *int {
	if original == nil || !original.GreaterThan(price) || original.IsZero() {
		return nil
	}
	pct := int(original.Sub(price).Div(*original).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	return &pct
}
