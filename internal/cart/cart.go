package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
)

// Item is one cart line. Product fields are a snapshot taken at the last
// add or update.
type Item struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Stock       int             `json:"stock"`
	IsCombo     bool            `json:"is_combo"`
	Quantity    int             `json:"quantity"`
	Selections  []string        `json:"selections,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Subtotal is price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a user's pending selection. All mutations are local to the value;
// persisting it is the Store's job.
type Cart struct {
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot captures the product fields a cart line keeps.
func Snapshot(p models.Product) Item {
	item := Item{
		ProductID: p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Price:     p.Price,
		Image:     p.Images.First(),
		Stock:     p.Stock,
		IsCombo:   p.IsCombo,
	}
	return item
}

// Add merges qty units of the product into the cart. A non-positive qty
// counts as one. Quantities are clipped to the snapshot's stock and a product
// without stock is rejected.
func (c *Cart) Add(product Item, qty int) error {
	if qty <= 0 {
		qty = 1
	}
	if product.Stock <= 0 {
		return outOfStock(product)
	}

	if idx := c.indexOf(product.ProductID); idx >= 0 {
		existing := c.Items[idx]
		product.Quantity = clip(existing.Quantity+qty, product.Stock)
		product.Selections = existing.Selections
		product.Description = existing.Description
		c.Items[idx] = product
		return nil
	}

	product.Quantity = clip(qty, product.Stock)
	c.Items = append(c.Items, product)
	return nil
}

// SetCombo stores a combo line with its seed selections, replacing any
// previous selection for the same combo. Combos always have quantity one.
func (c *Cart) SetCombo(combo Item, selections []string, description string) error {
	if combo.Stock <= 0 {
		return outOfStock(combo)
	}
	combo.Quantity = 1
	combo.Selections = append([]string(nil), selections...)
	combo.Description = description

	if idx := c.indexOf(combo.ProductID); idx >= 0 {
		c.Items[idx] = combo
		return nil
	}
	c.Items = append(c.Items, combo)
	return nil
}

// UpdateQuantity sets the line's quantity, clipped to stock. qty <= 0 removes
// the line. The refreshed snapshot, when given, replaces the stored one.
func (c *Cart) UpdateQuantity(productID uuid.UUID, qty int, refreshed *Item) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}
	if qty <= 0 {
		c.Remove(productID)
		return true
	}
	item := c.Items[idx]
	if refreshed != nil {
		selections, description := item.Selections, item.Description
		item = *refreshed
		item.Selections, item.Description = selections, description
	}
	if item.IsCombo {
		qty = 1
	}
	item.Quantity = clip(qty, item.Stock)
	if item.Quantity <= 0 {
		c.Remove(productID)
		return true
	}
	c.Items[idx] = item
	return true
}

// Remove drops the line for productID if present.
func (c *Cart) Remove(productID uuid.UUID) {
	if idx := c.indexOf(productID); idx >= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	}
}

func (c *Cart) Clear() {
	c.Items = nil
}

// Total is the sum of price times quantity over every line.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount is the sum of quantities.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) indexOf(productID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func clip(qty, stock int) int {
	if qty > stock {
		return stock
	}
	return qty
}

func outOfStock(item Item) error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, "product out of stock").WithDetails(map[string]any{
		"product_id": item.ProductID,
		"name":       item.Name,
		"available":  item.Stock,
	})
}
