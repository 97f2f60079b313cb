package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
)

const comboDescriptionPrefix = "Sementes selecionadas: "

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service exposes the per-user cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Load(ctx context.Context, userID uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	AddCombo(ctx context.Context, userID, comboID uuid.UUID, seedIDs []uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// CartDTO is the cart payload returned to clients.
type CartDTO struct {
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func NewCartDTO(c *Cart) *CartDTO {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return &CartDTO{Items: items, Total: c.Total(), ItemCount: c.ItemCount()}
}

type service struct {
	store    Store
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(store Store, products productLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{store: store, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	c, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCartDTO(c), nil
}

func (s *service) Load(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	c, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

// AddItem re-reads the product so clipping uses current stock.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.IsCombo {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "combos require seed selection")
	}
	return s.mutate(ctx, userID, func(c *Cart) error {
		return c.Add(Snapshot(*product), qty)
	})
}

func (s *service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartDTO, error) {
	var refreshed *Item
	if qty > 0 {
		product, err := s.loadProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		snap := Snapshot(*product)
		refreshed = &snap
	}
	return s.mutate(ctx, userID, func(c *Cart) error {
		if !c.UpdateQuantity(productID, qty, refreshed) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.Remove(productID)
		return nil
	})
}

// AddCombo validates the seed selection against the combo's rules: exactly
// combo_quantity distinct seeds, each an in-stock single seed from the
// category named by combo_seed_type.
func (s *service) AddCombo(ctx context.Context, userID, comboID uuid.UUID, seedIDs []uuid.UUID) (*CartDTO, error) {
	combo, err := s.loadProduct(ctx, comboID)
	if err != nil {
		return nil, err
	}
	if !combo.IsCombo || combo.ComboSeedType == nil || combo.ComboQuantity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not a combo")
	}

	unique := dedupe(seedIDs)
	if len(unique) != *combo.ComboQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid seed selection").WithDetails(map[string]any{
			"required": *combo.ComboQuantity,
			"selected": len(unique),
		})
	}

	seeds, err := s.products.FindByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seeds")
	}
	names := make([]string, 0, len(unique))
	for _, id := range unique {
		seed, ok := seeds[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid seed selection").
				WithDetails(map[string]any{"seed_id": id, "reason": "not found"})
		}
		if reason := seedIneligible(seed, *combo.ComboSeedType); reason != "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid seed selection").
				WithDetails(map[string]any{"seed_id": id, "reason": reason})
		}
		names = append(names, seed.Name)
	}

	description := comboDescriptionPrefix + strings.Join(names, ", ")
	return s.mutate(ctx, userID, func(c *Cart) error {
		return c.SetCombo(Snapshot(*combo), names, description)
	})
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func(*Cart) error) (*CartDTO, error) {
	c, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, userID, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return NewCartDTO(c), nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func seedIneligible(seed models.Product, seedType string) string {
	switch {
	case seed.IsCombo:
		return "combos cannot be selected"
	case !seed.InStock():
		return "out of stock"
	case seed.Category == nil || seed.Category.Slug != seedType:
		return "not part of this combo"
	}
	return ""
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
