package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/pkg/db"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/seedshop-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/slug"
)

// Service exposes the public catalog and admin product management.
type Service interface {
	ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error)
	ListFeatured(ctx context.Context) ([]ProductDTO, error)
	GetProduct(ctx context.Context, slug string) (*ProductDTO, error)
	ListComboSeeds(ctx context.Context, comboSlug string) ([]ProductDTO, error)

	AdminListProducts(ctx context.Context) ([]ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name          string
	Slug          string
	Description   *string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	CategoryID    *uuid.UUID
	Images        []string
	Stock         int
	IsNew         bool
	IsPromo       bool
	Genetics      *string
	FloweringTime *string
	THCLevel      *string
	CBDLevel      *string
	YieldInfo     *string
	IsCombo       bool
	ComboSeedType *string
	ComboQuantity *int
	DisplayOrder  int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name          *string
	Slug          *string
	Description   *string
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	CategoryID    *uuid.UUID
	Images        *[]string
	Stock         *int
	IsNew         *bool
	IsPromo       *bool
	Genetics      *string
	FloweringTime *string
	THCLevel      *string
	CBDLevel      *string
	YieldInfo     *string
	IsCombo       *bool
	ComboSeedType *string
	ComboQuantity *int
	DisplayOrder  *int
}

// service implements the product service.
type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) ListFeatured(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) GetProduct(ctx context.Context, value string) (*ProductDTO, error) {
	product, err := s.loadBySlug(ctx, value)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// ListComboSeeds returns the seeds a shopper may pick for the combo.
func (s *service) ListComboSeeds(ctx context.Context, comboSlug string) ([]ProductDTO, error) {
	combo, err := s.loadBySlug(ctx, comboSlug)
	if err != nil {
		return nil, err
	}
	if !combo.IsCombo || combo.ComboSeedType == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not a combo")
	}
	rows, err := s.repo.ListComboSeeds(ctx, *combo.ComboSeedType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list combo seeds")
	}
	return newProductDTOs(rows), nil
}

func (s *service) AdminListProducts(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return newProductDTOs(rows), nil
}

// CreateProduct validates the payload, derives the slug and inserts the row.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	product := &models.Product{
		Name:          name,
		Slug:          slug.Resolve(input.Slug, name),
		Description:   input.Description,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		CategoryID:    input.CategoryID,
		Images:        dbtypes.StringArray(input.Images),
		Stock:         input.Stock,
		IsNew:         input.IsNew,
		IsPromo:       input.IsPromo,
		Genetics:      input.Genetics,
		FloweringTime: input.FloweringTime,
		THCLevel:      input.THCLevel,
		CBDLevel:      input.CBDLevel,
		YieldInfo:     input.YieldInfo,
		IsCombo:       input.IsCombo,
		ComboSeedType: input.ComboSeedType,
		ComboQuantity: input.ComboQuantity,
		DisplayOrder:  input.DisplayOrder,
	}
	if err := s.validate(ctx, product); err != nil {
		return nil, err
	}

	if _, err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, mapWriteError(err, "db: insert product")
	}
	return s.reload(ctx, product.ID)
}

// UpdateProduct applies the non-nil fields of input.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	columns := applyUpdateToProduct(product, input)
	if err := s.validate(ctx, product); err != nil {
		return nil, err
	}

	if _, err := s.repo.UpdateProduct(ctx, product, columns); err != nil {
		return nil, mapWriteError(err, "db: update product")
	}
	return s.reload(ctx, product.ID)
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	var deleted bool
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).DeleteProduct(ctx, productID)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) loadBySlug(ctx context.Context, value string) (*models.Product, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(value))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product detail")
	}
	return NewProductDTO(product), nil
}

func (s *service) validate(ctx context.Context, product *models.Product) error {
	fields := map[string]string{}
	if product.Slug == "" {
		fields["slug"] = "slug could not be derived from name"
	}
	if !product.Price.IsPositive() {
		fields["price"] = "must be greater than zero"
	}
	if product.OriginalPrice != nil && product.OriginalPrice.IsNegative() {
		fields["original_price"] = "must not be negative"
	}
	if product.Stock < 0 {
		fields["stock"] = "must not be negative"
	}
	if product.IsCombo {
		if product.ComboSeedType == nil || strings.TrimSpace(*product.ComboSeedType) == "" {
			fields["combo_seed_type"] = "required for combos"
		}
		if product.ComboQuantity == nil || *product.ComboQuantity < 1 {
			fields["combo_quantity"] = "must be at least 1 for combos"
		}
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(fields)
	}

	if product.CategoryID != nil {
		ok, err := s.repo.CategoryExists(ctx, *product.CategoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").
				WithDetails(map[string]string{"category_id": "category does not exist"})
		}
	}
	return nil
}

// applyUpdateToProduct copies the set fields onto product and returns the
// columns they map to. Stock is only listed when the caller set it, so a
// concurrent checkout decrement is never written back over.
func applyUpdateToProduct(product *models.Product, input UpdateProductInput) []string {
	var columns []string
	if input.Name != nil {
		columns = append(columns, "name")
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Slug != nil {
		columns = append(columns, "slug")
		product.Slug = slug.Resolve(*input.Slug, product.Name)
	}
	if input.Description != nil {
		columns = append(columns, "description")
		product.Description = input.Description
	}
	if input.Price != nil {
		columns = append(columns, "price")
		product.Price = *input.Price
	}
	if input.OriginalPrice != nil {
		columns = append(columns, "original_price")
		product.OriginalPrice = input.OriginalPrice
	}
	if input.CategoryID != nil {
		columns = append(columns, "category_id")
		product.CategoryID = input.CategoryID
		product.Category = nil
	}
	if input.Images != nil {
		columns = append(columns, "images")
		product.Images = dbtypes.StringArray(*input.Images)
	}
	if input.Stock != nil {
		columns = append(columns, "stock")
		product.Stock = *input.Stock
	}
	if input.IsNew != nil {
		columns = append(columns, "is_new")
		product.IsNew = *input.IsNew
	}
	if input.IsPromo != nil {
		columns = append(columns, "is_promo")
		product.IsPromo = *input.IsPromo
	}
	if input.Genetics != nil {
		columns = append(columns, "genetics")
		product.Genetics = input.Genetics
	}
	if input.FloweringTime != nil {
		columns = append(columns, "flowering_time")
		product.FloweringTime = input.FloweringTime
	}
	if input.THCLevel != nil {
		columns = append(columns, "thc_level")
		product.THCLevel = input.THCLevel
	}
	if input.CBDLevel != nil {
		columns = append(columns, "cbd_level")
		product.CBDLevel = input.CBDLevel
	}
	if input.YieldInfo != nil {
		columns = append(columns, "yield_info")
		product.YieldInfo = input.YieldInfo
	}
	if input.IsCombo != nil {
		columns = append(columns, "is_combo")
		product.IsCombo = *input.IsCombo
	}
	if input.ComboSeedType != nil {
		columns = append(columns, "combo_seed_type")
		product.ComboSeedType = input.ComboSeedType
	}
	if input.ComboQuantity != nil {
		columns = append(columns, "combo_quantity")
		product.ComboQuantity = input.ComboQuantity
	}
	if input.DisplayOrder != nil {
		columns = append(columns, "display_order")
		product.DisplayOrder = *input.DisplayOrder
	}
	return columns
}

func mapWriteError(err error, message string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "slug already in use")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
