package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
)

// ListFilters narrows the public catalog listing.
type ListFilters struct {
	CategorySlug string
	Query        string
	Sort         enums.ProductSort
}

const featuredLimit = 8

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product with its category.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product with its category.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the matching products keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// List returns the catalog filtered by category slug and search text.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	sort := filters.Sort
	if !sort.IsValid() {
		sort = enums.ProductSortNewest
	}

	qb := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Category")
	if slug := strings.TrimSpace(filters.CategorySlug); slug != "" {
		qb = qb.Where("category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", slug),
		)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", pattern, pattern)
	}

	var rows []models.Product
	err := qb.Order(sort.OrderClause()).Find(&rows).Error
	return rows, err
}

// ListFeatured returns new or promotional products by display order.
func (r *Repository) ListFeatured(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_new = ? OR is_promo = ?", true, true).
		Order("display_order ASC, created_at DESC").
		Limit(featuredLimit).
		Find(&rows).
		Error
	return rows, err
}

// ListAll returns every product for the admin table.
func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("display_order ASC, created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListComboSeeds returns in-stock single seeds of the category with the given slug.
func (r *Repository) ListComboSeeds(ctx context.Context, categorySlug string) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("categories.slug = ?", categorySlug).
		Where("products.is_combo = ?", false).
		Where("products.stock > 0").
		Order("products.name ASC").
		Find(&rows).
		Error
	return rows, err
}

// CategoryExists reports whether the category id is present.
func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit("Category").Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct writes the given columns of an existing product row. Columns
// outside the list keep whatever the database holds now.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product, columns []string) (*models.Product, error) {
	if len(columns) == 0 {
		return product, nil
	}
	selected := append(append([]string{}, columns...), "updated_at")
	if err := r.db.WithContext(ctx).Model(product).Select(selected).Omit("Category").Updates(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product by ID. Order items keep their snapshot with
// a null product reference.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.OrderItem{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
		return false, err
	}
	res := db.Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// DecrementStock subtracts qty only when enough units remain. It reports false
// when the guard rejected the update.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock adds qty back to the product.
func (r *Repository) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).
		Error
}
