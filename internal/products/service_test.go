package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/seedshop-backend/pkg/db"
	"github.com/angelmondragon/seedshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
)

type fixture struct {
	client *db.Client
	repo   *Repository
	svc    Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client)
	require.NoError(t, err)
	return fixture{client: client, repo: repo, svc: svc}
}

func (f fixture) category(t *testing.T, name, slug string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Slug: slug}
	require.NoError(t, f.client.DB().Create(&c).Error)
	return c
}

func (f fixture) product(t *testing.T, p models.Product) models.Product {
	t.Helper()
	if p.Slug == "" {
		p.Slug = "p-" + uuid.NewString()
	}
	if p.Price.IsZero() {
		p.Price = decimal.NewFromInt(10)
	}
	require.NoError(t, f.client.DB().Create(&p).Error)
	return p
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestListProductsFiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	auto := f.category(t, "Automáticas", "automaticas")
	fem := f.category(t, "Feminizadas", "feminizadas")

	f.product(t, models.Product{Name: "Northern Lights", Price: decimal.NewFromInt(50), CategoryID: &auto.ID, Stock: 3})
	f.product(t, models.Product{Name: "Amnesia Haze", Price: decimal.NewFromInt(80), CategoryID: &fem.ID, Stock: 1,
		Description: strPtr("Sativa cítrica de alto rendimento")})
	f.product(t, models.Product{Name: "Blueberry", Price: decimal.NewFromInt(30), CategoryID: &auto.ID})

	rows, err := f.svc.ListProducts(ctx, ListFilters{CategorySlug: "automaticas", Sort: enums.ProductSortPriceAsc})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Blueberry", rows[0].Name)
	require.False(t, rows[0].InStock)
	require.Equal(t, "Northern Lights", rows[1].Name)
	require.Equal(t, "automaticas", rows[1].Category.Slug)

	rows, err = f.svc.ListProducts(ctx, ListFilters{Query: "RENDIMENTO"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Amnesia Haze", rows[0].Name)

	rows, err = f.svc.ListProducts(ctx, ListFilters{Sort: enums.ProductSortName})
	require.NoError(t, err)
	require.Equal(t, []string{"Amnesia Haze", "Blueberry", "Northern Lights"},
		[]string{rows[0].Name, rows[1].Name, rows[2].Name})
}

func TestListFeaturedLimitsAndOrders(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		f.product(t, models.Product{Name: "Novidade", IsNew: true, DisplayOrder: 10 - i})
	}
	f.product(t, models.Product{Name: "Comum"})
	promo := f.product(t, models.Product{Name: "Promo", IsPromo: true, DisplayOrder: -1})

	rows, err := f.svc.ListFeatured(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, featuredLimit)
	require.Equal(t, promo.ID, rows[0].ID)
	for _, row := range rows {
		require.NotEqual(t, "Comum", row.Name)
	}
}

func TestGetProductNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetProduct(context.Background(), "missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListComboSeeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	auto := f.category(t, "Automáticas", "automaticas")
	f.product(t, models.Product{Name: "Seed B", CategoryID: &auto.ID, Stock: 2})
	f.product(t, models.Product{Name: "Seed A", CategoryID: &auto.ID, Stock: 5})
	f.product(t, models.Product{Name: "Sem estoque", CategoryID: &auto.ID, Stock: 0})
	f.product(t, models.Product{Name: "Outro combo", CategoryID: &auto.ID, Stock: 5, IsCombo: true})
	combo := f.product(t, models.Product{Name: "Combo 2", Slug: "combo-2", IsCombo: true, Stock: 4,
		ComboSeedType: strPtr("automaticas"), ComboQuantity: intPtr(2)})

	seeds, err := f.svc.ListComboSeeds(ctx, combo.Slug)
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	require.Equal(t, "Seed A", seeds[0].Name)
	require.Equal(t, "Seed B", seeds[1].Name)

	plain := f.product(t, models.Product{Name: "Plain", Slug: "plain"})
	_, err = f.svc.ListComboSeeds(ctx, plain.Slug)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateProductDerivesSlugAndValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Feminizadas", "feminizadas")

	original := decimal.NewFromInt(100)
	created, err := f.svc.CreateProduct(ctx, CreateProductInput{
		Name:          "Gorila Glue Nº 4",
		Price:         decimal.NewFromInt(75),
		OriginalPrice: &original,
		CategoryID:    &cat.ID,
		Images:        []string{"https://cdn.example.com/gg4.jpg"},
		Stock:         7,
	})
	require.NoError(t, err)
	require.Equal(t, "gorila-glue-n-4", created.Slug)
	require.Equal(t, 25, *created.DiscountPercent)
	require.Equal(t, "feminizadas", created.Category.Slug)
	require.Equal(t, []string{"https://cdn.example.com/gg4.jpg"}, created.Images)

	_, err = f.svc.CreateProduct(ctx, CreateProductInput{Name: "Gorila Glue Nº 4", Price: decimal.NewFromInt(1)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = f.svc.CreateProduct(ctx, CreateProductInput{Name: "Grátis", Price: decimal.Zero, Stock: -1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]string)
	require.Contains(t, details, "price")
	require.Contains(t, details, "stock")

	missing := uuid.New()
	_, err = f.svc.CreateProduct(ctx, CreateProductInput{Name: "Orfã", Price: decimal.NewFromInt(1), CategoryID: &missing})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateProduct(ctx, CreateProductInput{Name: "Combo", Price: decimal.NewFromInt(1), IsCombo: true})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProductPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, models.Product{Name: "Skunk", Slug: "skunk", Price: decimal.NewFromInt(40), Stock: 2})

	stock := 9
	price := decimal.RequireFromString("42.50")
	updated, err := f.svc.UpdateProduct(ctx, p.ID, UpdateProductInput{Stock: &stock, Price: &price})
	require.NoError(t, err)
	require.Equal(t, 9, updated.Stock)
	require.True(t, updated.Price.Equal(price))
	require.Equal(t, "skunk", updated.Slug)

	_, err = f.svc.UpdateProduct(ctx, uuid.New(), UpdateProductInput{Stock: &stock})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateProductKeepsConcurrentStockDecrement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, models.Product{Name: "Gorilla Glue", Slug: "gorilla-glue", Price: decimal.NewFromInt(30), Stock: 5})

	// A checkout lands between the admin load and the write.
	armed := true
	conn := f.client.DB()
	require.NoError(t, conn.Callback().Query().After("gorm:query").Register("test:checkout_between", func(tx *gorm.DB) {
		if !armed || tx.Statement.Table != "products" {
			return
		}
		armed = false
		ok, err := f.repo.DecrementStock(context.Background(), p.ID, 3)
		if err != nil || !ok {
			t.Errorf("decrement during update: ok=%v err=%v", ok, err)
		}
	}))
	t.Cleanup(func() { _ = conn.Callback().Query().Remove("test:checkout_between") })

	price := decimal.NewFromInt(35)
	updated, err := f.svc.UpdateProduct(ctx, p.ID, UpdateProductInput{Price: &price})
	require.NoError(t, err)
	require.False(t, armed)
	require.True(t, updated.Price.Equal(price))
	require.Equal(t, 2, updated.Stock)
}

func TestDeleteProductKeepsOrderSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, models.Product{Name: "White Widow"})

	order := models.Order{UserID: uuid.New(), Total: decimal.NewFromInt(10)}
	require.NoError(t, f.client.DB().Create(&order).Error)
	item := models.OrderItem{OrderID: order.ID, ProductID: &p.ID, ProductName: p.Name, ProductPrice: p.Price, Quantity: 1}
	require.NoError(t, f.client.DB().Create(&item).Error)

	require.NoError(t, f.svc.DeleteProduct(ctx, p.ID))

	var reloaded models.OrderItem
	require.NoError(t, f.client.DB().First(&reloaded, "id = ?", item.ID).Error)
	require.Nil(t, reloaded.ProductID)
	require.Equal(t, "White Widow", reloaded.ProductName)

	err := f.svc.DeleteProduct(ctx, p.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestStockGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, models.Product{Name: "Last Unit", Stock: 1, CreatedAt: time.Now()})

	ok, err := f.repo.DecrementStock(ctx, p.ID, 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.repo.DecrementStock(ctx, p.ID, 1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, f.repo.RestoreStock(ctx, p.ID, 1))
	reloaded, err := f.repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Stock)
}
