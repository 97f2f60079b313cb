package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/seedshop-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/seedshop-backend/api/controllers/webhooks"
	"github.com/angelmondragon/seedshop-backend/api/middleware"
	"github.com/angelmondragon/seedshop-backend/internal/about"
	"github.com/angelmondragon/seedshop-backend/internal/admin"
	"github.com/angelmondragon/seedshop-backend/internal/cart"
	"github.com/angelmondragon/seedshop-backend/internal/categories"
	checkoutsvc "github.com/angelmondragon/seedshop-backend/internal/checkout"
	"github.com/angelmondragon/seedshop-backend/internal/orders"
	"github.com/angelmondragon/seedshop-backend/internal/payments"
	products "github.com/angelmondragon/seedshop-backend/internal/products"
	"github.com/angelmondragon/seedshop-backend/internal/users"
	"github.com/angelmondragon/seedshop-backend/pkg/config"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/seedshop-backend/pkg/redis"
)

var (
	checkoutPolicy = middleware.RateLimitPolicy{Name: "checkout", Limit: 10, Window: time.Minute}
	verifyPolicy   = middleware.RateLimitPolicy{Name: "payments-verify", Limit: 30, Window: time.Minute}
)

// Store backs request idempotency and rate limiting; *pkg/redis.Client
// satisfies it.
type Store interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type webhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type eventVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

type statsReader interface {
	Stats(ctx context.Context) (*admin.Stats, error)
}

// Deps carries every collaborator the HTTP surface needs.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Pingers map[string]controllers.Pinger
	Store   Store
	Metrics prometheus.Gatherer

	Products   products.Service
	Categories categories.Service
	About      about.Service
	Users      users.Service
	Cart       cart.Service
	Checkout   checkoutsvc.Service
	Payments   payments.Service
	Orders     orders.Service
	Stats      statsReader

	StripeEvents   eventVerifier
	StripeWebhooks webhookService
	WebhookGuard   webhookGuard
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.FrontendURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers))
	})
	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	r.Post("/api/v1/webhooks/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhooks, d.StripeEvents, d.WebhookGuard, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(d.Products, logg))
		r.Get("/products/featured", controllers.ListFeaturedProducts(d.Products, logg))
		r.Get("/products/{slug}", controllers.GetProduct(d.Products, logg))
		r.Get("/products/{slug}/combo-seeds", controllers.ListComboSeeds(d.Products, logg))
		r.Get("/categories", controllers.ListCategories(d.Categories, logg))
		r.Get("/categories/{slug}", controllers.GetCategory(d.Categories, logg))
		r.Get("/about", controllers.GetAbout(d.About, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Users, logg))
			r.Use(middleware.Idempotency(d.Store, logg))

			r.Get("/me", controllers.Me(d.Users, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(d.Cart, logg))
				r.Delete("/", controllers.ClearCart(d.Cart, logg))
				r.Post("/items", controllers.AddCartItem(d.Cart, logg))
				r.Put("/items/{productId}", controllers.UpdateCartItem(d.Cart, logg))
				r.Delete("/items/{productId}", controllers.RemoveCartItem(d.Cart, logg))
				r.Post("/combos", controllers.AddCartCombo(d.Cart, logg))
			})

			r.With(middleware.RateLimit(checkoutPolicy, d.Store, logg)).
				Post("/checkout", controllers.Checkout(d.Checkout, logg))
			r.With(middleware.RateLimit(verifyPolicy, d.Store, logg)).
				Post("/payments/verify", controllers.VerifyPayment(d.Payments, logg))

			r.Get("/orders", controllers.ListMyOrders(d.Orders, logg))
			r.Get("/orders/{orderId}", controllers.GetMyOrder(d.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Users, logg))
		r.Use(middleware.RequireRole(enums.AppRoleAdmin, logg))
		r.Use(middleware.Idempotency(d.Store, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(d.Products, logg))
			r.Post("/", controllers.AdminCreateProduct(d.Products, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(d.Products, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(d.Products, logg))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(d.Categories, logg))
			r.Post("/", controllers.AdminCreateCategory(d.Categories, logg))
			r.Patch("/{categoryId}", controllers.AdminUpdateCategory(d.Categories, logg))
			r.Delete("/{categoryId}", controllers.AdminDeleteCategory(d.Categories, logg))
		})
		r.Get("/orders", controllers.AdminListOrders(d.Orders, logg))
		r.Patch("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))
		r.Get("/users", controllers.AdminListUsers(d.Users, logg))
		r.Put("/users/{userId}/role", controllers.AdminSetUserRole(d.Users, logg))
		r.Get("/stats", controllers.AdminStats(d.Stats, logg))
		r.Put("/about", controllers.AdminUpdateAbout(d.About, logg))
	})

	return r
}
