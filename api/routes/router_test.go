package routes

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/seedshop-backend/api/controllers"
	"github.com/angelmondragon/seedshop-backend/internal/admin"
	"github.com/angelmondragon/seedshop-backend/internal/cart"
	products "github.com/angelmondragon/seedshop-backend/internal/products"
	"github.com/angelmondragon/seedshop-backend/internal/users"
	"github.com/angelmondragon/seedshop-backend/pkg/auth"
	"github.com/angelmondragon/seedshop-backend/pkg/config"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgredis "github.com/angelmondragon/seedshop-backend/pkg/redis"
)

var testJWT = config.JWTConfig{Secret: "router-secret", Issuer: "https://auth.seedshop.test", Audience: "authenticated"}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubProducts struct {
	products.Service
}

func (stubProducts) ListProducts(ctx context.Context, filters products.ListFilters) ([]products.ProductDTO, error) {
	return []products.ProductDTO{{ID: uuid.New(), Name: "Northern Lights", Slug: "northern-lights"}}, nil
}

type stubUsers struct {
	users.Service
	role enums.AppRole
}

func (s stubUsers) RoleFor(context.Context, uuid.UUID) (enums.AppRole, error) {
	return s.role, nil
}

type stubCart struct {
	cart.Service
}

func (stubCart) Get(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{Items: []cart.Item{}}, nil
}

type stubStats struct{}

func (stubStats) Stats(context.Context) (*admin.Stats, error) {
	return &admin.Stats{TotalProducts: 4}, nil
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", pkgredis.ErrNil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		s.data[key] = v
	case []byte:
		s.data[key] = string(v)
	}
	return true, nil
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *memoryStore) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return true, 1, nil
}

func newTestRouter(role enums.AppRole, pingErr error) http.Handler {
	cfg := &config.Config{
		App: config.AppConfig{Env: "dev", FrontendURL: "http://localhost:8080"},
		JWT: testJWT,
	}
	return NewRouter(Deps{
		Config:   cfg,
		Pingers:  map[string]controllers.Pinger{"db": stubPinger{}, "redis": stubPinger{err: pingErr}},
		Store:    newMemoryStore(),
		Metrics:  prometheus.NewRegistry(),
		Products: stubProducts{},
		Users:    stubUsers{role: role},
		Cart:     stubCart{},
		Stats:    stubStats{},
	})
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), time.Hour, auth.AccessTokenPayload{UserID: uuid.New(), Email: "ana@example.com"})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(enums.AppRoleUser, nil)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "dev", rec.Header().Get("X-Seedshop-Env"))

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	failing := newTestRouter(enums.AppRoleUser, errors.New("connection refused"))
	rec = serve(failing, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestRouter(enums.AppRoleUser, nil), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicCatalogIsAnonymous(t *testing.T) {
	rec := serve(newTestRouter(enums.AppRoleUser, nil), httptest.NewRequest(http.MethodGet, "/api/v1/products?sort=price-asc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "northern-lights")

	rec = serve(newTestRouter(enums.AppRoleUser, nil), httptest.NewRequest(http.MethodGet, "/api/v1/products?sort=rating", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRequiresToken(t *testing.T) {
	router := newTestRouter(enums.AppRoleUser, nil)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", bearer(t))
	rec = serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", bearer(t))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(newTestRouter(enums.AppRoleUser, nil), req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Idempotency-Key")
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/stats", nil)
	req.Header.Set("Authorization", bearer(t))
	rec := serve(newTestRouter(enums.AppRoleUser, nil), req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/stats", nil)
	req.Header.Set("Authorization", bearer(t))
	rec = serve(newTestRouter(enums.AppRoleAdmin, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_products":4`)
}
