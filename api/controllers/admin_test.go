package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/seedshop-backend/internal/orders"
	productsvc "github.com/angelmondragon/seedshop-backend/internal/products"
	"github.com/angelmondragon/seedshop-backend/internal/users"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	"github.com/angelmondragon/seedshop-backend/pkg/pagination"
)

type fakeAdminProducts struct {
	productsvc.Service
	created productsvc.CreateProductInput
	updated productsvc.UpdateProductInput
}

func (f *fakeAdminProducts) CreateProduct(_ context.Context, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	f.created = input
	return &productsvc.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (f *fakeAdminProducts) UpdateProduct(_ context.Context, _ uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	f.updated = input
	return &productsvc.ProductDTO{}, nil
}

type fakeAdminOrders struct {
	orders.Service
	params  pagination.Params
	filters orders.AdminOrderFilters
	update  orders.UpdateStatusInput
}

func (f *fakeAdminOrders) AdminList(_ context.Context, params pagination.Params, filters orders.AdminOrderFilters) (*orders.OrderList, error) {
	f.params, f.filters = params, filters
	return &orders.OrderList{Items: []orders.OrderDTO{}}, nil
}

func (f *fakeAdminOrders) UpdateStatus(_ context.Context, input orders.UpdateStatusInput) (*orders.OrderDTO, error) {
	f.update = input
	return &orders.OrderDTO{ID: input.OrderID, Status: input.Status}, nil
}

type fakeAdminUsers struct {
	users.Service
	role enums.AppRole
}

func (f *fakeAdminUsers) SetRole(_ context.Context, userID uuid.UUID, role enums.AppRole) (*users.UserDTO, error) {
	f.role = role
	return &users.UserDTO{ID: userID, Role: role}, nil
}

func TestAdminCreateProduct(t *testing.T) {
	svc := &fakeAdminProducts{}
	body := `{"name":"Combo Indica","price":"149.90","stock":10,"is_combo":true,"combo_seed_type":"indica","combo_quantity":3}`
	rec := serveHandler(AdminCreateProduct(svc, nil), jsonRequest(http.MethodPost, "/api/admin/v1/products", body))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.True(t, svc.created.Price.Equal(decimal.RequireFromString("149.90")))
	require.True(t, svc.created.IsCombo)
	require.Equal(t, 3, *svc.created.ComboQuantity)
}

func TestAdminCreateProductRejectsNegativeStock(t *testing.T) {
	svc := &fakeAdminProducts{}
	rec := serveHandler(AdminCreateProduct(svc, nil), jsonRequest(http.MethodPost, "/api/admin/v1/products", `{"name":"A","price":"1","stock":-1}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "stock")
}

func TestAdminUpdateProductPartial(t *testing.T) {
	svc := &fakeAdminProducts{}
	id := uuid.New()
	req := withURLParams(jsonRequest(http.MethodPatch, "/api/admin/v1/products/"+id.String(), `{"stock":7}`), map[string]string{"productId": id.String()})
	rec := serveHandler(AdminUpdateProduct(svc, nil), req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.updated.Stock)
	require.Equal(t, 7, *svc.updated.Stock)
	require.Nil(t, svc.updated.Price)
}

func TestAdminListOrdersFilters(t *testing.T) {
	svc := &fakeAdminOrders{}
	rec := serveHandler(AdminListOrders(svc, nil), httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?status=paid&limit=10&cursor=abc", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 10, svc.params.Limit)
	require.Equal(t, "abc", svc.params.Cursor)
	require.NotNil(t, svc.filters.Status)
	require.Equal(t, enums.OrderStatusPaid, *svc.filters.Status)

	rec = serveHandler(AdminListOrders(svc, nil), httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?status=lost", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	svc := &fakeAdminOrders{}
	orderID, adminID := uuid.New(), uuid.New()
	req := withURLParams(jsonRequest(http.MethodPatch, "/api/admin/v1/orders/"+orderID.String()+"/status", `{"status":"shipped"}`), map[string]string{"orderId": orderID.String()})
	req = withUser(req, adminID, string(enums.AppRoleAdmin))
	rec := serveHandler(AdminUpdateOrderStatus(svc, nil), req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, orderID, svc.update.OrderID)
	require.Equal(t, enums.OrderStatusShipped, svc.update.Status)
	require.Equal(t, adminID, svc.update.ActorUserID)
}

func TestAdminSetUserRoleValidatesRole(t *testing.T) {
	svc := &fakeAdminUsers{}
	userID := uuid.New()
	req := withURLParams(jsonRequest(http.MethodPut, "/api/admin/v1/users/"+userID.String()+"/role", `{"role":"owner"}`), map[string]string{"userId": userID.String()})
	rec := serveHandler(AdminSetUserRole(svc, nil), req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = withURLParams(jsonRequest(http.MethodPut, "/api/admin/v1/users/"+userID.String()+"/role", `{"role":"admin"}`), map[string]string{"userId": userID.String()})
	rec = serveHandler(AdminSetUserRole(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, enums.AppRoleAdmin, svc.role)
}
