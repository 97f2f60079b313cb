package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/seedshop-backend/api/middleware"
	"github.com/angelmondragon/seedshop-backend/api/responses"
	"github.com/angelmondragon/seedshop-backend/api/validators"
	"github.com/angelmondragon/seedshop-backend/internal/about"
	"github.com/angelmondragon/seedshop-backend/internal/admin"
	"github.com/angelmondragon/seedshop-backend/internal/categories"
	"github.com/angelmondragon/seedshop-backend/internal/orders"
	productsvc "github.com/angelmondragon/seedshop-backend/internal/products"
	"github.com/angelmondragon/seedshop-backend/internal/users"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/pagination"
)

type createProductRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	Slug          string           `json:"slug" validate:"omitempty,max=200"`
	Description   *string          `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	Images        []string         `json:"images,omitempty" validate:"omitempty,dive,url"`
	Stock         int              `json:"stock" validate:"gte=0"`
	IsNew         bool             `json:"is_new"`
	IsPromo       bool             `json:"is_promo"`
	Genetics      *string          `json:"genetics,omitempty"`
	FloweringTime *string          `json:"flowering_time,omitempty"`
	THCLevel      *string          `json:"thc_level,omitempty"`
	CBDLevel      *string          `json:"cbd_level,omitempty"`
	YieldInfo     *string          `json:"yield_info,omitempty"`
	IsCombo       bool             `json:"is_combo"`
	ComboSeedType *string          `json:"combo_seed_type,omitempty"`
	ComboQuantity *int             `json:"combo_quantity,omitempty" validate:"omitempty,gt=0"`
	DisplayOrder  int              `json:"display_order"`
}

type updateProductRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Slug          *string          `json:"slug,omitempty" validate:"omitempty,max=200"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	Images        *[]string        `json:"images,omitempty"`
	Stock         *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsNew         *bool            `json:"is_new,omitempty"`
	IsPromo       *bool            `json:"is_promo,omitempty"`
	Genetics      *string          `json:"genetics,omitempty"`
	FloweringTime *string          `json:"flowering_time,omitempty"`
	THCLevel      *string          `json:"thc_level,omitempty"`
	CBDLevel      *string          `json:"cbd_level,omitempty"`
	YieldInfo     *string          `json:"yield_info,omitempty"`
	IsCombo       *bool            `json:"is_combo,omitempty"`
	ComboSeedType *string          `json:"combo_seed_type,omitempty"`
	ComboQuantity *int             `json:"combo_quantity,omitempty" validate:"omitempty,gt=0"`
	DisplayOrder  *int             `json:"display_order,omitempty"`
}

type categoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type updateAboutRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Mission  *string `json:"mission,omitempty"`
	Vision   *string `json:"vision,omitempty"`
	Values   *string `json:"values,omitempty"`
	ImageURL *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// statsReader is satisfied by *admin.StatsService.
type statsReader interface {
	Stats(ctx context.Context) (*admin.Stats, error)
}

var _ statsReader = (*admin.StatsService)(nil)

func AdminListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.AdminListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), productsvc.CreateProductInput{
			Name:          body.Name,
			Slug:          body.Slug,
			Description:   body.Description,
			Price:         body.Price,
			OriginalPrice: body.OriginalPrice,
			CategoryID:    body.CategoryID,
			Images:        body.Images,
			Stock:         body.Stock,
			IsNew:         body.IsNew,
			IsPromo:       body.IsPromo,
			Genetics:      body.Genetics,
			FloweringTime: body.FloweringTime,
			THCLevel:      body.THCLevel,
			CBDLevel:      body.CBDLevel,
			YieldInfo:     body.YieldInfo,
			IsCombo:       body.IsCombo,
			ComboSeedType: body.ComboSeedType,
			ComboQuantity: body.ComboQuantity,
			DisplayOrder:  body.DisplayOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), productID, productsvc.UpdateProductInput{
			Name:          body.Name,
			Slug:          body.Slug,
			Description:   body.Description,
			Price:         body.Price,
			OriginalPrice: body.OriginalPrice,
			CategoryID:    body.CategoryID,
			Images:        body.Images,
			Stock:         body.Stock,
			IsNew:         body.IsNew,
			IsPromo:       body.IsPromo,
			Genetics:      body.Genetics,
			FloweringTime: body.FloweringTime,
			THCLevel:      body.THCLevel,
			CBDLevel:      body.CBDLevel,
			YieldInfo:     body.YieldInfo,
			IsCombo:       body.IsCombo,
			ComboSeedType: body.ComboSeedType,
			ComboQuantity: body.ComboQuantity,
			DisplayOrder:  body.DisplayOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AdminCreateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body categoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := categories.CreateInput{Description: body.Description, ImageURL: body.ImageURL}
		if body.Name != nil {
			input.Name = *body.Name
		}
		if body.Slug != nil {
			input.Slug = *body.Slug
		}
		category, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func AdminUpdateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body categoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Update(r.Context(), categoryID, categories.UpdateInput{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
			ImageURL:    body.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

func AdminDeleteCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AdminListOrders pages through every order, newest first, optionally by status.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filters orders.AdminOrderFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}
		page, err := svc.AdminList(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}
		order, err := svc.UpdateStatus(ctx, orders.UpdateStatusInput{
			OrderID:     orderID,
			Status:      status,
			ActorUserID: middleware.UserIDFromContext(ctx),
			ActorRole:   middleware.RoleFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AdminListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func AdminSetUserRole(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body setRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseAppRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}
		user, err := svc.SetRole(r.Context(), userID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func AdminStats(svc statsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AdminUpdateAbout(svc about.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateAboutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		content, err := svc.Update(r.Context(), about.UpdateInput{
			Title:    body.Title,
			Content:  body.Content,
			Mission:  body.Mission,
			Vision:   body.Vision,
			Values:   body.Values,
			ImageURL: body.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, content)
	}
}
