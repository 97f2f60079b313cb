package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/seedshop-backend/api/responses"
	"github.com/angelmondragon/seedshop-backend/api/validators"
	"github.com/angelmondragon/seedshop-backend/internal/about"
	"github.com/angelmondragon/seedshop-backend/internal/categories"
	productsvc "github.com/angelmondragon/seedshop-backend/internal/products"
	"github.com/angelmondragon/seedshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
)

const maxSearchLen = 100

// ListProducts serves the public catalog with optional category, search and sort.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		sort := enums.ProductSort(strings.TrimSpace(query.Get("sort")))
		if sort == "" {
			sort = enums.ProductSortNewest
		}
		if !sort.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort").
				WithDetails(map[string]string{"sort": "must be one of newest price-asc price-desc name"}))
			return
		}
		items, err := svc.ListProducts(r.Context(), productsvc.ListFilters{
			CategorySlug: strings.TrimSpace(query.Get("category")),
			Query:        validators.SanitizeString(query.Get("q"), maxSearchLen),
			Sort:         sort,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ListFeaturedProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListFeatured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.GetProduct(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListComboSeeds returns the seeds a customer may pick for the combo.
func ListComboSeeds(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seeds, err := svc.ListComboSeeds(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, seeds)
	}
}

func ListCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

func GetAbout(svc about.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, content)
	}
}
