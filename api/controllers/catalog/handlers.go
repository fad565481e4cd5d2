package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arcanium-studios/arcanium-backend/api/responses"
	"github.com/arcanium-studios/arcanium-backend/api/validators"
	catalogsvc "github.com/arcanium-studios/arcanium-backend/internal/catalog"
	pkgerrors "github.com/arcanium-studios/arcanium-backend/pkg/errors"
	"github.com/arcanium-studios/arcanium-backend/pkg/logger"
)

const maxCategoryLength = 64

// ProductList returns the catalog, optionally filtered by ?category=.
func ProductList(provider catalogsvc.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		category, err := validators.ParseQueryString(r, "category", maxCategoryLength)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if category == "" {
			category = catalogsvc.AllCategories
		}

		products := provider.List(category)
		out := ProductListResponse{
			Category:   category,
			Categories: provider.Categories(),
			Products:   make([]ProductResponse, 0, len(products)),
		}
		for _, p := range products {
			out.Products = append(out.Products, newProductResponse(p))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductDetail returns a single product.
func ProductDetail(provider catalogsvc.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		product, ok := provider.Get(productID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}
