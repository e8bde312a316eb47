package controllers

import (
	"net/http"

	"github.com/viraldeals/viraldeals-backend/api/responses"
	"github.com/viraldeals/viraldeals-backend/api/validators"
	productsvc "github.com/viraldeals/viraldeals-backend/internal/products"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
)

// ProductsList serves the public catalog with filters and cursor pagination.
func ProductsList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := productsvc.ListInput{
			Pagination: pageParams(r),
			Filters: productsvc.ListFilters{
				PriceMin: queryInt(r, "price_min"),
				PriceMax: queryInt(r, "price_max"),
				InStock:  queryBool(r, "in_stock"),
				Query:    r.URL.Query().Get("q"),
			},
		}
		if raw := r.URL.Query().Get("category"); raw != "" {
			category := enums.ProductCategory(raw)
			if !category.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown category"))
				return
			}
			input.Filters.Category = &category
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ProductsGet serves a single product detail page.
func ProductsGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetDetail(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

type createProductRequest struct {
	SKU         string   `json:"sku" validate:"required,max=64"`
	Name        string   `json:"name" validate:"required,max=200"`
	Description *string  `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       int      `json:"price" validate:"required,min=1"`
	MRP         *int     `json:"mrp,omitempty" validate:"omitempty,min=1"`
	Stock       int      `json:"stock" validate:"min=0"`
	Images      []string `json:"images,omitempty"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
}

// AdminProductsCreate registers a new catalog listing.
func AdminProductsCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Create(r.Context(), productsvc.CreateInput{
			SKU:         payload.SKU,
			Name:        payload.Name,
			Description: payload.Description,
			Category:    enums.ProductCategory(payload.Category),
			Price:       payload.Price,
			MRP:         payload.MRP,
			Stock:       payload.Stock,
			Images:      payload.Images,
			Rating:      payload.Rating,
			IsActive:    true,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

type updateProductRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Price       *int      `json:"price,omitempty" validate:"omitempty,min=1"`
	MRP         *int      `json:"mrp,omitempty" validate:"omitempty,min=1"`
	Stock       *int      `json:"stock,omitempty" validate:"omitempty,min=0"`
	Images      *[]string `json:"images,omitempty"`
	Rating      *float64  `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

// AdminProductsUpdate applies a partial update to a listing.
func AdminProductsUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			MRP:         payload.MRP,
			Stock:       payload.Stock,
			Images:      payload.Images,
			Rating:      payload.Rating,
			IsActive:    payload.IsActive,
		}
		if payload.Category != nil {
			category := enums.ProductCategory(*payload.Category)
			if !category.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown category"))
				return
			}
			input.Category = &category
		}

		detail, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// AdminProductsDeactivate hides a listing from the storefront.
func AdminProductsDeactivate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
