package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/utafrali/ShopyKart/internal/repository"
	"github.com/utafrali/ShopyKart/internal/service"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/httputil"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

// ProductHandler handles catalog endpoints.
type ProductHandler struct {
	products *service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a product handler.
func NewProductHandler(products *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// CreateProductRequest is the body of POST /api/v1/products.
type CreateProductRequest struct {
	Name           string            `json:"name" validate:"required,notblank,max=200"`
	Category       string            `json:"category" validate:"required,notblank,max=100"`
	Brand          string            `json:"brand" validate:"max=100"`
	Description    string            `json:"description" validate:"max=5000"`
	Specifications map[string]string `json:"specifications"`
	ImageRef       string            `json:"image_ref" validate:"max=2048"`
	Price          int64             `json:"price" validate:"gte=0"`
	OriginalPrice  int64             `json:"original_price" validate:"gte=0"`
	Discount       int               `json:"discount" validate:"gte=0,lte=100"`
	Stock          int               `json:"stock" validate:"gte=0"`
	Featured       bool              `json:"featured"`
	Rating         float64           `json:"rating" validate:"gte=0,lte=5"`
}

// UpdateProductRequest is the body of PUT /api/v1/products/{id}. Absent fields
// are left unchanged.
type UpdateProductRequest struct {
	Name           *string           `json:"name" validate:"omitempty,notblank,max=200"`
	Category       *string           `json:"category" validate:"omitempty,notblank,max=100"`
	Brand          *string           `json:"brand" validate:"omitempty,max=100"`
	Description    *string           `json:"description" validate:"omitempty,max=5000"`
	Specifications map[string]string `json:"specifications"`
	ImageRef       *string           `json:"image_ref" validate:"omitempty,max=2048"`
	Price          *int64            `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice  *int64            `json:"original_price" validate:"omitempty,gte=0"`
	Discount       *int              `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Stock          *int              `json:"stock" validate:"omitempty,gte=0"`
	Sold           *int              `json:"sold" validate:"omitempty,gte=0"`
	Featured       *bool             `json:"featured"`
	Rating         *float64          `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// ListProducts handles GET /api/v1/products.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	filter := repository.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Page:     page,
	}
	if raw := r.URL.Query().Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("featured must be true or false"), h.logger)
			return
		}
		filter.Featured = &featured
	}

	products, total, err := h.products.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(products, total, page))
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLUUID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httputil.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), service.CreateProductInput{
		Name:           req.Name,
		Category:       req.Category,
		Brand:          req.Brand,
		Description:    req.Description,
		Specifications: req.Specifications,
		ImageRef:       req.ImageRef,
		Price:          req.Price,
		OriginalPrice:  req.OriginalPrice,
		Discount:       req.Discount,
		Stock:          req.Stock,
		Featured:       req.Featured,
		Rating:         req.Rating,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/{id}.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := httputil.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), id, service.UpdateProductInput{
		Name:           req.Name,
		Category:       req.Category,
		Brand:          req.Brand,
		Description:    req.Description,
		Specifications: req.Specifications,
		ImageRef:       req.ImageRef,
		Price:          req.Price,
		OriginalPrice:  req.OriginalPrice,
		Discount:       req.Discount,
		Stock:          req.Stock,
		Sold:           req.Sold,
		Featured:       req.Featured,
		Rating:         req.Rating,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
