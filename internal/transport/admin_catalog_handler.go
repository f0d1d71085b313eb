package transport

import (
	"net/http"
	"strconv"
	"strings"

	"tienda-api/internal/middleware"
	"tienda-api/internal/repository"
	"tienda-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryRequest is the JSON payload for category create/update
type CategoryRequest struct {
	Name         string  `json:"name" validate:"required"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"display_order"`
}

// AdminCatalogHandler serves the back-office catalog endpoints. Product
// forms arrive as multipart because of the optional image upload;
// categories are plain JSON.
type AdminCatalogHandler struct {
	adminService service.AdminCatalogService
	logger       *zap.Logger
}

// NewAdminCatalogHandler creates a new AdminCatalogHandler
func NewAdminCatalogHandler(adminService service.AdminCatalogService, logger *zap.Logger) *AdminCatalogHandler {
	return &AdminCatalogHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// RegisterRoutes registers the admin catalog routes behind the gate
func (h *AdminCatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
		r.Post("/{id}/toggle-availability", h.ToggleAvailability)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
}

// ListProducts returns all products, newest first
func (h *AdminCatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.adminService.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// CreateProduct inserts a product, uploading the image first when provided
func (h *AdminCatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, verrs, err := h.parseProductForm(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if len(verrs) > 0 {
		middleware.RespondWithValidationErrors(w, verrs)
		return
	}

	product, err := h.adminService.CreateProduct(r.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct updates a product; a new image replaces the stored one
func (h *AdminCatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	input, verrs, err := h.parseProductForm(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if len(verrs) > 0 {
		middleware.RespondWithValidationErrors(w, verrs)
		return
	}

	product, err := h.adminService.UpdateProduct(r.Context(), id, input)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to update product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product
func (h *AdminCatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteProduct(r.Context(), id); err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// ToggleAvailability flips the binary stock flag
func (h *AdminCatalogHandler) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	product, err := h.adminService.ToggleAvailability(r.Context(), id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to toggle availability", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to toggle availability")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListCategories returns all categories in display order
func (h *AdminCatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.adminService.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// CreateCategory inserts a category
func (h *AdminCatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.adminService.CreateCategory(r.Context(), service.CategoryInput{
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		if err == repository.ErrCategoryAlreadyExists {
			middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
			return
		}

		h.logger.Error("Failed to create category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// UpdateCategory updates a category
func (h *AdminCatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.adminService.UpdateCategory(r.Context(), id, service.CategoryInput{
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		switch err {
		case repository.ErrCategoryNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
		case repository.ErrCategoryAlreadyExists:
			middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
		default:
			h.logger.Error("Failed to update category", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update category")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// DeleteCategory removes a category
func (h *AdminCatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteCategory(r.Context(), id); err != nil {
		if err == repository.ErrCategoryNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}

		h.logger.Error("Failed to delete category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// parseProductForm reads the multipart product form shared by create and
// update. Blank stock defaults to 0; blank category means no category.
func (h *AdminCatalogHandler) parseProductForm(r *http.Request) (service.ProductInput, []middleware.ValidationError, error) {
	var input service.ProductInput

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return input, nil, err
	}

	var verrs []middleware.ValidationError

	input.Name = strings.TrimSpace(r.FormValue("name"))
	if input.Name == "" {
		verrs = append(verrs, middleware.ValidationError{Field: "name", Message: "This field is required"})
	}

	priceText := strings.TrimSpace(r.FormValue("price"))
	if priceText == "" {
		verrs = append(verrs, middleware.ValidationError{Field: "price", Message: "This field is required"})
	} else if price, err := strconv.ParseFloat(priceText, 64); err != nil || price < 0 {
		verrs = append(verrs, middleware.ValidationError{Field: "price", Message: "Must be a non-negative number"})
	} else {
		input.Price = price
	}

	if description := r.FormValue("description"); description != "" {
		input.Description = &description
	}

	if categoryText := strings.TrimSpace(r.FormValue("category_id")); categoryText != "" {
		categoryID, err := uuid.Parse(categoryText)
		if err != nil {
			verrs = append(verrs, middleware.ValidationError{Field: "category_id", Message: "Invalid value"})
		} else {
			input.CategoryID = &categoryID
		}
	}

	stock := 0
	if stockText := strings.TrimSpace(r.FormValue("stock")); stockText != "" {
		parsed, err := strconv.Atoi(stockText)
		if err != nil || parsed < 0 {
			verrs = append(verrs, middleware.ValidationError{Field: "stock", Message: "Must be a non-negative whole number"})
		} else {
			stock = parsed
		}
	}
	input.Stock = &stock

	image, err := formUpload(r, "image")
	if err != nil {
		return input, nil, err
	}
	input.Image = image

	return input, verrs, nil
}

// parseIDParam parses the {id} route parameter, responding 400 on failure
func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
