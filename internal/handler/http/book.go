package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/BookstoreGo/internal/repository"
	"github.com/utafrali/BookstoreGo/internal/service"
	"github.com/utafrali/BookstoreGo/pkg/httputil"
	"github.com/utafrali/BookstoreGo/pkg/middleware"
	"github.com/utafrali/BookstoreGo/pkg/validator"
)

// BookHandler handles HTTP requests for catalog endpoints.
type BookHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewBookHandler creates a new catalog HTTP handler.
func NewBookHandler(svc *service.CatalogService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateBookRequest is the JSON request body for creating a book.
type CreateBookRequest struct {
	Title         string   `json:"title" validate:"required,max=500"`
	Author        string   `json:"author" validate:"required,max=300"`
	Description   string   `json:"description" validate:"max=5000"`
	ISBN          string   `json:"isbn" validate:"required,min=10,max=17"`
	Price         int64    `json:"price" validate:"required,gte=0"`
	OriginalPrice *int64   `json:"original_price" validate:"omitempty,gte=0"`
	Category      string   `json:"category" validate:"required"`
	Subcategory   string   `json:"subcategory"`
	Format        string   `json:"format" validate:"required"`
	Language      string   `json:"language"`
	Pages         *int     `json:"pages" validate:"omitempty,gte=1"`
	Publisher     string   `json:"publisher"`
	PublishDate   *string  `json:"publish_date"`
	CoverImage    string   `json:"cover_image" validate:"omitempty,url"`
	Tags          []string `json:"tags" validate:"max=20,dive,max=50"`
	Stock         int      `json:"stock" validate:"gte=0"`
	Discount      int      `json:"discount" validate:"gte=0,lte=100"`
	Featured      bool     `json:"featured"`
	Bestseller    bool     `json:"bestseller"`
	NewRelease    bool     `json:"new_release"`
}

// UpdateBookRequest is the JSON request body for partially updating a book.
type UpdateBookRequest struct {
	Title         *string  `json:"title" validate:"omitempty,max=500"`
	Author        *string  `json:"author" validate:"omitempty,max=300"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	Price         *int64   `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice *int64   `json:"original_price" validate:"omitempty,gte=0"`
	Category      *string  `json:"category"`
	Subcategory   *string  `json:"subcategory"`
	Format        *string  `json:"format"`
	Language      *string  `json:"language"`
	Pages         *int     `json:"pages" validate:"omitempty,gte=1"`
	Publisher     *string  `json:"publisher"`
	PublishDate   *string  `json:"publish_date"`
	CoverImage    *string  `json:"cover_image" validate:"omitempty,url"`
	Tags          []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Stock         *int     `json:"stock" validate:"omitempty,gte=0"`
	Discount      *int     `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Featured      *bool    `json:"featured"`
	Bestseller    *bool    `json:"bestseller"`
	NewRelease    *bool    `json:"new_release"`
}

func parsePublishDate(w http.ResponseWriter, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "publish_date must be in YYYY-MM-DD format"},
		})
		return nil, false
	}
	return &t, true
}

// --- Handlers ---

// ListBooks handles GET /api/v1/books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	filter := repository.BookFilter{
		Page:    1,
		PerPage: 20,
	}

	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return
		}
		filter.Page = page
	}
	if v := q.Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return
		}
		filter.PerPage = perPage
	}
	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}
	if v := q.Get("format"); v != "" {
		filter.Format = &v
	}
	if v := q.Get("language"); v != "" {
		filter.Language = &v
	}
	if v := q.Get("author"); v != "" {
		filter.Author = &v
	}
	if v := q.Get("min_price"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil || p < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must be a non-negative integer (cents)"},
			})
			return
		}
		filter.MinPrice = &p
	}
	if v := q.Get("max_price"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil || p < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "max_price must be a non-negative integer (cents)"},
			})
			return
		}
		filter.MaxPrice = &p
	}
	if v := q.Get("min_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 || rating > 5 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_rating must be a number between 0 and 5"},
			})
			return
		}
		filter.MinRating = &rating
	}
	if v := q.Get("featured"); v != "" {
		b := v == "true"
		filter.Featured = &b
	}
	if v := q.Get("bestseller"); v != "" {
		b := v == "true"
		filter.Bestseller = &b
	}
	if v := q.Get("new_release"); v != "" {
		b := v == "true"
		filter.NewRelease = &b
	}
	if v := q.Get("stock_status"); v != "" {
		switch v {
		case repository.StockStatusIn, repository.StockStatusOut, repository.StockStatusLow:
			filter.StockStatus = &v
		default:
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "stock_status must be in_stock, out_of_stock or low_stock"},
			})
			return
		}
	}
	filter.Search = q.Get("search")
	filter.SortBy = q.Get("sort_by")

	isAdmin := middleware.RoleFromContext(r.Context()) == "admin"
	if isAdmin && q.Get("include_inactive") == "true" {
		filter.IncludeInactive = true
	}

	books, total, err := h.service.ListBooks(r.Context(), filter, isAdmin)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(books, total, filter.Page, filter.PerPage))
}

// GetBook handles GET /api/v1/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	isAdmin := middleware.RoleFromContext(r.Context()) == "admin"

	book, err := h.service.GetBook(r.Context(), id.String(), isAdmin)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// CreateBook handles POST /api/v1/admin/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	publishDate, ok := parsePublishDate(w, req.PublishDate)
	if !ok {
		return
	}

	book, err := h.service.CreateBook(r.Context(), service.CreateBookInput{
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		ISBN:          req.ISBN,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Format:        req.Format,
		Language:      req.Language,
		Pages:         req.Pages,
		Publisher:     req.Publisher,
		PublishDate:   publishDate,
		CoverImage:    req.CoverImage,
		Tags:          req.Tags,
		Stock:         req.Stock,
		Discount:      req.Discount,
		Featured:      req.Featured,
		Bestseller:    req.Bestseller,
		NewRelease:    req.NewRelease,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: book})
}

// UpdateBook handles PUT /api/v1/admin/books/{id}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	publishDate, ok := parsePublishDate(w, req.PublishDate)
	if !ok {
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id.String(), service.UpdateBookInput{
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Format:        req.Format,
		Language:      req.Language,
		Pages:         req.Pages,
		Publisher:     req.Publisher,
		PublishDate:   publishDate,
		CoverImage:    req.CoverImage,
		Tags:          req.Tags,
		Stock:         req.Stock,
		Discount:      req.Discount,
		Featured:      req.Featured,
		Bestseller:    req.Bestseller,
		NewRelease:    req.NewRelease,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// DeleteBook handles DELETE /api/v1/admin/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeactivateBook(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
