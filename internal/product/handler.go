package product

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"review-platform/internal/httpx"
	"review-platform/internal/media"
)

const (
	maxImageSizeBytes = 5 << 20
	imageFolder       = "products"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ImageHost is the slice of the media client the catalog needs.
type ImageHost interface {
	UploadImage(ctx context.Context, imageSource, folder string) (string, error)
	DeleteImage(ctx context.Context, publicID string) error
}

type Handler struct {
	repo   *Repository
	images ImageHost
}

func NewHandler(repo *Repository, images ImageHost) *Handler {
	return &Handler{repo: repo, images: images}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := httpx.ParsePagination(r)

	products, total, err := h.repo.List(r.Context(), page, limit)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.Paginated(w, "Products retrieved successfully", products, httpx.NewPagination(page, limit, total))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		httpx.FailMessage(w, http.StatusBadRequest, "Search query is required")
		return
	}

	page, limit := httpx.ParsePagination(r)
	products, total, err := h.repo.Search(r.Context(), query, page, limit)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.Paginated(w, "Products retrieved successfully", products, httpx.NewPagination(page, limit, total))
}

func (h *Handler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	if !ValidCategory(category) {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid product category")
		return
	}

	page, limit := httpx.ParsePagination(r)
	products, total, err := h.repo.ListByCategory(r.Context(), category, page, limit)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.Paginated(w, "Products retrieved successfully", products, httpx.NewPagination(page, limit, total))
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	p, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.FailMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Product retrieved successfully", p)
}

// Create handles the admin multipart form: name, description, category, and
// an optional image file that goes to the external host.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, imageSource, ok := parseProductForm(w, r, true)
	if !ok {
		return
	}

	var imageURL *string
	if imageSource != "" {
		uploaded, err := h.images.UploadImage(r.Context(), imageSource, imageFolder)
		if err != nil {
			httpx.FailMessage(w, http.StatusBadGateway, "Failed to upload image")
			return
		}
		imageURL = &uploaded
	}

	p, err := h.repo.Create(r.Context(), input, imageURL)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.Created(w, "Product created successfully", p)
}

// Update replaces provided fields. A new image replaces and deletes the old
// hosted asset.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	existing, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.FailMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		httpx.Fail(w, err)
		return
	}

	input, imageSource, ok := parseProductForm(w, r, false)
	if !ok {
		return
	}

	var imageURL *string
	if imageSource != "" {
		uploaded, err := h.images.UploadImage(r.Context(), imageSource, imageFolder)
		if err != nil {
			httpx.FailMessage(w, http.StatusBadGateway, "Failed to upload image")
			return
		}
		imageURL = &uploaded

		if existing.ImageURL != nil {
			if publicID := media.PublicIDFromURL(*existing.ImageURL); publicID != "" {
				_ = h.images.DeleteImage(r.Context(), publicID)
			}
		}
	}

	p, err := h.repo.Update(r.Context(), id, input, imageURL)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Product updated successfully", p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	existing, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.FailMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		httpx.Fail(w, err)
		return
	}

	if existing.ImageURL != nil {
		if publicID := media.PublicIDFromURL(*existing.ImageURL); publicID != "" {
			_ = h.images.DeleteImage(r.Context(), publicID)
		}
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.FailMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Product deleted successfully", nil)
}

// parseProductForm reads the multipart form. With required set, name and
// category must be present; otherwise empty fields mean "keep current". The
// optional image file comes back as a base64 data URI.
func parseProductForm(w http.ResponseWriter, r *http.Request, required bool) (Input, string, bool) {
	if err := r.ParseMultipartForm(maxImageSizeBytes); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return Input{}, "", false
	}

	input := Input{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Category:    strings.TrimSpace(r.FormValue("category")),
	}

	if required {
		if input.Name == "" {
			httpx.FailMessage(w, http.StatusBadRequest, "Name is required")
			return Input{}, "", false
		}
		if input.Category == "" {
			httpx.FailMessage(w, http.StatusBadRequest, "Category is required")
			return Input{}, "", false
		}
	}
	if input.Category != "" && !ValidCategory(input.Category) {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid product category")
		return Input{}, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return input, "", true
		}
		httpx.FailMessage(w, http.StatusBadRequest, "Failed to read image")
		return Input{}, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSizeBytes+1))
	if err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Failed to read image")
		return Input{}, "", false
	}
	if len(data) == 0 {
		httpx.FailMessage(w, http.StatusBadRequest, "Image file is empty")
		return Input{}, "", false
	}
	if len(data) > maxImageSizeBytes {
		httpx.FailMessage(w, http.StatusBadRequest, "File size exceeds 5MB limit")
		return Input{}, "", false
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !allowedImageTypes[strings.ToLower(contentType)] {
		httpx.FailMessage(w, http.StatusBadRequest, "Image must be JPEG, PNG or WebP")
		return Input{}, "", false
	}

	imageSource := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	return input, imageSource, true
}
