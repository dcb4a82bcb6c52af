package review

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"review-platform/internal/httpx"
	"review-platform/internal/user"
	"review-platform/internal/validate"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type createReviewRequest struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

type updateReviewRequest struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// Create posts a review on a product: one review per user per product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}

	productID := r.PathValue("productId")
	if _, err := uuid.Parse(productID); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var body createReviewRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.Content = strings.TrimSpace(body.Content)
	if body.Content == "" {
		httpx.FailMessage(w, http.StatusBadRequest, "Content is required")
		return
	}
	if !validate.Rating(body.Rating) {
		httpx.FailMessage(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	exists, err := h.repo.ProductExists(r.Context(), productID)
	if err != nil {
		httpx.Fail(w, err)
		return
	}
	if !exists {
		httpx.FailMessage(w, http.StatusNotFound, "Product not found")
		return
	}

	reviewed, err := h.repo.HasUserReview(r.Context(), identity.UserID, productID)
	if err != nil {
		httpx.Fail(w, err)
		return
	}
	if reviewed {
		httpx.FailMessage(w, http.StatusBadRequest, "You have already reviewed this product")
		return
	}

	rv, err := h.repo.Create(r.Context(), identity.UserID, productID, body.Content, body.Rating)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.Created(w, "Review created successfully", rv)
}

func (h *Handler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if _, err := uuid.Parse(productID); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	page, limit := httpx.ParsePagination(r)
	reviews, total, err := h.repo.ListByProduct(r.Context(), productID, page, limit)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.Paginated(w, "Reviews retrieved successfully", reviews, httpx.NewPagination(page, limit, total))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}

	page, limit := httpx.ParsePagination(r)
	reviews, total, err := h.repo.ListByUser(r.Context(), identity.UserID, page, limit)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.Paginated(w, "Reviews retrieved successfully", reviews, httpx.NewPagination(page, limit, total))
}

// Update edits the caller's own review.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid review id")
		return
	}

	var body updateReviewRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.Content = strings.TrimSpace(body.Content)
	if body.Rating != 0 && !validate.Rating(body.Rating) {
		httpx.FailMessage(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	existing, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.FailMessage(w, http.StatusNotFound, "Review not found")
			return
		}
		httpx.Fail(w, err)
		return
	}

	if existing.User.ID != identity.UserID {
		httpx.FailMessage(w, http.StatusForbidden, "You can only edit your own reviews")
		return
	}

	rv, err := h.repo.Update(r.Context(), id, body.Content, body.Rating)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Review updated successfully", rv)
}

// Delete removes the caller's own review; admins may remove any review.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid review id")
		return
	}

	existing, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.FailMessage(w, http.StatusNotFound, "Review not found")
			return
		}
		httpx.Fail(w, err)
		return
	}

	isAdmin := identity.Role == user.RoleAdmin
	if !isAdmin && existing.User.ID != identity.UserID {
		httpx.FailMessage(w, http.StatusForbidden, "You can only delete your own reviews")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.FailMessage(w, http.StatusNotFound, "Review not found")
			return
		}
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Review deleted successfully", nil)
}
