package review

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-platform/internal/httpx"
	"review-platform/internal/user"
)

const (
	testReviewID  = "019236a0-0000-7000-8000-000000000001"
	testProductID = "019236a0-0000-7000-8000-000000000002"
	testUserID    = "019236a0-0000-7000-8000-000000000003"
	otherUserID   = "019236a0-0000-7000-8000-000000000004"
)

func newHandlerFixture(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return NewHandler(NewRepository(db)), mock
}

func reviewRows(ownerID string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "content", "rating", "user_id", "user_name", "product_id", "product_name", "created_at", "updated_at",
	}).AddRow(testReviewID, "Great product", 5, ownerID, "Alice", testProductID, "Keyboard", now, now)
}

func authedRequest(method, target, body, userID, role string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := httpx.ContextWithIdentity(req.Context(), httpx.Identity{UserID: userID, Email: "a@x.com", Role: role})
	return req.WithContext(ctx)
}

func TestCreate_Success(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM products`).
		WithArgs(testProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
		WithArgs(testUserID, testProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO reviews`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT rv.id, rv.content, rv.rating`).
		WillReturnRows(reviewRows(testUserID))

	req := authedRequest(http.MethodPost, "/reviews/"+testProductID, `{"content":"Great product","rating":5}`, testUserID, user.RoleUser)
	req.SetPathValue("productId", testProductID)
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Review created successfully")
}

func TestCreate_ProductNotFound(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM products`).
		WithArgs(testProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	req := authedRequest(http.MethodPost, "/reviews/"+testProductID, `{"content":"Great product","rating":5}`, testUserID, user.RoleUser)
	req.SetPathValue("productId", testProductID)
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product not found")
}

func TestCreate_DuplicateReview(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM products`).
		WithArgs(testProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
		WithArgs(testUserID, testProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	req := authedRequest(http.MethodPost, "/reviews/"+testProductID, `{"content":"Again","rating":4}`, testUserID, user.RoleUser)
	req.SetPathValue("productId", testProductID)
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have already reviewed this product")
}

func TestCreate_InvalidInput(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	cases := []struct {
		name    string
		target  string
		body    string
		message string
	}{
		{"bad product id", "not-a-uuid", `{"content":"x","rating":5}`, "Invalid product id"},
		{"empty content", testProductID, `{"content":"  ","rating":5}`, "Content is required"},
		{"rating too high", testProductID, `{"content":"x","rating":6}`, "Rating must be between 1 and 5"},
		{"rating too low", testProductID, `{"content":"x","rating":0}`, "Rating must be between 1 and 5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/reviews/"+tc.target, tc.body, testUserID, user.RoleUser)
			req.SetPathValue("productId", tc.target)
			rec := httptest.NewRecorder()
			handler.Create(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
		})
	}
}

func TestUpdate_OwnerOnly(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT rv.id, rv.content, rv.rating`).
		WithArgs(testReviewID).
		WillReturnRows(reviewRows(otherUserID))

	req := authedRequest(http.MethodPut, "/reviews/"+testReviewID, `{"content":"Edited","rating":3}`, testUserID, user.RoleUser)
	req.SetPathValue("id", testReviewID)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "You can only edit your own reviews")
}

func TestDelete_NonOwnerForbidden(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT rv.id, rv.content, rv.rating`).
		WithArgs(testReviewID).
		WillReturnRows(reviewRows(otherUserID))

	req := authedRequest(http.MethodDelete, "/reviews/"+testReviewID, "", testUserID, user.RoleUser)
	req.SetPathValue("id", testReviewID)
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "You can only delete your own reviews")
}

func TestDelete_AdminMayDeleteAnyReview(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT rv.id, rv.content, rv.rating`).
		WithArgs(testReviewID).
		WillReturnRows(reviewRows(otherUserID))
	mock.ExpectExec(`DELETE FROM reviews WHERE id`).
		WithArgs(testReviewID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := authedRequest(http.MethodDelete, "/admin/reviews/"+testReviewID, "", testUserID, user.RoleAdmin)
	req.SetPathValue("id", testReviewID)
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Review deleted successfully")
}

func TestDelete_ReviewNotFound(t *testing.T) {
	handler, mock := newHandlerFixture(t)

	mock.ExpectQuery(`SELECT rv.id, rv.content, rv.rating`).
		WithArgs(testReviewID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "content", "rating", "user_id", "user_name", "product_id", "product_name", "created_at", "updated_at",
		}))

	req := authedRequest(http.MethodDelete, "/reviews/"+testReviewID, "", testUserID, user.RoleUser)
	req.SetPathValue("id", testReviewID)
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Review not found")
}
