package maintenance

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-platform/internal/auth"
	"review-platform/internal/observability"
)

func newCleanupFixture(t *testing.T, cronSecret string) (*CleanupHandler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return NewCleanupHandler(auth.NewRepository(db), observability.NewLogger(), cronSecret, 100), mock
}

func TestCleanup_DisabledWithoutSecret(t *testing.T) {
	handler, _ := newCleanupFixture(t, "")

	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanup_RejectsBadSecret(t *testing.T) {
	handler, _ := newCleanupFixture(t, "cron-secret")

	for _, header := range []string{"", "Bearer wrong", "cron-secret"} {
		req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.Handle(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestCleanup_DeletesStaleRows(t *testing.T) {
	handler, mock := newCleanupFixture(t, "cron-secret")

	mock.ExpectExec(`DELETE FROM refresh_tokens t`).
		WithArgs(100).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(`DELETE FROM verification_tokens t`).
		WithArgs(100).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM password_reset_tokens t`).
		WithArgs(100).
		WillReturnResult(sqlmock.NewResult(0, 2))

	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted_refresh_tokens":7`)
	assert.Contains(t, rec.Body.String(), `"deleted_reset_tokens":2`)
}
