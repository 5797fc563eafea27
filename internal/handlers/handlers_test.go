package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Seungho-Jeong/accountbooks/internal/auth"
	"github.com/Seungho-Jeong/accountbooks/internal/service"
	"github.com/Seungho-Jeong/accountbooks/internal/storage"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens := auth.NewTokenIssuer("test-secret")
	users := service.NewUsers(db, tokens)
	expenses := service.NewExpenses(db)

	return NewHandlers(users, expenses, tokens, zap.NewNop()).Router()
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// signUpAndIn registers a user and returns the session token.
func signUpAndIn(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	creds := `{"email": "` + email + `", "password": "secret1!"}`
	w := doRequest(t, router, http.MethodPost, "/user/sign-up/", "", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/user/sign-in/", "", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token, ok := decodeBody(t, w)["Authorization"].(string)
	require.True(t, ok, "sign-in response must carry the token")
	return token
}

func TestSignUpFlow(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/user/sign-up/", "",
		`{"email": "user@example.com", "password": "secret1!"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "sign-up success.", decodeBody(t, w)["message"])

	// Taking the same email again reports duplication.
	w = doRequest(t, router, http.MethodPost, "/user/sign-up/", "",
		`{"email": "user@example.com", "password": "other1!!"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "'user@example.com' is already.", decodeBody(t, w)["error"])
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/user/sign-up/", "",
		`{"email": "user@example.com", "password": "abc13579"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t,
		"passwords must be at least 8 characters long and contain alphanumeric characters and special characters.",
		decodeBody(t, w)["error"])
}

func TestSignInWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	signUpAndIn(t, router, "user@example.com")

	w := doRequest(t, router, http.MethodPost, "/user/sign-in/", "",
		`{"email": "user@example.com", "password": "wrong1!!"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid 'email' or 'password'.", decodeBody(t, w)["error"])
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(t)

	// No header at all: the credential is missing.
	w := doRequest(t, router, http.MethodGet, "/expenses/", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "login required.", decodeBody(t, w)["error"])

	// A header that does not verify is a bad credential, not a missing one.
	w = doRequest(t, router, http.MethodGet, "/expenses/", "garbage-token", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid token.", decodeBody(t, w)["error"])

	// A well-formed token for a user that no longer exists.
	orphan, err := auth.NewTokenIssuer("test-secret").Issue(999)
	require.NoError(t, err)
	w = doRequest(t, router, http.MethodGet, "/expenses/", orphan, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "login required.", decodeBody(t, w)["error"])
}

func TestExpenseLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token := signUpAndIn(t, router, "user@example.com")

	// Starts empty, serialized as [].
	w := doRequest(t, router, http.MethodGet, "/expenses/", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decodeBody(t, w)["expenses"])

	w = doRequest(t, router, http.MethodPost, "/expenses/new/", token,
		`{"title": "Lunch", "date": "2026-08-01", "amount": 12000, "description": "team lunch"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "new expense created successfully.", decodeBody(t, w)["message"])

	w = doRequest(t, router, http.MethodGet, "/expenses/", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody(t, w)["expenses"].([]any)
	require.Len(t, list, 1)
	summary := list[0].(map[string]any)
	assert.Equal(t, "Lunch", summary["title"])
	assert.Equal(t, "2026-08-01", summary["date"])
	assert.Equal(t, float64(12000), summary["amount"])
	assert.NotContains(t, summary, "description", "list rows carry the summary projection only")

	w = doRequest(t, router, http.MethodGet, "/expenses/1/", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	expense := decodeBody(t, w)["expense"].(map[string]any)
	assert.Equal(t, "team lunch", expense["description"])
	assert.Contains(t, expense, "created_at")

	w = doRequest(t, router, http.MethodPut, "/expenses/1/", token, `{"amount": 15000}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "'id: 1' modified successfully.", decodeBody(t, w)["message"])

	// Delete moves it to the deleted listing.
	w = doRequest(t, router, http.MethodDelete, "/expenses/1/", token, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/expenses/1/", token, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found.", decodeBody(t, w)["error"])

	w = doRequest(t, router, http.MethodGet, "/expenses/deleted/", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	deleted := decodeBody(t, w)["deleted_expenses"].([]any)
	require.Len(t, deleted, 1)

	w = doRequest(t, router, http.MethodGet, "/expenses/deleted/1/", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	record := decodeBody(t, w)["deleted_expense"].(map[string]any)
	assert.Equal(t, "Lunch", record["title"])
	assert.Contains(t, record, "deleted_at")

	// Restore brings it back with a fresh id and no deletion timestamp.
	w = doRequest(t, router, http.MethodDelete, "/expenses/deleted/1/", token, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, http.MethodGet, "/expenses/", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	restored := decodeBody(t, w)["expenses"].([]any)
	require.Len(t, restored, 1)
	assert.Equal(t, "Lunch", restored[0].(map[string]any)["title"])
}

func TestExpenseOwnershipAcrossUsers(t *testing.T) {
	router := newTestRouter(t)
	ownerToken := signUpAndIn(t, router, "owner@example.com")
	strangerToken := signUpAndIn(t, router, "stranger@example.com")

	w := doRequest(t, router, http.MethodPost, "/expenses/new/", ownerToken,
		`{"title": "Lunch", "date": "2026-08-01", "amount": 12000}`)
	require.Equal(t, http.StatusCreated, w.Code)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w = doRequest(t, router, method, "/expenses/1/", strangerToken, `{"amount": 1}`)
		require.Equal(t, http.StatusForbidden, w.Code, method)
		assert.Equal(t, "permission denied.", decodeBody(t, w)["error"])
	}

	// The stranger's own listing stays empty.
	w = doRequest(t, router, http.MethodGet, "/expenses/", strangerToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["expenses"])
}

func TestExpenseValidationStatuses(t *testing.T) {
	router := newTestRouter(t)
	token := signUpAndIn(t, router, "user@example.com")

	longTitle := strings.Repeat("a", 256)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"missing title", `{"date": "2026-08-01", "amount": 1}`, 400, "'title' is required."},
		{"title too long", `{"title": "` + longTitle + `", "date": "2026-08-01", "amount": 1}`, 413, "'title' too long. (max: 255)"},
		{"bad date", `{"title": "Lunch", "date": "bad", "amount": 1}`, 400, "date format must be 'yyyy-mm-dd'."},
		{"negative amount", `{"title": "Lunch", "date": "2026-08-01", "amount": -1}`, 400, "'amount' must not be negative."},
		{"not json", `nope`, 400, "invalid json."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/expenses/new/", token, tt.body)
			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decodeBody(t, w)["error"])
		})
	}
}

func TestListFilterParams(t *testing.T) {
	router := newTestRouter(t)
	token := signUpAndIn(t, router, "user@example.com")

	seed := []string{
		`{"title": "Morning coffee", "date": "2026-08-01", "amount": 4500}`,
		`{"title": "Bus ticket", "date": "2026-08-02", "amount": 1500}`,
		`{"title": "Coffee beans", "date": "2026-08-10", "amount": 18000}`,
	}
	for _, body := range seed {
		w := doRequest(t, router, http.MethodPost, "/expenses/new/", token, body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(t, router, http.MethodGet, "/expenses/?keyword=coffee", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["expenses"], 2)

	w = doRequest(t, router, http.MethodGet, "/expenses/?date=2026-08-02", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["expenses"], 1)

	w = doRequest(t, router, http.MethodGet, "/expenses/?start-date=2026-08-01&end-date=2026-08-05", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["expenses"], 2)

	w = doRequest(t, router, http.MethodGet, "/expenses/?start-date=2026-08-31&end-date=2026-08-01", token, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "'end-date' must greater than 'start-date'.", decodeBody(t, w)["error"])
}

func TestNonNumericIDIsNotFound(t *testing.T) {
	router := newTestRouter(t)
	token := signUpAndIn(t, router, "user@example.com")

	w := doRequest(t, router, http.MethodGet, "/expenses/abc/", token, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found.", decodeBody(t, w)["error"])
}
