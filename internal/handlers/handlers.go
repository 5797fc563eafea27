// Package handlers exposes the REST API and the authorization middleware.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Seungho-Jeong/accountbooks/internal/apperr"
	"github.com/Seungho-Jeong/accountbooks/internal/auth"
	"github.com/Seungho-Jeong/accountbooks/internal/service"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	users    *service.Users
	expenses *service.Expenses
	tokens   *auth.TokenIssuer
	log      *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(users *service.Users, expenses *service.Expenses, tokens *auth.TokenIssuer, log *zap.Logger) *Handlers {
	return &Handlers{users: users, expenses: expenses, tokens: tokens, log: log}
}

// Router builds the API router. Routes are registered without trailing
// slashes; StripSlashes makes the Django-style slash-suffixed paths
// clients already use resolve to the same handlers.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Route("/user", func(r chi.Router) {
		r.Post("/sign-up", h.SignUp)
		r.Post("/sign-in", h.SignIn)
	})

	r.Route("/expenses", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Get("/", h.ListExpenses)
		r.Post("/new", h.CreateExpense)
		r.Get("/deleted", h.ListDeletedExpenses)
		r.Get("/deleted/{id}", h.GetDeletedExpense)
		r.Delete("/deleted/{id}", h.RestoreExpense)
		r.Get("/{id}", h.GetExpense)
		r.Put("/{id}", h.UpdateExpense)
		r.Delete("/{id}", h.DeleteExpense)
	})

	return r
}

// SignUp registers a new user.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.users.SignUp(body); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "sign-up success."})
}

// SignIn checks credentials and returns the token for the Authorization
// header.
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	token, err := h.users.SignIn(body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "sign-in success.",
		"Authorization": token,
	})
}

// ListExpenses returns the caller's active expenses, optionally filtered
// by keyword, date, or date range.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r)
	params := r.URL.Query()

	expenses, err := h.expenses.List(caller.ID, service.ListQuery{
		Keyword:   params.Get("keyword"),
		Date:      params.Get("date"),
		StartDate: params.Get("start-date"),
		EndDate:   params.Get("end-date"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

// CreateExpense registers a new expense owned by the caller.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.expenses.Create(caller.ID, body); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "new expense created successfully."})
}

// GetExpense returns the full record of one active expense.
func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r)
	id, err := expenseID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	expense, err := h.expenses.Get(caller.ID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expense": expense})
}

// UpdateExpense applies a partial edit to an expense the caller owns.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r)
	id, err := expenseID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.expenses.Edit(caller.ID, id, body); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("'id: %d' modified successfully.", id),
	})
}

// DeleteExpense moves an expense the caller owns into the deleted table.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r)
	id, err := expenseID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.expenses.Delete(caller.ID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDeletedExpenses returns the caller's deleted expenses.
func (h *Handlers) ListDeletedExpenses(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r)
	expenses, err := h.expenses.ListDeleted(caller.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted_expenses": expenses})
}

// GetDeletedExpense returns the full record of one deleted expense,
// including its deletion timestamp.
func (h *Handlers) GetDeletedExpense(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r)
	id, err := expenseID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	expense, err := h.expenses.GetDeleted(caller.ID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted_expense": expense})
}

// RestoreExpense moves a deleted expense the caller owns back into the
// active table.
func (h *Handlers) RestoreExpense(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r)
	id, err := expenseID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.expenses.Restore(caller.ID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// expenseID parses the {id} path parameter. A non-numeric id does not
// address any resource, so it is NotFound rather than a validation error.
func expenseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.NotFound()
	}
	return id, nil
}

func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if e := apperr.From(err); e != nil {
		writeJSON(w, e.Status, map[string]string{"error": e.Message})
		return
	}
	h.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error."})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
