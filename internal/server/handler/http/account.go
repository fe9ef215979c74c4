// Package http provides HTTP handlers for managing accounts, their tags
// and their authentication type.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/atinyakov/GophAccounts/internal/middleware"
	"github.com/atinyakov/GophAccounts/internal/models"
	"github.com/atinyakov/GophAccounts/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AccountService defines the account operations required by the HTTP handlers.
type AccountService interface {
	Validate(models.Account) models.ValidationErrors
	Create(ctx context.Context, a models.Account) (models.Account, error)
	Get(ctx context.Context, id string) (models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Update(ctx context.Context, a models.Account) (models.Account, error)
	Delete(ctx context.Context, id string) error
	AddTag(ctx context.Context, id, text string) (models.Account, error)
	RemoveTag(ctx context.Context, id string, index int) (models.Account, error)
	EditTag(ctx context.Context, id string, index int, text string) (models.Account, error)
	SetType(ctx context.Context, id string, t models.AccountType) (models.Account, error)
}

// AccountHandler handles HTTP requests for accounts.
type AccountHandler struct {
	// AccountService performs the underlying account operations.
	AccountService AccountService
	// Logger records failures that are hidden from the client.
	Logger *zap.Logger
}

// TagRequest is the JSON payload for adding or editing a tag.
type TagRequest struct {
	Text string `json:"text"`
}

// TypeRequest is the JSON payload for switching the account type.
type TypeRequest struct {
	Type string `json:"type"`
}

// Create handles POST /api/accounts.
// Invalid accounts are answered with 422 and the validation flags.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Account
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	account, err := h.AccountService.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// List handles GET /api/accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.AccountService.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Get handles GET /api/accounts/{id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.AccountService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Update handles PUT /api/accounts/{id}. The path ID wins over any ID in the body.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.Account
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.ID = chi.URLParam(r, "id")

	account, err := h.AccountService.Update(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Delete handles DELETE /api/accounts/{id}.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.AccountService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Validate handles POST /api/accounts/validate. Nothing is stored.
// A missing type is rejected the same way Create rejects it.
func (h *AccountHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.Account
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if !req.Type.IsValid() {
		h.writeError(w, r, fmt.Errorf("%w: %q", models.ErrUnknownAccountType, req.Type))
		return
	}
	writeJSON(w, http.StatusOK, h.AccountService.Validate(req))
}

// AddTag handles POST /api/accounts/{id}/tags.
func (h *AccountHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	account, err := h.AccountService.AddTag(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// EditTag handles PUT /api/accounts/{id}/tags/{index}.
func (h *AccountHandler) EditTag(w http.ResponseWriter, r *http.Request) {
	index, ok := tagIndex(w, r)
	if !ok {
		return
	}
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	account, err := h.AccountService.EditTag(r.Context(), chi.URLParam(r, "id"), index, req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// RemoveTag handles DELETE /api/accounts/{id}/tags/{index}.
func (h *AccountHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	index, ok := tagIndex(w, r)
	if !ok {
		return
	}

	account, err := h.AccountService.RemoveTag(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// SetType handles PUT /api/accounts/{id}/type.
func (h *AccountHandler) SetType(w http.ResponseWriter, r *http.Request) {
	var req TypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	t, err := models.ParseAccountType(req.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := h.AccountService.SetType(r.Context(), chi.URLParam(r, "id"), t)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Health handles GET /api/health.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func tagIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid tag index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (h *AccountHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if flags, ok := service.IsInvalidAccount(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, flags)
		return
	}

	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		http.Error(w, "account not found", http.StatusNotFound)
	case errors.Is(err, service.ErrLoginTaken):
		http.Error(w, "login already taken", http.StatusConflict)
	case errors.Is(err, models.ErrTagIndexOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrUnknownAccountType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		if h.Logger != nil {
			h.Logger.Error("account request failed",
				zap.String("path", r.URL.Path),
				zap.String("operator", middleware.GetOperatorFromContext(r.Context())),
				zap.Error(err),
			)
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
