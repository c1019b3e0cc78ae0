package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/httpx"
	"github.com/ayush/fundraiser/backend/internal/models"
)

// Handler holds registration, login and session HTTP handlers.
type Handler struct {
	accounts *account.Repository
	sessions Sessions
}

func NewHandler(accounts *account.Repository, sessions Sessions) *Handler {
	return &Handler{accounts: accounts, sessions: sessions}
}

// Register creates an account and logs it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := h.accounts.Register(r.Context(), req.Username, req.Password, req.Goal)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	slog.Info("account registered", "account_id", acct.ID.Hex())

	if err := h.startSession(w, r, acct.ID.Hex()); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]models.PublicUser{"user": acct.Public()})
}

// Login authenticates an account and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	if err := h.startSession(w, r, acct.ID.Hex()); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]models.PublicUser{"user": acct.Public()})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, accountID string) error {
	sid, err := h.sessions.Create(r.Context(), accountID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
	return nil
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			slog.Warn("session delete failed", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the logged in account as {"user": {...}}.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.Get(r.Context(), AccountID(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]models.PublicUser{"user": acct.Public()})
}

// ChangePassword replaces the password after checking the current one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"currentPassword"`
		Next    string `json:"newPassword"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := h.accounts.Get(r.Context(), AccountID(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), acct, req.Current, req.Next); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
