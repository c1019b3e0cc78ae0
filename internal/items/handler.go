package items

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/auth"
	"github.com/ayush/fundraiser/backend/internal/httpx"
	"github.com/ayush/fundraiser/backend/internal/models"
)

const maxImageSize = 5 << 20

// Handler holds item HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the owner routes under /api/users. They expect RequireAuth
// to run first.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/items", h.List)
	r.Post("/addItem", h.Add)
	r.Put("/editItem", h.Edit)
	r.Delete("/items/{itemID}", h.Delete)
	r.Post("/items/{itemID}/image", h.UploadImage)
	r.Post("/items/{itemID}/sell", h.Sell)
	r.Get("/sales", h.Sales)
	r.Put("/goal", h.SetGoal)
}

// PublicRoutes mounts the visitor routes.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/fundraisers/{accountID}", h.Fundraiser)
	r.Post("/fundraisers/{accountID}/items/{itemID}/interest", h.ShowInterest)
	r.Get("/images/*", h.Image)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, models.ItemsResponse{Items: items})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddItemRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	items, err := h.svc.AddItem(r.Context(), auth.AccountID(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, models.ItemsResponse{Items: items})
}

// Edit handles PUT /api/users/editItem and responds with the full item list.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req models.EditItemRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	items, err := h.svc.EditItem(r.Context(), auth.AccountID(r.Context()), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, models.ItemsResponse{Items: items})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.DeleteItem(r.Context(), auth.AccountID(r.Context()), chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, models.ItemsResponse{Items: items})
}

// UploadImage accepts a multipart "image" field.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+(1<<20))
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()
	if header.Size > maxImageSize {
		httpx.Error(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	items, err := h.svc.UploadImage(r.Context(),
		auth.AccountID(r.Context()), chi.URLParam(r, "itemID"),
		header.Filename, file, header.Size, header.Header.Get("Content-Type"),
	)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, models.ItemsResponse{Items: items})
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	sale, err := h.svc.SellItem(r.Context(), auth.AccountID(r.Context()), chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sale)
}

func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.Sales(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]models.Sale{"sales": sales})
}

func (h *Handler) SetGoal(w http.ResponseWriter, r *http.Request) {
	var req models.GoalRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := h.svc.SetGoal(r.Context(), auth.AccountID(r.Context()), req.Goal)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]models.PublicUser{"user": a.Public()})
}

func (h *Handler) Fundraiser(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Fundraiser(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) ShowInterest(w http.ResponseWriter, r *http.Request) {
	var req models.InterestRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.svc.ShowInterest(r.Context(), chi.URLParam(r, "accountID"), chi.URLParam(r, "itemID"), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"message": "interest recorded"})
}

// Image streams an uploaded image.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	rc, ct, err := h.svc.OpenImage(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		if !errors.Is(err, account.ErrNotFound) {
			slog.Warn("image open failed", "error", err)
		}
		httpx.Error(w, http.StatusNotFound, "image not available")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("image stream failed", "error", err)
	}
}
