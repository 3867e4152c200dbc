package handlers

import (
	"net/http"

	"marketplace-backend/application/commands"
	"marketplace-backend/application/services"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CardHandler serves /cards and /users/{userId}/cards.
type CardHandler struct {
	base
	cards *services.CardService
}

func NewCardHandler(cards *services.CardService, errs *apperrors.ErrorHandler, logger *zap.Logger) *CardHandler {
	return &CardHandler{base: base{errors: errs, logger: logger}, cards: cards}
}

// Create handles POST /cards
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateCard
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.CallerID = callerID(r)

	res, err := h.cards.Create(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusCreated, "Card created successfully", res)
}

// Get handles GET /cards/{id}
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.cards.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondView(w, "Card retrieved successfully", view)
}

// ListByUser handles GET /users/{userId}/cards
func (h *CardHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	items, err := h.cards.ListByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondList(w, "Cards retrieved successfully", "cards", items)
}

// Update handles PUT /cards/{id}
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateCard
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.ID = chi.URLParam(r, "id")
	cmd.CallerID = callerID(r)

	res, err := h.cards.Update(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Card updated successfully", res)
}

// Delete handles DELETE /cards/{id}
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.cards.Delete(r.Context(), commands.DeleteCard{
		ID:       chi.URLParam(r, "id"),
		CallerID: callerID(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Card deleted successfully", res)
}
