package handlers

import (
	"net/http"

	"marketplace-backend/application/commands"
	"marketplace-backend/application/services"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MarketplaceHandler serves /marketplaces and the membership routes nested
// under it.
type MarketplaceHandler struct {
	base
	marketplaces *services.MarketplaceService
	memberships  *services.MembershipService
}

func NewMarketplaceHandler(marketplaces *services.MarketplaceService, memberships *services.MembershipService, errs *apperrors.ErrorHandler, logger *zap.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{
		base:         base{errors: errs, logger: logger},
		marketplaces: marketplaces,
		memberships:  memberships,
	}
}

// Create handles POST /marketplaces
func (h *MarketplaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateMarketplace
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.CallerID = callerID(r)

	res, err := h.marketplaces.Create(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusCreated, "Marketplace created successfully", res)
}

// Get handles GET /marketplaces/{id}
func (h *MarketplaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.marketplaces.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondView(w, "Marketplace retrieved successfully", view)
}

// List handles GET /marketplaces?status=
func (h *MarketplaceHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.marketplaces.List(r.Context(), commands.ListMarketplaces{
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondList(w, "Marketplaces retrieved successfully", "marketplaces", items)
}

// Update handles PUT /marketplaces/{id}
func (h *MarketplaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateMarketplace
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.MarketplaceID = chi.URLParam(r, "id")
	cmd.CallerID = callerID(r)

	res, err := h.marketplaces.Update(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Marketplace updated successfully", res)
}

// Delete handles DELETE /marketplaces/{id}
func (h *MarketplaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.marketplaces.Delete(r.Context(), commands.DeleteMarketplace{
		MarketplaceID: chi.URLParam(r, "id"),
		CallerID:      callerID(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Marketplace deleted successfully", res)
}

// Join handles POST /marketplaces/{id}/members
func (h *MarketplaceHandler) Join(w http.ResponseWriter, r *http.Request) {
	var cmd commands.JoinMarketplace
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.MarketplaceID = chi.URLParam(r, "id")
	cmd.CallerID = callerID(r)

	res, err := h.memberships.Join(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusCreated, "Membership requested successfully", res)
}

// ListMembers handles GET /marketplaces/{id}/members
func (h *MarketplaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	items, err := h.memberships.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondList(w, "Members retrieved successfully", "members", items)
}

// UpdateMember handles PUT /marketplaces/{id}/members/{userId}
func (h *MarketplaceHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateMembership
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.MarketplaceID = chi.URLParam(r, "id")
	cmd.UserID = chi.URLParam(r, "userId")
	cmd.CallerID = callerID(r)

	res, err := h.memberships.Update(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Membership updated successfully", res)
}

// Leave handles DELETE /marketplaces/{id}/members/{userId}
func (h *MarketplaceHandler) Leave(w http.ResponseWriter, r *http.Request) {
	res, err := h.memberships.Leave(r.Context(), commands.LeaveMarketplace{
		MarketplaceID: chi.URLParam(r, "id"),
		UserID:        chi.URLParam(r, "userId"),
		CallerID:      callerID(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Membership removed successfully", res)
}
