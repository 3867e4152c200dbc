package handlers

import (
	"net/http"

	"marketplace-backend/application/commands"
	"marketplace-backend/application/services"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ListingHandler serves /listings and /marketplaces/{id}/listings.
type ListingHandler struct {
	base
	listings *services.ListingService
}

func NewListingHandler(listings *services.ListingService, errs *apperrors.ErrorHandler, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{base: base{errors: errs, logger: logger}, listings: listings}
}

// Create handles POST /listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateListing
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.CallerID = callerID(r)

	res, err := h.listings.Create(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusCreated, "Listing created successfully", res)
}

// Get handles GET /listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondView(w, "Listing retrieved successfully", view)
}

// ListByMarketplace handles GET /marketplaces/{id}/listings
func (h *ListingHandler) ListByMarketplace(w http.ResponseWriter, r *http.Request) {
	items, err := h.listings.ListByMarketplace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondList(w, "Listings retrieved successfully", "listings", items)
}

// Update handles PUT /listings/{id}
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateListing
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.ListingID = chi.URLParam(r, "id")
	cmd.CallerID = callerID(r)

	res, err := h.listings.Update(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Listing updated successfully", res)
}

// Review handles PUT /listings/{id}/review
func (h *ListingHandler) Review(w http.ResponseWriter, r *http.Request) {
	var cmd commands.ReviewListing
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.ListingID = chi.URLParam(r, "id")
	cmd.CallerID = callerID(r)

	res, err := h.listings.Review(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Listing reviewed successfully", res)
}

// Delete handles DELETE /listings/{id}
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.listings.Delete(r.Context(), commands.DeleteListing{
		ListingID: chi.URLParam(r, "id"),
		CallerID:  callerID(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Listing deleted successfully", res)
}
