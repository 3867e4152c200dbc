package handlers

import (
	"net/http"

	"marketplace-backend/application/commands"
	"marketplace-backend/application/services"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuctionHandler serves /auctions and their bids.
type AuctionHandler struct {
	base
	auctions *services.AuctionService
}

func NewAuctionHandler(auctions *services.AuctionService, errs *apperrors.ErrorHandler, logger *zap.Logger) *AuctionHandler {
	return &AuctionHandler{base: base{errors: errs, logger: logger}, auctions: auctions}
}

// Create handles POST /auctions
func (h *AuctionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateAuction
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.CallerID = callerID(r)

	res, err := h.auctions.Create(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusCreated, "Auction created successfully", res)
}

// Get handles GET /auctions/{id}
func (h *AuctionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.auctions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondView(w, "Auction retrieved successfully", view)
}

// PlaceBid handles POST /auctions/{id}/bids
func (h *AuctionHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var cmd commands.PlaceBid
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.AuctionID = chi.URLParam(r, "id")
	cmd.CallerID = callerID(r)

	res, err := h.auctions.PlaceBid(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusCreated, "Bid placed successfully", res)
}

// ListBids handles GET /auctions/{id}/bids
func (h *AuctionHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	items, err := h.auctions.ListBids(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondList(w, "Bids retrieved successfully", "bids", items)
}

// Close handles PUT /auctions/{id}/close
func (h *AuctionHandler) Close(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CloseAuction
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.AuctionID = chi.URLParam(r, "id")
	cmd.CallerID = callerID(r)

	res, err := h.auctions.Close(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Auction closed successfully", res)
}
