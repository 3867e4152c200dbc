package handlers

import (
	"net/http"

	"marketplace-backend/application/commands"
	"marketplace-backend/application/services"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MessageHandler serves /messages and /users/{userId}/messages.
type MessageHandler struct {
	base
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService, errs *apperrors.ErrorHandler, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{base: base{errors: errs, logger: logger}, messages: messages}
}

// Send handles POST /messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SendMessage
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.CallerID = callerID(r)

	res, err := h.messages.Send(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusCreated, "Message sent successfully", res)
}

// Get handles GET /messages/{id}
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.messages.Get(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondView(w, "Message retrieved successfully", view)
}

// Inbox handles GET /users/{userId}/messages
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	items, err := h.messages.Inbox(r.Context(), chi.URLParam(r, "userId"), callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondList(w, "Messages retrieved successfully", "messages", items)
}

// Pending handles GET /messages/pending
func (h *MessageHandler) Pending(w http.ResponseWriter, r *http.Request) {
	res, err := h.messages.Pending(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Messages == nil {
		res.Messages = []map[string]any{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message":   "Pending messages retrieved successfully",
		"messages":  res.Messages,
		"count":     len(res.Messages),
		"forwarded": res.Forwarded,
	})
}

// Review handles PUT /messages/{id}/review
func (h *MessageHandler) Review(w http.ResponseWriter, r *http.Request) {
	var cmd commands.ReviewMessage
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.MessageID = chi.URLParam(r, "id")
	cmd.CallerID = callerID(r)

	res, err := h.messages.Review(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Message reviewed successfully", res)
}

// Delete handles DELETE /messages/{id}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.messages.Delete(r.Context(), commands.DeleteMessage{
		MessageID: chi.URLParam(r, "id"),
		CallerID:  callerID(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "Message deleted successfully", res)
}
