// Package handlers adapts HTTP requests to the entity services. Handlers
// only decode, attach the caller and path parameters, and encode; all
// validation and authorization lives in the services.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"marketplace-backend/pkg/auth"
	apperrors "marketplace-backend/pkg/errors"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

type base struct {
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// decode reads a JSON body into v. An empty body leaves v untouched so that
// required fields are reported by validation rather than as a parse error.
func (b base) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewBadRequest("Invalid request body").WithCause(err)
	}
	return nil
}

func (b base) respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondResult writes result with a top level message next to its fields.
func (b base) respondResult(w http.ResponseWriter, r *http.Request, status int, message string, result interface{}) {
	body := map[string]interface{}{}
	raw, err := json.Marshal(result)
	if err == nil {
		err = json.Unmarshal(raw, &body)
	}
	if err != nil {
		b.fail(w, r, apperrors.NewUnexpected("An internal error occurred", err))
		return
	}
	body["message"] = message
	b.respond(w, status, body)
}

// respondView writes one decrypted record with a top level message.
func (b base) respondView(w http.ResponseWriter, message string, view map[string]any) {
	body := make(map[string]interface{}, len(view)+1)
	for k, v := range view {
		body[k] = v
	}
	body["message"] = message
	b.respond(w, http.StatusOK, body)
}

func (b base) respondList(w http.ResponseWriter, message, name string, items []map[string]any) {
	if items == nil {
		items = []map[string]any{}
	}
	b.respond(w, http.StatusOK, map[string]interface{}{
		"message": message,
		name:      items,
		"count":   len(items),
	})
}

func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	b.errors.Handle(w, r, err)
}

// callerID is the authenticated user, or empty on public routes.
func callerID(r *http.Request) string {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return ""
	}
	return user.UserID
}
