// Package cryptofn holds the Lambda handlers behind the encryption and
// decryption gateway functions.
package cryptofn

import (
	"context"
	"errors"
	"net/http"

	"marketplace-backend/pkg/cipher"

	"go.uber.org/zap"
)

// Request is the gateway input. Text and EncryptedText carry a single value;
// Data carries a map of field name to value.
type Request struct {
	Text          string            `json:"text,omitempty"`
	EncryptedText string            `json:"encryptedText,omitempty"`
	Data          map[string]string `json:"data,omitempty"`
}

// Response mirrors an API Gateway proxy response so the functions can also
// sit behind HTTP.
type Response struct {
	StatusCode int          `json:"statusCode"`
	Body       ResponseBody `json:"body"`
}

type ResponseBody struct {
	EncryptedData interface{} `json:"encryptedData,omitempty"`
	DecryptedData interface{} `json:"decryptedData,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// Handler serves both directions with one cipher.
type Handler struct {
	cipher *cipher.FieldCipher
	logger *zap.Logger
}

func NewHandler(c *cipher.FieldCipher, logger *zap.Logger) *Handler {
	return &Handler{cipher: c, logger: logger}
}

// Encrypt handles the encryption function.
func (h *Handler) Encrypt(ctx context.Context, req Request) (Response, error) {
	switch {
	case req.Data != nil:
		out, err := h.cipher.EncryptFields(req.Data)
		if err != nil {
			return h.failure("encrypt", "Encryption failed", err), nil
		}
		return Response{StatusCode: http.StatusOK, Body: ResponseBody{EncryptedData: out}}, nil
	case req.Text != "":
		out, err := h.cipher.Encrypt(req.Text)
		if err != nil {
			return h.failure("encrypt", "Encryption failed", err), nil
		}
		return Response{StatusCode: http.StatusOK, Body: ResponseBody{EncryptedData: out}}, nil
	default:
		return badRequest("text or data is required"), nil
	}
}

// Decrypt handles the decryption function. Ciphertext that does not decode
// is answered with 400 so callers can tell a bad record from an outage.
func (h *Handler) Decrypt(ctx context.Context, req Request) (Response, error) {
	switch {
	case req.Data != nil:
		out, err := h.cipher.DecryptFields(req.Data)
		if err != nil {
			return h.failure("decrypt", "Decryption failed", err), nil
		}
		return Response{StatusCode: http.StatusOK, Body: ResponseBody{DecryptedData: out}}, nil
	case req.EncryptedText != "":
		out, err := h.cipher.Decrypt(req.EncryptedText)
		if err != nil {
			return h.failure("decrypt", "Decryption failed", err), nil
		}
		return Response{StatusCode: http.StatusOK, Body: ResponseBody{DecryptedData: out}}, nil
	default:
		return badRequest("encryptedText or data is required"), nil
	}
}

func (h *Handler) failure(direction, message string, err error) Response {
	if isInvalidCiphertext(err) {
		h.logger.Warn("Rejected ciphertext", zap.String("direction", direction), zap.Error(err))
		return badRequest(err.Error())
	}
	h.logger.Error("Cipher failure", zap.String("direction", direction), zap.Error(err))
	return Response{
		StatusCode: http.StatusInternalServerError,
		Body:       ResponseBody{Message: message},
	}
}

func isInvalidCiphertext(err error) bool {
	return errors.Is(err, cipher.ErrInvalidInput) ||
		errors.Is(err, cipher.ErrInvalidLength) ||
		errors.Is(err, cipher.ErrInvalidPadding)
}

func badRequest(message string) Response {
	return Response{StatusCode: http.StatusBadRequest, Body: ResponseBody{Message: message}}
}
