package middleware

import (
	"net/http"
	"strings"

	"marketplace-backend/pkg/auth"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Authenticate resolves the caller and stores it on the request context.
//
// Behind API Gateway the authorizer has already run, so its claims are
// trusted: a JWT authorizer's "sub" claim, or the "sub"/"userId" value of a
// Lambda authorizer. Otherwise the Authorization header must carry a bearer
// token this service issued.
func Authenticate(tokens TokenValidator, errs *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := gatewayUser(r)
			if userID == "" {
				token, ok := bearerToken(r)
				if !ok {
					errs.Handle(w, r, apperrors.NewUnauthorized("Missing authorization header"))
					return
				}
				claims, err := tokens.Validate(token)
				if err != nil {
					errs.Handle(w, r, apperrors.NewUnauthorized("Invalid token").WithCause(err))
					return
				}
				userID = claims.UserID
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func gatewayUser(r *http.Request) string {
	proxyCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
	if !ok || proxyCtx.Authorizer == nil {
		return ""
	}
	if jwt := proxyCtx.Authorizer.JWT; jwt != nil && jwt.Claims["sub"] != "" {
		return jwt.Claims["sub"]
	}
	for _, key := range []string{"sub", "userId"} {
		if id, ok := proxyCtx.Authorizer.Lambda[key].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
