package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc, err := NewTokenService("secret", "marketplace", time.Hour)
	require.NoError(t, err)

	token, err := svc.Issue("u1")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "marketplace", claims.Issuer)
}

func TestTokenService_Rejects(t *testing.T) {
	svc, err := NewTokenService("secret", "marketplace", time.Minute)
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := svc.Validate("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := NewTokenService("other", "marketplace", time.Minute)
		token, _ := other.Issue("u1")
		_, err := svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, _ := NewTokenService("secret", "someone-else", time.Minute)
		token, _ := other.Issue("u1")
		_, err := svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, _ := svc.Issue("u1")
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()
		_, err := svc.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", "marketplace", time.Hour)
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u1"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
}
