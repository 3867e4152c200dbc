package commands

import (
	"net/http"
	"testing"
	"time"

	apperrors "marketplace-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCreateCard_Validate(t *testing.T) {
	valid := CreateCard{ID: "c1", Title: "Foo", UserID: "u1", Status: "ACTIVE", CallerID: "u1"}

	tests := []struct {
		name   string
		mutate func(*CreateCard)
		status int
	}{
		{name: "valid", mutate: func(*CreateCard) {}},
		{name: "missing id", mutate: func(c *CreateCard) { c.ID = "" }, status: http.StatusBadRequest},
		{name: "missing title", mutate: func(c *CreateCard) { c.Title = "" }, status: http.StatusBadRequest},
		{name: "status outside card set", mutate: func(c *CreateCard) { c.Status = "OPEN" }, status: http.StatusBadRequest},
		{name: "other owner", mutate: func(c *CreateCard) { c.CallerID = "u2" }, status: http.StatusForbidden},
		{name: "unauthenticated caller", mutate: func(c *CreateCard) { c.CallerID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := valid
			tt.mutate(&cmd)
			err := cmd.Validate()
			if tt.status == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.status, apperrors.StatusOf(err))
		})
	}
}

func TestStatusSetsAreIndependent(t *testing.T) {
	// ACTIVE is valid for cards and marketplaces but not for auctions closing.
	assert.NoError(t, UpdateCard{ID: "c1", Status: strPtr("ACTIVE")}.Validate())
	assert.NoError(t, UpdateMarketplace{MarketplaceID: "m1", Status: strPtr("ACTIVE")}.Validate())
	assert.Error(t, CloseAuction{AuctionID: "a1", Status: "ACTIVE"}.Validate())

	// details is a message review state only.
	assert.NoError(t, ReviewMessage{MessageID: "m1", ReviewStatus: "details"}.Validate())
	assert.Error(t, ReviewListing{ListingID: "l1", ReviewStatus: "details"}.Validate())

	// ARCHIVED belongs to marketplaces only.
	assert.Error(t, UpdateCard{ID: "c1", Status: strPtr("ARCHIVED")}.Validate())
	assert.Error(t, UpdateMembership{MarketplaceID: "m", UserID: "u", Status: "ARCHIVED"}.Validate())
}

func TestPartialUpdatesNeedAField(t *testing.T) {
	err := UpdateCard{ID: "c1"}.Validate()
	assert.True(t, apperrors.IsBadRequest(err))

	err = UpdateListing{ListingID: "l1"}.Validate()
	assert.True(t, apperrors.IsBadRequest(err))

	err = UpdateUser{UserID: "u1", Bio: strPtr("")}.Validate()
	assert.NoError(t, err)
}

func TestCreateListing_Validate(t *testing.T) {
	cmd := CreateListing{MarketplaceID: "m1", SellerID: "u1", Title: "Lamp", Price: 10, Currency: "USD"}
	assert.NoError(t, cmd.Validate())

	cmd.Price = 0
	assert.True(t, apperrors.IsBadRequest(cmd.Validate()))

	cmd.Price = 10
	cmd.Currency = "JPY"
	assert.True(t, apperrors.IsBadRequest(cmd.Validate()))
}

func TestCreateAuction_Validate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cmd := CreateAuction{ListingID: "l1", SellerID: "u1", StartingPrice: 5, EndsAt: "2024-01-02T00:00:00Z"}
	assert.NoError(t, cmd.Validate(now))

	cmd.EndsAt = "2023-12-31T00:00:00Z"
	assert.True(t, apperrors.IsBadRequest(cmd.Validate(now)))

	cmd.EndsAt = "tomorrow"
	assert.True(t, apperrors.IsBadRequest(cmd.Validate(now)))
}

func TestRegisterUser_Validate(t *testing.T) {
	cmd := RegisterUser{Email: "a@example.com", Username: "alice", Password: "correct horse"}
	assert.NoError(t, cmd.Validate())

	cmd.Email = "not-an-email"
	assert.True(t, apperrors.IsBadRequest(cmd.Validate()))
}
