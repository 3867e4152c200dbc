package commands

import "time"

// Auction status values.
const (
	AuctionOpen      = "OPEN"
	AuctionClosed    = "CLOSED"
	AuctionCancelled = "CANCELLED"
)

// CreateAuction starts an auction for a listing.
type CreateAuction struct {
	ListingID     string  `json:"listingId" validate:"required"`
	SellerID      string  `json:"sellerId" validate:"required"`
	StartingPrice float64 `json:"startingPrice" validate:"gt=0"`
	EndsAt        string  `json:"endsAt" validate:"required"`
	CallerID      string  `json:"-"`
}

func (c CreateAuction) Validate(now time.Time) error {
	if err := validate(c); err != nil {
		return err
	}
	if err := parseFuture(c.EndsAt, now); err != nil {
		return err
	}
	return checkCaller(c.CallerID, c.SellerID, "sellerId")
}

// PlaceBid offers Amount on an open auction.
type PlaceBid struct {
	AuctionID string  `json:"-" validate:"required"`
	BidderID  string  `json:"bidderId" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	CallerID  string  `json:"-"`
}

func (c PlaceBid) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return checkCaller(c.CallerID, c.BidderID, "bidderId")
}

// CloseAuction ends an OPEN auction as CLOSED or CANCELLED.
type CloseAuction struct {
	AuctionID string `json:"-" validate:"required"`
	CallerID  string `json:"-"`
	Status    string `json:"status" validate:"omitempty,oneof=CLOSED CANCELLED"`
}

func (c CloseAuction) Validate() error {
	return validate(c)
}
