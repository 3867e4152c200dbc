package commands

// Review status values shared by listings and messages. Each operation
// still declares its own accepted set in its validate tag.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// CreateListing offers an item for sale inside a marketplace.
type CreateListing struct {
	MarketplaceID string  `json:"marketplaceId" validate:"required"`
	SellerID      string  `json:"sellerId" validate:"required"`
	Title         string  `json:"title" validate:"required,min=1,max=200"`
	Description   string  `json:"description" validate:"omitempty,max=2000"`
	Price         float64 `json:"price" validate:"gt=0"`
	Currency      string  `json:"currency" validate:"required,oneof=USD EUR GBP"`
	CallerID      string  `json:"-"`
}

func (c CreateListing) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return checkCaller(c.CallerID, c.SellerID, "sellerId")
}

// UpdateListing is a partial update by the seller.
type UpdateListing struct {
	ListingID   string   `json:"-" validate:"required"`
	CallerID    string   `json:"-"`
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Currency    *string  `json:"currency" validate:"omitempty,oneof=USD EUR GBP"`
}

func (c UpdateListing) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return requireAny(c.Title != nil, c.Description != nil, c.Price != nil, c.Currency != nil)
}

// ReviewListing records a moderation decision.
type ReviewListing struct {
	ListingID    string `json:"-" validate:"required"`
	CallerID     string `json:"-"`
	ReviewStatus string `json:"reviewStatus" validate:"required,oneof=approved rejected pending"`
	ReviewNote   string `json:"reviewNote" validate:"omitempty,max=500"`
}

func (c ReviewListing) Validate() error {
	return validate(c)
}

// DeleteListing removes a listing owned by the caller.
type DeleteListing struct {
	ListingID string `json:"-" validate:"required"`
	CallerID  string `json:"-"`
}

func (c DeleteListing) Validate() error {
	return validate(c)
}
