package commands

// Marketplace status values.
const (
	MarketplaceActive   = "ACTIVE"
	MarketplaceInactive = "INACTIVE"
	MarketplaceArchived = "ARCHIVED"
)

// CreateMarketplace opens a new marketplace owned by OwnerID.
type CreateMarketplace struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	Category    string `json:"category" validate:"required,oneof=GENERAL COLLECTIBLES ELECTRONICS SERVICES"`
	OwnerID     string `json:"ownerId" validate:"required"`
	CallerID    string `json:"-"`
}

func (c CreateMarketplace) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return checkCaller(c.CallerID, c.OwnerID, "ownerId")
}

// UpdateMarketplace is a partial update; only non-nil fields change.
type UpdateMarketplace struct {
	MarketplaceID string  `json:"-" validate:"required"`
	CallerID      string  `json:"-"`
	Name          *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string `json:"description" validate:"omitempty,max=1000"`
	Category      *string `json:"category" validate:"omitempty,oneof=GENERAL COLLECTIBLES ELECTRONICS SERVICES"`
	Status        *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
}

func (c UpdateMarketplace) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return requireAny(c.Name != nil, c.Description != nil, c.Category != nil, c.Status != nil)
}

// DeleteMarketplace removes an ACTIVE marketplace.
type DeleteMarketplace struct {
	MarketplaceID string `json:"-" validate:"required"`
	CallerID      string `json:"-"`
}

func (c DeleteMarketplace) Validate() error {
	return validate(c)
}

// ListMarketplaces filters by status; empty means ACTIVE.
type ListMarketplaces struct {
	Status string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
}

func (c ListMarketplaces) Validate() error {
	return validate(c)
}
