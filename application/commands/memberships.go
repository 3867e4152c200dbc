package commands

// Membership status values.
const (
	MembershipPending   = "PENDING"
	MembershipActive    = "ACTIVE"
	MembershipSuspended = "SUSPENDED"

	RoleMember = "MEMBER"
)

// JoinMarketplace requests membership of a marketplace.
type JoinMarketplace struct {
	MarketplaceID string `json:"-" validate:"required"`
	UserID        string `json:"userId" validate:"required"`
	Role          string `json:"role" validate:"omitempty,oneof=MEMBER SELLER MODERATOR"`
	CallerID      string `json:"-"`
}

func (c JoinMarketplace) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return checkCaller(c.CallerID, c.UserID, "userId")
}

// UpdateMembership moves a membership between PENDING, ACTIVE and SUSPENDED.
type UpdateMembership struct {
	MarketplaceID string  `json:"-" validate:"required"`
	UserID        string  `json:"-" validate:"required"`
	CallerID      string  `json:"-"`
	Status        string  `json:"status" validate:"required,oneof=PENDING ACTIVE SUSPENDED"`
	Role          *string `json:"role" validate:"omitempty,oneof=MEMBER SELLER MODERATOR"`
}

func (c UpdateMembership) Validate() error {
	return validate(c)
}

// LeaveMarketplace removes the caller's own membership.
type LeaveMarketplace struct {
	MarketplaceID string `json:"-" validate:"required"`
	UserID        string `json:"-" validate:"required"`
	CallerID      string `json:"-"`
}

func (c LeaveMarketplace) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return checkCaller(c.CallerID, c.UserID, "userId")
}
