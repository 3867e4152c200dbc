package commands

// CreateCard stores a card under a client supplied id.
type CreateCard struct {
	ID          string `json:"id" validate:"required,max=128"`
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	UserID      string `json:"userId" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=PENDING ACTIVE INACTIVE"`
	CallerID    string `json:"-"`
}

func (c CreateCard) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return checkCaller(c.CallerID, c.UserID, "userId")
}

// UpdateCard is a partial update addressed by the plaintext card id.
type UpdateCard struct {
	ID          string  `json:"-" validate:"required"`
	CallerID    string  `json:"-"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *string `json:"status" validate:"omitempty,oneof=PENDING ACTIVE INACTIVE"`
}

func (c UpdateCard) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return requireAny(c.Title != nil, c.Description != nil, c.Status != nil)
}

// DeleteCard removes a card owned by the caller.
type DeleteCard struct {
	ID       string `json:"-" validate:"required"`
	CallerID string `json:"-"`
}

func (c DeleteCard) Validate() error {
	return validate(c)
}
