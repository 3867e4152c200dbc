package commands

// RegisterUser creates a user profile.
type RegisterUser struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"omitempty,max=100"`
}

func (c RegisterUser) Validate() error {
	return validate(c)
}

// LoginUser exchanges credentials for a session token.
type LoginUser struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c LoginUser) Validate() error {
	return validate(c)
}

// UpdateUser changes profile fields of the caller.
type UpdateUser struct {
	UserID      string  `json:"-" validate:"required"`
	CallerID    string  `json:"-"`
	DisplayName *string `json:"displayName" validate:"omitempty,min=1,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
}

func (c UpdateUser) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return requireAny(c.DisplayName != nil, c.Bio != nil)
}

// DeleteUser removes the caller's profile.
type DeleteUser struct {
	UserID   string `json:"-" validate:"required"`
	CallerID string `json:"-"`
}

func (c DeleteUser) Validate() error {
	return validate(c)
}
