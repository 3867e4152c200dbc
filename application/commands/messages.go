package commands

// SendMessage queues a message for moderation before delivery.
type SendMessage struct {
	SenderID    string `json:"senderId" validate:"required"`
	RecipientID string `json:"recipientId" validate:"required"`
	Subject     string `json:"subject" validate:"required,min=1,max=200"`
	Body        string `json:"body" validate:"required,min=1,max=5000"`
	CallerID    string `json:"-"`
}

func (c SendMessage) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	return checkCaller(c.CallerID, c.SenderID, "senderId")
}

// ReviewMessage records a moderation decision on a message.
type ReviewMessage struct {
	MessageID    string `json:"-" validate:"required"`
	CallerID     string `json:"-"`
	ReviewStatus string `json:"reviewStatus" validate:"required,oneof=pending approved rejected details"`
	ReviewNote   string `json:"reviewNote" validate:"omitempty,max=500"`
}

func (c ReviewMessage) Validate() error {
	return validate(c)
}

// DeleteMessage removes a message sent by the caller.
type DeleteMessage struct {
	MessageID string `json:"-" validate:"required"`
	CallerID  string `json:"-"`
}

func (c DeleteMessage) Validate() error {
	return validate(c)
}
