package services

import (
	"context"
	"time"

	"marketplace-backend/application/commands"
	"marketplace-backend/domain/records"
	apperrors "marketplace-backend/pkg/errors"
)

var cardEntity = entity{
	name:      "card",
	sensitive: []string{"id", "title", "userId"},
}

// Card event detail types.
const (
	ActionCardCreated = "CardCreated"
	ActionCardUpdated = "CardUpdated"
	ActionCardDeleted = "CardDeleted"
)

// CardResult identifies a stored card.
type CardResult struct {
	ID     string          `json:"id"`
	Key    records.KeyPair `json:"key"`
	Notify NotifyResult    `json:"notifications"`
}

// CardService manages cards.
type CardService struct {
	p *Pipeline
}

func NewCardService(p *Pipeline) *CardService {
	return &CardService{p: p}
}

func cardKey(enc map[string]string) records.KeyPair {
	return records.CardKey(enc["id"], enc[fieldSK])
}

// Create stores a card under its client supplied id.
func (s *CardService) Create(ctx context.Context, cmd commands.CreateCard) (res *CardResult, err error) {
	defer s.p.observe("CreateCard", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := s.p.timestamp()
	rec, notified, err := s.p.create(ctx, createSpec{
		operation: "CreateCard",
		action:    ActionCardCreated,
		entity:    cardEntity,
		plain: map[string]string{
			"id":     cmd.ID,
			"title":  cmd.Title,
			"userId": cmd.UserID,
			fieldSK:  records.LabelMetadata,
		},
		build: func(enc map[string]string) records.Record {
			return records.Record{
				PartitionKey: records.PrefixCard + enc["id"],
				SortKey:      enc[fieldSK],
				Attributes: map[string]any{
					records.AttrEntityType: records.EntityCard,
					"id":                   enc["id"],
					"title":                enc["title"],
					"userId":               enc["userId"],
					"description":          cmd.Description,
					records.AttrStatus:     cmd.Status,
					records.AttrCreatedAt:  now,
					records.AttrUpdatedAt:  now,
				},
			}
		},
		conflict: "card already exists",
	})
	if err != nil {
		return nil, err
	}

	return &CardResult{ID: cmd.ID, Key: rec.Key(), Notify: notified}, nil
}

// Get reads one card by its plaintext id.
func (s *CardService) Get(ctx context.Context, id string) (view map[string]any, err error) {
	defer s.p.observe("GetCard", time.Now(), &err)

	if id == "" {
		return nil, apperrors.NewBadRequest("id is required")
	}
	enc, err := s.p.encrypt(ctx, map[string]string{"id": id, fieldSK: records.LabelMetadata})
	if err != nil {
		return nil, err
	}
	return s.p.get(ctx, cardEntity, cardKey(enc))
}

// ListByUser scans for every card owned by userID.
func (s *CardService) ListByUser(ctx context.Context, userID string) (cards []map[string]any, err error) {
	defer s.p.observe("ListCards", time.Now(), &err)

	if userID == "" {
		return nil, apperrors.NewBadRequest("userId is required")
	}
	encUser, err := s.p.encryptText(ctx, userID)
	if err != nil {
		return nil, err
	}

	recs, err := s.p.store.Scan(ctx, map[string]any{
		records.AttrEntityType: records.EntityCard,
		"userId":               encUser,
	})
	if err != nil {
		return nil, storageError("scan", err)
	}
	return views(s.p.projectAll(ctx, cardEntity, recs)), nil
}

// Update changes the fields present in cmd. The card is addressed by
// re-deriving its key from the plaintext id.
func (s *CardService) Update(ctx context.Context, cmd commands.UpdateCard) (res *CardResult, err error) {
	defer s.p.observe("UpdateCard", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	plain := withCaller(map[string]string{"id": cmd.ID, fieldSK: records.LabelMetadata}, cmd.CallerID)
	if cmd.Title != nil {
		plain["title"] = *cmd.Title
	}

	rec, notified, err := s.p.update(ctx, updateSpec{
		operation: "UpdateCard",
		action:    ActionCardUpdated,
		entity:    cardEntity,
		plain:     plain,
		key:       cardKey,
		authorize: ownedBy("userId", "card owner"),
		set: func(enc map[string]string, _ records.Record) (map[string]any, error) {
			set := map[string]any{}
			setPresent(set, enc, "title")
			if cmd.Description != nil {
				set["description"] = *cmd.Description
			}
			if cmd.Status != nil {
				set[records.AttrStatus] = *cmd.Status
			}
			return set, nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &CardResult{ID: cmd.ID, Key: rec.Key(), Notify: notified}, nil
}

// Delete removes a card owned by the caller.
func (s *CardService) Delete(ctx context.Context, cmd commands.DeleteCard) (res *CardResult, err error) {
	defer s.p.observe("DeleteCard", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, notified, err := s.p.remove(ctx, deleteSpec{
		operation: "DeleteCard",
		action:    ActionCardDeleted,
		entity:    cardEntity,
		plain:     withCaller(map[string]string{"id": cmd.ID, fieldSK: records.LabelMetadata}, cmd.CallerID),
		key:       cardKey,
		authorize: ownedBy("userId", "card owner"),
	})
	if err != nil {
		return nil, err
	}

	return &CardResult{ID: cmd.ID, Key: rec.Key(), Notify: notified}, nil
}
