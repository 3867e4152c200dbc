package services

import (
	"context"
	"time"

	"marketplace-backend/application/commands"
	"marketplace-backend/domain/records"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/google/uuid"
)

var marketplaceEntity = entity{
	name:      "marketplace",
	sensitive: []string{"id", "name", "description", "ownerId"},
}

const (
	ActionMarketplaceCreated = "MarketplaceCreated"
	ActionMarketplaceUpdated = "MarketplaceUpdated"
	ActionMarketplaceDeleted = "MarketplaceDeleted"
)

// MarketplaceResult identifies a stored marketplace.
type MarketplaceResult struct {
	ID     string          `json:"id"`
	Key    records.KeyPair `json:"key"`
	Notify NotifyResult    `json:"notifications"`
}

// MarketplaceService manages marketplaces.
type MarketplaceService struct {
	p     *Pipeline
	newID func() string
}

func NewMarketplaceService(p *Pipeline) *MarketplaceService {
	return &MarketplaceService{p: p, newID: uuid.NewString}
}

func marketplaceKey(enc map[string]string) records.KeyPair {
	return records.MarketplaceKey(enc["id"], enc[fieldSK])
}

// Create opens a marketplace in the ACTIVE state.
func (s *MarketplaceService) Create(ctx context.Context, cmd commands.CreateMarketplace) (res *MarketplaceResult, err error) {
	defer s.p.observe("CreateMarketplace", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	id := s.newID()
	now := s.p.timestamp()
	rec, notified, err := s.p.create(ctx, createSpec{
		operation: "CreateMarketplace",
		action:    ActionMarketplaceCreated,
		entity:    marketplaceEntity,
		plain: map[string]string{
			"id":          id,
			"name":        cmd.Name,
			"description": cmd.Description,
			"ownerId":     cmd.OwnerID,
			fieldSK:       records.LabelMetadata,
		},
		build: func(enc map[string]string) records.Record {
			return records.Record{
				PartitionKey: records.PrefixMarketplace + enc["id"],
				SortKey:      enc[fieldSK],
				Attributes: map[string]any{
					records.AttrEntityType: records.EntityMarketplace,
					"id":                   enc["id"],
					"name":                 enc["name"],
					"description":          enc["description"],
					"ownerId":              enc["ownerId"],
					"category":             cmd.Category,
					records.AttrStatus:     commands.MarketplaceActive,
					records.AttrCreatedAt:  now,
					records.AttrUpdatedAt:  now,
				},
			}
		},
		conflict: "marketplace already exists",
	})
	if err != nil {
		return nil, err
	}

	return &MarketplaceResult{ID: id, Key: rec.Key(), Notify: notified}, nil
}

// Get reads one marketplace.
func (s *MarketplaceService) Get(ctx context.Context, id string) (view map[string]any, err error) {
	defer s.p.observe("GetMarketplace", time.Now(), &err)

	if id == "" {
		return nil, apperrors.NewBadRequest("marketplaceId is required")
	}
	enc, err := s.p.encrypt(ctx, map[string]string{"id": id, fieldSK: records.LabelMetadata})
	if err != nil {
		return nil, err
	}
	return s.p.get(ctx, marketplaceEntity, marketplaceKey(enc))
}

// List returns the marketplaces in one status, ACTIVE by default.
func (s *MarketplaceService) List(ctx context.Context, cmd commands.ListMarketplaces) (out []map[string]any, err error) {
	defer s.p.observe("ListMarketplaces", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	status := cmd.Status
	if status == "" {
		status = commands.MarketplaceActive
	}

	recs, err := s.p.store.Query(ctx, records.Query{
		Index:          records.StatusIndex,
		PartitionValue: status,
		Filter:         map[string]any{records.AttrEntityType: records.EntityMarketplace},
	})
	if err != nil {
		return nil, storageError("query", err)
	}
	return views(s.p.projectAll(ctx, marketplaceEntity, recs)), nil
}

// Update changes the fields present in cmd. Only the owner may update.
func (s *MarketplaceService) Update(ctx context.Context, cmd commands.UpdateMarketplace) (res *MarketplaceResult, err error) {
	defer s.p.observe("UpdateMarketplace", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	plain := withCaller(map[string]string{"id": cmd.MarketplaceID, fieldSK: records.LabelMetadata}, cmd.CallerID)
	if cmd.Name != nil {
		plain["name"] = *cmd.Name
	}
	if cmd.Description != nil {
		plain["description"] = *cmd.Description
	}

	rec, notified, err := s.p.update(ctx, updateSpec{
		operation: "UpdateMarketplace",
		action:    ActionMarketplaceUpdated,
		entity:    marketplaceEntity,
		plain:     plain,
		key:       marketplaceKey,
		authorize: ownedBy("ownerId", "marketplace owner"),
		set: func(enc map[string]string, _ records.Record) (map[string]any, error) {
			set := map[string]any{}
			setPresent(set, enc, "name", "description")
			if cmd.Category != nil {
				set["category"] = *cmd.Category
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

	return &MarketplaceResult{ID: cmd.MarketplaceID, Key: rec.Key(), Notify: notified}, nil
}

// Delete removes a marketplace that is currently ACTIVE. The state is read
// from the status index; a marketplace in any other state is rejected
// without touching the store or notifying.
func (s *MarketplaceService) Delete(ctx context.Context, cmd commands.DeleteMarketplace) (res *MarketplaceResult, err error) {
	defer s.p.observe("DeleteMarketplace", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, notified, err := s.p.remove(ctx, deleteSpec{
		operation: "DeleteMarketplace",
		action:    ActionMarketplaceDeleted,
		entity:    marketplaceEntity,
		plain:     withCaller(map[string]string{"id": cmd.MarketplaceID, fieldSK: records.LabelMetadata}, cmd.CallerID),
		lookup:    s.findActive,
		authorize: ownedBy("ownerId", "marketplace owner"),
	})
	if err != nil {
		return nil, err
	}

	return &MarketplaceResult{ID: cmd.MarketplaceID, Key: rec.Key(), Notify: notified}, nil
}

func (s *MarketplaceService) findActive(ctx context.Context, enc map[string]string) (records.Record, error) {
	key := marketplaceKey(enc)
	recs, err := s.p.store.Query(ctx, records.Query{
		Index:          records.StatusIndex,
		PartitionValue: commands.MarketplaceActive,
		Filter:         map[string]any{records.AttrPK: key.PartitionKey},
	})
	if err != nil {
		return records.Record{}, storageError("query", err)
	}
	for _, rec := range recs {
		if rec.SortKey == key.SortKey {
			return rec, nil
		}
	}
	return records.Record{}, apperrors.NewBadRequest("status is not ACTIVE")
}
