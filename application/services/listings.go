package services

import (
	"context"
	"time"

	"marketplace-backend/application/commands"
	"marketplace-backend/domain/records"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/google/uuid"
)

var listingEntity = entity{
	name:      "listing",
	sensitive: []string{"id", "marketplaceId", "sellerId", "title", "description", "reviewNote"},
}

const (
	ActionListingCreated  = "ListingCreated"
	ActionListingUpdated  = "ListingUpdated"
	ActionListingReviewed = "ListingReviewed"
	ActionListingDeleted  = "ListingDeleted"
)

// ListingResult identifies a stored listing.
type ListingResult struct {
	ID     string          `json:"id"`
	Key    records.KeyPair `json:"key"`
	Notify NotifyResult    `json:"notifications"`
}

// ListingService manages listings. Listings are indexed on GSI1 under their
// marketplace in creation order.
type ListingService struct {
	p     *Pipeline
	newID func() string
}

func NewListingService(p *Pipeline) *ListingService {
	return &ListingService{p: p, newID: uuid.NewString}
}

func listingKey(enc map[string]string) records.KeyPair {
	return records.ListingKey(enc["id"], enc[fieldSK])
}

// Create offers a listing in an existing marketplace. New listings wait for
// review.
func (s *ListingService) Create(ctx context.Context, cmd commands.CreateListing) (res *ListingResult, err error) {
	defer s.p.observe("CreateListing", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	id := s.newID()
	enc, err := s.p.encrypt(ctx, map[string]string{
		"id":            id,
		"marketplaceId": cmd.MarketplaceID,
		"sellerId":      cmd.SellerID,
		"title":         cmd.Title,
		"description":   cmd.Description,
		fieldSK:         records.LabelMetadata,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.p.mustGet(ctx, marketplaceEntity, records.MarketplaceKey(enc["marketplaceId"], enc[fieldSK])); err != nil {
		return nil, err
	}

	now := s.p.timestamp()
	rec, notified, err := s.p.create(ctx, createSpec{
		operation: "CreateListing",
		action:    ActionListingCreated,
		entity:    listingEntity,
		enc:       enc,
		build: func(enc map[string]string) records.Record {
			return records.Record{
				PartitionKey: records.PrefixListing + enc["id"],
				SortKey:      enc[fieldSK],
				Attributes: map[string]any{
					records.AttrEntityType:   records.EntityListing,
					"id":                     enc["id"],
					"marketplaceId":          enc["marketplaceId"],
					"sellerId":               enc["sellerId"],
					"title":                  enc["title"],
					"description":            enc["description"],
					"price":                  cmd.Price,
					"currency":               cmd.Currency,
					records.AttrReviewStatus: commands.ReviewPending,
					records.AttrCreatedAt:    now,
					records.AttrUpdatedAt:    now,
				},
				SecondaryKeys: map[records.IndexName]records.KeyPair{
					records.GSI1: records.ListingByMarketplaceKey(enc["marketplaceId"], now),
				},
			}
		},
		conflict: "listing already exists",
	})
	if err != nil {
		return nil, err
	}

	return &ListingResult{ID: id, Key: rec.Key(), Notify: notified}, nil
}

// Get reads one listing.
func (s *ListingService) Get(ctx context.Context, id string) (view map[string]any, err error) {
	defer s.p.observe("GetListing", time.Now(), &err)

	if id == "" {
		return nil, apperrors.NewBadRequest("listingId is required")
	}
	enc, err := s.p.encrypt(ctx, map[string]string{"id": id, fieldSK: records.LabelMetadata})
	if err != nil {
		return nil, err
	}
	return s.p.get(ctx, listingEntity, listingKey(enc))
}

// ListByMarketplace returns the listings of a marketplace oldest first.
func (s *ListingService) ListByMarketplace(ctx context.Context, marketplaceID string) (out []map[string]any, err error) {
	defer s.p.observe("ListListings", time.Now(), &err)

	if marketplaceID == "" {
		return nil, apperrors.NewBadRequest("marketplaceId is required")
	}
	encID, err := s.p.encryptText(ctx, marketplaceID)
	if err != nil {
		return nil, err
	}

	recs, err := s.p.store.Query(ctx, records.Query{
		Index:          records.GSI1,
		PartitionValue: records.PrefixMarketplace + encID,
		SortPrefix:     records.PrefixListing,
	})
	if err != nil {
		return nil, storageError("query", err)
	}
	return views(s.p.projectAll(ctx, listingEntity, recs)), nil
}

// Update changes the fields present in cmd. Only the seller may update.
func (s *ListingService) Update(ctx context.Context, cmd commands.UpdateListing) (res *ListingResult, err error) {
	defer s.p.observe("UpdateListing", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	plain := withCaller(map[string]string{"id": cmd.ListingID, fieldSK: records.LabelMetadata}, cmd.CallerID)
	if cmd.Title != nil {
		plain["title"] = *cmd.Title
	}
	if cmd.Description != nil {
		plain["description"] = *cmd.Description
	}

	rec, notified, err := s.p.update(ctx, updateSpec{
		operation: "UpdateListing",
		action:    ActionListingUpdated,
		entity:    listingEntity,
		plain:     plain,
		key:       listingKey,
		authorize: ownedBy("sellerId", "seller"),
		set: func(enc map[string]string, _ records.Record) (map[string]any, error) {
			set := map[string]any{}
			setPresent(set, enc, "title", "description")
			if cmd.Price != nil {
				set["price"] = *cmd.Price
			}
			if cmd.Currency != nil {
				set["currency"] = *cmd.Currency
			}
			return set, nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &ListingResult{ID: cmd.ListingID, Key: rec.Key(), Notify: notified}, nil
}

// Review records a moderation decision.
func (s *ListingService) Review(ctx context.Context, cmd commands.ReviewListing) (res *ListingResult, err error) {
	defer s.p.observe("ReviewListing", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, notified, err := s.p.update(ctx, updateSpec{
		operation: "ReviewListing",
		action:    ActionListingReviewed,
		entity:    listingEntity,
		plain: map[string]string{
			"id":         cmd.ListingID,
			fieldSK:      records.LabelMetadata,
			"reviewNote": cmd.ReviewNote,
		},
		key: listingKey,
		set: func(enc map[string]string, _ records.Record) (map[string]any, error) {
			set := map[string]any{records.AttrReviewStatus: cmd.ReviewStatus}
			if cmd.ReviewNote != "" {
				set["reviewNote"] = enc["reviewNote"]
			}
			return set, nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &ListingResult{ID: cmd.ListingID, Key: rec.Key(), Notify: notified}, nil
}

// Delete removes a listing owned by the caller.
func (s *ListingService) Delete(ctx context.Context, cmd commands.DeleteListing) (res *ListingResult, err error) {
	defer s.p.observe("DeleteListing", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, notified, err := s.p.remove(ctx, deleteSpec{
		operation: "DeleteListing",
		action:    ActionListingDeleted,
		entity:    listingEntity,
		plain:     withCaller(map[string]string{"id": cmd.ListingID, fieldSK: records.LabelMetadata}, cmd.CallerID),
		key:       listingKey,
		authorize: ownedBy("sellerId", "seller"),
	})
	if err != nil {
		return nil, err
	}

	return &ListingResult{ID: cmd.ListingID, Key: rec.Key(), Notify: notified}, nil
}
