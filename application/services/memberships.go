package services

import (
	"context"
	"time"

	"marketplace-backend/application/commands"
	"marketplace-backend/domain/records"
	apperrors "marketplace-backend/pkg/errors"
)

var membershipEntity = entity{
	name:      "membership",
	sensitive: []string{"marketplaceId", "userId"},
}

const (
	ActionMembershipRequested = "MembershipRequested"
	ActionMembershipUpdated   = "MembershipUpdated"
	ActionMembershipRemoved   = "MembershipRemoved"
)

// MembershipResult identifies a stored membership.
type MembershipResult struct {
	MarketplaceID string          `json:"marketplaceId"`
	UserID        string          `json:"userId"`
	Key           records.KeyPair `json:"key"`
	Notify        NotifyResult    `json:"notifications"`
}

// MembershipService manages marketplace memberships. A membership lives in
// the marketplace's partition under a MEMBER# sort key.
type MembershipService struct {
	p *Pipeline
}

func NewMembershipService(p *Pipeline) *MembershipService {
	return &MembershipService{p: p}
}

func membershipKey(enc map[string]string) records.KeyPair {
	return records.MembershipKey(enc["marketplaceId"], enc["userId"])
}

// Join requests membership. The marketplace must exist and a user can only
// hold one membership per marketplace.
func (s *MembershipService) Join(ctx context.Context, cmd commands.JoinMarketplace) (res *MembershipResult, err error) {
	defer s.p.observe("JoinMarketplace", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	role := cmd.Role
	if role == "" {
		role = commands.RoleMember
	}

	enc, err := s.p.encrypt(ctx, map[string]string{
		"marketplaceId": cmd.MarketplaceID,
		"userId":        cmd.UserID,
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
		operation: "JoinMarketplace",
		action:    ActionMembershipRequested,
		entity:    membershipEntity,
		enc:       enc,
		build: func(enc map[string]string) records.Record {
			key := membershipKey(enc)
			return records.Record{
				PartitionKey: key.PartitionKey,
				SortKey:      key.SortKey,
				Attributes: map[string]any{
					records.AttrEntityType: records.EntityMembership,
					"marketplaceId":        enc["marketplaceId"],
					"userId":               enc["userId"],
					"role":                 role,
					records.AttrStatus:     commands.MembershipPending,
					records.AttrCreatedAt:  now,
					records.AttrUpdatedAt:  now,
				},
			}
		},
		conflict: "already a member",
	})
	if err != nil {
		return nil, err
	}

	return &MembershipResult{MarketplaceID: cmd.MarketplaceID, UserID: cmd.UserID, Key: rec.Key(), Notify: notified}, nil
}

// List returns the members of a marketplace.
func (s *MembershipService) List(ctx context.Context, marketplaceID string) (out []map[string]any, err error) {
	defer s.p.observe("ListMembers", time.Now(), &err)

	if marketplaceID == "" {
		return nil, apperrors.NewBadRequest("marketplaceId is required")
	}
	encID, err := s.p.encryptText(ctx, marketplaceID)
	if err != nil {
		return nil, err
	}

	recs, err := s.p.store.Query(ctx, records.Query{
		PartitionValue: records.PrefixMarketplace + encID,
		SortPrefix:     records.PrefixMember,
	})
	if err != nil {
		return nil, storageError("query", err)
	}
	return views(s.p.projectAll(ctx, membershipEntity, recs)), nil
}

// Update moves a membership to a new status.
func (s *MembershipService) Update(ctx context.Context, cmd commands.UpdateMembership) (res *MembershipResult, err error) {
	defer s.p.observe("UpdateMembership", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, notified, err := s.p.update(ctx, updateSpec{
		operation: "UpdateMembership",
		action:    ActionMembershipUpdated,
		entity:    membershipEntity,
		plain:     map[string]string{"marketplaceId": cmd.MarketplaceID, "userId": cmd.UserID},
		key:       membershipKey,
		set: func(map[string]string, records.Record) (map[string]any, error) {
			set := map[string]any{records.AttrStatus: cmd.Status}
			if cmd.Role != nil {
				set["role"] = *cmd.Role
			}
			return set, nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &MembershipResult{MarketplaceID: cmd.MarketplaceID, UserID: cmd.UserID, Key: rec.Key(), Notify: notified}, nil
}

// Leave removes the caller's membership.
func (s *MembershipService) Leave(ctx context.Context, cmd commands.LeaveMarketplace) (res *MembershipResult, err error) {
	defer s.p.observe("LeaveMarketplace", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, notified, err := s.p.remove(ctx, deleteSpec{
		operation: "LeaveMarketplace",
		action:    ActionMembershipRemoved,
		entity:    membershipEntity,
		plain:     map[string]string{"marketplaceId": cmd.MarketplaceID, "userId": cmd.UserID},
		key:       membershipKey,
	})
	if err != nil {
		return nil, err
	}

	return &MembershipResult{MarketplaceID: cmd.MarketplaceID, UserID: cmd.UserID, Key: rec.Key(), Notify: notified}, nil
}
