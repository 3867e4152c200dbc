package services

import (
	"context"
	"errors"
	"time"

	"marketplace-backend/application/commands"
	"marketplace-backend/domain/records"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var userEntity = entity{
	name:      "user",
	sensitive: []string{"userId", "email", "username", "displayName", "bio"},
	hidden:    []string{"passwordHash"},
}

const (
	ActionUserRegistered = "UserRegistered"
	ActionUserUpdated    = "UserUpdated"
	ActionUserDeleted    = "UserDeleted"
)

// TokenIssuer signs session tokens for a plaintext user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserResult identifies a stored user.
type UserResult struct {
	UserID string          `json:"userId"`
	Token  string          `json:"token,omitempty"`
	Key    records.KeyPair `json:"key"`
	Notify NotifyResult    `json:"notifications"`
}

// UserService manages user profiles. Profiles are keyed by encrypted email
// for login and indexed on GSI1 by encrypted user id.
type UserService struct {
	p          *Pipeline
	tokens     TokenIssuer
	newID      func() string
	bcryptCost int
}

func NewUserService(p *Pipeline, tokens TokenIssuer) *UserService {
	return &UserService{
		p:          p,
		tokens:     tokens,
		newID:      uuid.NewString,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register creates a profile. Registering an email twice is rejected.
func (s *UserService) Register(ctx context.Context, cmd commands.RegisterUser) (res *UserResult, err error) {
	defer s.p.observe("RegisterUser", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewUnexpected("failed to hash password", err)
	}

	userID := s.newID()
	now := s.p.timestamp()
	rec, notified, err := s.p.create(ctx, createSpec{
		operation: "RegisterUser",
		action:    ActionUserRegistered,
		entity:    userEntity,
		plain: map[string]string{
			"userId":      userID,
			"email":       cmd.Email,
			"username":    cmd.Username,
			"displayName": cmd.DisplayName,
			fieldSK:       records.LabelProfile,
		},
		build: func(enc map[string]string) records.Record {
			key := records.UserKey(enc["email"], enc[fieldSK])
			return records.Record{
				PartitionKey: key.PartitionKey,
				SortKey:      key.SortKey,
				Attributes: map[string]any{
					records.AttrEntityType: records.EntityUser,
					"userId":               enc["userId"],
					"email":                enc["email"],
					"username":             enc["username"],
					"displayName":          enc["displayName"],
					"passwordHash":         string(hash),
					records.AttrCreatedAt:  now,
					records.AttrUpdatedAt:  now,
				},
				SecondaryKeys: map[records.IndexName]records.KeyPair{
					records.GSI1: records.UserIDKey(enc["userId"], enc[fieldSK]),
				},
			}
		},
		conflict: "user already exists",
	})
	if err != nil {
		return nil, err
	}

	return &UserResult{UserID: userID, Key: rec.Key(), Notify: notified}, nil
}

// Login checks credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, cmd commands.LoginUser) (res *UserResult, err error) {
	defer s.p.observe("LoginUser", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	enc, err := s.p.encrypt(ctx, map[string]string{"email": cmd.Email, fieldSK: records.LabelProfile})
	if err != nil {
		return nil, err
	}

	rec, err := s.p.mustGet(ctx, userEntity, records.UserKey(enc["email"], enc[fieldSK]))
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.String("passwordHash")), []byte(cmd.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperrors.NewForbidden("invalid credentials")
		}
		return nil, apperrors.NewUnexpected("failed to verify password", err)
	}

	userID, err := s.p.gateway.DecryptText(ctx, rec.String("userId"))
	if err != nil {
		return nil, apperrors.NewDecryptionFailed(err)
	}

	token, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, apperrors.NewUnexpected("failed to issue token", err)
	}

	return &UserResult{UserID: userID, Token: token, Key: rec.Key()}, nil
}

// Get reads a profile by user id.
func (s *UserService) Get(ctx context.Context, userID string) (view map[string]any, err error) {
	defer s.p.observe("GetUser", time.Now(), &err)

	if userID == "" {
		return nil, apperrors.NewBadRequest("userId is required")
	}
	enc, err := s.p.encrypt(ctx, map[string]string{"userId": userID, fieldSK: records.LabelProfile})
	if err != nil {
		return nil, err
	}

	rec, err := s.lookupByID(ctx, enc)
	if err != nil {
		return nil, err
	}
	return s.p.project(ctx, userEntity, rec)
}

// Update changes the caller's own profile fields.
func (s *UserService) Update(ctx context.Context, cmd commands.UpdateUser) (res *UserResult, err error) {
	defer s.p.observe("UpdateUser", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	plain := withCaller(map[string]string{"userId": cmd.UserID, fieldSK: records.LabelProfile}, cmd.CallerID)
	if cmd.DisplayName != nil {
		plain["displayName"] = *cmd.DisplayName
	}
	if cmd.Bio != nil {
		plain["bio"] = *cmd.Bio
	}

	rec, notified, err := s.p.update(ctx, updateSpec{
		operation: "UpdateUser",
		action:    ActionUserUpdated,
		entity:    userEntity,
		plain:     plain,
		lookup:    s.lookupByID,
		authorize: ownedBy("userId", "user"),
		set: func(enc map[string]string, _ records.Record) (map[string]any, error) {
			set := map[string]any{}
			setPresent(set, enc, "displayName", "bio")
			return set, nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &UserResult{UserID: cmd.UserID, Key: rec.Key(), Notify: notified}, nil
}

// Delete removes the caller's own profile.
func (s *UserService) Delete(ctx context.Context, cmd commands.DeleteUser) (res *UserResult, err error) {
	defer s.p.observe("DeleteUser", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, notified, err := s.p.remove(ctx, deleteSpec{
		operation: "DeleteUser",
		action:    ActionUserDeleted,
		entity:    userEntity,
		plain:     withCaller(map[string]string{"userId": cmd.UserID, fieldSK: records.LabelProfile}, cmd.CallerID),
		lookup:    s.lookupByID,
		authorize: ownedBy("userId", "user"),
	})
	if err != nil {
		return nil, err
	}

	return &UserResult{UserID: cmd.UserID, Key: rec.Key(), Notify: notified}, nil
}

func (s *UserService) lookupByID(ctx context.Context, enc map[string]string) (records.Record, error) {
	key := records.UserIDKey(enc["userId"], enc[fieldSK])
	recs, err := s.p.store.Query(ctx, records.Query{
		Index:          records.GSI1,
		PartitionValue: key.PartitionKey,
		SortEquals:     key.SortKey,
	})
	if err != nil {
		return records.Record{}, storageError("query", err)
	}
	if len(recs) == 0 {
		return records.Record{}, apperrors.NewNotFound("user")
	}
	return recs[0], nil
}
