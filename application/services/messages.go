package services

import (
	"context"
	"time"

	"marketplace-backend/application/commands"
	"marketplace-backend/domain/records"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var messageEntity = entity{
	name:      "message",
	sensitive: []string{"id", "senderId", "recipientId", "subject", "body", "reviewNote"},
}

const (
	ActionMessageSent      = "MessageSent"
	ActionMessageReviewed  = "MessageReviewed"
	ActionMessageDeleted   = "MessageDeleted"
	ActionMessageForwarded = "MessageForwarded"
)

// MessageResult identifies a stored message.
type MessageResult struct {
	ID     string          `json:"id"`
	Key    records.KeyPair `json:"key"`
	Notify NotifyResult    `json:"notifications"`
}

// PendingResult is the outcome of a pending-messages sweep.
type PendingResult struct {
	Messages  []map[string]any `json:"messages"`
	Forwarded int              `json:"forwarded"`
}

// MessageService manages user to user messages. Messages are held for
// review and reach the recipient's inbox once approved.
type MessageService struct {
	p     *Pipeline
	newID func() string
}

func NewMessageService(p *Pipeline) *MessageService {
	return &MessageService{p: p, newID: uuid.NewString}
}

func messageKey(enc map[string]string) records.KeyPair {
	return records.MessageKey(enc["id"], enc[fieldSK])
}

// Send stores a message pending review.
func (s *MessageService) Send(ctx context.Context, cmd commands.SendMessage) (res *MessageResult, err error) {
	defer s.p.observe("SendMessage", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	id := s.newID()
	now := s.p.timestamp()
	rec, notified, err := s.p.create(ctx, createSpec{
		operation: "SendMessage",
		action:    ActionMessageSent,
		entity:    messageEntity,
		plain: map[string]string{
			"id":          id,
			"senderId":    cmd.SenderID,
			"recipientId": cmd.RecipientID,
			"subject":     cmd.Subject,
			"body":        cmd.Body,
			fieldSK:       records.LabelMetadata,
		},
		build: func(enc map[string]string) records.Record {
			return records.Record{
				PartitionKey: records.PrefixMessage + enc["id"],
				SortKey:      enc[fieldSK],
				Attributes: map[string]any{
					records.AttrEntityType:   records.EntityMessage,
					"id":                     enc["id"],
					"senderId":               enc["senderId"],
					"recipientId":            enc["recipientId"],
					"subject":                enc["subject"],
					"body":                   enc["body"],
					records.AttrReviewStatus: commands.ReviewPending,
					records.AttrCreatedAt:    now,
					records.AttrUpdatedAt:    now,
				},
			}
		},
		conflict: "message already exists",
	})
	if err != nil {
		return nil, err
	}

	return &MessageResult{ID: id, Key: rec.Key(), Notify: notified}, nil
}

// Get reads one message. Only its sender or recipient may read it.
func (s *MessageService) Get(ctx context.Context, id, callerID string) (view map[string]any, err error) {
	defer s.p.observe("GetMessage", time.Now(), &err)

	if id == "" {
		return nil, apperrors.NewBadRequest("messageId is required")
	}
	enc, err := s.p.encrypt(ctx, withCaller(map[string]string{"id": id, fieldSK: records.LabelMetadata}, callerID))
	if err != nil {
		return nil, err
	}

	rec, err := s.p.mustGet(ctx, messageEntity, messageKey(enc))
	if err != nil {
		return nil, err
	}
	if caller := enc[fieldCaller]; caller != "" && rec.String("senderId") != caller && rec.String("recipientId") != caller {
		return nil, apperrors.NewForbidden("only the sender or recipient may read this message")
	}
	return s.p.project(ctx, messageEntity, rec)
}

// Inbox returns the approved messages addressed to userID.
func (s *MessageService) Inbox(ctx context.Context, userID, callerID string) (out []map[string]any, err error) {
	defer s.p.observe("ListInbox", time.Now(), &err)

	if userID == "" {
		return nil, apperrors.NewBadRequest("userId is required")
	}
	if callerID != "" && callerID != userID {
		return nil, apperrors.NewForbidden("only the recipient may read this inbox")
	}
	encUser, err := s.p.encryptText(ctx, userID)
	if err != nil {
		return nil, err
	}

	recs, err := s.p.store.Scan(ctx, map[string]any{
		records.AttrEntityType:   records.EntityMessage,
		"recipientId":            encUser,
		records.AttrReviewStatus: commands.ReviewApproved,
	})
	if err != nil {
		return nil, storageError("scan", err)
	}
	return views(s.p.projectAll(ctx, messageEntity, recs)), nil
}

// Pending decrypts every message awaiting review, skipping any that fail,
// and forwards each one that decrypted to the queue in its stored form.
func (s *MessageService) Pending(ctx context.Context) (res *PendingResult, err error) {
	defer s.p.observe("GetPendingMessages", time.Now(), &err)

	recs, err := s.p.store.Query(ctx, records.Query{
		Index:          records.ReviewStatusIndex,
		PartitionValue: commands.ReviewPending,
		Filter:         map[string]any{records.AttrEntityType: records.EntityMessage},
	})
	if err != nil {
		return nil, storageError("query", err)
	}

	decrypted := s.p.projectAll(ctx, messageEntity, recs)

	forwarded := 0
	for _, item := range decrypted {
		if s.p.notifier.Forward(ctx, ActionMessageForwarded, item.source, messageEntity.hidden).Sent {
			forwarded++
		}
	}

	s.p.logger.Info("Pending messages processed",
		zap.Int("found", len(recs)),
		zap.Int("decrypted", len(decrypted)),
		zap.Int("forwarded", forwarded),
	)

	return &PendingResult{Messages: views(decrypted), Forwarded: forwarded}, nil
}

// Review records a moderation decision.
func (s *MessageService) Review(ctx context.Context, cmd commands.ReviewMessage) (res *MessageResult, err error) {
	defer s.p.observe("ReviewMessage", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, notified, err := s.p.update(ctx, updateSpec{
		operation: "ReviewMessage",
		action:    ActionMessageReviewed,
		entity:    messageEntity,
		plain: map[string]string{
			"id":         cmd.MessageID,
			fieldSK:      records.LabelMetadata,
			"reviewNote": cmd.ReviewNote,
		},
		key: messageKey,
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

	return &MessageResult{ID: cmd.MessageID, Key: rec.Key(), Notify: notified}, nil
}

// Delete removes a message. Only the sender may delete it.
func (s *MessageService) Delete(ctx context.Context, cmd commands.DeleteMessage) (res *MessageResult, err error) {
	defer s.p.observe("DeleteMessage", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rec, notified, err := s.p.remove(ctx, deleteSpec{
		operation: "DeleteMessage",
		action:    ActionMessageDeleted,
		entity:    messageEntity,
		plain:     withCaller(map[string]string{"id": cmd.MessageID, fieldSK: records.LabelMetadata}, cmd.CallerID),
		key:       messageKey,
		authorize: ownedBy("senderId", "sender"),
	})
	if err != nil {
		return nil, err
	}

	return &MessageResult{ID: cmd.MessageID, Key: rec.Key(), Notify: notified}, nil
}
