package services

import (
	"context"
	"errors"
	"time"

	"marketplace-backend/application/commands"
	"marketplace-backend/domain/records"
	apperrors "marketplace-backend/pkg/errors"
	"marketplace-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	auctionEntity = entity{
		name:      "auction",
		sensitive: []string{"id", "listingId", "sellerId", "highestBidderId"},
	}
	bidEntity = entity{
		name:      "bid",
		sensitive: []string{"id", "auctionId", "bidderId"},
	}
)

const (
	ActionAuctionCreated = "AuctionCreated"
	ActionBidPlaced      = "BidPlaced"
	ActionAuctionClosed  = "AuctionClosed"
)

// AuctionResult identifies a stored auction and, for bids, the new bid.
type AuctionResult struct {
	ID     string          `json:"id"`
	BidID  string          `json:"bidId,omitempty"`
	Key    records.KeyPair `json:"key"`
	Notify NotifyResult    `json:"notifications"`
}

// AuctionService manages auctions and their bids. Bids share the auction's
// partition under BID# sort keys.
type AuctionService struct {
	p     *Pipeline
	newID func() string
}

func NewAuctionService(p *Pipeline) *AuctionService {
	return &AuctionService{p: p, newID: uuid.NewString}
}

func auctionKey(enc map[string]string) records.KeyPair {
	return records.AuctionKey(enc["id"], enc[fieldSK])
}

// Create opens an auction on a listing the caller sells.
func (s *AuctionService) Create(ctx context.Context, cmd commands.CreateAuction) (res *AuctionResult, err error) {
	defer s.p.observe("CreateAuction", time.Now(), &err)

	if err := cmd.Validate(s.p.now()); err != nil {
		return nil, err
	}
	endsAt, _ := utils.ParseTimestamp(cmd.EndsAt)

	id := s.newID()
	enc, err := s.p.encrypt(ctx, map[string]string{
		"id":        id,
		"listingId": cmd.ListingID,
		"sellerId":  cmd.SellerID,
		fieldSK:     records.LabelMetadata,
	})
	if err != nil {
		return nil, err
	}

	listing, err := s.p.mustGet(ctx, listingEntity, records.ListingKey(enc["listingId"], enc[fieldSK]))
	if err != nil {
		return nil, err
	}
	if listing.String("sellerId") != enc["sellerId"] {
		return nil, apperrors.NewForbidden("only the seller of the listing may auction it")
	}

	now := s.p.timestamp()
	rec, notified, err := s.p.create(ctx, createSpec{
		operation: "CreateAuction",
		action:    ActionAuctionCreated,
		entity:    auctionEntity,
		enc:       enc,
		build: func(enc map[string]string) records.Record {
			return records.Record{
				PartitionKey: records.PrefixAuction + enc["id"],
				SortKey:      enc[fieldSK],
				Attributes: map[string]any{
					records.AttrEntityType: records.EntityAuction,
					"id":                   enc["id"],
					"listingId":            enc["listingId"],
					"sellerId":             enc["sellerId"],
					"startingPrice":        cmd.StartingPrice,
					"highestBid":           cmd.StartingPrice,
					"endsAt":               utils.FormatTimestamp(endsAt),
					records.AttrStatus:     commands.AuctionOpen,
					records.AttrCreatedAt:  now,
					records.AttrUpdatedAt:  now,
				},
			}
		},
		conflict: "auction already exists",
	})
	if err != nil {
		return nil, err
	}

	return &AuctionResult{ID: id, Key: rec.Key(), Notify: notified}, nil
}

// Get reads one auction.
func (s *AuctionService) Get(ctx context.Context, id string) (view map[string]any, err error) {
	defer s.p.observe("GetAuction", time.Now(), &err)

	if id == "" {
		return nil, apperrors.NewBadRequest("auctionId is required")
	}
	enc, err := s.p.encrypt(ctx, map[string]string{"id": id, fieldSK: records.LabelMetadata})
	if err != nil {
		return nil, err
	}
	return s.p.get(ctx, auctionEntity, auctionKey(enc))
}

// PlaceBid records a bid and raises the auction's highest bid in one
// transaction. The conditional update rejects the bid if another bid of at
// least the same amount won the race or the auction closed meanwhile.
func (s *AuctionService) PlaceBid(ctx context.Context, cmd commands.PlaceBid) (res *AuctionResult, err error) {
	defer s.p.observe("PlaceBid", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	bidID := s.newID()
	enc, err := s.p.encrypt(ctx, map[string]string{
		"id":       cmd.AuctionID,
		"bidId":    bidID,
		"bidderId": cmd.BidderID,
		fieldSK:    records.LabelMetadata,
	})
	if err != nil {
		return nil, err
	}

	auction, err := s.p.mustGet(ctx, auctionEntity, auctionKey(enc))
	if err != nil {
		return nil, err
	}
	if err := s.checkBid(auction, enc["bidderId"], cmd.Amount); err != nil {
		return nil, err
	}

	now := s.p.timestamp()
	bidKey := records.BidKey(enc["id"], enc["bidId"])
	bid := records.Record{
		PartitionKey: bidKey.PartitionKey,
		SortKey:      bidKey.SortKey,
		Attributes: map[string]any{
			records.AttrEntityType: records.EntityBid,
			"id":                   enc["bidId"],
			"auctionId":            enc["id"],
			"bidderId":             enc["bidderId"],
			"amount":               cmd.Amount,
			records.AttrCreatedAt:  now,
		},
	}

	err = s.p.store.TransactWrite(ctx, []records.TransactItem{
		{Put: &bid, PutCondition: records.Condition{MustNotExist: true}},
		{Update: &records.Update{
			Key: auction.Key(),
			Set: map[string]any{
				"highestBid":          cmd.Amount,
				"highestBidderId":     enc["bidderId"],
				records.AttrUpdatedAt: now,
			},
			Condition: records.Condition{
				MustExist: true,
				Equals:    map[string]any{records.AttrStatus: commands.AuctionOpen},
				LessThan:  map[string]any{"highestBid": cmd.Amount},
			},
		}},
	})
	if err != nil {
		if errors.Is(err, records.ErrConditionFailed) {
			return nil, apperrors.NewBadRequest("bid is no longer the highest").WithCode(apperrors.CodeConflict)
		}
		return nil, storageError("transact", err)
	}

	s.p.logger.Info("Bid placed",
		zap.String("operation", "PlaceBid"),
		zap.Float64("amount", cmd.Amount),
	)

	return &AuctionResult{
		ID:     cmd.AuctionID,
		BidID:  bidID,
		Key:    bid.Key(),
		Notify: s.p.notifier.Notify(ctx, ActionBidPlaced, bid, bidEntity.hidden),
	}, nil
}

func (s *AuctionService) checkBid(auction records.Record, encBidder string, amount float64) error {
	if auction.String(records.AttrStatus) != commands.AuctionOpen {
		return apperrors.NewBadRequest("auction is not open")
	}
	if endsAt, err := utils.ParseTimestamp(auction.String("endsAt")); err != nil || !s.p.now().Before(endsAt) {
		return apperrors.NewBadRequest("auction has ended")
	}
	if auction.String("sellerId") == encBidder {
		return apperrors.NewForbidden("sellers cannot bid on their own auction")
	}
	if highest, _ := auction.Number("highestBid"); amount <= highest {
		return apperrors.NewBadRequest("bid must exceed the current highest bid")
	}
	return nil
}

// ListBids returns the bids of an auction.
func (s *AuctionService) ListBids(ctx context.Context, auctionID string) (out []map[string]any, err error) {
	defer s.p.observe("ListBids", time.Now(), &err)

	if auctionID == "" {
		return nil, apperrors.NewBadRequest("auctionId is required")
	}
	encID, err := s.p.encryptText(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	recs, err := s.p.store.Query(ctx, records.Query{
		PartitionValue: records.PrefixAuction + encID,
		SortPrefix:     records.PrefixBid,
	})
	if err != nil {
		return nil, storageError("query", err)
	}
	return views(s.p.projectAll(ctx, bidEntity, recs)), nil
}

// Close ends an OPEN auction. Only the seller may close it.
func (s *AuctionService) Close(ctx context.Context, cmd commands.CloseAuction) (res *AuctionResult, err error) {
	defer s.p.observe("CloseAuction", time.Now(), &err)

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	status := cmd.Status
	if status == "" {
		status = commands.AuctionClosed
	}

	rec, notified, err := s.p.update(ctx, updateSpec{
		operation: "CloseAuction",
		action:    ActionAuctionClosed,
		entity:    auctionEntity,
		plain:     withCaller(map[string]string{"id": cmd.AuctionID, fieldSK: records.LabelMetadata}, cmd.CallerID),
		key:       auctionKey,
		authorize: ownedBy("sellerId", "seller"),
		set: func(_ map[string]string, current records.Record) (map[string]any, error) {
			if current.String(records.AttrStatus) != commands.AuctionOpen {
				return nil, apperrors.NewBadRequest("auction is not open")
			}
			return map[string]any{records.AttrStatus: status}, nil
		},
		condition: records.Condition{Equals: map[string]any{records.AttrStatus: commands.AuctionOpen}},
		conflict:  "auction is not open",
	})
	if err != nil {
		return nil, err
	}

	return &AuctionResult{ID: cmd.AuctionID, Key: rec.Key(), Notify: notified}, nil
}
