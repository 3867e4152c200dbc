package memory

import (
	"context"
	"errors"
	"testing"

	"marketplace-backend/domain/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auction(highest float64, status string) records.Record {
	return records.Record{
		PartitionKey: "AUCTION#a",
		SortKey:      "meta",
		Attributes: map[string]any{
			"highestBid":       highest,
			records.AttrStatus: status,
			"createdAt":        "2024-01-01T00:00:00.000Z",
		},
	}
}

func TestRecordStore_PutConditions(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()
	rec := auction(10, "OPEN")

	require.NoError(t, s.Put(ctx, rec, records.Condition{MustNotExist: true}))
	err := s.Put(ctx, rec, records.Condition{MustNotExist: true})
	assert.ErrorIs(t, err, records.ErrConditionFailed)

	got, found, err := s.Get(ctx, rec.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 10.0, got.Attributes["highestBid"])
}

func TestRecordStore_UpdateConditions(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()
	s.Seed(auction(10, "OPEN"))

	cond := records.Condition{
		MustExist: true,
		Equals:    map[string]any{records.AttrStatus: "OPEN"},
		LessThan:  map[string]any{"highestBid": 12},
	}

	updated, err := s.Update(ctx, records.Update{
		Key:       auction(0, "").Key(),
		Set:       map[string]any{"highestBid": 12},
		Condition: cond,
	})
	require.NoError(t, err)
	assert.Equal(t, 12.0, updated.Attributes["highestBid"])

	// Same amount again no longer satisfies highestBid < amount.
	_, err = s.Update(ctx, records.Update{Key: updated.Key(), Set: map[string]any{"highestBid": 12}, Condition: cond})
	assert.ErrorIs(t, err, records.ErrConditionFailed)

	_, err = s.Update(ctx, records.Update{
		Key:       records.KeyPair{PartitionKey: "missing", SortKey: "x"},
		Set:       map[string]any{"a": "b"},
		Condition: records.Condition{MustExist: true},
	})
	assert.ErrorIs(t, err, records.ErrConditionFailed)
	assert.Equal(t, 1, s.Len())
}

func TestRecordStore_QueryIndexes(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()

	s.Seed(records.Record{PartitionKey: "MARKETPLACE#m1", SortKey: "meta", Attributes: map[string]any{
		records.AttrStatus: "ACTIVE", records.AttrCreatedAt: "2", records.AttrEntityType: "MARKETPLACE",
	}})
	s.Seed(records.Record{PartitionKey: "MARKETPLACE#m2", SortKey: "meta", Attributes: map[string]any{
		records.AttrStatus: "INACTIVE", records.AttrCreatedAt: "1", records.AttrEntityType: "MARKETPLACE",
	}})
	s.Seed(records.Record{PartitionKey: "MARKETPLACE#m1", SortKey: "MEMBER#u1", Attributes: map[string]any{
		records.AttrStatus: "ACTIVE", records.AttrCreatedAt: "3", records.AttrEntityType: "MEMBERSHIP",
	}})

	active, err := s.Query(ctx, records.Query{
		Index:          records.StatusIndex,
		PartitionValue: "ACTIVE",
		Filter:         map[string]any{records.AttrEntityType: "MARKETPLACE"},
	})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "MARKETPLACE#m1", active[0].PartitionKey)

	members, err := s.Query(ctx, records.Query{PartitionValue: "MARKETPLACE#m1", SortPrefix: "MEMBER#"})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "MEMBER#u1", members[0].SortKey)

	byPK, err := s.Query(ctx, records.Query{
		Index:          records.StatusIndex,
		PartitionValue: "ACTIVE",
		Filter:         map[string]any{records.AttrPK: "MARKETPLACE#m2"},
	})
	require.NoError(t, err)
	assert.Empty(t, byPK)
}

func TestRecordStore_TransactWriteIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()
	s.Seed(auction(20, "OPEN"))

	bid := records.Record{PartitionKey: "AUCTION#a", SortKey: "BID#b1", Attributes: map[string]any{"amount": 15.0}}
	err := s.TransactWrite(ctx, []records.TransactItem{
		{Put: &bid, PutCondition: records.Condition{MustNotExist: true}},
		{Update: &records.Update{
			Key:       auction(0, "").Key(),
			Set:       map[string]any{"highestBid": 15.0},
			Condition: records.Condition{LessThan: map[string]any{"highestBid": 15.0}},
		}},
	})
	assert.ErrorIs(t, err, records.ErrConditionFailed)

	_, found, _ := s.Get(ctx, bid.Key())
	assert.False(t, found)
}

func TestRecordStore_ScanAndErrors(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()
	s.Seed(records.Record{PartitionKey: "CARD#1", SortKey: "m", Attributes: map[string]any{"userId": "u1"}})
	s.Seed(records.Record{PartitionKey: "CARD#2", SortKey: "m", Attributes: map[string]any{"userId": "u2"}})

	got, err := s.Scan(ctx, map[string]any{"userId": "u1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CARD#1", got[0].PartitionKey)

	boom := errors.New("boom")
	s.SetError("Scan", boom)
	_, err = s.Scan(ctx, nil)
	assert.ErrorIs(t, err, boom)

	s.SetError("Scan", nil)
	_, err = s.Scan(ctx, nil)
	assert.NoError(t, err)
}
