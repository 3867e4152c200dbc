package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_ItemRoundTrip(t *testing.T) {
	r := Record{
		PartitionKey: "LISTING#abc",
		SortKey:      "meta",
		Attributes: map[string]any{
			"title":       "enc-title",
			"description": "",
			"price":       12.5,
			"note":        nil,
		},
		SecondaryKeys: map[IndexName]KeyPair{
			GSI1: ListingByMarketplaceKey("mkt", "2024-01-01T00:00:00.000Z"),
		},
	}

	item := r.Item()
	assert.Equal(t, "LISTING#abc", item[AttrPK])
	assert.Equal(t, "MARKETPLACE#mkt", item[AttrGSI1PK])
	assert.Equal(t, "LISTING#2024-01-01T00:00:00.000Z", item[AttrGSI1SK])
	assert.NotContains(t, item, "description")
	assert.NotContains(t, item, "note")

	back := FromItem(item)
	assert.Equal(t, r.Key(), back.Key())
	assert.Equal(t, r.SecondaryKeys, back.SecondaryKeys)
	assert.Equal(t, "enc-title", back.String("title"))
	assert.NotContains(t, back.Attributes, AttrPK)

	price, ok := back.Number("price")
	assert.True(t, ok)
	assert.Equal(t, 12.5, price)
}

func TestIndexName_KeyAttributes(t *testing.T) {
	pk, sk := PrimaryIndex.KeyAttributes()
	assert.Equal(t, []string{AttrPK, AttrSK}, []string{pk, sk})

	pk, sk = StatusIndex.KeyAttributes()
	assert.Equal(t, []string{AttrStatus, AttrCreatedAt}, []string{pk, sk})

	pk, _ = ReviewStatusIndex.KeyAttributes()
	assert.Equal(t, AttrReviewStatus, pk)
}

func TestCondition_IsZero(t *testing.T) {
	assert.True(t, Condition{}.IsZero())
	assert.False(t, Condition{MustExist: true}.IsZero())
	assert.False(t, Condition{Equals: map[string]any{"status": "OPEN"}}.IsZero())
}
