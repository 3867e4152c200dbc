// Package records defines the stored shape of every marketplace entity: the
// composite keys, the attribute names and the conditions writes may carry.
// Values held in a Record are already encrypted where the attribute is sensitive.
package records

import "errors"

// Physical attribute names of the single-table layout.
const (
	AttrPK           = "PK"
	AttrSK           = "SK"
	AttrGSI1PK       = "GSI1PK"
	AttrGSI1SK       = "GSI1SK"
	AttrEntityType   = "entityType"
	AttrStatus       = "status"
	AttrReviewStatus = "reviewStatus"
	AttrCreatedAt    = "createdAt"
	AttrUpdatedAt    = "updatedAt"
)

// ErrConditionFailed is returned by a store when a conditional write or a
// transaction condition does not hold.
var ErrConditionFailed = errors.New("condition check failed")

// KeyPair is a partition key and sort key of one item.
type KeyPair struct {
	PartitionKey string `json:"PK"`
	SortKey      string `json:"SK"`
}

// Record is one stored item. Attributes never contain the key attributes of
// the primary table or of GSI1; those live in PartitionKey, SortKey and
// SecondaryKeys.
type Record struct {
	PartitionKey  string
	SortKey       string
	Attributes    map[string]any
	SecondaryKeys map[IndexName]KeyPair
}

// Key returns the primary key of r.
func (r Record) Key() KeyPair {
	return KeyPair{PartitionKey: r.PartitionKey, SortKey: r.SortKey}
}

// String returns the named attribute when it holds a string.
func (r Record) String(name string) string {
	if v, ok := r.Attributes[name].(string); ok {
		return v
	}
	return ""
}

// Number returns the named attribute as a float64, accepting any numeric kind.
func (r Record) Number(name string) (float64, bool) {
	return toFloat(r.Attributes[name])
}

// Item flattens r into a single attribute map. Nil values and empty strings
// are dropped so absent optional fields stay absent.
func (r Record) Item() map[string]any {
	item := make(map[string]any, len(r.Attributes)+4)
	for k, v := range r.Attributes {
		if isEmpty(v) {
			continue
		}
		item[k] = v
	}
	item[AttrPK] = r.PartitionKey
	item[AttrSK] = r.SortKey
	if gsi, ok := r.SecondaryKeys[GSI1]; ok && gsi.PartitionKey != "" {
		item[AttrGSI1PK] = gsi.PartitionKey
		item[AttrGSI1SK] = gsi.SortKey
	}
	return item
}

// FromItem is the inverse of Item.
func FromItem(item map[string]any) Record {
	r := Record{Attributes: make(map[string]any, len(item))}
	for k, v := range item {
		switch k {
		case AttrPK:
			r.PartitionKey, _ = v.(string)
		case AttrSK:
			r.SortKey, _ = v.(string)
		case AttrGSI1PK, AttrGSI1SK:
		default:
			r.Attributes[k] = v
		}
	}

	pk, _ := item[AttrGSI1PK].(string)
	sk, _ := item[AttrGSI1SK].(string)
	if pk != "" {
		r.SecondaryKeys = map[IndexName]KeyPair{GSI1: {PartitionKey: pk, SortKey: sk}}
	}
	return r
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
