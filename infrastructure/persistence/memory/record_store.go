// Package memory provides an in-process RecordStore for local development
// and tests. It honours the same key, index and condition semantics as the
// DynamoDB store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"marketplace-backend/domain/records"
)

// RecordStore keeps flattened items in a map keyed by PK and SK.
type RecordStore struct {
	mu    sync.RWMutex
	items map[string]map[string]any

	// failOn makes the named method return the error.
	failOn map[string]error
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		items:  make(map[string]map[string]any),
		failOn: make(map[string]error),
	}
}

// SetError configures method to fail with err. A nil err clears it.
func (s *RecordStore) SetError(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failOn, method)
		return
	}
	s.failOn[method] = err
}

// Len reports the number of stored items.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Seed stores rec unconditionally.
func (s *RecordStore) Seed(rec records.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[storageKey(rec.Key())] = normalize(rec.Item())
}

func (s *RecordStore) Get(ctx context.Context, key records.KeyPair) (records.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failOn["Get"]; err != nil {
		return records.Record{}, false, err
	}
	item, ok := s.items[storageKey(key)]
	if !ok {
		return records.Record{}, false, nil
	}
	return records.FromItem(copyItem(item)), true, nil
}

func (s *RecordStore) Put(ctx context.Context, rec records.Record, cond records.Condition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failOn["Put"]; err != nil {
		return err
	}
	key := storageKey(rec.Key())
	if !matches(s.items[key], cond) {
		return records.ErrConditionFailed
	}
	s.items[key] = normalize(rec.Item())
	return nil
}

func (s *RecordStore) Update(ctx context.Context, upd records.Update) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failOn["Update"]; err != nil {
		return records.Record{}, err
	}
	key := storageKey(upd.Key)
	if !matches(s.items[key], upd.Condition) {
		return records.Record{}, records.ErrConditionFailed
	}
	item := s.apply(upd)
	return records.FromItem(copyItem(item)), nil
}

func (s *RecordStore) Delete(ctx context.Context, key records.KeyPair, cond records.Condition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failOn["Delete"]; err != nil {
		return err
	}
	k := storageKey(key)
	if !matches(s.items[k], cond) {
		return records.ErrConditionFailed
	}
	delete(s.items, k)
	return nil
}

func (s *RecordStore) Query(ctx context.Context, q records.Query) ([]records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failOn["Query"]; err != nil {
		return nil, err
	}

	pkAttr, skAttr := q.Index.KeyAttributes()
	var found []map[string]any
	for _, item := range s.items {
		if pk, _ := item[pkAttr].(string); pk != q.PartitionValue {
			continue
		}
		sk, hasSK := item[skAttr].(string)
		if !hasSK {
			// Sparse index: items without the sort attribute are not indexed.
			continue
		}
		if q.SortPrefix != "" && !strings.HasPrefix(sk, q.SortPrefix) {
			continue
		}
		if q.SortEquals != "" && sk != q.SortEquals {
			continue
		}
		if !equalsAll(item, q.Filter) {
			continue
		}
		found = append(found, item)
	}

	sort.Slice(found, func(i, j int) bool {
		return fmt.Sprint(found[i][skAttr]) < fmt.Sprint(found[j][skAttr])
	})
	return toRecords(found), nil
}

func (s *RecordStore) Scan(ctx context.Context, filter map[string]any) ([]records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failOn["Scan"]; err != nil {
		return nil, err
	}

	var found []map[string]any
	for _, item := range s.items {
		if equalsAll(item, filter) {
			found = append(found, item)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return fmt.Sprint(found[i][records.AttrPK]) < fmt.Sprint(found[j][records.AttrPK])
	})
	return toRecords(found), nil
}

// TransactWrite checks every condition before applying any write.
func (s *RecordStore) TransactWrite(ctx context.Context, items []records.TransactItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failOn["TransactWrite"]; err != nil {
		return err
	}

	for _, it := range items {
		switch {
		case it.Put != nil:
			if !matches(s.items[storageKey(it.Put.Key())], it.PutCondition) {
				return records.ErrConditionFailed
			}
		case it.Update != nil:
			if !matches(s.items[storageKey(it.Update.Key)], it.Update.Condition) {
				return records.ErrConditionFailed
			}
		}
	}

	for _, it := range items {
		switch {
		case it.Put != nil:
			s.items[storageKey(it.Put.Key())] = normalize(it.Put.Item())
		case it.Update != nil:
			s.apply(*it.Update)
		}
	}
	return nil
}

// apply must be called with the write lock held.
func (s *RecordStore) apply(upd records.Update) map[string]any {
	key := storageKey(upd.Key)
	item, ok := s.items[key]
	if !ok {
		item = map[string]any{
			records.AttrPK: upd.Key.PartitionKey,
			records.AttrSK: upd.Key.SortKey,
		}
	}
	for k, v := range normalize(upd.Set) {
		item[k] = v
	}
	s.items[key] = item
	return item
}

func storageKey(k records.KeyPair) string {
	return k.PartitionKey + "\x00" + k.SortKey
}

func matches(item map[string]any, cond records.Condition) bool {
	exists := item != nil
	if cond.MustExist && !exists {
		return false
	}
	if cond.MustNotExist && exists {
		return false
	}
	if len(cond.Equals) > 0 && (!exists || !equalsAll(item, cond.Equals)) {
		return false
	}
	for name, bound := range cond.LessThan {
		if !exists || !less(item[name], normalizeValue(bound)) {
			return false
		}
	}
	return true
}

func equalsAll(item map[string]any, want map[string]any) bool {
	for name, v := range want {
		if item[name] != normalizeValue(v) {
			return false
		}
	}
	return true
}

func less(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	}
	return false
}

// normalize stores every number as float64, the way DynamoDB items come back
// from attributevalue unmarshalling into interface values.
func normalize(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}

func copyItem(item map[string]any) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func toRecords(items []map[string]any) []records.Record {
	out := make([]records.Record, 0, len(items))
	for _, item := range items {
		out = append(out, records.FromItem(copyItem(item)))
	}
	return out
}
