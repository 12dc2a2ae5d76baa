package shoppinglist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/savesmart/internal/model"
)

// StorageKey is the key the list is stored under.
const StorageKey = "savesmart_shopping_list"

// MemoryStorage keeps the list in memory.
type MemoryStorage struct {
	entries []model.ShoppingListEntry
}

func (m *MemoryStorage) Load(context.Context) ([]model.ShoppingListEntry, error) {
	out := make([]model.ShoppingListEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, entries []model.ShoppingListEntry) error {
	m.entries = make([]model.ShoppingListEntry, len(entries))
	copy(m.entries, entries)
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.entries = nil
	return nil
}

// KV is a string key-value store. Get reports found=false for a missing key
// and Delete of a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// KVStorage stores the list as JSON under StorageKey, suffixed by scope when
// one is given.
type KVStorage struct {
	kv  KV
	key string
}

// NewKVStorage returns storage for one installation scope.
func NewKVStorage(kv KV, scope string) *KVStorage {
	key := StorageKey
	if scope != "" {
		key += ":" + scope
	}
	return &KVStorage{kv: kv, key: key}
}

func (s *KVStorage) Load(ctx context.Context) ([]model.ShoppingListEntry, error) {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if !found || raw == "" {
		return []model.ShoppingListEntry{}, nil
	}
	var entries []model.ShoppingListEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return entries, nil
}

func (s *KVStorage) Save(ctx context.Context, entries []model.ShoppingListEntry) error {
	if entries == nil {
		entries = []model.ShoppingListEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.kv.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

func (s *KVStorage) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete %s: %w", s.key, err)
	}
	return nil
}
