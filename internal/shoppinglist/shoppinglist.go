// Package shoppinglist keeps a per-installation shopping list behind a
// pluggable storage port.
package shoppinglist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/google/uuid"
)

// DefaultUnit is used when an item carries no unit of its own.
const DefaultUnit = "unit"

var (
	ErrEntryNotFound   = errors.New("shopping list entry not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Storage persists a whole list. Implementations need not be safe for
// concurrent use; Store serializes access. Clear drops the persisted list
// entirely.
type Storage interface {
	Load(ctx context.Context) ([]model.ShoppingListEntry, error)
	Save(ctx context.Context, entries []model.ShoppingListEntry) error
	Clear(ctx context.Context) error
}

// Store is a shopping list with atomic read-modify-write operations.
type Store struct {
	storage Storage
	// lock blocks until the list is held and returns the release func.
	lock func() (unlock func())
}

// New returns a Store persisting to storage.
func New(storage Storage) *Store {
	var mu sync.Mutex
	return &Store{
		storage: storage,
		lock: func() func() {
			mu.Lock()
			return mu.Unlock
		},
	}
}

func newEntryID() string { return uuid.New().String() }

// List returns the entries in insertion order.
func (s *Store) List(ctx context.Context) ([]model.ShoppingListEntry, error) {
	defer s.lock()()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shopping list: %w", err)
	}
	if entries == nil {
		entries = []model.ShoppingListEntry{}
	}
	return entries, nil
}

// Add puts quantity of item on the list. An existing entry for the same item
// has its quantity increased instead of a second entry being created.
func (s *Store) Add(ctx context.Context, item model.Item, quantity int) (model.ShoppingListEntry, error) {
	if quantity < 1 {
		return model.ShoppingListEntry{}, ErrInvalidQuantity
	}

	var out model.ShoppingListEntry
	err := s.update(ctx, func(entries []model.ShoppingListEntry) ([]model.ShoppingListEntry, error) {
		for i := range entries {
			if entries[i].ItemID == item.ID {
				entries[i].Quantity += quantity
				out = entries[i]
				return entries, nil
			}
		}
		unit := item.Unit
		if unit == "" {
			unit = DefaultUnit
		}
		out = model.ShoppingListEntry{
			ID:        newEntryID(),
			ItemID:    item.ID,
			ItemName:  item.Name,
			ItemBrand: item.Brand,
			Quantity:  quantity,
			Unit:      unit,
		}
		return append(entries, out), nil
	})
	return out, err
}

// SetQuantity overwrites an entry's quantity. A quantity of zero or less
// removes the entry.
func (s *Store) SetQuantity(ctx context.Context, entryID string, quantity int) error {
	return s.update(ctx, func(entries []model.ShoppingListEntry) ([]model.ShoppingListEntry, error) {
		i := indexOf(entries, entryID)
		if i < 0 {
			return nil, ErrEntryNotFound
		}
		if quantity <= 0 {
			return append(entries[:i], entries[i+1:]...), nil
		}
		entries[i].Quantity = quantity
		return entries, nil
	})
}

// Remove deletes an entry.
func (s *Store) Remove(ctx context.Context, entryID string) error {
	return s.update(ctx, func(entries []model.ShoppingListEntry) ([]model.ShoppingListEntry, error) {
		i := indexOf(entries, entryID)
		if i < 0 {
			return nil, ErrEntryNotFound
		}
		return append(entries[:i], entries[i+1:]...), nil
	})
}

// Clear empties the list by removing it from storage. Clearing an empty list
// is not an error.
func (s *Store) Clear(ctx context.Context) error {
	defer s.lock()()

	if err := s.storage.Clear(ctx); err != nil {
		return fmt.Errorf("clear shopping list: %w", err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, fn func([]model.ShoppingListEntry) ([]model.ShoppingListEntry, error)) error {
	defer s.lock()()

	entries, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("load shopping list: %w", err)
	}
	entries, err = fn(entries)
	if err != nil {
		return err
	}
	if err := s.storage.Save(ctx, entries); err != nil {
		return fmt.Errorf("save shopping list: %w", err)
	}
	return nil
}

func indexOf(entries []model.ShoppingListEntry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Registry hands out Stores that share a lock per scope, so concurrent
// requests for the same installation are serialized. A scope's lock lives
// only while some request holds or waits on it.
type Registry struct {
	mu      sync.Mutex
	scopes  map[string]*scopeLock
	storage func(scope string) Storage
}

type scopeLock struct {
	mu   sync.Mutex
	refs int
}

// NewRegistry returns a Registry that builds storage for a scope on use.
func NewRegistry(storage func(scope string) Storage) *Registry {
	return &Registry{scopes: make(map[string]*scopeLock), storage: storage}
}

// For returns a Store for scope. Stores are cheap and need not be retained.
func (r *Registry) For(scope string) *Store {
	return &Store{
		storage: r.storage(scope),
		lock:    func() func() { return r.acquire(scope) },
	}
}

func (r *Registry) acquire(scope string) func() {
	r.mu.Lock()
	l, ok := r.scopes[scope]
	if !ok {
		l = &scopeLock{}
		r.scopes[scope] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		r.mu.Lock()
		defer r.mu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(r.scopes, scope)
		}
	}
}

// active returns the number of scopes currently holding a lock entry.
func (r *Registry) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes)
}
