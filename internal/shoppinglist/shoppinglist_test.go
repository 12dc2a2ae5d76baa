package shoppinglist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	milk = model.Item{ID: 1, Name: "Susu Segar", Brand: "Dutch Lady", Unit: "1L"}
	rice = model.Item{ID: 2, Name: "Beras Wangi"}
)

func newTestStore() *Store {
	return New(&MemoryStorage{})
}

func TestAddMergesSameItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	first, err := s.Add(ctx, milk, 2)
	require.NoError(t, err)
	second, err := s.Add(ctx, milk, 3)
	require.NoError(t, err)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Quantity)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)
}

func TestAddDenormalizesItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	e, err := s.Add(ctx, milk, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "Susu Segar", e.ItemName)
	assert.Equal(t, "Dutch Lady", e.ItemBrand)
	assert.Equal(t, "1L", e.Unit)

	e, err = s.Add(ctx, rice, 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultUnit, e.Unit)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].ItemID)
	assert.Equal(t, int64(2), entries[1].ItemID)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	_, err := newTestStore().Add(context.Background(), milk, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	e, err := s.Add(ctx, milk, 2)
	require.NoError(t, err)

	require.NoError(t, s.SetQuantity(ctx, e.ID, 7))
	entries, _ := s.List(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, 7, entries[0].Quantity)

	require.NoError(t, s.SetQuantity(ctx, e.ID, 0))
	entries, _ = s.List(ctx)
	assert.Empty(t, entries)

	assert.ErrorIs(t, s.SetQuantity(ctx, e.ID, 1), ErrEntryNotFound)
}

func TestSetQuantityNegativeRemoves(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	e, _ := s.Add(ctx, milk, 2)
	_, _ = s.Add(ctx, rice, 1)

	require.NoError(t, s.SetQuantity(ctx, e.ID, -3))
	entries, _ := s.List(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, rice.ID, entries[0].ItemID)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	e, _ := s.Add(ctx, milk, 1)

	require.NoError(t, s.Remove(ctx, e.ID))
	assert.ErrorIs(t, s.Remove(ctx, e.ID), ErrEntryNotFound)
}

func TestClearTwice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	_, _ = s.Add(ctx, milk, 1)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Clear(ctx))
		entries, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.NotNil(t, entries)
	}
}

type mapKV struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func (m *mapKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *mapKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.values, key)
	return nil
}

func TestKVStoragePersistsAcrossStores(t *testing.T) {
	ctx := context.Background()
	kv := &mapKV{values: map[string]string{}}

	_, err := New(NewKVStorage(kv, "device-a")).Add(ctx, milk, 2)
	require.NoError(t, err)

	entries, err := New(NewKVStorage(kv, "device-a")).List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Quantity)

	other, err := New(NewKVStorage(kv, "device-b")).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, other)

	assert.Contains(t, kv.values, StorageKey+":device-a")
}

func TestKVStorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")

	s := New(NewKVStorage(&mapKV{values: map[string]string{}, err: boom}, ""))
	_, err := s.Add(ctx, milk, 1)
	assert.ErrorIs(t, err, boom)

	bad := &mapKV{values: map[string]string{StorageKey: "{not json"}}
	_, err = New(NewKVStorage(bad, "")).List(ctx)
	assert.Error(t, err)
}

func TestRegistrySerializesScope(t *testing.T) {
	ctx := context.Background()
	kv := &mapKV{values: map[string]string{}}
	reg := NewRegistry(func(scope string) Storage { return NewKVStorage(kv, scope) })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.For("x").Add(ctx, milk, 1)
		}()
	}
	wg.Wait()

	entries, err := reg.For("x").List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 20, entries[0].Quantity)
}

func TestKVStorageClearDeletesKey(t *testing.T) {
	ctx := context.Background()
	kv := &mapKV{values: map[string]string{}}
	s := New(NewKVStorage(kv, "device-a"))

	_, err := s.Add(ctx, milk, 1)
	require.NoError(t, err)
	require.Contains(t, kv.values, StorageKey+":device-a")

	require.NoError(t, s.Clear(ctx))
	assert.NotContains(t, kv.values, StorageKey+":device-a")

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, s.Clear(ctx))
}

func TestRegistryReleasesIdleScopes(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(func(string) Storage { return &MemoryStorage{} })

	for i := 0; i < 10000; i++ {
		_, err := reg.For(fmt.Sprintf("device-%d", i)).List(ctx)
		require.NoError(t, err)
	}
	assert.Zero(t, reg.active())

	unlock := reg.acquire("held")
	assert.Equal(t, 1, reg.active())
	unlock()
	assert.Zero(t, reg.active())
}
