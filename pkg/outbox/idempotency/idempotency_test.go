package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = "1"
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "czy:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil, time.Minute)
	require.Error(t, err)

	_, err = NewManager(newFakeStore(), -time.Second)
	require.Error(t, err)
}

func TestCheckAndMarkProcessed(t *testing.T) {
	store := newFakeStore()
	mgr, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	processed, err := mgr.CheckAndMarkProcessed(context.Background(), "outbox-dispatcher", eventID)
	require.NoError(t, err)
	assert.False(t, processed)

	processed, err = mgr.CheckAndMarkProcessed(context.Background(), "outbox-dispatcher", eventID)
	require.NoError(t, err)
	assert.True(t, processed)

	key := store.IdempotencyKey("evt:processed:outbox-dispatcher", eventID.String())
	assert.Equal(t, time.Hour, store.ttls[key])
}

func TestCheckAndMarkProcessedValidation(t *testing.T) {
	mgr, err := NewManager(newFakeStore(), time.Hour)
	require.NoError(t, err)

	_, err = mgr.CheckAndMarkProcessed(context.Background(), "", uuid.New())
	require.Error(t, err)

	_, err = mgr.CheckAndMarkProcessed(context.Background(), "outbox-dispatcher", uuid.Nil)
	require.Error(t, err)
}

func TestDeleteAllowsReprocessing(t *testing.T) {
	store := newFakeStore()
	mgr, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	_, err = mgr.CheckAndMarkProcessed(context.Background(), "outbox-dispatcher", eventID)
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(context.Background(), "outbox-dispatcher", eventID))

	processed, err := mgr.CheckAndMarkProcessed(context.Background(), "outbox-dispatcher", eventID)
	require.NoError(t, err)
	assert.False(t, processed)
}
