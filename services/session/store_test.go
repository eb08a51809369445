package session

import (
	"context"
	"testing"
	"time"

	"meetingagent/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetPut(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	sess := &models.Session{SessionID: "s-1", Planner: models.NewWorkflowState(5)}
	require.NoError(t, store.Put(ctx, "s-1", sess))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, store.Len())
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st := models.NewWorkflowState(5)
	st.Append("book a meeting")
	st.Status = models.StatusAwaitingHuman
	st.AgentName = models.AgentInput
	sess := &models.Session{
		SessionID: "s-1",
		Planner:   st,
		PlannerCheckpoint: &models.Checkpoint{
			State:  st,
			Resume: "planner",
		},
	}
	require.NoError(t, store.Put(ctx, "s-1", sess))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.SessionID)
	assert.Equal(t, []string{"book a meeting"}, got.Planner.Messages)
	assert.Equal(t, models.StatusAwaitingHuman, got.Planner.Status)
	assert.Equal(t, models.AgentInput, got.Planner.AgentName)
	assert.Equal(t, 5, got.Planner.Turns)
	require.NotNil(t, got.PlannerCheckpoint)
	assert.Equal(t, "planner", got.PlannerCheckpoint.Resume)
	assert.Equal(t, []string{"book a meeting"}, got.PlannerCheckpoint.State.Messages)
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	sess := &models.Session{SessionID: "s-1", Planner: models.NewWorkflowState(5)}
	require.NoError(t, store.Put(ctx, "s-1", sess))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
