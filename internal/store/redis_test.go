package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDocumentStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	docStore := NewRedisDocumentStore(client)
	ctx := context.Background()
	session := "test-session-token"

	t.Run("SetAndGet", func(t *testing.T) {
		doc := map[string]interface{}{"title": "Room A", "capacity": 4}
		err := docStore.Set(ctx, "meetingRooms/room-1", doc, session)
		require.NoError(t, err)

		raw, err := docStore.Get(ctx, "meetingRooms/room-1", session)
		require.NoError(t, err)
		require.NotNil(t, raw)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "Room A", got["title"])
		assert.Equal(t, float64(4), got["capacity"])
	})

	t.Run("GetMissingReturnsNil", func(t *testing.T) {
		raw, err := docStore.Get(ctx, "meetingRooms/no-such-room", session)
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("GetAllEmptyCollection", func(t *testing.T) {
		docs, err := docStore.GetAll(ctx, "emptyCollection", session)
		require.NoError(t, err)
		assert.Nil(t, docs)
	})

	t.Run("GetAllReturnsAllKeys", func(t *testing.T) {
		require.NoError(t, docStore.Set(ctx, "rooms/a", map[string]interface{}{"title": "A"}, session))
		require.NoError(t, docStore.Set(ctx, "rooms/b", map[string]interface{}{"title": "B"}, session))

		docs, err := docStore.GetAll(ctx, "rooms", session)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Contains(t, docs, "a")
		assert.Contains(t, docs, "b")
	})

	t.Run("UpdateMergesOnlyGivenFields", func(t *testing.T) {
		doc := map[string]interface{}{"title": "A", "capacity": 5}
		require.NoError(t, docStore.Set(ctx, "meetingRooms/room-2", doc, session))

		err := docStore.Update(ctx, "meetingRooms/room-2", map[string]interface{}{"capacity": 9}, session)
		require.NoError(t, err)

		raw, err := docStore.Get(ctx, "meetingRooms/room-2", session)
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "A", got["title"])
		assert.Equal(t, float64(9), got["capacity"])
	})

	t.Run("UpdateMissingCreatesDocument", func(t *testing.T) {
		err := docStore.Update(ctx, "meetingRooms/fresh", map[string]interface{}{"title": "new"}, session)
		require.NoError(t, err)

		raw, err := docStore.Get(ctx, "meetingRooms/fresh", session)
		require.NoError(t, err)
		require.NotNil(t, raw)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, docStore.Set(ctx, "meetingRooms/doomed", map[string]interface{}{"title": "x"}, session))
		require.NoError(t, docStore.Remove(ctx, "meetingRooms/doomed"))

		raw, err := docStore.Get(ctx, "meetingRooms/doomed", session)
		require.NoError(t, err)
		assert.Nil(t, raw)

		// Removing an absent document is not an error
		assert.NoError(t, docStore.Remove(ctx, "meetingRooms/doomed"))
	})

	t.Run("InvalidPaths", func(t *testing.T) {
		_, err := docStore.Get(ctx, "meetingRooms", session)
		assert.Error(t, err)

		_, err = docStore.GetAll(ctx, "meetingRooms/room-1", session)
		assert.Error(t, err)

		err = docStore.Set(ctx, "", map[string]interface{}{}, session)
		assert.Error(t, err)
	})
}
