package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/fourinarow-backend/testing/suite"
)

const testStream = "game-analytics"

type movePayload struct {
	GameID string `json:"gameId"`
	Column int    `json:"column"`
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("Appends an envelope to the stream", func(t *testing.T) {
		// Given: a publisher on an in-memory redis
		server := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		publisher := NewPublisher(client, testStream)

		// When: a move event is published
		err := publisher.Publish(ctx, "match.move", movePayload{GameID: "game-1", Column: 3})

		// Then: the stream holds one entry carrying the event
		require.NoError(t, err)

		entries, err := client.XRange(ctx, testStream, "-", "+").Result()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "match.move", entries[0].Values["event_type"])

		var decoded struct {
			EventType string      `json:"eventType"`
			Data      movePayload `json:"data"`
		}
		raw, ok := entries[0].Values["payload"].(string)
		require.True(t, ok)
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		assert.Equal(t, "match.move", decoded.EventType)
		assert.Equal(t, movePayload{GameID: "game-1", Column: 3}, decoded.Data)
	})

	t.Run("Returns an error when redis is unavailable", func(t *testing.T) {
		// Given: a publisher whose redis has gone away
		server := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
		publisher := NewPublisher(client, testStream)
		server.Close()

		// When: an event is published
		err := publisher.Publish(ctx, "match.started", map[string]string{"gameId": "game-1"})

		// Then: the failure is reported to the caller
		require.Error(t, err)
	})

	t.Run("Unmarshalable payloads are rejected before reaching redis", func(t *testing.T) {
		server := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		publisher := NewPublisher(client, testStream)

		err := publisher.Publish(ctx, "match.move", make(chan int))

		require.Error(t, err)
		assert.False(t, server.Exists(testStream))
	})
}

func TestPublisher_PublishIntegration(t *testing.T) {
	ctx, st := suite.NewRedis(t)

	publisher := NewPublisher(st.Redis, testStream)

	// Given: three published events
	for _, event := range []string{"match.started", "match.move", "match.completed"} {
		require.NoError(t, publisher.Publish(ctx, event, map[string]string{"gameId": "game-1"}))
	}

	// Then: they are read back in order
	entries, err := st.Redis.XRange(ctx, testStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "match.completed", entries[2].Values["event_type"])
}
