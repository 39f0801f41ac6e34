package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/metrics"
	"github.com/rocketscienceinc/fourinarow-backend/internal/usecase"
)

type stubSnapshot struct {
	snapshot usecase.Snapshot
}

func (that stubSnapshot) Snapshot() usecase.Snapshot {
	return that.snapshot
}

type stubLeaderboard struct {
	players []entity.PlayerStats
	err     error
	limit   int
}

func (that *stubLeaderboard) Leaderboard(_ context.Context, limit int) ([]entity.PlayerStats, error) {
	that.limit = limit
	return that.players, that.err
}

type stubResults struct {
	results map[string]entity.MatchResult
	err     error
}

func (that stubResults) GetByID(_ context.Context, id string) (entity.MatchResult, error) {
	if that.err != nil {
		return entity.MatchResult{}, that.err
	}

	result, ok := that.results[id]
	if !ok {
		return entity.MatchResult{}, fmt.Errorf("game %s: %w", id, apperror.ErrNotFound)
	}

	return result, nil
}

func newTestServer(players leaderboardSource, results resultSource) (*Server, *prometheus.Registry) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()

	snapshot := stubSnapshot{snapshot: usecase.Snapshot{Games: 2, WaitingPlayers: 1, DisconnectedPlayers: 1}}

	return New(logger, NewHealth(snapshot), NewStats(logger, players, results), registry), registry
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	return rec
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(nil, nil)

	t.Run("Health reports live counts", func(t *testing.T) {
		rec := get(t, server, "/")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","games":2,"waitingPlayers":1,"disconnectedPlayers":1}`, rec.Body.String())
	})

	t.Run("Ping", func(t *testing.T) {
		rec := get(t, server, "/ping")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})
}

func TestLeaderboard(t *testing.T) {
	t.Run("Returns the top players", func(t *testing.T) {
		// Given: a leaderboard source with two players
		players := &stubLeaderboard{players: []entity.PlayerStats{
			{Username: "alice", GamesPlayed: 5, GamesWon: 4},
			{Username: "bob", GamesPlayed: 5, GamesWon: 1},
		}}
		server, _ := newTestServer(players, nil)

		// When
		rec := get(t, server, "/api/leaderboard")

		// Then
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, leaderboardSize, players.limit)

		var body []entity.PlayerStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, players.players, body)
	})

	t.Run("Failure degrades to an empty list", func(t *testing.T) {
		server, _ := newTestServer(&stubLeaderboard{err: errors.New("connection refused")}, nil)

		rec := get(t, server, "/api/leaderboard")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("No database gives an empty list", func(t *testing.T) {
		server, _ := newTestServer(nil, nil)

		rec := get(t, server, "/api/leaderboard")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestGame(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	board := entity.NewBoard()
	board.ApplyMove(3, entity.MarkerRed)

	results := stubResults{results: map[string]entity.MatchResult{
		"g1": {
			MatchID:     "g1",
			PlayerOne:   "alice",
			PlayerTwo:   "bob",
			Outcome:     entity.NewForfeit("alice"),
			Duration:    42 * time.Second,
			Moves:       1,
			Board:       board,
			StartedAt:   started,
			CompletedAt: started.Add(42 * time.Second),
		},
	}}

	t.Run("Returns a completed game", func(t *testing.T) {
		server, _ := newTestServer(nil, results)

		rec := get(t, server, "/api/games/g1")

		require.Equal(t, http.StatusOK, rec.Code)

		var body gameResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "alice", body.Winner)
		assert.Equal(t, "forfeit", body.Reason)
		assert.Equal(t, 42, body.Duration)
		assert.Equal(t, entity.MarkerRed, body.Board[entity.Rows-1][3])
	})

	t.Run("Unknown game is 404", func(t *testing.T) {
		server, _ := newTestServer(nil, results)

		rec := get(t, server, "/api/games/missing")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Storage failure is 500", func(t *testing.T) {
		server, _ := newTestServer(nil, stubResults{err: errors.New("boom")})

		rec := get(t, server, "/api/games/g1")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestMetrics(t *testing.T) {
	// Given: registered game metrics
	server, registry := newTestServer(nil, nil)
	m := metrics.New(registry)
	m.MovesApplied.Inc()

	// When
	rec := get(t, server, "/metrics")

	// Then
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moves_applied_total 1")
}
