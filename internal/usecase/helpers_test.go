package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/metrics"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository/memory"
	"github.com/rocketscienceinc/fourinarow-backend/internal/service"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var errConnClosed = errors.New("connection closed")

type fakeConn struct {
	mu     sync.Mutex
	events []entity.Event
	closed bool
}

func (c *fakeConn) Send(event entity.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errConnClosed
	}

	c.events = append(c.events, event)

	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
}

func (c *fakeConn) Events() []entity.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]entity.Event(nil), c.events...)
}

func (c *fakeConn) Count(action string) int {
	count := 0
	for _, event := range c.Events() {
		if event.Action == action {
			count++
		}
	}

	return count
}

func (c *fakeConn) Last(action string) (entity.Event, bool) {
	events := c.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Action == action {
			return events[i], true
		}
	}

	return entity.Event{}, false
}

func (c *fakeConn) GameStart(t *testing.T) entity.GameStartPayload {
	t.Helper()

	event, ok := c.Last(entity.ActionGameStart)
	require.True(t, ok, "no gameStart received")

	payload, ok := event.Payload.(entity.GameStartPayload)
	require.True(t, ok)

	return payload
}

func (c *fakeConn) GameState(t *testing.T) entity.GameStatePayload {
	t.Helper()

	event, ok := c.Last(entity.ActionGameState)
	require.True(t, ok, "no gameState received")

	payload, ok := event.Payload.(entity.GameStatePayload)
	require.True(t, ok)

	return payload
}

func (c *fakeConn) GameOver(t *testing.T) entity.GameOverPayload {
	t.Helper()

	event, ok := c.Last(entity.ActionGameOver)
	require.True(t, ok, "no gameOver received")

	payload, ok := event.Payload.(entity.GameOverPayload)
	require.True(t, ok)

	return payload
}

type fakeResults struct {
	mu        sync.Mutex
	joined    []string
	started   []entity.MatchResult
	moves     []entity.Move
	completed []entity.MatchResult
}

func (f *fakeResults) PlayerJoined(_ context.Context, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.joined = append(f.joined, username)
}

func (f *fakeResults) MatchStarted(_ context.Context, match entity.MatchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.started = append(f.started, match)
}

func (f *fakeResults) MoveApplied(_ context.Context, move entity.Move) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.moves = append(f.moves, move)
}

func (f *fakeResults) MatchCompleted(_ context.Context, result entity.MatchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.completed = append(f.completed, result)
}

func (f *fakeResults) Started() []entity.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]entity.MatchResult(nil), f.started...)
}

func (f *fakeResults) Moves() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.moves)
}

func (f *fakeResults) Completed() []entity.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]entity.MatchResult(nil), f.completed...)
}

type harness struct {
	manager *GameManager
	clock   *clock.Mock
	results *fakeResults
	games   repository.GameRepository
}

var defaultTimeouts = Timeouts{
	Reconnect: 30 * time.Second,
	BotThink:  time.Second,
	Sink:      5 * time.Second,
}

func newHarness(t *testing.T, timeouts Timeouts) *harness {
	t.Helper()

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	results := &fakeResults{}
	games := repository.NewGameRepository(memory.NewStore[*entity.Match](), memory.NewStore[string]())
	queue := NewQueue(clk, 10*time.Second, memory.NewStore[*entity.WaitingEntry]())

	manager := NewGameManager(logger, clk, metrics.New(prometheus.NewRegistry()), timeouts,
		games, queue, memory.NewStore[*entity.Disconnection](), service.NewBotService(), results)

	return &harness{
		manager: manager,
		clock:   clk,
		results: results,
		games:   games,
	}
}

// pair - alice joins then bob joins, alice moves first.
func (h *harness) pair(t *testing.T) (string, *fakeConn, *fakeConn) {
	t.Helper()

	alice, bob := &fakeConn{}, &fakeConn{}
	require.NoError(t, h.manager.Join(context.Background(), "alice", alice))
	require.NoError(t, h.manager.Join(context.Background(), "bob", bob))

	start := alice.GameStart(t)

	return start.GameID, alice, bob
}

func (h *harness) move(t *testing.T, identity, gameID string, column int) {
	t.Helper()

	require.NoError(t, h.manager.SubmitMove(context.Background(), identity, gameID, column))
}
