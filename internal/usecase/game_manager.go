package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/metrics"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository/memory"
)

type gameRepo interface {
	Create(match *entity.Match) error
	GetByID(id string) (*entity.Match, error)
	GetByPlayer(identity string) (*entity.Match, error)
	DeleteByID(id string) error
	Len() int
}

type botService interface {
	ChooseColumn(board entity.Board, botMarker, humanMarker entity.Marker) int
}

type resultService interface {
	PlayerJoined(ctx context.Context, username string)
	MatchStarted(ctx context.Context, match entity.MatchResult)
	MoveApplied(ctx context.Context, move entity.Move)
	MatchCompleted(ctx context.Context, result entity.MatchResult)
}

type Timeouts struct {
	Reconnect time.Duration
	BotThink  time.Duration
	Sink      time.Duration
}

// Snapshot is a point-in-time view for health checks.
type Snapshot struct {
	Games               int `json:"games"`
	WaitingPlayers      int `json:"waitingPlayers"`
	DisconnectedPlayers int `json:"disconnectedPlayers"`
}

// GameManager drives matchmaking and every live match.
//
// Locks are taken in the order joinMu, match, registry/queue. The registry and the
// queue never call back into a match while holding their own lock.
type GameManager struct {
	logger   *slog.Logger
	clock    clock.Clock
	metrics  *metrics.Metrics
	timeouts Timeouts

	games       gameRepo
	queue       *Queue
	disconnects memory.Store[*entity.Disconnection]
	bot         botService
	results     resultService

	// serializes queue membership with match creation
	joinMu      sync.Mutex
	generations atomic.Uint64
	transitions map[commandKind]transition
}

func NewGameManager(
	logger *slog.Logger,
	clk clock.Clock,
	m *metrics.Metrics,
	timeouts Timeouts,
	games gameRepo,
	queue *Queue,
	disconnects memory.Store[*entity.Disconnection],
	bot botService,
	results resultService,
) *GameManager {
	manager := &GameManager{
		logger:   logger.With("component", "game_manager"),
		clock:    clk,
		metrics:  m,
		timeouts: timeouts,

		games:       games,
		queue:       queue,
		disconnects: disconnects,
		bot:         bot,
		results:     results,
	}

	manager.registerTransitions()
	queue.OnExpire(manager.escalate)

	return manager
}

// Join - pairs the player with the oldest waiting player, or queues them.
func (that *GameManager) Join(ctx context.Context, identity string, conn entity.Conn) error {
	log := that.logger.With("method", "Join", "username", identity)

	if identity == entity.BotIdentity {
		return fmt.Errorf("%s: %w", identity, apperror.ErrReservedName)
	}

	out := &outbox{}
	out.after(func(ctx context.Context) {
		that.results.PlayerJoined(ctx, identity)
	})

	that.joinMu.Lock()
	err := that.join(identity, conn, out)
	// waiting must reach the player before a later pairing's gameStart
	that.deliver(out)
	that.joinMu.Unlock()

	if err != nil {
		return err
	}

	that.runTasksWith(ctx, out)

	log.Debug("player joined")

	return nil
}

func (that *GameManager) join(identity string, conn entity.Conn, out *outbox) error {
	if match, err := that.games.GetByPlayer(identity); err == nil {
		return fmt.Errorf("%s is playing %s: %w", identity, match.ID, apperror.ErrAlreadyInMatch)
	}

	head, paired := that.queue.EnqueueOrPair(identity, conn, that.generations.Add(1))
	that.metrics.WaitingPlayers.Set(float64(that.queue.Len()))

	if !paired {
		out.sendTo(identity, conn, entity.NewWaitingEvent())
		return nil
	}

	match := entity.NewMatch(uuid.NewString(),
		entity.NewParticipant(head.Identity, entity.MarkerRed, head.Conn),
		entity.NewParticipant(identity, entity.MarkerYellow, conn),
		that.clock.Now(),
	)

	return that.start(match, out)
}

// escalate - the waiting entry timed out, the player gets a bot opponent.
func (that *GameManager) escalate(identity string, generation uint64) {
	log := that.logger.With("method", "escalate", "username", identity)

	out := &outbox{}

	that.joinMu.Lock()
	entry, ok := that.queue.Claim(identity, generation)
	if !ok {
		that.joinMu.Unlock()
		log.Debug("waiting entry already gone")

		return
	}

	that.metrics.WaitingPlayers.Set(float64(that.queue.Len()))

	match := entity.NewMatch(uuid.NewString(),
		entity.NewParticipant(identity, entity.MarkerRed, entry.Conn),
		entity.NewBotParticipant(entity.MarkerYellow),
		that.clock.Now(),
	)

	err := that.start(match, out)
	that.joinMu.Unlock()

	if err != nil {
		log.Error("failed to start bot game", "error", err)
		return
	}

	that.runTasks(out)
}

// start - registers the match and announces it to both sides.
func (that *GameManager) start(match *entity.Match, out *outbox) error {
	match.Lock()
	defer match.Unlock()

	if err := that.games.Create(match); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	for _, participant := range match.Participants {
		out.send(participant, entity.NewGameStartEvent(match, participant))
	}

	snapshot := match.Result()
	out.after(func(ctx context.Context) {
		that.results.MatchStarted(ctx, snapshot)
	})

	that.metrics.MatchesStarted.WithLabelValues(metrics.OpponentKind(match.IsBot)).Inc()
	that.metrics.ActiveMatches.Set(float64(that.games.Len()))

	that.deliver(out)

	that.logger.Info("game started", "game_id", match.ID,
		"player1", match.Participants[0].Identity, "player2", match.Participants[1].Identity)

	return nil
}

// SubmitMove - plays column for identity in the given match.
func (that *GameManager) SubmitMove(_ context.Context, identity, matchID string, column int) error {
	return that.dispatch(matchID, command{
		kind:     cmdMove,
		identity: identity,
		column:   column,
	})
}

// Reconnect - rebinds identity to conn and replays the match state.
func (that *GameManager) Reconnect(_ context.Context, identity, matchID string, conn entity.Conn) error {
	if err := that.dispatch(matchID, command{
		kind:     cmdReconnect,
		identity: identity,
		conn:     conn,
	}); err != nil {
		return err
	}

	that.logger.Info("player reconnected", "game_id", matchID, "username", identity)

	return nil
}

// Disconnect - conn of identity was closed.
// A waiting player leaves the queue, a playing one starts the forfeit countdown.
func (that *GameManager) Disconnect(_ context.Context, identity string, conn entity.Conn) {
	log := that.logger.With("method", "Disconnect", "username", identity)

	that.joinMu.Lock()
	if that.queue.Remove(identity, conn) {
		that.metrics.WaitingPlayers.Set(float64(that.queue.Len()))
	}
	match, err := that.games.GetByPlayer(identity)
	that.joinMu.Unlock()

	if err != nil {
		return
	}

	err = that.dispatch(match.ID, command{
		kind:     cmdDisconnect,
		identity: identity,
		conn:     conn,
	})

	switch {
	case err == nil:
		log.Info("player disconnected, waiting for reconnection", "game_id", match.ID)
	case errors.Is(err, errStaleTask), errors.Is(err, apperror.ErrNotFound):
		log.Debug("disconnect ignored", "game_id", match.ID, "reason", err)
	default:
		log.Error("failed to handle disconnect", "game_id", match.ID, "error", err)
	}
}

func (that *GameManager) fireForfeit(matchID, identity string, generation uint64) {
	that.fire(matchID, command{kind: cmdForfeit, identity: identity, generation: generation})
}

func (that *GameManager) fireBotMove(matchID string, generation uint64) {
	that.fire(matchID, command{kind: cmdBotMove, generation: generation})
}

func (that *GameManager) fire(matchID string, cmd command) {
	log := that.logger.With("method", "fire", "game_id", matchID, "command", cmd.kind.String())

	err := that.dispatch(matchID, cmd)

	switch {
	case err == nil:
	case errors.Is(err, errStaleTask), errors.Is(err, apperror.ErrNotFound):
		log.Debug("deferred task discarded", "reason", err)
	default:
		log.Error("deferred task failed", "error", err)
	}
}

func (that *GameManager) Snapshot() Snapshot {
	return Snapshot{
		Games:               that.games.Len(),
		WaitingPlayers:      that.queue.Len(),
		DisconnectedPlayers: that.disconnects.Len(),
	}
}

// deliver - hands queued events to their connections; Send never blocks.
func (that *GameManager) deliver(out *outbox) {
	for _, item := range out.deliveries {
		if err := item.conn.Send(item.event); err != nil {
			that.logger.Warn("failed to deliver event",
				"username", item.identity, "action", item.event.Action, "error", err)
		}
	}

	out.deliveries = nil
}

func (that *GameManager) runTasks(out *outbox) {
	that.runTasksWith(context.Background(), out)
}

// runTasksWith - runs result reporting detached from the caller's cancellation.
func (that *GameManager) runTasksWith(parent context.Context, out *outbox) {
	if len(out.tasks) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), that.timeouts.Sink)
	defer cancel()

	for _, task := range out.tasks {
		task(ctx)
	}

	out.tasks = nil
}
