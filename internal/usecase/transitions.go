package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

var (
	errStaleTask      = errors.New("stale task")
	errUnknownCommand = errors.New("unknown command")
)

type commandKind int

const (
	cmdMove commandKind = iota
	cmdBotMove
	cmdDisconnect
	cmdReconnect
	cmdForfeit
)

func (that commandKind) String() string {
	switch that {
	case cmdMove:
		return "move"
	case cmdBotMove:
		return "bot_move"
	case cmdDisconnect:
		return "disconnect"
	case cmdReconnect:
		return "reconnect"
	case cmdForfeit:
		return "forfeit"
	default:
		return "unknown"
	}
}

type command struct {
	kind       commandKind
	identity   string
	column     int
	conn       entity.Conn
	generation uint64
}

// transition runs with the match locked and the match known to be live.
type transition func(match *entity.Match, cmd command, out *outbox) error

func (that *GameManager) registerTransitions() {
	that.transitions = map[commandKind]transition{
		cmdMove:       that.move,
		cmdBotMove:    that.botMove,
		cmdDisconnect: that.disconnect,
		cmdReconnect:  that.reconnect,
		cmdForfeit:    that.forfeit,
	}
}

// dispatch - the single entry point for every mutation of a live match.
func (that *GameManager) dispatch(matchID string, cmd command) error {
	match, err := that.games.GetByID(matchID)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.kind, err)
	}

	out := &outbox{}

	match.Lock()
	err = that.step(match, cmd, out)
	that.deliver(out)
	match.Unlock()

	that.runTasks(out)

	return err
}

func (that *GameManager) step(match *entity.Match, cmd command, out *outbox) error {
	// the registry decides whether the match still exists, not the caller's pointer
	if !match.IsActive() {
		return fmt.Errorf("game %s is over: %w", match.ID, apperror.ErrNotFound)
	}

	if _, err := that.games.GetByID(match.ID); err != nil {
		return fmt.Errorf("%s: %w", cmd.kind, err)
	}

	apply, ok := that.transitions[cmd.kind]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd.kind)
	}

	return apply(match, cmd, out)
}

func (that *GameManager) move(match *entity.Match, cmd command, out *outbox) error {
	if match.Turn != cmd.identity {
		return apperror.ErrNotYourTurn
	}

	if !match.Board.IsValidMove(cmd.column) {
		return fmt.Errorf("column %d: %w", cmd.column, apperror.ErrIllegalMove)
	}

	that.play(match, cmd.identity, cmd.column, out)

	return nil
}

func (that *GameManager) botMove(match *entity.Match, cmd command, out *outbox) error {
	if !match.IsPendingBotMove(cmd.generation) {
		return errStaleTask
	}

	match.ClearBotMove()

	mover := match.Mover()
	if mover == nil || !mover.IsBot {
		return errStaleTask
	}

	human, _ := match.Opponent(mover.Identity)
	column := that.bot.ChooseColumn(match.Board, mover.Marker, human.Marker)

	if !match.Board.IsValidMove(column) {
		return fmt.Errorf("bot chose column %d: %w", column, apperror.ErrIllegalMove)
	}

	that.play(match, mover.Identity, column, out)

	return nil
}

func (that *GameManager) disconnect(match *entity.Match, cmd command, out *outbox) error {
	participant, ok := match.Participant(cmd.identity)
	if !ok || participant.IsBot {
		return fmt.Errorf("player %s: %w", cmd.identity, apperror.ErrNotFound)
	}

	// already disconnected, or the closed connection was replaced by a reconnect
	if participant.Conn == nil || (cmd.conn != nil && participant.Conn != cmd.conn) {
		return errStaleTask
	}

	participant.Conn = nil

	if opponent, ok := match.Opponent(cmd.identity); ok {
		out.send(opponent, entity.NewOpponentDisconnectedEvent())
	}

	generation := that.generations.Add(1)
	matchID, identity := match.ID, cmd.identity

	record := entity.NewDisconnection(identity, matchID, that.clock.Now(), that.timeouts.Reconnect, generation)
	record.Bind(that.clock.AfterFunc(that.timeouts.Reconnect, func() {
		that.fireForfeit(matchID, identity, generation)
	}))

	if previous, ok := that.disconnects.Get(identity); ok {
		previous.Cancel()
	}

	that.disconnects.Put(identity, record)
	that.metrics.DisconnectedPlayers.Set(float64(that.disconnects.Len()))

	return nil
}

func (that *GameManager) reconnect(match *entity.Match, cmd command, out *outbox) error {
	participant, ok := match.Participant(cmd.identity)
	if !ok || participant.IsBot {
		return fmt.Errorf("player %s in game %s: %w", cmd.identity, match.ID, apperror.ErrNotFound)
	}

	that.clearDisconnection(match.ID, cmd.identity)

	participant.Conn = cmd.conn

	out.send(participant, entity.NewGameStartEvent(match, participant))
	out.send(participant, entity.NewGameStateEvent(match))

	if opponent, ok := match.Opponent(cmd.identity); ok {
		out.send(opponent, entity.NewOpponentReconnectedEvent())
	}

	return nil
}

func (that *GameManager) forfeit(match *entity.Match, cmd command, out *outbox) error {
	record, ok := that.disconnects.Get(cmd.identity)
	if !ok || record.Generation != cmd.generation || record.MatchID != match.ID {
		return errStaleTask
	}

	that.clearDisconnection(match.ID, cmd.identity)

	opponent, ok := match.Opponent(cmd.identity)
	if !ok {
		return fmt.Errorf("opponent of %s: %w", cmd.identity, apperror.ErrNotFound)
	}

	that.complete(match, entity.NewForfeit(opponent.Identity), out)

	return nil
}

// play - applies an already validated move and resolves the outcome.
func (that *GameManager) play(match *entity.Match, identity string, column int, out *outbox) {
	mover, _ := match.Participant(identity)

	row, col := match.Board.ApplyMove(column, mover.Marker)
	match.MoveCount++
	that.metrics.MovesApplied.Inc()

	move := entity.Move{
		MatchID: match.ID,
		Player:  identity,
		Column:  col,
		Row:     row,
		Number:  match.MoveCount,
	}
	out.after(func(ctx context.Context) {
		that.results.MoveApplied(ctx, move)
	})

	if winner := match.Board.DetectWinner(); winner != entity.MarkerEmpty {
		owner, _ := match.ByMarker(winner)
		that.complete(match, entity.NewWin(owner.Identity), out)

		return
	}

	if match.Board.IsFull() {
		that.complete(match, entity.NewDraw(), out)
		return
	}

	match.PassTurn()
	out.broadcast(match, entity.NewGameStateEvent(match))

	if match.Mover().IsBot {
		that.scheduleBotMove(match)
	}
}

func (that *GameManager) scheduleBotMove(match *entity.Match) {
	generation := that.generations.Add(1)
	matchID := match.ID

	match.ScheduleBotMove(that.clock.AfterFunc(that.timeouts.BotThink, func() {
		that.fireBotMove(matchID, generation)
	}), generation)
}

// complete - sets the outcome, drops the match from the registry and reports it.
func (that *GameManager) complete(match *entity.Match, outcome entity.Outcome, out *outbox) {
	log := that.logger.With("method", "complete", "game_id", match.ID)

	if err := match.Complete(outcome, that.clock.Now()); err != nil {
		log.Error("outcome already set", "error", err)
		return
	}

	for _, participant := range match.Humans() {
		that.clearDisconnection(match.ID, participant.Identity)
	}

	if err := that.games.DeleteByID(match.ID); err != nil {
		log.Error("failed to delete game", "error", err)
	}

	result := match.Result()
	out.broadcast(match, entity.NewGameOverEvent(result))
	out.after(func(ctx context.Context) {
		that.results.MatchCompleted(ctx, result)
	})

	that.metrics.MatchesCompleted.WithLabelValues(string(outcome.Kind)).Inc()
	that.metrics.ActiveMatches.Set(float64(that.games.Len()))

	log.Info("game over", "winner", outcome.WinnerLabel(), "kind", outcome.Kind, "moves", match.MoveCount)
}

// clearDisconnection - cancels the forfeit timer of identity for this match, if any.
func (that *GameManager) clearDisconnection(matchID, identity string) {
	record, ok := that.disconnects.Get(identity)
	if !ok || record.MatchID != matchID {
		return
	}

	record.Cancel()
	that.disconnects.Delete(identity)
	that.metrics.DisconnectedPlayers.Set(float64(that.disconnects.Len()))
}
