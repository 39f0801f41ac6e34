package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/metrics"
)

const (
	EventMatchStarted   = "match.started"
	EventMatchMove      = "match.move"
	EventMatchCompleted = "match.completed"
)

type resultRepo interface {
	RecordMatchOutcome(ctx context.Context, result entity.MatchResult) error
}

type playerRepo interface {
	RegisterPlayer(ctx context.Context, username string) error
	IncrementStats(ctx context.Context, username string, won bool) error
}

type publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// ResultService reports match lifecycle to persistence and analytics.
// Every call is best-effort: failures are logged and counted, never returned.
type ResultService interface {
	PlayerJoined(ctx context.Context, username string)
	MatchStarted(ctx context.Context, match entity.MatchResult)
	MoveApplied(ctx context.Context, move entity.Move)
	MatchCompleted(ctx context.Context, result entity.MatchResult)
}

type resultService struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	results   resultRepo
	players   playerRepo
	publisher publisher
}

// NewResultService - results and players may be nil when persistence is not configured.
func NewResultService(logger *slog.Logger, m *metrics.Metrics, results resultRepo, players playerRepo, pub publisher) ResultService {
	return &resultService{
		logger:  logger.With("component", "result_sink"),
		metrics: m,

		results:   results,
		players:   players,
		publisher: pub,
	}
}

// Events of one game may be published out of order; sequence restores it.
// match.started is 0, match.move carries moveNumber, match.completed is moves+1.
type matchStartedPayload struct {
	GameID   string `json:"gameId"`
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	BotGame  bool   `json:"botGame"`
	Sequence int    `json:"sequence"`
}

type matchCompletedPayload struct {
	GameID   string `json:"gameId"`
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	Winner   string `json:"winner"`
	Reason   string `json:"reason,omitempty"`
	Duration int    `json:"duration"`
	Moves    int    `json:"moves"`
	BotGame  bool   `json:"botGame"`
	Sequence int    `json:"sequence"`
}

func (that *resultService) PlayerJoined(ctx context.Context, username string) {
	if that.players == nil {
		return
	}

	if err := that.players.RegisterPlayer(ctx, username); err != nil {
		that.persistenceFailed("PlayerJoined", fmt.Errorf("register player %s: %w", username, err))
	}
}

func (that *resultService) MatchStarted(ctx context.Context, match entity.MatchResult) {
	that.publish(ctx, EventMatchStarted, matchStartedPayload{
		GameID:   match.MatchID,
		Player1:  match.PlayerOne,
		Player2:  match.PlayerTwo,
		BotGame:  match.IsBot,
		Sequence: 0,
	})
}

func (that *resultService) MoveApplied(ctx context.Context, move entity.Move) {
	that.publish(ctx, EventMatchMove, move)
}

func (that *resultService) MatchCompleted(ctx context.Context, result entity.MatchResult) {
	if that.results != nil {
		if err := that.results.RecordMatchOutcome(ctx, result); err != nil {
			that.persistenceFailed("MatchCompleted", fmt.Errorf("record game %s: %w", result.MatchID, err))
		}
	}

	that.updateStats(ctx, result)

	that.publish(ctx, EventMatchCompleted, matchCompletedPayload{
		GameID:   result.MatchID,
		Player1:  result.PlayerOne,
		Player2:  result.PlayerTwo,
		Winner:   result.Outcome.WinnerLabel(),
		Reason:   result.Outcome.Reason(),
		Duration: result.DurationSeconds(),
		Moves:    result.Moves,
		BotGame:  result.IsBot,
		Sequence: result.Moves + 1,
	})
}

// updateStats - a win counts for the winner, every human participant gets a game played.
func (that *resultService) updateStats(ctx context.Context, result entity.MatchResult) {
	if that.players == nil {
		return
	}

	for _, username := range []string{result.PlayerOne, result.PlayerTwo} {
		if username == entity.BotIdentity {
			continue
		}

		won := !result.Outcome.IsDraw() && result.Outcome.Winner == username

		if err := that.players.IncrementStats(ctx, username, won); err != nil {
			that.persistenceFailed("updateStats", fmt.Errorf("increment stats for %s: %w", username, err))
		}
	}
}

func (that *resultService) publish(ctx context.Context, eventType string, payload any) {
	if that.publisher == nil {
		return
	}

	if err := that.publisher.Publish(ctx, eventType, payload); err != nil {
		log := that.logger.With("method", "publish")
		log.Warn("analytics event dropped", "event", eventType, "error", fmt.Errorf("%w: %w", apperror.ErrTransientPublish, err))

		that.metrics.SinkFailures.WithLabelValues(metrics.SinkPublish).Inc()
	}
}

func (that *resultService) persistenceFailed(method string, err error) {
	log := that.logger.With("method", method)
	log.Error("result not persisted", "error", fmt.Errorf("%w: %w", apperror.ErrTransientPersistence, err))

	that.metrics.SinkFailures.WithLabelValues(metrics.SinkPersistence).Inc()
}
