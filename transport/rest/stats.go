package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

const leaderboardSize = 10

type StatsHandler interface {
	Leaderboard(ctx echo.Context) error
	Game(ctx echo.Context) error
}

type leaderboardSource interface {
	Leaderboard(ctx context.Context, limit int) ([]entity.PlayerStats, error)
}

type resultSource interface {
	GetByID(ctx context.Context, id string) (entity.MatchResult, error)
}

type statsHandler struct {
	logger *slog.Logger

	players leaderboardSource
	results resultSource
}

// NewStats - players and results may be nil when no database is configured.
func NewStats(logger *slog.Logger, players leaderboardSource, results resultSource) StatsHandler {
	return &statsHandler{
		logger:  logger.With("component", "stats"),
		players: players,
		results: results,
	}
}

// Leaderboard - top players by wins. Failures degrade to an empty list.
func (that *statsHandler) Leaderboard(ctx echo.Context) error {
	log := that.logger.With("method", "Leaderboard")

	if that.players == nil {
		return ctx.JSON(http.StatusOK, []entity.PlayerStats{})
	}

	players, err := that.players.Leaderboard(ctx.Request().Context(), leaderboardSize)
	if err != nil {
		log.Error("failed to load leaderboard", "error", err)
		return ctx.JSON(http.StatusOK, []entity.PlayerStats{})
	}

	if players == nil {
		players = []entity.PlayerStats{}
	}

	return ctx.JSON(http.StatusOK, players)
}

type gameResponse struct {
	GameID      string       `json:"gameId"`
	PlayerOne   string       `json:"player1"`
	PlayerTwo   string       `json:"player2"`
	Winner      string       `json:"winner"`
	Reason      string       `json:"reason,omitempty"`
	Duration    int          `json:"duration"`
	Moves       int          `json:"moves"`
	Board       entity.Board `json:"board"`
	BotGame     bool         `json:"botGame"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt time.Time    `json:"completedAt"`
}

// Game - a completed game by id.
func (that *statsHandler) Game(ctx echo.Context) error {
	log := that.logger.With("method", "Game")

	if that.results == nil {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": apperror.ErrNotFound.Error()})
	}

	result, err := that.results.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if errors.Is(err, apperror.ErrNotFound) {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": apperror.ErrNotFound.Error()})
	}

	if err != nil {
		log.Error("failed to load game", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, gameResponse{
		GameID:      result.MatchID,
		PlayerOne:   result.PlayerOne,
		PlayerTwo:   result.PlayerTwo,
		Winner:      result.Outcome.WinnerLabel(),
		Reason:      result.Outcome.Reason(),
		Duration:    result.DurationSeconds(),
		Moves:       result.Moves,
		Board:       result.Board,
		BotGame:     result.IsBot,
		StartedAt:   result.StartedAt,
		CompletedAt: result.CompletedAt,
	})
}
