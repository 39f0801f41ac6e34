package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

type ResultRepository interface {
	RecordMatchOutcome(ctx context.Context, result entity.MatchResult) error
	GetByID(ctx context.Context, id string) (entity.MatchResult, error)
}

type dbResult struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) ResultRepository {
	return &dbResult{
		pool: pool,
	}
}

func (that *dbResult) RecordMatchOutcome(ctx context.Context, result entity.MatchResult) error {
	const query = `
		INSERT INTO games (
			game_id, player1_username, player2_username, winner, reason,
			game_duration, moves_count, board_state, bot_game, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (game_id) DO NOTHING`

	boardJSON, err := json.Marshal(result.Board)
	if err != nil {
		return fmt.Errorf("could not marshal board: %w", err)
	}

	_, err = that.pool.Exec(ctx, query,
		result.MatchID,
		result.PlayerOne,
		result.PlayerTwo,
		result.Outcome.WinnerLabel(),
		result.Outcome.Reason(),
		result.DurationSeconds(),
		result.Moves,
		boardJSON,
		result.IsBot,
		result.StartedAt,
		result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	return nil
}

func (that *dbResult) GetByID(ctx context.Context, id string) (entity.MatchResult, error) {
	const query = `
		SELECT game_id, player1_username, player2_username, winner, reason,
			game_duration, moves_count, board_state, bot_game, started_at, completed_at
		FROM games WHERE game_id = $1`

	var (
		result    entity.MatchResult
		winner    string
		reason    string
		duration  int
		boardJSON []byte
	)

	err := that.pool.QueryRow(ctx, query, id).Scan(
		&result.MatchID,
		&result.PlayerOne,
		&result.PlayerTwo,
		&winner,
		&reason,
		&duration,
		&result.Moves,
		&boardJSON,
		&result.IsBot,
		&result.StartedAt,
		&result.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.MatchResult{}, fmt.Errorf("game %s: %w", id, apperror.ErrNotFound)
	}

	if err != nil {
		return entity.MatchResult{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = json.Unmarshal(boardJSON, &result.Board); err != nil {
		return entity.MatchResult{}, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	result.Duration = time.Duration(duration) * time.Second
	result.Outcome = outcomeFromColumns(winner, reason)

	return result, nil
}

func outcomeFromColumns(winner, reason string) entity.Outcome {
	switch {
	case winner == entity.NewDraw().WinnerLabel():
		return entity.NewDraw()
	case reason == string(entity.OutcomeForfeit):
		return entity.NewForfeit(winner)
	default:
		return entity.NewWin(winner)
	}
}
