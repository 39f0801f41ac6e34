package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

type PlayerRepository interface {
	RegisterPlayer(ctx context.Context, username string) error
	IncrementStats(ctx context.Context, username string, won bool) error
	Leaderboard(ctx context.Context, limit int) ([]entity.PlayerStats, error)
}

type dbPlayer struct {
	pool *pgxpool.Pool
}

func NewPlayerRepository(pool *pgxpool.Pool) PlayerRepository {
	return &dbPlayer{
		pool: pool,
	}
}

func (that *dbPlayer) RegisterPlayer(ctx context.Context, username string) error {
	const query = `INSERT INTO players (username) VALUES ($1) ON CONFLICT (username) DO NOTHING`

	if _, err := that.pool.Exec(ctx, query, username); err != nil {
		return fmt.Errorf("failed to register player: %w", err)
	}

	return nil
}

// IncrementStats - adds a played game, and a win when won is set; unknown players are created.
func (that *dbPlayer) IncrementStats(ctx context.Context, username string, won bool) error {
	const query = `
		INSERT INTO players (username, games_played, games_won) VALUES ($1, 1, $2)
		ON CONFLICT (username) DO UPDATE SET
			games_played = players.games_played + 1,
			games_won    = players.games_won + EXCLUDED.games_won`

	wins := 0
	if won {
		wins = 1
	}

	if _, err := that.pool.Exec(ctx, query, username, wins); err != nil {
		return fmt.Errorf("failed to increment player stats: %w", err)
	}

	return nil
}

func (that *dbPlayer) Leaderboard(ctx context.Context, limit int) ([]entity.PlayerStats, error) {
	const query = `
		SELECT username, games_played, games_won FROM players
		ORDER BY games_won DESC, games_played ASC, username ASC
		LIMIT $1`

	rows, err := that.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}

	stats, err := pgx.CollectRows(rows, pgx.RowToStructByName[entity.PlayerStats])
	if err != nil {
		return nil, fmt.Errorf("failed to scan leaderboard: %w", err)
	}

	return stats, nil
}
