package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id           SERIAL PRIMARY KEY,
	username     VARCHAR(50) UNIQUE NOT NULL,
	games_played INTEGER NOT NULL DEFAULT 0,
	games_won    INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS games (
	id               SERIAL PRIMARY KEY,
	game_id          VARCHAR(100) UNIQUE NOT NULL,
	player1_username VARCHAR(50) NOT NULL,
	player2_username VARCHAR(50) NOT NULL,
	winner           VARCHAR(50) NOT NULL,
	reason           VARCHAR(20) NOT NULL DEFAULT '',
	game_duration    INTEGER NOT NULL,
	moves_count      INTEGER NOT NULL,
	board_state      JSONB NOT NULL,
	bot_game         BOOLEAN NOT NULL DEFAULT FALSE,
	started_at       TIMESTAMPTZ NOT NULL,
	completed_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS players_games_won_idx ON players (games_won DESC);
`

type PostgresStorage struct {
	Pool *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create Postgres pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresStorage{Pool: pool}, nil
}

// Migrate - creates the tables when they do not exist yet.
func (that *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := that.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	return nil
}

func (that *PostgresStorage) Close() {
	that.Pool.Close()
}
