package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations runs database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS groups (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_groups_owner_id ON groups(owner_id);
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			catering_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			host_policy TEXT NOT NULL DEFAULT 'equal_share',
			host_id TEXT,
			accountant_id TEXT,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			limit_notified_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_group_id ON sessions(group_id);
		CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			end_amount NUMERIC(12,2),
			position INT NOT NULL DEFAULT 0,
			UNIQUE (session_id, name)
		);
		CREATE INDEX IF NOT EXISTS idx_players_session_id ON players(session_id);
		CREATE TABLE IF NOT EXISTS buy_ins (
			id BIGSERIAL PRIMARY KEY,
			player_id TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			amount NUMERIC(12,2) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_buy_ins_player_id ON buy_ins(player_id);
		CREATE TABLE IF NOT EXISTS channel_links (
			channel_id TEXT PRIMARY KEY,
			guild_id TEXT NOT NULL,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE
		);
	`)
	return err
}
