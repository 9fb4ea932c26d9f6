package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Player struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	EndAmount *float64  `json:"end_amount"`
	BuyIns    []float64 `json:"buy_ins"`
}

// AddPlayer inserts a player together with their first buy-in.
func (db *DB) AddPlayer(ctx context.Context, sessionID, name string, buyIn float64) (*Player, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p := Player{ID: uuid.NewString(), SessionID: sessionID, Name: name, BuyIns: []float64{buyIn}}
	if _, err := tx.Exec(ctx,
		`INSERT INTO players (id, session_id, name, position)
		 VALUES ($1, $2, $3,
		         (SELECT COALESCE(MAX(position) + 1, 0) FROM players WHERE session_id = $2))`,
		p.ID, sessionID, name,
	); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO buy_ins (player_id, amount) VALUES ($1, $2)",
		p.ID, buyIn,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) RemovePlayer(ctx context.Context, playerID string) error {
	result, err := db.pool.Exec(ctx, "DELETE FROM players WHERE id = $1", playerID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player not found")
	}
	return nil
}

func (db *DB) AddBuyIn(ctx context.Context, playerID string, amount float64) error {
	_, err := db.pool.Exec(ctx,
		"INSERT INTO buy_ins (player_id, amount) VALUES ($1, $2)",
		playerID, amount,
	)
	return err
}

// RemoveLastBuyIn drops the most recent buy-in for the player.
func (db *DB) RemoveLastBuyIn(ctx context.Context, playerID string) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM buy_ins
		 WHERE id = (SELECT id FROM buy_ins WHERE player_id = $1 ORDER BY id DESC LIMIT 1)`,
		playerID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player has no buy-ins")
	}
	return nil
}

// SetEndAmount records the player's cash at session end; nil clears it.
func (db *DB) SetEndAmount(ctx context.Context, playerID string, endAmount *float64) error {
	result, err := db.pool.Exec(ctx,
		"UPDATE players SET end_amount = $2 WHERE id = $1",
		playerID, endAmount,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player not found")
	}
	return nil
}

func (db *DB) ClearEndAmounts(ctx context.Context, sessionID string) error {
	_, err := db.pool.Exec(ctx,
		"UPDATE players SET end_amount = NULL WHERE session_id = $1", sessionID,
	)
	return err
}

func (db *DB) ClearPlayers(ctx context.Context, sessionID string) error {
	_, err := db.pool.Exec(ctx,
		"DELETE FROM players WHERE session_id = $1", sessionID,
	)
	return err
}

// SessionPlayers returns the session's players in seating order with their
// buy-in lists attached.
func (db *DB) SessionPlayers(ctx context.Context, sessionID string) ([]Player, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT p.id, p.session_id, p.name, p.end_amount, b.amount
		 FROM players p
		 LEFT JOIN buy_ins b ON b.player_id = p.id
		 WHERE p.session_id = $1
		 ORDER BY p.position, p.id, b.id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var (
			id, sid, name string
			endAmount     *float64
			buyIn         *float64
		)
		if err := rows.Scan(&id, &sid, &name, &endAmount, &buyIn); err != nil {
			return nil, err
		}
		if len(players) == 0 || players[len(players)-1].ID != id {
			players = append(players, Player{ID: id, SessionID: sid, Name: name, EndAmount: endAmount})
		}
		if buyIn != nil {
			p := &players[len(players)-1]
			p.BuyIns = append(p.BuyIns, *buyIn)
		}
	}
	return players, rows.Err()
}

// PlayerByName looks a player up by display name within a session. Returns
// (nil, nil) when no such player exists.
func (db *DB) PlayerByName(ctx context.Context, sessionID, name string) (*Player, error) {
	var p Player
	err := db.pool.QueryRow(ctx,
		"SELECT id, session_id, name, end_amount FROM players WHERE session_id = $1 AND name = $2",
		sessionID, name,
	).Scan(&p.ID, &p.SessionID, &p.Name, &p.EndAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (db *DB) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	var p Player
	err := db.pool.QueryRow(ctx,
		"SELECT id, session_id, name, end_amount FROM players WHERE id = $1", playerID,
	).Scan(&p.ID, &p.SessionID, &p.Name, &p.EndAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
