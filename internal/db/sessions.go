package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Session struct {
	ID             string    `json:"id"`
	GroupID        string    `json:"group_id"`
	Name           string    `json:"name"`
	CateringAmount float64   `json:"catering_amount"`
	HostPolicy     string    `json:"host_policy"`
	HostID         string    `json:"host_id,omitempty"`
	AccountantID   string    `json:"accountant_id,omitempty"`
	StartedAt      time.Time `json:"started_at"`
}

const sessionColumns = `id, group_id, name, catering_amount, host_policy,
	COALESCE(host_id, ''), COALESCE(accountant_id, ''), started_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.GroupID, &s.Name, &s.CateringAmount, &s.HostPolicy,
		&s.HostID, &s.AccountantID, &s.StartedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) CreateSession(ctx context.Context, groupID, name string) (*Session, error) {
	return scanSession(db.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, group_id, name) VALUES ($1, $2, $3)
		 RETURNING `+sessionColumns,
		uuid.NewString(), groupID, name,
	))
}

func (db *DB) GetSession(ctx context.Context, id string) (*Session, error) {
	s, err := scanSession(db.pool.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = $1", id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (db *DB) ListSessions(ctx context.Context, groupID string) ([]Session, error) {
	rows, err := db.pool.Query(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE group_id = $1 ORDER BY started_at",
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (db *DB) DeleteSession(ctx context.Context, id string) error {
	result, err := db.pool.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}
	return nil
}

// UpdateSettings stores the settlement settings. Host and accountant are
// session-level player IDs; empty string clears the selection.
func (db *DB) UpdateSettings(ctx context.Context, sessionID string, cateringAmount float64, hostPolicy, hostID, accountantID string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE sessions
		 SET catering_amount = $2, host_policy = $3,
		     host_id = NULLIF($4, ''), accountant_id = NULLIF($5, '')
		 WHERE id = $1`,
		sessionID, cateringAmount, hostPolicy, hostID, accountantID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}
	return nil
}
