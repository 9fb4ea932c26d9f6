package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UpsertUser creates the user on first sign-in and refreshes the profile on
// subsequent ones.
func (db *DB) UpsertUser(ctx context.Context, id, email, name string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name`,
		id, email, name,
	)
	return err
}

func (db *DB) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx,
		"SELECT id, email, name FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
