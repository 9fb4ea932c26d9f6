package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Group struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (db *DB) CreateGroup(ctx context.Context, ownerID, name string) (*Group, error) {
	var g Group
	err := db.pool.QueryRow(ctx,
		`INSERT INTO groups (id, owner_id, name) VALUES ($1, $2, $3)
		 RETURNING id, owner_id, name, created_at`,
		uuid.NewString(), ownerID, name,
	).Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (db *DB) GetGroup(ctx context.Context, id string) (*Group, error) {
	var g Group
	err := db.pool.QueryRow(ctx,
		"SELECT id, owner_id, name, created_at FROM groups WHERE id = $1", id,
	).Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// FirstGroupByOwner returns the owner's oldest group, or (nil, nil) when
// they have none.
func (db *DB) FirstGroupByOwner(ctx context.Context, ownerID string) (*Group, error) {
	var g Group
	err := db.pool.QueryRow(ctx,
		"SELECT id, owner_id, name, created_at FROM groups WHERE owner_id = $1 ORDER BY created_at LIMIT 1",
		ownerID,
	).Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (db *DB) ListGroups(ctx context.Context, ownerID string) ([]Group, error) {
	rows, err := db.pool.Query(ctx,
		"SELECT id, owner_id, name, created_at FROM groups WHERE owner_id = $1 ORDER BY created_at",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (db *DB) DeleteGroup(ctx context.Context, id string) error {
	result, err := db.pool.Exec(ctx, "DELETE FROM groups WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("group not found")
	}
	return nil
}
