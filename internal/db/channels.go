package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// OverdueSession is a channel-linked session that has run past the session
// duration limit and has not been notified yet.
type OverdueSession struct {
	ChannelID   string
	SessionID   string
	SessionName string
	StartedAt   time.Time
}

// LinkChannel binds a Discord channel to a session, replacing any previous
// link for the channel.
func (db *DB) LinkChannel(ctx context.Context, channelID, guildID, sessionID string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO channel_links (channel_id, guild_id, session_id) VALUES ($1, $2, $3)
		 ON CONFLICT (channel_id) DO UPDATE SET guild_id = EXCLUDED.guild_id, session_id = EXCLUDED.session_id`,
		channelID, guildID, sessionID,
	)
	return err
}

func (db *DB) UnlinkChannel(ctx context.Context, channelID string) error {
	_, err := db.pool.Exec(ctx, "DELETE FROM channel_links WHERE channel_id = $1", channelID)
	return err
}

// ChannelSession resolves the session currently linked to a channel.
// Returns (nil, nil) when the channel has no active session.
func (db *DB) ChannelSession(ctx context.Context, channelID string) (*Session, error) {
	s, err := scanSession(db.pool.QueryRow(ctx,
		`SELECT s.id, s.group_id, s.name, s.catering_amount, s.host_policy,
		        COALESCE(s.host_id, ''), COALESCE(s.accountant_id, ''), s.started_at
		 FROM sessions s
		 JOIN channel_links l ON l.session_id = s.id
		 WHERE l.channel_id = $1`,
		channelID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// OverdueSessions returns channel-linked sessions started before the cutoff
// that have not yet been notified about the duration limit.
func (db *DB) OverdueSessions(ctx context.Context, cutoff time.Time) ([]OverdueSession, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT l.channel_id, s.id, s.name, s.started_at
		 FROM sessions s
		 JOIN channel_links l ON l.session_id = s.id
		 WHERE s.started_at < $1 AND s.limit_notified_at IS NULL`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverdueSession
	for rows.Next() {
		var o OverdueSession
		if err := rows.Scan(&o.ChannelID, &o.SessionID, &o.SessionName, &o.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (db *DB) MarkLimitNotified(ctx context.Context, sessionID string, at time.Time) error {
	_, err := db.pool.Exec(ctx,
		"UPDATE sessions SET limit_notified_at = $2 WHERE id = $1",
		sessionID, at,
	)
	return err
}
