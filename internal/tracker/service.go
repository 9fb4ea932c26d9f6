// Package tracker glues persisted session state to the settlement engine.
package tracker

import (
	"context"
	"errors"

	"github.com/tbrandt/grouppot/internal/db"
	"github.com/tbrandt/grouppot/internal/settle"
)

var ErrSessionNotFound = errors.New("session not found")

type Service struct {
	db *db.DB
}

func New(database *db.DB) *Service {
	return &Service{db: database}
}

// Snapshot loads a session and its players into an immutable settlement
// snapshot.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (settle.Snapshot, error) {
	sess, err := s.db.GetSession(ctx, sessionID)
	if err != nil {
		return settle.Snapshot{}, err
	}
	if sess == nil {
		return settle.Snapshot{}, ErrSessionNotFound
	}
	players, err := s.db.SessionPlayers(ctx, sessionID)
	if err != nil {
		return settle.Snapshot{}, err
	}
	return buildSnapshot(*sess, players), nil
}

// Settlement computes balances and transfers for a stored session.
// Business-rule failures surface as *settle.ValidationError.
func (s *Service) Settlement(ctx context.Context, sessionID string) (*settle.Result, error) {
	snap, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return settle.Compute(snap)
}

func buildSnapshot(sess db.Session, players []db.Player) settle.Snapshot {
	snap := settle.Snapshot{
		CateringAmount: sess.CateringAmount,
		HostID:         sess.HostID,
		AccountantID:   sess.AccountantID,
		FeePerPlayer:   settle.DefaultFeePerPlayer,
	}
	policy, ok := settle.ParseHostPolicy(sess.HostPolicy)
	if !ok {
		policy = settle.HostPaysEqualShare
	}
	snap.HostPolicy = policy

	for _, p := range players {
		snap.Players = append(snap.Players, settle.Player{
			ID:        p.ID,
			Name:      p.Name,
			BuyIns:    append([]float64(nil), p.BuyIns...),
			EndAmount: p.EndAmount,
		})
	}
	return snap
}
