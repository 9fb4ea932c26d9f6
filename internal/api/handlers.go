package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tbrandt/grouppot/internal/db"
	"github.com/tbrandt/grouppot/internal/settle"
	"github.com/tbrandt/grouppot/internal/tracker"
)

// requireGroup loads the group from the route and checks the caller owns
// it. Writes the error response and returns nil on failure.
func (a *API) requireGroup(w http.ResponseWriter, r *http.Request) *db.Group {
	claims := claimsFrom(r)
	group, err := a.db.GetGroup(r.Context(), mux.Vars(r)["group_id"])
	if err != nil {
		http.Error(w, "failed to load group", http.StatusInternalServerError)
		return nil
	}
	if group == nil || group.OwnerID != claims.UserID {
		http.Error(w, "group not found", http.StatusNotFound)
		return nil
	}
	return group
}

func (a *API) requireSession(w http.ResponseWriter, r *http.Request) *db.Session {
	group := a.requireGroup(w, r)
	if group == nil {
		return nil
	}
	session, err := a.db.GetSession(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return nil
	}
	if session == nil || session.GroupID != group.ID {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil
	}
	return session
}

func (a *API) requirePlayer(w http.ResponseWriter, r *http.Request, sessionID string) *db.Player {
	player, err := a.db.GetPlayer(r.Context(), mux.Vars(r)["player_id"])
	if err != nil {
		http.Error(w, "failed to load player", http.StatusInternalServerError)
		return nil
	}
	if player == nil || player.SessionID != sessionID {
		http.Error(w, "player not found", http.StatusNotFound)
		return nil
	}
	return player
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Group handlers

func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	groups, err := a.db.ListGroups(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "failed to list groups", http.StatusInternalServerError)
		return
	}
	if groups == nil {
		groups = []db.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	group, err := a.db.CreateGroup(r.Context(), claims.UserID, req.Name)
	if err != nil {
		http.Error(w, "failed to create group", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (a *API) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group := a.requireGroup(w, r)
	if group == nil {
		return
	}
	sessions, err := a.db.ListSessions(r.Context(), group.ID)
	if err != nil {
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"group":    group,
		"sessions": sessions,
	})
}

func (a *API) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	group := a.requireGroup(w, r)
	if group == nil {
		return
	}
	if err := a.db.DeleteGroup(r.Context(), group.ID); err != nil {
		http.Error(w, "failed to delete group", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

// Session handlers

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	group := a.requireGroup(w, r)
	if group == nil {
		return
	}
	sessions, err := a.db.ListSessions(r.Context(), group.ID)
	if err != nil {
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	group := a.requireGroup(w, r)
	if group == nil {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := a.db.CreateSession(r.Context(), group.ID, req.Name)
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type playerView struct {
	db.Player
	TotalBuyIn float64 `json:"total_buy_in"`
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}
	players, err := a.db.SessionPlayers(r.Context(), session.ID)
	if err != nil {
		http.Error(w, "failed to load players", http.StatusInternalServerError)
		return
	}

	views := []playerView{}
	var totalPot, totalEntered float64
	for _, p := range players {
		var total float64
		for _, b := range p.BuyIns {
			total += b
		}
		totalPot += total
		if p.EndAmount != nil {
			totalEntered += *p.EndAmount
		}
		views = append(views, playerView{Player: p, TotalBuyIn: total})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":       session,
		"players":       views,
		"total_pot":     totalPot,
		"total_entered": totalEntered,
	})
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}
	if err := a.db.DeleteSession(r.Context(), session.ID); err != nil {
		http.Error(w, "failed to delete session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session deleted"})
}

func (a *API) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}

	var req struct {
		CateringAmount float64 `json:"catering_amount"`
		HostPolicy     string  `json:"host_policy"`
		HostID         string  `json:"host_id"`
		AccountantID   string  `json:"accountant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CateringAmount < 0 {
		http.Error(w, "catering amount must not be negative", http.StatusBadRequest)
		return
	}
	policy := settle.HostPaysEqualShare
	if req.HostPolicy != "" {
		var ok bool
		if policy, ok = settle.ParseHostPolicy(req.HostPolicy); !ok {
			http.Error(w, "unknown host policy", http.StatusBadRequest)
			return
		}
	}

	if err := a.db.UpdateSettings(r.Context(), session.ID, req.CateringAmount, string(policy), req.HostID, req.AccountantID); err != nil {
		http.Error(w, "failed to update settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "settings updated"})
}

func (a *API) handleSettlement(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}

	result, err := a.tracker.Settlement(r.Context(), session.ID)
	if err != nil {
		var verr *settle.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":   verr,
				"message": verr.Error(),
			})
		case errors.Is(err, tracker.ErrSessionNotFound):
			http.Error(w, "session not found", http.StatusNotFound)
		default:
			http.Error(w, "failed to compute settlement", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Player handlers

func (a *API) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}

	var req struct {
		Name  string  `json:"name"`
		BuyIn float64 `json:"buy_in"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.BuyIn <= 0 {
		http.Error(w, "buy-in must be positive", http.StatusBadRequest)
		return
	}

	existing, err := a.db.PlayerByName(r.Context(), session.ID, req.Name)
	if err != nil {
		http.Error(w, "failed to check player", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "player name already in session", http.StatusConflict)
		return
	}

	player, err := a.db.AddPlayer(r.Context(), session.ID, req.Name, req.BuyIn)
	if err != nil {
		http.Error(w, "failed to add player", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (a *API) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}
	player := a.requirePlayer(w, r, session.ID)
	if player == nil {
		return
	}
	if err := a.db.RemovePlayer(r.Context(), player.ID); err != nil {
		http.Error(w, "failed to remove player", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "player removed"})
}

func (a *API) handleClearPlayers(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}
	if err := a.db.ClearPlayers(r.Context(), session.ID); err != nil {
		http.Error(w, "failed to clear players", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "players cleared"})
}

func (a *API) handleAddBuyIn(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}
	player := a.requirePlayer(w, r, session.ID)
	if player == nil {
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "buy-in must be positive", http.StatusBadRequest)
		return
	}

	if err := a.db.AddBuyIn(r.Context(), player.ID, req.Amount); err != nil {
		http.Error(w, "failed to add buy-in", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "buy-in added"})
}

func (a *API) handleRemoveLastBuyIn(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}
	player := a.requirePlayer(w, r, session.ID)
	if player == nil {
		return
	}
	if err := a.db.RemoveLastBuyIn(r.Context(), player.ID); err != nil {
		http.Error(w, "player has no buy-ins", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "buy-in removed"})
}

func (a *API) handleSetEndAmount(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}
	player := a.requirePlayer(w, r, session.ID)
	if player == nil {
		return
	}

	var req struct {
		EndAmount *float64 `json:"end_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.EndAmount != nil && *req.EndAmount < 0 {
		http.Error(w, "end amount must not be negative", http.StatusBadRequest)
		return
	}

	if err := a.db.SetEndAmount(r.Context(), player.ID, req.EndAmount); err != nil {
		http.Error(w, "failed to set end amount", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "end amount updated"})
}

func (a *API) handleClearEndAmounts(w http.ResponseWriter, r *http.Request) {
	session := a.requireSession(w, r)
	if session == nil {
		return
	}
	if err := a.db.ClearEndAmounts(r.Context(), session.ID); err != nil {
		http.Error(w, "failed to clear end amounts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "end amounts cleared"})
}
