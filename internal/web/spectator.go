package web

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/justinabrahms/pollchess/internal/match"
)

// GameIndex is a game available for spectating.
type GameIndex struct {
	match.Summary
	SpectatorCount int `json:"spectatorCount"`
}

// ActiveGamesHandler lists every game, newest first, with its spectator count.
func (s *Service) ActiveGamesHandler(w http.ResponseWriter, r *http.Request) {
	summaries := s.games.List()
	games := make([]GameIndex, 0, len(summaries))
	for _, g := range summaries {
		games = append(games, GameIndex{Summary: g, SpectatorCount: s.watchers.Spectators(g.GameID)})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"total": len(games),
	})
}

// WatchGameHandler upgrades to a websocket that receives the spectator view now and after
// every join or move.
func (s *Service) WatchGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	view, err := s.games.View(gameID, "")
	if err != nil {
		writeError(w, err)
		return
	}
	initial, err := json.Marshal(GameUpdate{GameID: gameID, Type: "snapshot", Data: view})
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("gameID", gameID).Msg("Failed to upgrade WebSocket connection")
		return
	}
	s.watchers.serve(conn, gameID, initial)
}
