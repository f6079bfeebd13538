package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/justinabrahms/pollchess/internal/auth"
	"github.com/justinabrahms/pollchess/internal/chess"
	"github.com/justinabrahms/pollchess/internal/match"
	"github.com/justinabrahms/pollchess/internal/notify"
	"github.com/justinabrahms/pollchess/internal/store"
)

// TokenHeader carries a player's credential on every player request.
const TokenHeader = "ptoken"

const (
	ErrCodeGameNotFound   = "GAME_NOT_FOUND"
	ErrCodeInvalidToken   = "INVALID_TOKEN"
	ErrCodeInvalidMove    = "INVALID_MOVE"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeAlreadyJoined  = "ALREADY_JOINED"
	ErrCodeWaitTimeout    = "WAIT_TIMEOUT"
	ErrCodeWaitSuperseded = "WAIT_SUPERSEDED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

type Service struct {
	games    *match.Service
	watchers *Hub
}

func NewService(games *match.Service, watchers *Hub) *Service {
	return &Service{
		games:    games,
		watchers: watchers,
	}
}

// Router builds the API routes behind the CORS middleware.
func (s *Service) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(CORS)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.HealthHandler).Methods("GET")
	api.HandleFunc("/games", s.ActiveGamesHandler).Methods("GET")
	api.HandleFunc("/game/host", s.HostGameHandler).Methods("POST")
	api.HandleFunc("/game/{id}", s.GetGameHandler).Methods("GET")
	api.HandleFunc("/game/{id}/join", s.JoinGameHandler).Methods("POST")
	api.HandleFunc("/game/{id}/move", s.MakeMoveHandler).Methods("POST")
	api.HandleFunc("/game/{id}/wait-for-my-move", s.WaitForMyMoveHandler).Methods("POST")
	api.HandleFunc("/game/{id}/watch", s.WatchGameHandler).Methods("GET")
	// Preflight requests are answered by the middleware but still need a matching route.
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	return router
}

// CORS allows browser clients on any origin and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+TokenHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"games":   len(s.games.List()),
		"waiting": s.games.Waiting(),
	})
}

func (s *Service) HostGameHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.games.Host()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

func (s *Service) JoinGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	conn, err := s.games.Join(gameID)
	if err != nil {
		log.Warn().Err(err).Str("gameID", gameID).Msg("Join rejected")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// GetGameHandler returns the requester's view. Without a token the view is a spectator's.
func (s *Service) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	view, err := s.games.View(gameID, r.Header.Get(TokenHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Service) MakeMoveHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req MoveRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	move, err := chess.ParseMove(req.From, req.To, req.Promotion)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := s.games.Move(gameID, r.Header.Get(TokenHeader), move)
	if err != nil {
		log.Warn().Err(err).Str("gameID", gameID).Str("move", move.String()).Msg("Move rejected")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// WaitForMyMoveHandler holds the request until it is the caller's turn, the game ends or the
// wait bound passes.
func (s *Service) WaitForMyMoveHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	view, err := s.games.AwaitTurn(r.Context(), gameID, r.Header.Get(TokenHeader))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debug().Str("gameID", gameID).Msg("Client abandoned wait")
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		writeJSON(w, status, ErrorResponse{Error: "internal error", Code: code})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrCodeInvalidRequest
	case errors.Is(err, store.ErrGameNotFound):
		return http.StatusNotFound, ErrCodeGameNotFound
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusForbidden, ErrCodeInvalidToken
	case errors.Is(err, chess.ErrInvalidMove):
		return http.StatusBadRequest, ErrCodeInvalidMove
	case errors.Is(err, match.ErrAlreadyJoined):
		return http.StatusConflict, ErrCodeAlreadyJoined
	case errors.Is(err, notify.ErrTimeout):
		return http.StatusRequestTimeout, ErrCodeWaitTimeout
	case errors.Is(err, notify.ErrSuperseded):
		return http.StatusConflict, ErrCodeWaitSuperseded
	}
	return http.StatusInternalServerError, ErrCodeInternal
}
