package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/justinabrahms/pollchess/internal/auth"
	"github.com/justinabrahms/pollchess/internal/chess"
	"github.com/justinabrahms/pollchess/internal/notify"
	"github.com/justinabrahms/pollchess/internal/store"
)

var ErrAlreadyJoined = errors.New("second player already joined")

// Journal receives a durable record of games as they are played.
type Journal interface {
	RecordGame(store.GameRecord)
	RecordMove(store.MoveRecord)
	RecordResult(gameID, status, winner, reason string, at time.Time)
}

type Options struct {
	WaitTimeout time.Duration
	WaitBuffer  int
	Journal     Journal
}

// Service runs two-player games: hosting, joining, moves and turn waits.
type Service struct {
	games       *store.MemoryStore
	issuer      *auth.Issuer
	hub         *notify.Hub[store.Game]
	journal     Journal
	waitTimeout time.Duration
}

// KeyOf names the waiter a game snapshot should wake: the player whose turn it now is.
func KeyOf(rec store.Game) notify.Key {
	return notify.Key{GameID: rec.ID, Token: rec.Token(rec.State.CurrentPlayer())}
}

func NewService(games *store.MemoryStore, issuer *auth.Issuer, opts Options) *Service {
	timeout := opts.WaitTimeout
	if timeout <= 0 {
		timeout = notify.DefaultTimeout
	}
	return &Service{
		games:       games,
		issuer:      issuer,
		hub:         notify.NewHub(KeyOf, timeout, opts.WaitBuffer),
		journal:     opts.Journal,
		waitTimeout: timeout,
	}
}

// Run delivers turn notifications until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	return s.hub.Run(ctx)
}

// Close releases every pending wait.
func (s *Service) Close() {
	s.hub.Close()
}

// Observe registers fn to see every game snapshot after a join or move.
func (s *Service) Observe(fn func(store.Game)) {
	s.hub.Observe(fn)
}

// Host creates a game at the standard start and returns White's connection.
func (s *Service) Host() (Connection, error) {
	id := uuid.NewString()

	var tokens [2]string
	for _, c := range []chess.Color{chess.White, chess.Black} {
		token, err := s.issuer.Issue(id, c)
		if err != nil {
			return Connection{}, fmt.Errorf("failed to issue %s token: %w", c, err)
		}
		tokens[c] = token
	}

	rec := store.Game{ID: id, Tokens: tokens, State: chess.Start(), CreatedAt: time.Now().UTC()}
	if err := s.games.Create(rec); err != nil {
		return Connection{}, err
	}
	if s.journal != nil {
		s.journal.RecordGame(store.GameRecord{GameID: id, CreatedAt: rec.CreatedAt, Status: string(rec.State.Status())})
	}

	log.Info().Str("gameID", id).Msg("Game hosted")
	return s.connect(rec, chess.White), nil
}

// Join seats the second player and returns Black's connection. A waiting White is woken.
func (s *Service) Join(id string) (Connection, error) {
	rec, err := s.games.Update(id, func(g *store.Game) error {
		if g.SecondPlayerJoined {
			return fmt.Errorf("%w: %s", ErrAlreadyJoined, g.ID)
		}
		g.SecondPlayerJoined = true
		return s.hub.Publish(*g)
	})
	if err != nil {
		return Connection{}, err
	}

	log.Info().Str("gameID", id).Msg("Second player joined")
	return s.connect(rec, chess.Black), nil
}

func (s *Service) connect(rec store.Game, c chess.Color) Connection {
	token := rec.Token(c)
	return Connection{GameID: rec.ID, Token: token, PlayerSide: c, GameState: Project(rec, token)}
}

// Move applies m for the holder of token, who must be the player to move. The snapshot is
// saved and the opponent notified before the per-game lock is released, so notifications
// follow move order. The move is journaled only once the notification is queued.
func (s *Service) Move(id, token string, m chess.Move) (View, error) {
	var mover chess.Color
	rec, err := s.games.Update(id, func(g *store.Game) error {
		mover = g.State.CurrentPlayer()
		if err := s.issuer.Authorize(*g, token, mover); err != nil {
			return err
		}
		next, err := g.State.ApplyMove(m)
		if err != nil {
			return err
		}
		g.State = next
		s.record(*g, mover)
		return s.hub.Publish(*g)
	})
	if err != nil {
		return View{}, err
	}

	played, _ := rec.State.LastMove()
	event := log.Info().
		Str("gameID", id).
		Str("color", mover.String()).
		Str("move", played.String()).
		Str("status", string(rec.State.Status()))
	if rec.State.Finished() {
		event.Str("reason", FinishReason(rec.State)).Msg("Game finished")
	} else {
		event.Msg("Move applied")
	}
	return Project(rec, token), nil
}

func (s *Service) record(rec store.Game, mover chess.Color) {
	if s.journal == nil {
		return
	}
	now := time.Now().UTC()
	played, _ := rec.State.LastMove()
	s.journal.RecordMove(store.MoveRecord{
		GameID:      rec.ID,
		MoveNumber:  rec.State.MoveCount(),
		MoveUCI:     played.String(),
		PlayerColor: mover.String(),
		StatusAfter: string(rec.State.Status()),
		BoardAfter:  rec.State.Board().String(),
		MoveTimeUTC: now,
	})
	if rec.State.Finished() {
		winner := ""
		if c, ok := rec.State.Winner(); ok {
			winner = c.String()
		}
		s.journal.RecordResult(rec.ID, string(rec.State.Status()), winner, FinishReason(rec.State), now)
	}
}

// ready reports whether a turn wait by token can be answered right away.
func ready(rec store.Game, token string) bool {
	if rec.State.Finished() {
		return true
	}
	return rec.SecondPlayerJoined && rec.Token(rec.State.CurrentPlayer()) == token
}

// AwaitTurn blocks until it is the token holder's turn with the opponent seated, or the game
// has finished. It fails with notify.ErrTimeout once the wait bound passes, counted from the
// call and not from each re-registration, and with notify.ErrSuperseded when the same player
// starts a newer wait.
func (s *Service) AwaitTurn(ctx context.Context, id, token string) (View, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()

	for {
		var reg *notify.Registration[store.Game]
		var current store.Game
		err := s.games.Inspect(id, func(g store.Game) error {
			if _, err := s.issuer.ColorOf(g, token); err != nil {
				return err
			}
			current = g
			if ready(g, token) {
				return nil
			}
			r, err := s.hub.Register(notify.Key{GameID: id, Token: token})
			reg = r
			return err
		})
		if err != nil {
			return View{}, err
		}
		if reg == nil {
			return Project(current, token), nil
		}

		if _, err := reg.Wait(waitCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				err = notify.ErrTimeout
			}
			if errors.Is(err, notify.ErrTimeout) {
				log.Warn().Str("gameID", id).Msg("Turn wait timed out")
			}
			return View{}, err
		}
		// A notification queued before the player's own last move can arrive late; the loop
		// re-reads the snapshot and waits again when the turn has already passed.
	}
}

// View returns the current projection for token. An empty token is a spectator.
func (s *Service) View(id, token string) (View, error) {
	rec, err := s.games.Find(id)
	if err != nil {
		return View{}, err
	}
	if token != "" {
		if _, err := s.issuer.ColorOf(rec, token); err != nil {
			return View{}, err
		}
	}
	return Project(rec, token), nil
}

// List summarizes every game, newest first.
func (s *Service) List() []Summary {
	ids := s.games.IDs()
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		rec, err := s.games.Find(id)
		if err != nil {
			continue
		}
		out = append(out, summarize(rec))
	}
	return out
}

// Waiting is the number of pending turn waits.
func (s *Service) Waiting() int {
	return s.hub.Len()
}
