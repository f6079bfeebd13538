package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/justinabrahms/pollchess/internal/chess"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

// Game is the authoritative record of one game. The chess state inside is immutable, so a
// copied Game is a consistent snapshot.
type Game struct {
	ID                 string
	Tokens             [2]string
	State              *chess.Game
	SecondPlayerJoined bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Token returns the credential issued to color c.
func (g Game) Token(c chess.Color) string {
	return g.Tokens[c]
}

type entry struct {
	created time.Time

	mu  sync.Mutex
	rec Game
}

// MemoryStore keeps the latest snapshot of every game in process memory. Writes to one game
// are serialized; different games never contend.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]*entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*entry)}
}

func (s *MemoryStore) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.games[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return e, nil
}

// Create stores a new game. The id must be unused.
func (s *MemoryStore) Create(rec Game) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrGameExists, rec.ID)
	}
	s.games[rec.ID] = &entry{created: rec.CreatedAt, rec: rec}
	return nil
}

// Find returns the current snapshot of a game.
func (s *MemoryStore) Find(id string) (Game, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Game{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec, nil
}

// Save replaces the snapshot of an existing game.
func (s *MemoryStore) Save(rec Game) error {
	e, err := s.lookup(rec.ID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rec.UpdatedAt = time.Now().UTC()
	e.rec = rec
	return nil
}

// Update runs fn on a copy of the game while holding that game's lock and stores the copy
// when fn succeeds. When fn fails the stored snapshot is untouched.
func (s *MemoryStore) Update(id string, fn func(*Game) error) (Game, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Game{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.rec
	if err := fn(&next); err != nil {
		return Game{}, err
	}
	next.UpdatedAt = time.Now().UTC()
	e.rec = next
	return next, nil
}

// Inspect runs fn on the current snapshot while holding the game's lock, so no Update can
// interleave with it.
func (s *MemoryStore) Inspect(id string, fn func(Game) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.rec)
}

// IDs lists stored game ids, newest first.
func (s *MemoryStore) IDs() []string {
	s.mu.RLock()
	type stamped struct {
		id string
		at time.Time
	}
	all := make([]stamped, 0, len(s.games))
	for id, e := range s.games {
		all = append(all, stamped{id: id, at: e.created})
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].at.Equal(all[j].at) {
			return all[i].at.After(all[j].at)
		}
		return all[i].id < all[j].id
	})
	ids := make([]string, len(all))
	for i, g := range all {
		ids[i] = g.id
	}
	return ids
}

// Len is the number of stored games.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
