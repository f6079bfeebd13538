package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinabrahms/pollchess/internal/chess"
)

func newRecord(id string) Game {
	return Game{ID: id, Tokens: [2]string{"w-" + id, "b-" + id}, State: chess.Start()}
}

func TestCreateAndFind(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(newRecord("g1")))

	got, err := s.Find("g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", got.ID)
	assert.Equal(t, "b-g1", got.Token(chess.Black))
	assert.False(t, got.CreatedAt.IsZero())

	err = s.Create(newRecord("g1"))
	assert.ErrorIs(t, err, ErrGameExists)
}

func TestFindUnknownGame(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Find("missing")
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = s.Update("missing", func(*Game) error { return nil })
	assert.ErrorIs(t, err, ErrGameNotFound)

	assert.ErrorIs(t, s.Save(newRecord("missing")), ErrGameNotFound)
}

func TestSaveReplacesSnapshot(t *testing.T) {
	s := NewMemoryStore()
	rec := newRecord("g1")
	require.NoError(t, s.Create(rec))

	rec.SecondPlayerJoined = true
	require.NoError(t, s.Save(rec))

	got, err := s.Find("g1")
	require.NoError(t, err)
	assert.True(t, got.SecondPlayerJoined)
}

func TestFailedUpdateStoresNothing(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(newRecord("g1")))
	boom := errors.New("boom")

	_, err := s.Update("g1", func(g *Game) error {
		g.SecondPlayerJoined = true
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Find("g1")
	require.NoError(t, err)
	assert.False(t, got.SecondPlayerJoined)
}

// TestConcurrentUpdatesNeverShareASnapshot ensures two writers never both validate against
// the same state: exactly one of two racing identical moves succeeds.
func TestConcurrentUpdatesNeverShareASnapshot(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(newRecord("g1")))
	move := chess.Move{From: chess.Pos(5, 2), To: chess.Pos(5, 4)}

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update("g1", func(g *Game) error {
				next, err := g.State.ApplyMove(move)
				if err != nil {
					return err
				}
				g.State = next
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, chess.ErrInvalidMove)
		}
	}
	assert.Equal(t, 1, succeeded)

	got, err := s.Find("g1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.State.MoveCount())
}

func TestInspectSeesCurrentSnapshot(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Create(newRecord("g1")))

	var seen bool
	err := s.Inspect("g1", func(g Game) error {
		seen = g.State.CurrentPlayer() == chess.White
		return nil
	})
	require.NoError(t, err)
	assert.True(t, seen)
	assert.ErrorIs(t, s.Inspect("nope", func(Game) error { return nil }), ErrGameNotFound)
}

func TestIDsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	a := newRecord("a")
	b := newRecord("b")
	b.CreatedAt = a.CreatedAt
	require.NoError(t, s.Create(a))
	require.NoError(t, s.Create(b))

	assert.Equal(t, 2, s.Len())
	assert.ElementsMatch(t, []string{"a", "b"}, s.IDs())
}
