package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	return j, path
}

func TestJournalRecordsGameAndMoves(t *testing.T) {
	j, path := openTestJournal(t)
	created := time.Now().UTC().Truncate(time.Second)

	j.RecordGame(GameRecord{GameID: "g1", CreatedAt: created, Status: "NORMAL"})
	j.RecordMove(MoveRecord{GameID: "g1", MoveNumber: 1, MoveUCI: "e2e4", PlayerColor: "WHITE", StatusAfter: "NORMAL", BoardAfter: "x", MoveTimeUTC: created})
	j.RecordMove(MoveRecord{GameID: "g1", MoveNumber: 2, MoveUCI: "e7e5", PlayerColor: "BLACK", StatusAfter: "CHECKMATE", BoardAfter: "y", MoveTimeUTC: created})
	j.RecordResult("g1", "CHECKMATE", "BLACK", "Checkmate! BLACK wins!", created)

	// Close drains the queue; reopening proves the rows were committed.
	require.NoError(t, j.Close())
	assert.True(t, j.IsHealthy())

	j2, err := OpenJournal(path)
	require.NoError(t, err)
	defer j2.Close()

	moves, err := j2.Moves("g1")
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "e2e4", moves[0].MoveUCI)
	assert.Equal(t, "BLACK", moves[1].PlayerColor)

	g, err := j2.Game("g1")
	require.NoError(t, err)
	assert.Equal(t, "CHECKMATE", g.Status)
	assert.Equal(t, "BLACK", g.Winner)
	require.NotNil(t, g.FinishedAt)
}

func TestJournalUnknownGame(t *testing.T) {
	j, _ := openTestJournal(t)
	defer j.Close()

	_, err := j.Game("missing")
	assert.ErrorIs(t, err, ErrGameNotFound)

	moves, err := j.Moves("missing")
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestJournalDegradesOnFailedWrite(t *testing.T) {
	j, _ := openTestJournal(t)
	defer j.Close()

	// Duplicate primary key fails the second insert.
	j.RecordGame(GameRecord{GameID: "g1", CreatedAt: time.Now(), Status: "NORMAL"})
	j.RecordGame(GameRecord{GameID: "g1", CreatedAt: time.Now(), Status: "NORMAL"})

	require.Eventually(t, func() bool { return !j.IsHealthy() }, 2*time.Second, 10*time.Millisecond)

	j.RecordGame(GameRecord{GameID: "g2", CreatedAt: time.Now(), Status: "NORMAL"})
	time.Sleep(50 * time.Millisecond)
	_, err := j.Game("g2")
	assert.ErrorIs(t, err, ErrGameNotFound)
}
