package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const (
	journalQueueSize    = 1000
	journalDrainTimeout = 2 * time.Second
)

// Journal is an append-only SQLite log of games and moves. Writes are queued and applied by a
// single writer goroutine; a failed write marks the journal degraded and later writes are
// dropped. Gameplay never depends on it.
type Journal struct {
	db           *sql.DB
	path         string
	writeChan    chan func(*sql.Tx) error
	healthStatus atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// OpenJournal opens or creates the journal database at path and starts its writer.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	db.SetMaxOpenConns(4)

	ctx, cancel := context.WithCancel(context.Background())
	j := &Journal{
		db:        db,
		path:      path,
		writeChan: make(chan func(*sql.Tx) error, journalQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	if err := j.initDB(); err != nil {
		cancel()
		db.Close()
		return nil, err
	}
	j.healthStatus.Store(true)

	j.wg.Add(1)
	go j.writerLoop()

	log.Info().Str("path", path).Msg("Game journal opened")
	return j, nil
}

func (j *Journal) initDB() error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return tx.Commit()
}

// IsHealthy reports whether every write so far has succeeded.
func (j *Journal) IsHealthy() bool {
	return j.healthStatus.Load()
}

func (j *Journal) writerLoop() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			deadline := time.After(journalDrainTimeout)
			for {
				select {
				case fn := <-j.writeChan:
					if j.healthStatus.Load() {
						j.executeWrite(fn)
					}
				case <-deadline:
					return
				default:
					return
				}
			}

		case fn := <-j.writeChan:
			if !j.healthStatus.Load() {
				continue
			}
			j.executeWrite(fn)
		}
	}
}

func (j *Journal) executeWrite(fn func(*sql.Tx) error) {
	tx, err := j.db.Begin()
	if err != nil {
		log.Error().Err(err).Msg("Journal degraded: failed to begin transaction")
		j.healthStatus.Store(false)
		return
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		log.Error().Err(err).Msg("Journal degraded: write failed")
		j.healthStatus.Store(false)
		return
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("Journal degraded: failed to commit")
		j.healthStatus.Store(false)
	}
}

func (j *Journal) enqueue(what string, fn func(*sql.Tx) error) {
	if !j.healthStatus.Load() {
		return
	}
	select {
	case j.writeChan <- fn:
	default:
		log.Warn().Str("record", what).Msg("Journal queue full, dropping write")
	}
}

// RecordGame queues the creation of a game row.
func (j *Journal) RecordGame(rec GameRecord) {
	j.enqueue("game", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO games (game_id, created_at, status) VALUES (?, ?, ?)`,
			rec.GameID, rec.CreatedAt, rec.Status,
		)
		return err
	})
}

// RecordMove queues a played move.
func (j *Journal) RecordMove(rec MoveRecord) {
	j.enqueue("move", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO moves (
				game_id, move_number, move_uci, player_color, status_after, board_after, move_time_utc
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.GameID, rec.MoveNumber, rec.MoveUCI, rec.PlayerColor,
			rec.StatusAfter, rec.BoardAfter, rec.MoveTimeUTC,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`UPDATE games SET status = ? WHERE game_id = ?`, rec.StatusAfter, rec.GameID)
		return err
	})
}

// RecordResult queues the final outcome of a game.
func (j *Journal) RecordResult(gameID, status, winner, reason string, at time.Time) {
	j.enqueue("result", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`UPDATE games SET status = ?, winner = ?, reason = ?, finished_at = ? WHERE game_id = ?`,
			status, winner, reason, at, gameID,
		)
		return err
	})
}

// Game reads one game row.
func (j *Journal) Game(gameID string) (GameRecord, error) {
	var g GameRecord
	var finished sql.NullTime
	err := j.db.QueryRow(
		`SELECT game_id, created_at, status, winner, reason, finished_at FROM games WHERE game_id = ?`,
		gameID,
	).Scan(&g.GameID, &g.CreatedAt, &g.Status, &g.Winner, &g.Reason, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return GameRecord{}, fmt.Errorf("query failed: %w", err)
	}
	if finished.Valid {
		g.FinishedAt = &finished.Time
	}
	return g, nil
}

// Moves reads the moves of a game in play order.
func (j *Journal) Moves(gameID string) ([]MoveRecord, error) {
	rows, err := j.db.Query(
		`SELECT move_id, game_id, move_number, move_uci, player_color, status_after, board_after, move_time_utc
		FROM moves WHERE game_id = ? ORDER BY move_number`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(
			&m.MoveID, &m.GameID, &m.MoveNumber, &m.MoveUCI, &m.PlayerColor,
			&m.StatusAfter, &m.BoardAfter, &m.MoveTimeUTC,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return moves, nil
}

// Close stops the writer after draining queued writes, then closes the database.
func (j *Journal) Close() error {
	j.cancel()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(journalDrainTimeout):
		log.Warn().Msg("Journal writer shutdown timeout, some writes may be lost")
	}

	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
