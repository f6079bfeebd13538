package store

import "time"

// GameRecord is a row in the games table.
type GameRecord struct {
	GameID     string     `db:"game_id"`
	CreatedAt  time.Time  `db:"created_at"`
	Status     string     `db:"status"`
	Winner     string     `db:"winner"`
	Reason     string     `db:"reason"`
	FinishedAt *time.Time `db:"finished_at"`
}

// MoveRecord is a row in the moves table.
type MoveRecord struct {
	MoveID      int64     `db:"move_id"`
	GameID      string    `db:"game_id"`
	MoveNumber  int       `db:"move_number"`
	MoveUCI     string    `db:"move_uci"`
	PlayerColor string    `db:"player_color"`
	StatusAfter string    `db:"status_after"`
	BoardAfter  string    `db:"board_after"`
	MoveTimeUTC time.Time `db:"move_time_utc"`
}

// Schema defines the journal database structure.
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	status TEXT NOT NULL DEFAULT 'NORMAL',
	winner TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	move_number INTEGER NOT NULL,
	move_uci TEXT NOT NULL,
	player_color TEXT NOT NULL CHECK(player_color IN ('WHITE', 'BLACK')),
	status_after TEXT NOT NULL,
	board_after TEXT NOT NULL,
	move_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE,
	UNIQUE(game_id, move_number)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
`
