package storage

import (
	"errors"
	"time"
)

var ErrDegraded = errors.New("storage degraded")

// SessionRecord represents a row in the sessions table
type SessionRecord struct {
	GameID    string    `db:"game_id"`
	GameType  string    `db:"game_type"`
	Status    string    `db:"status"`
	Round     int       `db:"round"`
	Result    string    `db:"result"` // JSON encoded result, empty while playing
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MoveRecord represents a row in the moves table
type MoveRecord struct {
	MoveID     int64     `db:"move_id"`
	GameID     string    `db:"game_id"`
	Round      int       `db:"round"`
	MoveNumber int       `db:"move_number"`
	Player     string    `db:"player"`
	Payload    string    `db:"payload"` // relayed JSON, with player and timestamp
	CreatedAt  time.Time `db:"created_at"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	game_id TEXT PRIMARY KEY,
	game_type TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('waiting', 'playing', 'finished')),
	round INTEGER NOT NULL DEFAULT 1,
	result TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	round INTEGER NOT NULL,
	move_number INTEGER NOT NULL,
	player TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES sessions(game_id) ON DELETE CASCADE,
	UNIQUE(game_id, round, move_number)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
`
