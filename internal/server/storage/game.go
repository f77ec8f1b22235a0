package storage

import (
	"database/sql"
	"fmt"
)

// RecordMove asynchronously records a relayed move
func (s *Store) RecordMove(record MoveRecord) {
	s.enqueue("move", func(tx *sql.Tx) error {
		query := `INSERT INTO moves (
			game_id, round, move_number, player, payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.GameID, record.Round, record.MoveNumber,
			record.Player, record.Payload, record.CreatedAt,
		)
		return err
	})
}

// QueryMoves lists the moves of a session in order. Round 0 returns all
// rounds.
func (s *Store) QueryMoves(gameID string, round int) ([]MoveRecord, error) {
	query := `SELECT move_id, game_id, round, move_number, player, payload, created_at
	FROM moves WHERE game_id = ?`
	args := []any{gameID}

	if round > 0 {
		query += " AND round = ?"
		args = append(args, round)
	}
	query += " ORDER BY round, move_number"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(&m.MoveID, &m.GameID, &m.Round, &m.MoveNumber, &m.Player, &m.Payload, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return moves, nil
}
