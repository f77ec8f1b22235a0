package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordSession asynchronously records a new session. A reused game code
// replaces the earlier session and its moves.
func (s *Store) RecordSession(record SessionRecord) {
	s.enqueue("session", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM moves WHERE game_id = ?`, record.GameID); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM sessions WHERE game_id = ?`, record.GameID); err != nil {
			return err
		}
		query := `INSERT INTO sessions (
			game_id, game_type, status, round, result, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.Exec(query,
			record.GameID, record.GameType, record.Status, record.Round,
			record.Result, record.CreatedAt, record.UpdatedAt,
		)
		return err
	})
}

// UpdateSession asynchronously updates status, round and result
func (s *Store) UpdateSession(record SessionRecord) {
	s.enqueue("session update", func(tx *sql.Tx) error {
		query := `UPDATE sessions SET status = ?, round = ?, result = ?, updated_at = ? WHERE game_id = ?`
		_, err := tx.Exec(query, record.Status, record.Round, record.Result, record.UpdatedAt, record.GameID)
		return err
	})
}

// QuerySessions retrieves sessions with optional filtering. Empty or "*"
// matches everything.
func (s *Store) QuerySessions(gameID, status string) ([]SessionRecord, error) {
	query := `SELECT game_id, game_type, status, round, result, created_at, updated_at
	FROM sessions WHERE 1=1`

	var args []any

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}

	if status != "" && status != "*" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.GameID, &r.GameType, &r.Status, &r.Round, &r.Result, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		sessions = append(sessions, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return sessions, nil
}

// DeleteSessionsBefore removes sessions (and their moves) last updated
// before cutoff
func (s *Store) DeleteSessionsBefore(cutoff time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cutoff = cutoff.UTC()
	if _, err := tx.Exec(`DELETE FROM moves WHERE game_id IN (SELECT game_id FROM sessions WHERE updated_at < ?)`, cutoff); err != nil {
		return 0, err
	}
	result, err := tx.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
