package service

import (
	"encoding/json"

	"chessroom/internal/server/game"
	"chessroom/internal/server/storage"

	"go.uber.org/zap"
)

// Storage hooks. Writes are queued by the store and never block a session.

func (s *Service) sessionRecord(sess *game.Session) storage.SessionRecord {
	rec := storage.SessionRecord{
		GameID:    sess.ID(),
		GameType:  sess.Config().Type,
		Status:    sess.Status().String(),
		Round:     sess.Round(),
		CreatedAt: sess.CreatedAt().UTC(),
		UpdatedAt: sess.UpdatedAt().UTC(),
	}
	if res := sess.Result(); res != nil {
		b, err := json.Marshal(res)
		if err != nil {
			s.log.Warn("encode result", zap.String("game", sess.ID()), zap.Error(err))
		} else {
			rec.Result = string(b)
		}
	}
	return rec
}

func (s *Service) recordSession(sess *game.Session) {
	if s.store == nil {
		return
	}
	s.store.RecordSession(s.sessionRecord(sess))
}

func (s *Service) updateSession(sess *game.Session) {
	if s.store == nil {
		return
	}
	s.store.UpdateSession(s.sessionRecord(sess))
}

func (s *Service) recordMove(sess *game.Session, role string, record json.RawMessage) {
	if s.store == nil {
		return
	}
	s.store.RecordMove(storage.MoveRecord{
		GameID:     sess.ID(),
		Round:      sess.Round(),
		MoveNumber: len(sess.Moves()),
		Player:     role,
		Payload:    string(record),
		CreatedAt:  sess.UpdatedAt().UTC(),
	})
}
