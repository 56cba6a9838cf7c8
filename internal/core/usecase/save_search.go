package usecase

import (
	"context"
	"fmt"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type SaveSearchUseCase struct {
	sessions *session.Manager
	backend  port.BackendAPIPort
}

func NewSaveSearchUseCase(sessions *session.Manager, backend port.BackendAPIPort) *SaveSearchUseCase {
	return &SaveSearchUseCase{sessions: sessions, backend: backend}
}

// Execute сохраняет критерии активного поиска на бэкенде: по ним будут
// приходить уведомления о новых объектах. Кнопка "сохранить поиск" живет
// на экране выдачи, поэтому без активного поиска операция невозможна.
func (uc *SaveSearchUseCase) Execute(ctx context.Context, userID string) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "SaveSearch",
		"user_id":  userID,
	})

	s := uc.sessions.Session(userID)
	query, active := s.Query()
	if !active {
		return domain.ErrNoActiveSearch
	}

	if err := uc.backend.SaveSearch(ctx, userID, query); err != nil {
		logger.Error("Failed to save search", err, nil)
		return fmt.Errorf("save search: %w", err)
	}
	logger.Info("Search saved", port.Fields{"query_key": query.CanonicalKey()})
	return nil
}
