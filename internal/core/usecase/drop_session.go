package usecase

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type DropSessionUseCase struct {
	sessions *session.Manager
	drafts   port.DraftStorePort
	notifier port.NotifierPort
}

func NewDropSessionUseCase(sessions *session.Manager, drafts port.DraftStorePort, notifier port.NotifierPort) *DropSessionUseCase {
	return &DropSessionUseCase{sessions: sessions, drafts: drafts, notifier: notifier}
}

// Execute полностью сносит сессию пользователя: кеш, состояние форм,
// staging-файлы, черновики, открытые потоки событий. Вызывается при
// закрытии мини-аппа, поэтому в отличие от фонового вытеснения по
// неактивности черновики здесь тоже удаляются.
func (uc *DropSessionUseCase) Execute(ctx context.Context, userID string) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "DropSession",
		"user_id":  userID,
	})

	uc.sessions.Drop(userID)

	for _, formID := range []string{domain.FormSearch, domain.FormOffer, domain.FormViewing} {
		if err := uc.drafts.Delete(userID, formID); err != nil {
			logger.Warn("Failed to delete form draft", port.Fields{"form_id": formID, "error": err.Error()})
		}
	}

	uc.notifier.CloseUser(userID)

	logger.Info("Session dropped", nil)
	return nil
}
