package usecase

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type TeardownSearchUseCase struct {
	sessions *session.Manager
}

func NewTeardownSearchUseCase(sessions *session.Manager) *TeardownSearchUseCase {
	return &TeardownSearchUseCase{sessions: sessions}
}

// Execute закрывает поисковый контекст: поколение растет, так что ответы
// в полете уже не подклеятся, а страницы выдачи уходят из кеша.
func (uc *TeardownSearchUseCase) Execute(ctx context.Context, userID string) error {
	uc.sessions.Session(userID).ResetSearch()
	contextkeys.LoggerFromContext(ctx).Info("Search context torn down", port.Fields{
		"use_case": "TeardownSearch",
		"user_id":  userID,
	})
	return nil
}
