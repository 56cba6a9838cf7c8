package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type ToggleFavoriteUseCase struct {
	sessions *session.Manager
	backend  port.BackendAPIPort
	notifier port.NotifierPort
	global   port.CachePort
}

func NewToggleFavoriteUseCase(sessions *session.Manager, backend port.BackendAPIPort, notifier port.NotifierPort, global port.CachePort) *ToggleFavoriteUseCase {
	return &ToggleFavoriteUseCase{
		sessions: sessions,
		backend:  backend,
		notifier: notifier,
		global:   global,
	}
}

// Execute оптимистично переключает избранное и сразу возвращает целевое
// состояние: сердечко в UI меняется мгновенно. Сетевой вызов доигрывается
// в фоне, исход прилетает подписчикам SSE-событием. Повторный вызов по
// тому же объекту до развязки отклоняется per-entity замком.
func (uc *ToggleFavoriteUseCase) Execute(ctx context.Context, userID string, listingID uuid.UUID) (bool, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "ToggleFavorite",
		"user_id":    userID,
		"listing_id": listingID.String(),
	})

	s := uc.sessions.Session(userID)

	target, snap, err := s.BeginFavoriteToggle(listingID)
	if err != nil {
		logger.Warn("Toggle rejected, mutation already pending", nil)
		return false, err
	}
	logger.Info("Optimistic toggle applied", port.Fields{"target": target})

	// Хвост запроса живет дольше HTTP-запроса, который его породил,
	// поэтому отвязываемся от отмены, сохранив значения контекста.
	settleCtx := context.WithoutCancel(ctx)
	go uc.settle(settleCtx, s, listingID, target, snap, logger)

	return target, nil
}

// settle доводит мутацию до развязки: фиксация со сбросом списочных кешей
// либо откат к слепку. Состояние до ответа бэкенда остается оптимистичным.
func (uc *ToggleFavoriteUseCase) settle(ctx context.Context, s *session.Session, listingID uuid.UUID, target bool, snap session.FavoriteSnapshot, logger port.LoggerPort) {
	var err error
	if target {
		err = uc.backend.AddFavorite(ctx, s.UserID(), listingID)
	} else {
		err = uc.backend.RemoveFavorite(ctx, s.UserID(), listingID)
	}

	if err != nil {
		s.RollbackFavoriteToggle(listingID, snap)
		logger.Error("Toggle rolled back", err, nil)

		uc.notifier.Notify(ctx, domain.Event{
			Type:   domain.EventFavoriteRolledBack,
			UserID: s.UserID(),
			Payload: domain.FavoriteSettlement{
				ListingID:  listingID,
				IsFavorite: !target,
			},
		})
		uc.notifier.Notify(ctx, domain.NewNotice(s.UserID(), domain.NoticeError, "Не удалось обновить избранное"))
		return
	}

	s.CommitFavoriteToggle(listingID)
	uc.global.InvalidateMatching(domain.IsListShapedKey)
	logger.Info("Toggle committed", port.Fields{"target": target})

	uc.notifier.Notify(ctx, domain.Event{
		Type:   domain.EventFavoriteSettled,
		UserID: s.UserID(),
		Payload: domain.FavoriteSettlement{
			ListingID:  listingID,
			IsFavorite: target,
		},
	})
}
