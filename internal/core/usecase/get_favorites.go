package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type GetFavoritesUseCase struct {
	sessions *session.Manager
	backend  port.BackendAPIPort
}

func NewGetFavoritesUseCase(sessions *session.Manager, backend port.BackendAPIPort) *GetFavoritesUseCase {
	return &GetFavoritesUseCase{sessions: sessions, backend: backend}
}

// Execute отдает избранное пользователя, сессионный кеш - первым. Поверх
// любого источника накладываются оптимистичные флаги мутаций в полете,
// чтобы список не спорил с только что нажатым сердечком.
func (uc *GetFavoritesUseCase) Execute(ctx context.Context, userID string) ([]domain.PropertyListing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "GetFavorites",
		"user_id":  userID,
	})

	s := uc.sessions.Session(userID)

	if raw, ok := s.Cache().Get(domain.CacheKeyFavorites); ok {
		if cached, ok := raw.([]domain.PropertyListing); ok {
			logger.Debug("Favorites served from cache", port.Fields{"count": len(cached)})
			return withOverlay(cached, s.OverlayFlags()), nil
		}
	}

	favorites, err := uc.backend.GetFavorites(ctx, userID)
	if err != nil {
		logger.Error("Failed to fetch favorites", err, nil)
		return nil, fmt.Errorf("get favorites: %w", err)
	}

	s.Cache().Set(domain.CacheKeyFavorites, favorites, 0)
	logger.Info("Favorites fetched", port.Fields{"count": len(favorites)})
	return withOverlay(favorites, s.OverlayFlags()), nil
}

// withOverlay возвращает копию списка с примененными оптимистичными
// флагами незавершенных переключений.
func withOverlay(items []domain.PropertyListing, flags map[uuid.UUID]bool) []domain.PropertyListing {
	out := make([]domain.PropertyListing, len(items))
	copy(out, items)
	if len(flags) == 0 {
		return out
	}
	for i := range out {
		if flag, ok := flags[out[i].ID]; ok {
			out[i].IsFavorite = flag
		}
	}
	return out
}
