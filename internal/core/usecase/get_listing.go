package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type GetListingUseCase struct {
	sessions *session.Manager
	backend  port.BackendAPIPort
}

func NewGetListingUseCase(sessions *session.Manager, backend port.BackendAPIPort) *GetListingUseCase {
	return &GetListingUseCase{sessions: sessions, backend: backend}
}

// Execute возвращает карточку объекта. Флаг избранного в карточке
// персональный, поэтому кеш тут сессионный, а не глобальный.
func (uc *GetListingUseCase) Execute(ctx context.Context, userID string, listingID uuid.UUID) (*domain.PropertyListing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":   "GetListing",
		"user_id":    userID,
		"listing_id": listingID.String(),
	})

	s := uc.sessions.Session(userID)
	key := domain.ListingCacheKey(listingID.String())

	if raw, ok := s.Cache().Get(key); ok {
		if listing, ok := raw.(domain.PropertyListing); ok {
			if flag, pending := s.OverlayFlags()[listingID]; pending {
				listing.IsFavorite = flag
			}
			logger.Debug("Listing served from cache", nil)
			return &listing, nil
		}
	}

	listing, err := uc.backend.GetListing(ctx, userID, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Listing not found", nil)
			return nil, err
		}
		logger.Error("Failed to fetch listing", err, nil)
		return nil, fmt.Errorf("get listing: %w", err)
	}

	s.Cache().Set(key, *listing, 0)
	out := *listing
	if flag, pending := s.OverlayFlags()[listingID]; pending {
		out.IsFavorite = flag
	}
	return &out, nil
}
