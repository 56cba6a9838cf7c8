package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

// FavoriteSnapshot - слепок состояния избранного по одному объекту,
// снятый до оптимистичного переключения. Откат восстанавливает ровно его.
type FavoriteSnapshot struct {
	flag       bool
	overlaySet bool
	overlayOld bool

	favListCached bool
	favList       []domain.PropertyListing

	listingCached bool
	listing       domain.PropertyListing
}

// BeginFavoriteToggle выполняет синхронную часть переключения: проверяет
// per-entity замок, снимает слепок, применяет оптимистичное значение ко
// всем локальным копиям объекта и регистрирует незавершенную мутацию.
// Возвращает целевое состояние флага и слепок для возможного отката.
func (s *Session) BeginFavoriteToggle(listingID uuid.UUID) (bool, FavoriteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if _, exists := s.pending[listingID]; exists {
		return false, FavoriteSnapshot{}, domain.ErrMutationPending
	}

	current := s.resolveFlagLocked(listingID)
	target := !current
	snap := s.captureSnapshotLocked(listingID, current)

	s.applyFlagLocked(listingID, target)
	s.overlay[listingID] = target
	s.pending[listingID] = domain.PendingMutation{
		EntityID:    listingID,
		TargetState: target,
		StartedAt:   time.Now(),
	}
	return target, snap, nil
}

// CommitFavoriteToggle фиксирует успешную мутацию: снимает замок и
// сбрасывает все списочные ключи сессионного кеша, чтобы следующее чтение
// ушло за истиной на бэкенд. Глобальный кеш чистит юзкейс.
func (s *Session) CommitFavoriteToggle(listingID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	delete(s.pending, listingID)
	delete(s.overlay, listingID)
	s.cache.InvalidateMatching(domain.IsListShapedKey)
}

// RollbackFavoriteToggle возвращает состояние объекта к слепку. Кешевые
// записи восстанавливаются только если ключ все еще жив: сброшенный за время
// полета ключ означает, что истину уже перечитают с бэкенда.
func (s *Session) RollbackFavoriteToggle(listingID uuid.UUID, snap FavoriteSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	delete(s.pending, listingID)
	if snap.overlaySet {
		s.overlay[listingID] = snap.overlayOld
	} else {
		delete(s.overlay, listingID)
	}

	for i := range s.search.Results {
		if s.search.Results[i].ID == listingID {
			s.search.Results[i].IsFavorite = snap.flag
		}
	}

	if snap.favListCached {
		if _, alive := s.cache.Get(domain.CacheKeyFavorites); alive {
			restored := make([]domain.PropertyListing, len(snap.favList))
			copy(restored, snap.favList)
			s.cache.Set(domain.CacheKeyFavorites, restored, 0)
		}
	}
	if snap.listingCached {
		key := domain.ListingCacheKey(listingID.String())
		if _, alive := s.cache.Get(key); alive {
			s.cache.Set(key, snap.listing, 0)
		}
	}
}

// HasPendingMutation сообщает, висит ли по объекту незавершенное
// переключение.
func (s *Session) HasPendingMutation(listingID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[listingID]
	return ok
}

// OverlayFlags возвращает копию оптимистичных флагов незавершенных
// мутаций. Юзкейсы накладывают их на свежезагруженные списки.
func (s *Session) OverlayFlags() map[uuid.UUID]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]bool, len(s.overlay))
	for id, flag := range s.overlay {
		out[id] = flag
	}
	return out
}

// resolveFlagLocked ищет текущее известное состояние флага: сначала
// оптимистичный слой, затем живая выдача, затем кешированные избранное и
// карточка. Неизвестный объект считается не избранным.
func (s *Session) resolveFlagLocked(listingID uuid.UUID) bool {
	if flag, ok := s.overlay[listingID]; ok {
		return flag
	}
	for i := range s.search.Results {
		if s.search.Results[i].ID == listingID {
			return s.search.Results[i].IsFavorite
		}
	}
	if raw, ok := s.cache.Get(domain.CacheKeyFavorites); ok {
		if favorites, ok := raw.([]domain.PropertyListing); ok {
			for i := range favorites {
				if favorites[i].ID == listingID {
					return true
				}
			}
			return false
		}
	}
	if raw, ok := s.cache.Get(domain.ListingCacheKey(listingID.String())); ok {
		if listing, ok := raw.(domain.PropertyListing); ok {
			return listing.IsFavorite
		}
	}
	return false
}

func (s *Session) captureSnapshotLocked(listingID uuid.UUID, current bool) FavoriteSnapshot {
	snap := FavoriteSnapshot{flag: current}
	if old, ok := s.overlay[listingID]; ok {
		snap.overlaySet = true
		snap.overlayOld = old
	}
	if raw, ok := s.cache.Get(domain.CacheKeyFavorites); ok {
		if favorites, ok := raw.([]domain.PropertyListing); ok {
			snap.favListCached = true
			snap.favList = make([]domain.PropertyListing, len(favorites))
			copy(snap.favList, favorites)
		}
	}
	if raw, ok := s.cache.Get(domain.ListingCacheKey(listingID.String())); ok {
		if listing, ok := raw.(domain.PropertyListing); ok {
			snap.listingCached = true
			snap.listing = listing
		}
	}
	return snap
}

// applyFlagLocked разносит новое значение флага по живой выдаче и
// кешированным копиям объекта. В кешированное избранное карточка
// дописывается только если она известна локально, иначе список доедет
// до истины после инвалидации на коммите.
func (s *Session) applyFlagLocked(listingID uuid.UUID, target bool) {
	var known *domain.PropertyListing

	for i := range s.search.Results {
		if s.search.Results[i].ID == listingID {
			s.search.Results[i].IsFavorite = target
			card := s.search.Results[i]
			known = &card
		}
	}

	listingKey := domain.ListingCacheKey(listingID.String())
	if raw, ok := s.cache.Get(listingKey); ok {
		if listing, ok := raw.(domain.PropertyListing); ok {
			listing.IsFavorite = target
			s.cache.Set(listingKey, listing, 0)
			if known == nil {
				known = &listing
			}
		}
	}

	raw, ok := s.cache.Get(domain.CacheKeyFavorites)
	if !ok {
		return
	}
	favorites, ok := raw.([]domain.PropertyListing)
	if !ok {
		return
	}

	updated := make([]domain.PropertyListing, 0, len(favorites)+1)
	found := false
	for i := range favorites {
		if favorites[i].ID == listingID {
			found = true
			if !target {
				continue
			}
			card := favorites[i]
			card.IsFavorite = true
			updated = append(updated, card)
			continue
		}
		updated = append(updated, favorites[i])
	}
	if target && !found && known != nil {
		card := *known
		card.IsFavorite = true
		updated = append(updated, card)
	}
	s.cache.Set(domain.CacheKeyFavorites, updated, 0)
}
