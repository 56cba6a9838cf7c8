package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

func newToggleUseCase(env *testEnv) *ToggleFavoriteUseCase {
	return NewToggleFavoriteUseCase(env.sessions, env.backend, env.notifier, env.global)
}

func TestToggleFavorite_OptimisticThenSettled(t *testing.T) {
	env := newTestEnv()
	card := listingCard("2-к квартира на Университетской")
	env.startSearch(t, []domain.PropertyListing{card}, 1)
	env.global.Set(domain.CacheKeyMapListings, []domain.MapPoint{}, 0)

	target, err := newToggleUseCase(env).Execute(context.Background(), testUserID, card.ID)
	require.NoError(t, err)
	assert.True(t, target, "unknown-as-unfavorited card toggles on")

	event := waitEvent(t, env.notifier, domain.EventFavoriteSettled)
	settlement, ok := event.Payload.(domain.FavoriteSettlement)
	require.True(t, ok)
	assert.Equal(t, card.ID, settlement.ListingID)
	assert.True(t, settlement.IsFavorite)

	s := env.sessions.Session(testUserID)
	assert.False(t, s.HasPendingMutation(card.ID), "lock released after settlement")
	assert.True(t, s.SearchState().Results[0].IsFavorite, "live results keep the committed flag")

	// Коммит сбрасывает списочные ключи и глобального, и сессионного кеша.
	assert.False(t, env.global.has(domain.CacheKeyMapListings))
	assert.False(t, env.sessionCache(testUserID).has(domain.PageCacheKey(env.backend.searchCalls()[0].query, 0)))

	env.backend.mu.Lock()
	assert.Equal(t, 1, env.backend.addCalls)
	assert.Equal(t, 0, env.backend.removeCalls)
	env.backend.mu.Unlock()
}

func TestToggleFavorite_SecondToggleFlipsBack(t *testing.T) {
	env := newTestEnv()
	card := listingCard("Дом в Будённовском районе")
	env.startSearch(t, []domain.PropertyListing{card}, 1)
	uc := newToggleUseCase(env)

	target, err := uc.Execute(context.Background(), testUserID, card.ID)
	require.NoError(t, err)
	require.True(t, target)
	waitEvent(t, env.notifier, domain.EventFavoriteSettled)

	target, err = uc.Execute(context.Background(), testUserID, card.ID)
	require.NoError(t, err)
	assert.False(t, target, "toggle of a favorited card turns it off")

	event := waitEvent(t, env.notifier, domain.EventFavoriteSettled)
	assert.False(t, event.Payload.(domain.FavoriteSettlement).IsFavorite)

	env.backend.mu.Lock()
	assert.Equal(t, 1, env.backend.addCalls)
	assert.Equal(t, 1, env.backend.removeCalls)
	env.backend.mu.Unlock()
}

func TestToggleFavorite_PendingMutationGuard(t *testing.T) {
	env := newTestEnv()
	card := listingCard("Офис в центре")
	env.startSearch(t, []domain.PropertyListing{card}, 1)
	gate := make(chan struct{})
	env.backend.favoriteGate = gate
	uc := newToggleUseCase(env)

	target, err := uc.Execute(context.Background(), testUserID, card.ID)
	require.NoError(t, err)
	require.True(t, target)

	// Пока первый запрос висит, повторный клик по тому же объекту отбивается.
	_, err = uc.Execute(context.Background(), testUserID, card.ID)
	assert.True(t, errors.Is(err, domain.ErrMutationPending))

	env.backend.mu.Lock()
	assert.Equal(t, 1, env.backend.addCalls, "rejected toggle must not reach the backend")
	env.backend.mu.Unlock()

	close(gate)
	waitEvent(t, env.notifier, domain.EventFavoriteSettled)

	// После развязки объект снова доступен для переключения.
	env.backend.mu.Lock()
	env.backend.favoriteGate = nil
	env.backend.mu.Unlock()
	target, err = uc.Execute(context.Background(), testUserID, card.ID)
	require.NoError(t, err)
	assert.False(t, target)
	waitEvent(t, env.notifier, domain.EventFavoriteSettled)
}

func TestToggleFavorite_RollbackOnBackendFailure(t *testing.T) {
	env := newTestEnv()
	card := listingCard("Квартира с видом на Кальмиус")
	env.startSearch(t, []domain.PropertyListing{card}, 1)
	env.global.Set(domain.CacheKeyMapListings, []domain.MapPoint{}, 0)
	env.backend.addFavoriteErr = fmt.Errorf("%w: status 500", domain.ErrTransport)

	target, err := newToggleUseCase(env).Execute(context.Background(), testUserID, card.ID)
	require.NoError(t, err, "optimistic phase succeeds even when the backend will fail")
	assert.True(t, target)

	event := waitEvent(t, env.notifier, domain.EventFavoriteRolledBack)
	settlement := event.Payload.(domain.FavoriteSettlement)
	assert.Equal(t, card.ID, settlement.ListingID)
	assert.False(t, settlement.IsFavorite, "rollback restores the pre-toggle flag")

	notice := waitEvent(t, env.notifier, domain.EventNotice)
	assert.Equal(t, domain.NoticeError, notice.Payload.(domain.Notice).Level)

	s := env.sessions.Session(testUserID)
	assert.False(t, s.HasPendingMutation(card.ID))
	assert.False(t, s.SearchState().Results[0].IsFavorite)
	assert.True(t, env.global.has(domain.CacheKeyMapListings), "failed mutation leaves shared cache intact")
}
