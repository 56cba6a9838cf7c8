package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

func TestLoadMore_AppendsNextPage(t *testing.T) {
	env := newTestEnv()
	env.startSearch(t, listingCards(10), 25)
	env.backend.mu.Lock()
	env.backend.pages[10] = listingCards(10)
	env.backend.mu.Unlock()
	uc := NewLoadMoreUseCase(env.sessions, env.backend)

	state, err := uc.Execute(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Len(t, state.Results, 20)
	assert.Equal(t, 20, state.Offset)
	assert.False(t, state.Complete)

	calls := env.backend.searchCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, 10, calls[1].offset, "next page starts where the previous ended")
	assert.Equal(t, searchPageSize, calls[1].limit)

	// Последняя страница закрывает выдачу.
	env.backend.mu.Lock()
	env.backend.pages[20] = listingCards(5)
	env.backend.mu.Unlock()

	state, err = uc.Execute(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Len(t, state.Results, 25)
	assert.Equal(t, 25, state.Offset)
	assert.True(t, state.Complete)
}

func TestLoadMore_ServedFromCache(t *testing.T) {
	env := newTestEnv()
	env.startSearch(t, listingCards(10), 25)
	query := env.backend.searchCalls()[0].query

	env.sessionCache(testUserID).Set(domain.PageCacheKey(query, 10), domain.ResultPage{
		QueryKey:  query.CanonicalKey(),
		Offset:    10,
		Items:     listingCards(10),
		Total:     25,
		FetchedAt: time.Now(),
	}, 0)

	state, err := NewLoadMoreUseCase(env.sessions, env.backend).Execute(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Len(t, state.Results, 20)
	assert.Len(t, env.backend.searchCalls(), 1, "live cached page must not hit the network")
}

func TestLoadMore_RequiresActiveSearch(t *testing.T) {
	env := newTestEnv()

	_, err := NewLoadMoreUseCase(env.sessions, env.backend).Execute(context.Background(), testUserID)

	assert.True(t, errors.Is(err, domain.ErrNoActiveSearch))
}

func TestLoadMore_CompleteResultIsNoOp(t *testing.T) {
	env := newTestEnv()
	env.startSearch(t, listingCards(3), 3)

	state, err := NewLoadMoreUseCase(env.sessions, env.backend).Execute(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Len(t, state.Results, 3)
	assert.True(t, state.Complete)
	assert.Len(t, env.backend.searchCalls(), 1, "complete result set needs no extra requests")
}

func TestLoadMore_BackendErrorKeepsResultsAndAllowsRetry(t *testing.T) {
	env := newTestEnv()
	env.startSearch(t, listingCards(10), 25)
	env.backend.mu.Lock()
	env.backend.searchErr = fmt.Errorf("%w: connection reset", domain.ErrTransport)
	env.backend.mu.Unlock()
	uc := NewLoadMoreUseCase(env.sessions, env.backend)

	_, err := uc.Execute(context.Background(), testUserID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))

	state := env.sessions.Session(testUserID).SearchState()
	assert.Len(t, state.Results, 10, "accumulated results survive a failed page")
	assert.Equal(t, 10, state.Offset)

	// Следующая попытка разрешена и догружает выдачу.
	env.backend.mu.Lock()
	env.backend.searchErr = nil
	env.backend.pages[10] = listingCards(10)
	env.backend.mu.Unlock()

	state, err = uc.Execute(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Len(t, state.Results, 20)
}
