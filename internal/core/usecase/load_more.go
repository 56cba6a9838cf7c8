package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type LoadMoreUseCase struct {
	sessions *session.Manager
	backend  port.BackendAPIPort
}

func NewLoadMoreUseCase(sessions *session.Manager, backend port.BackendAPIPort) *LoadMoreUseCase {
	return &LoadMoreUseCase{sessions: sessions, backend: backend}
}

// Execute подгружает следующую страницу активного поиска. Сначала кеш:
// живая страница подклеивается без сети. Повторный вызов при запросе в
// полете и вызов на полной выдаче - no-op с текущим состоянием.
func (uc *LoadMoreUseCase) Execute(ctx context.Context, userID string) (domain.SearchState, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "LoadMore",
		"user_id":  userID,
	})

	s := uc.sessions.Session(userID)

	query, gen, offset, proceed, err := s.TryBeginLoadMore()
	if err != nil {
		logger.Warn("Load more without active search", nil)
		return domain.SearchState{}, err
	}
	if !proceed {
		logger.Debug("Load more is a no-op", nil)
		return s.SearchState(), nil
	}

	// 1. Кеш-путь: страница этого запроса и смещения еще жива.
	key := domain.PageCacheKey(query, offset)
	if raw, ok := s.Cache().Get(key); ok {
		if page, ok := raw.(domain.ResultPage); ok {
			state, _ := s.FinishLoadMore(gen, page.Items, page.Total)
			logger.Info("Page served from cache", port.Fields{"offset": offset})
			return state, nil
		}
	}

	// 2. Сеть. При ошибке накопленная выдача не меняется, флаг полета
	// снимается, и следующая попытка разрешена.
	items, total, err := uc.backend.SearchProperties(ctx, userID, query, offset, searchPageSize)
	if err != nil {
		s.AbortLoadMore(gen)
		logger.Error("Load more request failed", err, port.Fields{"offset": offset})
		return s.SearchState(), fmt.Errorf("load more: %w", err)
	}

	page := domain.ResultPage{
		QueryKey:  query.CanonicalKey(),
		Offset:    offset,
		Items:     items,
		Total:     total,
		FetchedAt: time.Now(),
	}
	s.Cache().Set(key, page, 0)

	state, applied := s.FinishLoadMore(gen, items, total)
	if !applied {
		logger.Info("Load more response superseded, cached only", port.Fields{"offset": offset})
	} else {
		logger.Info("Page appended", port.Fields{"offset": offset, "added": len(items), "total": total})
	}
	return state, nil
}
