package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
	"github.com/lemonchikHere/donminiapp/internal/core/validation"
)

// Размер страницы выдачи, им же шагает подгрузка.
const searchPageSize = 10

type StartSearchUseCase struct {
	sessions *session.Manager
	backend  port.BackendAPIPort
}

func NewStartSearchUseCase(sessions *session.Manager, backend port.BackendAPIPort) *StartSearchUseCase {
	return &StartSearchUseCase{sessions: sessions, backend: backend}
}

// Execute валидирует форму поиска и загружает первую страницу. Первая
// страница всегда идет в сеть мимо кеша: пользователь только что нажал
// "Найти" и ждет свежую выдачу. Ответ при этом кладется в кеш, чтобы
// подгрузка и повторные страницы работали из него.
func (uc *StartSearchUseCase) Execute(ctx context.Context, userID string) (domain.SearchState, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "StartSearch",
		"user_id":  userID,
	})

	s := uc.sessions.Session(userID)

	// 1. Валидация всей формы. Ошибки остаются в состоянии формы,
	// сетевой запрос при них не уходит.
	values := s.FormValues(domain.FormSearch)
	errs := validation.ValidateAll(domain.FormSearch, values)
	s.ReplaceErrors(domain.FormSearch, errs)
	if len(errs) > 0 {
		logger.Info("Search form failed validation", port.Fields{"error_fields": len(errs)})
		return domain.SearchState{}, domain.NewValidationError(errs)
	}

	// 2. Снимок критериев и новое поколение поиска.
	query := buildSearchQuery(values)
	gen := s.BeginSearch(query)
	logger.Info("Search started", port.Fields{"query_key": query.CanonicalKey(), "generation": gen})

	// 3. Сетевой вызов уже без замка сессии.
	items, total, err := uc.backend.SearchProperties(ctx, userID, query, 0, searchPageSize)
	if err != nil {
		s.AbortSearch(gen)
		logger.Error("Search request failed", err, nil)
		return domain.SearchState{}, fmt.Errorf("start search: %w", err)
	}

	// 4. Страница попадает в кеш безусловно, даже если поиск уже
	// перебит следующим сабмитом.
	page := domain.ResultPage{
		QueryKey:  query.CanonicalKey(),
		Offset:    0,
		Items:     items,
		Total:     total,
		FetchedAt: time.Now(),
	}
	s.Cache().Set(domain.PageCacheKey(query, 0), page, 0)

	state, applied := s.FinishSearchPage(gen, items, total)
	if !applied {
		logger.Info("Search response superseded, cached only", port.Fields{"generation": gen})
	} else {
		logger.Info("Search finished", port.Fields{"results": len(items), "total": total})
	}
	return state, nil
}

// buildSearchQuery собирает типизированный запрос из провалидированных
// строковых значений формы. Непарсящиеся необязательные поля просто
// опускаются - валидация их уже отсеяла.
func buildSearchQuery(values map[string]string) domain.SearchQuery {
	q := domain.SearchQuery{
		TransactionKind: values[domain.FieldTransactionKind],
		District:        strings.TrimSpace(values[domain.FieldDistrict]),
		FreeText:        strings.TrimSpace(values[domain.FieldFreeText]),
	}
	for _, part := range strings.Split(values[domain.FieldPropertyTypes], ",") {
		if p := strings.TrimSpace(part); p != "" {
			q.PropertyTypes = append(q.PropertyTypes, p)
		}
	}
	if n, err := strconv.Atoi(values[domain.FieldRooms]); err == nil {
		q.Rooms = &n
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(values[domain.FieldBudgetMin]), 64); err == nil {
		q.BudgetMin = &v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(values[domain.FieldBudgetMax]), 64); err == nil {
		q.BudgetMax = &v
	}
	return q
}
