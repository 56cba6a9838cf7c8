package session

import (
	"strings"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

// BeginSearch открывает новый поисковый контекст: поколение растет, старые
// результаты сбрасываются, флаг fetching не пускает параллельные подгрузки
// до прихода первой страницы. Ответы предыдущего поколения после этого
// могут доехать только до кеша.
func (s *Session) BeginSearch(q domain.SearchQuery) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.generation++
	s.query = q
	s.fetching = true
	s.search = domain.SearchState{Active: true}
	return s.generation
}

// FinishSearchPage применяет ответ первой страницы. Если поколение уже
// сменилось, состояние не трогается и возвращается applied=false - страница
// к этому моменту лежит в кеше, и этого достаточно.
func (s *Session) FinishSearchPage(gen uint64, items []domain.PropertyListing, total int) (domain.SearchState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if gen != s.generation {
		return s.searchLocked(), false
	}

	s.fetching = false
	applied := s.overlayApplied(items)
	s.search.Results = applied
	s.search.Total = total
	s.search.Offset = len(applied)
	s.search.Complete = s.search.Offset >= total || len(applied) == 0
	return s.searchLocked(), true
}

// AbortSearch снимает флаг загрузки после неудачного запроса первой
// страницы. Поиск при этом считается несостоявшимся.
func (s *Session) AbortSearch(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	s.fetching = false
	s.search = domain.SearchState{}
}

// TryBeginLoadMore решает, нужна ли подгрузка следующей страницы.
// proceed=false без ошибки означает no-op: выдача полная либо запрос
// уже в полете.
func (s *Session) TryBeginLoadMore() (q domain.SearchQuery, gen uint64, offset int, proceed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if !s.search.Active {
		return domain.SearchQuery{}, 0, 0, false, domain.ErrNoActiveSearch
	}
	if s.search.Complete || s.fetching {
		return domain.SearchQuery{}, 0, 0, false, nil
	}
	s.fetching = true
	return s.query, s.generation, s.search.Offset, true, nil
}

// FinishLoadMore подклеивает следующую страницу к выдаче. Страница чужого
// поколения игнорируется, причем флаг fetching в этом случае принадлежит
// уже новому поиску и здесь не трогается.
func (s *Session) FinishLoadMore(gen uint64, items []domain.PropertyListing, total int) (domain.SearchState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if gen != s.generation {
		return s.searchLocked(), false
	}

	s.fetching = false
	applied := s.overlayApplied(items)
	s.search.Results = append(s.search.Results, applied...)
	s.search.Offset += len(applied)
	s.search.Total = total
	s.search.Complete = s.search.Offset >= total || len(applied) == 0
	return s.searchLocked(), true
}

// AbortLoadMore снимает флаг загрузки после ошибки сети. Накопленная
// выдача остается как была.
func (s *Session) AbortLoadMore(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	s.fetching = false
}

// SearchState возвращает копию текущего состояния выдачи.
func (s *Session) SearchState() domain.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.searchLocked()
}

// Query возвращает параметры активного поиска.
func (s *Session) Query() (domain.SearchQuery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.query, s.search.Active
}

// ResetSearch закрывает поисковый контекст и выкидывает его страницы из
// сессионного кеша. Запросы в полете после этого доезжают только до кеша.
func (s *Session) ResetSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.generation++
	s.fetching = false
	s.search = domain.SearchState{}
	s.query = domain.SearchQuery{}
	s.cache.InvalidateMatching(func(key string) bool {
		return strings.HasPrefix(key, domain.SearchKeyPrefix)
	})
}

func (s *Session) searchLocked() domain.SearchState {
	out := s.search
	out.Results = make([]domain.PropertyListing, len(s.search.Results))
	copy(out.Results, s.search.Results)
	return out
}

// overlayApplied накладывает оптимистичные флаги незавершенных переключений
// избранного на свежую страницу, чтобы подгрузка не "отщелкивала" сердечко,
// пока мутация еще в полете.
func (s *Session) overlayApplied(items []domain.PropertyListing) []domain.PropertyListing {
	out := make([]domain.PropertyListing, len(items))
	copy(out, items)
	for i := range out {
		if flag, ok := s.overlay[out[i].ID]; ok {
			out[i].IsFavorite = flag
		}
	}
	return out
}
