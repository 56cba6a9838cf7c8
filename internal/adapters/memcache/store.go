// Пакет memcache - in-memory TTL-кеш под port.CachePort. Каждая запись
// живет свой срок, просроченная выселяется при чтении. Для долгоживущих
// экземпляров есть Janitor, подчищающий просрочку в фоне.
package memcache

import (
	"context"
	"sync"
	"time"

	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Store - потокобезопасный кеш со временем жизни на запись.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration

	// nowFn подменяется в тестах.
	nowFn func() time.Time
}

var _ port.CachePort = (*Store)(nil)

func NewStore(defaultTTL time.Duration) *Store {
	return &Store{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		nowFn:      time.Now,
	}
}

// Get возвращает живое значение. Просроченная запись удаляется, и это
// промах.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(s.nowFn()) {
		s.mu.Lock()
		// Перепроверка: запись могли успеть перезаписать свежей.
		if cur, ok := s.entries[key]; ok && cur.expired(s.nowFn()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set кладет значение. ttl <= 0 означает TTL по умолчанию.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.nowFn().Add(ttl)}
}

func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *Store) InvalidateMatching(match func(string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if match(key) {
			delete(s.entries, key)
		}
	}
}

func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}

// Len возвращает число записей, включая еще не выселенную просрочку.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Janitor до отмены контекста периодически выкидывает просроченные записи.
// Нужен только долгоживущим экземплярам вроде глобального кеша.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := s.nowFn()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}
