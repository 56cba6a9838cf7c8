package session

import (
	"context"
	"sync"
	"time"

	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

// Manager раздает сессии по идентификатору пользователя и прибирает
// заброшенные. Сессионный кеш каждому пользователю свой, поэтому менеджер
// получает фабрику кешей, а не готовый экземпляр.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	newCache func() port.CachePort
	drafts   port.DraftStorePort
	assets   port.AssetStorePort

	idleTTL       time.Duration
	sweepInterval time.Duration
	logger        port.LoggerPort
}

func NewManager(newCache func() port.CachePort, drafts port.DraftStorePort, assets port.AssetStorePort, idleTTL time.Duration, logger port.LoggerPort) *Manager {
	return &Manager{
		sessions:      make(map[string]*Session),
		newCache:      newCache,
		drafts:        drafts,
		assets:        assets,
		idleTTL:       idleTTL,
		sweepInterval: time.Minute,
		logger:        logger.WithFields(port.Fields{"component": "SessionManager"}),
	}
}

// Session возвращает сессию пользователя, создавая ее при первом обращении.
func (m *Manager) Session(userID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Перепроверка: сессию могли создать, пока мы брали write-замок.
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s = newSession(userID, m.newCache(), m.drafts)
	m.sessions[userID] = s
	m.logger.Debug("Session created", port.Fields{"user_id": userID})
	return s
}

// Drop сносит сессию вместе с staging-файлами. Черновики форм остаются.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	s.Teardown()
	if err := m.assets.PurgeUser(userID); err != nil {
		m.logger.Warn("Failed to purge staged assets", port.Fields{"user_id": userID, "error": err.Error()})
	}
	m.logger.Info("Session dropped", port.Fields{"user_id": userID})
}

// Count возвращает число живых сессий.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run крутит уборщик заброшенных сессий до отмены контекста.
func (m *Manager) Run(ctx context.Context) {
	m.logger.Info("Session janitor started", port.Fields{"idle_ttl": m.idleTTL.String()})
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Session janitor stopped", nil)
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep выкидывает сессии, к которым не обращались дольше idle TTL.
func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.RLock()
	var idle []string
	for userID, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			idle = append(idle, userID)
		}
	}
	m.mu.RUnlock()

	for _, userID := range idle {
		m.Drop(userID)
	}
	if len(idle) > 0 {
		m.logger.Info("Idle sessions swept", port.Fields{"count": len(idle)})
	}
}
