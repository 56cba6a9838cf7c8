package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

// clientChannel - канал, через который события уходят одному конкретному
// подключению (одной открытой вкладке мини-аппа)
type clientChannel chan []byte

// структура для передачи в канал
type eventWithContext struct {
	ctx   context.Context
	event domain.Event
}

// SSENotifier - реализация NotifierPort поверх Server-Sent Events
type SSENotifier struct {
	// clients хранит активные подключения. Ключ - ID пользователя,
	// значение - срез каналов (пользователь может открыть несколько вкладок)
	clients map[string][]clientChannel
	// mu - мьютекс для защиты clients от одновременного доступа из разных горутин
	mu sync.RWMutex

	// eventChan - внутренний канал, в который Use Cases бросают события
	eventChan chan eventWithContext

	logger port.LoggerPort
}

var _ port.NotifierPort = (*SSENotifier)(nil)

// NewSSENotifier создает и запускает новый нотификатор
func NewSSENotifier(baseLogger port.LoggerPort) *SSENotifier {
	notifierLogger := baseLogger.WithFields(port.Fields{"component": "SSENotifier"})

	notifier := &SSENotifier{
		clients:   make(map[string][]clientChannel),
		eventChan: make(chan eventWithContext, 100), // Буферизованный канал
		logger:    notifierLogger,
	}

	// Горутина-диспетчер слушает события и рассылает их по подключениям
	go notifier.dispatcher()

	return notifier
}

// dispatcher - работает в фоне и никогда не завершается
func (n *SSENotifier) dispatcher() {
	n.logger.Debug("Notifier dispatcher started.", nil)
	for {
		// Блокируемся, пока не придет новое событие из Use Case
		eventPackage := <-n.eventChan

		ctx := eventPackage.ctx
		event := eventPackage.event

		// Логгер берем из контекста события: так рассылка остается
		// связанной с trace_id породившего ее запроса
		eventLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
			"component":  "SSENotifier.dispatcher",
			"event_type": event.Type,
			"user_id":    event.UserID,
		})

		eventBytes, err := json.Marshal(event.Payload)
		if err != nil {
			eventLogger.Error("Failed to marshal event payload", err, nil)
			continue
		}

		// Форматируем для SSE
		sseMessage := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, string(eventBytes)))

		// Блокируем clients для безопасного чтения
		n.mu.RLock()

		if clientChannels, found := n.clients[event.UserID]; found {
			eventLogger.Debug("Dispatching event to clients", port.Fields{"channels_count": len(clientChannels)})
			for _, ch := range clientChannels {
				// select с default, чтобы не заблокироваться,
				// если канал клиента переполнен
				select {
				case ch <- sseMessage:
				default:
					eventLogger.Warn("Client channel is full, skipping.", nil)
				}
			}
		} else {
			eventLogger.Debug("No active clients for user, event dropped.", nil)
		}

		n.mu.RUnlock()
	}
}

// Notify - реализация метода из NotifierPort.
// Use Cases вызывают его, он отправляет событие во внутренний канал
func (n *SSENotifier) Notify(ctx context.Context, event domain.Event) {
	n.eventChan <- eventWithContext{
		ctx:   ctx,
		event: event,
	}
}

// AddClient регистрирует новое SSE-соединение.
// Этот метод вызывается из HTTP-хендлера
func (n *SSENotifier) AddClient(userID string) clientChannel {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(clientChannel, 100) // Канал для одного клиента
	n.clients[userID] = append(n.clients[userID], ch)

	n.logger.Info("Client connected for user", port.Fields{
		"user_id":                    userID,
		"total_connections_for_user": len(n.clients[userID]),
	})

	return ch
}

// RemoveClient удаляет канал клиента при отключении.
// Вызывается из HTTP-хендлера, когда клиент закрывает соединение
func (n *SSENotifier) RemoveClient(userID string, ch clientChannel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	channels, found := n.clients[userID]
	if !found {
		return
	}

	newChannels := make([]clientChannel, 0)
	for _, c := range channels {
		// Сравниваем каналы, чтобы найти и удалить нужный
		if c != ch {
			newChannels = append(newChannels, c)
		}
	}

	if len(newChannels) == 0 {
		delete(n.clients, userID)
		n.logger.Debug("Last client disconnected for user. User removed.", port.Fields{"user_id": userID})
	} else {
		n.clients[userID] = newChannels
		n.logger.Info("Client disconnected for user.", port.Fields{
			"user_id":               userID,
			"remaining_connections": len(newChannels),
		})
	}
}

// CloseUser закрывает все подключения пользователя. Вызывается при сносе
// сессии, чтобы висящие SSE-хендлеры завершились, а не ждали клиента.
// Закрытие под write-lock не пересекается с отправками диспетчера:
// тот шлет под read-lock.
func (n *SSENotifier) CloseUser(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	channels, found := n.clients[userID]
	if !found {
		return
	}
	delete(n.clients, userID)

	for _, ch := range channels {
		close(ch)
	}
	n.logger.Info("All clients disconnected for user.", port.Fields{
		"user_id":            userID,
		"closed_connections": len(channels),
	})
}
