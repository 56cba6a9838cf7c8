package port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

// NotifierPort - контракт для доставки событий движка в реальном времени.
// Через него юзкейсы сообщают UI об исходе фоновых операций: фиксации и
// откате избранного, прогрессе отправки заявки, служебных уведомлениях.
type NotifierPort interface {
	// Notify отправляет событие всем активным подключениям пользователя
	// из event.UserID. Вызов не блокирует юзкейс.
	Notify(ctx context.Context, event domain.Event)

	// CloseUser принудительно закрывает все подключения пользователя.
	// Используется при сносе сессии.
	CloseUser(userID string)
}
