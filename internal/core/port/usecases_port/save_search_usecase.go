package usecases_port

import "context"

type SaveSearchUseCasePort interface {
	// Сохраняет текущие параметры поиска на бэкенде для уведомлений
	// о новых подходящих объектах.
	Execute(ctx context.Context, userID string) error
}
