package usecases_port

import "context"

type DropSessionUseCasePort interface {
	// Полный снос сессии при закрытии мини-аппа: кеш, staging-файлы,
	// формы, черновики, подписки.
	Execute(ctx context.Context, userID string) error
}
