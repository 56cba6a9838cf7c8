package usecases_port

import "context"

type RequestViewingUseCasePort interface {
	// Записывает пользователя на просмотр по данным формы viewing_form.
	Execute(ctx context.Context, userID string) error
}
