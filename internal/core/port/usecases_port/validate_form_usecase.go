package usecases_port

import "context"

type ValidateFormUseCasePort interface {
	// Пустой field означает проверку всей формы. Возвращает карту
	// ошибок формы после проверки.
	Execute(ctx context.Context, userID, formID, field string) (map[string]string, error)
}
