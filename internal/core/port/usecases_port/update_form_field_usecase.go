package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type UpdateFormFieldUseCasePort interface {
	// Сохраняет значение поля, снимает с него ошибку и возвращает
	// актуальное состояние формы.
	Execute(ctx context.Context, userID, formID, field, value string) (domain.FormState, error)
}
