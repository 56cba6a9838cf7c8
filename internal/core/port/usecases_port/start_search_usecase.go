package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type StartSearchUseCasePort interface {
	// Валидирует форму поиска, собирает запрос и загружает первую
	// страницу, минуя кеш.
	Execute(ctx context.Context, userID string) (domain.SearchState, error)
}
