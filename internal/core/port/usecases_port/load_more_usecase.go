package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type LoadMoreUseCasePort interface {
	// Подгружает следующую страницу активного поиска, сначала
	// заглядывая в сессионный кеш.
	Execute(ctx context.Context, userID string) (domain.SearchState, error)
}
