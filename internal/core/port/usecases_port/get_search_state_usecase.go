package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type GetSearchStateUseCasePort interface {
	Execute(ctx context.Context, userID string) (domain.SearchState, error)
}
