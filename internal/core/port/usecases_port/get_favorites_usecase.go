package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type GetFavoritesUseCasePort interface {
	Execute(ctx context.Context, userID string) ([]domain.PropertyListing, error)
}
