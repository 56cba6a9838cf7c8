package usecases_port

import (
	"context"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type GetListingUseCasePort interface {
	Execute(ctx context.Context, userID string, listingID uuid.UUID) (*domain.PropertyListing, error)
}
