package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type GetUploadAssetsUseCasePort interface {
	Execute(ctx context.Context, userID string) (domain.UploadSet, error)
}
