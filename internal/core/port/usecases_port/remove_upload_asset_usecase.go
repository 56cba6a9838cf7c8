package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type RemoveUploadAssetUseCasePort interface {
	// Для фото index - позиция в списке, для видео index игнорируется.
	Execute(ctx context.Context, userID, kind string, index int) (domain.UploadSet, error)
}
