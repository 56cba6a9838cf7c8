package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type AddUploadFilesUseCasePort interface {
	// Проверяет пачку файлов целиком и при успехе складывает их в
	// staging. Любой негодный файл отклоняет всю пачку.
	Execute(ctx context.Context, userID, kind string, files []domain.IncomingFile) (domain.UploadSet, error)
}
