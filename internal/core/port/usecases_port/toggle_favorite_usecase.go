package usecases_port

import (
	"context"

	"github.com/google/uuid"
)

type ToggleFavoriteUseCasePort interface {
	// Оптимистично переключает избранное и возвращает новое (целевое)
	// состояние флага. Итог сетевого вызова приходит отдельным
	// SSE-событием.
	Execute(ctx context.Context, userID string, listingID uuid.UUID) (bool, error)
}
