package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type GetMapClustersUseCasePort interface {
	// Возвращает объекты для карты, сгруппированные по ячейкам
	// геохеша заданной точности.
	Execute(ctx context.Context, precision uint) ([]domain.MapCluster, error)
}
