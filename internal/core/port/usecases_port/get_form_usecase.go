package usecases_port

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

type GetFormUseCasePort interface {
	Execute(ctx context.Context, userID, formID string) (domain.FormState, error)
}
