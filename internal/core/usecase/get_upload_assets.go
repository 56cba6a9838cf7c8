package usecase

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type GetUploadAssetsUseCase struct {
	sessions *session.Manager
}

func NewGetUploadAssetsUseCase(sessions *session.Manager) *GetUploadAssetsUseCase {
	return &GetUploadAssetsUseCase{sessions: sessions}
}

func (uc *GetUploadAssetsUseCase) Execute(ctx context.Context, userID string) (domain.UploadSet, error) {
	return uc.sessions.Session(userID).Uploads(), nil
}
