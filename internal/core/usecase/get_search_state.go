package usecase

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type GetSearchStateUseCase struct {
	sessions *session.Manager
}

func NewGetSearchStateUseCase(sessions *session.Manager) *GetSearchStateUseCase {
	return &GetSearchStateUseCase{sessions: sessions}
}

func (uc *GetSearchStateUseCase) Execute(ctx context.Context, userID string) (domain.SearchState, error) {
	return uc.sessions.Session(userID).SearchState(), nil
}
