package usecase

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type GetFormUseCase struct {
	sessions *session.Manager
}

func NewGetFormUseCase(sessions *session.Manager) *GetFormUseCase {
	return &GetFormUseCase{sessions: sessions}
}

// Execute возвращает состояние формы. Первое обращение к форме поднимает
// черновик с диска, битый черновик молча превращается в пустую форму.
func (uc *GetFormUseCase) Execute(ctx context.Context, userID, formID string) (domain.FormState, error) {
	if !domain.KnownForm(formID) {
		return domain.FormState{}, domain.ErrNotFound
	}
	return uc.sessions.Session(userID).Form(formID), nil
}
