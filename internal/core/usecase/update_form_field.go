package usecase

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type UpdateFormFieldUseCase struct {
	sessions *session.Manager
}

func NewUpdateFormFieldUseCase(sessions *session.Manager) *UpdateFormFieldUseCase {
	return &UpdateFormFieldUseCase{sessions: sessions}
}

// Execute сохраняет значение поля. Ошибка валидации с поля снимается
// сразу - заново она появится только после повторной проверки. Неудача
// записи черновика значение не откатывает, черновик догонит на
// следующем изменении.
func (uc *UpdateFormFieldUseCase) Execute(ctx context.Context, userID, formID, field, value string) (domain.FormState, error) {
	if !domain.KnownForm(formID) {
		return domain.FormState{}, domain.ErrNotFound
	}

	s := uc.sessions.Session(userID)
	state, err := s.SetField(formID, field, value)
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Warn("Draft save failed", port.Fields{
			"use_case": "UpdateFormField",
			"user_id":  userID,
			"form_id":  formID,
			"error":    err.Error(),
		})
	}
	return state, nil
}
