package usecase

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
	"github.com/lemonchikHere/donminiapp/internal/core/validation"
)

type ValidateFormUseCase struct {
	sessions *session.Manager
}

func NewValidateFormUseCase(sessions *session.Manager) *ValidateFormUseCase {
	return &ValidateFormUseCase{sessions: sessions}
}

// Execute перевалидирует одно поле (blur в UI) либо, при пустом field,
// форму целиком. Результат оседает в состоянии формы и возвращается
// вызывающему. Кросс-полевые правила видят актуальные значения соседей.
func (uc *ValidateFormUseCase) Execute(ctx context.Context, userID, formID, field string) (map[string]string, error) {
	if !domain.KnownForm(formID) {
		return nil, domain.ErrNotFound
	}

	s := uc.sessions.Session(userID)
	values := s.FormValues(formID)

	if field == "" {
		errs := validation.ValidateAll(formID, values)
		s.ReplaceErrors(formID, errs)
		return errs, nil
	}

	msg := validation.ValidateField(formID, field, values[field], values)
	s.ApplyFieldError(formID, field, msg)
	if msg == "" {
		return map[string]string{}, nil
	}
	return map[string]string{field: msg}, nil
}
