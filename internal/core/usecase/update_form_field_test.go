package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

func TestUpdateFormField_UnknownFormRejected(t *testing.T) {
	env := newTestEnv()

	_, err := NewUpdateFormFieldUseCase(env.sessions).Execute(context.Background(), testUserID, "ghost_form", "field", "value")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateFormField_StoresValueClearsErrorPersistsDraft(t *testing.T) {
	env := newTestEnv()
	env.sessions.Session(testUserID).ReplaceErrors(domain.FormSearch, map[string]string{
		domain.FieldPhone: "Введите номер телефона",
	})

	state, err := NewUpdateFormFieldUseCase(env.sessions).Execute(
		context.Background(), testUserID, domain.FormSearch, domain.FieldPhone, "+380501234567")
	require.NoError(t, err)

	assert.Equal(t, "+380501234567", state.Values[domain.FieldPhone])
	assert.NotContains(t, state.Errors, domain.FieldPhone, "edited field sheds its stale error")

	saved, ok := env.drafts.Load(testUserID, domain.FormSearch)
	require.True(t, ok, "every keystroke lands in the draft")
	assert.Equal(t, "+380501234567", saved[domain.FieldPhone])
}
