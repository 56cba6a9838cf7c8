package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

func seedViewingForm(t *testing.T, env *testEnv, listingID uuid.UUID, requestedAt string) {
	t.Helper()
	env.setFields(t, domain.FormViewing, map[string]string{
		domain.FieldListingID:   listingID.String(),
		domain.FieldRequestedAt: requestedAt,
		domain.FieldName:        "Игорь",
		domain.FieldPhone:       "+380 (50) 123-45-67",
		domain.FieldNotes:       "после 18:00",
	})
}

func TestRequestViewing_Success(t *testing.T) {
	env := newTestEnv()
	listingID := uuid.New()
	seedViewingForm(t, env, listingID, "2100-01-02T15:00:00Z")

	require.NoError(t, NewRequestViewingUseCase(env.sessions, env.backend).Execute(context.Background(), testUserID))

	env.backend.mu.Lock()
	require.Len(t, env.backend.viewings, 1)
	req := env.backend.viewings[0]
	env.backend.mu.Unlock()

	assert.Equal(t, listingID, req.ListingID)
	assert.Equal(t, time.Date(2100, 1, 2, 15, 0, 0, 0, time.UTC), req.RequestedAt)
	assert.Equal(t, "Игорь", req.Name)
	assert.Equal(t, "+380501234567", req.Phone)
	assert.Equal(t, "после 18:00", req.Notes)

	// Успешная запись очищает форму вместе с черновиком.
	assert.Empty(t, env.sessions.Session(testUserID).Form(domain.FormViewing).Values)
	_, ok := env.drafts.Load(testUserID, domain.FormViewing)
	assert.False(t, ok)
}

func TestRequestViewing_PastDatetimeBlocked(t *testing.T) {
	env := newTestEnv()
	seedViewingForm(t, env, uuid.New(), "2001-01-02T15:00:00Z")

	err := NewRequestViewingUseCase(env.sessions, env.backend).Execute(context.Background(), testUserID)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, domain.FieldRequestedAt)

	env.backend.mu.Lock()
	assert.Empty(t, env.backend.viewings)
	env.backend.mu.Unlock()
}

func TestRequestViewing_BadListingIDBlocked(t *testing.T) {
	env := newTestEnv()
	env.setFields(t, domain.FormViewing, map[string]string{
		domain.FieldListingID:   "not-a-uuid",
		domain.FieldRequestedAt: "2100-01-02T15:00:00Z",
		domain.FieldName:        "Игорь",
		domain.FieldPhone:       "+380501234567",
	})

	err := NewRequestViewingUseCase(env.sessions, env.backend).Execute(context.Background(), testUserID)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, domain.FieldListingID)
}

func TestRequestViewing_TransportErrorKeepsForm(t *testing.T) {
	env := newTestEnv()
	seedViewingForm(t, env, uuid.New(), "2100-01-02T15:00:00Z")
	env.backend.viewingErr = fmt.Errorf("%w: status 500", domain.ErrTransport)

	err := NewRequestViewingUseCase(env.sessions, env.backend).Execute(context.Background(), testUserID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.NotEmpty(t, env.sessions.Session(testUserID).Form(domain.FormViewing).Values)
}
