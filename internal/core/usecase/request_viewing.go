package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
	"github.com/lemonchikHere/donminiapp/internal/core/validation"
)

type RequestViewingUseCase struct {
	sessions *session.Manager
	backend  port.BackendAPIPort
}

func NewRequestViewingUseCase(sessions *session.Manager, backend port.BackendAPIPort) *RequestViewingUseCase {
	return &RequestViewingUseCase{sessions: sessions, backend: backend}
}

// Execute записывает пользователя на просмотр по данным формы
// viewing_form. Успех очищает форму, ошибка оставляет ее нетронутой.
func (uc *RequestViewingUseCase) Execute(ctx context.Context, userID string) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "RequestViewing",
		"user_id":  userID,
	})

	s := uc.sessions.Session(userID)

	values := s.FormValues(domain.FormViewing)
	errs := validation.ValidateAll(domain.FormViewing, values)
	s.ReplaceErrors(domain.FormViewing, errs)
	if len(errs) > 0 {
		logger.Info("Viewing form failed validation", port.Fields{"error_fields": len(errs)})
		return domain.NewValidationError(errs)
	}

	// Поля уже провалидированы, разбор не может не удаться.
	listingID, err := uuid.Parse(strings.TrimSpace(values[domain.FieldListingID]))
	if err != nil {
		return fmt.Errorf("parse listing id: %w", err)
	}
	requestedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(values[domain.FieldRequestedAt]))
	if err != nil {
		return fmt.Errorf("parse requested_at: %w", err)
	}

	req := domain.ViewingRequest{
		ListingID:   listingID,
		RequestedAt: requestedAt,
		Name:        strings.TrimSpace(values[domain.FieldName]),
		Phone:       validation.NormalizePhone(values[domain.FieldPhone]),
		Notes:       strings.TrimSpace(values[domain.FieldNotes]),
	}
	if err := uc.backend.CreateViewing(ctx, userID, req); err != nil {
		logger.Error("Failed to create viewing", err, nil)
		return fmt.Errorf("request viewing: %w", err)
	}

	if err := s.ResetForm(domain.FormViewing); err != nil {
		logger.Warn("Failed to drop viewing draft", port.Fields{"error": err.Error()})
	}
	logger.Info("Viewing requested", port.Fields{"listing_id": listingID.String()})
	return nil
}
