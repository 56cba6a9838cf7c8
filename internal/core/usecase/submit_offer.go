package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
	"github.com/lemonchikHere/donminiapp/internal/core/validation"
)

type SubmitOfferUseCase struct {
	sessions *session.Manager
	backend  port.BackendAPIPort
	assets   port.AssetStorePort
	notifier port.NotifierPort
}

func NewSubmitOfferUseCase(sessions *session.Manager, backend port.BackendAPIPort, assets port.AssetStorePort, notifier port.NotifierPort) *SubmitOfferUseCase {
	return &SubmitOfferUseCase{
		sessions: sessions,
		backend:  backend,
		assets:   assets,
		notifier: notifier,
	}
}

// Execute отправляет заявку "предложить недвижимость" одним multipart-
// запросом вместе со всеми файлами. Прогресс отправки уходит подписчикам
// SSE-событиями. Успех очищает форму, staging и черновик; любая ошибка
// оставляет все как было, и пользователь просто жмет "Отправить" еще раз.
func (uc *SubmitOfferUseCase) Execute(ctx context.Context, userID string) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "SubmitOffer",
		"user_id":  userID,
	})

	s := uc.sessions.Session(userID)

	// 1. Валидация всей формы.
	values := s.FormValues(domain.FormOffer)
	errs := validation.ValidateAll(domain.FormOffer, values)
	s.ReplaceErrors(domain.FormOffer, errs)
	if len(errs) > 0 {
		logger.Info("Offer form failed validation", port.Fields{"error_fields": len(errs)})
		return domain.NewValidationError(errs)
	}

	// 2. Сборка заявки из значений формы и staging-активов.
	set := s.Uploads()
	offer := buildOffer(values, set)
	logger.Info("Submitting offer", port.Fields{
		"photos":    len(offer.Photos),
		"has_video": offer.Video != nil,
	})

	// 3. Отправка с прогрессом. Проценты монотонны, дубли глушатся.
	progressCtx := context.WithoutCancel(ctx)
	lastPercent := -1
	onProgress := func(sent, total int64) {
		if total <= 0 {
			return
		}
		percent := int(sent * 100 / total)
		if percent <= lastPercent {
			return
		}
		lastPercent = percent
		uc.notifier.Notify(progressCtx, domain.Event{
			Type:   domain.EventUploadProgress,
			UserID: userID,
			Payload: domain.UploadProgress{
				Percent:    percent,
				SentBytes:  sent,
				TotalBytes: total,
			},
		})
	}

	if err := uc.backend.SubmitOffer(ctx, userID, offer, onProgress); err != nil {
		logger.Error("Offer submission failed", err, nil)
		return fmt.Errorf("submit offer: %w", err)
	}

	// 4. Успех: форма, файлы и черновик очищаются.
	if err := s.ResetForm(domain.FormOffer); err != nil {
		logger.Warn("Failed to drop offer draft", port.Fields{"error": err.Error()})
	}
	for _, a := range s.ClearUploads() {
		if err := uc.assets.Remove(a.StagePath); err != nil {
			logger.Warn("Failed to remove staged file", port.Fields{"path": a.StagePath, "error": err.Error()})
		}
	}

	logger.Info("Offer submitted", nil)
	uc.notifier.Notify(progressCtx, domain.NewNotice(userID, domain.NoticeSuccess, "Заявка отправлена"))
	return nil
}

// buildOffer собирает типизированную заявку. Значения уже провалидированы,
// поэтому непарсящиеся необязательные числа просто опускаются.
func buildOffer(values map[string]string, set domain.UploadSet) domain.OfferSubmission {
	offer := domain.OfferSubmission{
		TransactionKind: values[domain.FieldTransactionKind],
		PropertyType:    strings.TrimSpace(values[domain.FieldPropertyType]),
		Address:         strings.TrimSpace(values[domain.FieldAddress]),
		Name:            strings.TrimSpace(values[domain.FieldName]),
		Phone:           validation.NormalizePhone(values[domain.FieldPhone]),
		Floors:          strings.TrimSpace(values[domain.FieldFloors]),
		Description:     strings.TrimSpace(values[domain.FieldDescription]),
		Photos:          set.Photos,
		Video:           set.Video,
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(values[domain.FieldArea]), 64); err == nil {
		offer.Area = &v
	}
	if n, err := strconv.Atoi(values[domain.FieldRooms]); err == nil {
		offer.Rooms = &n
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(values[domain.FieldPrice]), 64); err == nil {
		offer.Price = &v
	}
	return offer
}
