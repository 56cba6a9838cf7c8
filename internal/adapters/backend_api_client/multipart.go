package backend_api_client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

// progressWriter считает байты файлов, уже ушедшие в тело запроса.
// total - суммарный размер файлов, служебные байты multipart не считаются.
type progressWriter struct {
	sent       int64
	total      int64
	onProgress func(sentBytes, totalBytes int64)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.sent += int64(len(p))
	if w.onProgress != nil {
		w.onProgress(w.sent, w.total)
	}
	return len(p), nil
}

// SubmitOffer реализует порт BackendAPIPort. Заявка уходит одним
// multipart-запросом: текстовые поля формы плюс файлы из staging.
// Тело стримится через pipe, файлы в память целиком не поднимаются.
func (c *BackendAPIClient) SubmitOffer(ctx context.Context, userID string, offer domain.OfferSubmission, onProgress func(sentBytes, totalBytes int64)) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "BackendAPIClient",
		"method":    "SubmitOffer",
		"photos":    len(offer.Photos),
	})

	var total int64
	for _, a := range offer.Photos {
		total += a.SizeBytes
	}
	if offer.Video != nil {
		total += offer.Video.SizeBytes
	}
	progress := &progressWriter{total: total, onProgress: onProgress}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeOfferBody(mw, offer, progress)
		if closeErr := mw.Close(); err == nil {
			err = closeErr
		}
		// Ошибка записи доедет до читающей стороны как ошибка тела запроса.
		pw.CloseWithError(err)
	}()

	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/offers/", userID, mw.FormDataContentType(), pr)
	if err != nil {
		logger.Error("Offer request failed", err, nil)
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		logger.Error("Offer returned non-OK status", err, port.Fields{"status_code": resp.StatusCode})
		return err
	}
	logger.Info("Offer accepted by backend", nil)
	return nil
}

// writeOfferBody пишет поля и файлы в multipart-поток. Имена полей -
// контракт бэкенда, camelCase в нем исторический.
func writeOfferBody(mw *multipart.Writer, offer domain.OfferSubmission, progress *progressWriter) error {
	fields := map[string]string{
		"transactionType": offer.TransactionKind,
		"propertyType":    offer.PropertyType,
		"address":         offer.Address,
		"name":            offer.Name,
		"phone":           offer.Phone,
		"floors":          offer.Floors,
		"description":     offer.Description,
	}
	if offer.Area != nil {
		fields["area"] = strconv.FormatFloat(*offer.Area, 'f', -1, 64)
	}
	if offer.Rooms != nil {
		fields["rooms"] = strconv.Itoa(*offer.Rooms)
	}
	if offer.Price != nil {
		fields["price"] = strconv.FormatFloat(*offer.Price, 'f', -1, 64)
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %q: %w", name, err)
		}
	}

	for _, a := range offer.Photos {
		if err := writeAsset(mw, "photos", a, progress); err != nil {
			return err
		}
	}
	if offer.Video != nil {
		if err := writeAsset(mw, "video", *offer.Video, progress); err != nil {
			return err
		}
	}
	return nil
}

func writeAsset(mw *multipart.Writer, field string, a domain.UploadAsset, progress *progressWriter) error {
	file, err := os.Open(a.StagePath)
	if err != nil {
		return fmt.Errorf("open staged file %q: %w", a.StagePath, err)
	}
	defer file.Close()

	part, err := mw.CreateFormFile(field, a.FileName)
	if err != nil {
		return fmt.Errorf("create form file %q: %w", a.FileName, err)
	}
	if _, err := io.Copy(io.MultiWriter(part, progress), file); err != nil {
		return fmt.Errorf("copy %q into request: %w", a.FileName, err)
	}
	return nil
}
