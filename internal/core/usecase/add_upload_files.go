package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type AddUploadFilesUseCase struct {
	sessions *session.Manager
	assets   port.AssetStorePort
}

func NewAddUploadFilesUseCase(sessions *session.Manager, assets port.AssetStorePort) *AddUploadFilesUseCase {
	return &AddUploadFilesUseCase{sessions: sessions, assets: assets}
}

// Execute принимает пачку файлов одного вида. Проверка атомарна: один
// негодный файл отклоняет пачку целиком, и в staging не попадает ничего.
// Новое видео вытесняет предыдущее из единственного слота.
func (uc *AddUploadFilesUseCase) Execute(ctx context.Context, userID, kind string, files []domain.IncomingFile) (domain.UploadSet, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "AddUploadFiles",
		"user_id":  userID,
		"kind":     kind,
		"count":    len(files),
	})

	s := uc.sessions.Session(userID)

	if len(files) == 0 {
		return s.Uploads(), fmt.Errorf("%w: пустая пачка файлов", domain.ErrAssetRejected)
	}

	// 1. Проверка всей пачки по заявленным свойствам, до чтения содержимого.
	if err := uc.checkBatch(s, kind, files); err != nil {
		logger.Warn("Batch rejected", port.Fields{"error": err.Error()})
		return s.Uploads(), err
	}

	// 2. Staging. Ошибка на любом файле убирает уже записанные.
	staged := make([]domain.UploadAsset, 0, len(files))
	for _, f := range files {
		path, size, err := uc.assets.Stage(userID, f.Content)
		if err != nil {
			uc.removeStaged(logger, staged)
			logger.Error("Staging failed", err, port.Fields{"file": f.FileName})
			return s.Uploads(), fmt.Errorf("stage %q: %w", f.FileName, err)
		}
		staged = append(staged, domain.UploadAsset{
			ID:        uuid.New(),
			Kind:      kind,
			FileName:  f.FileName,
			SizeBytes: size,
			MimeType:  f.MimeType,
			StagePath: path,
		})
	}

	// 3. Присоединение к сессии. Лимит фото перепроверяется под замком.
	switch kind {
	case domain.AssetPhoto:
		set, err := s.AddPhotos(staged)
		if err != nil {
			uc.removeStaged(logger, staged)
			return set, fmt.Errorf("%w: лимит %d фото исчерпан", domain.ErrAssetRejected, domain.MaxPhotoCount)
		}
		logger.Info("Photos staged", port.Fields{"total": len(set.Photos)})
		return set, nil
	default:
		set, replaced := s.SetVideo(staged[0])
		if replaced != nil {
			uc.removeStaged(logger, []domain.UploadAsset{*replaced})
		}
		logger.Info("Video staged", port.Fields{"replaced": replaced != nil})
		return set, nil
	}
}

// checkBatch валидирует пачку по виду, количеству, размеру и MIME-типу.
func (uc *AddUploadFilesUseCase) checkBatch(s *session.Session, kind string, files []domain.IncomingFile) error {
	switch kind {
	case domain.AssetPhoto:
		if s.PhotoCount()+len(files) > domain.MaxPhotoCount {
			return fmt.Errorf("%w: можно прикрепить не более %d фото", domain.ErrAssetRejected, domain.MaxPhotoCount)
		}
		for _, f := range files {
			if _, ok := domain.PhotoMimeTypes[f.MimeType]; !ok {
				return fmt.Errorf("%w: %q - неподдерживаемый тип фото", domain.ErrAssetRejected, f.FileName)
			}
			if f.SizeBytes > domain.MaxPhotoSizeBytes {
				return fmt.Errorf("%w: фото %q больше %d МБ", domain.ErrAssetRejected, f.FileName, domain.MaxPhotoSizeBytes>>20)
			}
		}
		return nil
	case domain.AssetVideo:
		if len(files) != 1 {
			return fmt.Errorf("%w: видео может быть только одно", domain.ErrAssetRejected)
		}
		f := files[0]
		if _, ok := domain.VideoMimeTypes[f.MimeType]; !ok {
			return fmt.Errorf("%w: %q - неподдерживаемый тип видео", domain.ErrAssetRejected, f.FileName)
		}
		if f.SizeBytes > domain.MaxVideoSizeBytes {
			return fmt.Errorf("%w: видео %q больше %d МБ", domain.ErrAssetRejected, f.FileName, domain.MaxVideoSizeBytes>>20)
		}
		return nil
	default:
		return domain.ErrNotFound
	}
}

func (uc *AddUploadFilesUseCase) removeStaged(logger port.LoggerPort, staged []domain.UploadAsset) {
	for _, a := range staged {
		if err := uc.assets.Remove(a.StagePath); err != nil {
			logger.Warn("Failed to remove staged file", port.Fields{"path": a.StagePath, "error": err.Error()})
		}
	}
}
