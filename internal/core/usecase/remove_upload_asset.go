package usecase

import (
	"context"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

type RemoveUploadAssetUseCase struct {
	sessions *session.Manager
	assets   port.AssetStorePort
}

func NewRemoveUploadAssetUseCase(sessions *session.Manager, assets port.AssetStorePort) *RemoveUploadAssetUseCase {
	return &RemoveUploadAssetUseCase{sessions: sessions, assets: assets}
}

// Execute убирает один актив из сессии вместе с его staging-файлом.
func (uc *RemoveUploadAssetUseCase) Execute(ctx context.Context, userID, kind string, index int) (domain.UploadSet, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "RemoveUploadAsset",
		"user_id":  userID,
		"kind":     kind,
	})

	s := uc.sessions.Session(userID)

	var (
		removed domain.UploadAsset
		set     domain.UploadSet
		err     error
	)
	switch kind {
	case domain.AssetPhoto:
		removed, set, err = s.RemovePhoto(index)
	case domain.AssetVideo:
		var video *domain.UploadAsset
		video, set, err = s.RemoveVideo()
		if err == nil {
			removed = *video
		}
	default:
		return s.Uploads(), domain.ErrNotFound
	}
	if err != nil {
		logger.Warn("Asset to remove not found", port.Fields{"index": index})
		return set, err
	}

	if err := uc.assets.Remove(removed.StagePath); err != nil {
		logger.Warn("Failed to remove staged file", port.Fields{"path": removed.StagePath, "error": err.Error()})
	}
	logger.Info("Asset removed", port.Fields{"file": removed.FileName})
	return set, nil
}
