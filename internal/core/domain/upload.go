package domain

import (
	"io"

	"github.com/google/uuid"
)

// Виды загружаемых активов.
const (
	AssetPhoto = "photo"
	AssetVideo = "video"
)

// Лимиты формы подачи объявления.
const (
	MaxPhotoCount     = 10
	MaxPhotoSizeBytes = 5 << 20
	MaxVideoSizeBytes = 50 << 20
)

// Допустимые MIME-типы по видам активов.
var (
	PhotoMimeTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
		"image/webp": {},
	}
	VideoMimeTypes = map[string]struct{}{
		"video/mp4":       {},
		"video/quicktime": {},
	}
)

// UploadAsset - провалидированный файл, ожидающий отправки вместе с заявкой.
// StagePath указывает на временный файл в локальном staging-хранилище.
type UploadAsset struct {
	ID        uuid.UUID
	Kind      string
	FileName  string
	SizeBytes int64
	MimeType  string
	StagePath string
}

// IncomingFile - файл из multipart-запроса до валидации и staging.
// SizeBytes и MimeType берутся из заголовков части, Content читается
// только после того, как вся пачка прошла проверку.
type IncomingFile struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Content   io.Reader
}

// UploadSet - текущий набор активов сессии: до MaxPhotoCount фото
// и не более одного видео.
type UploadSet struct {
	Photos []UploadAsset
	Video  *UploadAsset
}
