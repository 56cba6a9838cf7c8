package domain

import "github.com/google/uuid"

// Типы событий, которые движок шлет подписчикам через SSE.
const (
	EventFavoriteSettled    = "favorite_settled"
	EventFavoriteRolledBack = "favorite_rolled_back"
	EventUploadProgress     = "upload_progress"
	EventNotice             = "notice"
)

// Уровни transient-уведомлений (самоисчезающих тостов).
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Event - одно событие для подписчиков конкретного пользователя.
type Event struct {
	Type    string `json:"type"`
	UserID  string `json:"-"`
	Payload any    `json:"payload"`
}

// FavoriteSettlement - исход мутации избранного после ответа бэкенда.
type FavoriteSettlement struct {
	ListingID  uuid.UUID `json:"listing_id"`
	IsFavorite bool      `json:"is_favorite"`
}

// UploadProgress - прогресс отправки заявки, проценты только растут.
type UploadProgress struct {
	Percent    int   `json:"percent"`
	SentBytes  int64 `json:"sent_bytes"`
	TotalBytes int64 `json:"total_bytes"`
}

// Notice - transient-уведомление для UI.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NewNotice собирает событие-уведомление для пользователя.
func NewNotice(userID, level, message string) Event {
	return Event{
		Type:   EventNotice,
		UserID: userID,
		Payload: Notice{
			Level:   level,
			Message: message,
		},
	}
}
