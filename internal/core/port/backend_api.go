package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

// BackendAPIPort - контракт для клиента, который общается с основным
// бэкендом недвижимости. userID - идентификатор Telegram-пользователя,
// он уходит в заголовке каждого запроса.
type BackendAPIPort interface {
	// SearchProperties выполняет семантический поиск. Возвращает страницу
	// результатов и общее количество совпадений.
	SearchProperties(ctx context.Context, userID string, query domain.SearchQuery, offset, limit int) ([]domain.PropertyListing, int, error)

	// GetFavorites возвращает полные карточки избранного пользователя.
	GetFavorites(ctx context.Context, userID string) ([]domain.PropertyListing, error)

	AddFavorite(ctx context.Context, userID string, listingID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID string, listingID uuid.UUID) error

	// GetListing возвращает карточку объекта вместе с флагом избранного.
	GetListing(ctx context.Context, userID string, listingID uuid.UUID) (*domain.PropertyListing, error)

	// GetMapPoints возвращает все объекты с координатами для карты.
	GetMapPoints(ctx context.Context) ([]domain.MapPoint, error)

	// SaveSearch сохраняет параметры поиска для последующих уведомлений.
	SaveSearch(ctx context.Context, userID string, query domain.SearchQuery) error

	// SubmitOffer отправляет заявку одним multipart-запросом вместе с
	// файлами. onProgress вызывается по мере записи тела запроса.
	SubmitOffer(ctx context.Context, userID string, offer domain.OfferSubmission, onProgress func(sentBytes, totalBytes int64)) error

	// CreateViewing записывает пользователя на просмотр объекта.
	CreateViewing(ctx context.Context, userID string, req domain.ViewingRequest) error
}
