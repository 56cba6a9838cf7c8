package backend_api_client

import (
	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

// DTO для запроса поиска. Поля повторяют контракт бэкенда один в один.
type searchRequest struct {
	TransactionType string   `json:"transaction_type,omitempty"`
	PropertyTypes   []string `json:"property_types,omitempty"`
	Rooms           *int     `json:"rooms,omitempty"`
	District        string   `json:"district,omitempty"`
	BudgetMin       *float64 `json:"budget_min,omitempty"`
	BudgetMax       *float64 `json:"budget_max,omitempty"`
	QueryText       string   `json:"query_text"`
	Offset          int      `json:"offset"`
	Limit           int      `json:"limit"`
}

// DTO карточки объекта в ответах бэкенда.
// Должна в точности совпадать с PropertyResponse на той стороне.
type propertyResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	PriceUSD        *float64  `json:"price_usd"`
	Rooms           *int      `json:"rooms"`
	AreaSqm         *float64  `json:"area_sqm"`
	Address         string    `json:"address"`
	Description     string    `json:"description"`
	Photos          []string  `json:"photos"`
	SimilarityScore *float64  `json:"similarity_score"`
	TelegramLink    string    `json:"telegram_link"`
	IsFavorite      bool      `json:"is_favorite"`
}

type searchResponse struct {
	Results []propertyResponse `json:"results"`
	Total   int                `json:"total"`
}

type addFavoriteRequest struct {
	PropertyID uuid.UUID `json:"property_id"`
}

type mapPropertyResponse struct {
	ID        uuid.UUID `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	PriceUSD  *float64  `json:"price_usd"`
	Title     string    `json:"title"`
}

type saveSearchRequest struct {
	Criteria map[string]any `json:"criteria"`
}

type appointmentCreateRequest struct {
	PropertyID        uuid.UUID `json:"property_id"`
	RequestedDatetime string    `json:"requested_datetime"`
	UserPhone         string    `json:"user_phone"`
	UserName          string    `json:"user_name"`
	Notes             string    `json:"notes,omitempty"`
}

// toDomainListing маппит DTO ответа в доменную модель, изолируя ядро
// от деталей чужого API.
func toDomainListing(dto propertyResponse) domain.PropertyListing {
	return domain.PropertyListing{
		ID:              dto.ID,
		Title:           dto.Title,
		PriceUSD:        dto.PriceUSD,
		Rooms:           dto.Rooms,
		AreaSqm:         dto.AreaSqm,
		Address:         dto.Address,
		Description:     dto.Description,
		PhotoURLs:       dto.Photos,
		SourceLink:      dto.TelegramLink,
		SimilarityScore: dto.SimilarityScore,
		IsFavorite:      dto.IsFavorite,
	}
}

func toDomainListings(dtos []propertyResponse) []domain.PropertyListing {
	out := make([]domain.PropertyListing, len(dtos))
	for i, dto := range dtos {
		out[i] = toDomainListing(dto)
	}
	return out
}
