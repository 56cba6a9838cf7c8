package rest

import (
	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

// --- Запросы ---

type UpdateFieldRequest struct {
	Value string `json:"value"`
}

// --- Ответы ---

type FormStateResponse struct {
	Values map[string]string `json:"values"`
	Errors map[string]string `json:"errors"`
}

func toFormStateResponse(form domain.FormState) FormStateResponse {
	return FormStateResponse{Values: form.Values, Errors: form.Errors}
}

// FieldValidationResponse - итог точечной проверки поля. Error == nil
// означает, что поле валидно.
type FieldValidationResponse struct {
	Error *string `json:"error"`
}

// ValidationErrorsResponse - ответ 422 с полной картой ошибок формы.
type ValidationErrorsResponse struct {
	Errors map[string]string `json:"errors"`
}

// ListingResponse повторяет поля объекта так, как их знает UI мини-аппа.
type ListingResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	PriceUSD        *float64  `json:"price_usd"`
	Rooms           *int      `json:"rooms"`
	AreaSqm         *float64  `json:"area_sqm"`
	Address         string    `json:"address"`
	Description     string    `json:"description"`
	Photos          []string  `json:"photos"`
	SourceLink      string    `json:"telegram_link,omitempty"`
	SimilarityScore *float64  `json:"similarity_score,omitempty"`
	IsFavorite      bool      `json:"is_favorite"`
}

func toListingResponse(l domain.PropertyListing) ListingResponse {
	return ListingResponse{
		ID:              l.ID,
		Title:           l.Title,
		PriceUSD:        l.PriceUSD,
		Rooms:           l.Rooms,
		AreaSqm:         l.AreaSqm,
		Address:         l.Address,
		Description:     l.Description,
		Photos:          l.PhotoURLs,
		SourceLink:      l.SourceLink,
		SimilarityScore: l.SimilarityScore,
		IsFavorite:      l.IsFavorite,
	}
}

func toListingResponses(items []domain.PropertyListing) []ListingResponse {
	out := make([]ListingResponse, len(items))
	for i, l := range items {
		out[i] = toListingResponse(l)
	}
	return out
}

type SearchStateResponse struct {
	Results  []ListingResponse `json:"results"`
	Total    int               `json:"total"`
	Offset   int               `json:"offset"`
	Complete bool              `json:"complete"`
	Active   bool              `json:"active"`
}

func toSearchStateResponse(state domain.SearchState) SearchStateResponse {
	return SearchStateResponse{
		Results:  toListingResponses(state.Results),
		Total:    state.Total,
		Offset:   state.Offset,
		Complete: state.Complete,
		Active:   state.Active,
	}
}

type ToggleFavoriteResponse struct {
	IsFavorite bool `json:"is_favorite"`
}

type ClusterResponse struct {
	Cell      string  `json:"cell"`
	Count     int     `json:"count"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AvgPrice  float64 `json:"avg_price_usd"`
}

func toClusterResponses(clusters []domain.MapCluster) []ClusterResponse {
	out := make([]ClusterResponse, len(clusters))
	for i, c := range clusters {
		out[i] = ClusterResponse{
			Cell:      c.Cell,
			Count:     c.Count,
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
			AvgPrice:  c.AvgPrice,
		}
	}
	return out
}

// UploadAssetResponse описывает один staging-файл. Путь к временному
// файлу наружу не отдается.
type UploadAssetResponse struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	MimeType  string    `json:"mime_type"`
}

type UploadSetResponse struct {
	Photos []UploadAssetResponse `json:"photos"`
	Video  *UploadAssetResponse  `json:"video"`
}

func toUploadAssetResponse(a domain.UploadAsset) UploadAssetResponse {
	return UploadAssetResponse{
		ID:        a.ID,
		Kind:      a.Kind,
		FileName:  a.FileName,
		SizeBytes: a.SizeBytes,
		MimeType:  a.MimeType,
	}
}

func toUploadSetResponse(set domain.UploadSet) UploadSetResponse {
	resp := UploadSetResponse{Photos: make([]UploadAssetResponse, len(set.Photos))}
	for i, a := range set.Photos {
		resp.Photos[i] = toUploadAssetResponse(a)
	}
	if set.Video != nil {
		v := toUploadAssetResponse(*set.Video)
		resp.Video = &v
	}
	return resp
}
