package backend_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

// BackendAPIClient - клиент основного бэкенда недвижимости.
// Все ошибки транспорта и не-2xx ответы заворачиваются в
// domain.ErrTransport, 404 карточки - в domain.ErrNotFound.
type BackendAPIClient struct {
	baseURL    string // например, "http://backend:8000"
	httpClient *http.Client
}

var _ port.BackendAPIPort = (*BackendAPIClient)(nil)

// NewBackendAPIClient - конструктор. Таймаут общий на запрос, с запасом
// на multipart-отправку файлов заявки.
func NewBackendAPIClient(baseURL string, timeout time.Duration) *BackendAPIClient {
	return &BackendAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// wireTransactionType переводит пользовательский вид сделки в словарь
// бэкенда: покупатель ищет объявления о продаже.
func wireTransactionType(kind string) string {
	if kind == domain.TransactionBuy {
		return "sell"
	}
	return kind
}

// doRequest - внутренний хелпер: заголовки идентификации и трассировки
// ставятся на каждый исходящий запрос.
func (c *BackendAPIClient) doRequest(ctx context.Context, method, url, userID, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	if userID != "" {
		req.Header.Set("X-Telegram-User-Id", userID)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return resp, nil
}

// checkStatus закрывает не-2xx ответ в ошибку с куском тела для логов.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return fmt.Errorf("%w: backend returned %d: %s", domain.ErrTransport, resp.StatusCode, string(bodyBytes))
}

// SearchProperties реализует порт BackendAPIPort.
func (c *BackendAPIClient) SearchProperties(ctx context.Context, userID string, query domain.SearchQuery, offset, limit int) ([]domain.PropertyListing, int, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "BackendAPIClient",
		"method":    "SearchProperties",
		"offset":    offset,
	})

	reqBody, err := json.Marshal(searchRequest{
		TransactionType: wireTransactionType(query.TransactionKind),
		PropertyTypes:   query.PropertyTypes,
		Rooms:           query.Rooms,
		District:        query.District,
		BudgetMin:       query.BudgetMin,
		BudgetMax:       query.BudgetMax,
		QueryText:       query.FreeText,
		Offset:          offset,
		Limit:           limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/search", userID, "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		logger.Error("Search request failed", err, nil)
		return nil, 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		logger.Error("Search returned non-OK status", err, port.Fields{"status_code": resp.StatusCode})
		return nil, 0, err
	}

	var apiResponse searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		logger.Error("Failed to decode search response", err, nil)
		return nil, 0, fmt.Errorf("%w: decode search response: %v", domain.ErrTransport, err)
	}

	logger.Info("Search response received", port.Fields{"results": len(apiResponse.Results), "total": apiResponse.Total})
	return toDomainListings(apiResponse.Results), apiResponse.Total, nil
}

// GetFavorites реализует порт BackendAPIPort.
func (c *BackendAPIClient) GetFavorites(ctx context.Context, userID string) ([]domain.PropertyListing, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/api/favorites/", userID, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var items []propertyResponse
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode favorites response: %v", domain.ErrTransport, err)
	}
	return toDomainListings(items), nil
}

// AddFavorite реализует порт BackendAPIPort.
func (c *BackendAPIClient) AddFavorite(ctx context.Context, userID string, listingID uuid.UUID) error {
	reqBody, err := json.Marshal(addFavoriteRequest{PropertyID: listingID})
	if err != nil {
		return fmt.Errorf("failed to marshal favorite request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/favorites/", userID, "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// RemoveFavorite реализует порт BackendAPIPort.
func (c *BackendAPIClient) RemoveFavorite(ctx context.Context, userID string, listingID uuid.UUID) error {
	url := c.baseURL + "/api/favorites/" + listingID.String()
	resp, err := c.doRequest(ctx, http.MethodDelete, url, userID, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// GetListing реализует порт BackendAPIPort.
func (c *BackendAPIClient) GetListing(ctx context.Context, userID string, listingID uuid.UUID) (*domain.PropertyListing, error) {
	url := c.baseURL + "/api/properties/" + listingID.String()
	resp, err := c.doRequest(ctx, http.MethodGet, url, userID, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var dto propertyResponse
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("%w: decode property response: %v", domain.ErrTransport, err)
	}
	listing := toDomainListing(dto)
	return &listing, nil
}

// GetMapPoints реализует порт BackendAPIPort. Запрос общий для всех
// пользователей, идентификация не нужна.
func (c *BackendAPIClient) GetMapPoints(ctx context.Context) ([]domain.MapPoint, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/api/map/properties", "", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var items []mapPropertyResponse
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode map response: %v", domain.ErrTransport, err)
	}

	points := make([]domain.MapPoint, len(items))
	for i, dto := range items {
		points[i] = domain.MapPoint{
			ID:        dto.ID,
			Latitude:  dto.Latitude,
			Longitude: dto.Longitude,
			PriceUSD:  dto.PriceUSD,
			Title:     dto.Title,
		}
	}
	return points, nil
}

// SaveSearch реализует порт BackendAPIPort. Бэкенд хранит критерии
// произвольным словарем, поэтому тут он собирается из запроса руками.
func (c *BackendAPIClient) SaveSearch(ctx context.Context, userID string, query domain.SearchQuery) error {
	criteria := map[string]any{
		"transaction_type": wireTransactionType(query.TransactionKind),
		"query_text":       query.FreeText,
	}
	if len(query.PropertyTypes) > 0 {
		criteria["property_types"] = query.PropertyTypes
	}
	if query.Rooms != nil {
		criteria["rooms"] = *query.Rooms
	}
	if query.District != "" {
		criteria["district"] = query.District
	}
	if query.BudgetMin != nil {
		criteria["budget_min"] = *query.BudgetMin
	}
	if query.BudgetMax != nil {
		criteria["budget_max"] = *query.BudgetMax
	}

	reqBody, err := json.Marshal(saveSearchRequest{Criteria: criteria})
	if err != nil {
		return fmt.Errorf("failed to marshal saved search: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/searches/", userID, "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// CreateViewing реализует порт BackendAPIPort.
func (c *BackendAPIClient) CreateViewing(ctx context.Context, userID string, req domain.ViewingRequest) error {
	reqBody, err := json.Marshal(appointmentCreateRequest{
		PropertyID:        req.ListingID,
		RequestedDatetime: req.RequestedAt.Format(time.RFC3339),
		UserPhone:         req.Phone,
		UserName:          req.Name,
		Notes:             req.Notes,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal appointment: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/api/appointments/", userID, "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}
