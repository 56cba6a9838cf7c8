package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/adapters/notifier"
	"github.com/lemonchikHere/donminiapp/internal/contextkeys"
	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/port/usecases_port"
)

// UseCases собирает все юзкейсы движка, которые нужны REST-слою.
// Структура вместо позиционных аргументов: их восемнадцать.
type UseCases struct {
	UpdateFormField   usecases_port.UpdateFormFieldUseCasePort
	ValidateForm      usecases_port.ValidateFormUseCasePort
	GetForm           usecases_port.GetFormUseCasePort
	StartSearch       usecases_port.StartSearchUseCasePort
	LoadMore          usecases_port.LoadMoreUseCasePort
	GetSearchState    usecases_port.GetSearchStateUseCasePort
	TeardownSearch    usecases_port.TeardownSearchUseCasePort
	SaveSearch        usecases_port.SaveSearchUseCasePort
	ToggleFavorite    usecases_port.ToggleFavoriteUseCasePort
	GetFavorites      usecases_port.GetFavoritesUseCasePort
	GetMapClusters    usecases_port.GetMapClustersUseCasePort
	GetListing        usecases_port.GetListingUseCasePort
	AddUploadFiles    usecases_port.AddUploadFilesUseCasePort
	RemoveUploadAsset usecases_port.RemoveUploadAssetUseCasePort
	GetUploadAssets   usecases_port.GetUploadAssetsUseCasePort
	SubmitOffer       usecases_port.SubmitOfferUseCasePort
	RequestViewing    usecases_port.RequestViewingUseCasePort
	DropSession       usecases_port.DropSessionUseCasePort
}

// EngineHandler - HTTP-хендлеры движка мини-аппа.
type EngineHandler struct {
	ucs      UseCases
	notifier *notifier.SSENotifier
}

func NewEngineHandler(ucs UseCases, notifier *notifier.SSENotifier) *EngineHandler {
	return &EngineHandler{ucs: ucs, notifier: notifier}
}

// respondUseCaseError маппит ошибки юзкейсов в HTTP-статусы.
// Пятисотки и ошибки транспорта логируются здесь, ожидаемые отказы
// (валидация, конфликты) - нет: это штатные ответы.
func respondUseCaseError(w http.ResponseWriter, logger port.LoggerPort, err error, fallback string) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		RespondWithJSON(w, http.StatusUnprocessableEntity, ValidationErrorsResponse{Errors: vErr.Fields})
	case errors.Is(err, domain.ErrAssetRejected):
		WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrMutationPending), errors.Is(err, domain.ErrNoActiveSearch):
		WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrTransport):
		logger.Error("Upstream backend call failed", err, nil)
		WriteJSONError(w, http.StatusBadGateway, "Upstream service unavailable")
	default:
		logger.Error(fallback, err, nil)
		WriteJSONError(w, http.StatusInternalServerError, fallback)
	}
}

// --- Формы ---

func (h *EngineHandler) UpdateFormField(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "UpdateFormField"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	formID := chi.URLParam(r, "formID")
	field := chi.URLParam(r, "field")

	var req UpdateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode update field request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	form, err := h.ucs.UpdateFormField.Execute(r.Context(), userID, formID, field, req.Value)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to update form field")
		return
	}

	RespondWithJSON(w, http.StatusOK, toFormStateResponse(form))
}

func (h *EngineHandler) ValidateFormField(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ValidateFormField"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	formID := chi.URLParam(r, "formID")
	field := chi.URLParam(r, "field")

	errorsMap, err := h.ucs.ValidateForm.Execute(r.Context(), userID, formID, field)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to validate form field")
		return
	}

	var fieldError *string
	if msg, found := errorsMap[field]; found {
		fieldError = &msg
	}
	RespondWithJSON(w, http.StatusOK, FieldValidationResponse{Error: fieldError})
}

func (h *EngineHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetForm"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	form, err := h.ucs.GetForm.Execute(r.Context(), userID, chi.URLParam(r, "formID"))
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to get form")
		return
	}

	RespondWithJSON(w, http.StatusOK, toFormStateResponse(form))
}

// --- Поиск ---

func (h *EngineHandler) StartSearch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "StartSearch"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	state, err := h.ucs.StartSearch.Execute(r.Context(), userID)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to start search")
		return
	}

	RespondWithJSON(w, http.StatusOK, toSearchStateResponse(state))
}

func (h *EngineHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "LoadMore"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	state, err := h.ucs.LoadMore.Execute(r.Context(), userID)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to load more results")
		return
	}

	RespondWithJSON(w, http.StatusOK, toSearchStateResponse(state))
}

func (h *EngineHandler) GetSearchState(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetSearchState"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	state, err := h.ucs.GetSearchState.Execute(r.Context(), userID)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to get search state")
		return
	}

	RespondWithJSON(w, http.StatusOK, toSearchStateResponse(state))
}

func (h *EngineHandler) TeardownSearch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "TeardownSearch"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := h.ucs.TeardownSearch.Execute(r.Context(), userID); err != nil {
		respondUseCaseError(w, logger, err, "Failed to tear down search")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EngineHandler) SaveSearch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SaveSearch"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := h.ucs.SaveSearch.Execute(r.Context(), userID); err != nil {
		respondUseCaseError(w, logger, err, "Failed to save search")
		return
	}

	RespondWithJSON(w, http.StatusCreated, map[string]string{"status": "saved"})
}

// --- Избранное ---

func (h *EngineHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetFavorites"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	items, err := h.ucs.GetFavorites.Execute(r.Context(), userID)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to get favorites")
		return
	}

	RespondWithJSON(w, http.StatusOK, toListingResponses(items))
}

func (h *EngineHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ToggleFavorite"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		logger.Warn("Invalid listing ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "listingID")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid listing ID in URL")
		return
	}

	target, err := h.ucs.ToggleFavorite.Execute(r.Context(), userID, listingID)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to toggle favorite")
		return
	}

	// 202: UI уже показывает целевое состояние, итог сетевого вызова
	// придет SSE-событием favorite_settled либо favorite_rolled_back.
	RespondWithJSON(w, http.StatusAccepted, ToggleFavoriteResponse{IsFavorite: target})
}

// --- Карта и карточки объектов ---

func (h *EngineHandler) GetMapListings(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetMapListings"})

	// Кривое значение молча уходит в ноль, юзкейс подставит дефолт.
	precision, _ := strconv.ParseUint(r.URL.Query().Get("precision"), 10, 8)

	clusters, err := h.ucs.GetMapClusters.Execute(r.Context(), uint(precision))
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to get map listings")
		return
	}

	RespondWithJSON(w, http.StatusOK, toClusterResponses(clusters))
}

func (h *EngineHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetListing"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		logger.Warn("Invalid listing ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "listingID")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid listing ID in URL")
		return
	}

	listing, err := h.ucs.GetListing.Execute(r.Context(), userID, listingID)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to get listing")
		return
	}

	RespondWithJSON(w, http.StatusOK, toListingResponse(*listing))
}

// --- Активы заявки ---

// incomingFiles открывает файлы multipart-формы под заданным именем поля.
// Закрытие - на вызывающем, даже при ошибке.
func incomingFiles(headers []*multipart.FileHeader) ([]domain.IncomingFile, []multipart.File, error) {
	files := make([]domain.IncomingFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, opened, fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		files = append(files, domain.IncomingFile{
			FileName:  fh.Filename,
			MimeType:  fh.Header.Get("Content-Type"),
			SizeBytes: fh.Size,
			Content:   f,
		})
	}
	return files, opened, nil
}

func closeAll(opened []multipart.File) {
	for _, f := range opened {
		f.Close()
	}
}

func (h *EngineHandler) addAssets(w http.ResponseWriter, r *http.Request, kind, fieldName string, logger port.LoggerPort) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("Failed to parse multipart form", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[fieldName]
	if len(headers) == 0 {
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Form field '%s' has no files", fieldName))
		return
	}

	files, opened, err := incomingFiles(headers)
	defer closeAll(opened)
	if err != nil {
		logger.Error("Failed to open uploaded files", err, nil)
		WriteJSONError(w, http.StatusBadRequest, "Broken file in multipart body")
		return
	}

	set, err := h.ucs.AddUploadFiles.Execute(r.Context(), userID, kind, files)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to stage uploaded files")
		return
	}

	RespondWithJSON(w, http.StatusOK, toUploadSetResponse(set))
}

func (h *EngineHandler) AddOfferPhotos(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "AddOfferPhotos"})
	h.addAssets(w, r, domain.AssetPhoto, "files", logger)
}

func (h *EngineHandler) AddOfferVideo(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "AddOfferVideo"})
	h.addAssets(w, r, domain.AssetVideo, "file", logger)
}

func (h *EngineHandler) RemoveOfferAsset(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RemoveOfferAsset"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	kind := chi.URLParam(r, "kind")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid asset index in URL")
		return
	}

	set, err := h.ucs.RemoveUploadAsset.Execute(r.Context(), userID, kind, index)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to remove asset")
		return
	}

	RespondWithJSON(w, http.StatusOK, toUploadSetResponse(set))
}

func (h *EngineHandler) GetOfferAssets(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetOfferAssets"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	set, err := h.ucs.GetUploadAssets.Execute(r.Context(), userID)
	if err != nil {
		respondUseCaseError(w, logger, err, "Failed to get assets")
		return
	}

	RespondWithJSON(w, http.StatusOK, toUploadSetResponse(set))
}

func (h *EngineHandler) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SubmitOffer"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := h.ucs.SubmitOffer.Execute(r.Context(), userID); err != nil {
		respondUseCaseError(w, logger, err, "Failed to submit offer")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "submitted"})
}

// --- Запись на просмотр ---

func (h *EngineHandler) RequestViewing(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "RequestViewing"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := h.ucs.RequestViewing.Execute(r.Context(), userID); err != nil {
		respondUseCaseError(w, logger, err, "Failed to request viewing")
		return
	}

	RespondWithJSON(w, http.StatusCreated, map[string]string{"status": "requested"})
}

// --- Сессия и события ---

// SubscribeToEvents - обработчик GET /events, отдает SSE-поток событий
// движка для текущего пользователя.
func (h *EngineHandler) SubscribeToEvents(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SubscribeToEvents"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"user_id": userID})
	handlerLogger.Info("New client subscribing to SSE events", nil)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := h.notifier.AddClient(userID)
	defer h.notifier.RemoveClient(userID, clientChan)

	// Подтверждаем установку соединения
	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	// Пустой комментарий каждые 15 секунд держит соединение живым
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case data, open := <-clientChan:
			if !open {
				// Канал закрыт сносом сессии
				handlerLogger.Info("SSE channel closed, ending stream.", nil)
				return
			}
			if _, err := fmt.Fprintf(w, "%s", data); err != nil {
				handlerLogger.Error("Error writing to client, closing SSE connection", err, nil)
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case <-ticker.C:
			// Строки с двоеточия по спецификации SSE - комментарии:
			// браузер их получает, но JS-код игнорирует
			if _, err := fmt.Fprintf(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case <-r.Context().Done():
			handlerLogger.Info("SSE client disconnected.", nil)
			return
		}
	}
}

func (h *EngineHandler) DropSession(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "DropSession"})

	userID, ok := userIDFromRequest(r)
	if !ok {
		logger.Error("User ID missing in context", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := h.ucs.DropSession.Execute(r.Context(), userID); err != nil {
		respondUseCaseError(w, logger, err, "Failed to drop session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
