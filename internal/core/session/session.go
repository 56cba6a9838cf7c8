// Пакет session хранит все изменяемое состояние мини-приложения на
// пользователя: формы, результаты поиска, незавершенные мутации избранного
// и staging-файлы заявки. Все переходы состояния выполняются под мьютексом
// сессии, сетевые вызовы юзкейсы делают уже после выхода из-под замка.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

// Session - состояние одного пользователя. Создается менеджером при первом
// обращении и живет до явного сноса либо до простоя дольше idle TTL.
type Session struct {
	mu     sync.Mutex
	userID string

	cache  port.CachePort
	drafts port.DraftStorePort

	forms       map[string]*domain.FormState
	draftLoaded map[string]bool

	// Поиск. generation растет при каждом новом сабмите и сбросе,
	// ответы со старым поколением в состояние не попадают.
	search     domain.SearchState
	query      domain.SearchQuery
	generation uint64
	fetching   bool

	// Избранное. pending - защита от повторного переключения того же
	// объекта, overlay - оптимистичные флаги незавершенных мутаций.
	pending map[uuid.UUID]domain.PendingMutation
	overlay map[uuid.UUID]bool

	photos []domain.UploadAsset
	video  *domain.UploadAsset

	lastSeen time.Time
}

func newSession(userID string, cache port.CachePort, drafts port.DraftStorePort) *Session {
	return &Session{
		userID:      userID,
		cache:       cache,
		drafts:      drafts,
		forms:       make(map[string]*domain.FormState),
		draftLoaded: make(map[string]bool),
		pending:     make(map[uuid.UUID]domain.PendingMutation),
		overlay:     make(map[uuid.UUID]bool),
		lastSeen:    time.Now(),
	}
}

// UserID возвращает идентификатор владельца сессии.
func (s *Session) UserID() string {
	return s.userID
}

// Cache возвращает сессионный кеш. Юзкейсы кладут туда страницы поиска,
// избранное и карточки объектов.
func (s *Session) Cache() port.CachePort {
	return s.cache
}

// IdleSince сообщает момент последнего обращения к сессии.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touchLocked() {
	s.lastSeen = time.Now()
}

// --- формы ---

// formLocked возвращает форму, создавая пустую при первом обращении и
// поднимая черновик с диска. Битый черновик превращается в пустую форму.
func (s *Session) formLocked(formID string) *domain.FormState {
	form, ok := s.forms[formID]
	if !ok {
		fresh := domain.NewFormState()
		form = &fresh
		s.forms[formID] = form
	}
	if !s.draftLoaded[formID] {
		s.draftLoaded[formID] = true
		if values, ok := s.drafts.Load(s.userID, formID); ok {
			for field, value := range values {
				form.Values[field] = value
			}
		}
	}
	return form
}

// Form возвращает копию состояния формы.
func (s *Session) Form(formID string) domain.FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.formLocked(formID).Clone()
}

// FormValues возвращает копию значений полей формы.
func (s *Session) FormValues(formID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	form := s.formLocked(formID)
	values := make(map[string]string, len(form.Values))
	for field, value := range form.Values {
		values[field] = value
	}
	return values
}

// SetField сохраняет значение поля и снимает с него ошибку валидации.
// Черновик пишется тут же, под замком: это локальный файл, а не сеть.
// Ошибка записи черновика не откатывает само значение.
func (s *Session) SetField(formID, field, value string) (domain.FormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	form := s.formLocked(formID)
	form.Values[field] = value
	delete(form.Errors, field)

	err := s.drafts.Save(s.userID, formID, form.Values)
	return form.Clone(), err
}

// ApplyFieldError ставит либо снимает ошибку одного поля.
func (s *Session) ApplyFieldError(formID, field, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	form := s.formLocked(formID)
	if msg == "" {
		delete(form.Errors, field)
		return
	}
	form.Errors[field] = msg
}

// ReplaceErrors целиком заменяет карту ошибок формы.
func (s *Session) ReplaceErrors(formID string, errs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	form := s.formLocked(formID)
	form.Errors = make(map[string]string, len(errs))
	for field, msg := range errs {
		form.Errors[field] = msg
	}
}

// ResetForm очищает форму вместе с черновиком. Вызывается после успешной
// отправки заявки.
func (s *Session) ResetForm(formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	fresh := domain.NewFormState()
	s.forms[formID] = &fresh
	s.draftLoaded[formID] = true
	return s.drafts.Delete(s.userID, formID)
}

// --- файлы заявки ---

// Uploads возвращает копию текущего набора активов.
func (s *Session) Uploads() domain.UploadSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.uploadsLocked()
}

func (s *Session) uploadsLocked() domain.UploadSet {
	set := domain.UploadSet{Photos: make([]domain.UploadAsset, len(s.photos))}
	copy(set.Photos, s.photos)
	if s.video != nil {
		v := *s.video
		set.Video = &v
	}
	return set
}

// PhotoCount - текущее количество фото, для проверки пачки до staging.
func (s *Session) PhotoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.photos)
}

// AddPhotos добавляет уже застейдженные фото. Лимит проверяется повторно
// под замком: пачка, не влезающая в лимит, отклоняется целиком, и тогда
// вызывающий обязан убрать файлы из staging сам.
func (s *Session) AddPhotos(assets []domain.UploadAsset) (domain.UploadSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if len(s.photos)+len(assets) > domain.MaxPhotoCount {
		return s.uploadsLocked(), domain.ErrAssetRejected
	}
	s.photos = append(s.photos, assets...)
	return s.uploadsLocked(), nil
}

// SetVideo занимает единственный видеослот и возвращает вытесненный актив,
// чтобы вызывающий удалил его временный файл.
func (s *Session) SetVideo(asset domain.UploadAsset) (domain.UploadSet, *domain.UploadAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	replaced := s.video
	s.video = &asset
	return s.uploadsLocked(), replaced
}

// RemovePhoto убирает фото по позиции в списке.
func (s *Session) RemovePhoto(index int) (domain.UploadAsset, domain.UploadSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if index < 0 || index >= len(s.photos) {
		return domain.UploadAsset{}, s.uploadsLocked(), domain.ErrNotFound
	}
	removed := s.photos[index]
	s.photos = append(s.photos[:index], s.photos[index+1:]...)
	return removed, s.uploadsLocked(), nil
}

// RemoveVideo освобождает видеослот.
func (s *Session) RemoveVideo() (*domain.UploadAsset, domain.UploadSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.video == nil {
		return nil, s.uploadsLocked(), domain.ErrNotFound
	}
	removed := s.video
	s.video = nil
	return removed, s.uploadsLocked(), nil
}

// ClearUploads снимает все активы с сессии и возвращает их список,
// staging-файлы чистит вызывающий.
func (s *Session) ClearUploads() []domain.UploadAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	removed := make([]domain.UploadAsset, 0, len(s.photos)+1)
	removed = append(removed, s.photos...)
	if s.video != nil {
		removed = append(removed, *s.video)
	}
	s.photos = nil
	s.video = nil
	return removed
}

// --- снос ---

// Teardown обнуляет все состояние сессии и чистит сессионный кеш.
// Черновики форм намеренно не трогает.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forms = make(map[string]*domain.FormState)
	s.draftLoaded = make(map[string]bool)
	s.search = domain.SearchState{}
	s.query = domain.SearchQuery{}
	s.generation++
	s.fetching = false
	s.pending = make(map[uuid.UUID]domain.PendingMutation)
	s.overlay = make(map[uuid.UUID]bool)
	s.photos = nil
	s.video = nil
	s.cache.Purge()
}
