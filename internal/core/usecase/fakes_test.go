package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
)

const testUserID = "100500"

// --- фейки портов ---

type nopLogger struct{}

var _ port.LoggerPort = nopLogger{}

func (nopLogger) Info(string, port.Fields)         {}
func (nopLogger) Warn(string, port.Fields)         {}
func (nopLogger) Debug(string, port.Fields)        {}
func (nopLogger) Error(string, error, port.Fields) {}

func (l nopLogger) WithFields(port.Fields) port.LoggerPort { return l }

type fakeCache struct {
	mu   sync.Mutex
	data map[string]any
}

var _ port.CachePort = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]any)}
}

func (c *fakeCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *fakeCache) Set(key string, value any, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *fakeCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func (c *fakeCache) InvalidateMatching(match func(string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if match(key) {
			delete(c.data, key)
		}
	}
}

func (c *fakeCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]any)
}

func (c *fakeCache) has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

type fakeDrafts struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

var _ port.DraftStorePort = (*fakeDrafts)(nil)

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{data: make(map[string]map[string]string)}
}

func (d *fakeDrafts) key(userID, formID string) string { return userID + "/" + formID }

func (d *fakeDrafts) Save(userID, formID string, values map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	d.data[d.key(userID, formID)] = copied
	return nil
}

func (d *fakeDrafts) Load(userID, formID string) (map[string]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	values, ok := d.data[d.key(userID, formID)]
	return values, ok
}

func (d *fakeDrafts) Delete(userID, formID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.data, d.key(userID, formID))
	return nil
}

// fakeAssets хранит "файлы" в памяти. failOn - номер вызова Stage (с
// единицы), который должен завершиться ошибкой; 0 - не ломаться.
type fakeAssets struct {
	mu      sync.Mutex
	staged  map[string][]byte
	removed []string
	calls   int
	failOn  int
}

var _ port.AssetStorePort = (*fakeAssets)(nil)

func newFakeAssets() *fakeAssets {
	return &fakeAssets{staged: make(map[string][]byte)}
}

func (a *fakeAssets) Stage(userID string, content io.Reader) (string, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.failOn != 0 && a.calls == a.failOn {
		return "", 0, fmt.Errorf("disk full")
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", 0, err
	}
	path := fmt.Sprintf("%s/asset-%d", userID, a.calls)
	a.staged[path] = data
	return path, int64(len(data)), nil
}

func (a *fakeAssets) Open(stagePath string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.staged[stagePath]
	if !ok {
		return nil, fmt.Errorf("no staged file %q", stagePath)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *fakeAssets) Remove(stagePath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.staged, stagePath)
	a.removed = append(a.removed, stagePath)
	return nil
}

func (a *fakeAssets) PurgeUser(userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for path := range a.staged {
		if strings.HasPrefix(path, userID+"/") {
			delete(a.staged, path)
		}
	}
	return nil
}

func (a *fakeAssets) liveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.staged)
}

func (a *fakeAssets) wasRemoved(stagePath string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.removed {
		if p == stagePath {
			return true
		}
	}
	return false
}

// fakeNotifier копит события и дублирует их в канал, чтобы тесты могли
// дождаться исхода фоновой мутации.
type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.Event
	closed []string
	ch     chan domain.Event
}

var _ port.NotifierPort = (*fakeNotifier)(nil)

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan domain.Event, 64)}
}

func (n *fakeNotifier) Notify(_ context.Context, event domain.Event) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
	n.ch <- event
}

func (n *fakeNotifier) CloseUser(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, userID)
}

func (n *fakeNotifier) eventsOfType(eventType string) []domain.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Event
	for _, e := range n.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (n *fakeNotifier) closedUsers() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.closed))
	copy(out, n.closed)
	return out
}

// waitEvent блокируется до прихода события заданного типа. События других
// типов по пути пропускаются.
func waitEvent(t *testing.T, n *fakeNotifier, eventType string) domain.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-n.ch:
			if e.Type == eventType {
				return e
			}
		case <-deadline:
			t.Fatalf("event %q not received in time", eventType)
		}
	}
}

// fakeBackend отвечает заранее заданными данными. Гейты позволяют
// подвесить вызов до закрытия канала и воспроизвести запрос в полете.
type fakeBackend struct {
	mu sync.Mutex

	pages     map[int][]domain.PropertyListing
	total     int
	searchErr error
	searchLog []searchCall

	favorites      []domain.PropertyListing
	favoritesErr   error
	favoritesCalls int

	addFavoriteErr    error
	removeFavoriteErr error
	favoriteGate      chan struct{}
	addCalls          int
	removeCalls       int

	listing      *domain.PropertyListing
	listingErr   error
	listingCalls int

	mapPoints  []domain.MapPoint
	mapErr     error
	mapCalls   int
	mapGate    chan struct{}
	mapStarted chan struct{}

	savedSearches []domain.SearchQuery
	saveSearchErr error

	offers        []domain.OfferSubmission
	submitErr     error
	progressSteps [][2]int64

	viewings   []domain.ViewingRequest
	viewingErr error
}

type searchCall struct {
	query  domain.SearchQuery
	offset int
	limit  int
}

var _ port.BackendAPIPort = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{pages: make(map[int][]domain.PropertyListing)}
}

func (b *fakeBackend) SearchProperties(_ context.Context, _ string, query domain.SearchQuery, offset, limit int) ([]domain.PropertyListing, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searchLog = append(b.searchLog, searchCall{query: query, offset: offset, limit: limit})
	if b.searchErr != nil {
		return nil, 0, b.searchErr
	}
	return b.pages[offset], b.total, nil
}

func (b *fakeBackend) searchCalls() []searchCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]searchCall, len(b.searchLog))
	copy(out, b.searchLog)
	return out
}

func (b *fakeBackend) GetFavorites(_ context.Context, _ string) ([]domain.PropertyListing, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.favoritesCalls++
	if b.favoritesErr != nil {
		return nil, b.favoritesErr
	}
	out := make([]domain.PropertyListing, len(b.favorites))
	copy(out, b.favorites)
	return out, nil
}

func (b *fakeBackend) AddFavorite(_ context.Context, _ string, _ uuid.UUID) error {
	b.mu.Lock()
	b.addCalls++
	gate := b.favoriteGate
	err := b.addFavoriteErr
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (b *fakeBackend) RemoveFavorite(_ context.Context, _ string, _ uuid.UUID) error {
	b.mu.Lock()
	b.removeCalls++
	gate := b.favoriteGate
	err := b.removeFavoriteErr
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (b *fakeBackend) GetListing(_ context.Context, _ string, _ uuid.UUID) (*domain.PropertyListing, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listingCalls++
	if b.listingErr != nil {
		return nil, b.listingErr
	}
	listing := *b.listing
	return &listing, nil
}

func (b *fakeBackend) GetMapPoints(_ context.Context) ([]domain.MapPoint, error) {
	b.mu.Lock()
	b.mapCalls++
	started := b.mapStarted
	gate := b.mapGate
	points := make([]domain.MapPoint, len(b.mapPoints))
	copy(points, b.mapPoints)
	err := b.mapErr
	b.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return points, nil
}

func (b *fakeBackend) SaveSearch(_ context.Context, _ string, query domain.SearchQuery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveSearchErr != nil {
		return b.saveSearchErr
	}
	b.savedSearches = append(b.savedSearches, query)
	return nil
}

func (b *fakeBackend) SubmitOffer(_ context.Context, _ string, offer domain.OfferSubmission, onProgress func(sentBytes, totalBytes int64)) error {
	b.mu.Lock()
	steps := b.progressSteps
	err := b.submitErr
	b.mu.Unlock()

	for _, step := range steps {
		if onProgress != nil {
			onProgress(step[0], step[1])
		}
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.offers = append(b.offers, offer)
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) CreateViewing(_ context.Context, _ string, req domain.ViewingRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.viewingErr != nil {
		return b.viewingErr
	}
	b.viewings = append(b.viewings, req)
	return nil
}

// --- окружение тестов ---

type testEnv struct {
	sessions *session.Manager
	backend  *fakeBackend
	assets   *fakeAssets
	drafts   *fakeDrafts
	notifier *fakeNotifier
	global   *fakeCache
}

func newTestEnv() *testEnv {
	drafts := newFakeDrafts()
	assets := newFakeAssets()
	return &testEnv{
		sessions: session.NewManager(
			func() port.CachePort { return newFakeCache() },
			drafts,
			assets,
			time.Hour,
			nopLogger{},
		),
		backend:  newFakeBackend(),
		assets:   assets,
		drafts:   drafts,
		notifier: newFakeNotifier(),
		global:   newFakeCache(),
	}
}

// sessionCache достает сессионный кеш пользователя как фейк.
func (e *testEnv) sessionCache(userID string) *fakeCache {
	return e.sessions.Session(userID).Cache().(*fakeCache)
}

func (e *testEnv) setFields(t *testing.T, formID string, values map[string]string) {
	t.Helper()
	s := e.sessions.Session(testUserID)
	for field, value := range values {
		_, err := s.SetField(formID, field, value)
		require.NoError(t, err)
	}
}

func (e *testEnv) seedValidSearchForm(t *testing.T) {
	t.Helper()
	e.setFields(t, domain.FormSearch, map[string]string{
		domain.FieldTransactionKind: domain.TransactionBuy,
		domain.FieldPropertyTypes:   domain.PropertyApartment,
		domain.FieldName:            "Анна",
		domain.FieldPhone:           "+380501234567",
		domain.FieldDistrict:        "Ворошиловский",
	})
}

func (e *testEnv) seedValidOfferForm(t *testing.T) {
	t.Helper()
	e.setFields(t, domain.FormOffer, map[string]string{
		domain.FieldTransactionKind: domain.TransactionRent,
		domain.FieldPropertyType:    domain.PropertyHouse,
		domain.FieldAddress:         "ул. Артема 1",
		domain.FieldName:            "Ольга",
		domain.FieldPhone:           "+380 50 123-45-67",
		domain.FieldArea:            "56.5",
		domain.FieldRooms:           "2",
		domain.FieldPrice:           "45000",
	})
}

// startSearch прогоняет StartSearch с валидной формой и заданной выдачей.
func (e *testEnv) startSearch(t *testing.T, firstPage []domain.PropertyListing, total int) domain.SearchState {
	t.Helper()
	e.seedValidSearchForm(t)
	e.backend.mu.Lock()
	e.backend.pages[0] = firstPage
	e.backend.total = total
	e.backend.mu.Unlock()

	state, err := NewStartSearchUseCase(e.sessions, e.backend).Execute(context.Background(), testUserID)
	require.NoError(t, err)
	return state
}

func listingCard(title string) domain.PropertyListing {
	return domain.PropertyListing{ID: uuid.New(), Title: title}
}

func listingCards(n int) []domain.PropertyListing {
	out := make([]domain.PropertyListing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, listingCard(fmt.Sprintf("Объект %d", i+1)))
	}
	return out
}

func photoFile(name, content string) domain.IncomingFile {
	return domain.IncomingFile{
		FileName:  name,
		MimeType:  "image/jpeg",
		SizeBytes: int64(len(content)),
		Content:   strings.NewReader(content),
	}
}

func videoFile(name, content string) domain.IncomingFile {
	return domain.IncomingFile{
		FileName:  name,
		MimeType:  "video/mp4",
		SizeBytes: int64(len(content)),
		Content:   strings.NewReader(content),
	}
}
