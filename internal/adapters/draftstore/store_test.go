package draftstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	values := map[string]string{
		domain.FieldTransactionKind: "rent",
		domain.FieldDistrict:        "Ворошиловский",
	}
	require.NoError(t, s.Save("100500", domain.FormSearch, values))

	loaded, ok := s.Load("100500", domain.FormSearch)
	require.True(t, ok)
	assert.Equal(t, values, loaded)
}

func TestStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Load("100500", domain.FormSearch)
	assert.False(t, ok)
}

func TestStore_LoadIsolatedPerUser(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("alice", domain.FormOffer, map[string]string{domain.FieldName: "Анна"}))

	_, ok := s.Load("bob", domain.FormOffer)
	assert.False(t, ok)
}

func TestStore_CorruptDraftRemovedAndMissed(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("100500", domain.FormSearch, map[string]string{domain.FieldRooms: "2"}))

	path := s.draftPath("100500", domain.FormSearch)
	require.NoError(t, os.WriteFile(path, []byte(`{"form_id": "search_form", "values":`), 0o600))

	_, ok := s.Load("100500", domain.FormSearch)
	assert.False(t, ok)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupt draft file is removed")
}

func TestStore_SchemaInvalidDraftIsMiss(t *testing.T) {
	s := newTestStore(t)

	path := s.draftPath("100500", domain.FormOffer)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	// Валидный JSON, но значения полей обязаны быть строками.
	require.NoError(t, os.WriteFile(path, []byte(`{"form_id": "offer_form", "values": {"price": 42}}`), 0o600))

	_, ok := s.Load("100500", domain.FormOffer)
	assert.False(t, ok)
}

func TestStore_MismatchedFormIDIsMiss(t *testing.T) {
	s := newTestStore(t)

	path := s.draftPath("100500", domain.FormViewing)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"form_id": "offer_form", "values": {}}`), 0o600))

	_, ok := s.Load("100500", domain.FormViewing)
	assert.False(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("100500", domain.FormSearch, map[string]string{domain.FieldDistrict: "Киевский"}))

	require.NoError(t, s.Delete("100500", domain.FormSearch))

	_, ok := s.Load("100500", domain.FormSearch)
	assert.False(t, ok)

	// Повторное удаление - не ошибка.
	require.NoError(t, s.Delete("100500", domain.FormSearch))
}
