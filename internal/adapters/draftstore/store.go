package draftstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lemonchikHere/donminiapp/internal/contracts"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

// draftFile - формат файла черновика на диске.
type draftFile struct {
	FormID  string            `json:"form_id"`
	SavedAt time.Time         `json:"saved_at"`
	Values  map[string]string `json:"values"`
}

// Store - файловое хранилище черновиков форм.
// Черновик лежит в <root>/<userID>/<formID>.json и переживает сброс сессии.
// При чтении файл проверяется по JSON-схеме: битый черновик удаляется
// и считается отсутствующим.
type Store struct {
	root string
}

var _ port.DraftStorePort = (*Store)(nil)

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create drafts dir %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) draftPath(userID, formID string) string {
	return filepath.Join(s.root, userID, formID+".json")
}

func (s *Store) Save(userID, formID string, values map[string]string) error {
	dir := filepath.Join(s.root, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create user drafts dir: %w", err)
	}

	payload := draftFile{
		FormID:  formID,
		SavedAt: time.Now().UTC(),
		Values:  values,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	if err := os.WriteFile(s.draftPath(userID, formID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write draft file: %w", err)
	}
	return nil
}

func (s *Store) Load(userID, formID string) (map[string]string, bool) {
	path := s.draftPath(userID, formID)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	// Оборванная запись или чужой мусор не должны ронять восстановление:
	// не прошедший схему файл убираем и ведем себя как при промахе.
	if err := contracts.ValidateDraft(data); err != nil {
		_ = os.Remove(path)
		return nil, false
	}

	var df draftFile
	if err := json.Unmarshal(data, &df); err != nil {
		_ = os.Remove(path)
		return nil, false
	}
	if df.FormID != formID {
		_ = os.Remove(path)
		return nil, false
	}

	return df.Values, true
}

func (s *Store) Delete(userID, formID string) error {
	err := os.Remove(s.draftPath(userID, formID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete draft file: %w", err)
	}
	return nil
}
