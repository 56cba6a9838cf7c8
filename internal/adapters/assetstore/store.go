package assetstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

// Store - staging-хранилище файлов заявки на локальном диске.
// Файлы лежат в <root>/<userID>/<uuid> без расширения: имя и MIME-тип
// хранятся в метаданных сессии, на диске только байты.
type Store struct {
	root string
}

var _ port.AssetStorePort = (*Store)(nil)

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Stage(userID string, content io.Reader) (string, int64, error) {
	dir := filepath.Join(s.root, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create user staging dir: %w", err)
	}

	path := filepath.Join(dir, uuid.New().String())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create staging file: %w", err)
	}

	size, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Недописанный файл бесполезен, подчищаем сразу.
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("failed to write staging file: %w", err)
	}

	return path, size, nil
}

func (s *Store) Open(stagePath string) (io.ReadCloser, error) {
	if !s.owns(stagePath) {
		return nil, fmt.Errorf("staging path %s is outside the store root", stagePath)
	}
	f, err := os.Open(stagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open staging file: %w", err)
	}
	return f, nil
}

func (s *Store) Remove(stagePath string) error {
	if !s.owns(stagePath) {
		return fmt.Errorf("staging path %s is outside the store root", stagePath)
	}
	err := os.Remove(stagePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove staging file: %w", err)
	}
	return nil
}

func (s *Store) PurgeUser(userID string) error {
	if err := os.RemoveAll(filepath.Join(s.root, userID)); err != nil {
		return fmt.Errorf("failed to purge user staging dir: %w", err)
	}
	return nil
}

// owns отсекает пути вне корня хранилища, чтобы Remove с подложенным
// путем не мог удалить посторонний файл.
func (s *Store) owns(stagePath string) bool {
	rel, err := filepath.Rel(s.root, stagePath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
