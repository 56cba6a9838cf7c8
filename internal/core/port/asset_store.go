package port

import "io"

// AssetStorePort - контракт staging-хранилища файлов заявки. Содержимое
// уже провалидированных файлов складывается во временные файлы и живет
// там до отправки заявки или закрытия сессии.
type AssetStorePort interface {
	// Stage записывает содержимое файла и возвращает путь к временному
	// файлу вместе с реально записанным размером.
	Stage(userID string, content io.Reader) (stagePath string, size int64, err error)

	// Open открывает ранее сохраненный файл для чтения.
	Open(stagePath string) (io.ReadCloser, error)

	// Remove удаляет один временный файл.
	Remove(stagePath string) error

	// PurgeUser удаляет все временные файлы пользователя.
	PurgeUser(userID string) error
}
