package domain

import "errors"

// Сентинельные ошибки движка. REST-адаптер маппит их в HTTP-статусы,
// use case-ы оборачивают через fmt.Errorf с %w.
var (
	// ErrValidationFailed - форма не прошла валидацию, сетевой запрос не ушел.
	ErrValidationFailed = errors.New("validation failed")

	// ErrMutationPending - по этому объекту уже висит незавершенная мутация.
	ErrMutationPending = errors.New("mutation already pending")

	// ErrNoActiveSearch - операция требует ранее сабмитнутого поиска.
	ErrNoActiveSearch = errors.New("no active search")

	// ErrAssetRejected - файлы не прошли проверку типа/размера/количества.
	ErrAssetRejected = errors.New("asset rejected")

	// ErrTransport - сетевая ошибка либо не-2xx ответ бэкенда.
	ErrTransport = errors.New("transport failure")

	// ErrNotFound - объект или актив не найден.
	ErrNotFound = errors.New("not found")
)

// ValidationError несет карту ошибок полей вместе с сентинелом
// ErrValidationFailed, чтобы работали и errors.Is, и errors.As.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError создает ошибку валидации из карты "поле -> сообщение".
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}
