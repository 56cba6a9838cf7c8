package usecases_port

import "context"

type TeardownSearchUseCasePort interface {
	// Сбрасывает состояние поиска и выкидывает его страницы из
	// сессионного кеша. Запросы в полете доезжают только до кеша.
	Execute(ctx context.Context, userID string) error
}
