package usecases_port

import "context"

type SubmitOfferUseCasePort interface {
	// Валидирует форму заявки и отправляет ее вместе с файлами одним
	// multipart-запросом. При успехе форма, файлы и черновик очищаются,
	// при любой ошибке все остается на месте.
	Execute(ctx context.Context, userID string) error
}
