package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	core_port "github.com/lemonchikHere/donminiapp/internal/core/port"
)

// Server - REST API сервер движка мини-аппа.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

func NewServer(port string, allowedOrigins []string, handlers *EngineHandler, baseLogger core_port.LoggerPort) *Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: newRouter(allowedOrigins, handlers, baseLogger),
	}

	return &Server{
		httpServer: srv,
		logger:     baseLogger,
	}
}

// newRouter собирает все маршруты и middleware движка.
func newRouter(allowedOrigins []string, handlers *EngineHandler, baseLogger core_port.LoggerPort) *chi.Mux {
	r := chi.NewRouter()

	// Общие middleware
	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		// Домены, с которых хостится фронтенд мини-аппа
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Telegram-User-Id", "X-Trace-ID"},
		// На сколько секунд браузер может кэшировать результат preflight-запроса
		MaxAge: 300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Все маршруты действуют от имени пользователя Telegram
		r.Use(AuthMiddleware)

		// Формы: значение поля, точечная и полная валидация, состояние
		r.Route("/forms/{formID}", func(r chi.Router) {
			r.Get("/", handlers.GetForm)
			r.Put("/fields/{field}", handlers.UpdateFormField)
			r.Post("/fields/{field}/validate", handlers.ValidateFormField)
		})

		// Поиск с подгрузкой страниц
		r.Route("/search", func(r chi.Router) {
			r.Post("/", handlers.StartSearch)
			r.Post("/more", handlers.LoadMore)
			r.Get("/state", handlers.GetSearchState)
			r.Delete("/", handlers.TeardownSearch)
		})
		r.Post("/searches/save", handlers.SaveSearch)

		// Избранное
		r.Get("/favorites", handlers.GetFavorites)
		r.Post("/favorites/{listingID}", handlers.ToggleFavorite)

		// Карта и карточки объектов
		r.Get("/map/listings", handlers.GetMapListings)
		r.Get("/listings/{listingID}", handlers.GetListing)

		// Заявка "предложить недвижимость"
		r.Route("/offer", func(r chi.Router) {
			r.Post("/assets/photo", handlers.AddOfferPhotos)
			r.Post("/assets/video", handlers.AddOfferVideo)
			r.Delete("/assets/{kind}/{index}", handlers.RemoveOfferAsset)
			r.Get("/assets", handlers.GetOfferAssets)
			r.Post("/submit", handlers.SubmitOffer)
		})

		// Запись на просмотр
		r.Post("/viewings", handlers.RequestViewing)

		// События и жизненный цикл сессии
		r.Get("/events", handlers.SubscribeToEvents)
		r.Delete("/session", handlers.DropSession)
	})

	return r
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
