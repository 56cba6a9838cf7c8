package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"

	"github.com/lemonchikHere/donminiapp/internal/adapters/assetstore"
	"github.com/lemonchikHere/donminiapp/internal/adapters/backend_api_client"
	"github.com/lemonchikHere/donminiapp/internal/adapters/draftstore"
	logger_adapter "github.com/lemonchikHere/donminiapp/internal/adapters/logger"
	"github.com/lemonchikHere/donminiapp/internal/adapters/memcache"
	"github.com/lemonchikHere/donminiapp/internal/adapters/notifier"
	"github.com/lemonchikHere/donminiapp/internal/adapters/rest"
	"github.com/lemonchikHere/donminiapp/internal/configs"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
	"github.com/lemonchikHere/donminiapp/internal/core/session"
	"github.com/lemonchikHere/donminiapp/internal/core/usecase"
	fluentlogger "github.com/lemonchikHere/donminiapp/pkg/fluent_logger"
)

type App struct {
	config    *configs.AppConfig
	apiServer *rest.Server

	sessions    *session.Manager
	globalCache *memcache.Store

	logger       port.LoggerPort
	fluentClient *fluent.Fluent // держим для корректного закрытия
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. Логгеры ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 2. Адаптеры хранилищ и бэкенда ---
	drafts, err := draftstore.NewStore(appConfig.Storage.DraftsDir)
	if err != nil {
		appLogger.Error("Failed to init draft store", err, nil)
		return nil, fmt.Errorf("failed to init draft store: %w", err)
	}

	assets, err := assetstore.NewStore(appConfig.Storage.StagingDir)
	if err != nil {
		appLogger.Error("Failed to init asset store", err, nil)
		return nil, fmt.Errorf("failed to init asset store: %w", err)
	}

	backendClient := backend_api_client.NewBackendAPIClient(
		appConfig.Backend.URL,
		time.Duration(appConfig.Backend.TimeoutSeconds)*time.Second,
	)

	sseNotifier := notifier.NewSSENotifier(baseLogger)

	// --- 3. Кеши и сессии ---
	cacheTTL := time.Duration(appConfig.Cache.DefaultTTLSeconds) * time.Second

	// Глобальный кеш один на процесс, сессионные создаются менеджером
	// по одному на пользователя.
	globalCache := memcache.NewStore(cacheTTL)
	newSessionCache := func() port.CachePort { return memcache.NewStore(cacheTTL) }

	sessions := session.NewManager(
		newSessionCache,
		drafts,
		assets,
		time.Duration(appConfig.Session.IdleTTLMinutes)*time.Minute,
		baseLogger,
	)

	// --- 4. Use cases ---
	ucs := rest.UseCases{
		UpdateFormField:   usecase.NewUpdateFormFieldUseCase(sessions),
		ValidateForm:      usecase.NewValidateFormUseCase(sessions),
		GetForm:           usecase.NewGetFormUseCase(sessions),
		StartSearch:       usecase.NewStartSearchUseCase(sessions, backendClient),
		LoadMore:          usecase.NewLoadMoreUseCase(sessions, backendClient),
		GetSearchState:    usecase.NewGetSearchStateUseCase(sessions),
		TeardownSearch:    usecase.NewTeardownSearchUseCase(sessions),
		SaveSearch:        usecase.NewSaveSearchUseCase(sessions, backendClient),
		ToggleFavorite:    usecase.NewToggleFavoriteUseCase(sessions, backendClient, sseNotifier, globalCache),
		GetFavorites:      usecase.NewGetFavoritesUseCase(sessions, backendClient),
		GetMapClusters:    usecase.NewGetMapClustersUseCase(globalCache, backendClient),
		GetListing:        usecase.NewGetListingUseCase(sessions, backendClient),
		AddUploadFiles:    usecase.NewAddUploadFilesUseCase(sessions, assets),
		RemoveUploadAsset: usecase.NewRemoveUploadAssetUseCase(sessions, assets),
		GetUploadAssets:   usecase.NewGetUploadAssetsUseCase(sessions),
		SubmitOffer:       usecase.NewSubmitOfferUseCase(sessions, backendClient, assets, sseNotifier),
		RequestViewing:    usecase.NewRequestViewingUseCase(sessions, backendClient),
		DropSession:       usecase.NewDropSessionUseCase(sessions, drafts, sseNotifier),
	}
	appLogger.Info("All use cases initialized", nil)

	apiHandlers := rest.NewEngineHandler(ucs, sseNotifier)
	apiServer := rest.NewServer(appConfig.Rest.Port, appConfig.Rest.AllowedOrigins, apiHandlers, baseLogger)

	return &App{
		config:       appConfig,
		apiServer:    apiServer,
		sessions:     sessions,
		globalCache:  globalCache,
		logger:       appLogger,
		fluentClient: fluentClient,
	}, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if a.apiServer != nil {
			if err := a.apiServer.Stop(context.Background()); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// Пишем в stdout: fluent может быть уже недоступен
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	// Фоновые уборщики: вытеснение неактивных сессий и чистка
	// протухших записей глобального кеша.
	go a.sessions.Run(appCtx)
	go a.globalCache.Janitor(appCtx, time.Minute)

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.Port})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	case err := <-serverErrors:
		a.logger.Error("HTTP server failed to start, shutting down", err, nil)
	}

	cancelApp()

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
