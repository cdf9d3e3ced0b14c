package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/zed38662/Solo-leveling/internal/adapters/cache"
	"github.com/zed38662/Solo-leveling/internal/adapters/playerrepository"
	"github.com/zed38662/Solo-leveling/internal/adapters/questprovider"
	"github.com/zed38662/Solo-leveling/internal/app"
	"github.com/zed38662/Solo-leveling/internal/config"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/ports"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/telemetry"
)

// TODO: Put in config
const PROD_DOMAIN_SUFFIX = "solo-leveling.app"
const STAGING_DOMAIN_SUFFIX = "solo-leveling.pages.dev"

func main() {
	ctx := context.Background()

	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	if project := config.GCPProject(); project != "" {
		// Attach trace ids to log records so cloud logging can correlate them
		handler := logging.NewGoogleCloudTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil), project)
		logger = slog.New(handler).With("instanceID", instanceID)
	}

	logger.Info("Loaded config", "config", config.NonSensitiveString())

	shutdownTelemetry, err := telemetry.SetupOTelSDK(ctx, "sololeveling")
	if err != nil {
		fail("Failed to initialize telemetry", "error", err.Error())
	}
	defer func() {
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Error("Failed to shut down telemetry", "error", err.Error())
		}
	}()

	playerCache := cache.NewTTLCache[*domain.PlayerStats](1 * time.Minute)
	generationCache := cache.NewBasicCache[*domain.QuestLedger]()

	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   60 * time.Second, // Completions can be slow
	}
	completionAPI, err := questprovider.NewCompletionAPIOrMock(config, httpClient)
	if err != nil {
		fail("Failed to initialize completion API", "error", err.Error())
	}
	logger.Info("Initialized completion API")

	questProvider, err := questprovider.NewCompletionQuestProvider(completionAPI, time.Now, time.After)
	if err != nil {
		fail("Failed to initialize quest provider", "error", err.Error())
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	playerRepo, err := playerrepository.NewPostgresPlayerRepositoryOrMock(ctx, config, logger)
	if err != nil {
		fail("Failed to initialize PlayerRepository", "error", err.Error())
	}
	logger.Info("Initialized PlayerRepository")

	allowedOrigins, err := ports.NewDomainSuffixes(PROD_DOMAIN_SUFFIX, STAGING_DOMAIN_SUFFIX)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	getPlayerWithCache := app.BuildGetPlayerWithCache(playerCache, playerRepo, time.Now)
	getQuests := app.BuildGetQuests(playerRepo)
	chooseClass := app.BuildChooseClass(playerCache, playerRepo, time.Now)
	generateQuests := app.BuildGenerateQuests(generationCache, questProvider, playerRepo, time.Now)
	completeQuest := app.BuildCompleteQuest(playerCache, playerRepo, time.Now)
	getHistory := app.BuildGetHistory(playerRepo)

	http.HandleFunc(
		"OPTIONS /v1/player/{uuid}",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/player/{uuid}",
		ports.MakeGetPlayerHandler(
			getPlayerWithCache,
			getQuests,
			allowedOrigins,
			logger.With("port", "getplayer"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/player/{uuid}/class",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"POST /v1/player/{uuid}/class",
		ports.MakeChooseClassHandler(
			chooseClass,
			allowedOrigins,
			logger.With("port", "chooseclass"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/player/{uuid}/quests",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"POST /v1/player/{uuid}/quests",
		ports.MakeGenerateQuestsHandler(
			generateQuests,
			allowedOrigins,
			logger.With("port", "generatequests"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/player/{uuid}/quests/{index}/complete",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"POST /v1/player/{uuid}/quests/{index}/complete",
		ports.MakeCompleteQuestHandler(
			completeQuest,
			allowedOrigins,
			logger.With("port", "completequest"),
			sentryMiddleware,
		),
	)

	http.HandleFunc(
		"OPTIONS /v1/player/{uuid}/history",
		ports.BuildCORSHandler(allowedOrigins),
	)
	http.HandleFunc(
		"GET /v1/player/{uuid}/history",
		ports.MakeGetHistoryHandler(
			getHistory,
			allowedOrigins,
			logger.With("port", "history"),
			sentryMiddleware,
		),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), nil)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
