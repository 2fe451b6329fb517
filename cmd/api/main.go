package main

import (
	"context"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"strava-directus-layer/internal/application"
	"strava-directus-layer/internal/application/webhook_handlers"
	"strava-directus-layer/internal/config"
	"strava-directus-layer/internal/httpapi"
	"strava-directus-layer/internal/infrastructure/authproxy"
	"strava-directus-layer/internal/infrastructure/cms"
	"strava-directus-layer/internal/infrastructure/enrichment"
	"strava-directus-layer/internal/infrastructure/metrics"
	securitymiddleware "strava-directus-layer/internal/infrastructure/middleware"
	"strava-directus-layer/internal/infrastructure/pubsub"
	"strava-directus-layer/internal/infrastructure/repository"
	"strava-directus-layer/internal/infrastructure/strava"
	"strava-directus-layer/internal/infrastructure/verify"
	"strava-directus-layer/internal/ports"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Audit log is optional: no Mongo URI means no audit trail.
	var eventLog ports.EventLog
	if cfg.MongoURI != "" {
		client, err := mongo.Connect(context.Background(), mongooptions.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())
		eventLog = repository.NewMongoEventLog(client.Database(cfg.MongoDatabase))
		logger.Info().Str("database", cfg.MongoDatabase).Msg("Webhook audit log enabled")
	}

	// Verification-token store: Redis when configured, process memory
	// otherwise.
	var verifyStore ports.VerifyTokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		verifyStore = verify.NewRedisStore(redisClient)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis verification-token store")
	} else {
		verifyStore = verify.NewMemoryStore()
	}

	stravaClient := strava.NewClient(strava.Options{
		BaseURL: cfg.StravaAPIURL,
		Logger:  logger,
	})
	proxyClient := authproxy.NewClient(cfg.AuthProxyURL, nil, logger)
	cmsAuth := cms.NewAuthClient(cfg.CMSURL, nil, logger)
	contentStore := cms.NewStore(cms.StoreOptions{
		BaseURL:      cfg.CMSURL,
		Collection:   cfg.CMSCollection,
		ServiceToken: cfg.CMSServiceToken,
		Logger:       logger,
	})
	enrichmentClient := enrichment.NewClient(cfg.EnrichmentURL, nil, logger)

	tokens := application.NewTokenCache()
	syncService := application.NewActivitySyncService(contentStore, stravaClient, enrichmentClient, eventLog, nil, m, logger)
	subscriptions := application.NewSubscriptionService(proxyClient, verifyStore, cfg.WebhookCallbackURL(), logger)

	dispatcher := application.NewWebhookDispatcher(logger)
	dispatcher.RegisterHandler(webhook_handlers.NewActivityHandler(syncService, tokens, logger))

	bus := pubsub.NewEventBus(logger)
	worker := application.NewSyncWorker(bus, dispatcher, eventLog, m, logger)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	guard := securitymiddleware.SessionGuard(securitymiddleware.SessionGuardConfig{
		CMSAuth:   cmsAuth,
		LoginURL:  cmsAuth.LoginURL(),
		AuthProxy: proxyClient,
		Tokens:    tokens,
		Metrics:   m,
		Logger:    logger,
	})

	server := &httpapi.Server{
		Logger:          logger,
		Bus:             bus,
		VerifyStore:     verifyStore,
		Sync:            syncService,
		Subscriptions:   subscriptions,
		Platform:        stravaClient,
		AuthProxy:       proxyClient,
		Tokens:          tokens,
		SessionGuard:    guard,
		WebhookSecret:   cfg.WebhookSecret,
		AuthorizeURL:    cfg.AuthorizeURL,
		SwaggerSpecPath: "./docs/swagger.json",
		SetBundleCookie: securitymiddleware.SetBundleCookie,
	}

	logger.Info().Str("port", cfg.HTTPPort).Str("callback", cfg.WebhookCallbackURL()).Msg("Starting sync layer")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, server.Router()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
