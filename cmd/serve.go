package main

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/health"

	grpcrouter "github.com/dtroode/eventhub-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/eventhub-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/eventhub-server/internal/api/http/context"
	"github.com/dtroode/eventhub-server/internal/api/http/handler"
	"github.com/dtroode/eventhub-server/internal/api/http/middleware"
	httprouter "github.com/dtroode/eventhub-server/internal/api/http/router"
	"github.com/dtroode/eventhub-server/internal/config"
	"github.com/dtroode/eventhub-server/internal/kv"
	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/oauth"
	"github.com/dtroode/eventhub-server/internal/probe"
	"github.com/dtroode/eventhub-server/internal/redirect"
	"github.com/dtroode/eventhub-server/internal/repository/postgres"
	"github.com/dtroode/eventhub-server/internal/server"
	"github.com/dtroode/eventhub-server/internal/service"
	"github.com/dtroode/eventhub-server/internal/session"
	storage "github.com/dtroode/eventhub-server/internal/storage/minio"
	"github.com/dtroode/eventhub-server/internal/token"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway and the gRPC health server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to parse config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)
	logAppVersion()

	frontendURL, err := url.Parse(cfg.FrontendURL)
	if err != nil {
		return fmt.Errorf("failed to parse frontend url: %w", err)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN,
		postgres.WithPoolSize(cfg.Database.MaxConns, cfg.Database.MinConns),
		postgres.WithMaxConnIdleTime(cfg.Database.MaxConnIdleTime),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	redisClient, err := kv.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redisClient.Close()

	minioClient, err := storage.Dial(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		return fmt.Errorf("failed to initialize storage client: %w", err)
	}

	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	clientStore := kv.NewRedis(redisClient, cfg.Redis.KeyPrefix,
		kv.WithKeyTTL(redirect.StorageKey, model.PendingRedirectTTL),
	)

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, userRepo, cfg.JWT.RefreshTTL, logger,
		service.WithRotationGrace(cfg.JWT.RotationGrace),
	)
	provider := oauth.NewProvider(cfg.OAuth, cfg.CallbackURL())
	sessionService := service.NewSession(
		tokenService,
		userRepo,
		provider,
		session.NewCookieStore(cfg.Session, cfg.JWT.RefreshTTL),
		session.NewCookieStore(cfg.Session, session.FlowTTL),
		logger,
	)
	onboardingService := service.NewOnboarding(profileRepo, storageClient, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	checks := probe.Checks{
		"postgres": db,
		"redis": probe.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}

	ctxMgr := httpctx.NewManager()
	state := handler.NewClientState(clientStore, ctxMgr, logger)
	handlers := httprouter.Handlers{
		Auth:       handler.NewAuth(sessionService, profileRepo, state, provider.Name(), cfg.BaseURL, cfg.AdmissionTimeout, logger),
		Redirects:  handler.NewRedirects(state),
		Wizard:     handler.NewWizard(state, logger),
		Onboarding: handler.NewOnboarding(onboardingService, state, ctxMgr, logger),
		Health:     handler.NewHealth(checks, cfg.AdmissionTimeout, logger),
	}
	gate := middleware.NewGate(sessionService, profileRepo, ctxMgr, cfg.AdmissionTimeout, logger, registry)
	frontend := httprouter.NewFrontendProxy(frontendURL, logger)

	httpHandler := httprouter.New(handlers, gate, sessionService, ctxMgr, frontend, registry, cfg.Session.Secure, logger).Register()
	httpSrv := server.NewHTTPServer(httpHandler, fmt.Sprintf(":%s", cfg.HTTP.Port), cfg.HTTP.ReadHeaderTimeout)

	healthServer := health.NewServer()
	grpcSrv := grpcServer.NewGRPCServer(grpcrouter.New(healthServer, logger).Register(), fmt.Sprintf(":%s", cfg.GRPC.Port))

	prober := probe.NewProber(healthServer, checks, cfg.GRPC.ProbeInterval, logger)
	janitor := service.NewJanitor(refreshTokenRepo, cfg.JWT.PurgeInterval, cfg.JWT.PurgeRetention, logger)

	var wg sync.WaitGroup
	start := func(s model.Server, sl model.SecurityLayer) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
			}
		}()
	}
	start(httpSrv, server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName))
	start(grpcSrv, server.NewPlainListener())

	wg.Add(2)
	go func() {
		defer wg.Done()
		prober.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		janitor.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, s := range []model.Server{httpSrv, grpcSrv} {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
	return nil
}
