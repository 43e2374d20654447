package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/domain"
	"genstudio/internal/generation"
	"genstudio/internal/http/handlers"
	"genstudio/internal/http/httpapi"
	"genstudio/internal/infra"
	"genstudio/internal/infra/geoip"
	"genstudio/internal/providers/fal"
	"genstudio/internal/providers/gmi"
	"genstudio/internal/providers/image"
	"genstudio/internal/providers/video"
	"genstudio/internal/vouchers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := infra.Migrate(ctx, cfg); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	runner := infra.NewSQLRunner(pool, logger)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	countries, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, locale falls back to Accept-Language")
	}

	keyRepo := repo.NewAPIKeyRepo(runner)
	creditRepo := repo.NewCreditRepo(runner)
	genRepo := repo.NewGenerationRepo(runner)
	voucherRepo := repo.NewVoucherRepo(runner)

	falClient := fal.NewClient(fal.Options{BaseURL: cfg.FalBaseURL, Logger: &logger})
	gmiClient := gmi.NewClient(gmi.Options{BaseURL: cfg.GMIBaseURL, Logger: &logger})

	svc, err := generation.NewService(generation.Options{
		Credits:     creditRepo,
		Credentials: keyRepo,
		Jobs:        genRepo,
		Reconciler:  generation.NewPGReconciler(runner),
		Images: map[domain.Server]image.Generator{
			domain.Server1: fal.NewImageGenerator(falClient),
			domain.Server2: gmi.NewImageGenerator(gmiClient),
		},
		Videos: map[domain.Server]video.Provider{
			domain.Server1: fal.NewVideoProvider(falClient),
			domain.Server2: gmi.NewVideoProvider(),
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generation service")
	}

	lockout := vouchers.NewLockout(rdb, cfg.VoucherLockAttempts, cfg.VoucherLockWindow)
	voucherSvc := vouchers.NewService(voucherRepo, lockout, logger)

	app := &handlers.App{
		Config:    cfg,
		Logger:    logger,
		Generator: svc,
		Credits:   creditRepo,
		History:   genRepo,
		Keys:      keyRepo,
		Vouchers:  voucherSvc,
	}

	router := httpapi.NewRouter(app, countries)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
