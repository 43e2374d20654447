package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/domain"
	"genstudio/internal/generation"
	"genstudio/internal/infra"
	"genstudio/internal/providers/fal"
	"genstudio/internal/providers/gmi"
	"genstudio/internal/providers/image"
	"genstudio/internal/providers/video"
)

const claimInterval = 2 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	keyRepo := repo.NewAPIKeyRepo(runner)
	creditRepo := repo.NewCreditRepo(runner)
	genRepo := repo.NewGenerationRepo(runner)

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
		logger.Fatal().Err(err).Msg("worker: failed to configure generation service")
	}

	// Stale submitted jobs are failed on a schedule so their users see a
	// terminal status instead of a forever-pending row.
	maxAge := fmt.Sprintf("%d minutes", int(cfg.VideoJobMaxAge.Minutes()))
	sched := cron.New(cron.WithSeconds())
	if _, err := sched.AddFunc(cfg.WorkerSweepSpec, func() {
		swept, err := genRepo.SweepStaleVideoJobs(ctx, maxAge)
		if err != nil {
			logger.Error().Err(err).Msg("worker: sweep failed")
			return
		}
		if swept > 0 {
			logger.Warn().Int64("jobs", swept).Msg("worker: swept stale video jobs")
		}
	}); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.WorkerSweepSpec).Msg("worker: invalid sweep spec")
	}
	sched.Start()
	defer sched.Stop()

	logger.Info().Msg("worker: claim loop started")
	runClaimLoop(ctx, logger, genRepo, svc)
	logger.Info().Msg("worker: stopped")
}

// runClaimLoop pulls one submitted video job at a time and drives it to a
// terminal state. An empty queue backs off for claimInterval before the next
// attempt; job-level failures are recorded by the service and logged here.
func runClaimLoop(ctx context.Context, logger infra.Logger, queue generation.VideoJobQueue, svc *generation.Service) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := queue.ClaimVideoJob(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Error().Err(err).Msg("worker: claim failed")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(claimInterval):
			}
			continue
		}

		if err := svc.RunVideoJob(ctx, *job); err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: video job failed")
			continue
		}
		logger.Info().Str("job_id", job.ID).Msg("worker: video job completed")
	}
}
