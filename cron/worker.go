package cron

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"taskora/config"
	"taskora/services/booking"
	"taskora/utils"
)

const (
	TypeExpirySweep         = "sweep:expire"
	TypeAvailabilityCleanup = "availability:cleanup"

	// jobLockTTL keeps a second server instance from re-running a daily job.
	jobLockTTL = 20 * time.Hour
)

// InitJobWorker starts the async worker and the daily schedule in background.
func InitJobWorker(engine booking.BookingEngine) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpirySweep, handleExpirySweep(engine))
	mux.HandleFunc(TypeAvailabilityCleanup, handleAvailabilityCleanup(engine))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.Local})
	if _, err := scheduler.Register("0 3 * * *", asynq.NewTask(TypeExpirySweep, nil)); err != nil {
		log.Fatalf("[JobWorker] failed to register expiry sweep: %v", err)
	}
	if _, err := scheduler.Register("30 3 * * *", asynq.NewTask(TypeAvailabilityCleanup, nil)); err != nil {
		log.Fatalf("[JobWorker] failed to register availability cleanup: %v", err)
	}

	// Start async worker with retry logic
	go func() {
		log.Println("[JobWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[JobWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[JobWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[JobWorker] scheduler stopped: %v", err)
		}
	}()
}

// handleExpirySweep runs the daily booking expiry pass. The Redis day-lock
// makes the job a no-op when another instance already ran it today; the sweep
// itself is also idempotent per booking.
func handleExpirySweep(engine booking.BookingEngine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		day := time.Now().Format("2006-01-02")
		ok, err := utils.AcquireDailyLock(ctx, "expiry-sweep", day, jobLockTTL)
		if err != nil {
			log.Printf("[ExpirySweep] lock check failed: %v", err)
			return err
		}
		if !ok {
			log.Printf("[ExpirySweep] already ran for %s, skipping", day)
			return nil
		}

		report, err := engine.RunExpirySweep(ctx)
		if err != nil {
			log.Printf("[ExpirySweep] sweep failed: %v", err)
			return err
		}
		log.Printf("[ExpirySweep] done: scanned=%d expired=%d refunded=%d failed=%d",
			report.Scanned, report.Expired, report.Refunded, report.Failed)
		return nil
	}
}

// handleAvailabilityCleanup prunes past-dated overrides and leave periods.
func handleAvailabilityCleanup(engine booking.BookingEngine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		day := time.Now().Format("2006-01-02")
		ok, err := utils.AcquireDailyLock(ctx, "availability-cleanup", day, jobLockTTL)
		if err != nil {
			log.Printf("[AvailabilityCleanup] lock check failed: %v", err)
			return err
		}
		if !ok {
			log.Printf("[AvailabilityCleanup] already ran for %s, skipping", day)
			return nil
		}

		n, err := engine.CleanupAvailability(ctx)
		if err != nil {
			log.Printf("[AvailabilityCleanup] cleanup failed: %v", err)
			return err
		}
		log.Printf("[AvailabilityCleanup] done: providersTouched=%d", n)
		return nil
	}
}
