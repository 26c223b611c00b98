package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"contas/internal/amqp"
	"contas/internal/config"
	"contas/internal/log"
	"contas/internal/services"
	"contas/internal/store"
	"contas/internal/store/memory"
	"contas/internal/store/sqlite"
)

// The reminder worker scans every account on an interval and publishes
// due-expense and closing-day reminders to the reminder queue.
func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.DefaultConfig().Level,
		Component: log.ComponentReminder,
	})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var recordStore store.RecordStore
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		recordStore = repo
	default:
		recordStore = memory.New()
		logger.Warn("Memory backend holds no records across restarts; reminders will only cover records created by this process")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExportQueue, cfg.AMQPReminderQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ledger := services.NewLedger(recordStore, nil)
	scanner := services.NewReminderScanner(ledger, client)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Reminder worker started",
		"interval", cfg.ReminderInterval,
		"backend", cfg.DataBackend,
		"queue", cfg.AMQPReminderQueue)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ReminderInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				sent, err := scanner.ScanAll(ctx, now)
				if err != nil {
					logger.Error("Reminder scan failed", "error", err)
					continue
				}
				if sent > 0 {
					logger.Info("Reminder scan complete", "reminders_sent", sent)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Reminder worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Reminder worker stopped gracefully")
}
