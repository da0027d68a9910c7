// Command nightly runs one nightly cycle and exits. It is meant to be
// triggered by cron at the lock deadline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Faheem12005/pathable-backend/config"
	"github.com/Faheem12005/pathable-backend/internal/app"
	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"github.com/Faheem12005/pathable-backend/pkg/database"
	"github.com/Faheem12005/pathable-backend/pkg/rabbitmq"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "nightly:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	var (
		today    string
		allocate string
		workers  int
		noEvents bool
	)
	fs := pflag.NewFlagSet("nightly", pflag.ContinueOnError)
	fs.StringVar(&today, "today", "", "treat this date (YYYY-MM-DD) as today; defaults to the current date in TIMEZONE")
	fs.StringVar(&allocate, "allocate-only", "", "only run allocation for this date (YYYY-MM-DD)")
	fs.IntVar(&workers, "workers", cfg.AllocationWorkers, "concurrent allocations per phase")
	fs.BoolVar(&noEvents, "no-events", !cfg.RabbitEnabled, "do not publish notifications")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	cfg.AllocationWorkers = workers

	logger := app.NewLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		return err
	}

	var publisher service.EventPublisher
	if !noEvents {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		publisher = pub
	}
	svc := app.Build(cfg, db, publisher, logger)

	if allocate != "" {
		date, err := models.ParseServiceDate(allocate)
		if err != nil {
			return err
		}
		stats, err := svc.Engine.RunAllocation(ctx, date)
		if err != nil {
			return err
		}
		return printJSON(stats)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	day := time.Now().In(loc)
	if today != "" {
		if day, err = models.ParseServiceDate(today); err != nil {
			return err
		}
	}

	report, err := svc.Scheduler.RunNightly(ctx, day)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
