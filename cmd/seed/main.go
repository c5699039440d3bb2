package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/uptrace/bun"

	"ms-guests/internal/auth"
	"ms-guests/internal/config"
	"ms-guests/internal/database"
	"ms-guests/internal/database/migrations"
	guestdb "ms-guests/internal/guests/db"
	"ms-guests/internal/guests/qr"
	"ms-guests/internal/logger"
	planningdb "ms-guests/internal/planning/db"
	planning "ms-guests/internal/planning/service"
	"ms-guests/internal/seed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		reset      bool
		agentID    string
		tokenTTL   time.Duration
		printToken bool
	)
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.BoolVar(&reset, "reset", false, "drop and recreate the schema before seeding (destroys all data)")
	flagSet.BoolVar(&printToken, "agent-token", false, "print an HS256 agent token for AUTH_MODE=hs256")
	flagSet.StringVar(&agentID, "agent-id", "demo-agent", "subject of the printed agent token")
	flagSet.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the printed agent token")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewLogger(logger.Options{Service: "seed", MinLevel: logger.ParseLevel(cfg.Log.Level)})
	defer log.Close()

	ctx := context.Background()
	bunDB, err := database.Open(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer bunDB.Close()

	if err := prepare(ctx, cfg, bunDB, reset, log); err != nil {
		return err
	}

	store := &planningdb.DB{Bun: bunDB}
	svc := planning.NewPlanningService(store, &guestdb.DB{Bun: bunDB}, qr.NewQRGenerator(cfg.Portal.BaseURL), nil, log)

	res, err := seed.Demo(ctx, svc, store)
	if err != nil {
		return err
	}
	if res.Skipped {
		log.Info("SEED", "Events already exist, nothing to seed")
	} else {
		log.Info("SEED", fmt.Sprintf("Seeded %q (%s)", res.Event.Name, res.Event.EventCode))
		fmt.Printf("Demo guest:   %s (ref %s)\n", res.Guest.Name, res.Guest.BookingRef)
		fmt.Printf("Portal link:  %s\n", qr.NewQRGenerator(cfg.Portal.BaseURL).PortalLink(res.Guest.AccessToken))
	}

	if printToken {
		token, err := auth.IssueAgentToken(cfg.Auth.HMACSecret, agentID, tokenTTL)
		if err != nil {
			return fmt.Errorf("failed to issue agent token: %w", err)
		}
		fmt.Printf("Agent token:  %s\n", token)
	}
	return nil
}

// prepare brings the schema up to date: SQLite gets the model-derived
// schema, Postgres the migrations.
func prepare(ctx context.Context, cfg *config.Config, bunDB *bun.DB, reset bool, log *logger.Logger) error {
	if cfg.Database.Driver == database.DriverSQLite {
		if reset {
			if err := database.DropSchema(ctx, bunDB); err != nil {
				return fmt.Errorf("failed to drop schema: %w", err)
			}
		}
		return database.CreateSchema(ctx, bunDB)
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: cfg.Migrations.Dir, AutoMigrate: true}, log)
	defer runner.Close()
	if reset {
		log.Warn("SEED", "Rolling back all migrations")
		if err := runner.MigrateDown(); err != nil {
			return err
		}
	}
	return runner.RunMigrations()
}
