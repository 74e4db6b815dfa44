package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/ricemill/analytics/internal/cache"
	"github.com/ricemill/analytics/internal/config"
	"github.com/ricemill/analytics/internal/ledger/postgres"
	"github.com/ricemill/analytics/internal/service"
	"github.com/ricemill/analytics/pkg/logger"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sqlx.Connect("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sqlx.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *sqlx.DB {
	db, _ := c.Context.Value(dbKey).(*sqlx.DB)
	return db
}

func serviceFrom(c *cli.Context) *service.AnalyticsService {
	pdb := postgres.Wrap(dbFrom(c))
	cfg := config.Load()
	return service.NewAnalyticsService(
		postgres.NewMovementRepository(pdb),
		postgres.NewBatchRepository(pdb),
		postgres.NewSnapshotRepository(pdb),
		cache.NewNoopDashboardCache(),
		service.ParamsFromConfig(cfg.Analytics),
		cfg.Analytics.SweepWorkers,
	)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	logger.Setup(os.Getenv("SERVER_MODE"))

	app := &cli.App{
		Name:  "millctl",
		Usage: "Mill analytics maintenance commands",
		Commands: []*cli.Command{
			newSweepCommand(),
			newSeedCommand(),
			newExportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}
