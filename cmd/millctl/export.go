package main

import (
	"fmt"
	"time"

	"github.com/ricemill/analytics/internal/config"
	"github.com/ricemill/analytics/internal/domain"
	"github.com/ricemill/analytics/internal/export"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func newExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Publish an analytics report to object storage",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:     "report",
				Usage:    "Report to export: reorder, abc or waste",
				Required: true,
			},
			&cli.Int64Flag{
				Name:  "warehouse-id",
				Usage: "Limit the report to one warehouse (0 means all)",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "Trailing window in days for ranged reports",
				Value: 90,
			},
		},
		Before: initDB,
		After:  closeDB,
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	cfg := config.Load()
	storage, err := export.NewMinioClient(cfg.Export)
	if err != nil {
		return err
	}
	exporter := export.NewExporter(storage, cfg.Export.Prefix)

	svc := serviceFrom(c)
	rng := domain.TrailingDays(c.Int("days"))
	now := time.Now()

	var key string
	switch report := c.String("report"); report {
	case "reorder":
		points, err := svc.ReorderReport(c.Context, c.Int64("warehouse-id"))
		if err != nil {
			return err
		}
		key, err = exporter.ExportReorderReport(c.Context, points, now)
		if err != nil {
			return err
		}
	case "abc":
		entries, err := svc.ClassifyProducts(c.Context, c.Int64("warehouse-id"), rng)
		if err != nil {
			return err
		}
		key, err = exporter.ExportABCAnalysis(c.Context, entries, now)
		if err != nil {
			return err
		}
	case "waste":
		reports, err := svc.WasteByProduct(c.Context, rng)
		if err != nil {
			return err
		}
		key, err = exporter.ExportWasteReport(c.Context, reports, now)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown report %q, expected reorder, abc or waste", report)
	}

	log.Info().Str("key", key).Msg("report exported")
	return nil
}
