package main

import (
	"github.com/ricemill/analytics/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func newSweepCommand() *cli.Command {
	warehouseFlag := &cli.Int64Flag{
		Name:  "warehouse-id",
		Usage: "Limit the sweep to one warehouse (0 means all)",
	}

	return &cli.Command{
		Name:  "sweep",
		Usage: "Run an analytics sweep across the inventory",
		Subcommands: []*cli.Command{
			{
				Name:  "valuation",
				Usage: "Recompute inventory snapshots from the movement ledger",
				Flags: []cli.Flag{
					newDBURLFlag(),
					warehouseFlag,
					&cli.StringFlag{
						Name:  "method",
						Usage: "Valuation method: fifo, lifo or weighted_average",
						Value: string(domain.DefaultValuationMethod),
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runValuationSweep,
			},
			{
				Name:  "reorder",
				Usage: "Compute reorder recommendations for every snapshot",
				Flags: []cli.Flag{
					newDBURLFlag(),
					warehouseFlag,
				},
				Before: initDB,
				After:  closeDB,
				Action: runReorderSweep,
			},
		},
	}
}

func runValuationSweep(c *cli.Context) error {
	svc := serviceFrom(c)
	method := domain.ValuationMethod(c.String("method"))

	reconciled, err := svc.ReconcileSnapshots(c.Context, c.Int64("warehouse-id"), method)
	if err != nil {
		return err
	}

	log.Info().Int("snapshots", reconciled).Str("method", method.String()).Msg("valuation sweep complete")
	return nil
}

func runReorderSweep(c *cli.Context) error {
	svc := serviceFrom(c)

	points, err := svc.ReorderReport(c.Context, c.Int64("warehouse-id"))
	if err != nil {
		return err
	}

	needsReorder := 0
	critical := 0
	for _, p := range points {
		if p.RequiresReorder {
			needsReorder++
		}
		if p.UrgencyLevel == domain.UrgencyCritical {
			critical++
		}
	}

	log.Info().
		Int("items", len(points)).
		Int("requires_reorder", needsReorder).
		Int("critical", critical).
		Msg("reorder sweep complete")

	for _, p := range points {
		if !p.RequiresReorder {
			continue
		}
		log.Info().
			Int64("product_id", p.ProductID).
			Int64("warehouse_id", p.WarehouseID).
			Float64("current_stock", p.CurrentStock).
			Float64("reorder_point", p.ReorderPoint).
			Int("days_until_stockout", p.DaysUntilStockout).
			Str("urgency", string(p.UrgencyLevel)).
			Msg("reorder needed")
	}
	return nil
}
