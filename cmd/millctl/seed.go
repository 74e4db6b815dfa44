package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func newSeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load movement and machine data from CSV files",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:    "movements-csv",
				Usage:   "Stock movements CSV file",
				EnvVars: []string{"SEED_MOVEMENTS_CSV"},
			},
			&cli.StringFlag{
				Name:    "machines-csv",
				Usage:   "Machines CSV file",
				EnvVars: []string{"SEED_MACHINES_CSV"},
			},
			&cli.StringFlag{
				Name:    "batches-csv",
				Usage:   "Production batches CSV file",
				EnvVars: []string{"SEED_BATCHES_CSV"},
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Truncate the target tables before loading",
			},
		},
		Before: initDB,
		After:  closeDB,
		Action: runSeed,
	}
}

func runSeed(c *cli.Context) error {
	db := dbFrom(c)
	if db == nil {
		return fmt.Errorf("database connection not found in context")
	}

	if c.Bool("reset") {
		log.Info().Msg("resetting ledger tables")
		resetQuery := `
			TRUNCATE TABLE stock_movements RESTART IDENTITY CASCADE;
			TRUNCATE TABLE production_batches RESTART IDENTITY CASCADE;
			TRUNCATE TABLE machines RESTART IDENTITY CASCADE;
		`
		if _, err := db.ExecContext(c.Context, resetQuery); err != nil {
			return fmt.Errorf("failed to reset ledger tables: %w", err)
		}
	}

	if path := c.String("movements-csv"); path != "" {
		n, err := seedMovements(c, db, path)
		if err != nil {
			return fmt.Errorf("seed movements from %s: %w", path, err)
		}
		log.Info().Int("rows", n).Str("file", path).Msg("movements loaded")
	}

	if path := c.String("machines-csv"); path != "" {
		n, err := seedMachines(c, db, path)
		if err != nil {
			return fmt.Errorf("seed machines from %s: %w", path, err)
		}
		log.Info().Int("rows", n).Str("file", path).Msg("machines loaded")
	}

	if path := c.String("batches-csv"); path != "" {
		n, err := seedBatches(c, db, path)
		if err != nil {
			return fmt.Errorf("seed batches from %s: %w", path, err)
		}
		log.Info().Int("rows", n).Str("file", path).Msg("batches loaded")
	}

	return nil
}

// seedMovements loads rows shaped as:
// product_id,warehouse_id,movement_type,category,quantity,unit_cost,movement_at,reference
func seedMovements(c *cli.Context, db *sqlx.DB, path string) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	const insert = `
		INSERT INTO stock_movements
			(product_id, warehouse_id, movement_type, category, quantity, unit_cost, movement_at, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	inserted := 0
	for i, row := range rows {
		if len(row) < 8 {
			return inserted, fmt.Errorf("row %d: expected 8 columns, got %d", i+2, len(row))
		}

		productID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad product_id %q", i+2, row[0])
		}
		warehouseID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad warehouse_id %q", i+2, row[1])
		}
		quantity, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad quantity %q", i+2, row[4])
		}
		movementAt, err := time.Parse(time.RFC3339, row[6])
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad movement_at %q", i+2, row[6])
		}

		if _, err := db.ExecContext(c.Context, insert,
			productID, warehouseID, row[2], row[3], quantity, row[5], movementAt, row[7]); err != nil {
			return inserted, fmt.Errorf("row %d: %w", i+2, err)
		}
		inserted++
	}

	return inserted, nil
}

// seedMachines loads rows shaped as: code,name,capacity_per_hour,active
func seedMachines(c *cli.Context, db *sqlx.DB, path string) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	const insert = `
		INSERT INTO machines (code, name, capacity_per_hour, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
		    capacity_per_hour = EXCLUDED.capacity_per_hour,
		    active = EXCLUDED.active`

	inserted := 0
	for i, row := range rows {
		if len(row) < 4 {
			return inserted, fmt.Errorf("row %d: expected 4 columns, got %d", i+2, len(row))
		}

		capacity, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad capacity_per_hour %q", i+2, row[2])
		}
		active, err := strconv.ParseBool(row[3])
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad active %q", i+2, row[3])
		}

		if _, err := db.ExecContext(c.Context, insert, row[0], row[1], capacity, active); err != nil {
			return inserted, fmt.Errorf("row %d: %w", i+2, err)
		}
		inserted++
	}

	return inserted, nil
}

// seedBatches loads flat rows shaped as:
// batch_number,order_id,machine_id,batch_date,shift,status,started_at,ended_at,
// input_product_id,input_quantity,input_unit_cost,output_product_id,output_quantity,quality_score
// with one input and one output line per batch.
func seedBatches(c *cli.Context, db *sqlx.DB, path string) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	const insertBatch = `
		INSERT INTO production_batches
			(batch_number, order_id, machine_id, batch_date, shift, status, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	const insertInput = `
		INSERT INTO production_batch_inputs (batch_id, product_id, quantity, unit_cost)
		VALUES ($1, $2, $3, $4)`
	const insertOutput = `
		INSERT INTO production_batch_outputs (batch_id, product_id, quantity, quality_score)
		VALUES ($1, $2, $3, $4)`

	inserted := 0
	for i, row := range rows {
		if len(row) < 14 {
			return inserted, fmt.Errorf("row %d: expected 14 columns, got %d", i+2, len(row))
		}

		orderID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad order_id %q", i+2, row[1])
		}
		machineID, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad machine_id %q", i+2, row[2])
		}
		batchDate, err := time.Parse("2006-01-02", row[3])
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad batch_date %q", i+2, row[3])
		}
		startedAt, err := nullTime(row[6])
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad started_at %q", i+2, row[6])
		}
		endedAt, err := nullTime(row[7])
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad ended_at %q", i+2, row[7])
		}

		var batchID int64
		if err := db.QueryRowContext(c.Context, insertBatch,
			row[0], orderID, machineID, batchDate, row[4], row[5], startedAt, endedAt).Scan(&batchID); err != nil {
			return inserted, fmt.Errorf("row %d: %w", i+2, err)
		}

		inputProduct, err := strconv.ParseInt(row[8], 10, 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad input_product_id %q", i+2, row[8])
		}
		inputQty, err := strconv.ParseFloat(row[9], 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad input_quantity %q", i+2, row[9])
		}
		if _, err := db.ExecContext(c.Context, insertInput, batchID, inputProduct, inputQty, row[10]); err != nil {
			return inserted, fmt.Errorf("row %d: %w", i+2, err)
		}

		outputProduct, err := strconv.ParseInt(row[11], 10, 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad output_product_id %q", i+2, row[11])
		}
		outputQty, err := strconv.ParseFloat(row[12], 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad output_quantity %q", i+2, row[12])
		}
		quality, err := strconv.ParseFloat(row[13], 64)
		if err != nil {
			return inserted, fmt.Errorf("row %d: bad quality_score %q", i+2, row[13])
		}
		if _, err := db.ExecContext(c.Context, insertOutput, batchID, outputProduct, outputQty, quality); err != nil {
			return inserted, fmt.Errorf("row %d: %w", i+2, err)
		}

		inserted++
	}

	return inserted, nil
}

func nullTime(raw string) (sql.NullTime, error) {
	if raw == "" {
		return sql.NullTime{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

// readCSV returns the data rows of a headered CSV file.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
