package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/ricemill/analytics/internal/domain"
	"github.com/ricemill/analytics/internal/ledger"
)

type batchRepository struct {
	db *DB
}

// NewBatchRepository builds a BatchReader over the production batch tables.
func NewBatchRepository(db *DB) ledger.BatchReader {
	return &batchRepository{db: db}
}

func (r *batchRepository) ListBatches(ctx context.Context, filter domain.BatchFilter) ([]domain.ProductionBatch, error) {
	if err := filter.Range.Validate(); err != nil {
		return nil, err
	}

	query := `
        SELECT
            id, batch_number, order_id, machine_id,
            COALESCE(operator_id, 0) AS operator_id,
            COALESCE(supervisor_id, 0) AS supervisor_id,
            batch_date, shift, status, started_at, ended_at
        FROM production_batches
        WHERE archived_at IS NULL
    `

	var args []interface{}
	var conditions []string
	argCounter := 1

	if filter.MachineID > 0 {
		conditions = append(conditions, fmt.Sprintf("machine_id = $%d", argCounter))
		args = append(args, filter.MachineID)
		argCounter++
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d::text[])", argCounter))
		args = append(args, pq.Array(statuses))
		argCounter++
	}

	if !filter.Range.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("batch_date >= $%d", argCounter))
		args = append(args, filter.Range.From)
		argCounter++
	}

	if !filter.Range.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("batch_date <= $%d", argCounter))
		args = append(args, filter.Range.To)
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY batch_date ASC, id ASC"

	var batches []domain.ProductionBatch
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, fmt.Errorf("error listing production batches: %w", err)
	}

	if err := r.attachLines(ctx, batches); err != nil {
		return nil, err
	}

	return batches, nil
}

// attachLines populates Inputs and Outputs for the listed batches in two
// queries instead of one per batch.
func (r *batchRepository) attachLines(ctx context.Context, batches []domain.ProductionBatch) error {
	if len(batches) == 0 {
		return nil
	}

	ids := make([]int64, len(batches))
	index := make(map[int64]*domain.ProductionBatch, len(batches))
	for i := range batches {
		ids[i] = batches[i].ID
		index[batches[i].ID] = &batches[i]
	}

	var inputs []domain.BatchInput
	err := r.db.SelectContext(ctx, &inputs, `
        SELECT id, batch_id, product_id, quantity, unit_cost
        FROM production_batch_inputs
        WHERE batch_id = ANY($1::bigint[])
        ORDER BY id
    `, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error listing batch inputs: %w", err)
	}
	for _, in := range inputs {
		if b, ok := index[in.BatchID]; ok {
			b.Inputs = append(b.Inputs, in)
		}
	}

	var outputs []domain.BatchOutput
	err = r.db.SelectContext(ctx, &outputs, `
        SELECT id, batch_id, product_id, quantity, quality_score
        FROM production_batch_outputs
        WHERE batch_id = ANY($1::bigint[])
        ORDER BY id
    `, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error listing batch outputs: %w", err)
	}
	for _, out := range outputs {
		if b, ok := index[out.BatchID]; ok {
			b.Outputs = append(b.Outputs, out)
		}
	}

	return nil
}

func (r *batchRepository) ListMachines(ctx context.Context) ([]domain.Machine, error) {
	var machines []domain.Machine
	err := r.db.SelectContext(ctx, &machines, `
        SELECT id, code, name, capacity_per_hour, active
        FROM machines
        WHERE active
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("error listing machines: %w", err)
	}
	return machines, nil
}

func (r *batchRepository) GetMachine(ctx context.Context, id int64) (domain.Machine, error) {
	var machine domain.Machine
	err := r.db.GetContext(ctx, &machine, `
        SELECT id, code, name, capacity_per_hour, active
        FROM machines
        WHERE id = $1
    `, id)
	if errors.Is(err, sql.ErrNoRows) {
		return machine, fmt.Errorf("machine %d not found", id)
	}
	if err != nil {
		return machine, fmt.Errorf("error getting machine: %w", err)
	}
	return machine, nil
}
