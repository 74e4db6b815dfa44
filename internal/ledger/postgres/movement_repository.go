package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ricemill/analytics/internal/domain"
	"github.com/ricemill/analytics/internal/ledger"
)

type movementRepository struct {
	db *DB
}

// NewMovementRepository builds a MovementReader over the stock_movements
// ledger table.
func NewMovementRepository(db *DB) ledger.MovementReader {
	return &movementRepository{db: db}
}

func (r *movementRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	if err := filter.Range.Validate(); err != nil {
		return nil, err
	}

	query := `
        SELECT
            id, product_id, warehouse_id, movement_type, category,
            quantity, unit_cost, movement_at, COALESCE(reference, '') AS reference, created_at
        FROM stock_movements
        WHERE 1=1
    `

	var args []interface{}
	var conditions []string
	argCounter := 1

	if filter.ProductID > 0 {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argCounter))
		args = append(args, filter.ProductID)
		argCounter++
	}

	if filter.WarehouseID > 0 {
		conditions = append(conditions, fmt.Sprintf("warehouse_id = $%d", argCounter))
		args = append(args, filter.WarehouseID)
		argCounter++
	}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("movement_type = $%d", argCounter))
		args = append(args, filter.Type)
		argCounter++
	}

	if !filter.Range.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("movement_at >= $%d", argCounter))
		args = append(args, filter.Range.From)
		argCounter++
	}

	if !filter.Range.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("movement_at <= $%d", argCounter))
		args = append(args, filter.Range.To)
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	if filter.Order == domain.SortDescending {
		query += " ORDER BY movement_at DESC, id DESC"
	} else {
		query += " ORDER BY movement_at ASC, id ASC"
	}

	var movements []domain.StockMovement
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, fmt.Errorf("error listing stock movements: %w", err)
	}

	return movements, nil
}
