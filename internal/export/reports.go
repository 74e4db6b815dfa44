package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/ricemill/analytics/internal/domain"
)

// Exporter renders reports and publishes them under a key prefix.
type Exporter struct {
	storage ObjectStorage
	prefix  string
}

func NewExporter(storage ObjectStorage, prefix string) *Exporter {
	if prefix == "" {
		prefix = "reports"
	}
	return &Exporter{storage: storage, prefix: prefix}
}

// ExportReorderReport publishes the reorder recommendations as CSV and
// returns the object key.
func (e *Exporter) ExportReorderReport(ctx context.Context, points []domain.ReorderPoint, asOf time.Time) (string, error) {
	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, []string{
		"product_id", "warehouse_id", "current_stock", "avg_daily_usage",
		"reorder_point", "safety_stock", "requires_reorder", "days_until_stockout", "urgency",
	})
	for _, p := range points {
		rows = append(rows, []string{
			strconv.FormatInt(p.ProductID, 10),
			strconv.FormatInt(p.WarehouseID, 10),
			formatFloat(p.CurrentStock),
			formatFloat(p.AvgDailyUsage),
			formatFloat(p.ReorderPoint),
			formatFloat(p.SafetyStock),
			strconv.FormatBool(p.RequiresReorder),
			strconv.Itoa(p.DaysUntilStockout),
			string(p.UrgencyLevel),
		})
	}
	return e.publish(ctx, "reorder", asOf, rows)
}

// ExportABCAnalysis publishes the ABC classification as CSV.
func (e *Exporter) ExportABCAnalysis(ctx context.Context, entries []domain.ABCEntry, asOf time.Time) (string, error) {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{
		"product_id", "consumption_value", "value_pct", "cumulative_pct", "class",
	})
	for _, entry := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(entry.ProductID, 10),
			entry.ConsumptionValue.StringFixed(2),
			formatFloat(entry.ValuePercentage),
			formatFloat(entry.CumulativePercentage),
			string(entry.Classification),
		})
	}
	return e.publish(ctx, "abc", asOf, rows)
}

// ExportWasteReport publishes the waste aggregation as CSV.
func (e *Exporter) ExportWasteReport(ctx context.Context, reports []domain.WasteReport, asOf time.Time) (string, error) {
	rows := make([][]string, 0, len(reports)+1)
	rows = append(rows, []string{
		"product_id", "process_id", "input_qty", "output_qty",
		"waste_qty", "waste_pct", "waste_cost", "target_qty",
	})
	for _, r := range reports {
		rows = append(rows, []string{
			strconv.FormatInt(r.ProductID, 10),
			strconv.FormatInt(r.ProcessID, 10),
			formatFloat(r.InputQuantity),
			formatFloat(r.OutputQuantity),
			formatFloat(r.WasteQuantity),
			formatFloat(r.WastePercentage),
			r.WasteCost.StringFixed(2),
			formatFloat(r.TargetQuantity),
		})
	}
	return e.publish(ctx, "waste", asOf, rows)
}

func (e *Exporter) publish(ctx context.Context, report string, asOf time.Time, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("render %s csv: %w", report, err)
	}

	key := path.Join(e.prefix, fmt.Sprintf("%s_%s.csv", report, asOf.Format("20060102")))
	if err := e.storage.UploadObject(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return "", err
	}
	return key, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
