package export

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/ricemill/analytics/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memoryStorage) UploadObject(_ context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func TestExportReorderReport(t *testing.T) {
	storage := newMemoryStorage()
	exporter := NewExporter(storage, "mill-reports")

	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	key, err := exporter.ExportReorderReport(context.Background(), []domain.ReorderPoint{
		{
			ProductID:         7,
			WarehouseID:       1,
			CurrentStock:      12,
			AvgDailyUsage:     2,
			ReorderPoint:      20,
			SafetyStock:       6,
			RequiresReorder:   true,
			DaysUntilStockout: 6,
			UrgencyLevel:      domain.UrgencyMedium,
		},
	}, asOf)
	require.NoError(t, err)

	assert.Equal(t, "mill-reports/reorder_20260315.csv", key)
	assert.Equal(t, "text/csv", storage.types[key])

	records, err := csv.NewReader(strings.NewReader(string(storage.objects[key]))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "product_id", records[0][0])
	assert.Equal(t, []string{"7", "1", "12", "2", "20", "6", "true", "6", "medium"}, records[1])
}

func TestExportABCAnalysis(t *testing.T) {
	storage := newMemoryStorage()
	exporter := NewExporter(storage, "")

	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	key, err := exporter.ExportABCAnalysis(context.Background(), []domain.ABCEntry{
		{
			ProductID:            3,
			ConsumptionValue:     decimal.NewFromInt(6000),
			ValuePercentage:      60,
			CumulativePercentage: 60,
			Classification:       domain.ClassA,
		},
	}, asOf)
	require.NoError(t, err)

	assert.Equal(t, "reports/abc_20260315.csv", key)

	records, err := csv.NewReader(strings.NewReader(string(storage.objects[key]))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"3", "6000.00", "60", "60", "A"}, records[1])
}

func TestExportWasteReport(t *testing.T) {
	storage := newMemoryStorage()
	exporter := NewExporter(storage, "reports")

	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	key, err := exporter.ExportWasteReport(context.Background(), []domain.WasteReport{
		{
			ProductID:       5,
			InputQuantity:   4000,
			OutputQuantity:  3700,
			WasteQuantity:   300,
			WastePercentage: 7.5,
			WasteCost:       decimal.NewFromInt(1200),
			TargetQuantity:  60,
		},
	}, asOf)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(storage.objects[key]))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"5", "0", "4000", "3700", "300", "7.5", "1200.00", "60"}, records[1])
}
