package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ricemill/analytics/internal/domain"
	"github.com/ricemill/analytics/internal/ledger"
	"github.com/ricemill/analytics/internal/service"
)

type AnalyticsHandler struct {
	service *service.AnalyticsService
}

func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// parseDateRange reads from/to query params (YYYY-MM-DD), defaulting to the
// trailing number of days when absent.
func parseDateRange(c *gin.Context, defaultDays int) (domain.DateRange, error) {
	rawFrom := strings.TrimSpace(c.Query("from"))
	rawTo := strings.TrimSpace(c.Query("to"))
	if rawFrom == "" && rawTo == "" {
		return domain.TrailingDays(defaultDays), nil
	}

	rng := domain.TrailingDays(defaultDays)
	if rawFrom != "" {
		from, err := time.Parse("2006-01-02", rawFrom)
		if err != nil {
			return domain.DateRange{}, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		rng.From = from
	}
	if rawTo != "" {
		to, err := time.Parse("2006-01-02", rawTo)
		if err != nil {
			return domain.DateRange{}, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		// Closed interval: cover the whole end day.
		rng.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	return rng, rng.Validate()
}

func parseID(c *gin.Context, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + param)
	}
	return id, nil
}

func queryInt64(c *gin.Context, param string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(c.Query(param)), 10, 64)
	return v
}

// respondError maps parameter errors to 400 and everything else to 500.
func respondError(c *gin.Context, err error, message string) {
	if errors.Is(err, domain.ErrInvalidDateRange) ||
		errors.Is(err, domain.ErrUnknownMethod) ||
		errors.Is(err, domain.ErrInvalidHorizon) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}

func (h *AnalyticsHandler) GetValuation(c *gin.Context) {
	productID, err := parseID(c, "product_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	warehouseID := queryInt64(c, "warehouse_id")
	if warehouseID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "warehouse_id is required"})
		return
	}

	method := domain.ValuationMethod(c.DefaultQuery("method", string(domain.DefaultValuationMethod)))

	quantity := -1.0
	if raw := strings.TrimSpace(c.Query("quantity")); raw != "" {
		if q, err := strconv.ParseFloat(raw, 64); err == nil {
			quantity = q
		}
	}
	if quantity < 0 {
		snap, err := h.service.Snapshot(c.Request.Context(), productID, warehouseID)
		if err != nil && !errors.Is(err, ledger.ErrSnapshotNotFound) {
			respondError(c, err, "failed to load snapshot")
			return
		}
		quantity = snap.CurrentStock
	}

	result, err := h.service.ValueStock(c.Request.Context(), productID, warehouseID, quantity, method)
	if err != nil {
		respondError(c, err, "failed to value stock")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AnalyticsHandler) GetReorderReport(c *gin.Context) {
	points, err := h.service.ReorderReport(c.Request.Context(), queryInt64(c, "warehouse_id"))
	if err != nil {
		respondError(c, err, "failed to build reorder report")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": points,
		"total": len(points),
	})
}

func (h *AnalyticsHandler) GetABCAnalysis(c *gin.Context) {
	rng, err := parseDateRange(c, 90)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.service.ClassifyProducts(c.Request.Context(), queryInt64(c, "warehouse_id"), rng)
	if err != nil {
		respondError(c, err, "failed to classify products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": entries,
		"total": len(entries),
	})
}

func (h *AnalyticsHandler) GetForecast(c *gin.Context) {
	productID, err := parseID(c, "product_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	horizon, _ := strconv.Atoi(c.DefaultQuery("horizon", "3"))

	points, err := h.service.ForecastDemand(c.Request.Context(), productID, queryInt64(c, "warehouse_id"), horizon)
	if err != nil {
		respondError(c, err, "failed to forecast demand")
		return
	}

	c.JSON(http.StatusOK, points)
}

func (h *AnalyticsHandler) GetMachineEfficiency(c *gin.Context) {
	machineID, err := parseID(c, "machine_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rng, err := parseDateRange(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.MachineEfficiency(c.Request.Context(), machineID, rng)
	if err != nil {
		respondError(c, err, "failed to analyze machine")
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *AnalyticsHandler) GetEfficiencySweep(c *gin.Context) {
	rng, err := parseDateRange(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reports, err := h.service.EfficiencySweep(c.Request.Context(), rng)
	if err != nil {
		respondError(c, err, "failed to analyze machines")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": reports,
		"total": len(reports),
	})
}

func (h *AnalyticsHandler) GetWaste(c *gin.Context) {
	rng, err := parseDateRange(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groupBy := strings.ToLower(c.DefaultQuery("group_by", "product"))

	var reports []domain.WasteReport
	switch groupBy {
	case "product":
		reports, err = h.service.WasteByProduct(c.Request.Context(), rng)
	case "process":
		reports, err = h.service.WasteByProcess(c.Request.Context(), rng)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_by must be product or process"})
		return
	}
	if err != nil {
		respondError(c, err, "failed to analyze waste")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    reports,
		"total":    len(reports),
		"group_by": groupBy,
	})
}

func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	rng, err := parseDateRange(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topN, _ := strconv.Atoi(c.DefaultQuery("top", "10"))

	dashboard, err := h.service.GetDashboard(c.Request.Context(), domain.DashboardFilter{
		WarehouseID: queryInt64(c, "warehouse_id"),
		Range:       rng,
		TopN:        topN,
	})
	if err != nil {
		respondError(c, err, "failed to build dashboard")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *AnalyticsHandler) PostReconcile(c *gin.Context) {
	method := domain.ValuationMethod(c.DefaultQuery("method", string(domain.DefaultValuationMethod)))

	reconciled, err := h.service.ReconcileSnapshots(c.Request.Context(), queryInt64(c, "warehouse_id"), method)
	if err != nil {
		respondError(c, err, "failed to reconcile snapshots")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reconciled": reconciled})
}
