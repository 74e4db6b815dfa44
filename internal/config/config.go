package config

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Export    ExportConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

type ExportConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

// AnalyticsConfig externalizes the calculator constants. The seasonality
// table and the ideal cycle rate are deployment inputs, not embedded
// business rules.
type AnalyticsConfig struct {
	LeadTimeDays          int
	SafetyStockDays       int
	ConsumptionWindowDays int
	HistoryMonths         int
	SeasonalityFactors    [12]float64
	IdealCycleRate        float64
	MinDowntimeGapMinutes int
	ScheduledHoursPerDay  float64
	WasteThresholdPct     float64
	WasteReductionPct     float64
	SweepWorkers          int
}

func (a AnalyticsConfig) MinDowntimeGap() time.Duration {
	return time.Duration(a.MinDowntimeGapMinutes) * time.Minute
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "ricemill")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
		viper.SetDefault("EXPORT_ENDPOINT", "")
		viper.SetDefault("EXPORT_ACCESS_KEY", "")
		viper.SetDefault("EXPORT_SECRET_KEY", "")
		viper.SetDefault("EXPORT_BUCKET", "ricemill-reports")
		viper.SetDefault("EXPORT_USE_SSL", true)
		viper.SetDefault("EXPORT_PREFIX", "analytics")
		viper.SetDefault("ANALYTICS_LEAD_TIME_DAYS", 7)
		viper.SetDefault("ANALYTICS_SAFETY_STOCK_DAYS", 3)
		viper.SetDefault("ANALYTICS_CONSUMPTION_WINDOW_DAYS", 90)
		viper.SetDefault("ANALYTICS_HISTORY_MONTHS", 12)
		viper.SetDefault("ANALYTICS_SEASONALITY_FACTORS", "")
		viper.SetDefault("ANALYTICS_IDEAL_CYCLE_RATE", 500.0)
		viper.SetDefault("ANALYTICS_MIN_DOWNTIME_GAP_MINUTES", 10)
		viper.SetDefault("ANALYTICS_SCHEDULED_HOURS_PER_DAY", 16.0)
		viper.SetDefault("ANALYTICS_WASTE_THRESHOLD_PCT", 5.0)
		viper.SetDefault("ANALYTICS_WASTE_REDUCTION_PCT", 80.0)
		viper.SetDefault("ANALYTICS_SWEEP_WORKERS", 4)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:             viper.GetBool("CACHE_ENABLED"),
				RedisURL:            viper.GetString("REDIS_URL"),
				RedisHost:           viper.GetString("REDIS_HOST"),
				RedisPort:           viper.GetString("REDIS_PORT"),
				RedisPassword:       viper.GetString("REDIS_PASSWORD"),
				RedisDB:             viper.GetInt("REDIS_DB"),
				DashboardTTLSeconds: viper.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
			},
			Export: ExportConfig{
				Endpoint:  viper.GetString("EXPORT_ENDPOINT"),
				AccessKey: viper.GetString("EXPORT_ACCESS_KEY"),
				SecretKey: viper.GetString("EXPORT_SECRET_KEY"),
				Bucket:    viper.GetString("EXPORT_BUCKET"),
				UseSSL:    viper.GetBool("EXPORT_USE_SSL"),
				Prefix:    viper.GetString("EXPORT_PREFIX"),
			},
			Analytics: AnalyticsConfig{
				LeadTimeDays:          viper.GetInt("ANALYTICS_LEAD_TIME_DAYS"),
				SafetyStockDays:       viper.GetInt("ANALYTICS_SAFETY_STOCK_DAYS"),
				ConsumptionWindowDays: viper.GetInt("ANALYTICS_CONSUMPTION_WINDOW_DAYS"),
				HistoryMonths:         viper.GetInt("ANALYTICS_HISTORY_MONTHS"),
				SeasonalityFactors:    parseSeasonality(viper.GetString("ANALYTICS_SEASONALITY_FACTORS")),
				IdealCycleRate:        viper.GetFloat64("ANALYTICS_IDEAL_CYCLE_RATE"),
				MinDowntimeGapMinutes: viper.GetInt("ANALYTICS_MIN_DOWNTIME_GAP_MINUTES"),
				ScheduledHoursPerDay:  viper.GetFloat64("ANALYTICS_SCHEDULED_HOURS_PER_DAY"),
				WasteThresholdPct:     viper.GetFloat64("ANALYTICS_WASTE_THRESHOLD_PCT"),
				WasteReductionPct:     viper.GetFloat64("ANALYTICS_WASTE_REDUCTION_PCT"),
				SweepWorkers:          viper.GetInt("ANALYTICS_SWEEP_WORKERS"),
			},
		}
	})

	return instance
}

// parseSeasonality reads twelve comma-separated month factors. Malformed or
// missing entries fall back to a neutral factor of 1.
func parseSeasonality(raw string) [12]float64 {
	factors := [12]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	if strings.TrimSpace(raw) == "" {
		return factors
	}
	parts := strings.Split(raw, ",")
	for i := 0; i < len(parts) && i < 12; i++ {
		if v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64); err == nil && v > 0 {
			factors[i] = v
		}
	}
	return factors
}
