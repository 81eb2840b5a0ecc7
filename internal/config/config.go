package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/seantiz/ordersim/internal/model"
)

const (
	defaultListenAddr  = ":8080"
	defaultDBPath      = "ordersim.db"
	defaultMode        = model.ModeSteady
	defaultRate        = 200
	defaultWorkers     = 4
	defaultRetained    = 0.25
	defaultMaxActive   = 5000
	defaultCacheCap    = 2000
	defaultEvictBatch  = 64
	defaultPayloadMin  = 128
	defaultPayloadMax  = 4096
	defaultCatalogSize = 256
	defaultSweepLimit  = 512
	defaultLogCap      = 1000

	defaultItemLifetime    = 2 * time.Second
	defaultBurstMultiplier = 4.0
	defaultBurstDuration   = 5 * time.Second
	defaultBurstInterval   = 30 * time.Second
	defaultSweepInterval   = 100 * time.Millisecond
	defaultReportInterval  = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	envListenAddr      = "ORDERSIM_LISTEN_ADDR"
	envDBPath          = "ORDERSIM_DB_PATH"
	envLogLevel        = "ORDERSIM_LOG_LEVEL"
	envLogFormat       = "ORDERSIM_LOG_FORMAT"
	envMode            = "ORDERSIM_MODE"
	envRate            = "ORDERSIM_RATE"
	envWorkers         = "ORDERSIM_WORKERS"
	envRetainedProb    = "ORDERSIM_RETAINED_PROB"
	envMaxActive       = "ORDERSIM_MAX_ACTIVE"
	envCacheCapacity   = "ORDERSIM_CACHE_CAPACITY"
	envEvictionBatch   = "ORDERSIM_EVICTION_BATCH"
	envItemLifetime    = "ORDERSIM_ITEM_LIFETIME"
	envBurstMultiplier = "ORDERSIM_BURST_MULTIPLIER"
	envBurstDuration   = "ORDERSIM_BURST_DURATION"
	envBurstInterval   = "ORDERSIM_BURST_INTERVAL"
	envSweepInterval   = "ORDERSIM_SWEEP_INTERVAL"
	envSweepLimit      = "ORDERSIM_SWEEP_LIMIT"
	envCompletedLogCap = "ORDERSIM_COMPLETED_LOG_CAPACITY"
	envPayloadMin      = "ORDERSIM_PAYLOAD_MIN"
	envPayloadMax      = "ORDERSIM_PAYLOAD_MAX"
	envCatalogSize     = "ORDERSIM_CATALOG_SIZE"
	envReportInterval  = "ORDERSIM_REPORT_INTERVAL"
	envShutdownTimeout = "ORDERSIM_SHUTDOWN_TIMEOUT"
)

// Log format constants.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   slog.Level
	LogFormat  string

	Sim Sim
}

// Sim holds the simulation engine's tunables.
type Sim struct {
	// Mode selects steady or bursty generation.
	Mode string

	// Rate is the aggregate target production rate in items per second,
	// split evenly across workers.
	Rate int

	// Workers is the number of generator goroutines.
	Workers int

	// RetainedProbability is the chance a generated item is retained
	// rather than ephemeral.
	RetainedProbability float64

	// MaxActive caps the retained items live at once; the gate rejects
	// admissions beyond it.
	MaxActive int

	// CacheCapacity bounds the retained-item cache.
	CacheCapacity int

	// EvictionBatchSize caps how many keys a single put may evict.
	EvictionBatchSize int

	// ItemLifetime is how long a retained item lives before the sweeper
	// retires it.
	ItemLifetime time.Duration

	// Burst shape: during a burst window the rate becomes Rate*BurstMultiplier.
	BurstMultiplier float64
	BurstDuration   time.Duration
	BurstInterval   time.Duration

	// Sweeper pacing: scan every SweepInterval, retire at most SweepLimit per tick.
	SweepInterval time.Duration
	SweepLimit    int

	// CompletedLogCapacity bounds the retired-item history.
	CompletedLogCapacity int

	// Payload size range for generated items, in bytes.
	PayloadMinBytes int
	PayloadMaxBytes int

	// CatalogSize is the number of immutable catalog entries built at startup.
	CatalogSize int

	// ReportInterval is how often the metrics reporter snapshots.
	ReportInterval time.Duration

	// ShutdownTimeout bounds how long Stop waits for workers to exit.
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr: defaultListenAddr,
		DBPath:     defaultDBPath,
		LogLevel:   slog.LevelInfo,
		LogFormat:  LogFormatJSON,
		Sim:        DefaultSim(),
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envLogFormat); v != "" {
		cfg.LogFormat = parseLogFormat(v)
	}

	s := &cfg.Sim
	if v := os.Getenv(envMode); v != "" {
		s.Mode = parseMode(v)
	}
	s.Rate = intEnv(envRate, s.Rate)
	s.Workers = intEnv(envWorkers, s.Workers)
	s.RetainedProbability = floatEnv(envRetainedProb, s.RetainedProbability)
	s.MaxActive = intEnv(envMaxActive, s.MaxActive)
	s.CacheCapacity = intEnv(envCacheCapacity, s.CacheCapacity)
	s.EvictionBatchSize = intEnv(envEvictionBatch, s.EvictionBatchSize)
	s.ItemLifetime = durationEnv(envItemLifetime, s.ItemLifetime)
	s.BurstMultiplier = floatEnv(envBurstMultiplier, s.BurstMultiplier)
	s.BurstDuration = durationEnv(envBurstDuration, s.BurstDuration)
	s.BurstInterval = durationEnv(envBurstInterval, s.BurstInterval)
	s.SweepInterval = durationEnv(envSweepInterval, s.SweepInterval)
	s.SweepLimit = intEnv(envSweepLimit, s.SweepLimit)
	s.CompletedLogCapacity = intEnv(envCompletedLogCap, s.CompletedLogCapacity)
	s.PayloadMinBytes = intEnv(envPayloadMin, s.PayloadMinBytes)
	s.PayloadMaxBytes = intEnv(envPayloadMax, s.PayloadMaxBytes)
	s.CatalogSize = intEnv(envCatalogSize, s.CatalogSize)
	s.ReportInterval = durationEnv(envReportInterval, s.ReportInterval)
	s.ShutdownTimeout = durationEnv(envShutdownTimeout, s.ShutdownTimeout)

	return cfg
}

// DefaultSim returns the default simulation tunables.
func DefaultSim() Sim {
	return Sim{
		Mode:                 defaultMode,
		Rate:                 defaultRate,
		Workers:              defaultWorkers,
		RetainedProbability:  defaultRetained,
		MaxActive:            defaultMaxActive,
		CacheCapacity:        defaultCacheCap,
		EvictionBatchSize:    defaultEvictBatch,
		ItemLifetime:         defaultItemLifetime,
		BurstMultiplier:      defaultBurstMultiplier,
		BurstDuration:        defaultBurstDuration,
		BurstInterval:        defaultBurstInterval,
		SweepInterval:        defaultSweepInterval,
		SweepLimit:           defaultSweepLimit,
		CompletedLogCapacity: defaultLogCap,
		PayloadMinBytes:      defaultPayloadMin,
		PayloadMaxBytes:      defaultPayloadMax,
		CatalogSize:          defaultCatalogSize,
		ReportInterval:       defaultReportInterval,
		ShutdownTimeout:      defaultShutdownTimeout,
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseLogFormat(s string) string {
	switch strings.ToLower(s) {
	case LogFormatConsole:
		return LogFormatConsole
	default:
		return LogFormatJSON
	}
}

func parseMode(s string) string {
	switch strings.ToLower(s) {
	case model.ModeBursty:
		return model.ModeBursty
	default:
		return model.ModeSteady
	}
}

func intEnv(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func floatEnv(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func durationEnv(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// NewLogger creates a structured logger writing to w at the configured level.
// The console format renders human-readable output for interactive runs;
// JSON is the default for everything else.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	if format == LogFormatConsole {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
