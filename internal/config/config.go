package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/asl-index-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Input and output paths.
	MSLGlob   string
	MaskPath  string
	OutputCSV string

	// Detection parameters.
	SectorWest    float64
	SectorEast    float64
	SectorSouth   float64
	SectorNorth   float64
	WindowBorder  float64
	ContourStep   float64
	Workers       int
	StepTimeout   time.Duration
	MissingPolicy domain.MissingPolicy

	// Kafka publishing configuration.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Sector returns the detection bounds assembled from the four corner settings.
func (c *Config) Sector() domain.Bounds {
	return domain.Bounds{
		West:  c.SectorWest,
		East:  c.SectorEast,
		South: c.SectorSouth,
		North: c.SectorNorth,
	}
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	if shutdownTimeout <= 0 {
		return nil, errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	stepTimeout, err := parseDuration("STEP_TIMEOUT", "0s")
	if err != nil {
		return nil, err
	}
	if stepTimeout < 0 {
		return nil, errors.New("STEP_TIMEOUT must not be negative")
	}

	west, err := parseFloat("SECTOR_WEST", 170)
	if err != nil {
		return nil, err
	}
	east, err := parseFloat("SECTOR_EAST", 298)
	if err != nil {
		return nil, err
	}
	south, err := parseFloat("SECTOR_SOUTH", -80)
	if err != nil {
		return nil, err
	}
	north, err := parseFloat("SECTOR_NORTH", -60)
	if err != nil {
		return nil, err
	}
	border, err := parseFloat("WINDOW_BORDER", 8)
	if err != nil {
		return nil, err
	}
	step, err := parseFloat("CONTOUR_STEP", 2)
	if err != nil {
		return nil, err
	}

	workers, err := parseWorkers()
	if err != nil {
		return nil, err
	}

	policy, err := domain.ParseMissingPolicy(envOrDefault("MISSING_POLICY", string(domain.PolicyFlag)))
	if err != nil {
		return nil, fmt.Errorf("MISSING_POLICY: %w", err)
	}

	cfg := &Config{
		MSLGlob:   os.Getenv("MSL_GLOB"),
		MaskPath:  os.Getenv("MASK_PATH"),
		OutputCSV: envOrDefault("OUTPUT_CSV", "asli.csv"),

		SectorWest:    west,
		SectorEast:    east,
		SectorSouth:   south,
		SectorNorth:   north,
		WindowBorder:  border,
		ContourStep:   step,
		Workers:       workers,
		StepTimeout:   stepTimeout,
		MissingPolicy: policy,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "asl-index-records"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.MSLGlob == "" {
		return nil, errors.New("MSL_GLOB is required")
	}
	// JSON fixtures carry their own mask.
	if cfg.MaskPath == "" && !strings.HasSuffix(cfg.MSLGlob, ".json") {
		return nil, errors.New("MASK_PATH is required")
	}
	if err := cfg.Sector().Validate(); err != nil {
		return nil, fmt.Errorf("sector bounds: %w", err)
	}
	if cfg.WindowBorder < 0 {
		return nil, errors.New("WINDOW_BORDER must not be negative")
	}
	if cfg.ContourStep <= 0 {
		return nil, errors.New("CONTOUR_STEP must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseWorkers() (int, error) {
	s := os.Getenv("WORKERS")
	if s == "" {
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("WORKERS must be a positive integer")
	}
	return n, nil
}
