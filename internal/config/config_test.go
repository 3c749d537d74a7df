package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/asl-index-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("MSL_GLOB", "/data/era5/*.nc")
	t.Setenv("MASK_PATH", "/data/era5/lsm.nc")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/era5/*.nc", cfg.MSLGlob)
	assert.Equal(t, "/data/era5/lsm.nc", cfg.MaskPath)
	assert.Equal(t, "asli.csv", cfg.OutputCSV)
	assert.Equal(t, domain.Bounds{West: 170, East: 298, South: -80, North: -60}, cfg.Sector())
	assert.Equal(t, 8.0, cfg.WindowBorder)
	assert.Equal(t, 2.0, cfg.ContourStep)
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, time.Duration(0), cfg.StepTimeout)
	assert.Equal(t, domain.PolicyFlag, cfg.MissingPolicy)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "asl-index-records", cfg.KafkaSinkTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("OUTPUT_CSV", "/tmp/out.csv")
	t.Setenv("SECTOR_WEST", "160")
	t.Setenv("SECTOR_EAST", "-60")
	t.Setenv("SECTOR_SOUTH", "-78")
	t.Setenv("SECTOR_NORTH", "-58")
	t.Setenv("WINDOW_BORDER", "10")
	t.Setenv("CONTOUR_STEP", "1.5")
	t.Setenv("WORKERS", "4")
	t.Setenv("STEP_TIMEOUT", "30s")
	t.Setenv("MISSING_POLICY", "strict")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-topic")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out.csv", cfg.OutputCSV)
	assert.Equal(t, domain.Bounds{West: 160, East: -60, South: -78, North: -58}, cfg.Sector())
	assert.Equal(t, 10.0, cfg.WindowBorder)
	assert.Equal(t, 1.5, cfg.ContourStep)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.StepTimeout)
	assert.Equal(t, domain.PolicyStrict, cfg.MissingPolicy)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaSinkTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_MissingInputs(t *testing.T) {
	t.Run("no glob", func(t *testing.T) {
		t.Setenv("MASK_PATH", "/data/era5/lsm.nc")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MSL_GLOB")
	})

	t.Run("no mask", func(t *testing.T) {
		t.Setenv("MSL_GLOB", "/data/era5/*.nc")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MASK_PATH")
	})

	t.Run("json fixture needs no mask", func(t *testing.T) {
		t.Setenv("MSL_GLOB", "/data/fixture.json")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.MaskPath)
	})
}

func TestLoad_InvalidSector(t *testing.T) {
	setRequired(t)
	t.Setenv("SECTOR_SOUTH", "-50")
	t.Setenv("SECTOR_NORTH", "-70") // south above north

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sector bounds")
}

func TestLoad_InvalidNumbers(t *testing.T) {
	tests := []struct {
		key, val string
	}{
		{"SECTOR_WEST", "east-ish"},
		{"WINDOW_BORDER", "-1"},
		{"CONTOUR_STEP", "0"},
		{"WORKERS", "0"},
		{"WORKERS", "many"},
		{"STEP_TIMEOUT", "-5s"},
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"MISSING_POLICY", "drop"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_KafkaEnabledNeedsBrokers(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
