package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SERVER_HOST", "SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"SERVER_IDLE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT", "SERVER_ALLOWED_ORIGINS",
		"STORE_DRIVER", "STORE_DSN", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"DB_MAX_CONN_LIFETIME", "DB_MAX_CONN_IDLE_TIME",
		"UPLOAD_MAX_FILE_SIZE", "UPLOAD_MAX_CONCURRENT", "UPLOAD_MAX_WAIT_TIME",
		"LOG_LEVEL", "LOG_FORMAT",
		"REVIEW_PRESET", "REVIEW_DAY_COUNT", "REVIEW_MINIMUM_SALARY", "REVIEW_WORKERS", "REVIEW_LIST_LIMIT",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_CLIENT_ID",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "./data/review.db", cfg.Store.DSN)
	assert.Equal(t, int64(32<<20), cfg.Upload.MaxFileSize)
	assert.Equal(t, 4, cfg.Upload.MaxConcurrent)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "statutory_flat", cfg.Review.Preset)
	assert.Equal(t, 50, cfg.Review.ListLimit)
	assert.False(t, cfg.Notify.Enabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	// GIVEN: a YAML file and an env override for one of its keys
	path := writeFile(t, "review.yaml", `
server:
  port: 9000
  read_timeout: 45s
store:
  driver: memory
logging:
  format: console
review:
  preset: monthly_flat
  minimum_salary: 2000000
notify:
  brokers: [k1:9092, k2:9092]
`)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPLOAD_MAX_WAIT_TIME", "1m30s")

	// WHEN: loaded
	cfg, err := Load(path)
	require.NoError(t, err)

	// THEN: env beats file, file beats defaults
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, cfg.Upload.MaxWaitTime)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "monthly_flat", cfg.Review.Preset)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.Brokers)
	assert.Equal(t, "register-review.runs", cfg.Notify.Topic)
	assert.True(t, cfg.Notify.Enabled())
}

func TestLoad_AltEnvVar(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/review")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/review", cfg.Store.DSN)
	assert.NotContains(t, cfg.String(), "localhost/review")
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.Brokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		match string
	}{
		{"bad port", map[string]string{"SERVER_PORT": "70000"}, "server.port"},
		{"bad driver", map[string]string{"STORE_DRIVER": "mongo"}, "store.driver"},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}, "logging.level"},
		{"bad preset", map[string]string{"REVIEW_PRESET": "nope"}, "review.preset"},
		{"bad day count", map[string]string{"REVIEW_DAY_COUNT": "weekly"}, "review.day_count"},
		{"unparsable int", map[string]string{"UPLOAD_MAX_CONCURRENT": "many"}, "UPLOAD_MAX_CONCURRENT"},
		{"unparsable duration", map[string]string{"UPLOAD_MAX_WAIT_TIME": "soon"}, "invalid duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.match)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv treats a variable set to "" as present.
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	path := writeFile(t, ".env", "LOG_LEVEL=debug\nSERVER_PORT=7000\n")
	t.Setenv("SERVER_PORT", "7100")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 7100, cfg.Server.Port, "already-set variables win")
}

func TestReviewConfig_Document(t *testing.T) {
	doc := ReviewConfig{Preset: "executive_progressive", DayCount: "actual", MinimumSalary: 2_100_000, Workers: 2}.Document()

	assert.Equal(t, "actual", doc.DayCount)
	require.NotNil(t, doc.Policy)
	assert.Equal(t, "progressive", doc.Policy.Type)
	assert.Len(t, doc.Policy.Thresholds, 3)
	require.NotNil(t, doc.MinimumSalary)
	assert.Equal(t, 2_100_000.0, *doc.MinimumSalary)
	assert.Equal(t, 2, doc.Workers)

	assert.Empty(t, ReviewConfig{}.Document().DayCount)
}
