package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimal = `
[storage]
driver = "memory"

[catalog_service]
url = "http://catalog:8081"
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.Logs.Level)
	assert.Equal(t, 5, cfg.CatalogService.Timeout)
	assert.True(t, cfg.Sweep.Enabled)
	assert.Equal(t, "*/5 * * * *", cfg.Sweep.Schedule)

	defaults, err := cfg.Scheduling.PolicyDefaults()
	require.NoError(t, err)
	assert.Equal(t, 15, defaults.SlotGranularityMinutes)
	assert.Equal(t, 15, defaults.NoShowGraceMinutes)
	assert.True(t, defaults.CommissionRate.Equal(decimal.RequireFromString("0.1")))
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
[server]
http_port = 9090

[database]
host = "db"
dbname = "scheduling"
user = "app"
password = "from-file"

[catalog_service]
url = "http://catalog:8081"

[scheduling]
slot_granularity_minutes = 30
commission_rate = "0.15"
`)
	t.Setenv(envDBPassword, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "host=db port=5432 user=app password=from-env dbname=scheduling sslmode=disable", cfg.Database.DSN())

	defaults, err := cfg.Scheduling.PolicyDefaults()
	require.NoError(t, err)
	assert.Equal(t, 30, defaults.SlotGranularityMinutes)
	assert.Equal(t, "0.15", defaults.CommissionRate.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unknown driver",
			content: "[storage]\ndriver = \"sqlite\"\n[catalog_service]\nurl = \"http://c\"\n",
		},
		{
			name:    "missing catalog url",
			content: "[storage]\ndriver = \"memory\"\n",
		},
		{
			name:    "commission above one",
			content: minimal + "[scheduling]\ncommission_rate = \"1.5\"\n",
		},
		{
			name:    "granularity too small",
			content: minimal + "[scheduling]\nslot_granularity_minutes = 1\n",
		},
		{
			name:    "bad cron",
			content: minimal + "[sweep]\nschedule = \"every minute\"\n",
		},
		{
			name:    "malformed toml",
			content: "[server\nhttp_port = 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
