package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/duration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
app:
  name: gymcore
database:
  driver: sqlite
  sqlite_path: /tmp/gym-test.db
catalog:
  cache_ttl: 5m
  packages:
    - id: monthly-basic
      name: 月卡
      duration_amount: 1
      duration_unit: month
      list_price: "1500"
    - id: trial
      name: 體驗課
      duration_amount: 90
      duration_unit: minute
      list_price: "0"
  tiers:
    - id: silver
      display_name: 銀卡
      rank: 1
    - id: gold
      display_name: 金卡
      rank: 2
      min_spend: "5000000"
      min_continuous_months: 6
    - id: legacy
      rank: 0
      active: false
      min_spend: "100"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Test 1: 讀取設定檔並補上預設值
func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, sampleConfig))

	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/gym-test.db", cfg.Database.SQLitePath)
	assert.Equal(t, "warn", cfg.Database.LogLevel)
	assert.Equal(t, 25, cfg.Database.Postgres.MaxConnections)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9102", cfg.Metrics.Address)
	assert.Equal(t, 500, cfg.Jobs.ScanBatchSize)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
}

// Test 2: 環境變數覆寫設定檔
func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("GYM_LOGGING_LEVEL", "debug")
	t.Setenv("GYM_JOBS_SCAN_BATCH_SIZE", "50")

	cfg, err := LoadFromFile(writeConfig(t, sampleConfig))

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Jobs.ScanBatchSize)
}

// Test 3: 目錄轉換
func TestCatalogConfig_Convert(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	packages, err := cfg.Catalog.ToPackages()
	require.NoError(t, err)
	require.Len(t, packages, 2)
	assert.Equal(t, catalog.PackageID("monthly-basic"), packages[0].ID)
	assert.Equal(t, duration.Month, packages[0].DurationUnit)
	assert.True(t, packages[0].ListPrice.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, duration.Minute, packages[1].DurationUnit)

	tiers, err := cfg.Catalog.ToTiers()
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	assert.True(t, tiers[0].Active, "未設定 active 時預設啟用")
	assert.True(t, tiers[0].Criteria.MinSpend.IsZero(), "未設定 min_spend 時為 0")
	assert.Nil(t, tiers[0].Criteria.MinContinuousMonths)
	require.NotNil(t, tiers[1].Criteria.MinContinuousMonths)
	assert.Equal(t, 6, *tiers[1].Criteria.MinContinuousMonths)
	assert.False(t, tiers[2].Active)
}

// Test 4: 驗證失敗
func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"不支援的資料庫", "database:\n  driver: mysql\n", "unsupported database.driver"},
		{"postgres 缺主機", "database:\n  driver: postgres\n", "database.postgres.host is required"},
		{"redis 啟用但沒有位址", "redis:\n  enabled: true\n  address: \"\"\n", "redis.address is required"},
		{"套票價格無效", "catalog:\n  packages:\n    - id: a\n      list_price: abc\n", "list_price"},
		{"套票代碼重複", "catalog:\n  packages:\n    - id: a\n      list_price: \"1\"\n    - id: a\n      list_price: \"2\"\n", "duplicate id"},
		{"等級門檻為負", "catalog:\n  tiers:\n    - id: x\n      min_spend: \"-1\"\n", "catalog.tiers[x]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

// Test 5: 設定檔不存在
func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// Test 6: PostgreSQL DSN
func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "gym", Password: "secret", Database: "gym", SSLMode: "disable", TimeZone: "Asia/Taipei"}

	assert.Equal(t, "host=db port=5432 user=gym password=secret dbname=gym sslmode=disable TimeZone=Asia/Taipei", p.GetDSN())
}
