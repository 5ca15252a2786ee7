// Package config 應用程式設定（viper）
package config

import (
	"fmt"
	"time"
)

// Config 應用程式設定
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig 資料庫設定
//
// driver: sqlite（開發、測試）| postgres（正式環境）
type DatabaseConfig struct {
	Driver     string         `mapstructure:"driver"`
	SQLitePath string         `mapstructure:"sqlite_path"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
	LogLevel   string         `mapstructure:"log_level"` // GORM logger: silent | error | warn | info
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	TimeZone       string `mapstructure:"timezone"`
}

// GetDSN PostgreSQL 連線字串
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode, p.TimeZone,
	)
}

// RedisConfig 目錄快取用的 Redis；Enabled=false 時直接讀靜態目錄
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// JobsConfig 批次作業設定
type JobsConfig struct {
	ScanBatchSize int `mapstructure:"scan_batch_size"`
}

// CatalogConfig 套票與會員等級目錄
type CatalogConfig struct {
	CacheTTL time.Duration   `mapstructure:"cache_ttl"`
	Packages []PackageConfig `mapstructure:"packages"`
	Tiers    []TierConfig    `mapstructure:"tiers"`
}

// PackageConfig 套票設定；金額以字串表示避免浮點誤差
type PackageConfig struct {
	ID             string `mapstructure:"id"`
	Name           string `mapstructure:"name"`
	DurationAmount int    `mapstructure:"duration_amount"`
	DurationUnit   string `mapstructure:"duration_unit"`
	ListPrice      string `mapstructure:"list_price"`
}

// TierConfig 會員等級設定；門檻為 nil 表示不設限
type TierConfig struct {
	ID                   string `mapstructure:"id"`
	DisplayName          string `mapstructure:"display_name"`
	MachineName          string `mapstructure:"machine_name"`
	Rank                 int    `mapstructure:"rank"`
	Color                string `mapstructure:"color"`
	Active               *bool  `mapstructure:"active"`
	MinSpend             string `mapstructure:"min_spend"`
	MinContinuousMonths  *int   `mapstructure:"min_continuous_months"`
	MinCompletedSessions *int   `mapstructure:"min_completed_sessions"`
}
