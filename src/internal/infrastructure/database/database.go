// Package database 建立 GORM 連線與資料表遷移
package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/config"
	ledgerpersistence "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/ledger"
	memberpersistence "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/member"
	notificationpersistence "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/notification"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 依設定開啟資料庫
//
// sqlite 以單一連線執行（SQLite 同時只允許一個寫入者）
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:  logger.Default.LogMode(parseLogLevel(cfg.LogLevel)),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	switch cfg.Driver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.SQLitePath, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil

	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.Postgres.GetDSN()), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxConnections)
		sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdle)
		sqlDB.SetConnMaxLifetime(time.Hour)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Models 所有需要遷移的資料表
func Models() []interface{} {
	return []interface{}{
		&memberpersistence.MemberGORM{},
		&ledgerpersistence.RegistrationModel{},
		&ledgerpersistence.PaymentModel{},
		&notificationpersistence.NotificationModel{},
	}
}

// AutoMigrate 建立或更新資料表與索引
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close 關閉底層連線
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
