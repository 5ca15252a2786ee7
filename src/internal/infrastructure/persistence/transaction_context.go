package persistence

import (
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"gorm.io/gorm"
)

// ===========================
// GORM TransactionContext 實作
// ===========================

// gormTransactionContext GORM 事務上下文
//
// 封裝 *gorm.DB，Domain Layer 只看得到 shared.TransactionContext 標記介面
type gormTransactionContext struct {
	db *gorm.DB
}

// NewGORMTransactionContext 創建 GORM 事務上下文
func NewGORMTransactionContext(db *gorm.DB) shared.TransactionContext {
	return &gormTransactionContext{db: db}
}

// GetDB 獲取事務中的 GORM 連接（僅供 Infrastructure Layer 使用）
func (ctx *gormTransactionContext) GetDB() *gorm.DB {
	return ctx.db
}

// dbProvider 可取得 *gorm.DB 的事務上下文
type dbProvider interface {
	shared.TransactionContext
	GetDB() *gorm.DB
}

// DB 取得倉儲應使用的連接
//
// - tx 是 GORM 事務上下文：使用事務中的連接
// - tx 為 nil 或其他實作：使用 fallback（auto-commit 模式）
func DB(tx shared.TransactionContext, fallback *gorm.DB) *gorm.DB {
	if provider, ok := tx.(dbProvider); ok {
		return provider.GetDB()
	}
	return fallback
}
