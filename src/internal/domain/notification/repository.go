package notification

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
)

// NotificationRepository 通知倉儲接口
type NotificationRepository interface {
	// InsertIfAbsent 單一條件式寫入：
	//
	//	INSERT ... ON CONFLICT (recipient_id, kind, trigger_entity_id) DO NOTHING
	//
	// 回傳 true 表示本次寫入新資料；false 表示已存在（不覆寫既有內容）
	InsertIfAbsent(tx shared.TransactionContext, n *Notification) (bool, error)

	// FindByKey 依唯一鍵查詢
	FindByKey(tx shared.TransactionContext, recipientID member.MemberID, kind Kind, triggerEntityID string) (*Notification, error)

	FindByID(tx shared.TransactionContext, id NotificationID) (*Notification, error)

	// MarkRead 寫入已讀狀態（只在未讀時更新，保留第一次的 readAt）
	MarkRead(tx shared.TransactionContext, n *Notification) error

	// MarkAllRead 將收件人全部未讀通知標記為已讀，回傳筆數
	MarkAllRead(tx shared.TransactionContext, recipientID member.MemberID, readAt time.Time) (int64, error)

	CountUnread(tx shared.TransactionContext, recipientID member.MemberID) (int64, error)

	// ListByRecipient 依建立時間新到舊，limit <= 0 表示不限
	ListByRecipient(tx shared.TransactionContext, recipientID member.MemberID, unreadOnly bool, limit int) ([]*Notification, error)

	// ExistingTriggers 給定觸發實體中已有該類型通知者
	ExistingTriggers(tx shared.TransactionContext, kind Kind, triggerEntityIDs []string) (map[string]bool, error)
}
