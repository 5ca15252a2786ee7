// Package notification 通知發送
//
// 同一 (收件人, 類型, 觸發實體) 最多一筆通知：IssueOnce 以單一條件式寫入
// 完成去重，並讀回已存在的那一筆，重複觸發永遠不會產生第二筆或覆寫內容。
package notification

import (
	"context"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/notification"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/metrics"
)

// NotificationDTO 通知（Output DTO）
type NotificationDTO struct {
	ID              string
	RecipientID     string
	Kind            string
	TriggerEntityID string
	Title           string
	Body            string
	Payload         notification.Payload
	IsRead          bool
	ReadAt          *time.Time
	CreatedAt       time.Time
}

func toDTO(n *notification.Notification) *NotificationDTO {
	return &NotificationDTO{
		ID:              n.ID().String(),
		RecipientID:     n.RecipientID().String(),
		Kind:            string(n.Kind()),
		TriggerEntityID: n.TriggerEntityID(),
		Title:           n.Title(),
		Body:            n.Body(),
		Payload:         n.Payload(),
		IsRead:          n.IsRead(),
		ReadAt:          n.ReadAt(),
		CreatedAt:       n.CreatedAt(),
	}
}

// Service 通知 Use Cases
type Service struct {
	txManager shared.TransactionManager
	repo      notification.NotificationRepository
	clock     shared.Clock
	log       logger.Logger
}

func NewService(
	txManager shared.TransactionManager,
	repo notification.NotificationRepository,
	clock shared.Clock,
	log logger.Logger,
) *Service {
	return &Service{
		txManager: txManager,
		repo:      repo,
		clock:     clock,
		log:       log,
	}
}

// IssueCommand 發送通知指令
type IssueCommand struct {
	RecipientID     string
	Kind            notification.Kind
	TriggerEntityID string
	Title           string
	Body            string
	Payload         notification.Payload
}

// IssueOnce 發送通知（冪等）
//
// 回傳儲存中的通知；created 為 false 表示先前已存在，內容保持第一次寫入的版本。
//
// 錯誤處理：
// - payload 與類型不符 → notification.ErrPayloadMismatch
// - 必要欄位為空 → notification.ErrInvalidNotification
func (s *Service) IssueOnce(ctx context.Context, cmd IssueCommand) (*NotificationDTO, bool, error) {
	recipientID, err := member.MemberIDFromString(cmd.RecipientID)
	if err != nil {
		return nil, false, err
	}

	n, err := notification.NewNotification(
		recipientID, cmd.Kind, cmd.TriggerEntityID, cmd.Title, cmd.Body, cmd.Payload, s.clock.Now(),
	)
	if err != nil {
		return nil, false, err
	}

	var (
		stored  *notification.Notification
		created bool
	)
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		created, err = s.repo.InsertIfAbsent(tx, n)
		if err != nil {
			return err
		}
		if created {
			stored = n
			return nil
		}
		stored, err = s.repo.FindByKey(tx, recipientID, n.Kind(), n.TriggerEntityID())
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.NotificationsIssued.WithLabelValues(string(cmd.Kind)).Inc()
		s.log.Info("notification issued", map[string]interface{}{
			"notification_id": stored.ID().String(),
			"recipient_id":    recipientID.String(),
			"kind":            string(cmd.Kind),
			"trigger":         n.TriggerEntityID(),
		})
	} else {
		metrics.NotificationsDeduplicated.WithLabelValues(string(cmd.Kind)).Inc()
		s.log.Debug("notification already issued", map[string]interface{}{
			"notification_id": stored.ID().String(),
			"kind":            string(cmd.Kind),
			"trigger":         n.TriggerEntityID(),
		})
	}
	return toDTO(stored), created, nil
}

// MarkRead 收件人標記已讀（重複標記不報錯）
//
// 錯誤處理：
// - 通知不存在 → notification.ErrNotificationNotFound
// - 非收件人 → notification.ErrNotificationForbidden
func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID string) (*NotificationDTO, error) {
	requester, err := member.MemberIDFromString(recipientID)
	if err != nil {
		return nil, err
	}
	id, err := notification.NotificationIDFromString(notificationID)
	if err != nil {
		return nil, err
	}

	var n *notification.Notification
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		n, err = s.repo.FindByID(tx, id)
		if err != nil {
			return err
		}
		changed, err := n.MarkRead(requester, s.clock.Now())
		if err != nil || !changed {
			return err
		}
		return s.repo.MarkRead(tx, n)
	})
	if err != nil {
		return nil, err
	}
	return toDTO(n), nil
}

// MarkAllRead 收件人全部未讀通知標記已讀，回傳筆數
func (s *Service) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	id, err := member.MemberIDFromString(recipientID)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		count, err = s.repo.MarkAllRead(tx, id, s.clock.Now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// UnreadCount 未讀數量
func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	id, err := member.MemberIDFromString(recipientID)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(nil, id)
}

// ListQuery 查詢通知列表
type ListQuery struct {
	RecipientID string
	UnreadOnly  bool
	Limit       int // <= 0 表示不限
}

// ListForRecipient 依建立時間新到舊
func (s *Service) ListForRecipient(ctx context.Context, query ListQuery) ([]*NotificationDTO, error) {
	id, err := member.MemberIDFromString(query.RecipientID)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByRecipient(nil, id, query.UnreadOnly, query.Limit)
	if err != nil {
		return nil, err
	}

	result := make([]*NotificationDTO, 0, len(list))
	for _, n := range list {
		result = append(result, toDTO(n))
	}
	return result, nil
}
