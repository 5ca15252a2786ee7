package notification

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/notification"
	"gorm.io/datatypes"
)

// NotificationModel 通知資料表
//
// 資料庫約束：
// - (recipient_id, kind, trigger_entity_id) 唯一：同一事件只通知一次
// - payload 以 JSON 欄位保存，讀取時依 kind 還原型別
type NotificationModel struct {
	ID              string         `gorm:"column:id;type:varchar(36);primaryKey"`
	RecipientID     string         `gorm:"column:recipient_id;type:varchar(36);not null;uniqueIndex:idx_notifications_dedup,priority:1;index:idx_notifications_recipient_read,priority:1"`
	Kind            string         `gorm:"column:kind;type:varchar(32);not null;uniqueIndex:idx_notifications_dedup,priority:2"`
	TriggerEntityID string         `gorm:"column:trigger_entity_id;type:varchar(64);not null;uniqueIndex:idx_notifications_dedup,priority:3"`
	Title           string         `gorm:"column:title;type:varchar(255);not null"`
	Body            string         `gorm:"column:body;type:text"`
	Payload         datatypes.JSON `gorm:"column:payload;not null"`
	IsRead          bool           `gorm:"column:is_read;not null;default:false;index:idx_notifications_recipient_read,priority:2"`
	ReadAt          *time.Time     `gorm:"column:read_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

func toModel(n *notification.Notification) (*NotificationModel, error) {
	payload, err := notification.EncodePayload(n.Payload())
	if err != nil {
		return nil, notification.ErrInvalidNotification.WithContext("encode_error", err.Error())
	}

	var readAt *time.Time
	if n.ReadAt() != nil {
		t := n.ReadAt().UTC()
		readAt = &t
	}

	return &NotificationModel{
		ID:              n.ID().String(),
		RecipientID:     n.RecipientID().String(),
		Kind:            string(n.Kind()),
		TriggerEntityID: n.TriggerEntityID(),
		Title:           n.Title(),
		Body:            n.Body(),
		Payload:         datatypes.JSON(payload),
		IsRead:          n.IsRead(),
		ReadAt:          readAt,
		CreatedAt:       n.CreatedAt().UTC(),
	}, nil
}

func toDomain(m *NotificationModel) (*notification.Notification, error) {
	id, err := notification.NotificationIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	recipientID, err := member.MemberIDFromString(m.RecipientID)
	if err != nil {
		return nil, err
	}

	kind := notification.Kind(m.Kind)
	payload, err := notification.DecodePayload(kind, m.Payload)
	if err != nil {
		return nil, err
	}

	return notification.ReconstructNotification(notification.NotificationSnapshot{
		ID:              id,
		RecipientID:     recipientID,
		Kind:            kind,
		TriggerEntityID: m.TriggerEntityID,
		Title:           m.Title,
		Body:            m.Body,
		Payload:         payload,
		Read:            m.IsRead,
		ReadAt:          m.ReadAt,
		CreatedAt:       m.CreatedAt,
	}), nil
}
