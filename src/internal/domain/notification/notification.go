package notification

import (
	"strings"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
)

type NotificationMarker struct{}

// NotificationID 通知 ID
type NotificationID = shared.EntityID[NotificationMarker]

func NewNotificationID() NotificationID {
	return shared.NewEntityID[NotificationMarker]()
}

func NotificationIDFromString(s string) (NotificationID, error) {
	return shared.ParseEntityID[NotificationMarker](s, ErrInvalidNotificationID)
}

// ===========================
// Notification Aggregate Root
// ===========================

// Notification 會員通知
//
// 不變量（Invariants）：
// 1. 同一 (recipient, kind, triggerEntityID) 最多一筆（資料庫唯一索引）
// 2. 建立後 title / body / payload 不再變更
// 3. 只有收件人可以標記已讀；已讀後 readAt 不再變更
type Notification struct {
	id              NotificationID
	recipientID     member.MemberID
	kind            Kind
	triggerEntityID string
	title           string
	body            string
	payload         Payload
	read            bool
	readAt          *time.Time
	createdAt       time.Time
}

// NewNotification 建立通知（Checked Constructor）
//
// 驗證規則：
// - kind 必須是已知類型
// - triggerEntityID、title 不能為空
// - payload 不可為 nil，且 payload.Kind() 必須等於 kind
func NewNotification(
	recipientID member.MemberID,
	kind Kind,
	triggerEntityID string,
	title string,
	body string,
	payload Payload,
	now time.Time,
) (*Notification, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidNotification.WithContext("kind", string(kind), "reason", "unknown kind")
	}
	if recipientID.IsEmpty() {
		return nil, ErrInvalidNotification.WithContext("reason", "recipient is required")
	}
	triggerEntityID = strings.TrimSpace(triggerEntityID)
	if triggerEntityID == "" {
		return nil, ErrInvalidNotification.WithContext("kind", string(kind), "reason", "trigger entity is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrInvalidNotification.WithContext("kind", string(kind), "reason", "title is required")
	}
	if payload == nil {
		return nil, ErrPayloadMismatch.WithContext("kind", string(kind), "payload_kind", "<nil>")
	}
	if payload.Kind() != kind {
		return nil, ErrPayloadMismatch.WithContext("kind", string(kind), "payload_kind", string(payload.Kind()))
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	return &Notification{
		id:              NewNotificationID(),
		recipientID:     recipientID,
		kind:            kind,
		triggerEntityID: triggerEntityID,
		title:           title,
		body:            body,
		payload:         payload,
		createdAt:       now,
	}, nil
}

// NotificationSnapshot 重建聚合用的持久化狀態
type NotificationSnapshot struct {
	ID              NotificationID
	RecipientID     member.MemberID
	Kind            Kind
	TriggerEntityID string
	Title           string
	Body            string
	Payload         Payload
	Read            bool
	ReadAt          *time.Time
	CreatedAt       time.Time
}

// ReconstructNotification 從資料庫狀態重建通知
func ReconstructNotification(s NotificationSnapshot) *Notification {
	return &Notification{
		id:              s.ID,
		recipientID:     s.RecipientID,
		kind:            s.Kind,
		triggerEntityID: s.TriggerEntityID,
		title:           s.Title,
		body:            s.Body,
		payload:         s.Payload,
		read:            s.Read,
		readAt:          s.ReadAt,
		createdAt:       s.CreatedAt,
	}
}

// MarkRead 標記已讀
//
// 回傳 false 表示原本就已讀（冪等）；非收件人 → ErrNotificationForbidden
func (n *Notification) MarkRead(requester member.MemberID, now time.Time) (bool, error) {
	if !n.recipientID.Equals(requester) {
		return false, ErrNotificationForbidden.WithContext(
			"notification_id", n.id.String(),
			"requester", requester.String(),
		)
	}
	if n.read {
		return false, nil
	}

	n.read = true
	readAt := now
	n.readAt = &readAt
	return true, nil
}

func (n *Notification) ID() NotificationID           { return n.id }
func (n *Notification) RecipientID() member.MemberID { return n.recipientID }
func (n *Notification) Kind() Kind                   { return n.kind }
func (n *Notification) TriggerEntityID() string      { return n.triggerEntityID }
func (n *Notification) Title() string                { return n.title }
func (n *Notification) Body() string                 { return n.body }
func (n *Notification) Payload() Payload             { return n.payload }
func (n *Notification) IsRead() bool                 { return n.read }
func (n *Notification) ReadAt() *time.Time           { return n.readAt }
func (n *Notification) CreatedAt() time.Time         { return n.createdAt }
