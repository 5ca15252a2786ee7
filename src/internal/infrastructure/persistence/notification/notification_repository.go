package notification

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/notification"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMNotificationRepository 通知倉儲（GORM）
type GORMNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *GORMNotificationRepository {
	return &GORMNotificationRepository{db: db}
}

var _ notification.NotificationRepository = (*GORMNotificationRepository)(nil)

var dedupColumns = []clause.Column{
	{Name: "recipient_id"},
	{Name: "kind"},
	{Name: "trigger_entity_id"},
}

// InsertIfAbsent 單一條件式寫入，RowsAffected 判斷是否為本次建立
func (r *GORMNotificationRepository) InsertIfAbsent(tx shared.TransactionContext, n *notification.Notification) (bool, error) {
	db := persistence.DB(tx, r.db)

	model, err := toModel(n)
	if err != nil {
		return false, err
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   dedupColumns,
		DoNothing: true,
	}).Create(model)
	if result.Error != nil {
		return false, persistence.MapError(result.Error, nil)
	}
	return result.RowsAffected == 1, nil
}

func (r *GORMNotificationRepository) FindByKey(
	tx shared.TransactionContext,
	recipientID member.MemberID,
	kind notification.Kind,
	triggerEntityID string,
) (*notification.Notification, error) {
	db := persistence.DB(tx, r.db)

	var model NotificationModel
	err := db.Where("recipient_id = ? AND kind = ? AND trigger_entity_id = ?",
		recipientID.String(), string(kind), triggerEntityID).
		First(&model).Error
	if err != nil {
		return nil, persistence.MapError(err, notification.ErrNotificationNotFound.WithContext(
			"recipient_id", recipientID.String(),
			"kind", string(kind),
			"trigger_entity_id", triggerEntityID,
		))
	}
	return toDomain(&model)
}

func (r *GORMNotificationRepository) FindByID(tx shared.TransactionContext, id notification.NotificationID) (*notification.Notification, error) {
	db := persistence.DB(tx, r.db)

	var model NotificationModel
	if err := db.First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, persistence.MapError(err, notification.ErrNotificationNotFound.WithContext("notification_id", id.String()))
	}
	return toDomain(&model)
}

// MarkRead 只更新未讀的通知，第一次的 read_at 不被覆蓋
func (r *GORMNotificationRepository) MarkRead(tx shared.TransactionContext, n *notification.Notification) error {
	db := persistence.DB(tx, r.db)
	if n.ReadAt() == nil {
		return nil
	}

	return persistence.MapError(
		db.Model(&NotificationModel{}).
			Where("id = ? AND is_read = ?", n.ID().String(), false).
			Updates(map[string]interface{}{
				"is_read": true,
				"read_at": n.ReadAt().UTC(),
			}).Error,
		nil,
	)
}

func (r *GORMNotificationRepository) MarkAllRead(tx shared.TransactionContext, recipientID member.MemberID, readAt time.Time) (int64, error) {
	db := persistence.DB(tx, r.db)

	result := db.Model(&NotificationModel{}).
		Where("recipient_id = ? AND is_read = ?", recipientID.String(), false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt.UTC(),
		})
	if result.Error != nil {
		return 0, persistence.MapError(result.Error, nil)
	}
	return result.RowsAffected, nil
}

func (r *GORMNotificationRepository) CountUnread(tx shared.TransactionContext, recipientID member.MemberID) (int64, error) {
	db := persistence.DB(tx, r.db)

	var count int64
	err := db.Model(&NotificationModel{}).
		Where("recipient_id = ? AND is_read = ?", recipientID.String(), false).
		Count(&count).Error
	if err != nil {
		return 0, persistence.MapError(err, nil)
	}
	return count, nil
}

func (r *GORMNotificationRepository) ListByRecipient(
	tx shared.TransactionContext,
	recipientID member.MemberID,
	unreadOnly bool,
	limit int,
) ([]*notification.Notification, error) {
	query := persistence.DB(tx, r.db).
		Where("recipient_id = ?", recipientID.String()).
		Order("created_at DESC").
		Order("id DESC")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []NotificationModel
	if err := query.Find(&models).Error; err != nil {
		return nil, persistence.MapError(err, nil)
	}

	notifications := make([]*notification.Notification, 0, len(models))
	for i := range models {
		n, err := toDomain(&models[i])
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// ExistingTriggers 已存在該類型通知的觸發實體（不分收件人）
func (r *GORMNotificationRepository) ExistingTriggers(
	tx shared.TransactionContext,
	kind notification.Kind,
	triggerEntityIDs []string,
) (map[string]bool, error) {
	existing := make(map[string]bool, len(triggerEntityIDs))
	if len(triggerEntityIDs) == 0 {
		return existing, nil
	}

	var found []string
	err := persistence.DB(tx, r.db).
		Model(&NotificationModel{}).
		Where("kind = ? AND trigger_entity_id IN ?", string(kind), triggerEntityIDs).
		Pluck("trigger_entity_id", &found).Error
	if err != nil {
		return nil, persistence.MapError(err, nil)
	}

	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}
