package notification

import "github.com/jackyeh168/gym_crm/src/internal/domain/shared"

const (
	ErrCodeNotificationNotFound  shared.ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrCodeNotificationForbidden shared.ErrorCode = "NOTIFICATION_FORBIDDEN"
	ErrCodeInvalidNotification   shared.ErrorCode = "NOTIFICATION_INVALID"
	ErrCodePayloadMismatch       shared.ErrorCode = "NOTIFICATION_PAYLOAD_MISMATCH"
	ErrCodeInvalidNotificationID shared.ErrorCode = "NOTIFICATION_ID_INVALID"
)

var (
	ErrNotificationNotFound = shared.NewDomainError(ErrCodeNotificationNotFound, shared.KindNotFound, "通知不存在")

	// ErrNotificationForbidden 只有收件人可以標記已讀
	ErrNotificationForbidden = shared.NewDomainError(ErrCodeNotificationForbidden, shared.KindForbidden, "無權限操作此通知")

	ErrInvalidNotification = shared.NewDomainError(ErrCodeInvalidNotification, shared.KindValidation, "通知內容無效")

	// ErrPayloadMismatch payload 類型與通知類型不一致
	ErrPayloadMismatch = shared.NewDomainError(ErrCodePayloadMismatch, shared.KindValidation, "通知附帶資料與通知類型不符")

	ErrInvalidNotificationID = shared.NewDomainError(ErrCodeInvalidNotificationID, shared.KindValidation, "通知 ID 格式無效")
)
