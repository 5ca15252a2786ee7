package member

import (
	"context"

	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/tier"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// AttendanceHistory 從 members.completed_sessions 讀取出席次數
//
// 出席由櫃台打卡以 IncrementCompletedSessions 累加
type AttendanceHistory struct {
	db *gorm.DB
}

func NewAttendanceHistory(db *gorm.DB) *AttendanceHistory {
	return &AttendanceHistory{db: db}
}

var _ tier.AttendanceHistory = (*AttendanceHistory)(nil)

// CompletedSessions 會員不存在時回傳 ErrMemberNotFound
func (h *AttendanceHistory) CompletedSessions(ctx context.Context, memberID member.MemberID) (int, error) {
	var model MemberGORM
	err := h.db.WithContext(ctx).
		Select("completed_sessions").
		Where("member_id = ?", memberID.String()).
		First(&model).Error
	if err != nil {
		return 0, persistence.MapError(err, member.ErrMemberNotFound.WithContext("member_id", memberID.String()))
	}
	return model.CompletedSessions, nil
}
