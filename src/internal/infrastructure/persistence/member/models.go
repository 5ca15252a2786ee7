package member

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ===========================
// GORM Models
// ===========================

// MemberGORM 會員資料表模型
//
// 資料庫約束：
// - member_id: 主鍵（UUID）
// - phone_number: 唯一索引，可為空
// - tier_id: 可為空（尚未分級）
type MemberGORM struct {
	MemberID    string  `gorm:"column:member_id;type:varchar(36);primaryKey"`
	DisplayName string  `gorm:"column:display_name;type:varchar(255);not null"`
	PhoneNumber *string `gorm:"column:phone_number;type:varchar(10);uniqueIndex"`

	// 等級狀態
	JoinedAt          time.Time       `gorm:"column:joined_at;not null"`
	AccumulatedSpend  decimal.Decimal `gorm:"column:accumulated_spend;type:decimal(14,2);not null;default:0"`
	CompletedSessions int             `gorm:"column:completed_sessions;not null;default:0"`
	TierID            *string         `gorm:"column:tier_id;type:varchar(64)"`
	TierAssignedAt    *time.Time      `gorm:"column:tier_assigned_at"`

	CreatedAt time.Time      `gorm:"column:created_at;not null;index"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
	Version   int            `gorm:"column:version;not null;default:1"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName 指定資料表名稱
func (MemberGORM) TableName() string {
	return "members"
}

// ===========================
// Mapper Functions
// ===========================

// toDomain 將 GORM 模型轉換為 Domain 模型
func (m *MemberGORM) toDomain() (*member.Member, error) {
	memberID, err := member.MemberIDFromString(m.MemberID)
	if err != nil {
		return nil, err
	}

	var phoneNumber member.PhoneNumber
	if m.PhoneNumber != nil {
		phoneNumber, err = member.NewPhoneNumber(*m.PhoneNumber)
		if err != nil {
			return nil, err
		}
	}

	var tierID catalog.TierID
	if m.TierID != nil {
		tierID = catalog.TierID(*m.TierID)
	}

	return member.ReconstructMember(member.MemberSnapshot{
		MemberID:          memberID,
		DisplayName:       m.DisplayName,
		PhoneNumber:       phoneNumber,
		JoinedAt:          m.JoinedAt,
		AccumulatedSpend:  m.AccumulatedSpend,
		CompletedSessions: m.CompletedSessions,
		TierID:            tierID,
		TierAssignedAt:    m.TierAssignedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Version:           m.Version,
	})
}

// toGORM 將 Domain 模型轉換為 GORM 模型（零值 → NULL）
func toGORM(m *member.Member) *MemberGORM {
	var phoneNumber *string
	if !m.PhoneNumber().IsZero() {
		phoneStr := m.PhoneNumber().String()
		phoneNumber = &phoneStr
	}

	return &MemberGORM{
		MemberID:          m.MemberID().String(),
		DisplayName:       m.DisplayName(),
		PhoneNumber:       phoneNumber,
		JoinedAt:          m.JoinedAt(),
		AccumulatedSpend:  m.AccumulatedSpend(),
		CompletedSessions: m.CompletedSessions(),
		TierID:            tierColumn(m.TierID()),
		TierAssignedAt:    m.TierAssignedAt(),
		CreatedAt:         m.CreatedAt(),
		UpdatedAt:         m.UpdatedAt(),
		Version:           m.Version(),
	}
}

func tierColumn(id catalog.TierID) *string {
	if id == "" {
		return nil
	}
	s := string(id)
	return &s
}
