package member

import (
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// ===========================
// MemberRepositoryImpl
// ===========================

// MemberRepositoryImpl 會員倉儲實現（GORM）
//
// 寫入規則：
// - UpdateStanding 只寫等級相關欄位，不比對版本（last write wins）
// - IncrementCompletedSessions 使用 SQL 原子遞增，不經過聚合
type MemberRepositoryImpl struct {
	db *gorm.DB
}

// NewMemberRepository 創建新的會員倉儲實例
func NewMemberRepository(db *gorm.DB) *MemberRepositoryImpl {
	return &MemberRepositoryImpl{db: db}
}

var _ member.MemberRepository = (*MemberRepositoryImpl)(nil)

// Save 新增會員
//
// 錯誤處理：
// - UNIQUE constraint 違反 → ErrPhoneNumberAlreadyBound
func (r *MemberRepositoryImpl) Save(tx shared.TransactionContext, m *member.Member) error {
	db := persistence.DB(tx, r.db)

	if err := db.Create(toGORM(m)).Error; err != nil {
		if persistence.IsUniqueConstraintError(err) {
			return member.ErrPhoneNumberAlreadyBound.WithContext(
				"phone_number", m.PhoneNumber().String(),
			)
		}
		return persistence.MapError(err, nil)
	}
	return nil
}

// UpdateStanding 寫入等級與累計消費
//
// 以 map 更新，nil 值（清除等級）也會寫入
func (r *MemberRepositoryImpl) UpdateStanding(tx shared.TransactionContext, m *member.Member) error {
	db := persistence.DB(tx, r.db)

	result := db.Model(&MemberGORM{}).
		Where("member_id = ?", m.MemberID().String()).
		Updates(map[string]interface{}{
			"tier_id":           tierColumn(m.TierID()),
			"tier_assigned_at":  m.TierAssignedAt(),
			"accumulated_spend": m.AccumulatedSpend(),
			"updated_at":        m.UpdatedAt(),
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return persistence.MapError(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return member.ErrMemberNotFound.WithContext("member_id", m.MemberID().String())
	}
	return nil
}

// IncrementCompletedSessions 出席次數 +1
func (r *MemberRepositoryImpl) IncrementCompletedSessions(tx shared.TransactionContext, id member.MemberID) (int, error) {
	db := persistence.DB(tx, r.db)

	result := db.Model(&MemberGORM{}).
		Where("member_id = ?", id.String()).
		UpdateColumn("completed_sessions", gorm.Expr("completed_sessions + 1"))
	if result.Error != nil {
		return 0, persistence.MapError(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return 0, member.ErrMemberNotFound.WithContext("member_id", id.String())
	}

	var sessions int
	err := db.Model(&MemberGORM{}).
		Where("member_id = ?", id.String()).
		Select("completed_sessions").
		Scan(&sessions).Error
	if err != nil {
		return 0, persistence.MapError(err, nil)
	}
	return sessions, nil
}

// FindByID 根據會員 ID 查找會員
func (r *MemberRepositoryImpl) FindByID(tx shared.TransactionContext, id member.MemberID) (*member.Member, error) {
	db := persistence.DB(tx, r.db)

	var model MemberGORM
	if err := db.Where("member_id = ?", id.String()).First(&model).Error; err != nil {
		return nil, persistence.MapError(err, member.ErrMemberNotFound.WithContext("member_id", id.String()))
	}
	return model.toDomain()
}

// ExistsByPhoneNumber 檢查手機號碼是否已被使用（COUNT，不載入資料）
func (r *MemberRepositoryImpl) ExistsByPhoneNumber(tx shared.TransactionContext, phoneNumber member.PhoneNumber) (bool, error) {
	db := persistence.DB(tx, r.db)

	var count int64
	err := db.Model(&MemberGORM{}).
		Where("phone_number = ?", phoneNumber.String()).
		Count(&count).Error
	if err != nil {
		return false, persistence.MapError(err, nil)
	}
	return count > 0, nil
}

// ListIDs 全部會員 ID，依建立時間排序
func (r *MemberRepositoryImpl) ListIDs(tx shared.TransactionContext) ([]member.MemberID, error) {
	db := persistence.DB(tx, r.db)

	var raw []string
	err := db.Model(&MemberGORM{}).
		Order("created_at ASC").
		Order("member_id ASC").
		Pluck("member_id", &raw).Error
	if err != nil {
		return nil, persistence.MapError(err, nil)
	}

	ids := make([]member.MemberID, 0, len(raw))
	for _, s := range raw {
		id, err := member.MemberIDFromString(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
