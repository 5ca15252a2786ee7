package member

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ===========================
// Member Aggregate Root
// ===========================

// Member 會員聚合根
//
// 聚合邊界：
// - 基本資料（DisplayName, PhoneNumber）
// - 入會日期（JoinedAt，連續會籍的起點）
// - 等級狀態（TierID, TierAssignedAt, AccumulatedSpend 快取）
// - 出席次數（CompletedSessions）
//
// 不變量（Invariants）：
// 1. 必須有顯示名稱
// 2. TierAssignedAt 只在等級實際變更時更新
// 3. AccumulatedSpend 是已付款金額的快取，不會小於零
// 4. CompletedSessions 不會小於零
//
// 版本控制：
// - loadedVersion：從資料庫讀出時的版本（新建為 0）
// - version：目前版本，行為方法在第一次變更時遞增
// - Repository 以 loadedVersion 做 compare-and-set
type Member struct {
	memberID    MemberID
	displayName string
	phoneNumber PhoneNumber

	joinedAt          time.Time
	accumulatedSpend  decimal.Decimal
	completedSessions int
	tierID            catalog.TierID // 空字串表示尚未分級
	tierAssignedAt    *time.Time

	createdAt     time.Time
	updatedAt     time.Time
	loadedVersion int
	version       int
}

// NewMember 創建新會員（Checked Constructor）
//
// 業務規則：
// 1. displayName 不能為空
// 2. phoneNumber 可為零值（未提供聯絡電話）
// 3. joinedAt 為零值時以 now 代替
// 4. 初始無等級、累計消費 0
func NewMember(displayName string, phoneNumber PhoneNumber, joinedAt time.Time, now time.Time) (*Member, error) {
	if displayName == "" {
		return nil, ErrInvalidDisplayName
	}
	if joinedAt.IsZero() {
		joinedAt = now
	}

	return &Member{
		memberID:         NewMemberID(),
		displayName:      displayName,
		phoneNumber:      phoneNumber,
		joinedAt:         joinedAt,
		accumulatedSpend: decimal.Zero,
		createdAt:        now,
		updatedAt:        now,
		loadedVersion:    0,
		version:          1,
	}, nil
}

// MemberSnapshot 重建聚合用的持久化狀態
type MemberSnapshot struct {
	MemberID          MemberID
	DisplayName       string
	PhoneNumber       PhoneNumber
	JoinedAt          time.Time
	AccumulatedSpend  decimal.Decimal
	CompletedSessions int
	TierID            catalog.TierID
	TierAssignedAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int
}

// ReconstructMember 從資料庫狀態重建會員聚合
//
// 不執行業務規則驗證（假設資料庫中的數據已驗證）
func ReconstructMember(s MemberSnapshot) (*Member, error) {
	if s.DisplayName == "" {
		return nil, ErrInvalidDisplayName
	}

	return &Member{
		memberID:          s.MemberID,
		displayName:       s.DisplayName,
		phoneNumber:       s.PhoneNumber,
		joinedAt:          s.JoinedAt,
		accumulatedSpend:  s.AccumulatedSpend,
		completedSessions: s.CompletedSessions,
		tierID:            s.TierID,
		tierAssignedAt:    s.TierAssignedAt,
		createdAt:         s.CreatedAt,
		updatedAt:         s.UpdatedAt,
		loadedVersion:     s.Version,
		version:           s.Version,
	}, nil
}

// ===========================
// Behavior Methods
// ===========================

// AssignTier 指派會員等級
//
// 回傳 true 表示等級實際變更（TierAssignedAt 設為 now）；
// 與目前等級相同時不做任何事，TierAssignedAt 保持原值。
func (m *Member) AssignTier(tierID catalog.TierID, now time.Time) bool {
	if m.tierID == tierID {
		return false
	}

	m.tierID = tierID
	assignedAt := now
	m.tierAssignedAt = &assignedAt
	m.touch(now)
	return true
}

// UpdateAccumulatedSpend 更新累計消費快取
//
// 金額相同時不寫入，回傳 false
func (m *Member) UpdateAccumulatedSpend(total decimal.Decimal, now time.Time) (bool, error) {
	if total.IsNegative() {
		return false, ErrNegativeSpend.WithContext("member_id", m.memberID.String(), "total", total.String())
	}
	if m.accumulatedSpend.Equal(total) {
		return false, nil
	}

	m.accumulatedSpend = total
	m.touch(now)
	return true, nil
}

// ContinuousMonths 入會至 now 的完整日曆月數
func (m *Member) ContinuousMonths(now time.Time) int {
	return WholeMonthsBetween(m.joinedAt, now)
}

// touch 更新時間戳，並在本次載入後第一次變更時遞增版本
func (m *Member) touch(now time.Time) {
	m.updatedAt = now
	if m.version == m.loadedVersion {
		m.version++
	}
}

// WholeMonthsBetween 計算 from 到 to 之間經過的完整日曆月數
//
// 規則：
// - 1 月 15 日 → 2 月 14 日：0 個月
// - 1 月 15 日 → 2 月 15 日（同一時刻或之後）：1 個月
// - to 早於 from：0
func WholeMonthsBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}

	to = to.In(from.Location())
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())

	// 尚未到達本月的「週年日」則扣一個月
	anniversary := from.AddDate(0, months, 0)
	if anniversary.After(to) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// ===========================
// Getters
// ===========================

func (m *Member) MemberID() MemberID                { return m.memberID }
func (m *Member) DisplayName() string               { return m.displayName }
func (m *Member) PhoneNumber() PhoneNumber          { return m.phoneNumber }
func (m *Member) JoinedAt() time.Time               { return m.joinedAt }
func (m *Member) AccumulatedSpend() decimal.Decimal { return m.accumulatedSpend }
func (m *Member) CompletedSessions() int            { return m.completedSessions }
func (m *Member) TierID() catalog.TierID            { return m.tierID }
func (m *Member) HasTier() bool                     { return m.tierID != "" }
func (m *Member) TierAssignedAt() *time.Time        { return m.tierAssignedAt }
func (m *Member) CreatedAt() time.Time              { return m.createdAt }
func (m *Member) UpdatedAt() time.Time              { return m.updatedAt }
func (m *Member) Version() int                      { return m.version }
func (m *Member) LoadedVersion() int                { return m.loadedVersion }
