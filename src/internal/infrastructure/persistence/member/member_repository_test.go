package member

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ===========================
// MemberRepository Integration Tests
// ===========================

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return persistence.NewTestDB(t, &MemberGORM{})
}

func createTestMember(t *testing.T, phone string) *member.Member {
	t.Helper()
	phoneNumber, err := member.OptionalPhoneNumber(phone)
	require.NoError(t, err)

	m, err := member.NewMember("Test User", phoneNumber, testNow.AddDate(-1, 0, 0), testNow)
	require.NoError(t, err)
	return m
}

// Test 1: 新增會員（無手機）
func TestMemberRepository_Save_NewMember_Success(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMemberRepository(db)
	m := createTestMember(t, "")

	require.NoError(t, repo.Save(nil, m))

	var model MemberGORM
	require.NoError(t, db.First(&model, "member_id = ?", m.MemberID().String()).Error)
	assert.Equal(t, m.DisplayName(), model.DisplayName)
	assert.Nil(t, model.PhoneNumber, "未提供手機應存為 NULL")
	assert.Nil(t, model.TierID)
	assert.Equal(t, 1, model.Version)
}

// Test 2: 手機號碼重複 → ErrPhoneNumberAlreadyBound
func TestMemberRepository_Save_DuplicatePhoneNumber_ReturnsError(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t))

	require.NoError(t, repo.Save(nil, createTestMember(t, "0912345678")))
	err := repo.Save(nil, createTestMember(t, "0912-345-678"))

	assert.ErrorIs(t, err, member.ErrPhoneNumberAlreadyBound)
	assert.Equal(t, shared.KindDuplicate, shared.KindOf(err))
}

// Test 3: 多位會員都沒有手機（NULL 不觸發唯一索引）
func TestMemberRepository_Save_MultipleWithoutPhone(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t))

	require.NoError(t, repo.Save(nil, createTestMember(t, "")))
	require.NoError(t, repo.Save(nil, createTestMember(t, "")))
}

// Test 4: 查詢不存在的會員
func TestMemberRepository_FindByID_NotFound_ReturnsError(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t))
	id := member.NewMemberID()

	_, err := repo.FindByID(nil, id)

	assert.ErrorIs(t, err, member.ErrMemberNotFound)
}

// Test 5: 完整讀寫保留所有欄位
func TestMemberRepository_RoundTrip_PreservesAllFields(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t))
	m := createTestMember(t, "0987654321")
	require.NoError(t, repo.Save(nil, m))

	found, err := repo.FindByID(nil, m.MemberID())

	require.NoError(t, err)
	assert.True(t, found.MemberID().Equals(m.MemberID()))
	assert.Equal(t, "0987654321", found.PhoneNumber().String())
	assert.True(t, found.JoinedAt().Equal(m.JoinedAt()))
	assert.True(t, found.AccumulatedSpend().IsZero())
	assert.False(t, found.HasTier())
	assert.Equal(t, 1, found.LoadedVersion())
}

// Test 6: UpdateStanding 寫入等級與累計消費
func TestMemberRepository_UpdateStanding(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t))
	m := createTestMember(t, "")
	require.NoError(t, repo.Save(nil, m))

	loaded, err := repo.FindByID(nil, m.MemberID())
	require.NoError(t, err)
	_, err = loaded.UpdateAccumulatedSpend(decimal.RequireFromString("5000000.50"), testNow)
	require.NoError(t, err)
	loaded.AssignTier(catalog.TierID("gold"), testNow)

	require.NoError(t, repo.UpdateStanding(nil, loaded))

	found, err := repo.FindByID(nil, m.MemberID())
	require.NoError(t, err)
	assert.Equal(t, catalog.TierID("gold"), found.TierID())
	require.NotNil(t, found.TierAssignedAt())
	assert.True(t, found.TierAssignedAt().Equal(testNow))
	assert.True(t, found.AccumulatedSpend().Equal(decimal.RequireFromString("5000000.5")))
	assert.Equal(t, 2, found.Version())
}

// Test 7: UpdateStanding 對不存在的會員
func TestMemberRepository_UpdateStanding_NotFound(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t))

	err := repo.UpdateStanding(nil, createTestMember(t, ""))

	assert.ErrorIs(t, err, member.ErrMemberNotFound)
}

// Test 8: 出席次數原子遞增，不受並發影響
func TestMemberRepository_IncrementCompletedSessions_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMemberRepository(db)
	m := createTestMember(t, "")
	require.NoError(t, repo.Save(nil, m))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementCompletedSessions(nil, m.MemberID())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sessions, err := NewAttendanceHistory(db).CompletedSessions(context.Background(), m.MemberID())
	require.NoError(t, err)
	assert.Equal(t, n, sessions)
}

// Test 9: 遞增不存在的會員
func TestMemberRepository_IncrementCompletedSessions_NotFound(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t))

	_, err := repo.IncrementCompletedSessions(nil, member.NewMemberID())

	assert.ErrorIs(t, err, member.ErrMemberNotFound)
}

// Test 10: 手機是否已使用
func TestMemberRepository_ExistsByPhoneNumber(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t))
	require.NoError(t, repo.Save(nil, createTestMember(t, "0911111111")))

	used, _ := member.NewPhoneNumber("0911111111")
	free, _ := member.NewPhoneNumber("0922222222")

	exists, err := repo.ExistsByPhoneNumber(nil, used)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByPhoneNumber(nil, free)
	require.NoError(t, err)
	assert.False(t, exists)
}

// Test 11: ListIDs 依建立時間排序
func TestMemberRepository_ListIDs_OrderedByCreation(t *testing.T) {
	repo := NewMemberRepository(setupTestDB(t))

	var want []member.MemberID
	for i := 0; i < 3; i++ {
		m, err := member.NewMember("M", member.PhoneNumber{}, testNow, testNow.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.Save(nil, m))
		want = append(want, m.MemberID())
	}

	ids, err := repo.ListIDs(nil)

	require.NoError(t, err)
	require.Len(t, ids, 3)
	for i := range want {
		assert.True(t, want[i].Equals(ids[i]))
	}
}
