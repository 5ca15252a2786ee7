package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/duration"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTTL = 10 * time.Minute

func testPackages() []catalog.Package {
	return []catalog.Package{
		{ID: "monthly-basic", Name: "月卡", DurationAmount: 1, DurationUnit: duration.Month, ListPrice: decimal.NewFromInt(1500)},
		{ID: "day-pass", Name: "單日券", DurationAmount: 1, DurationUnit: duration.Day, ListPrice: decimal.NewFromInt(300)},
	}
}

func testTiers() []catalog.MembershipTier {
	return []catalog.MembershipTier{
		{ID: "silver", DisplayName: "銀卡", Rank: 1, Active: true, Criteria: catalog.TierCriteria{MinSpend: decimal.Zero}},
	}
}

func newStatic(t *testing.T) *StaticCatalog {
	t.Helper()
	c, err := NewStaticCatalog(testPackages(), testTiers())
	require.NoError(t, err)
	return c
}

// Test 1: 靜態目錄查詢
func TestStaticCatalog_FindPackage(t *testing.T) {
	c := newStatic(t)

	p, err := c.FindPackage(context.Background(), "day-pass")
	require.NoError(t, err)
	assert.Equal(t, duration.Day, p.DurationUnit)

	_, err = c.FindPackage(context.Background(), "unknown")
	assert.ErrorIs(t, err, catalog.ErrPackageNotFound)
}

// Test 2: 設定錯誤在建立時拒絕
func TestNewStaticCatalog_Validation(t *testing.T) {
	dup := append(testPackages(), testPackages()[0])
	_, err := NewStaticCatalog(dup, nil)
	assert.ErrorIs(t, err, catalog.ErrInvalidPackage)

	tooLong := []catalog.Package{{ID: "forever", DurationAmount: 200000, DurationUnit: duration.Day, ListPrice: decimal.NewFromInt(1)}}
	_, err = NewStaticCatalog(tooLong, nil)
	assert.ErrorIs(t, err, catalog.ErrInvalidPackage)

	badTier := []catalog.MembershipTier{{ID: "x", Criteria: catalog.TierCriteria{MinSpend: decimal.NewFromInt(-1)}}}
	_, err = NewStaticCatalog(nil, badTier)
	assert.ErrorIs(t, err, catalog.ErrInvalidTier)
}

// Test 3: 回傳副本，呼叫端修改不影響目錄
func TestStaticCatalog_ReturnsCopies(t *testing.T) {
	c := newStatic(t)

	tiers, _ := c.ListTiers(context.Background())
	tiers[0].Active = false

	again, _ := c.ListTiers(context.Background())
	assert.True(t, again[0].Active)
}

// Test 4: 快取未命中 → 讀來源並寫入快取
func TestCachedCatalog_Miss_LoadsAndStores(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cached := NewCachedCatalog(newStatic(t), client, testTTL, logger.NewTestLogger(t))

	data, err := json.Marshal(testPackages())
	require.NoError(t, err)
	mock.ExpectGet(PackagesCacheKey).RedisNil()
	mock.ExpectSet(PackagesCacheKey, data, testTTL).SetVal("OK")

	p, err := cached.FindPackage(context.Background(), "monthly-basic")

	require.NoError(t, err)
	assert.True(t, p.ListPrice.Equal(decimal.NewFromInt(1500)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Test 5: 快取命中 → 不讀來源
func TestCachedCatalog_Hit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	tiers := []catalog.MembershipTier{{ID: "gold", DisplayName: "金卡", Rank: 2, Active: true}}
	data, err := json.Marshal(tiers)
	require.NoError(t, err)
	mock.ExpectGet(TiersCacheKey).SetVal(string(data))

	cached := NewCachedCatalog(newStatic(t), client, testTTL, logger.NewTestLogger(t))
	got, err := cached.ListTiers(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, catalog.TierID("gold"), got[0].ID, "應回傳快取內容而非來源")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Test 6: Redis 故障時退回來源，不回傳錯誤
func TestCachedCatalog_RedisDown_FallsBack(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet(TiersCacheKey).SetErr(errors.New("connection refused"))
	data, err := json.Marshal(testTiers())
	require.NoError(t, err)
	mock.ExpectSet(TiersCacheKey, data, testTTL).SetErr(errors.New("connection refused"))

	cached := NewCachedCatalog(newStatic(t), client, testTTL, logger.NewTestLogger(t))
	got, err := cached.ListTiers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testTiers()[0].ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Test 7: 快取中未知的套票 → NOT_FOUND
func TestCachedCatalog_UnknownPackage(t *testing.T) {
	client, mock := redismock.NewClientMock()
	data, err := json.Marshal(testPackages())
	require.NoError(t, err)
	mock.ExpectGet(PackagesCacheKey).SetVal(string(data))

	cached := NewCachedCatalog(newStatic(t), client, testTTL, logger.NewTestLogger(t))
	_, err = cached.FindPackage(context.Background(), "unknown")

	assert.ErrorIs(t, err, catalog.ErrPackageNotFound)
}

// Test 8: 清除快取
func TestCachedCatalog_Invalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectDel(PackagesCacheKey, TiersCacheKey).SetVal(2)

	cached := NewCachedCatalog(newStatic(t), client, testTTL, logger.NewTestLogger(t))

	require.NoError(t, cached.Invalidate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
