package ledger

import (
	"testing"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/duration"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC)

	monthlyPackage = catalog.Package{
		ID:             "monthly-basic",
		Name:           "月卡",
		DurationAmount: 1,
		DurationUnit:   duration.Month,
		ListPrice:      decimal.NewFromInt(1500),
	}
)

func newTestRegistration(t *testing.T) *Registration {
	t.Helper()
	r, err := NewRegistration(member.NewMemberID(), monthlyPackage, "taipei-main", testNow)
	require.NoError(t, err)
	return r
}

func paidRegistration(t *testing.T) (*Registration, *Payment) {
	t.Helper()
	r := newTestRegistration(t)
	p, err := NewPayment(r.MemberID(), r.ID(), monthlyPackage.ListPrice, "cash", testNow)
	require.NoError(t, err)
	r.LinkPayment(p.ID(), testNow)
	require.NoError(t, p.Confirm(testNow))
	require.NoError(t, r.MarkPaid(p.ID(), p.Amount(), testNow))
	return r, p
}

// Test 1: 建立登記時以日曆計算到期日
func TestNewRegistration_ComputesExpiry(t *testing.T) {
	r := newTestRegistration(t)

	assert.Equal(t, RegistrationUnpaid, r.PaymentStatus())
	assert.Nil(t, r.PaidAmount())
	assert.Nil(t, r.PaymentID())
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), r.ExpiresAt(), "1/31 + 1 個月應溢位到 3/2")
}

// Test 2: 分店不可為空
func TestNewRegistration_EmptyBranch(t *testing.T) {
	_, err := NewRegistration(member.NewMemberID(), monthlyPackage, "  ", testNow)
	assert.ErrorIs(t, err, ErrInvalidBranch)
}

// Test 3: 套票期間為負數
func TestNewRegistration_NegativeDuration(t *testing.T) {
	pkg := monthlyPackage
	pkg.DurationAmount = -3

	_, err := NewRegistration(member.NewMemberID(), pkg, "taipei-main", testNow)
	assert.ErrorIs(t, err, duration.ErrNegativeAmount)
}

// Test 4: 更新登記；更換套票不重算到期日
func TestRegistration_ApplyPatch(t *testing.T) {
	r := newTestRegistration(t)
	originalExpiry := r.ExpiresAt()
	yearly := catalog.PackageID("yearly-premium")
	branch := "taichung"

	err := r.ApplyPatch(RegistrationPatch{PackageID: &yearly, BranchID: &branch}, testNow.Add(time.Hour))

	require.NoError(t, err)
	assert.Equal(t, yearly, r.PackageID())
	assert.Equal(t, "taichung", r.BranchID())
	assert.Equal(t, originalExpiry, r.ExpiresAt(), "更換套票不應重算到期日")
	assert.Equal(t, 1, r.Version(), "尚未保存的登記不遞增版本")

	loaded := ReconstructRegistration(RegistrationSnapshot{ID: r.ID(), MemberID: r.MemberID(), PaymentStatus: RegistrationUnpaid, Version: 3})
	require.NoError(t, loaded.ApplyPatch(RegistrationPatch{BranchID: &branch}, testNow))
	require.NoError(t, loaded.ApplyPatch(RegistrationPatch{PackageID: &yearly}, testNow))
	assert.Equal(t, 3, loaded.LoadedVersion())
	assert.Equal(t, 4, loaded.Version(), "同一次載入多次變更只遞增一次")
}

// Test 5: 空白更新 → VALIDATION
func TestRegistration_ApplyPatch_Empty(t *testing.T) {
	r := newTestRegistration(t)

	err := r.ApplyPatch(RegistrationPatch{}, testNow)

	assert.ErrorIs(t, err, ErrEmptyPatch)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

// Test 6: 已付款的登記無論更新內容為何都拒絕
func TestRegistration_LockedAfterPaid(t *testing.T) {
	r, _ := paidRegistration(t)
	expiry := r.ExpiresAt().AddDate(1, 0, 0)

	tests := []struct {
		name  string
		patch RegistrationPatch
	}{
		{"空白更新", RegistrationPatch{}},
		{"延長到期日", RegistrationPatch{ExpiresAt: &expiry}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ApplyPatch(tt.patch, testNow)

			assert.ErrorIs(t, err, ErrRegistrationLocked)
			assert.Equal(t, shared.KindLocked, shared.KindOf(err))
		})
	}

	assert.ErrorIs(t, r.EnsureMutable(), ErrRegistrationLocked)
}

// Test 7: 建立付款前的防護條件
func TestRegistration_CheckPayable(t *testing.T) {
	t.Run("無連結付款", func(t *testing.T) {
		r := newTestRegistration(t)
		assert.NoError(t, r.CheckPayable(nil))
	})

	t.Run("處理中的付款", func(t *testing.T) {
		r := newTestRegistration(t)
		p, _ := NewPayment(r.MemberID(), r.ID(), decimal.NewFromInt(1500), "cash", testNow)
		r.LinkPayment(p.ID(), testNow)

		assert.ErrorIs(t, r.CheckPayable(p), ErrPaymentPending)
	})

	t.Run("失敗的付款可被取代", func(t *testing.T) {
		r := newTestRegistration(t)
		p, _ := NewPayment(r.MemberID(), r.ID(), decimal.NewFromInt(1500), "cash", testNow)
		r.LinkPayment(p.ID(), testNow)
		require.NoError(t, p.Fail("card declined", testNow))

		assert.NoError(t, r.CheckPayable(p))
	})

	t.Run("已付款", func(t *testing.T) {
		r, p := paidRegistration(t)
		assert.ErrorIs(t, r.CheckPayable(p), ErrAlreadyPaid)
	})

	t.Run("付款已鎖定但登記未付款", func(t *testing.T) {
		r := newTestRegistration(t)
		legacy := ReconstructPayment(PaymentSnapshot{
			ID:       NewPaymentID(),
			MemberID: r.MemberID(),
			Status:   PaymentProcessing,
			Locked:   true,
			Version:  3,
		})

		assert.ErrorIs(t, r.CheckPayable(legacy), ErrPaymentLocked)
	})
}

// Test 8: 標記已付款只能一次，且必須是連結的付款
func TestRegistration_MarkPaid(t *testing.T) {
	r := newTestRegistration(t)
	linked := NewPaymentID()
	r.LinkPayment(linked, testNow)

	err := r.MarkPaid(NewPaymentID(), decimal.NewFromInt(1500), testNow)
	assert.ErrorIs(t, err, ErrPaymentNotLinked)

	require.NoError(t, r.MarkPaid(linked, decimal.RequireFromString("1350.50"), testNow))
	assert.True(t, r.IsPaid())
	require.NotNil(t, r.PaidAmount())
	assert.Equal(t, "1350.5", r.PaidAmount().String())

	err = r.MarkPaid(linked, decimal.NewFromInt(1500), testNow)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Equal(t, shared.KindAlreadyDone, shared.KindOf(err))
}

// Test 9: 到期判斷
func TestRegistration_IsExpired(t *testing.T) {
	r := newTestRegistration(t)

	assert.False(t, r.IsExpired(r.ExpiresAt()))
	assert.True(t, r.IsExpired(r.ExpiresAt().Add(time.Second)))
}
