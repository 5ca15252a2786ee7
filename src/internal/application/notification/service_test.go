package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/duration"
	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/notification"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/metrics"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence"
	ledgerstore "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/ledger"
	memberstore "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/member"
	notificationstore "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/notification"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	monthly = catalog.Package{
		ID:             "monthly-basic",
		Name:           "月卡",
		DurationAmount: 1,
		DurationUnit:   duration.Month,
		ListPrice:      decimal.NewFromInt(1500),
	}
)

type testEnv struct {
	db      *gorm.DB
	svc     *Service
	regRepo *ledgerstore.GORMRegistrationRepository
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := persistence.NewTestDB(t,
		&notificationstore.NotificationModel{},
		&memberstore.MemberGORM{},
		&ledgerstore.RegistrationModel{},
		&ledgerstore.PaymentModel{},
	)
	svc := NewService(
		persistence.NewGORMTransactionManager(db),
		notificationstore.NewNotificationRepository(db),
		shared.FixedClock{T: testNow},
		logger.NewTestLogger(t),
	)
	return &testEnv{db: db, svc: svc, regRepo: ledgerstore.NewRegistrationRepository(db)}
}

func paymentSuccess(recipient member.MemberID, paymentID, title string) IssueCommand {
	return IssueCommand{
		RecipientID:     recipient.String(),
		Kind:            notification.KindPaymentSuccess,
		TriggerEntityID: paymentID,
		Title:           title,
		Body:            "您的月卡已啟用",
		Payload: notification.PaymentSuccessPayload{
			RegistrationID: "reg-1",
			PackageID:      "monthly-basic",
			PaymentID:      paymentID,
			Amount:         decimal.NewFromInt(1500),
		},
	}
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&notificationstore.NotificationModel{}).Count(&count).Error)
	return count
}

// ===========================
// IssueOnce
// ===========================

// Test 1: 重複發送回傳同一筆，內容不被覆寫
func TestService_IssueOnce_Deduplicates(t *testing.T) {
	env := setupEnv(t)
	recipient := member.NewMemberID()
	ctx := context.Background()
	dedup := testutil.ToFloat64(metrics.NotificationsDeduplicated.WithLabelValues(string(notification.KindPaymentSuccess)))

	first, created, err := env.svc.IssueOnce(ctx, paymentSuccess(recipient, "pay-1", "付款成功"))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := env.svc.IssueOnce(ctx, paymentSuccess(recipient, "pay-1", "另一個標題"))
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "付款成功", second.Title, "不應覆寫第一次的內容")
	assert.Equal(t, int64(1), countRows(t, env.db))
	assert.Equal(t, dedup+1, testutil.ToFloat64(metrics.NotificationsDeduplicated.WithLabelValues(string(notification.KindPaymentSuccess))))

	payload, ok := second.Payload.(notification.PaymentSuccessPayload)
	require.True(t, ok)
	assert.Equal(t, "pay-1", payload.PaymentID)
}

// Test 2: 不同觸發實體或不同收件人各自一筆
func TestService_IssueOnce_DistinctKeys(t *testing.T) {
	env := setupEnv(t)
	recipient := member.NewMemberID()
	ctx := context.Background()

	_, created1, err := env.svc.IssueOnce(ctx, paymentSuccess(recipient, "pay-1", "付款成功"))
	require.NoError(t, err)
	_, created2, err := env.svc.IssueOnce(ctx, paymentSuccess(recipient, "pay-2", "付款成功"))
	require.NoError(t, err)
	_, created3, err := env.svc.IssueOnce(ctx, paymentSuccess(member.NewMemberID(), "pay-1", "付款成功"))
	require.NoError(t, err)

	assert.True(t, created1 && created2 && created3)
	assert.Equal(t, int64(3), countRows(t, env.db))
}

// Test 3: N 個並行請求 → 一筆資料、同一個 ID
func TestService_IssueOnce_Concurrent(t *testing.T) {
	env := setupEnv(t)
	recipient := member.NewMemberID()

	const workers = 10
	ids := make([]string, workers)
	createdFlags := make([]bool, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, created, err := env.svc.IssueOnce(context.Background(), paymentSuccess(recipient, "pay-race", "付款成功"))
			errs[i] = err
			createdFlags[i] = created
			if n != nil {
				ids[i] = n.ID
			}
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
		if createdFlags[i] {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)
	assert.Equal(t, int64(1), countRows(t, env.db))
}

// Test 4: payload 驗證失敗不寫入
func TestService_IssueOnce_Validation(t *testing.T) {
	env := setupEnv(t)
	cmd := paymentSuccess(member.NewMemberID(), "pay-1", "付款成功")
	cmd.Kind = notification.KindPackageExpired

	_, _, err := env.svc.IssueOnce(context.Background(), cmd)

	assert.ErrorIs(t, err, notification.ErrPayloadMismatch)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	assert.Equal(t, int64(0), countRows(t, env.db))
}

// ===========================
// 已讀狀態
// ===========================

// Test 5: 只有收件人能標記已讀，重複標記不報錯
func TestService_MarkRead(t *testing.T) {
	env := setupEnv(t)
	recipient := member.NewMemberID()
	ctx := context.Background()
	n, _, err := env.svc.IssueOnce(ctx, paymentSuccess(recipient, "pay-1", "付款成功"))
	require.NoError(t, err)

	_, err = env.svc.MarkRead(ctx, member.NewMemberID().String(), n.ID)
	assert.ErrorIs(t, err, notification.ErrNotificationForbidden)
	assert.Equal(t, shared.KindForbidden, shared.KindOf(err))

	read, err := env.svc.MarkRead(ctx, recipient.String(), n.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	again, err := env.svc.MarkRead(ctx, recipient.String(), n.ID)
	require.NoError(t, err)
	assert.True(t, again.IsRead)

	unread, err := env.svc.UnreadCount(ctx, recipient.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	_, err = env.svc.MarkRead(ctx, recipient.String(), notification.NewNotificationID().String())
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
}

// Test 6: 全部標記已讀與列表
func TestService_MarkAllRead(t *testing.T) {
	env := setupEnv(t)
	recipient := member.NewMemberID()
	other := member.NewMemberID()
	ctx := context.Background()
	for _, id := range []string{"pay-1", "pay-2", "pay-3"} {
		_, _, err := env.svc.IssueOnce(ctx, paymentSuccess(recipient, id, "付款成功"))
		require.NoError(t, err)
	}
	_, _, err := env.svc.IssueOnce(ctx, paymentSuccess(other, "pay-9", "付款成功"))
	require.NoError(t, err)

	unread, err := env.svc.ListForRecipient(ctx, ListQuery{RecipientID: recipient.String(), UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, 3)

	count, err := env.svc.MarkAllRead(ctx, recipient.String())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	remaining, err := env.svc.UnreadCount(ctx, recipient.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)

	othersUnread, err := env.svc.UnreadCount(ctx, other.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), othersUnread, "不影響其他會員")

	limited, err := env.svc.ListForRecipient(ctx, ListQuery{RecipientID: recipient.String(), Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

// ===========================
// ExpiryScanner
// ===========================

func (e *testEnv) saveRegistration(t *testing.T, createdAt time.Time) *ledger.Registration {
	t.Helper()
	r, err := ledger.NewRegistration(member.NewMemberID(), monthly, "taipei-main", createdAt)
	require.NoError(t, err)
	require.NoError(t, e.regRepo.Save(nil, r))
	return r
}

// Test 7: 到期掃描只通知一次
func TestExpiryScanner_ScanExpired(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	expired1 := env.saveRegistration(t, testNow.AddDate(0, -3, 0))
	expired2 := env.saveRegistration(t, testNow.AddDate(0, -2, 0))
	env.saveRegistration(t, testNow)

	_, _, err := env.svc.IssueOnce(ctx, expiredCommand(expired2))
	require.NoError(t, err)

	scanner := NewExpiryScanner(env.svc, env.regRepo, shared.FixedClock{T: testNow}, 1, logger.NewTestLogger(t))

	result, err := scanner.ScanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Issued)
	assert.Equal(t, 1, result.Existing)
	assert.NoError(t, result.Failures)

	list, err := env.svc.ListForRecipient(ctx, ListQuery{RecipientID: expired1.MemberID().String()})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, string(notification.KindPackageExpired), list[0].Kind)
	assert.Equal(t, expired1.ID().String(), list[0].TriggerEntityID)

	again, err := scanner.ScanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Issued)
	assert.Equal(t, 2, again.Existing)
	assert.Equal(t, int64(2), countRows(t, env.db))
}
