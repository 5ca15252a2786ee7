package notification

import (
	"context"
	"testing"

	appledger "github.com/jackyeh168/gym_crm/src/internal/application/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/notification"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	infracatalog "github.com/jackyeh168/gym_crm/src/internal/infrastructure/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/events"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence"
	ledgerstore "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/ledger"
	memberstore "github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence/member"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: 確認付款後收件人收到一筆 PAYMENT_SUCCESS
func TestPaymentConfirmedHandler_IssuesPaymentSuccess(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	bus := events.NewInProcessBus(log)
	handler := NewPaymentConfirmedHandler(env.svc, env.regRepo)
	require.NoError(t, bus.Subscribe(handler))

	packages, err := infracatalog.NewStaticCatalog([]catalog.Package{monthly}, nil)
	require.NoError(t, err)
	members := memberstore.NewMemberRepository(env.db)
	ledgerSvc := appledger.NewService(
		persistence.NewGORMTransactionManager(env.db),
		members,
		env.regRepo,
		ledgerstore.NewPaymentRepository(env.db),
		packages,
		bus,
		shared.FixedClock{T: testNow},
		log,
	)

	enrolled, err := member.NewMember("林小美", member.PhoneNumber{}, testNow, testNow)
	require.NoError(t, err)
	require.NoError(t, members.Save(nil, enrolled))
	memberID := enrolled.MemberID()
	reg, err := ledgerSvc.CreateRegistration(ctx, appledger.CreateRegistrationCommand{
		MemberID: memberID.String(), PackageID: string(monthly.ID), BranchID: "taipei-main",
	})
	require.NoError(t, err)
	payment, err := ledgerSvc.CreatePayment(ctx, appledger.CreatePaymentCommand{
		MemberID: memberID.String(), RegistrationID: reg.ID, Method: "cash",
	})
	require.NoError(t, err)

	_, err = ledgerSvc.ConfirmPayment(ctx, payment.ID)
	require.NoError(t, err)

	list, err := env.svc.ListForRecipient(ctx, ListQuery{RecipientID: memberID.String()})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, string(notification.KindPaymentSuccess), list[0].Kind)
	assert.Equal(t, payment.ID, list[0].TriggerEntityID)

	payload, ok := list[0].Payload.(notification.PaymentSuccessPayload)
	require.True(t, ok)
	assert.Equal(t, reg.ID, payload.RegistrationID)
	assert.Equal(t, "monthly-basic", payload.PackageID)
	assert.True(t, payload.Amount.Equal(decimal.NewFromInt(1500)))
}

// Test 2: 同一事件重送只產生一筆通知
func TestPaymentConfirmedHandler_Redelivery(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	handler := NewPaymentConfirmedHandler(env.svc, env.regRepo)

	memberID := member.NewMemberID()
	reg, err := ledger.NewRegistration(memberID, monthly, "taipei-main", testNow)
	require.NoError(t, err)
	require.NoError(t, env.regRepo.Save(nil, reg))
	evt := ledger.NewPaymentConfirmedEvent(ledger.NewPaymentID(), memberID, reg.ID(), decimal.NewFromInt(1500), testNow)

	require.NoError(t, handler.Handle(ctx, evt))
	require.NoError(t, handler.Handle(ctx, evt))

	unread, err := env.svc.UnreadCount(ctx, memberID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

// Test 3: 登記不存在時回傳錯誤（由事件匯流排記錄）
func TestPaymentConfirmedHandler_MissingRegistration(t *testing.T) {
	env := setupEnv(t)
	handler := NewPaymentConfirmedHandler(env.svc, env.regRepo)
	evt := ledger.NewPaymentConfirmedEvent(ledger.NewPaymentID(), member.NewMemberID(), ledger.NewRegistrationID(), decimal.NewFromInt(1500), testNow)

	err := handler.Handle(context.Background(), evt)

	assert.ErrorIs(t, err, ledger.ErrRegistrationNotFound)
}
