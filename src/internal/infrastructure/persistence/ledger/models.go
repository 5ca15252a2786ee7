package ledger

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/shopspring/decimal"
)

// ===========================
// GORM Models
// ===========================

// RegistrationModel 套票登記資料表
//
// 資料庫約束：
// - (member_id, package_id) 唯一：同一會員同一套票只能登記一次
// - 不使用軟刪除，刪除後可重新登記同一套票
type RegistrationModel struct {
	ID            string              `gorm:"column:id;type:varchar(36);primaryKey"`
	MemberID      string              `gorm:"column:member_id;type:varchar(36);not null;uniqueIndex:idx_registrations_member_package,priority:1"`
	PackageID     string              `gorm:"column:package_id;type:varchar(64);not null;uniqueIndex:idx_registrations_member_package,priority:2"`
	BranchID      string              `gorm:"column:branch_id;type:varchar(64);not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;not null"`
	ExpiresAt     time.Time           `gorm:"column:expires_at;not null;index"`
	PaymentStatus string              `gorm:"column:payment_status;type:varchar(16);not null;index"`
	PaidAmount    decimal.NullDecimal `gorm:"column:paid_amount;type:decimal(14,2)"`
	PaymentID     *string             `gorm:"column:payment_id;type:varchar(36)"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;not null"`
	Version       int                 `gorm:"column:version;not null;default:1"`
}

func (RegistrationModel) TableName() string {
	return "registrations"
}

// PaymentModel 付款資料表
//
// registration_id 不唯一：FAILED 的付款被取代後仍保留作為稽核紀錄
type PaymentModel struct {
	ID             string          `gorm:"column:id;type:varchar(36);primaryKey"`
	MemberID       string          `gorm:"column:member_id;type:varchar(36);not null;index"`
	RegistrationID *string         `gorm:"column:registration_id;type:varchar(36);index"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(14,2);not null"`
	Method         string          `gorm:"column:method;type:varchar(32);not null"`
	Status         string          `gorm:"column:status;type:varchar(16);not null;index"`
	Locked         bool            `gorm:"column:locked;not null;default:false"`
	Note           string          `gorm:"column:note;type:text"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;not null"`
	ConfirmedAt    *time.Time      `gorm:"column:confirmed_at"`
	Version        int             `gorm:"column:version;not null;default:1"`
}

func (PaymentModel) TableName() string {
	return "payments"
}

// ===========================
// Mapper Functions
// ===========================

// 時間一律以 UTC 寫入，SQLite 以字串比較時間時才會正確
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func registrationToModel(r *ledger.Registration) *RegistrationModel {
	model := &RegistrationModel{
		ID:            r.ID().String(),
		MemberID:      r.MemberID().String(),
		PackageID:     string(r.PackageID()),
		BranchID:      r.BranchID(),
		CreatedAt:     utc(r.CreatedAt()),
		ExpiresAt:     utc(r.ExpiresAt()),
		PaymentStatus: string(r.PaymentStatus()),
		UpdatedAt:     utc(r.UpdatedAt()),
		Version:       r.Version(),
	}
	if amount := r.PaidAmount(); amount != nil {
		model.PaidAmount = decimal.NewNullDecimal(*amount)
	}
	if id := r.PaymentID(); id != nil {
		s := id.String()
		model.PaymentID = &s
	}
	return model
}

func registrationToDomain(m *RegistrationModel) (*ledger.Registration, error) {
	id, err := ledger.RegistrationIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	memberID, err := member.MemberIDFromString(m.MemberID)
	if err != nil {
		return nil, err
	}

	snapshot := ledger.RegistrationSnapshot{
		ID:            id,
		MemberID:      memberID,
		PackageID:     catalog.PackageID(m.PackageID),
		BranchID:      m.BranchID,
		CreatedAt:     m.CreatedAt,
		ExpiresAt:     m.ExpiresAt,
		PaymentStatus: ledger.RegistrationPaymentStatus(m.PaymentStatus),
		UpdatedAt:     m.UpdatedAt,
		Version:       m.Version,
	}
	if m.PaidAmount.Valid {
		amount := m.PaidAmount.Decimal
		snapshot.PaidAmount = &amount
	}
	if m.PaymentID != nil {
		paymentID, err := ledger.PaymentIDFromString(*m.PaymentID)
		if err != nil {
			return nil, err
		}
		snapshot.PaymentID = &paymentID
	}

	return ledger.ReconstructRegistration(snapshot), nil
}

func paymentToModel(p *ledger.Payment) *PaymentModel {
	model := &PaymentModel{
		ID:          p.ID().String(),
		MemberID:    p.MemberID().String(),
		Amount:      p.Amount(),
		Method:      string(p.Method()),
		Status:      string(p.Status()),
		Locked:      p.Locked(),
		Note:        p.Note(),
		CreatedAt:   utc(p.CreatedAt()),
		UpdatedAt:   utc(p.UpdatedAt()),
		ConfirmedAt: utcPtr(p.ConfirmedAt()),
		Version:     p.Version(),
	}
	if regID := p.RegistrationID(); regID != nil {
		s := regID.String()
		model.RegistrationID = &s
	}
	return model
}

func paymentToDomain(m *PaymentModel) (*ledger.Payment, error) {
	id, err := ledger.PaymentIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	memberID, err := member.MemberIDFromString(m.MemberID)
	if err != nil {
		return nil, err
	}

	snapshot := ledger.PaymentSnapshot{
		ID:          id,
		MemberID:    memberID,
		Amount:      m.Amount,
		Method:      ledger.PaymentMethod(m.Method),
		Status:      ledger.PaymentStatus(m.Status),
		Locked:      m.Locked,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		ConfirmedAt: m.ConfirmedAt,
		Version:     m.Version,
	}
	if m.RegistrationID != nil {
		regID, err := ledger.RegistrationIDFromString(*m.RegistrationID)
		if err != nil {
			return nil, err
		}
		snapshot.RegistrationID = &regID
	}

	return ledger.ReconstructPayment(snapshot), nil
}
