package ledger

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// RegistrationDTO 登記（Output DTO）
type RegistrationDTO struct {
	ID            string
	MemberID      string
	PackageID     string
	BranchID      string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	PaymentStatus string
	PaidAmount    *decimal.Decimal
	PaymentID     string // 未連結時為空
	Version       int
}

// PaymentDTO 付款（Output DTO）
type PaymentDTO struct {
	ID             string
	MemberID       string
	RegistrationID string
	Amount         decimal.Decimal
	Method         string
	Status         string
	Locked         bool
	Note           string
	CreatedAt      time.Time
	ConfirmedAt    *time.Time
}

func toRegistrationDTO(r *ledger.Registration) *RegistrationDTO {
	dto := &RegistrationDTO{
		ID:            r.ID().String(),
		MemberID:      r.MemberID().String(),
		PackageID:     string(r.PackageID()),
		BranchID:      r.BranchID(),
		CreatedAt:     r.CreatedAt(),
		ExpiresAt:     r.ExpiresAt(),
		PaymentStatus: string(r.PaymentStatus()),
		PaidAmount:    r.PaidAmount(),
		Version:       r.Version(),
	}
	if r.PaymentID() != nil {
		dto.PaymentID = r.PaymentID().String()
	}
	return dto
}

func toPaymentDTO(p *ledger.Payment) *PaymentDTO {
	dto := &PaymentDTO{
		ID:          p.ID().String(),
		MemberID:    p.MemberID().String(),
		Amount:      p.Amount(),
		Method:      string(p.Method()),
		Status:      string(p.Status()),
		Locked:      p.Locked(),
		Note:        p.Note(),
		CreatedAt:   p.CreatedAt(),
		ConfirmedAt: p.ConfirmedAt(),
	}
	if p.RegistrationID() != nil {
		dto.RegistrationID = p.RegistrationID().String()
	}
	return dto
}
