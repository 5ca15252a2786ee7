package ledger

import (
	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// GORMPaymentRepository 付款倉儲（GORM）
type GORMPaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

var _ ledger.PaymentRepository = (*GORMPaymentRepository)(nil)

func (r *GORMPaymentRepository) Save(tx shared.TransactionContext, payment *ledger.Payment) error {
	db := persistence.DB(tx, r.db)

	if err := db.Create(paymentToModel(payment)).Error; err != nil {
		return persistence.MapError(err, nil)
	}
	return nil
}

// Update 以 LoadedVersion 做 compare-and-set
//
// 金額、會員、登記連結建立後不變，只寫入狀態相關欄位
func (r *GORMPaymentRepository) Update(tx shared.TransactionContext, payment *ledger.Payment) error {
	db := persistence.DB(tx, r.db)
	model := paymentToModel(payment)

	result := db.Model(&PaymentModel{}).
		Where("id = ? AND version = ?", model.ID, payment.LoadedVersion()).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"locked":       model.Locked,
			"note":         model.Note,
			"confirmed_at": model.ConfirmedAt,
			"updated_at":   model.UpdatedAt,
			"version":      model.Version,
		})
	if result.Error != nil {
		return persistence.MapError(result.Error, nil)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&PaymentModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
		return persistence.MapError(err, nil)
	}
	if count == 0 {
		return ledger.ErrPaymentNotFound.WithContext("payment_id", model.ID)
	}
	return shared.ErrStaleRecord.WithContext(
		"payment_id", model.ID,
		"loaded_version", payment.LoadedVersion(),
	)
}

func (r *GORMPaymentRepository) FindByID(tx shared.TransactionContext, id ledger.PaymentID) (*ledger.Payment, error) {
	db := persistence.DB(tx, r.db)

	var model PaymentModel
	if err := db.First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, persistence.MapError(err, ledger.ErrPaymentNotFound.WithContext("payment_id", id.String()))
	}
	return paymentToDomain(&model)
}

func (r *GORMPaymentRepository) ListByRegistration(tx shared.TransactionContext, registrationID ledger.RegistrationID) ([]*ledger.Payment, error) {
	db := persistence.DB(tx, r.db)

	var models []PaymentModel
	err := db.Where("registration_id = ?", registrationID.String()).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, persistence.MapError(err, nil)
	}

	payments := make([]*ledger.Payment, 0, len(models))
	for i := range models {
		payment, err := paymentToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, nil
}
