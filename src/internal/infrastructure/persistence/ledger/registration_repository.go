package ledger

import (
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/domain/catalog"
	"github.com/jackyeh168/gym_crm/src/internal/domain/ledger"
	"github.com/jackyeh168/gym_crm/src/internal/domain/member"
	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/persistence"
	"gorm.io/gorm"
)

// GORMRegistrationRepository 套票登記倉儲（GORM）
//
// Update / Delete 以版本做 compare-and-set：
//
//	UPDATE registrations SET ..., version = :version WHERE id = :id AND version = :loaded_version
//
// 影響 0 筆時再查一次是否存在，區分 NotFound 與 StaleRecord
type GORMRegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *GORMRegistrationRepository {
	return &GORMRegistrationRepository{db: db}
}

var _ ledger.RegistrationRepository = (*GORMRegistrationRepository)(nil)

// Save 新增登記
//
// 錯誤：(member_id, package_id) 唯一索引衝突 → ErrDuplicateRegistration
func (r *GORMRegistrationRepository) Save(tx shared.TransactionContext, registration *ledger.Registration) error {
	db := persistence.DB(tx, r.db)

	if err := db.Create(registrationToModel(registration)).Error; err != nil {
		return r.mapWriteError(err, registration)
	}
	return nil
}

// Update 以 LoadedVersion 做 compare-and-set
func (r *GORMRegistrationRepository) Update(tx shared.TransactionContext, registration *ledger.Registration) error {
	db := persistence.DB(tx, r.db)
	model := registrationToModel(registration)

	result := db.Model(&RegistrationModel{}).
		Where("id = ? AND version = ?", model.ID, registration.LoadedVersion()).
		Updates(map[string]interface{}{
			"package_id":     model.PackageID,
			"branch_id":      model.BranchID,
			"expires_at":     model.ExpiresAt,
			"payment_status": model.PaymentStatus,
			"paid_amount":    model.PaidAmount,
			"payment_id":     model.PaymentID,
			"updated_at":     model.UpdatedAt,
			"version":        model.Version,
		})
	if result.Error != nil {
		return r.mapWriteError(result.Error, registration)
	}
	if result.RowsAffected == 0 {
		return r.missOrStale(db, registration)
	}
	return nil
}

// Delete 以 LoadedVersion 做 compare-and-set 刪除
func (r *GORMRegistrationRepository) Delete(tx shared.TransactionContext, registration *ledger.Registration) error {
	db := persistence.DB(tx, r.db)

	result := db.
		Where("id = ? AND version = ?", registration.ID().String(), registration.LoadedVersion()).
		Delete(&RegistrationModel{})
	if result.Error != nil {
		return persistence.MapError(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return r.missOrStale(db, registration)
	}
	return nil
}

func (r *GORMRegistrationRepository) FindByID(tx shared.TransactionContext, id ledger.RegistrationID) (*ledger.Registration, error) {
	db := persistence.DB(tx, r.db)

	var model RegistrationModel
	if err := db.First(&model, "id = ?", id.String()).Error; err != nil {
		return nil, persistence.MapError(err, ledger.ErrRegistrationNotFound.WithContext("registration_id", id.String()))
	}
	return registrationToDomain(&model)
}

// FindByMemberAndPackage 找不到時回傳 (nil, nil)
func (r *GORMRegistrationRepository) FindByMemberAndPackage(
	tx shared.TransactionContext,
	memberID member.MemberID,
	packageID catalog.PackageID,
) (*ledger.Registration, error) {
	db := persistence.DB(tx, r.db)

	var models []RegistrationModel
	err := db.Where("member_id = ? AND package_id = ?", memberID.String(), string(packageID)).
		Limit(1).
		Find(&models).Error
	if err != nil {
		return nil, persistence.MapError(err, nil)
	}
	if len(models) == 0 {
		return nil, nil
	}
	return registrationToDomain(&models[0])
}

func (r *GORMRegistrationRepository) ListByMember(tx shared.TransactionContext, memberID member.MemberID) ([]*ledger.Registration, error) {
	return r.list(persistence.DB(tx, r.db).
		Where("member_id = ?", memberID.String()).
		Order("created_at ASC"))
}

func (r *GORMRegistrationRepository) ListPaidByMember(tx shared.TransactionContext, memberID member.MemberID) ([]*ledger.Registration, error) {
	return r.list(persistence.DB(tx, r.db).
		Where("member_id = ? AND payment_status = ?", memberID.String(), string(ledger.RegistrationPaid)).
		Order("created_at ASC"))
}

// ListExpiredBefore 到期日早於 cutoff，依 (expires_at, id) 排序並以 keyset 分頁
func (r *GORMRegistrationRepository) ListExpiredBefore(
	tx shared.TransactionContext,
	cutoff time.Time,
	after *ledger.ExpiryCursor,
	limit int,
) ([]*ledger.Registration, error) {
	query := persistence.DB(tx, r.db).
		Where("expires_at < ?", cutoff.UTC())
	if after != nil {
		at := after.ExpiresAt.UTC()
		query = query.Where("(expires_at > ? OR (expires_at = ? AND id > ?))", at, at, after.ID.String())
	}
	query = query.Order("expires_at ASC").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.list(query)
}

func (r *GORMRegistrationRepository) list(query *gorm.DB) ([]*ledger.Registration, error) {
	var models []RegistrationModel
	if err := query.Find(&models).Error; err != nil {
		return nil, persistence.MapError(err, nil)
	}

	registrations := make([]*ledger.Registration, 0, len(models))
	for i := range models {
		registration, err := registrationToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, registration)
	}
	return registrations, nil
}

func (r *GORMRegistrationRepository) mapWriteError(err error, registration *ledger.Registration) error {
	if persistence.IsUniqueConstraintError(err) {
		return ledger.ErrDuplicateRegistration.WithContext(
			"member_id", registration.MemberID().String(),
			"package_id", string(registration.PackageID()),
		)
	}
	return persistence.MapError(err, nil)
}

// missOrStale compare-and-set 失敗時判斷原因
func (r *GORMRegistrationRepository) missOrStale(db *gorm.DB, registration *ledger.Registration) error {
	var count int64
	if err := db.Model(&RegistrationModel{}).Where("id = ?", registration.ID().String()).Count(&count).Error; err != nil {
		return persistence.MapError(err, nil)
	}
	if count == 0 {
		return ledger.ErrRegistrationNotFound.WithContext("registration_id", registration.ID().String())
	}
	return shared.ErrStaleRecord.WithContext(
		"registration_id", registration.ID().String(),
		"loaded_version", registration.LoadedVersion(),
	)
}
