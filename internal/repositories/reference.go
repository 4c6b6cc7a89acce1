package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/bloodbank/services/bank/internal/domain"
	"example.com/bloodbank/services/bank/internal/models"
)

// DonorRepository provides access to donor records
type DonorRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewDonorRepository creates a new donor repository
func NewDonorRepository(db *gorm.DB, readOnlyDB *gorm.DB) *DonorRepository {
	return &DonorRepository{db: db, readOnlyDB: readOnlyDB}
}

// GetByID gets a donor by ID
func (r *DonorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Donor, error) {
	var donor models.Donor
	err := r.readOnlyDB.WithContext(ctx).First(&donor, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(domain.ErrNotFound, "donor")
		}
		return nil, errors.Wrap(err, "failed to get donor")
	}
	return &donor, nil
}

// List lists donors, newest first
func (r *DonorRepository) List(ctx context.Context) ([]models.Donor, error) {
	var donors []models.Donor
	err := r.readOnlyDB.WithContext(ctx).Order("created_at DESC").Find(&donors).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list donors")
	}
	return donors, nil
}

// Create stores a new donor
func (r *DonorRepository) Create(ctx context.Context, donor *models.Donor) error {
	if err := r.db.WithContext(ctx).Create(donor).Error; err != nil {
		return errors.Wrap(err, "failed to create donor")
	}
	return nil
}

// Update saves donor fields
func (r *DonorRepository) Update(ctx context.Context, donor *models.Donor) error {
	result := r.db.WithContext(ctx).Model(&models.Donor{}).
		Where("id = ?", donor.ID).
		Updates(map[string]interface{}{
			"name":            donor.Name,
			"age":             donor.Age,
			"gender":          donor.Gender,
			"blood_group":     donor.BloodGroup,
			"contact":         donor.Contact,
			"medical_history": donor.MedicalHistory,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update donor")
	}
	if result.RowsAffected == 0 {
		return errors.Wrap(domain.ErrNotFound, "donor")
	}
	return nil
}

// Delete removes a donor. Fails when the donor still has donation units or
// organs on record.
func (r *DonorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DonationUnit{}).
		Where("donor_id = ?", id).
		Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "failed to count donor donations")
	}
	if count == 0 {
		err = r.db.WithContext(ctx).Model(&models.Organ{}).
			Where("donor_id = ?", id).
			Count(&count).Error
		if err != nil {
			return errors.Wrap(err, "failed to count donor organs")
		}
	}
	if count > 0 {
		return errors.Wrap(domain.ErrInvalidState, "donor has existing donations or organs")
	}

	result := r.db.WithContext(ctx).Delete(&models.Donor{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete donor")
	}
	if result.RowsAffected == 0 {
		return errors.Wrap(domain.ErrNotFound, "donor")
	}
	return nil
}

// RecipientRepository provides access to recipient records
type RecipientRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewRecipientRepository creates a new recipient repository
func NewRecipientRepository(db *gorm.DB, readOnlyDB *gorm.DB) *RecipientRepository {
	return &RecipientRepository{db: db, readOnlyDB: readOnlyDB}
}

// GetByID gets a recipient by ID
func (r *RecipientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipient, error) {
	var recipient models.Recipient
	err := r.readOnlyDB.WithContext(ctx).First(&recipient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(domain.ErrNotFound, "recipient")
		}
		return nil, errors.Wrap(err, "failed to get recipient")
	}
	return &recipient, nil
}

// List lists recipients, newest first
func (r *RecipientRepository) List(ctx context.Context) ([]models.Recipient, error) {
	var recipients []models.Recipient
	err := r.readOnlyDB.WithContext(ctx).Order("created_at DESC").Find(&recipients).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recipients")
	}
	return recipients, nil
}

// Create stores a new recipient
func (r *RecipientRepository) Create(ctx context.Context, recipient *models.Recipient) error {
	if err := r.db.WithContext(ctx).Create(recipient).Error; err != nil {
		return errors.Wrap(err, "failed to create recipient")
	}
	return nil
}

// Update saves recipient fields
func (r *RecipientRepository) Update(ctx context.Context, recipient *models.Recipient) error {
	result := r.db.WithContext(ctx).Model(&models.Recipient{}).
		Where("id = ?", recipient.ID).
		Updates(map[string]interface{}{
			"name":           recipient.Name,
			"age":            recipient.Age,
			"gender":         recipient.Gender,
			"blood_group":    recipient.BloodGroup,
			"organ_required": recipient.OrganRequired,
			"contact":        recipient.Contact,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update recipient")
	}
	if result.RowsAffected == 0 {
		return errors.Wrap(domain.ErrNotFound, "recipient")
	}
	return nil
}

// Delete removes a recipient. Fails when the recipient still has requests.
func (r *RecipientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("recipient_id = ?", id).
		Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "failed to count recipient requests")
	}
	if count > 0 {
		return errors.Wrap(domain.ErrInvalidState, "recipient has existing requests")
	}

	result := r.db.WithContext(ctx).Delete(&models.Recipient{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete recipient")
	}
	if result.RowsAffected == 0 {
		return errors.Wrap(domain.ErrNotFound, "recipient")
	}
	return nil
}

// Count counts all recipients
func (r *RecipientRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).Model(&models.Recipient{}).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count recipients")
	}
	return count, nil
}

// Count counts all donors
func (r *DonorRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).Model(&models.Donor{}).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count donors")
	}
	return count, nil
}

// HospitalRepository provides access to hospital records
type HospitalRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewHospitalRepository creates a new hospital repository
func NewHospitalRepository(db *gorm.DB, readOnlyDB *gorm.DB) *HospitalRepository {
	return &HospitalRepository{db: db, readOnlyDB: readOnlyDB}
}

// GetByID gets a hospital by ID
func (r *HospitalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.readOnlyDB.WithContext(ctx).First(&hospital, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(domain.ErrNotFound, "hospital")
		}
		return nil, errors.Wrap(err, "failed to get hospital")
	}
	return &hospital, nil
}

// List lists hospitals
func (r *HospitalRepository) List(ctx context.Context) ([]models.Hospital, error) {
	var hospitals []models.Hospital
	err := r.readOnlyDB.WithContext(ctx).Order("name ASC").Find(&hospitals).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list hospitals")
	}
	return hospitals, nil
}

// Create stores a new hospital
func (r *HospitalRepository) Create(ctx context.Context, hospital *models.Hospital) error {
	if err := r.db.WithContext(ctx).Create(hospital).Error; err != nil {
		return errors.Wrap(err, "failed to create hospital")
	}
	return nil
}

// AdminRepository provides access to admin records
type AdminRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *gorm.DB, readOnlyDB *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db, readOnlyDB: readOnlyDB}
}

// List lists admins
func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	err := r.readOnlyDB.WithContext(ctx).Order("name ASC").Find(&admins).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list admins")
	}
	return admins, nil
}

// Create stores a new admin
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		return errors.Wrap(err, "failed to create admin")
	}
	return nil
}
