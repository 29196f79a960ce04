package repository

import (
	"github.com/easycheckin/easycheckin/app/models"
	"gorm.io/gorm"
)

// checkInRepository implements the CheckInRepository interface
type checkInRepository struct {
	db *gorm.DB
}

// NewCheckInRepository creates a new check-in repository instance
func NewCheckInRepository(db *gorm.DB) CheckInRepository {
	return &checkInRepository{db: db}
}

func (r *checkInRepository) Create(checkIn *models.CheckIn) error {
	return r.db.Create(checkIn).Error
}

func (r *checkInRepository) GetByID(id string) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	err := r.db.Where("id = ?", id).First(&checkIn).Error
	if err != nil {
		return nil, err
	}
	return &checkIn, nil
}

func (r *checkInRepository) GetByExternalID(externalID string) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	err := r.db.Where("external_id = ?", externalID).First(&checkIn).Error
	if err != nil {
		return nil, err
	}
	return &checkIn, nil
}

func (r *checkInRepository) GetByOrganizationID(organizationID string, offset, limit int) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := r.db.Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&checkIns).Error
	return checkIns, err
}

// UpdateStatusFrom performs a compare-and-swap on the status column. A zero
// RowsAffected result means the row was not in an allowed source state (or
// does not exist) and the caller must not assume the transition happened.
func (r *checkInRepository) UpdateStatusFrom(id string, from []string, to string) (bool, error) {
	tx := r.db.Model(&models.CheckIn{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *checkInRepository) SetIdentityJSON(id string, identityJSON string) error {
	return r.db.Model(&models.CheckIn{}).
		Where("id = ?", id).
		Update("identity_json", identityJSON).Error
}

func (r *checkInRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.CheckIn{}).Error
}

func (r *checkInRepository) Count(organizationID string) (int64, error) {
	var count int64
	query := r.db.Model(&models.CheckIn{})
	if organizationID != "" {
		query = query.Where("organization_id = ?", organizationID)
	}
	err := query.Count(&count).Error
	return count, err
}
