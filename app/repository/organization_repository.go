package repository

import (
	"github.com/easycheckin/easycheckin/app/models"
	"gorm.io/gorm"
)

// organizationRepository implements the OrganizationRepository interface
type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new organization repository instance
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(org *models.Organization) error {
	return r.db.Create(org).Error
}

func (r *organizationRepository) GetByNameID(nameID string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.Where("name_id = ?", nameID).First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) List(offset, limit int) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orgs).Error
	return orgs, err
}

func (r *organizationRepository) Update(org *models.Organization) error {
	return r.db.Save(org).Error
}

func (r *organizationRepository) Delete(nameID string) error {
	// Check-ins referencing the organization stay behind; they are historical
	// records and are not cascaded.
	return r.db.Where("name_id = ?", nameID).Delete(&models.Organization{}).Error
}

func (r *organizationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Organization{}).Count(&count).Error
	return count, err
}
