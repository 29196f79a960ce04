package repository

import (
	"github.com/easycheckin/easycheckin/app/models"
	"gorm.io/gorm"
)

// CheckInRepository defines the interface for check-in database operations.
// Status writes are conditional so concurrent callback deliveries cannot
// regress a check-in that has already moved on.
type CheckInRepository interface {
	Create(checkIn *models.CheckIn) error
	GetByID(id string) (*models.CheckIn, error)
	GetByExternalID(externalID string) (*models.CheckIn, error)
	GetByOrganizationID(organizationID string, offset, limit int) ([]models.CheckIn, error)
	// UpdateStatusFrom sets the status only while the row is still in one of
	// the allowed source states. It reports whether the row was updated.
	UpdateStatusFrom(id string, from []string, to string) (bool, error)
	SetIdentityJSON(id string, identityJSON string) error
	Delete(id string) error
	Count(organizationID string) (int64, error)
}

// OrganizationRepository defines the interface for organization database operations.
type OrganizationRepository interface {
	Create(org *models.Organization) error
	GetByNameID(nameID string) (*models.Organization, error)
	List(offset, limit int) ([]models.Organization, error)
	Update(org *models.Organization) error
	Delete(nameID string) error
	Count() (int64, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	CheckIn      CheckInRepository
	Organization OrganizationRepository
}

// NewRepositories creates a new instance of all repositories.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		CheckIn:      NewCheckInRepository(db),
		Organization: NewOrganizationRepository(db),
	}
}
