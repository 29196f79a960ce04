package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Organization is a tenant hotel. NameID is the stable slug used as foreign
// key and URL segment; EmailIDs are the reception addresses notified when a
// guest completes verification.
type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(191);not null" json:"name"`
	NameID    string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"nameId"`
	EmailIDs  []string  `gorm:"type:json;serializer:json" json:"emailIds"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Organization) TableName() string {
	return "organizations"
}

// NewOrganizationNameID derives the stable slug from the display name plus a
// random component, e.g. "3f2b..._grand_palace_hotel". The random prefix
// survives renames so existing check-ins keep resolving.
func NewOrganizationNameID(name string) string {
	return uuid.NewString() + "_" + slugifyOrganizationName(name)
}

// RenameOrganizationNameID rebuilds the slug for a new display name while
// keeping the original random component.
func RenameOrganizationNameID(nameID, newName string) string {
	prefix, _, found := strings.Cut(nameID, "_")
	if !found {
		prefix = nameID
	}
	return prefix + "_" + slugifyOrganizationName(newName)
}

func slugifyOrganizationName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "_")
}

// ValidateEmailIDs rejects lists containing syntactically invalid addresses.
func ValidateEmailIDs(emails []string) error {
	for _, email := range emails {
		if err := validate.Var(email, "required,email"); err != nil {
			return err
		}
	}
	return nil
}

// DedupeEmailIDs trims and deduplicates while preserving first-seen order.
func DedupeEmailIDs(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		e := strings.TrimSpace(email)
		if e == "" {
			continue
		}
		key := strings.ToLower(e)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
