package kyc

import (
	"errors"
	"time"

	"github.com/easycheckin/easycheckin/app/models"
	"github.com/easycheckin/easycheckin/internal/pkg/decentro"
	"github.com/easycheckin/easycheckin/internal/pkg/env"
)

var (
	// ErrOrganizationNotFound is returned when an initiation request names an
	// unknown organization slug.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrCheckInNotFound is returned on status queries for unknown check-in
	// ids and on callbacks whose correlation id matches no stored check-in.
	ErrCheckInNotFound = errors.New("check-in record not found")
)

// IdentityPolicy controls what happens to extracted Aadhaar data after the
// callback that carried it has been handled.
type IdentityPolicy string

const (
	// IdentityPolicyDiscard drops extracted identity data once the
	// notification attempt for its own callback is done. A later poller
	// success then has nothing to merge with its PAN data, so no second,
	// more complete email ever goes out.
	IdentityPolicyDiscard IdentityPolicy = "discard"
	// IdentityPolicyMerge persists the Aadhaar snapshot on the check-in so a
	// later poller success can assemble one final notification.
	IdentityPolicyMerge IdentityPolicy = "merge"
)

// IdentityPolicyFromEnv reads KYC_IDENTITY_POLICY, defaulting to discard.
func IdentityPolicyFromEnv() IdentityPolicy {
	if env.GetEnv("KYC_IDENTITY_POLICY", string(IdentityPolicyDiscard)) == string(IdentityPolicyMerge) {
		return IdentityPolicyMerge
	}
	return IdentityPolicyDiscard
}

// InitiateResult is the outcome of a successful initiation call: the
// provider session plus the freshly persisted check-in.
type InitiateResult struct {
	DecentroKycResponse *decentro.UIStreamResponse `json:"decentroKycResponse"`
	CheckIn             *models.CheckIn            `json:"checkIn"`
}

// CheckInStatusResponse is the guest-facing polling payload.
type CheckInStatusResponse struct {
	CheckInID      string    `json:"checkInId"`
	OrganizationID string    `json:"organizationId"`
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
