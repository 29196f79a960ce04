package models

import "time"

// Check-in lifecycle states. Transitions are driven exclusively by classified
// provider callbacks; COMPLETED and FAILED are reserved for a later manual
// front-desk confirmation step.
const (
	CheckInStatusInitiated        = "INITIATED"
	CheckInStatusSessionStarted   = "SESSION_STARTED"
	CheckInStatusSessionCompleted = "SESSION_COMPLETED"
	CheckInStatusSessionFailed    = "SESSION_FAILED"
	CheckInStatusEmailSent        = "EMAIL_SENT"
	CheckInStatusCompleted        = "COMPLETED"
	CheckInStatusFailed           = "FAILED"
)

// CheckIn correlates one guest verification flow with the provider
// transaction that drives it. ExternalID is assigned once at initiation and
// is the sole correlation key for every subsequent callback.
type CheckIn struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	OrganizationID string    `gorm:"type:varchar(191);not null;index" json:"organizationId"`
	ExternalID     string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"externalId"`
	Status         string    `gorm:"type:varchar(32);not null;index" json:"status"`
	IdentityJSON   string    `gorm:"type:longtext" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (CheckIn) TableName() string {
	return "check_ins"
}

// IsTerminalCheckInStatus reports whether no further callback may move the
// check-in forward.
func IsTerminalCheckInStatus(status string) bool {
	switch status {
	case CheckInStatusSessionFailed, CheckInStatusEmailSent, CheckInStatusCompleted, CheckInStatusFailed:
		return true
	default:
		return false
	}
}

var checkInStatusMessages = map[string]string{
	CheckInStatusInitiated:        "Welcome! We are preparing your digital check-in.",
	CheckInStatusSessionStarted:   "Identity verification in progress. Please complete the DigiLocker steps.",
	CheckInStatusSessionCompleted: "Verification successful! We are now notifying the hotel staff.",
	CheckInStatusSessionFailed:    "Verification failed. Please try again or visit the reception desk.",
	CheckInStatusEmailSent:        "Check-in complete! A confirmation has been sent to the hotel reception.",
	CheckInStatusCompleted:        "All set! You can now collect your keys at the reception.",
	CheckInStatusFailed:           "Check-in process encountered an issue. Please see the front desk staff.",
}

// CheckInStatusMessage returns the guest-facing text shown by the status
// polling endpoint.
func CheckInStatusMessage(status string) string {
	if msg, ok := checkInStatusMessages[status]; ok {
		return msg
	}
	return "Status unknown"
}
