package kyc

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/easycheckin/easycheckin/app/models"
	"github.com/easycheckin/easycheckin/internal/pkg/decentro"
	"github.com/easycheckin/easycheckin/internal/pkg/mail"
	"gorm.io/gorm"
)

// notify fans the verification email out to every registered address of the
// check-in's organization, then advances the status to EMAIL_SENT. Email is
// best effort: the webhook was already acknowledged upstream, so failures
// are logged rather than surfaced. The status column doubles as the
// at-most-once guard — a check-in that already reached EMAIL_SENT (or any
// terminal state) never produces a second send.
func (s *Service) notify(checkIn *models.CheckIn, aadhaar *decentro.AadhaarData) {
	if aadhaar == nil {
		return
	}

	current, err := s.checkIns.GetByID(checkIn.ID)
	if err != nil {
		log.Printf("[KYC] notify: check-in %s re-read failed: %v", checkIn.ID, err)
		return
	}
	if models.IsTerminalCheckInStatus(current.Status) {
		log.Printf("[KYC] notify: check-in %s already %s, skipping email", checkIn.ID, current.Status)
		return
	}

	org, err := s.orgs.GetByNameID(checkIn.OrganizationID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[KYC] notify: organization lookup for check-in %s failed: %v", checkIn.ID, err)
		}
		return
	}
	if len(org.EmailIDs) == 0 {
		return
	}

	data := mail.VerificationEmailData{
		RecipientName:    aadhaar.ProofOfIdentity.Name,
		OrganizationName: org.Name,
		VerificationDate: time.Now().Format("02/01/2006"),
		GuestName:        aadhaar.ProofOfIdentity.Name,
		GuestDOB:         aadhaar.ProofOfIdentity.DOB,
		GuestGender:      aadhaar.ProofOfIdentity.Gender,
		GuestAddress: fmt.Sprintf("%s, %s, %s",
			aadhaar.ProofOfAddress.Locality,
			aadhaar.ProofOfAddress.District,
			aadhaar.ProofOfAddress.State),
		GuestPincode: aadhaar.ProofOfAddress.Pincode,
		CheckInID:    checkIn.ID,
		GuestImage:   aadhaar.Image,
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed []string
	for _, addr := range org.EmailIDs {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			if err := s.mailer.Send(mail.NewVerificationMessage(addr, data)); err != nil {
				log.Printf("[KYC] notify: send to %s for check-in %s failed: %v", addr, checkIn.ID, err)
				mu.Lock()
				failed = append(failed, addr)
				mu.Unlock()
			}
		}(addr)
	}
	wg.Wait()

	if len(failed) > 0 {
		// Leave the status alone so a redelivered callback can retry the
		// whole fan-out.
		log.Printf("[KYC] notify: %d/%d sends failed for check-in %s, status not advanced",
			len(failed), len(org.EmailIDs), checkIn.ID)
		return
	}

	ok, err := s.checkIns.UpdateStatusFrom(
		checkIn.ID,
		[]string{models.CheckInStatusInitiated, models.CheckInStatusSessionStarted, models.CheckInStatusSessionCompleted},
		models.CheckInStatusEmailSent,
	)
	if err != nil {
		log.Printf("[KYC] notify: check-in %s EMAIL_SENT update failed: %v", checkIn.ID, err)
		return
	}
	if ok {
		log.Printf("[KYC] verification emails sent for check-in %s (%d recipients)", checkIn.ID, len(org.EmailIDs))
	}
}
