package kyc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/easycheckin/easycheckin/app/models"
	"github.com/easycheckin/easycheckin/app/repository"
	"github.com/easycheckin/easycheckin/internal/pkg/decentro"
	"github.com/easycheckin/easycheckin/internal/pkg/env"
	"github.com/easycheckin/easycheckin/internal/pkg/mail"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const kycPurpose = "To perform KYC of the individual"

// WorkflowInitiator is the outbound provider call the service needs; the
// decentro client is the production implementation.
type WorkflowInitiator interface {
	InitiateWorkflow(ctx context.Context, request decentro.UIStreamRequest) (*decentro.UIStreamResponse, error)
}

// Service owns the check-in lifecycle: it starts verification sessions,
// interprets provider callbacks into status transitions, and triggers the
// reception notification exactly once per completed verification.
type Service struct {
	checkIns repository.CheckInRepository
	orgs     repository.OrganizationRepository
	provider WorkflowInitiator
	mailer   mail.Mailer
	policy   IdentityPolicy
	locks    *keyedMutex
}

// NewService creates a KYC service from injected collaborators.
func NewService(
	checkIns repository.CheckInRepository,
	orgs repository.OrganizationRepository,
	provider WorkflowInitiator,
	mailer mail.Mailer,
	policy IdentityPolicy,
) *Service {
	return &Service{
		checkIns: checkIns,
		orgs:     orgs,
		provider: provider,
		mailer:   mailer,
		policy:   policy,
		locks:    newKeyedMutex(),
	}
}

// NewServiceFromDB creates a KYC service from a GORM DB handle with the
// env-configured provider client, mailer and identity policy.
func NewServiceFromDB(db *gorm.DB) *Service {
	repos := repository.NewRepositories(db)
	return NewService(
		repos.CheckIn,
		repos.Organization,
		decentro.NewClientFromEnv(),
		mail.NewSMTPMailerFromEnv(),
		IdentityPolicyFromEnv(),
	)
}

// Initiate starts a verification session for one guest of the named
// organization and persists the correlating check-in record. The provider
// transaction id returned here is the key every later callback is matched
// against.
func (s *Service) Initiate(ctx context.Context, organizationNameID string) (*InitiateResult, error) {
	org, err := s.orgs.GetByNameID(organizationNameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrganizationNotFound, organizationNameID)
		}
		return nil, err
	}

	checkInID := uuid.NewString()
	frontendURL := env.GetEnv("FRONTEND_URL", "http://localhost:3000")
	backendURL := env.GetEnv("BACKEND_URL", "http://localhost:4000")

	request := decentro.UIStreamRequest{
		Consent:     true,
		Purpose:     kycPurpose,
		RedirectURL: fmt.Sprintf("%s/redirect/%s/%s", frontendURL, org.NameID, checkInID),
		UIStream:    "DIGILOCKER_AADHAAR",
		SkipSurvey:  true,
		Language:    "en",
		CallbackURL: backendURL + "/api/kyc/callback",
		ReferenceID: checkInID,
	}

	resp, err := s.provider.InitiateWorkflow(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("kyc workflow initiation failed: %w", err)
	}

	checkIn := &models.CheckIn{
		ID:             checkInID,
		OrganizationID: org.NameID,
		ExternalID:     resp.DecentroTxnID,
		Status:         models.CheckInStatusInitiated,
	}
	if err := s.checkIns.Create(checkIn); err != nil {
		return nil, err
	}

	return &InitiateResult{DecentroKycResponse: resp, CheckIn: checkIn}, nil
}

// HandleCallback routes a classified provider callback to its handler. It
// returns the affected check-in so the HTTP layer can invalidate caches.
// Unknown events are acknowledged without any state action; an unmatched
// correlation id fails the single delivery with ErrCheckInNotFound.
func (s *Service) HandleCallback(ctx context.Context, cb *decentro.Callback) (*models.CheckIn, error) {
	event := cb.Event()
	if event == decentro.EventUnknown {
		log.Printf("[KYC] ignoring unknown callback type %q (txn %s)", cb.ResponseKey, cb.InitialDecentroTxnID)
		return nil, nil
	}

	checkIn, err := s.checkIns.GetByExternalID(cb.InitialDecentroTxnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no check-in for txn %s", ErrCheckInNotFound, cb.InitialDecentroTxnID)
		}
		return nil, err
	}

	// Serialize per check-in: duplicate deliveries and poller races must not
	// interleave between the status read below and the transition.
	unlock := s.locks.Lock(checkIn.ID)
	defer unlock()

	checkIn, err = s.checkIns.GetByID(checkIn.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("[KYC] processing callback %s for check-in %s (status %s)", event, checkIn.ID, checkIn.Status)

	if models.IsTerminalCheckInStatus(checkIn.Status) {
		log.Printf("[KYC] check-in %s already %s, ignoring %s", checkIn.ID, checkIn.Status, event)
		return checkIn, nil
	}

	switch event {
	case decentro.EventSessionInitiated:
		err = s.handleSessionInitiated(checkIn)
	case decentro.EventDocumentsFetched:
		err = s.handleDocumentsFetched(checkIn, cb)
	case decentro.EventPartialDocumentsFetched:
		err = s.handlePartialDocumentsFetched(checkIn, cb)
	case decentro.EventPartialDocumentsWithPoller:
		err = s.handlePartialDocumentsWithPoller(checkIn, cb)
	case decentro.EventPollerSuccess:
		err = s.handlePollerSuccess(checkIn, cb)
	case decentro.EventPollerRetriesExhausted, decentro.EventSessionTermination, decentro.EventSessionTimeout:
		err = s.handleSessionFailed(checkIn, event)
	}
	if err != nil {
		return checkIn, err
	}
	return checkIn, nil
}

func (s *Service) handleSessionInitiated(checkIn *models.CheckIn) error {
	ok, err := s.checkIns.UpdateStatusFrom(
		checkIn.ID,
		[]string{models.CheckInStatusInitiated},
		models.CheckInStatusSessionStarted,
	)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("[KYC] check-in %s not in INITIATED, session-initiated ignored", checkIn.ID)
	}
	return nil
}

func (s *Service) handleDocumentsFetched(checkIn *models.CheckIn, cb *decentro.Callback) error {
	aadhaar := cb.AadhaarData()
	if pan := cb.PANData(); pan != nil && pan.IDNumber != "" {
		log.Printf("[KYC] check-in %s PAN fetched: %s (%s)", checkIn.ID, pan.IDNumber, pan.DocumentStatus)
	}

	if _, err := s.checkIns.UpdateStatusFrom(
		checkIn.ID,
		[]string{models.CheckInStatusInitiated, models.CheckInStatusSessionStarted},
		models.CheckInStatusSessionCompleted,
	); err != nil {
		return err
	}

	s.persistIdentity(checkIn, aadhaar)
	s.notify(checkIn, aadhaar)
	return nil
}

func (s *Service) handlePartialDocumentsFetched(checkIn *models.CheckIn, cb *decentro.Callback) error {
	aadhaar := cb.AadhaarData()
	if pan := cb.PANData(); pan != nil && pan.Message != "" {
		log.Printf("[KYC] check-in %s PAN fetch failed: %s", checkIn.ID, pan.Message)
	}

	if _, err := s.checkIns.UpdateStatusFrom(
		checkIn.ID,
		[]string{models.CheckInStatusInitiated, models.CheckInStatusSessionStarted},
		models.CheckInStatusSessionCompleted,
	); err != nil {
		return err
	}

	s.persistIdentity(checkIn, aadhaar)
	s.notify(checkIn, aadhaar)
	return nil
}

// The flow is still in-flight while the provider polls for the remaining
// document, so the status is left untouched; any Aadhaar data that already
// arrived triggers a best-effort early notification.
func (s *Service) handlePartialDocumentsWithPoller(checkIn *models.CheckIn, cb *decentro.Callback) error {
	aadhaar := cb.AadhaarData()
	if pan := cb.PANData(); pan != nil {
		log.Printf("[KYC] check-in %s PAN poller initiated: %s", checkIn.ID, pan.Message)
	}

	s.persistIdentity(checkIn, aadhaar)
	s.notify(checkIn, aadhaar)
	return nil
}

func (s *Service) handlePollerSuccess(checkIn *models.CheckIn, cb *decentro.Callback) error {
	if pan := cb.PANData(); pan != nil && pan.IDNumber != "" {
		log.Printf("[KYC] check-in %s PAN fetched by poller: %s", checkIn.ID, pan.IDNumber)
	}

	if _, err := s.checkIns.UpdateStatusFrom(
		checkIn.ID,
		[]string{models.CheckInStatusInitiated, models.CheckInStatusSessionStarted},
		models.CheckInStatusSessionCompleted,
	); err != nil {
		return err
	}

	if s.policy != IdentityPolicyMerge {
		// The Aadhaar data arrived with an earlier callback and was discarded
		// after its own notification attempt, so there is nothing to merge
		// the PAN result into.
		log.Printf("[KYC] check-in %s poller success; identity policy is discard, no merged notification", checkIn.ID)
		return nil
	}

	stored, err := s.checkIns.GetByID(checkIn.ID)
	if err != nil {
		return err
	}
	if stored.IdentityJSON == "" {
		log.Printf("[KYC] check-in %s has no stored identity snapshot, skipping merged notification", checkIn.ID)
		return nil
	}
	var aadhaar decentro.AadhaarData
	if err := json.Unmarshal([]byte(stored.IdentityJSON), &aadhaar); err != nil {
		log.Printf("[KYC] check-in %s identity snapshot corrupt: %v", checkIn.ID, err)
		return nil
	}
	s.notify(checkIn, &aadhaar)
	return nil
}

func (s *Service) handleSessionFailed(checkIn *models.CheckIn, event decentro.Event) error {
	ok, err := s.checkIns.UpdateStatusFrom(
		checkIn.ID,
		[]string{models.CheckInStatusInitiated, models.CheckInStatusSessionStarted, models.CheckInStatusSessionCompleted},
		models.CheckInStatusSessionFailed,
	)
	if err != nil {
		return err
	}
	if ok {
		log.Printf("[KYC] check-in %s marked SESSION_FAILED (%s)", checkIn.ID, event)
	}
	return nil
}

// persistIdentity stores the Aadhaar snapshot on the check-in under the
// merge policy so a later poller success can send one complete notification.
func (s *Service) persistIdentity(checkIn *models.CheckIn, aadhaar *decentro.AadhaarData) {
	if s.policy != IdentityPolicyMerge || aadhaar == nil {
		return
	}
	raw, err := json.Marshal(aadhaar)
	if err != nil {
		log.Printf("[KYC] check-in %s identity snapshot marshal failed: %v", checkIn.ID, err)
		return
	}
	if err := s.checkIns.SetIdentityJSON(checkIn.ID, string(raw)); err != nil {
		log.Printf("[KYC] check-in %s identity snapshot store failed: %v", checkIn.ID, err)
	}
}

// GetCheckInStatus resolves the polling payload for one check-in.
func (s *Service) GetCheckInStatus(checkInID string) (*CheckInStatusResponse, error) {
	checkIn, err := s.checkIns.GetByID(checkInID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCheckInNotFound, checkInID)
		}
		return nil, err
	}
	return &CheckInStatusResponse{
		CheckInID:      checkIn.ID,
		OrganizationID: checkIn.OrganizationID,
		Status:         checkIn.Status,
		Message:        models.CheckInStatusMessage(checkIn.Status),
		CreatedAt:      checkIn.CreatedAt,
		UpdatedAt:      checkIn.UpdatedAt,
	}, nil
}
