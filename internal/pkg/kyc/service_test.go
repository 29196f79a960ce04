package kyc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/easycheckin/easycheckin/app/models"
	"github.com/easycheckin/easycheckin/internal/pkg/decentro"
	"github.com/easycheckin/easycheckin/internal/pkg/mail"
)

type fakeCheckInRepo struct {
	mu       sync.Mutex
	checkIns map[string]*models.CheckIn
}

func newFakeCheckInRepo() *fakeCheckInRepo {
	return &fakeCheckInRepo{checkIns: make(map[string]*models.CheckIn)}
}

func (r *fakeCheckInRepo) Create(checkIn *models.CheckIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *checkIn
	r.checkIns[checkIn.ID] = &cp
	return nil
}

func (r *fakeCheckInRepo) GetByID(id string) (*models.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	checkIn, ok := r.checkIns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *checkIn
	return &cp, nil
}

func (r *fakeCheckInRepo) GetByExternalID(externalID string) (*models.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, checkIn := range r.checkIns {
		if checkIn.ExternalID == externalID {
			cp := *checkIn
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCheckInRepo) GetByOrganizationID(organizationID string, offset, limit int) ([]models.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CheckIn
	for _, checkIn := range r.checkIns {
		if checkIn.OrganizationID == organizationID {
			out = append(out, *checkIn)
		}
	}
	return out, nil
}

func (r *fakeCheckInRepo) UpdateStatusFrom(id string, from []string, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	checkIn, ok := r.checkIns[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if checkIn.Status == status {
			checkIn.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCheckInRepo) SetIdentityJSON(id string, identityJSON string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	checkIn, ok := r.checkIns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	checkIn.IdentityJSON = identityJSON
	return nil
}

func (r *fakeCheckInRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkIns, id)
	return nil
}

func (r *fakeCheckInRepo) Count(organizationID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, checkIn := range r.checkIns {
		if organizationID == "" || checkIn.OrganizationID == organizationID {
			n++
		}
	}
	return n, nil
}

func (r *fakeCheckInRepo) status(t *testing.T, id string) string {
	t.Helper()
	checkIn, err := r.GetByID(id)
	require.NoError(t, err)
	return checkIn.Status
}

type fakeOrgRepo struct {
	orgs map[string]*models.Organization
}

func newFakeOrgRepo(orgs ...*models.Organization) *fakeOrgRepo {
	r := &fakeOrgRepo{orgs: make(map[string]*models.Organization)}
	for _, org := range orgs {
		r.orgs[org.NameID] = org
	}
	return r
}

func (r *fakeOrgRepo) Create(org *models.Organization) error {
	r.orgs[org.NameID] = org
	return nil
}

func (r *fakeOrgRepo) GetByNameID(nameID string) (*models.Organization, error) {
	org, ok := r.orgs[nameID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return org, nil
}

func (r *fakeOrgRepo) List(offset, limit int) ([]models.Organization, error) {
	var out []models.Organization
	for _, org := range r.orgs {
		out = append(out, *org)
	}
	return out, nil
}

func (r *fakeOrgRepo) Update(org *models.Organization) error {
	r.orgs[org.NameID] = org
	return nil
}

func (r *fakeOrgRepo) Delete(nameID string) error {
	delete(r.orgs, nameID)
	return nil
}

func (r *fakeOrgRepo) Count() (int64, error) {
	return int64(len(r.orgs)), nil
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []mail.Message
	failFor  map[string]bool
	failNext bool
}

func (m *fakeMailer) Send(msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext || (m.failFor != nil && m.failFor[msg.To]) {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeInitiator struct {
	lastRequest decentro.UIStreamRequest
	response    *decentro.UIStreamResponse
	err         error
}

func (f *fakeInitiator) InitiateWorkflow(ctx context.Context, request decentro.UIStreamRequest) (*decentro.UIStreamResponse, error) {
	f.lastRequest = request
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func testOrg() *models.Organization {
	return &models.Organization{
		ID:       1,
		Name:     "Grand Hotel",
		NameID:   "abc123_grand_hotel",
		EmailIDs: []string{"reception@grand.example", "manager@grand.example"},
	}
}

func newTestService(checkIns *fakeCheckInRepo, orgs *fakeOrgRepo, initiator *fakeInitiator, mailer *fakeMailer, policy IdentityPolicy) *Service {
	return NewService(checkIns, orgs, initiator, mailer, policy)
}

func aadhaarCallback(txnID, responseKey string) *decentro.Callback {
	return &decentro.Callback{
		InitialDecentroTxnID: txnID,
		ResponseKey:          responseKey,
		Data: &decentro.CallbackData{
			Aadhaar: &decentro.AadhaarResponse{
				Status: decentro.StatusSuccess,
				Data: &decentro.AadhaarData{
					AadhaarReferenceNumber: "ref-1",
					ProofOfIdentity: decentro.ProofOfIdentity{
						Name:   "Asha Rao",
						DOB:    "01-01-1990",
						Gender: "F",
					},
					ProofOfAddress: decentro.ProofOfAddress{
						Locality: "MG Road",
						District: "Bengaluru",
						State:    "Karnataka",
						Pincode:  "560001",
					},
					Image: "aW1hZ2U=",
				},
			},
		},
	}
}

func seedCheckIn(repo *fakeCheckInRepo, status string) *models.CheckIn {
	checkIn := &models.CheckIn{
		ID:             "ci-1",
		OrganizationID: "abc123_grand_hotel",
		ExternalID:     "txn-1",
		Status:         status,
	}
	_ = repo.Create(checkIn)
	return checkIn
}

func TestInitiateCreatesCheckIn(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	orgs := newFakeOrgRepo(testOrg())
	initiator := &fakeInitiator{response: &decentro.UIStreamResponse{
		DecentroTxnID: "txn-1",
		Status:        "SUCCESS",
	}}
	svc := newTestService(checkIns, orgs, initiator, &fakeMailer{}, IdentityPolicyDiscard)

	result, err := svc.Initiate(context.Background(), "abc123_grand_hotel")
	require.NoError(t, err)
	require.NotNil(t, result.CheckIn)

	assert.Equal(t, "txn-1", result.CheckIn.ExternalID)
	assert.Equal(t, models.CheckInStatusInitiated, result.CheckIn.Status)
	assert.Equal(t, "abc123_grand_hotel", result.CheckIn.OrganizationID)
	assert.Equal(t, result.CheckIn.ID, initiator.lastRequest.ReferenceID)
	assert.Contains(t, initiator.lastRequest.RedirectURL, "abc123_grand_hotel/"+result.CheckIn.ID)
	assert.Equal(t, "DIGILOCKER_AADHAAR", initiator.lastRequest.UIStream)
	assert.True(t, initiator.lastRequest.Consent)

	stored, err := checkIns.GetByID(result.CheckIn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusInitiated, stored.Status)
}

func TestInitiateUnknownOrganization(t *testing.T) {
	svc := newTestService(newFakeCheckInRepo(), newFakeOrgRepo(), &fakeInitiator{}, &fakeMailer{}, IdentityPolicyDiscard)

	_, err := svc.Initiate(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestInitiateProviderFailureLeavesNoRecord(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	initiator := &fakeInitiator{err: errors.New("provider down")}
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), initiator, &fakeMailer{}, IdentityPolicyDiscard)

	_, err := svc.Initiate(context.Background(), "abc123_grand_hotel")
	require.Error(t, err)

	count, _ := checkIns.Count("")
	assert.Zero(t, count)
}

func TestHandleCallbackSessionInitiated(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	seedCheckIn(checkIns, models.CheckInStatusInitiated)
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, &fakeMailer{}, IdentityPolicyDiscard)

	_, err := svc.HandleCallback(context.Background(), &decentro.Callback{
		InitialDecentroTxnID: "txn-1",
		ResponseKey:          "event_uistream_session_initiated",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusSessionStarted, checkIns.status(t, "ci-1"))
}

func TestHandleCallbackDocumentsFetchedSendsEmail(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	seedCheckIn(checkIns, models.CheckInStatusSessionStarted)
	mailer := &fakeMailer{}
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, mailer, IdentityPolicyDiscard)

	_, err := svc.HandleCallback(context.Background(), aadhaarCallback("txn-1", "success_uistream_documents_fetch"))
	require.NoError(t, err)

	assert.Equal(t, models.CheckInStatusEmailSent, checkIns.status(t, "ci-1"))
	assert.Equal(t, 2, mailer.sentCount())
}

func TestHandleCallbackDuplicateDeliveryNoSecondEmail(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	seedCheckIn(checkIns, models.CheckInStatusSessionStarted)
	mailer := &fakeMailer{}
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, mailer, IdentityPolicyDiscard)

	cb := aadhaarCallback("txn-1", "success_uistream_documents_fetch")
	_, err := svc.HandleCallback(context.Background(), cb)
	require.NoError(t, err)
	_, err = svc.HandleCallback(context.Background(), cb)
	require.NoError(t, err)

	assert.Equal(t, models.CheckInStatusEmailSent, checkIns.status(t, "ci-1"))
	assert.Equal(t, 2, mailer.sentCount())
}

func TestHandleCallbackFailedSendKeepsStatusForRetry(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	seedCheckIn(checkIns, models.CheckInStatusSessionStarted)
	mailer := &fakeMailer{failFor: map[string]bool{"manager@grand.example": true}}
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, mailer, IdentityPolicyDiscard)

	_, err := svc.HandleCallback(context.Background(), aadhaarCallback("txn-1", "success_uistream_documents_fetch"))
	require.NoError(t, err)

	// One recipient failed, so the status must stay retryable.
	assert.Equal(t, models.CheckInStatusSessionCompleted, checkIns.status(t, "ci-1"))

	// Redelivery retries the fan-out and advances.
	mailer.failFor = nil
	_, err = svc.HandleCallback(context.Background(), aadhaarCallback("txn-1", "success_uistream_documents_fetch"))
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusEmailSent, checkIns.status(t, "ci-1"))
}

func TestHandleCallbackPartialWithPollerKeepsStatus(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	seedCheckIn(checkIns, models.CheckInStatusSessionStarted)
	mailer := &fakeMailer{}
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, mailer, IdentityPolicyDiscard)

	cb := aadhaarCallback("txn-1", "success_uistream_partial_fetch_with_poller")
	cb.Data.PAN = &decentro.PANData{Message: "PAN fetch pending, poller scheduled"}
	_, err := svc.HandleCallback(context.Background(), cb)
	require.NoError(t, err)

	// Notification fires early but the flow is still in-flight, so the
	// status reflects the send rather than session completion.
	assert.Equal(t, models.CheckInStatusEmailSent, checkIns.status(t, "ci-1"))
	assert.Equal(t, 2, mailer.sentCount())

	// The poller result after the email has been sent is terminal-ignored.
	_, err = svc.HandleCallback(context.Background(), aadhaarCallback("txn-1", "success_uistream_poller"))
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusEmailSent, checkIns.status(t, "ci-1"))
	assert.Equal(t, 2, mailer.sentCount())
}

func TestHandleCallbackPollerSuccessDiscardPolicy(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	seedCheckIn(checkIns, models.CheckInStatusSessionStarted)
	mailer := &fakeMailer{}
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, mailer, IdentityPolicyDiscard)

	cb := aadhaarCallback("txn-1", "success_uistream_poller")
	cb.Data.PAN = &decentro.PANData{IDNumber: "ABCDE1234F"}
	_, err := svc.HandleCallback(context.Background(), cb)
	require.NoError(t, err)

	// Without a stored identity snapshot there is nothing to notify with.
	assert.Equal(t, models.CheckInStatusSessionCompleted, checkIns.status(t, "ci-1"))
	assert.Zero(t, mailer.sentCount())
}

func TestHandleCallbackPollerSuccessMergePolicy(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	checkIn := seedCheckIn(checkIns, models.CheckInStatusSessionStarted)
	mailer := &fakeMailer{}
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, mailer, IdentityPolicyMerge)

	snapshot, err := json.Marshal(aadhaarCallback("txn-1", "").AadhaarData())
	require.NoError(t, err)
	require.NoError(t, checkIns.SetIdentityJSON(checkIn.ID, string(snapshot)))

	cb := aadhaarCallback("txn-1", "success_uistream_poller")
	cb.Data.PAN = &decentro.PANData{IDNumber: "ABCDE1234F"}
	_, err = svc.HandleCallback(context.Background(), cb)
	require.NoError(t, err)

	assert.Equal(t, models.CheckInStatusEmailSent, checkIns.status(t, "ci-1"))
	assert.Equal(t, 2, mailer.sentCount())
}

func TestHandleCallbackFailureEvents(t *testing.T) {
	for _, responseKey := range []string{
		"error_uistream_poller_retries_exhausted",
		"error_uistream_session_termination",
		"event_uistream_session_timeout",
	} {
		checkIns := newFakeCheckInRepo()
		seedCheckIn(checkIns, models.CheckInStatusSessionStarted)
		svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, &fakeMailer{}, IdentityPolicyDiscard)

		_, err := svc.HandleCallback(context.Background(), &decentro.Callback{
			InitialDecentroTxnID: "txn-1",
			ResponseKey:          responseKey,
		})
		require.NoError(t, err, responseKey)
		assert.Equal(t, models.CheckInStatusSessionFailed, checkIns.status(t, "ci-1"), responseKey)
	}
}

func TestHandleCallbackTerminalStatusIgnored(t *testing.T) {
	for _, status := range []string{
		models.CheckInStatusSessionFailed,
		models.CheckInStatusEmailSent,
		models.CheckInStatusCompleted,
		models.CheckInStatusFailed,
	} {
		checkIns := newFakeCheckInRepo()
		seedCheckIn(checkIns, status)
		mailer := &fakeMailer{}
		svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, mailer, IdentityPolicyDiscard)

		_, err := svc.HandleCallback(context.Background(), aadhaarCallback("txn-1", "success_uistream_documents_fetch"))
		require.NoError(t, err, status)
		assert.Equal(t, status, checkIns.status(t, "ci-1"), status)
		assert.Zero(t, mailer.sentCount(), status)
	}
}

func TestHandleCallbackUnknownEventNoMutation(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	seedCheckIn(checkIns, models.CheckInStatusInitiated)
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, &fakeMailer{}, IdentityPolicyDiscard)

	checkIn, err := svc.HandleCallback(context.Background(), &decentro.Callback{
		InitialDecentroTxnID: "txn-1",
		ResponseKey:          "brand_new_event",
	})
	require.NoError(t, err)
	assert.Nil(t, checkIn)
	assert.Equal(t, models.CheckInStatusInitiated, checkIns.status(t, "ci-1"))
}

func TestHandleCallbackUnmatchedCorrelation(t *testing.T) {
	svc := newTestService(newFakeCheckInRepo(), newFakeOrgRepo(testOrg()), &fakeInitiator{}, &fakeMailer{}, IdentityPolicyDiscard)

	_, err := svc.HandleCallback(context.Background(), &decentro.Callback{
		InitialDecentroTxnID: "txn-missing",
		ResponseKey:          "event_uistream_session_initiated",
	})
	assert.ErrorIs(t, err, ErrCheckInNotFound)
}

func TestHandleCallbackOutOfOrderDocumentsBeforeSessionInitiated(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	seedCheckIn(checkIns, models.CheckInStatusInitiated)
	mailer := &fakeMailer{}
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, mailer, IdentityPolicyDiscard)

	// Documents arrive before the session-initiated event.
	_, err := svc.HandleCallback(context.Background(), aadhaarCallback("txn-1", "success_uistream_documents_fetch"))
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusEmailSent, checkIns.status(t, "ci-1"))

	// The late session-initiated event must not regress the flow.
	_, err = svc.HandleCallback(context.Background(), &decentro.Callback{
		InitialDecentroTxnID: "txn-1",
		ResponseKey:          "event_uistream_session_initiated",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusEmailSent, checkIns.status(t, "ci-1"))
	assert.Equal(t, 2, mailer.sentCount())
}

func TestGetCheckInStatus(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	seedCheckIn(checkIns, models.CheckInStatusSessionStarted)
	svc := newTestService(checkIns, newFakeOrgRepo(testOrg()), &fakeInitiator{}, &fakeMailer{}, IdentityPolicyDiscard)

	status, err := svc.GetCheckInStatus("ci-1")
	require.NoError(t, err)
	assert.Equal(t, "ci-1", status.CheckInID)
	assert.Equal(t, models.CheckInStatusSessionStarted, status.Status)
	assert.Equal(t, models.CheckInStatusMessage(models.CheckInStatusSessionStarted), status.Message)

	_, err = svc.GetCheckInStatus("missing")
	assert.ErrorIs(t, err, ErrCheckInNotFound)
}

func TestEndToEndInitiateThenCallbacks(t *testing.T) {
	checkIns := newFakeCheckInRepo()
	orgs := newFakeOrgRepo(testOrg())
	initiator := &fakeInitiator{response: &decentro.UIStreamResponse{DecentroTxnID: "txn-e2e"}}
	mailer := &fakeMailer{}
	svc := newTestService(checkIns, orgs, initiator, mailer, IdentityPolicyDiscard)

	result, err := svc.Initiate(context.Background(), "abc123_grand_hotel")
	require.NoError(t, err)

	for i, responseKey := range []string{
		"event_uistream_session_initiated",
		"success_uistream_documents_fetch",
	} {
		cb := aadhaarCallback("txn-e2e", responseKey)
		_, err := svc.HandleCallback(context.Background(), cb)
		require.NoError(t, err, fmt.Sprintf("callback %d", i))
	}

	stored, err := checkIns.GetByID(result.CheckIn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusEmailSent, stored.Status)
	assert.Equal(t, 2, mailer.sentCount())
}
