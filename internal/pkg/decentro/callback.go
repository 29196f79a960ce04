package decentro

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event identifies which of the known callback shapes a payload matched.
type Event int

const (
	EventUnknown Event = iota
	EventSessionInitiated
	EventDocumentsFetched
	EventPartialDocumentsFetched
	EventPartialDocumentsWithPoller
	EventPollerSuccess
	EventPollerRetriesExhausted
	EventSessionTermination
	EventSessionTimeout
)

const (
	responseKeySessionInitiated      = "event_uistream_session_initiated"
	responseKeyDocumentsFetched      = "success_uistream_documents_fetch"
	responseKeyPartialDocuments      = "success_uistream_partial_documents_fetch"
	responseKeyPartialWithPoller     = "success_uistream_partial_fetch_with_poller"
	responseKeyPollerSuccess         = "success_uistream_poller"
	responseKeyPollerRetriesExceeded = "error_uistream_poller_retries_exhausted"
	responseKeySessionTermination    = "error_uistream_session_termination"
	responseKeySessionTimeout        = "event_uistream_session_timeout"
)

// StatusSuccess is the embedded per-document success marker.
const StatusSuccess = "SUCCESS"

func (e Event) String() string {
	switch e {
	case EventSessionInitiated:
		return "session_initiated"
	case EventDocumentsFetched:
		return "documents_fetched"
	case EventPartialDocumentsFetched:
		return "partial_documents_fetched"
	case EventPartialDocumentsWithPoller:
		return "partial_documents_with_poller"
	case EventPollerSuccess:
		return "poller_success"
	case EventPollerRetriesExhausted:
		return "poller_retries_exhausted"
	case EventSessionTermination:
		return "session_termination"
	case EventSessionTimeout:
		return "session_timeout"
	default:
		return "unknown"
	}
}

// Callback is one inbound webhook delivery from the provider. Classification
// is purely structural on ResponseKey; any other field is ignored for
// dispatch so new provider event types degrade to EventUnknown instead of
// failing.
type Callback struct {
	InitialDecentroTxnID string        `json:"initialDecentroTxnId"`
	Status               string        `json:"status"`
	Message              string        `json:"message"`
	ResponseKey          string        `json:"responseKey"`
	Data                 *CallbackData `json:"data"`
}

// ParseCallback decodes a raw webhook body. It fails only on malformed JSON
// or a missing correlation id, never on an unrecognized responseKey.
func ParseCallback(body []byte) (*Callback, error) {
	var cb Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("decentro callback decode failed: %w", err)
	}
	if strings.TrimSpace(cb.InitialDecentroTxnID) == "" {
		return nil, fmt.Errorf("decentro callback missing initialDecentroTxnId")
	}
	return &cb, nil
}

// Event classifies the callback against the eight known responseKey values.
func (c *Callback) Event() Event {
	switch c.ResponseKey {
	case responseKeySessionInitiated:
		return EventSessionInitiated
	case responseKeyDocumentsFetched:
		return EventDocumentsFetched
	case responseKeyPartialDocuments:
		return EventPartialDocumentsFetched
	case responseKeyPartialWithPoller:
		return EventPartialDocumentsWithPoller
	case responseKeyPollerSuccess:
		return EventPollerSuccess
	case responseKeyPollerRetriesExceeded:
		return EventPollerRetriesExhausted
	case responseKeySessionTermination:
		return EventSessionTermination
	case responseKeySessionTimeout:
		return EventSessionTimeout
	default:
		return EventUnknown
	}
}

// AadhaarData returns the fetched Aadhaar document, preferring the AADHAAR
// field over EAADHAAR. The provider returns either an image-backed or an
// e-Aadhaar XML-backed proof interchangeably; a response only counts when its
// own embedded status is SUCCESS and it carries data.
func (c *Callback) AadhaarData() *AadhaarData {
	if c.Data == nil {
		return nil
	}
	for _, resp := range []*AadhaarResponse{c.Data.Aadhaar, c.Data.EAadhaar} {
		if resp != nil && resp.Status == StatusSuccess && resp.Data != nil {
			return resp.Data
		}
	}
	return nil
}

// PANData returns the PAN document section, if any.
func (c *Callback) PANData() *PANData {
	if c.Data == nil {
		return nil
	}
	return c.Data.PAN
}
