package decentro

// Wire types for the Decentro DigiLocker/Aadhaar uistream workflow. Field
// names follow the provider's JSON contract exactly.

// UIStreamRequest starts a hosted verification session for one guest.
type UIStreamRequest struct {
	Consent             bool   `json:"consent"`
	Purpose             string `json:"purpose"`
	RedirectURL         string `json:"redirect_url"`
	UIStream            string `json:"uistream"`
	SkipSurvey          bool   `json:"skip_survey,omitempty"`
	DisableMultipleTabs bool   `json:"disable_multiple_tabs,omitempty"`
	Language            string `json:"language,omitempty"`
	ForceAadhaar        bool   `json:"force_aadhaar,omitempty"`
	ForceMobile         bool   `json:"force_mobile,omitempty"`
	ClearCookies        bool   `json:"clear_cookies,omitempty"`
	CallbackURL         string `json:"callback_url"`
	ReferenceID         string `json:"reference_id"`
}

// UIStreamResponse carries the provider transaction id used to correlate all
// later callbacks, plus the hosted session URL.
type UIStreamResponse struct {
	DecentroTxnID string `json:"decentroTxnId"`
	Status        string `json:"status"`
	ResponseCode  string `json:"responseCode"`
	Message       string `json:"message"`
	Data          struct {
		URL string `json:"url"`
	} `json:"data"`
	ResponseKey string `json:"responseKey"`
}

// ProofOfIdentity is the identity block of an Aadhaar document.
type ProofOfIdentity struct {
	DOB                string `json:"dob"`
	HashedEmail        string `json:"hashedEmail"`
	Gender             string `json:"gender"`
	HashedMobileNumber string `json:"hashedMobileNumber"`
	Name               string `json:"name"`
}

// ProofOfAddress is the address block of an Aadhaar document.
type ProofOfAddress struct {
	CareOf      string `json:"careOf"`
	Country     string `json:"country"`
	District    string `json:"district"`
	House       string `json:"house"`
	Landmark    string `json:"landmark"`
	Locality    string `json:"locality"`
	Pincode     string `json:"pincode"`
	PostOffice  string `json:"postOffice"`
	State       string `json:"state"`
	Street      string `json:"street"`
	SubDistrict string `json:"subDistrict"`
	VTC         string `json:"vtc"`
}

// AadhaarData is the document payload of a fetched Aadhaar or e-Aadhaar.
// Image, PDF and XML are base64 strings.
type AadhaarData struct {
	AadhaarReferenceNumber string          `json:"aadhaarReferenceNumber"`
	AadhaarUID             string          `json:"aadhaarUid"`
	TTL                    string          `json:"ttl,omitempty"`
	Password               string          `json:"password,omitempty"`
	ProofOfIdentity        ProofOfIdentity `json:"proofOfIdentity"`
	ProofOfAddress         ProofOfAddress  `json:"proofOfAddress"`
	Image                  string          `json:"image"`
	PDF                    string          `json:"pdf"`
	XML                    string          `json:"xml"`
}

// AadhaarResponse wraps AadhaarData with its own fetch status. Only a
// SUCCESS response carries usable data.
type AadhaarResponse struct {
	DecentroTxnID string       `json:"decentroTxnId"`
	Status        string       `json:"status"`
	ResponseCode  string       `json:"responseCode"`
	Message       string       `json:"message"`
	Data          *AadhaarData `json:"data"`
	ResponseKey   string       `json:"responseKey"`
}

// PANData is the document payload for PAN. On fetch errors or pending polls
// only Message is populated.
type PANData struct {
	DocumentIssuer     string `json:"documentIssuer"`
	DocumentName       string `json:"documentName"`
	DocumentType       string `json:"documentType"`
	IDNumber           string `json:"idNumber,omitempty"`
	UserName           string `json:"userName,omitempty"`
	UserDateOfBirth    string `json:"userDateOfBirth,omitempty"`
	UserGender         string `json:"userGender,omitempty"`
	DocumentVerifiedOn string `json:"documentVerifiedOn,omitempty"`
	DocumentStatus     string `json:"documentStatus,omitempty"`
	DocumentBase64     string `json:"documentBase64,omitempty"`
	Message            string `json:"message,omitempty"`
}

// CallbackData is the shape-dependent document section of a callback. Events
// without document data carry null here.
type CallbackData struct {
	Aadhaar  *AadhaarResponse `json:"AADHAAR,omitempty"`
	EAadhaar *AadhaarResponse `json:"EAADHAAR,omitempty"`
	PAN      *PANData         `json:"PAN,omitempty"`
}

// ErrorResponse is the provider's non-2xx body on the initiation call.
type ErrorResponse struct {
	Status       string `json:"status"`
	ResponseCode string `json:"responseCode"`
	Message      string `json:"message"`
	Error        string `json:"error,omitempty"`
}
