package constants

// Static route constants
const (
	PublicRoute = "/"
	HealthRoute = "/health"

	APIRoute = "/api"

	KYCInitiateRoute = "/kyc/initiate"
	KYCCallbackRoute = "/kyc/callback"
	KYCStatusRoute   = "/kyc/status/:checkInId"

	OrganizationsRoute = "/organizations"
	OrganizationRoute  = "/organizations/:nameId"

	TestEmailRoute = "/test/email"
)
