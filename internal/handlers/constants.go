package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrNoActiveIntake      = "No intake in progress"

	// ErrMissingRequired is the compat endpoint's message for a nameless or locationless payload
	ErrMissingRequired = "Missing required fields: parentName/location."

	// CSRF scopes
	wizardScope = "wizard"
	staffScope  = "staff"

	// csrfFormField carries the CSRF token on plain HTML form posts
	csrfFormField = "csrf_token"

	maxBodyBytes = 64 << 10
)
