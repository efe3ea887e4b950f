package constants

// Error messages used in API responses.
// These are the human-readable messages returned in the "message" field.
const (
	// Common messages
	MsgInvalidRequestBody = "Invalid request body"
	MsgInternalError      = "An internal error occurred"
	MsgUnauthorized       = "Unauthorized"
	MsgRateLimited        = "Too many requests"

	// Shortener-specific messages
	MsgInvalidURL     = "Invalid URL (must be http or https)"
	MsgLinkNotFound   = "Short link not found"
	MsgLinkExpired    = "Short link expired"
	MsgWrongPassword  = "Incorrect password"
	MsgCodesExhausted = "Could not allocate a short code"
)
