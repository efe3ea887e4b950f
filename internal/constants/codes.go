package constants

// Error codes used in API responses.
// These are the machine-readable codes returned in the "error" field.
const (
	// Common error codes
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeRateLimited    = "RATE_LIMITED"

	// Shortener-specific codes
	CodeInvalidURL     = "INVALID_URL"
	CodeLinkNotFound   = "LINK_NOT_FOUND"
	CodeLinkExpired    = "LINK_EXPIRED"
	CodeWrongPassword  = "WRONG_PASSWORD"
	CodeCodesExhausted = "CODES_EXHAUSTED"

	// Success codes
	CodeLinkCreated = "LINK_CREATED"
	CodeLinkInfo    = "LINK_INFO"
	CodeStatsFound  = "STATS_FOUND"
)
