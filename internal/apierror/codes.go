package apierror

// Error type URIs following the urn:ritual:error:* pattern.
// These are used as the "type" field in RFC 9457 Problem Details.
const (
	// TypeValidation indicates request validation failed (400)
	TypeValidation = "urn:ritual:error:validation"

	// TypeNotFound indicates the requested resource was not found (404)
	TypeNotFound = "urn:ritual:error:not_found"

	// TypeConflict indicates a resource conflict (409)
	TypeConflict = "urn:ritual:error:conflict"

	// TypeRateLimit indicates too many requests (429)
	TypeRateLimit = "urn:ritual:error:rate_limit"

	// TypeUnauthorized indicates missing or invalid authentication (401)
	TypeUnauthorized = "urn:ritual:error:unauthorized"

	// TypeForbidden indicates insufficient permissions (403)
	TypeForbidden = "urn:ritual:error:forbidden"

	// TypeInternal indicates an unexpected server error (500)
	TypeInternal = "urn:ritual:error:internal"

	// TypeInvalidDate indicates a date not in YYYY-MM-DD form (400)
	TypeInvalidDate = "urn:ritual:error:invalid_date"

	// TypeBadRequest indicates a malformed or invalid request (400)
	TypeBadRequest = "urn:ritual:error:bad_request"
)

// Titles for each error type - human-readable summaries
const (
	TitleValidation   = "Validation Error"
	TitleNotFound     = "Resource Not Found"
	TitleConflict     = "Resource Conflict"
	TitleRateLimit    = "Rate Limit Exceeded"
	TitleUnauthorized = "Authentication Required"
	TitleForbidden    = "Permission Denied"
	TitleInternal     = "Internal Server Error"
	TitleInvalidDate  = "Invalid Date Format"
	TitleBadRequest   = "Bad Request"
)
