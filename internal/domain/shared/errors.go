package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")

	// ErrLocationNotServiceable means a postal code could not be resolved to a
	// catalog partition, by range rule or by live lookup. It is distinct from
	// "no delivery to this code": it means resolution itself was unavailable.
	ErrLocationNotServiceable = NewDomainError("LOCATION_NOT_SERVICEABLE", "Location could not be resolved to a catalog partition")

	// ErrCatalogUnavailable means a live catalog fetch produced no usable data.
	ErrCatalogUnavailable = NewDomainError("CATALOG_UNAVAILABLE", "Catalog data could not be fetched for this partition")

	// ErrRecipientUnreachable means a notification channel permanently
	// rejected the recipient, such as a user blocking the bot. Callers should
	// deactivate the recipient rather than retry.
	ErrRecipientUnreachable = NewDomainError("RECIPIENT_UNREACHABLE", "Recipient can no longer be reached on this channel")
)
