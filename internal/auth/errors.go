package auth

import "errors"

// Token and identity failures. The gate treats all token failures as "unauthenticated".
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidToken     = errors.New("token expired or signature invalid")
	ErrSubjectMismatch  = errors.New("token subject mismatch")
	ErrUnknownSubject   = errors.New("token subject is not a known employee")
	ErrMissingEmail     = errors.New("identity provider returned no email")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrInsufficientRole = errors.New("insufficient role")
	ErrAuthFailed       = errors.New("authentication failed")
)
