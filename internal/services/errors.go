// internal/services/errors.go
package services

import "errors"

// Sentinel errors shared by all services. Handlers map these onto HTTP
// status codes; services wrap them with context via fmt.Errorf("%w: ...").
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("not allowed to perform this action")
	ErrInvalidState      = errors.New("operation not valid in current status")
	ErrInsufficientStock = errors.New("insufficient available units")
	ErrStorage           = errors.New("file storage operation failed")
)
