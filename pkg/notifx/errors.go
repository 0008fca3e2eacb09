package notifx

import "github.com/ucbscz/registro/pkg/errx"

var notifxErrors = errx.NewRegistry("NOTIFX")

var (
	ErrDelivery   = notifxErrors.Register("DELIVERY", errx.TypeExternal, 502, "Callback delivery failed")
	ErrBadStatus  = notifxErrors.Register("BAD_STATUS", errx.TypeExternal, 502, "Callback endpoint returned a non-success status")
	ErrInvalidURL = notifxErrors.Register("INVALID_URL", errx.TypeValidation, 400, "Invalid callback URL")
)

// Errors returns the notifx error registry for providers.
func Errors() *errx.Registry {
	return notifxErrors
}
