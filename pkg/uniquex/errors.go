package uniquex

import "github.com/ucbscz/registro/pkg/errx"

var uniquexErrors = errx.NewRegistry("UNIQUEX")

var (
	ErrDuplicate  = uniquexErrors.Register("DUPLICATE", errx.TypeConflict, 409, "La clave ya está registrada")
	ErrNotClaimed = uniquexErrors.Register("NOT_CLAIMED", errx.TypeNotFound, 404, "La clave no está registrada")
	ErrStore      = uniquexErrors.Register("STORE", errx.TypeExternal, 502, "Uniqueness store unavailable")
)

// IsDuplicate reports whether err is a duplicate-claim conflict.
func IsDuplicate(err error) bool {
	return errx.IsCode(err, ErrDuplicate)
}

// Errors returns the uniquex error registry for store implementations.
func Errors() *errx.Registry {
	return uniquexErrors
}
