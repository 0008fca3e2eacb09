package jobx

import "github.com/ucbscz/registro/pkg/errx"

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrJobNotFound     = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrUnsupportedTask = jobxErrors.Register("UNSUPPORTED_TASK", errx.TypeValidation, 400, "Tipo de tarea no soportado")
	ErrEnqueueFailed   = jobxErrors.Register("ENQUEUE_FAILED", errx.TypeExternal, 500, "Failed to enqueue job")
	ErrAlreadyTerminal = jobxErrors.Register("ALREADY_TERMINAL", errx.TypeConflict, 409, "Job already reached a terminal state")
	ErrInvalidJob      = jobxErrors.Register("INVALID_JOB", errx.TypeValidation, 400, "Invalid job definition")
)

// Errors returns the jobx error registry, mainly for backends that need to
// mint jobx-coded errors.
func Errors() *errx.Registry {
	return jobxErrors
}
