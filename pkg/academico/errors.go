package academico

import "github.com/ucbscz/registro/pkg/errx"

var academicoErrors = errx.NewRegistry("ACADEMICO")

var (
	ErrFacultadNotFound   = academicoErrors.Register("FACULTAD_NOT_FOUND", errx.TypeNotFound, 404, "Facultad no encontrada")
	ErrEstudianteNotFound = academicoErrors.Register("ESTUDIANTE_NOT_FOUND", errx.TypeNotFound, 404, "Estudiante no encontrado")
	ErrMateriaNotFound    = academicoErrors.Register("MATERIA_NOT_FOUND", errx.TypeNotFound, 404, "Materia no encontrada")
	ErrDuplicado          = academicoErrors.Register("DUPLICADO", errx.TypeConflict, 409, "El registro ya existe")
	ErrPrerequisito       = academicoErrors.Register("PREREQUISITO_INVALIDO", errx.TypeBusiness, 422, "Una materia no puede ser su propio prerequisito")
	ErrDatosInvalidos     = academicoErrors.Register("DATOS_INVALIDOS", errx.TypeValidation, 400, "Datos invalidos")

	// ErrStorage marks infrastructure failures; jobs failing with it are
	// retry-eligible.
	ErrStorage = academicoErrors.Register("STORAGE", errx.TypeExternal, 502, "Error de almacenamiento")
)

// Errors returns the academico error registry for infra implementations.
func Errors() *errx.Registry {
	return academicoErrors
}
