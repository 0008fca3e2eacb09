package errx_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ucbscz/registro/pkg/errx"
)

func TestRegistryCodesCarryPrefix(t *testing.T) {
	reg := errx.NewRegistry("TEST")
	code := reg.Register("BROKEN", errx.TypeExternal, 502, "algo fallo")

	err := reg.New(code)
	if err.Code != "TEST_BROKEN" {
		t.Fatalf("expected prefixed code, got %s", err.Code)
	}
	if err.HTTPStatus != 502 || err.Type != errx.TypeExternal {
		t.Fatalf("metadata lost: %+v", err)
	}
	if !errx.IsCode(err, code) {
		t.Fatal("IsCode should match the originating code")
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	reg := errx.NewRegistry("TEST")
	code := reg.Register("INNER", errx.TypeNotFound, 404, "no existe")

	wrapped := fmt.Errorf("outer context: %w", reg.New(code))
	if !errx.IsCode(wrapped, code) {
		t.Fatal("IsCode should see through error wrapping")
	}

	other := reg.Register("OTHER", errx.TypeNotFound, 404, "tampoco")
	if errx.IsCode(wrapped, other) {
		t.Fatal("IsCode matched the wrong code")
	}
}

func TestTypeOf(t *testing.T) {
	if got := errx.TypeOf(errx.External("cache caida")); got != errx.TypeExternal {
		t.Fatalf("expected EXTERNAL, got %s", got)
	}
	if got := errx.TypeOf(errx.Business("regla rota")); got != errx.TypeBusiness {
		t.Fatalf("expected BUSINESS, got %s", got)
	}
	// Plain errors default to internal.
	if got := errx.TypeOf(errors.New("plain")); got != errx.TypeInternal {
		t.Fatalf("expected INTERNAL for plain error, got %s", got)
	}
}

func TestNewWithCauseUnwraps(t *testing.T) {
	reg := errx.NewRegistry("TEST")
	code := reg.Register("WRAP", errx.TypeInternal, 500, "envoltorio")

	cause := errors.New("root cause")
	err := reg.NewWithCause(code, cause)

	if !errors.Is(err, cause) {
		t.Fatal("NewWithCause must preserve the cause chain")
	}
}
