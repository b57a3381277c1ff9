package registration

import (
	"errors"
	"testing"

	"github.com/dmhouse/user-service/internal/domain"
)

func validInput() Input {
	return Input{
		Nombre:   "Ana",
		Apellido: "Diaz",
		DNI:      "30111222",
		Email:    "ana@x.com",
		Telefono: "+5491122223333",
		Password: "secret123",
	}
}

func TestValidate_Valid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"all fields", func(in *Input) {}},
		{"accented name", func(in *Input) { in.Nombre = "José María"; in.Apellido = "Ibáñez" }},
		{"seven digit dni", func(in *Input) { in.DNI = "3011122" }},
		{"no telefono", func(in *Input) { in.Telefono = "" }},
		{"phone without plus", func(in *Input) { in.Telefono = "5491122223333" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if err := validate(in); err != nil {
				t.Errorf("validate() error = %v, want nil", err)
			}
		})
	}
}

func TestValidate_Invalid(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*Input)
		wantField string
	}{
		{"empty nombre", func(in *Input) { in.Nombre = "" }, "nombre"},
		{"one letter nombre", func(in *Input) { in.Nombre = "A" }, "nombre"},
		{"numeric nombre", func(in *Input) { in.Nombre = "Ana3" }, "nombre"},
		{"empty apellido", func(in *Input) { in.Apellido = "" }, "apellido"},
		{"short dni", func(in *Input) { in.DNI = "301112" }, "dni"},
		{"long dni", func(in *Input) { in.DNI = "301112223" }, "dni"},
		{"alpha dni", func(in *Input) { in.DNI = "3011122a" }, "dni"},
		{"empty email", func(in *Input) { in.Email = "" }, "email"},
		{"bad email", func(in *Input) { in.Email = "ana-at-x.com" }, "email"},
		{"leading zero phone", func(in *Input) { in.Telefono = "0111222333444" }, "telefono"},
		{"short phone", func(in *Input) { in.Telefono = "+54911" }, "telefono"},
		{"short password", func(in *Input) { in.Password = "secret1" }, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			err := validate(in)
			if err == nil {
				t.Fatal("validate() error = nil, want ValidationError")
			}

			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("validate() error type = %T, want *domain.ValidationError", err)
			}
			if !hasField(verr, tc.wantField) {
				t.Errorf("validate() fields = %v, want failure for %q", verr.Fields, tc.wantField)
			}
		})
	}
}

func TestValidate_CollectsEveryFailingField(t *testing.T) {
	in := validInput()
	in.Nombre = "A"
	in.DNI = "12"
	in.Password = "short"

	err := validate(in)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("validate() error type = %T, want *domain.ValidationError", err)
	}

	for _, field := range []string{"nombre", "dni", "password"} {
		if !hasField(verr, field) {
			t.Errorf("validate() fields = %v, missing %q", verr.Fields, field)
		}
	}
	if len(verr.Fields) != 3 {
		t.Errorf("validate() reported %d fields, want 3", len(verr.Fields))
	}
}

func hasField(verr *domain.ValidationError, field string) bool {
	for _, f := range verr.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
