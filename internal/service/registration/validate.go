package registration

import (
	"regexp"
	"unicode/utf8"

	"github.com/dmhouse/user-service/internal/domain"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]+$`)
	dniRe   = regexp.MustCompile(`^\d{7,8}$`)
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{8,14}$`)
)

// Input carries the raw registration fields before any storage interaction.
type Input struct {
	Nombre   string
	Apellido string
	DNI      string
	Email    string
	Telefono string
	Password string
}

// validate checks every field-level rule and collects all violations, so
// the caller sees every failing field instead of just the first.
func validate(in Input) error {
	var fields []domain.FieldError

	fields = appendNameErrors(fields, "nombre", in.Nombre)
	fields = appendNameErrors(fields, "apellido", in.Apellido)

	if !dniRe.MatchString(in.DNI) {
		fields = append(fields, domain.FieldError{Field: "dni", Reason: "must be 7 or 8 digits"})
	}

	switch {
	case in.Email == "":
		fields = append(fields, domain.FieldError{Field: "email", Reason: "is required"})
	case len(in.Email) > 255:
		fields = append(fields, domain.FieldError{Field: "email", Reason: "must be at most 255 characters"})
	case !emailRe.MatchString(in.Email):
		fields = append(fields, domain.FieldError{Field: "email", Reason: "invalid format"})
	}

	// Telefono is optional
	if in.Telefono != "" && !phoneRe.MatchString(in.Telefono) {
		fields = append(fields, domain.FieldError{Field: "telefono", Reason: "invalid format"})
	}

	if utf8.RuneCountInString(in.Password) < 8 {
		fields = append(fields, domain.FieldError{Field: "password", Reason: "must be at least 8 characters"})
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func appendNameErrors(fields []domain.FieldError, field, value string) []domain.FieldError {
	length := utf8.RuneCountInString(value)
	switch {
	case value == "":
		return append(fields, domain.FieldError{Field: field, Reason: "is required"})
	case length < 2 || length > 100:
		return append(fields, domain.FieldError{Field: field, Reason: "must be between 2 and 100 characters"})
	case !nameRe.MatchString(value):
		return append(fields, domain.FieldError{Field: field, Reason: "may only contain letters"})
	}
	return fields
}
