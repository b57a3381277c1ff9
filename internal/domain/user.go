package domain

import "time"

// User is the identity record of a wallet holder. The password hash is
// opaque to every other layer and never serialized outward.
type User struct {
	ID           int64     `json:"id"`
	Nombre       string    `json:"nombre"`
	Apellido     string    `json:"apellido"`
	DNI          string    `json:"dni"`
	Email        string    `json:"email"`
	Telefono     string    `json:"telefono,omitempty"`
	PasswordHash string    `json:"-"`
	CVU          string    `json:"cvu"`
	Alias        string    `json:"alias"`
	Activo       bool      `json:"activo"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns "nombre apellido" for display purposes.
func (u *User) FullName() string {
	return u.Nombre + " " + u.Apellido
}

// CanLogin reports whether the user may authenticate. Deactivated users keep
// their history (soft delete) but cannot open new sessions.
func (u *User) CanLogin() bool {
	return u.Activo
}
