package domain

import (
	"strings"
	"time"
)

// User is the authenticated profile returned by the backend as "usuario".
type User struct {
	ID           int        `json:"id"`
	Nombre       string     `json:"nombre"`
	Apellido     string     `json:"apellido"`
	Email        string     `json:"email"`
	Rol          Role       `json:"rol"`
	HospitalID   *int       `json:"hospital_id,omitempty"`
	Estado       bool       `json:"estado"`
	UltimoAcceso *time.Time `json:"ultimo_acceso,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.Nombre + " " + u.Apellido)
	if name == "" {
		return u.Email
	}
	return name
}
