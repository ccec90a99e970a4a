package domain

import "strings"

// Role is the authorization level of a console user.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleHospitalUser Role = "HOSPITAL_USER"
)

// Is compares roles ignoring case. The empty role never matches.
func (r Role) Is(other Role) bool {
	return r != "" && strings.EqualFold(string(r), string(other))
}

func (r Role) IsAdmin() bool { return r.Is(RoleAdmin) }
