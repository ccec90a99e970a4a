// Package session holds the client-side session: the credential token issued
// by the backend at login and the profile of the authenticated user.
//
// A Store is created once per process. It rehydrates from its storage in
// NewStore and afterwards answers Get from memory, so the request pipeline can
// read the token before every call without touching disk or network.
//
//	storage, _ := persistence.NewStorage("file", path, "default")
//	store, err := session.NewStore(ctx, storage)
//
//	sess := store.Get()
//	if sess.Valid() {
//	    fmt.Println(sess.User.DisplayName())
//	}
package session

import (
	"time"

	"github.com/getkayan/medgas/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Session pairs a credential token with the user it was issued to.
// The zero value is the logged-out state.
type Session struct {
	Token string
	User  *domain.User
}

// Valid reports whether the session carries both a token and a user.
func (s Session) Valid() bool {
	return s.Token != "" && s.User != nil
}

// Role returns the user's role, or "" without a session.
func (s Session) Role() domain.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Rol
}

// ExpiresAt reads the exp claim of a JWT token without verifying it; the
// client has no key and only uses it to anticipate expiry.
func (s Session) ExpiresAt() (time.Time, bool) {
	if s.Token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired is true only for tokens with a readable exp claim in the past.
func (s Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}

func (s Session) clone() Session {
	if s.User == nil {
		return s
	}
	u := *s.User
	if u.HospitalID != nil {
		id := *u.HospitalID
		u.HospitalID = &id
	}
	return Session{Token: s.Token, User: &u}
}
