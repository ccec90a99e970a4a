// Package domain defines the shared types of the medgas client: the
// authenticated user, the session record kept in client-side storage and the
// backend resources exchanged with the REST API.
package domain

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"
)

// ErrNoSession is returned by SessionStorage.Load when nothing is stored.
var ErrNoSession = errors.New("domain: no stored session")

// SessionStorage persists a single session record per profile.
// Implementations must write the record as one value so readers never see a
// token without its user or the reverse.
type SessionStorage interface {
	Load(ctx context.Context) (*SessionRecord, error)
	Save(ctx context.Context, rec *SessionRecord) error
	Delete(ctx context.Context) error
}

// Pinger is implemented by storages backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionRecord is the persisted form of a session.
type SessionRecord struct {
	Profile   string    `gorm:"primaryKey;size:64" json:"profile"`
	Token     string    `json:"token"`
	User      JSON      `gorm:"column:user_profile;type:json" json:"user"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SessionRecord) TableName() string { return "console_sessions" }

// Complete reports whether both halves of the session are present.
func (r *SessionRecord) Complete() bool {
	return r != nil && r.Token != "" && len(r.User) > 0 && string(r.User) != "null"
}

// JSON is a raw JSON column for GORM.
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = []byte(v)
	default:
		return errors.New("invalid type for JSON")
	}
	return nil
}

// MarshalJSON keeps the raw document when the record itself is encoded.
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = append((*j)[0:0], data...)
	return nil
}
