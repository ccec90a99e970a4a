// Package persistence provides the durable backends behind the session store.
// A backend is chosen by name from SESSION_BACKEND:
//
//	file      one JSON document on disk (default)
//	sqlite    gorm, pure-Go driver
//	postgres  gorm
//	mysql     gorm
//	redis     one key per profile
//	mongo     one document per profile
//	memory    process lifetime only
//
// Every backend holds at most one record per profile.
package persistence

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/getkayan/medgas/domain"
	"gorm.io/gorm"
)

// DialectorOpener returns a gorm.Dialector for a DSN.
type DialectorOpener = func(string) gorm.Dialector

// Factory builds a non-GORM session storage for a DSN and profile.
type Factory = func(dsn, profile string) (domain.SessionStorage, error)

var (
	registryMu sync.RWMutex
	dialects   = make(map[string]DialectorOpener)
	factories  = make(map[string]Factory)
)

// RegisterDialect makes a SQL backend available under name. Its session
// table is migrated when the storage is opened.
func RegisterDialect(name string, open DialectorOpener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
	dialects[name] = open
}

// RegisterFactory makes a custom backend available under name.
func RegisterFactory(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(dialects, name)
	factories[name] = f
}

// Backends lists the registered backend names in order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(dialects)+len(factories))
	for name := range dialects {
		names = append(names, name)
	}
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewStorage opens the backend registered under name for one profile.
func NewStorage(name, dsn, profile string) (domain.SessionStorage, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	registryMu.RLock()
	open, isSQL := dialects[name]
	factory, isCustom := factories[name]
	registryMu.RUnlock()

	switch {
	case isSQL:
		db, err := gorm.Open(open(dsn), &gorm.Config{Logger: gormLogger()})
		if err != nil {
			return nil, fmt.Errorf("persistence: open %s: %w", name, err)
		}
		repo := NewRepository(db, profile)
		if err := repo.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("persistence: migrate %s: %w", name, err)
		}
		return repo, nil
	case isCustom:
		return factory(dsn, profile)
	default:
		return nil, fmt.Errorf("persistence: unknown session backend %q (have %s)", name, strings.Join(Backends(), ", "))
	}
}
