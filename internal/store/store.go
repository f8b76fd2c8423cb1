// Package store is the persistence layer of the asset tracker. All
// mutations run inside database transactions so an asset and its
// attribute changes either all persist or none do.
package store

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidCredentials is returned when a login attempt fails. It does
// not distinguish unknown usernames from wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError maps field names to human readable problems. A request
// that produces one leaves the store untouched.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(e))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Store wraps the GORM handle with asset-tracker specific operations.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by the provided database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
