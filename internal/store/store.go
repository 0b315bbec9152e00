// Package store defines the persistence contract of the contacts directory. The implementations
// live in the subpackages mysqlstore and mongostore.
package store

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"

	"gitlab.com/dirk.krummacker/contacts-directory/internal/model"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Sentinel errors returned by every Store implementation, possibly wrapped.
var (
	ErrNotFound    = errors.New("contact not found")
	ErrUnavailable = errors.New("store unavailable")
)

// Store is the persistence layer for contacts.
type Store interface {
	// FetchAll returns every stored contact.
	FetchAll(ctx context.Context) ([]model.Contact, error)
	// Find returns the contacts matching the query.
	Find(ctx context.Context, query Query) ([]model.Contact, error)
	// FetchByID returns the contact with the id or ErrNotFound.
	FetchByID(ctx context.Context, id string) (model.Contact, error)
	// Insert stores a new contact and returns it with its assigned id.
	Insert(ctx context.Context, contact model.Contact) (model.Contact, error)
	// UpdateFields applies a partial update or returns ErrNotFound.
	UpdateFields(ctx context.Context, id string, update model.ContactUpdate) error
	// SetAgeIfAbsent stores the age only if the contact has none yet. The check and the write
	// happen atomically. It returns true if the contact was changed.
	SetAgeIfAbsent(ctx context.Context, id string, age int) (bool, error)
	// DeleteByID removes the contact and returns the number of deleted contacts, 0 or 1.
	DeleteByID(ctx context.Context, id string) (int64, error)
	// Ping checks that the database can be reached.
	Ping(ctx context.Context) error
	// Close releases the database connection.
	Close() error
}

// NewID creates a new contact id. Ids are 24 hexadecimal characters.
func NewID() string {
	return bson.NewObjectID().Hex()
}

// ValidID returns true if id has the syntax of a contact id.
func ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}
