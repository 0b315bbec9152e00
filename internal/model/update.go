package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Names of the contact fields that can be changed by an update.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldBirthday  = "birthday"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldAddress   = "address"
	FieldAge       = "age"
)

// MutableFields is the allow-list of JSON keys an update request may carry. Every other key,
// including the id, is ignored.
var MutableFields = []string{
	FieldFirstName,
	FieldLastName,
	FieldBirthday,
	FieldEmail,
	FieldPhone,
	FieldAddress,
	FieldAge,
}

// ErrEmptyUpdate is returned when an update request contains none of the mutable fields.
var ErrEmptyUpdate = errors.New("no values to be updated")

// InvalidFieldError reports a mutable field whose value could not be decoded.
type InvalidFieldError struct {
	Field string
	Err   error
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid value for field %q: %v", e.Field, e.Err)
}

func (e *InvalidFieldError) Unwrap() error {
	return e.Err
}

// Patch is a single field of a partial update. Set tells whether the field was part of the
// request at all; a nil Value with Set being true clears the field.
type Patch[T any] struct {
	Set   bool
	Value *T
}

// ContactUpdate holds the fields of a partial update. Fields that are not set are left
// untouched on the stored contact.
type ContactUpdate struct {
	FirstName Patch[string]
	LastName  Patch[string]
	Birthday  Patch[Birthday]
	Email     Patch[string]
	Phone     Patch[string]
	Address   Patch[string]
	Age       Patch[int]
}

// Empty returns true if the update would not change any field.
func (u ContactUpdate) Empty() bool {
	return !u.FirstName.Set && !u.LastName.Set && !u.Birthday.Set && !u.Email.Set &&
		!u.Phone.Set && !u.Address.Set && !u.Age.Set
}

// MergeUpdate keeps the mutable fields present in the payload and drops everything else. If no
// mutable field remains, ErrEmptyUpdate is returned so that the caller can reject the request
// instead of performing a write that changes nothing.
func MergeUpdate(payload map[string]json.RawMessage) (ContactUpdate, error) {
	var update ContactUpdate
	for _, field := range MutableFields {
		raw, present := payload[field]
		if !present {
			continue
		}
		var err error
		switch field {
		case FieldFirstName:
			err = decodePatch(raw, &update.FirstName)
		case FieldLastName:
			err = decodePatch(raw, &update.LastName)
		case FieldBirthday:
			err = decodePatch(raw, &update.Birthday)
		case FieldEmail:
			err = decodePatch(raw, &update.Email)
		case FieldPhone:
			err = decodePatch(raw, &update.Phone)
		case FieldAddress:
			err = decodePatch(raw, &update.Address)
		case FieldAge:
			err = decodePatch(raw, &update.Age)
		}
		if err != nil {
			return ContactUpdate{}, &InvalidFieldError{Field: field, Err: err}
		}
	}
	if update.Empty() {
		return ContactUpdate{}, ErrEmptyUpdate
	}
	return update, nil
}

func decodePatch[T any](raw json.RawMessage, patch *Patch[T]) error {
	var value *T
	if err := json.Unmarshal(raw, &value); err != nil {
		return err
	}
	patch.Set = true
	patch.Value = value
	return nil
}
