package store

import "math"

// Allowed values for Query.OrderBy.
const (
	OrderByID        = "id"
	OrderByFirstName = "first_name"
	OrderByLastName  = "last_name"
	OrderByEmail     = "email"
	OrderByPhone     = "phone"
	OrderByAge       = "age"
	OrderByBirthday  = "birthday"
)

// AllowedOrderBy are the properties by which a contact list can be sorted.
var AllowedOrderBy = []string{
	OrderByID,
	OrderByFirstName,
	OrderByLastName,
	OrderByEmail,
	OrderByPhone,
	OrderByAge,
	OrderByBirthday,
}

// Query describes a filtered, sorted and paged contact list. Empty name prefixes and zero
// birthday parts do not filter.
type Query struct {
	FirstNamePrefix string
	LastNamePrefix  string
	BirthdayMonth   int
	BirthdayDay     int
	OrderBy         string
	Ascending       bool
	Limit           int64
	Offset          int64
}

// NewQuery returns a query for all contacts sorted by id.
func NewQuery() Query {
	return Query{OrderBy: OrderByID, Ascending: true, Limit: math.MaxInt64}
}
