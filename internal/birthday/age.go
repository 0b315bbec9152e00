package birthday

import "gitlab.com/dirk.krummacker/contacts-directory/internal/model"

// DeriveAge computes the age in whole years of the contact on the reference date. The birthday
// must be complete and a valid calendar date.
func DeriveAge(contact model.Contact, ref Date) (int, error) {
	b := contact.Birthday
	if b == nil || b.Year == nil || b.Month == nil || b.Day == nil {
		return 0, ErrMissingBirthdayYear
	}
	year, month, day := *b.Year, *b.Month, *b.Day
	if !validMonth(month) || day < 1 || day > daysIn(year, month) {
		return 0, ErrInvalidBirthday
	}
	hasHadBirthdayThisYear := ref.Month > month || (ref.Month == month && ref.Day >= day)
	if hasHadBirthdayThisYear {
		return ref.Year - year, nil
	}
	return ref.Year - 1 - year, nil
}

// AgeAssignment is an age to be stored on the contact with the given id.
type AgeAssignment struct {
	Id  string
	Age int
}

// PlanBackfill derives the age of every contact that does not have one yet. Contacts that
// already carry an age are never part of the plan, whatever their stored value is. Contacts
// whose age cannot be derived are skipped.
func PlanBackfill(contacts []model.Contact, ref Date) []AgeAssignment {
	plan := make([]AgeAssignment, 0)
	for _, contact := range contacts {
		if contact.Age != nil {
			continue
		}
		age, err := DeriveAge(contact, ref)
		if err != nil {
			continue
		}
		plan = append(plan, AgeAssignment{Id: contact.Id, Age: age})
	}
	return plan
}
