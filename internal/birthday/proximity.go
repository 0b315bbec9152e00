package birthday

import (
	"cmp"
	"slices"

	"gitlab.com/dirk.krummacker/contacts-directory/internal/model"
)

// birthMonth returns the birth month of the contact if it is present and in the range 1 to 12.
// Contacts without such a month do not take part in any ranking.
func birthMonth(contact model.Contact) (int, bool) {
	if contact.Birthday == nil || contact.Birthday.Month == nil {
		return 0, false
	}
	month := *contact.Birthday.Month
	if !validMonth(month) {
		return 0, false
	}
	return month, true
}

// birthDay returns the day of the birthday. A missing day sorts before every present day.
func birthDay(contact model.Contact) int {
	if contact.Birthday == nil || contact.Birthday.Day == nil {
		return 0
	}
	return *contact.Birthday.Day
}

// NextMonthFilter returns the contacts whose birthday falls into the calendar month after the
// month of ref, sorted by day of month. Contacts with equal days keep their input order.
func NextMonthFilter(contacts []model.Contact, ref Date) []model.Contact {
	target := NextCalendarMonth(ref.Month)
	matches := make([]model.Contact, 0)
	for _, contact := range contacts {
		if month, ok := birthMonth(contact); ok && month == target {
			matches = append(matches, contact)
		}
	}
	slices.SortStableFunc(matches, func(a, b model.Contact) int {
		return cmp.Compare(birthDay(a), birthDay(b))
	})
	return matches
}

// RankByProximity orders the contacts by the month difference between ref and their birth
// month, then by day of month. The current month has a difference of zero, so a birthday
// earlier this month still ranks ahead of one next month.
func RankByProximity(contacts []model.Contact, ref Date) []model.Contact {
	type ranked struct {
		contact   model.Contact
		monthDiff int
		day       int
	}
	candidates := make([]ranked, 0, len(contacts))
	for _, contact := range contacts {
		month, ok := birthMonth(contact)
		if !ok {
			continue
		}
		candidates = append(candidates, ranked{
			contact:   contact,
			monthDiff: MonthDiff(month, ref.Month),
			day:       birthDay(contact),
		})
	}
	slices.SortStableFunc(candidates, func(a, b ranked) int {
		if c := cmp.Compare(a.monthDiff, b.monthDiff); c != 0 {
			return c
		}
		return cmp.Compare(a.day, b.day)
	})
	result := make([]model.Contact, len(candidates))
	for i, candidate := range candidates {
		result[i] = candidate.contact
	}
	return result
}

// NextBirthday returns the top ranked contact of RankByProximity. The boolean is false if no
// contact has a usable birth month.
func NextBirthday(contacts []model.Contact, ref Date) (model.Contact, bool) {
	ranked := RankByProximity(contacts, ref)
	if len(ranked) == 0 {
		return model.Contact{}, false
	}
	return ranked[0], true
}
