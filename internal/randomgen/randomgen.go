// Package randomgen creates random but plausible contacts for load tests and integration tests.
package randomgen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gitlab.com/dirk.krummacker/contacts-directory/internal/model"
)

var firstNames = []string{
	"Adam", "Anna", "Berta", "Carla", "David", "Dirk", "Erika", "Eva", "Hans", "Jana", "Jiri",
	"Karel", "Lenka", "Marcus", "Martin", "Pavla", "Petr", "Rudi", "Tereza", "Zdenek",
}

var lastNames = []string{
	"Dvorak", "Fischer", "Horak", "Krummacker", "Meier", "Mustermann", "Novak", "Novotny",
	"Prochazka", "Schmidt", "Schneider", "Svoboda", "Vesely", "Voller", "Wagner", "Weber",
}

var streets = []string{"Hauptstrasse", "Narodni", "Parizska", "Schillerstrasse", "Vinohradska"}

// PickFirstName returns a random first name.
func PickFirstName() string {
	return firstNames[rand.Intn(len(firstNames))]
}

// PickLastName returns a random last name.
func PickLastName() string {
	return lastNames[rand.Intn(len(lastNames))]
}

// PickBirthday returns a random valid birthday between 1930 and 2019.
func PickBirthday() *model.Birthday {
	start := time.Date(1930, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := rand.Intn(90 * 365)
	date := start.AddDate(0, 0, days)
	return model.NewBirthday(date.Year(), int(date.Month()), date.Day())
}

// Contact returns a contact with all fields except id and age set to random values.
func Contact() model.Contact {
	first := PickFirstName()
	last := PickLastName()
	email := strings.ToLower(first+"."+last) + "@example.com"
	phone := fmt.Sprintf("+420 %03d %03d %03d", rand.Intn(1000), rand.Intn(1000), rand.Intn(1000))
	address := fmt.Sprintf("%s %d, Praha", streets[rand.Intn(len(streets))], rand.Intn(200)+1)
	return model.Contact{
		FirstName: &first,
		LastName:  &last,
		Birthday:  PickBirthday(),
		Email:     &email,
		Phone:     &phone,
		Address:   &address,
	}
}
