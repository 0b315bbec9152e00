package model

// Birthday is a calendar date without a time of day. Each part is optional: month and day are
// enough to rank a contact by its next birthday, the year is needed to derive the age.
type Birthday struct {
	Year  *int `json:"year,omitempty"`
	Month *int `json:"month,omitempty"`
	Day   *int `json:"day,omitempty"`
}

// Contact is the data structure for a person that we know.
// All fields with the exception of the Id field are optional.
type Contact struct {
	Id        string    `json:"id"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Birthday  *Birthday `json:"birthday,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Age       *int      `json:"age,omitempty"`
}

// NewBirthday is a shorthand for a birthday with all three parts present.
func NewBirthday(year, month, day int) *Birthday {
	return &Birthday{Year: &year, Month: &month, Day: &day}
}
