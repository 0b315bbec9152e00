package randomgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickBirthdayIsValidDate(t *testing.T) {
	for i := 0; i < 1000; i++ {
		b := PickBirthday()
		require.NotNil(t, b.Year)
		date := time.Date(*b.Year, time.Month(*b.Month), *b.Day, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, *b.Day, date.Day())
		assert.GreaterOrEqual(t, *b.Year, 1930)
		assert.Less(t, *b.Year, 2020)
	}
}

func TestContact(t *testing.T) {
	c := Contact()
	assert.Empty(t, c.Id)
	assert.Nil(t, c.Age)
	assert.Contains(t, firstNames, *c.FirstName)
	assert.Contains(t, lastNames, *c.LastName)
	assert.Contains(t, *c.Email, "@example.com")
	assert.NotEmpty(t, *c.Phone)
	assert.NotEmpty(t, *c.Address)
}
