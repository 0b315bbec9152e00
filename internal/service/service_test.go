package service

import (
	"database/sql"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/birthday"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/model"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/store/mysqlstore"
)

var columns = []string{
	"id", "first_name", "last_name", "birthday_year", "birthday_month", "birthday_day",
	"email", "phone", "address", "age",
}

const (
	idErika = "65f1c0ffee65f1c0ffee0029"
	idRudi  = "65f1c0ffee65f1c0ffee0017"
	idOther = "65f1c0ffee65f1c0ffee9999"
)

// today is the reference date of all tests: 2024-03-15.
func today() birthday.Date {
	return birthday.Date{Year: 2024, Month: 3, Day: 15}
}

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// expectPreparedStatements instructs the mock object to expect that several statements are being
// prepared.
func expectPreparedStatements(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT \\* FROM contacts ORDER BY id")
	mock.ExpectPrepare("SELECT \\* FROM contacts WHERE id = ?")
	mock.ExpectPrepare("UPDATE contacts SET age = \\? WHERE id = \\? AND age IS NULL")
	mock.ExpectPrepare("DELETE FROM contacts WHERE id = ?")
}

// expectSingleRowSelect instructs the mock object to expect that a select statement for a single
// contact will be executed.
func expectSingleRowSelect(mock sqlmock.Sqlmock, id string, first string, last string, phone string, year int, month int, day int) {
	rows := mock.NewRows(columns).
		AddRow(id, first, last, year, month, day, nil, phone, nil, nil)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = ?").
		WithArgs(id).
		WillReturnRows(rows)
}

// expectSelectAll instructs the mock object to expect that all contacts are selected.
func expectSelectAll(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery("SELECT \\* FROM contacts ORDER BY id").WillReturnRows(rows)
}

// initializeContactsService sets up the contacts service with the mock database and returns a
// handle to the gin engine against which requests can be executed.
func initializeContactsService(t *testing.T, db *sql.DB) *gin.Engine {
	contacts, err := mysqlstore.New(db)
	require.NoError(t, err)
	gin.SetMode(gin.ReleaseMode)
	return New(contacts, WithClock(today), WithRequestLogging(false)).SetupHttpRouter()
}

// runTest executes the HTTP request with the specified arguments and returns the response.
func runTest(t *testing.T, db *sql.DB, method string, url string, body *strings.Reader) *httptest.ResponseRecorder {
	router := initializeContactsService(t, db)
	recorder := httptest.NewRecorder()
	if body == nil {
		body = strings.NewReader("")
	}
	request, _ := http.NewRequest(method, url, body)
	router.ServeHTTP(recorder, request)
	return recorder
}

// decodeContacts reads a list of contacts from the response body.
func decodeContacts(t *testing.T, recorder *httptest.ResponseRecorder) []model.Contact {
	var contacts []model.Contact
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &contacts))
	return contacts
}

// decodeContact reads a single contact from the response body.
func decodeContact(t *testing.T, recorder *httptest.ResponseRecorder) model.Contact {
	var contact model.Contact
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &contact))
	return contact
}

// TestGetAll executes a GET request for all contacts in the database. It expects that the JSON
// for a list of contacts is returned.
func TestGetAll(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	rows := mock.NewRows(columns).
		AddRow("65f1c0ffee65f1c0ffee0001", "Aaron", "Adams", 1970, 1, 1, nil, "+420 111", nil, nil).
		AddRow("65f1c0ffee65f1c0ffee0002", "Berta", "Brown", 1980, 1, 1, nil, "+420 222", nil, 44).
		AddRow("65f1c0ffee65f1c0ffee0003", "Carla", "Clark", 1990, 1, 1, nil, "+420 333", nil, nil)
	mock.ExpectQuery("SELECT \\* FROM contacts ORDER BY id ASC LIMIT \\? OFFSET \\?").
		WithArgs(int64(math.MaxInt64), int64(0)).
		WillReturnRows(rows)

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	contacts := decodeContacts(t, recorder)
	require.Len(t, contacts, 3)

	assert.Equal(t, "65f1c0ffee65f1c0ffee0001", contacts[0].Id)
	assert.Equal(t, "Aaron", *contacts[0].FirstName)
	assert.Equal(t, "+420 111", *contacts[0].Phone)
	assert.Equal(t, model.NewBirthday(1970, 1, 1), contacts[0].Birthday)
	assert.Nil(t, contacts[0].Age)

	assert.Equal(t, "65f1c0ffee65f1c0ffee0002", contacts[1].Id)
	assert.Equal(t, "Berta", *contacts[1].FirstName)
	assert.Equal(t, 44, *contacts[1].Age)

	assert.Equal(t, "65f1c0ffee65f1c0ffee0003", contacts[2].Id)
	assert.Equal(t, "Carla", *contacts[2].FirstName)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestGetAllWithParameters executes a GET request with all URL parameters. It expects that they
// end up in the SQL query.
func TestGetAllWithParameters(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE first_name LIKE \\? AND last_name LIKE \\? AND birthday_month = \\? AND birthday_day = \\? ORDER BY last_name DESC LIMIT \\? OFFSET \\?").
		WithArgs("Ji%", "Smi%", 11, 29, int64(5), int64(10)).
		WillReturnRows(mock.NewRows(columns).
			AddRow(idErika, "Jiri", "Smith", 1974, 11, 29, nil, nil, nil, nil))

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts?firstname=Ji&lastname=Smi&birthday=11-29&orderby=last_name&ascending=false&limit=5&offset=10", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	contacts := decodeContacts(t, recorder)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Jiri", *contacts[0].FirstName)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestGetAllNotFound expects the NOT FOUND status code when no contact matches.
func TestGetAllNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE first_name LIKE \\?").
		WillReturnRows(mock.NewRows(columns))

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts?firstname=Zz", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestGetAllInvalidParameters executes GET requests with invalid URL parameters. It expects that
// they are all answered with the BAD REQUEST status code before reaching out to the database.
func TestGetAllInvalidParameters(t *testing.T) {
	invalidURLs := []string{
		"/contacts?birthday=1129",
		"/contacts?birthday=xx-29",
		"/contacts?birthday=13-01",
		"/contacts?birthday=11-32",
		"/contacts?limit=0",
		"/contacts?limit=many",
		"/contacts?offset=-1",
		"/contacts?orderby=nickname",
		"/contacts?ascending=yes",
	}
	for _, url := range invalidURLs {
		db, mock := createMockObjects(t)
		defer db.Close()

		// Define expectations on SQL statements
		expectPreparedStatements(mock) // we expect that the call will fail before the SQL statements

		// Run test and compare results
		recorder := runTest(t, db, "GET", url, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "url: "+url)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	}
}

// TestGet executes a GET request for a single contact with a valid ID. It expects that the JSON
// for the contact is returned.
func TestGet(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectSingleRowSelect(mock, idErika, "Erika", "Mustermann", "+49 0815 4711", 1969, 3, 2)

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts/"+idErika, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var getBody map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &getBody)
	assert.Equal(t, idErika, getBody["id"])
	assert.Equal(t, "Erika", getBody["first_name"])
	assert.Equal(t, "Mustermann", getBody["last_name"])
	assert.Equal(t, "+49 0815 4711", getBody["phone"])
	assert.Equal(t, map[string]interface{}{"year": 1969.0, "month": 3.0, "day": 2.0}, getBody["birthday"])
	assert.NotContains(t, getBody, "age")
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestGetUnknownID executes a GET request with a well-formed ID that does not exist. It expects
// that the HTTP request is answered with the NOT FOUND status code.
func TestGetUnknownID(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = ?").
		WithArgs(idOther).
		WillReturnRows(mock.NewRows(columns))

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts/"+idOther, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestGetInvalidID executes a GET request with malformed IDs. It expects that the HTTP request is
// answered with the BAD REQUEST status code. It also expects that we do not reach out to the
// database in the first place.
func TestGetInvalidID(t *testing.T) {
	for _, id := range []string{"INVALID", "56", "65f1c0ffee65f1c0ffee00zz"} {
		db, mock := createMockObjects(t)
		defer db.Close()

		// Define expectations on SQL statements
		expectPreparedStatements(mock)

		// Run test and compare results
		recorder := runTest(t, db, "GET", "/contacts/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "id: "+id)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	}
}

// TestGetDatabaseFailure expects the INTERNAL SERVER ERROR status code when the database fails.
func TestGetDatabaseFailure(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = ?").
		WithArgs(idErika).
		WillReturnError(sql.ErrConnDone)

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts/"+idErika, nil)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), sql.ErrConnDone.Error())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestPost executes a POST request with a valid body. It expects that the HTTP request is
// answered with the CREATED status code and a body with the posted values and a new id.
func TestPost(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(sqlmock.AnyArg(), "Erika", "Mustermann", 1969, 3, 4, "erika@example.com", "+49 0815 4711", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Run test and compare results
	recorder := runTest(t, db, "POST", "/contacts", strings.NewReader(`
		{
			"id": "ignored",
			"first_name": "Erika",
			"last_name": "Mustermann",
			"email": "erika@example.com",
			"phone": "+49 0815 4711",
			"birthday": {"year": 1969, "month": 3, "day": 4}
		}
	`))
	assert.Equal(t, http.StatusCreated, recorder.Code)
	contact := decodeContact(t, recorder)
	assert.Len(t, contact.Id, 24)
	assert.NotEqual(t, "ignored", contact.Id)
	assert.Equal(t, "Erika", *contact.FirstName)
	assert.Equal(t, "Mustermann", *contact.LastName)
	assert.Equal(t, model.NewBirthday(1969, 3, 4), contact.Birthday)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestPostInvalidBodies executes POST requests with invalid bodies. It expects that the HTTP
// requests are all answered with the BAD REQUEST status code.
func TestPostInvalidBodies(t *testing.T) {
	invalidRequestBodies := []string{
		"",
		"not JSON",
		`{
			"first_name": "Erika"
			"phone": "+49 0815 4711"
		}`, // commas missing
		`{"birthday": "1969-03-02"}`,
	}
	for _, body := range invalidRequestBodies {
		db, mock := createMockObjects(t)
		defer db.Close()

		// Define expectations on SQL statements
		expectPreparedStatements(mock) // we expect that the call will fail before the SQL statements

		// Run test and compare results
		recorder := runTest(t, db, "POST", "/contacts", strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	}
}

// TestPostEmptyJSON executes a POST request with an empty JSON object. It expects that a contact
// with all fields being null is created.
func TestPostEmptyJSON(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(sqlmock.AnyArg(), nil, nil, nil, nil, nil, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Run test and compare results
	recorder := runTest(t, db, "POST", "/contacts", strings.NewReader("{}"))
	assert.Equal(t, http.StatusCreated, recorder.Code)
	var postBody map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &postBody)
	assert.Len(t, postBody, 1)
	assert.Contains(t, postBody, "id")
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestPut executes a PUT request with a valid ID and body. It expects that the HTTP request is
// answered with the OK status code and a body with all values of the contact.
func TestPut(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectExec("UPDATE contacts SET first_name = \\?, last_name = \\?, birthday_year = \\?, birthday_month = \\?, birthday_day = \\?, phone = \\? WHERE id = \\?").
		WithArgs("Rudi", "Völler", 1960, 4, 13, "+49 1234567890", idRudi).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectSingleRowSelect(mock, idRudi, "Rudi", "Völler", "+49 1234567890", 1960, 4, 13)

	// Run test and compare results
	recorder := runTest(t, db, "PUT", "/contacts/"+idRudi, strings.NewReader(`
		{
			"first_name": "Rudi",
			"last_name": "Völler",
			"phone": "+49 1234567890",
			"birthday": {"year": 1960, "month": 4, "day": 13}
		}
	`))
	assert.Equal(t, http.StatusOK, recorder.Code)
	contact := decodeContact(t, recorder)
	assert.Equal(t, idRudi, contact.Id)
	assert.Equal(t, "Rudi", *contact.FirstName)
	assert.Equal(t, "Völler", *contact.LastName)
	assert.Equal(t, "+49 1234567890", *contact.Phone)
	assert.Equal(t, model.NewBirthday(1960, 4, 13), contact.Birthday)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestPutPartial executes a PUT request with a body that contains a single allowed field next to
// fields that may not be changed. It expects that only the allowed field is written.
func TestPutPartial(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectExec("UPDATE contacts SET age = \\? WHERE id = \\?").
		WithArgs(64, idRudi).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectSingleRowSelect(mock, idRudi, "Rudi", "Völler", "+49 1234567890", 1960, 4, 13)

	// Run test and compare results
	recorder := runTest(t, db, "PUT", "/contacts/"+idRudi, strings.NewReader(`
		{
			"_id": "65f1c0ffee65f1c0ffee0000",
			"id": "65f1c0ffee65f1c0ffee0000",
			"nickname": "Tante Käthe",
			"age": 64
		}
	`))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, idRudi, decodeContact(t, recorder).Id)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestPutUnknownID executes a PUT request with a well-formed ID that does not exist. It expects
// that the HTTP request is answered with the NOT FOUND status code.
func TestPutUnknownID(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectExec("UPDATE contacts").
		WithArgs("Rudi", idOther).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Run test and compare results
	recorder := runTest(t, db, "PUT", "/contacts/"+idOther, strings.NewReader(`{"first_name": "Rudi"}`))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestPutInvalidID executes a PUT request with a malformed ID. It expects the BAD REQUEST status
// code without reaching out to the database.
func TestPutInvalidID(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)

	// Run test and compare results
	recorder := runTest(t, db, "PUT", "/contacts/INVALID", strings.NewReader(`{"first_name": "Rudi"}`))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestPutInvalidBodies executes PUT requests with valid IDs but invalid bodies, including bodies
// without any field that may be changed. It expects that the HTTP requests are all answered with
// the BAD REQUEST status code.
func TestPutInvalidBodies(t *testing.T) {
	invalidRequestBodies := []string{
		"",
		"{}",
		"null",
		"not JSON",
		`{"_id": "65f1c0ffee65f1c0ffee0029"}`,
		`{"nickname": "Eri"}`,
		`{"age": "old"}`,
		`{"birthday": "1969-03-02"}`,
		`{
			"first_name": "Erika"
			"phone": "+49 0815 4711"
		}`, // commas missing
	}
	for _, body := range invalidRequestBodies {
		db, mock := createMockObjects(t)
		defer db.Close()

		// Define expectations on SQL statements
		expectPreparedStatements(mock) // we expect that the call will fail before the SQL statements

		// Run test and compare results
		recorder := runTest(t, db, "PUT", "/contacts/"+idErika, strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	}
}

// TestDelete executes a DELETE request for a single contact with a valid ID. It expects that the
// status OK is returned.
func TestDelete(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs(idErika).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Run test and compare results
	recorder := runTest(t, db, "DELETE", "/contacts/"+idErika, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &body)
	assert.Equal(t, 1.0, body["deleted"])
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestDeleteUnknownID executes a DELETE request with a well-formed ID that does not exist. It
// expects that the HTTP request is answered with the NOT FOUND status code.
func TestDeleteUnknownID(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs(idOther).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Run test and compare results
	recorder := runTest(t, db, "DELETE", "/contacts/"+idOther, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestDeleteInvalidID executes a DELETE request with a malformed ID. It expects the BAD REQUEST
// status code without reaching out to the database.
func TestDeleteInvalidID(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)

	// Run test and compare results
	recorder := runTest(t, db, "DELETE", "/contacts/INVALID", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// birthdayRows returns the contacts A (April 10), B (April 2), C (September 1) and a contact with
// the invalid birth month 13.
func birthdayRows(mock sqlmock.Sqlmock) *sqlmock.Rows {
	return mock.NewRows(columns).
		AddRow("65f1c0ffee65f1c0ffee000a", "A", nil, nil, 4, 10, nil, nil, nil, nil).
		AddRow("65f1c0ffee65f1c0ffee000b", "B", nil, nil, 4, 2, nil, nil, nil, nil).
		AddRow("65f1c0ffee65f1c0ffee000c", "C", nil, nil, 9, 1, nil, nil, nil, nil).
		AddRow("65f1c0ffee65f1c0ffee000d", "Invalid", nil, nil, 13, 1, nil, nil, nil, nil)
}

// firstNames returns the first names of the contacts in order.
func firstNames(contacts []model.Contact) []string {
	names := make([]string, 0, len(contacts))
	for _, c := range contacts {
		names = append(names, *c.FirstName)
	}
	return names
}

// TestBirthdaysNextMonth expects the April birthdays ordered by day on 15 March.
func TestBirthdaysNextMonth(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectSelectAll(mock, birthdayRows(mock))

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts/birthdays-next-month", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"B", "A"}, firstNames(decodeContacts(t, recorder)))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestBirthdaysNextMonthListsOnlyNameAndBirthday expects contact details other than id, name and
// birthday to be left out of the list.
func TestBirthdaysNextMonthListsOnlyNameAndBirthday(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectSelectAll(mock, mock.NewRows(columns).
		AddRow(idErika, "Erika", "Mustermann", 1969, 4, 2, "erika@example.com", "+49 0815 4711", "Hauptstrasse 1", 55))

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts/birthdays-next-month", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `[{
		"id": "`+idErika+`",
		"first_name": "Erika",
		"last_name": "Mustermann",
		"birthday": {"year": 1969, "month": 4, "day": 2}
	}]`, recorder.Body.String())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestBirthdaysNextMonthEmpty expects an empty list, not an error, if nobody has a birthday
// next month.
func TestBirthdaysNextMonthEmpty(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectSelectAll(mock, mock.NewRows(columns).
		AddRow("65f1c0ffee65f1c0ffee000c", "C", nil, nil, 9, 1, nil, nil, nil, nil))

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts/birthdays-next-month", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, "[]", recorder.Body.String())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestNextBirthday expects B, whose birthday on 2 April is the closest to 15 March.
func TestNextBirthday(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectSelectAll(mock, birthdayRows(mock))

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts/next-birthday", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	contact := decodeContact(t, recorder)
	assert.Equal(t, "65f1c0ffee65f1c0ffee000b", contact.Id)
	assert.Equal(t, "B", *contact.FirstName)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestNextBirthdayNone expects the NOT FOUND status code when no contact has a valid birth month.
func TestNextBirthdayNone(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectSelectAll(mock, mock.NewRows(columns).
		AddRow("65f1c0ffee65f1c0ffee000d", "Invalid", nil, nil, 13, 1, nil, nil, nil, nil).
		AddRow("65f1c0ffee65f1c0ffee000e", "Nobody", nil, nil, nil, nil, nil, nil, nil, nil))

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts/next-birthday", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestUpcomingBirthdays expects the contacts ranked by their next birthday and cut to the limit.
func TestUpcomingBirthdays(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectSelectAll(mock, birthdayRows(mock))

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/contacts/upcoming-birthdays?limit=2", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"B", "A"}, firstNames(decodeContacts(t, recorder)))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestBackfillAges expects that only the contact without age and with a complete birthday gets
// an age, and that a stored age is left alone.
func TestBackfillAges(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectSelectAll(mock, mock.NewRows(columns).
		AddRow("65f1c0ffee65f1c0ffee0001", "Missing", nil, 2000, 3, 20, nil, nil, nil, nil).
		AddRow("65f1c0ffee65f1c0ffee0002", "Stored", nil, 2000, 3, 20, nil, nil, nil, 99).
		AddRow("65f1c0ffee65f1c0ffee0003", "NoYear", nil, nil, 3, 20, nil, nil, nil, nil))
	mock.ExpectExec("UPDATE contacts SET age = \\? WHERE id = \\? AND age IS NULL").
		WithArgs(23, "65f1c0ffee65f1c0ffee0001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Run test and compare results
	recorder := runTest(t, db, "POST", "/contacts/ages", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"updated": 1, "failed": 0}`, recorder.Body.String())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestHealth expects the OK status code while the database answers.
func TestHealth(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)

	// Run test and compare results
	recorder := runTest(t, db, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, recorder.Header().Get(requestIDHeader), 36)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
