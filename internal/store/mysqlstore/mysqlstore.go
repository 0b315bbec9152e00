// Package mysqlstore keeps contacts in a MySQL table. All statements that are executed for
// single contacts are prepared once when the store is created.
package mysqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/model"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/store"
)

// row is the database representation of a contact.
type row struct {
	Id            string  `db:"id"`
	FirstName     *string `db:"first_name"`
	LastName      *string `db:"last_name"`
	BirthdayYear  *int    `db:"birthday_year"`
	BirthdayMonth *int    `db:"birthday_month"`
	BirthdayDay   *int    `db:"birthday_day"`
	Email         *string `db:"email"`
	Phone         *string `db:"phone"`
	Address       *string `db:"address"`
	Age           *int    `db:"age"`
}

func toRow(c model.Contact) row {
	r := row{
		Id:        c.Id,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Age:       c.Age,
	}
	if c.Birthday != nil {
		r.BirthdayYear = c.Birthday.Year
		r.BirthdayMonth = c.Birthday.Month
		r.BirthdayDay = c.Birthday.Day
	}
	return r
}

func (r row) toContact() model.Contact {
	c := model.Contact{
		Id:        r.Id,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   r.Address,
		Age:       r.Age,
	}
	if r.BirthdayYear != nil || r.BirthdayMonth != nil || r.BirthdayDay != nil {
		c.Birthday = &model.Birthday{Year: r.BirthdayYear, Month: r.BirthdayMonth, Day: r.BirthdayDay}
	}
	return c
}

func toContacts(rows []row) []model.Contact {
	contacts := make([]model.Contact, 0, len(rows))
	for _, r := range rows {
		contacts = append(contacts, r.toContact())
	}
	return contacts
}

// Config holds the connection parameters of the MySQL database.
type Config struct {
	Host     string
	User     string
	Password string
	Database string
}

// Open creates a database handle for the configured MySQL server. Updates report the number of
// matched rows, so that an update which does not change any value is not mistaken for a
// missing contact.
func Open(cfg Config) (*sql.DB, error) {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = cfg.Host
	dsn.DBName = cfg.Database
	dsn.ParseTime = true
	dsn.ClientFoundRows = true
	return sql.Open("mysql", dsn.FormatDSN())
}

// Store implements store.Store on MySQL.
type Store struct {
	db             *sqlx.DB
	insert         *sqlx.NamedStmt
	selectAll      *sqlx.Stmt
	selectWhereId  *sqlx.Stmt
	setAgeIfAbsent *sqlx.Stmt
	deleteWhereId  *sqlx.Stmt
}

var _ store.Store = (*Store)(nil)

// New wraps the sql database and prepares all statements. The database argument can be a real
// database for production use or a mock database within unit tests.
func New(sqlDB *sql.DB) (*Store, error) {
	s := &Store{db: sqlx.NewDb(sqlDB, "mysql")}
	var err error
	s.insert, err = s.db.PrepareNamed(`
		INSERT INTO contacts (id, first_name, last_name, birthday_year, birthday_month,
			birthday_day, email, phone, address, age)
		VALUES (:id, :first_name, :last_name, :birthday_year, :birthday_month,
			:birthday_day, :email, :phone, :address, :age)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.selectAll, err = s.db.Preparex(`
		SELECT * FROM contacts ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare select all: %w", err)
	}
	s.selectWhereId, err = s.db.Preparex(`
		SELECT * FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by id: %w", err)
	}
	s.setAgeIfAbsent, err = s.db.Preparex(`
		UPDATE contacts SET age = ? WHERE id = ? AND age IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare set age: %w", err)
	}
	s.deleteWhereId, err = s.db.Preparex(`
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare delete: %w", err)
	}
	return s, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, store.ErrUnavailable, err)
}

func (s *Store) FetchAll(ctx context.Context) ([]model.Contact, error) {
	var rows []row
	if err := s.selectAll.SelectContext(ctx, &rows); err != nil {
		return nil, unavailable("select contacts", err)
	}
	return toContacts(rows), nil
}

// orderColumns maps the allowed sort properties to columns.
var orderColumns = map[string][]string{
	store.OrderByID:        {"id"},
	store.OrderByFirstName: {"first_name"},
	store.OrderByLastName:  {"last_name"},
	store.OrderByEmail:     {"email"},
	store.OrderByPhone:     {"phone"},
	store.OrderByAge:       {"age"},
	store.OrderByBirthday:  {"birthday_month", "birthday_day"},
}

// likePrefix escapes the LIKE wildcards of prefix and appends one.
func likePrefix(prefix string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(prefix) + "%"
}

func (s *Store) Find(ctx context.Context, query store.Query) ([]model.Contact, error) {
	columns, ok := orderColumns[query.OrderBy]
	if !ok {
		return nil, fmt.Errorf("invalid order by %q", query.OrderBy)
	}
	var conditions []string
	var args []interface{}
	if query.FirstNamePrefix != "" {
		conditions = append(conditions, "first_name LIKE ?")
		args = append(args, likePrefix(query.FirstNamePrefix))
	}
	if query.LastNamePrefix != "" {
		conditions = append(conditions, "last_name LIKE ?")
		args = append(args, likePrefix(query.LastNamePrefix))
	}
	if query.BirthdayMonth != 0 {
		conditions = append(conditions, "birthday_month = ?")
		args = append(args, query.BirthdayMonth)
	}
	if query.BirthdayDay != 0 {
		conditions = append(conditions, "birthday_day = ?")
		args = append(args, query.BirthdayDay)
	}
	direction := "ASC"
	if !query.Ascending {
		direction = "DESC"
	}
	order := make([]string, 0, len(columns))
	for _, column := range columns {
		order = append(order, column+" "+direction)
	}

	sql := "SELECT * FROM contacts"
	if len(conditions) > 0 {
		sql += " WHERE " + strings.Join(conditions, " AND ")
	}
	sql += " ORDER BY " + strings.Join(order, ", ") + " LIMIT ? OFFSET ?"
	args = append(args, query.Limit, query.Offset)

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, sql, args...); err != nil {
		return nil, unavailable("find contacts", err)
	}
	return toContacts(rows), nil
}

func (s *Store) FetchByID(ctx context.Context, id string) (model.Contact, error) {
	var rows []row
	if err := s.selectWhereId.SelectContext(ctx, &rows, id); err != nil {
		return model.Contact{}, unavailable("select contact", err)
	}
	if len(rows) == 0 {
		return model.Contact{}, store.ErrNotFound
	}
	return rows[0].toContact(), nil
}

func (s *Store) Insert(ctx context.Context, contact model.Contact) (model.Contact, error) {
	contact.Id = store.NewID()
	if _, err := s.insert.ExecContext(ctx, toRow(contact)); err != nil {
		return model.Contact{}, unavailable("insert contact", err)
	}
	return contact, nil
}

func (s *Store) UpdateFields(ctx context.Context, id string, update model.ContactUpdate) error {
	var assignments []string
	var args []interface{}
	set := func(column string, value interface{}) {
		assignments = append(assignments, column+" = ?")
		args = append(args, value)
	}
	if update.FirstName.Set {
		set("first_name", update.FirstName.Value)
	}
	if update.LastName.Set {
		set("last_name", update.LastName.Value)
	}
	if update.Birthday.Set {
		var b model.Birthday
		if update.Birthday.Value != nil {
			b = *update.Birthday.Value
		}
		set("birthday_year", b.Year)
		set("birthday_month", b.Month)
		set("birthday_day", b.Day)
	}
	if update.Email.Set {
		set("email", update.Email.Value)
	}
	if update.Phone.Set {
		set("phone", update.Phone.Value)
	}
	if update.Address.Set {
		set("address", update.Address.Value)
	}
	if update.Age.Set {
		set("age", update.Age.Value)
	}
	if len(assignments) == 0 {
		return model.ErrEmptyUpdate
	}

	sql := "UPDATE contacts SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	args = append(args, id)
	result, err := s.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return unavailable("update contact", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("update contact", err)
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetAgeIfAbsent(ctx context.Context, id string, age int) (bool, error) {
	result, err := s.setAgeIfAbsent.ExecContext(ctx, age, id)
	if err != nil {
		return false, unavailable("set age", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, unavailable("set age", err)
	}
	return rowsAffected == 1, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) (int64, error) {
	result, err := s.deleteWhereId.ExecContext(ctx, id)
	if err != nil {
		return 0, unavailable("delete contact", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, unavailable("delete contact", err)
	}
	return rowsAffected, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	for _, stmt := range []*sqlx.Stmt{s.selectAll, s.selectWhereId, s.setAgeIfAbsent, s.deleteWhereId} {
		stmt.Close()
	}
	s.insert.Close()
	return s.db.Close()
}
