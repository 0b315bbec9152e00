// Package mongostore keeps contacts as documents of a MongoDB collection. The birthday is a
// nested document with the fields year, month and day.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"

	"gitlab.com/dirk.krummacker/contacts-directory/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/model"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// CollectionName is the name of the collection holding the contacts.
const CollectionName = "contacts"

type birthdayDocument struct {
	Year  *int `bson:"year,omitempty"`
	Month *int `bson:"month,omitempty"`
	Day   *int `bson:"day,omitempty"`
}

// document is the database representation of a contact as written by this store.
type document struct {
	ID        bson.ObjectID     `bson:"_id"`
	FirstName *string           `bson:"first_name,omitempty"`
	LastName  *string           `bson:"last_name,omitempty"`
	Birthday  *birthdayDocument `bson:"birthday,omitempty"`
	Email     *string           `bson:"email,omitempty"`
	Phone     *string           `bson:"phone,omitempty"`
	Address   *string           `bson:"address,omitempty"`
	Age       *int              `bson:"age,omitempty"`
}

func toDocument(id bson.ObjectID, c model.Contact) document {
	d := document{
		ID:        id,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Age:       c.Age,
	}
	if c.Birthday != nil {
		d.Birthday = &birthdayDocument{Year: c.Birthday.Year, Month: c.Birthday.Month, Day: c.Birthday.Day}
	}
	return d
}

// storedDocument is a contact as read from the collection. Other clients may have written any
// type into the birthday and age fields, so these are kept raw and converted by wholeNumber.
type storedDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	FirstName *string       `bson:"first_name"`
	LastName  *string       `bson:"last_name"`
	Birthday  bson.RawValue `bson:"birthday"`
	Email     *string       `bson:"email"`
	Phone     *string       `bson:"phone"`
	Address   *string       `bson:"address"`
	Age       bson.RawValue `bson:"age"`
}

// wholeNumber returns the value if it is an integer or a double without fraction. Every other
// type counts as absent.
func wholeNumber(v bson.RawValue) *int {
	var n int64
	switch v.Type {
	case bson.TypeInt32:
		n = int64(v.Int32())
	case bson.TypeInt64:
		n = v.Int64()
	case bson.TypeDouble:
		f := v.Double()
		if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return nil
		}
		n = int64(f)
	default:
		return nil
	}
	i := int(n)
	return &i
}

// birthdayOf converts a raw birthday sub-document. Anything other than a document, and a
// document without any whole-number part, is no birthday.
func birthdayOf(v bson.RawValue) *model.Birthday {
	if v.Type != bson.TypeEmbeddedDocument {
		return nil
	}
	doc := v.Document()
	b := &model.Birthday{
		Year:  wholeNumber(doc.Lookup("year")),
		Month: wholeNumber(doc.Lookup("month")),
		Day:   wholeNumber(doc.Lookup("day")),
	}
	if b.Year == nil && b.Month == nil && b.Day == nil {
		return nil
	}
	return b
}

func (d storedDocument) toContact() model.Contact {
	return model.Contact{
		Id:        d.ID.Hex(),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Birthday:  birthdayOf(d.Birthday),
		Email:     d.Email,
		Phone:     d.Phone,
		Address:   d.Address,
		Age:       wholeNumber(d.Age),
	}
}

// Store implements store.Store on a MongoDB collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger that reports skipped documents.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

var _ store.Store = (*Store)(nil)

// Connect opens a client for the MongoDB deployment at uri and uses the contacts collection of
// the named database.
func Connect(uri string, database string, opts ...Option) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	s := &Store{
		client:     client,
		collection: client.Database(database).Collection(CollectionName),
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, store.ErrUnavailable, err)
}

// decodeAll reads the cursor document by document. A document that cannot be decoded is logged
// and skipped, it does not fail the whole result.
func (s *Store) decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]model.Contact, error) {
	defer cursor.Close(ctx)
	contacts := make([]model.Contact, 0)
	for cursor.Next(ctx) {
		var d storedDocument
		if err := cursor.Decode(&d); err != nil {
			s.log.Warn("skipping contact document", "id", cursor.Current.Lookup("_id").String(), "error", err)
			continue
		}
		contacts = append(contacts, d.toContact())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (s *Store) FetchAll(ctx context.Context) ([]model.Contact, error) {
	cursor, err := s.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, unavailable("find contacts", err)
	}
	contacts, err := s.decodeAll(ctx, cursor)
	if err != nil {
		return nil, unavailable("decode contacts", err)
	}
	return contacts, nil
}

// sortKeys maps the allowed sort properties to document fields.
var sortKeys = map[string][]string{
	store.OrderByID:        {"_id"},
	store.OrderByFirstName: {"first_name"},
	store.OrderByLastName:  {"last_name"},
	store.OrderByEmail:     {"email"},
	store.OrderByPhone:     {"phone"},
	store.OrderByAge:       {"age"},
	store.OrderByBirthday:  {"birthday.month", "birthday.day"},
}

// buildFilter translates the filter part of a query into a document filter.
func buildFilter(query store.Query) bson.D {
	filter := bson.D{}
	if query.FirstNamePrefix != "" {
		filter = append(filter, bson.E{Key: "first_name", Value: bson.Regex{Pattern: "^" + regexp.QuoteMeta(query.FirstNamePrefix)}})
	}
	if query.LastNamePrefix != "" {
		filter = append(filter, bson.E{Key: "last_name", Value: bson.Regex{Pattern: "^" + regexp.QuoteMeta(query.LastNamePrefix)}})
	}
	if query.BirthdayMonth != 0 {
		filter = append(filter, bson.E{Key: "birthday.month", Value: query.BirthdayMonth})
	}
	if query.BirthdayDay != 0 {
		filter = append(filter, bson.E{Key: "birthday.day", Value: query.BirthdayDay})
	}
	return filter
}

// buildSort translates the order part of a query into a sort document.
func buildSort(query store.Query) (bson.D, error) {
	keys, ok := sortKeys[query.OrderBy]
	if !ok {
		return nil, fmt.Errorf("invalid order by %q", query.OrderBy)
	}
	direction := 1
	if !query.Ascending {
		direction = -1
	}
	sort := bson.D{}
	for _, key := range keys {
		sort = append(sort, bson.E{Key: key, Value: direction})
	}
	return sort, nil
}

func (s *Store) Find(ctx context.Context, query store.Query) ([]model.Contact, error) {
	sort, err := buildSort(query)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(sort).SetSkip(query.Offset)
	if query.Limit > 0 && query.Limit < math.MaxInt64 {
		opts.SetLimit(query.Limit)
	}
	cursor, err := s.collection.Find(ctx, buildFilter(query), opts)
	if err != nil {
		return nil, unavailable("find contacts", err)
	}
	contacts, err := s.decodeAll(ctx, cursor)
	if err != nil {
		return nil, unavailable("decode contacts", err)
	}
	return contacts, nil
}

func (s *Store) FetchByID(ctx context.Context, id string) (model.Contact, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.Contact{}, store.ErrNotFound
	}
	var d storedDocument
	err = s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Contact{}, store.ErrNotFound
	}
	if err != nil {
		return model.Contact{}, unavailable("find contact", err)
	}
	return d.toContact(), nil
}

func (s *Store) Insert(ctx context.Context, contact model.Contact) (model.Contact, error) {
	objectID := bson.NewObjectID()
	if _, err := s.collection.InsertOne(ctx, toDocument(objectID, contact)); err != nil {
		return model.Contact{}, unavailable("insert contact", err)
	}
	contact.Id = objectID.Hex()
	return contact, nil
}

// buildUpdate translates a partial update into an update document. Fields set to null are
// removed from the document.
func buildUpdate(update model.ContactUpdate) bson.D {
	set := bson.D{}
	unset := bson.D{}
	assign := func(field string, present bool, value interface{}) {
		if present {
			set = append(set, bson.E{Key: field, Value: value})
		} else {
			unset = append(unset, bson.E{Key: field, Value: ""})
		}
	}
	if update.FirstName.Set {
		assign(model.FieldFirstName, update.FirstName.Value != nil, update.FirstName.Value)
	}
	if update.LastName.Set {
		assign(model.FieldLastName, update.LastName.Value != nil, update.LastName.Value)
	}
	if update.Birthday.Set {
		var b *birthdayDocument
		if v := update.Birthday.Value; v != nil {
			b = &birthdayDocument{Year: v.Year, Month: v.Month, Day: v.Day}
		}
		assign(model.FieldBirthday, b != nil, b)
	}
	if update.Email.Set {
		assign(model.FieldEmail, update.Email.Value != nil, update.Email.Value)
	}
	if update.Phone.Set {
		assign(model.FieldPhone, update.Phone.Value != nil, update.Phone.Value)
	}
	if update.Address.Set {
		assign(model.FieldAddress, update.Address.Value != nil, update.Address.Value)
	}
	if update.Age.Set {
		assign(model.FieldAge, update.Age.Value != nil, update.Age.Value)
	}
	result := bson.D{}
	if len(set) > 0 {
		result = append(result, bson.E{Key: "$set", Value: set})
	}
	if len(unset) > 0 {
		result = append(result, bson.E{Key: "$unset", Value: unset})
	}
	return result
}

func (s *Store) UpdateFields(ctx context.Context, id string, update model.ContactUpdate) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	changes := buildUpdate(update)
	if len(changes) == 0 {
		return model.ErrEmptyUpdate
	}
	result, err := s.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: objectID}}, changes)
	if err != nil {
		return unavailable("update contact", err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ageAbsentFilter matches the contact with the id if its age is missing or null. A null age
// reads as absent, so it must be writable by the backfill as well.
func ageAbsentFilter(objectID bson.ObjectID) bson.D {
	return bson.D{
		{Key: "_id", Value: objectID},
		{Key: model.FieldAge, Value: nil},
	}
}

func (s *Store) SetAgeIfAbsent(ctx context.Context, id string, age int) (bool, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, store.ErrNotFound
	}
	result, err := s.collection.UpdateOne(ctx, ageAbsentFilter(objectID),
		bson.D{{Key: "$set", Value: bson.D{{Key: model.FieldAge, Value: age}}}})
	if err != nil {
		return false, unavailable("set age", err)
	}
	return result.ModifiedCount == 1, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) (int64, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	result, err := s.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: objectID}})
	if err != nil {
		return 0, unavailable("delete contact", err)
	}
	return result.DeletedCount, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}
