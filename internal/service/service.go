package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/birthday"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/model"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/store"
	"golang.org/x/sync/errgroup"
)

// defaultUpcomingLimit is the number of contacts returned by the upcoming birthdays endpoint
// when no limit is given.
const defaultUpcomingLimit = 10

// defaultBackfillWorkers is the number of ages written to the store in parallel.
const defaultBackfillWorkers = 8

// allowedAscending are the allowed values for the 'ascending' URL parameter.
var allowedAscending = []string{"true", "false"}

// Service serves the contacts REST API on top of a store.
type Service struct {
	contacts        store.Store
	clock           birthday.Clock
	log             *logger.Logger
	metrics         *metrics.Metrics
	requestLogging  bool
	allowedOrigins  []string
	backfillWorkers int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the local calendar as the source of the current date.
func WithClock(clock birthday.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger sets the logger for errors and request logging.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithMetrics enables the metrics middleware and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRequestLogging turns the log line written for every request on or off.
func WithRequestLogging(enabled bool) Option {
	return func(s *Service) {
		s.requestLogging = enabled
	}
}

// WithAllowedOrigins enables CORS for browser clients served from the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Service) {
		s.allowedOrigins = origins
	}
}

// WithBackfillWorkers limits the number of ages written to the store in parallel.
func WithBackfillWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.backfillWorkers = n
		}
	}
}

// New creates the service for the given store.
func New(contacts store.Store, opts ...Option) *Service {
	s := &Service{
		contacts:        contacts,
		clock:           birthday.Today,
		log:             logger.NewNop(),
		requestLogging:  true,
		backfillWorkers: defaultBackfillWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func (s *Service) SetupHttpRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID())
	if s.requestLogging {
		router.Use(requestLogger(s.log))
	}
	if len(s.allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  s.allowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
		}))
	}
	if s.metrics != nil {
		router.Use(s.metrics.Middleware())
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	router.GET("/health", s.health)
	router.GET("/contacts", s.findContacts)
	router.POST("/contacts", s.createContact)
	router.GET("/contacts/birthdays-next-month", s.findBirthdaysNextMonth)
	router.GET("/contacts/next-birthday", s.findNextBirthday)
	router.GET("/contacts/upcoming-birthdays", s.findUpcomingBirthdays)
	router.POST("/contacts/ages", s.backfillAges)
	router.GET("/contacts/:id", s.findContactByID)
	router.PUT("/contacts/:id", s.updateContactByID)
	router.DELETE("/contacts/:id", s.deleteContactByID)
	return router
}

// respondWithError translates an error into the HTTP response. Errors of the store are logged
// and answered with a generic message.
func (s *Service) respondWithError(c *gin.Context, err error) {
	var fieldErr *model.InvalidFieldError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	case errors.Is(err, model.ErrEmptyUpdate):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.As(err, &fieldErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": fieldErr.Error()})
	default:
		s.log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "an unexpected error occurred"})
	}
}

// health reports whether the store can be reached.
//
// Example REST API call:
//
//	> curl http://localhost:8080/health
func (s *Service) health(c *gin.Context) {
	if err := s.contacts.Ping(c.Request.Context()); err != nil {
		s.log.Warn("health check failed", "error", err)
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok"})
}

// findContacts responds with a list of contacts as JSON.
//
// The URL parameters 'firstname' and 'lastname' are interpreted as the beginning of the first name
// or last name of the contact.
//
// The URL parameter 'birthday' consists of a month part and a day part, separated by '-'. The call
// returns all contacts that have their birthday on this month and day, regardless of the year.
//
// The URL parameter 'limit' specifies how many contacts matching the search criteria are returned.
// The URL parameter 'offset' specifies how many items from the sorted list of results are skipped
// in the beginning. Together with the 'limit' parameter, one can implement search result paging.
//
// The URL parameter 'orderby' specifies the contact property by which the results shall be sorted.
// Valid values are 'id', 'first_name', 'last_name', 'email', 'phone', 'age' and 'birthday'. If
// this URL parameter is not specified, the contacts will be sorted by id.
//
// If the URL parameter 'ascending' is set to 'false' then the sort order is reversed, starting
// with the 'highest' value. If it is set to 'true', or if this URL parameter is omitted, the
// result starts with the lowest value.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts"
//	> curl "http://localhost:8080/contacts?firstname=Ji"
//	> curl "http://localhost:8080/contacts?lastname=Smi"
//	> curl "http://localhost:8080/contacts?birthday=11-29"
//	> curl "http://localhost:8080/contacts?limit=20&offset=60"
//	> curl "http://localhost:8080/contacts?orderby=birthday&ascending=false"
func (s *Service) findContacts(c *gin.Context) {
	query := store.NewQuery()
	if !parseNameAndBirthday(c, &query) {
		return
	}
	if !parseLimitAndOffset(c, &query) {
		return
	}
	if !parseOrderbyAndAscending(c, &query) {
		return
	}
	contacts, err := s.contacts.Find(c.Request.Context(), query)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	if len(contacts) == 0 {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	} else {
		c.IndentedJSON(http.StatusOK, contacts)
	}
}

// parseNameAndBirthday inspects the URL parameters and determines values for first name, last
// name, day and month of the contact's birthday.
func parseNameAndBirthday(c *gin.Context, query *store.Query) bool {
	query.FirstNamePrefix = c.Query("firstname")
	query.LastNamePrefix = c.Query("lastname")
	bday := c.Query("birthday")
	if bday == "" {
		return true
	}
	before, after, found := strings.Cut(bday, "-")
	if !found {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid birthday URL parameter"})
		return false
	}
	month, errMonth := strconv.Atoi(before)
	day, errDay := strconv.Atoi(after)
	if errMonth != nil || errDay != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid birthday URL parameter"})
		return false
	}
	query.BirthdayMonth = month
	query.BirthdayDay = day
	return true
}

// parseLimitAndOffset inspects the URL parameters and determines values for limit and offset of
// the result set.
func parseLimitAndOffset(c *gin.Context, query *store.Query) bool {
	if limit := c.Query("limit"); limit != "" {
		limitAsInt, errConv := strconv.ParseInt(limit, 10, 64)
		if errConv != nil || limitAsInt < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return false
		}
		query.Limit = limitAsInt
	}
	if offset := c.Query("offset"); offset != "" {
		offsetAsInt, errConv := strconv.ParseInt(offset, 10, 64)
		if errConv != nil || offsetAsInt < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid offset parameter"})
			return false
		}
		query.Offset = offsetAsInt
	}
	return true
}

// parseOrderbyAndAscending inspects the URL parameters and determines values for the orderby and
// ascending values of the result set.
func parseOrderbyAndAscending(c *gin.Context, query *store.Query) bool {
	if orderby := c.Query("orderby"); orderby != "" {
		if !slices.Contains(store.AllowedOrderBy, orderby) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid orderby parameter"})
			return false
		}
		query.OrderBy = orderby
	}
	if ascending := c.Query("ascending"); ascending != "" {
		if !slices.Contains(allowedAscending, ascending) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid ascending parameter"})
			return false
		}
		query.Ascending = ascending == "true"
	}
	return true
}

// parseID reads the id parameter of the request URL. Malformed ids are answered with BAD REQUEST
// and never reach the store.
func parseID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !store.ValidID(id) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid id parameter"})
		return "", false
	}
	return id, true
}

// createContact inserts the contact specified in the request's JSON into the store. It responds
// with the full contact data including the newly assigned id. An id in the request is ignored.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"first_name": "Hans", "last_name": "Wurst", "phone": "0815", "birthday": {"year": 1969, "month": 3, "day": 2}}'
func (s *Service) createContact(c *gin.Context) {
	var newContact model.Contact
	if err := c.ShouldBindJSON(&newContact); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	created, err := s.contacts.Insert(c.Request.Context(), newContact)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, created)
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/65f1c0ffee65f1c0ffee65f1
func (s *Service) findContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := s.contacts.FetchByID(c.Request.Context(), id)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID updates the contact whose ID value matches the id parameter of the request
// URL with the values specified in the JSON (and only those), and finally responds with the new
// version of the contact. Only the fields first_name, last_name, birthday, email, phone, address
// and age can be changed; all other keys of the JSON are ignored.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts/65f1c0ffee65f1c0ffee65f1 --request "PUT" --include --header "Content-Type: application/json" --data '{"phone": "81970"}'
//	> curl http://localhost:8080/contacts/65f1c0ffee65f1c0ffee65f1 --request "PUT" --include --header "Content-Type: application/json" --data '{"birthday": {"year": 1972, "month": 6, "day": 6}}'
func (s *Service) updateContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload map[string]json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	update, err := model.MergeUpdate(payload)
	if err != nil {
		s.respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := s.contacts.UpdateFields(ctx, id, update); err != nil {
		s.respondWithError(c, err)
		return
	}

	// In the HTTP response, return the full contact after the update.
	contact, err := s.contacts.FetchByID(ctx, id)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request URL
// from the store.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/65f1c0ffee65f1c0ffee65f1 --request "DELETE"
func (s *Service) deleteContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	deleted, err := s.contacts.DeleteByID(c.Request.Context(), id)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	if deleted == 1 {
		c.IndentedJSON(http.StatusOK, gin.H{"message": "contact deleted", "deleted": deleted})
	} else {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found", "deleted": deleted})
	}
}

// findBirthdaysNextMonth responds with the contacts whose birthday is in the next calendar month,
// sorted by day of month. Only id, name and birthday of each contact are returned. The list may
// be empty.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/birthdays-next-month
func (s *Service) findBirthdaysNextMonth(c *gin.Context) {
	today := s.clock()
	all, err := s.contacts.FetchAll(c.Request.Context())
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, birthdayListing(birthday.NextMonthFilter(all, today)))
}

// birthdayListing reduces the contacts to id, name and birthday.
func birthdayListing(contacts []model.Contact) []model.Contact {
	listing := make([]model.Contact, 0, len(contacts))
	for _, contact := range contacts {
		listing = append(listing, model.Contact{
			Id:        contact.Id,
			FirstName: contact.FirstName,
			LastName:  contact.LastName,
			Birthday:  contact.Birthday,
		})
	}
	return listing
}

// findNextBirthday responds with the contact whose birthday comes next, counting from the
// beginning of the current month.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/next-birthday
func (s *Service) findNextBirthday(c *gin.Context) {
	today := s.clock()
	all, err := s.contacts.FetchAll(c.Request.Context())
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	next, found := birthday.NextBirthday(all, today)
	if !found {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "no contact with a birthday"})
		return
	}
	c.IndentedJSON(http.StatusOK, next)
}

// findUpcomingBirthdays responds with the contacts ranked by their next birthday. The URL
// parameter 'limit' specifies the length of the list, 10 by default.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/upcoming-birthdays?limit=3"
func (s *Service) findUpcomingBirthdays(c *gin.Context) {
	limit := defaultUpcomingLimit
	if value := c.Query("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return
		}
		limit = parsed
	}
	today := s.clock()
	all, err := s.contacts.FetchAll(c.Request.Context())
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	ranked := birthday.RankByProximity(all, today)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	c.IndentedJSON(http.StatusOK, ranked)
}

// BackfillResult is the outcome of an age backfill.
type BackfillResult struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// BackfillAges stores the derived age on every contact that has none yet. Contacts whose age
// cannot be stored are logged and counted as failed, the remaining contacts are still processed.
// Only contacts actually changed by the store count as updated.
func (s *Service) BackfillAges(ctx context.Context, today birthday.Date) (BackfillResult, error) {
	all, err := s.contacts.FetchAll(ctx)
	if err != nil {
		return BackfillResult{}, err
	}
	var (
		mu     sync.Mutex
		result BackfillResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.backfillWorkers)
	for _, assignment := range birthday.PlanBackfill(all, today) {
		assignment := assignment
		g.Go(func() error {
			updated, err := s.contacts.SetAgeIfAbsent(gctx, assignment.Id, assignment.Age)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warn("could not store age", "id", assignment.Id, "error", err)
				result.Failed++
				return nil
			}
			if updated {
				result.Updated++
			}
			return nil
		})
	}
	_ = g.Wait()
	if s.metrics != nil {
		s.metrics.ObserveBackfill(result.Updated, result.Failed)
	}
	s.log.Info("ages backfilled", "updated", result.Updated, "failed", result.Failed)
	return result, nil
}

// backfillAges derives the age of all contacts without one and responds with the number of
// updated and failed contacts. Ages that are already stored are never recomputed.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/ages --request "POST"
func (s *Service) backfillAges(c *gin.Context) {
	result, err := s.BackfillAges(c.Request.Context(), s.clock())
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, result)
}
