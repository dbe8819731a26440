package handler // handler defines http handlers

import (
	"context"  // context carries the per-call store deadline
	"errors"   // errors distinguishes sentinel values from the repository
	"net/http" // http provides status code constants
	"net/url"  // url decodes percent-encoded path parameters
	"time"     // time holds the default store timeout

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/summer-camp-booking/internal/model"      // document type
	"github.com/iliyamo/summer-camp-booking/internal/repository" // result types and sentinel errors
)

// DefaultTimeout bounds every store call when a handler is built without an
// explicit timeout.
const DefaultTimeout = 5 * time.Second

// UserStore is the users collection as the handlers use it.  Both the MongoDB
// repository and the in-memory store satisfy it.
type UserStore interface {
	List(ctx context.Context) ([]model.Document, error)
	FindByEmail(ctx context.Context, email string) (model.Document, error)
	FindByID(ctx context.Context, id string) (model.Document, error)
	CreateIfAbsent(ctx context.Context, email string, doc model.Document) (repository.InsertResult, bool, error)
	DeleteByID(ctx context.Context, id string) (repository.DeleteResult, error)
	UpdateRole(ctx context.Context, id string, role model.Role) (repository.UpdateResult, error)
}

// MenuStore is the menu collection as the handlers use it.
type MenuStore interface {
	List(ctx context.Context) ([]model.Document, error)
	ListByInstructor(ctx context.Context, email string) ([]model.Document, error)
	Insert(ctx context.Context, doc model.Document) (repository.InsertResult, error)
}

// CartStore is the cart collection as the handlers use it.
type CartStore interface {
	Insert(ctx context.Context, doc model.Document) (repository.InsertResult, error)
	ListByEmail(ctx context.Context, email string) ([]model.Document, error)
	DeleteByID(ctx context.Context, id string) (repository.DeleteResult, error)
}

// CacheInvalidator drops cached responses for a route.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, route string) error
}

// storeCtx derives the context for one store call.
func storeCtx(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}

// errorJSON writes the {"error": true, "message": ...} body shared with the
// authorization guards.
func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": true, "message": msg})
}

// storeError maps a repository error onto a response.  Anything that is not
// a client mistake is logged and reported as a 500; it never escapes the
// handler.
func storeError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	case errors.Is(err, context.DeadlineExceeded):
		c.Logger().Errorf("%s: store timeout: %v", op, err)
		return errorJSON(c, http.StatusGatewayTimeout, "database timeout")
	default:
		c.Logger().Errorf("%s: %v", op, err)
		return errorJSON(c, http.StatusInternalServerError, "internal server error")
	}
}

// bindDocument decodes the request body as one JSON object.  Field values
// are kept opaque; only a client supplied _id is dropped so the store
// assigns ids.
func bindDocument(c echo.Context) (model.Document, error) {
	var doc model.Document
	if err := c.Echo().JSONSerializer.Deserialize(c, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("body must be a JSON object")
	}
	delete(doc, model.FieldID)
	return doc, nil
}

// emailParam returns the :email path parameter.  Echo leaves path values
// percent-encoded, so a%40x.com is decoded to a@x.com here.
func emailParam(c echo.Context) (string, error) {
	return url.PathUnescape(c.Param("email"))
}
