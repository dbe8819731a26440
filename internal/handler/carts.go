package handler

import (
	"context"  // context bounds the event publish
	"net/http" // HTTP status codes
	"time"     // per-call store timeout and event timestamps

	"github.com/labstack/echo/v4"                // Echo framework for HTTP routing
	"go.mongodb.org/mongo-driver/bson/primitive" // ObjectID to hex for events

	"github.com/iliyamo/summer-camp-booking/internal/model"      // cart fields
	"github.com/iliyamo/summer-camp-booking/internal/queue"      // cart event payload
	"github.com/iliyamo/summer-camp-booking/internal/repository" // insert result
	"github.com/iliyamo/summer-camp-booking/internal/service"    // event publisher
)

// CartHandler serves the /carts endpoints.
type CartHandler struct {
	Carts   CartStore
	Events  service.EventPublisher // cart.item_added events; never fails a request
	Timeout time.Duration
}

func NewCartHandler(carts CartStore, events service.EventPublisher, timeout time.Duration) *CartHandler {
	if carts == nil {
		panic("nil cart store passed to NewCartHandler")
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	return &CartHandler{Carts: carts, Events: events, Timeout: timeout}
}

// AddCartItem handles POST /carts.
func (h *CartHandler) AddCartItem(c echo.Context) error {
	doc, err := bindDocument(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	res, err := h.Carts.Insert(ctx, doc)
	if err != nil {
		return storeError(c, "add cart item", err)
	}
	h.publishAdded(c, res, doc)
	return c.JSON(http.StatusCreated, res)
}

// ListCart handles GET /carts?email=.  Ownership of the email is checked by
// the RequireOwner guard; without an email the answer is an empty list and
// the store is not queried.
func (h *CartHandler) ListCart(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusOK, []model.Document{})
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	docs, err := h.Carts.ListByEmail(ctx, email)
	if err != nil {
		return storeError(c, "list cart", err)
	}
	return c.JSON(http.StatusOK, docs)
}

// DeleteCartItem handles DELETE /carts/:id.
func (h *CartHandler) DeleteCartItem(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	res, err := h.Carts.DeleteByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(c, "delete cart item", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CartHandler) publishAdded(c echo.Context, res repository.InsertResult, doc model.Document) {
	ev := queue.CartItemAddedEvent{
		CartID:     idString(res.InsertedID),
		Email:      model.StringField(doc, model.FieldEmail),
		MenuItemID: idString(doc[model.FieldMenuItemID]),
		Name:       model.StringField(doc, "name"),
		Price:      number(doc["price"]),
		AddedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.Events.PublishCartItemAdded(ctx, ev); err != nil {
		c.Logger().Warnf("publish %s: %v", queue.CartItemAddedQueue, err)
	}
}

func idString(v any) string {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case string:
		return t
	}
	return ""
}

func number(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	}
	return 0
}
