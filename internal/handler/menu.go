package handler

import (
	"net/http" // HTTP status codes
	"time"     // per-call store timeout

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/summer-camp-booking/internal/middleware" // caller identity
	"github.com/iliyamo/summer-camp-booking/internal/model"      // menu fields
)

// MenuRoute is the public listing path; its cached response is dropped
// whenever an item is added.
const MenuRoute = "/menu"

// MenuHandler serves the menu (class catalogue) endpoints.
type MenuHandler struct {
	Menu    MenuStore
	Cache   CacheInvalidator // optional
	Timeout time.Duration
}

func NewMenuHandler(menu MenuStore, cache CacheInvalidator, timeout time.Duration) *MenuHandler {
	if menu == nil {
		panic("nil menu store passed to NewMenuHandler")
	}
	return &MenuHandler{Menu: menu, Cache: cache, Timeout: timeout}
}

// ListMenu handles GET /menu.
func (h *MenuHandler) ListMenu(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	docs, err := h.Menu.List(ctx)
	if err != nil {
		return storeError(c, "list menu", err)
	}
	return c.JSON(http.StatusOK, docs)
}

// ListInstructorMenu handles GET /menu/:email (instructor only) and returns
// the items whose instructorEmail matches the path parameter.
func (h *MenuHandler) ListInstructorMenu(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid email")
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	docs, err := h.Menu.ListByInstructor(ctx, email)
	if err != nil {
		return storeError(c, "list instructor menu", err)
	}
	return c.JSON(http.StatusOK, docs)
}

// CreateMenuItem handles POST /menu (instructor only).  An item without an
// instructorEmail is attributed to the caller.
func (h *MenuHandler) CreateMenuItem(c echo.Context) error {
	doc, err := bindDocument(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if model.StringField(doc, model.FieldInstructorEmail) == "" {
		if id, ok := middleware.IdentityFrom(c); ok {
			doc[model.FieldInstructorEmail] = id.Email
		}
	}

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	res, err := h.Menu.Insert(ctx, doc)
	if err != nil {
		return storeError(c, "create menu item", err)
	}
	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx, MenuRoute); err != nil {
			c.Logger().Warnf("invalidate %s cache: %v", MenuRoute, err)
		}
	}
	return c.JSON(http.StatusCreated, res)
}
