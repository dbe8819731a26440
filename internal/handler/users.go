package handler

import (
	"errors"   // errors tells a missing user apart from a store failure
	"net/http" // HTTP status codes
	"time"     // per-call store timeout

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/summer-camp-booking/internal/model"      // user fields and roles
	"github.com/iliyamo/summer-camp-booking/internal/repository" // sentinel errors
	"github.com/iliyamo/summer-camp-booking/internal/service"    // role lookups and cache eviction
)

// UserHandler bundles dependencies for the /users endpoints.
type UserHandler struct {
	Users   UserStore            // users collection
	Roles   service.RoleProvider // uncached lookups for GET /users/role/:email
	Cache   service.RoleCache    // optional; told about role changes
	Timeout time.Duration        // per store call
}

// NewUserHandler panics if users or roles is nil; cache may be nil.
func NewUserHandler(users UserStore, roles service.RoleProvider, cache service.RoleCache, timeout time.Duration) *UserHandler {
	if users == nil || roles == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{Users: users, Roles: roles, Cache: cache, Timeout: timeout}
}

type roleReq struct {
	Role string `json:"role"`
}

// ListUsers handles GET /users (admin only).
func (h *UserHandler) ListUsers(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	docs, err := h.Users.List(ctx)
	if err != nil {
		return storeError(c, "list users", err)
	}
	return c.JSON(http.StatusOK, docs)
}

// CreateUser handles POST /users.  Registration is idempotent on email: a
// second call for the same address stores nothing and answers
// {"message": "users already exist"}.  A role in the body is ignored;
// roles change only through UpdateUserRole.
func (h *UserHandler) CreateUser(c echo.Context) error {
	doc, err := bindDocument(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	email := model.NormalizeEmail(model.StringField(doc, model.FieldEmail))
	if email == "" {
		return errorJSON(c, http.StatusBadRequest, "email is required")
	}
	doc[model.FieldEmail] = email
	delete(doc, model.FieldRole)

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	res, created, err := h.Users.CreateIfAbsent(ctx, email, doc)
	if err != nil {
		return storeError(c, "create user", err)
	}
	if !created {
		return c.JSON(http.StatusOK, echo.Map{"message": "users already exist"})
	}
	return c.JSON(http.StatusCreated, res)
}

// DeleteUser handles DELETE /users/:id (admin only).  Deleting an unknown id
// reports deletedCount 0.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	// Resolve the email first so the role cache can be cleared afterwards.
	doc, err := h.Users.FindByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return storeError(c, "delete user", err)
	}
	res, err := h.Users.DeleteByID(ctx, id)
	if err != nil {
		return storeError(c, "delete user", err)
	}
	if res.DeletedCount > 0 {
		h.forgetRole(c, model.StringField(doc, model.FieldEmail))
	}
	return c.JSON(http.StatusOK, res)
}

// GetUserRole handles GET /users/role/:email and answers with the bare role
// name as plain text.
func (h *UserHandler) GetUserRole(c echo.Context) error {
	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	email, err := emailParam(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid email")
	}
	role, err := h.Roles.Role(ctx, email)
	if err != nil {
		return storeError(c, "get user role", err)
	}
	return c.String(http.StatusOK, string(role))
}

// UpdateUserRole handles PATCH /users/role/:id with body {"role": "..."}.
func (h *UserHandler) UpdateUserRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if !model.ValidRole(req.Role) {
		return errorJSON(c, http.StatusBadRequest, "role must be one of student, instructor, admin")
	}
	id := c.Param("id")

	ctx, cancel := storeCtx(c, h.Timeout)
	defer cancel()

	res, err := h.Users.UpdateRole(ctx, id, model.Role(req.Role))
	if err != nil {
		return storeError(c, "update user role", err)
	}
	if res.ModifiedCount > 0 && h.Cache != nil {
		if doc, err := h.Users.FindByID(ctx, id); err == nil {
			h.forgetRole(c, model.StringField(doc, model.FieldEmail))
		}
	}
	return c.JSON(http.StatusOK, res)
}

// forgetRole evicts a cached role.  A failure only delays the change until
// the cache TTL runs out, so it is logged and otherwise ignored.
func (h *UserHandler) forgetRole(c echo.Context, email string) {
	if h.Cache == nil || email == "" {
		return
	}
	if err := h.Cache.Forget(c.Request().Context(), email); err != nil {
		c.Logger().Warnf("forget cached role for %s: %v", email, err)
	}
}
