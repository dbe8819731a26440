package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/summer-camp-booking/internal/middleware"
	"github.com/iliyamo/summer-camp-booking/internal/queue"
	"github.com/iliyamo/summer-camp-booking/internal/repository/memory"
	"github.com/iliyamo/summer-camp-booking/internal/service"
	"github.com/iliyamo/summer-camp-booking/internal/utils"
)

const testSecret = "handler-test-secret"

// Mocks

type forgetter struct {
	mu     sync.Mutex
	emails []string
}

func (f *forgetter) Forget(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, email)
	return nil
}

type invalidator struct{ routes []string }

func (i *invalidator) Invalidate(ctx context.Context, route string) error {
	i.routes = append(i.routes, route)
	return nil
}

type recordingPublisher struct {
	events []queue.CartItemAddedEvent
	err    error
}

func (p *recordingPublisher) PublishCartItemAdded(ctx context.Context, ev queue.CartItemAddedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

// Helpers

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	return e
}

func send(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var l []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return l
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	m := decode(t, rec)
	if m["error"] != true || m["message"] != msg {
		t.Errorf("body = %v, want error=true message=%q", m, msg)
	}
}

// asIdentity pretends JWTAuth already admitted email.
func asIdentity(email string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetIdentity(c, utils.Identity{Email: email})
			return next(c)
		}
	}
}

// Tests

func TestIssueJWT(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(testSecret, 0)
	e.POST("/jwt", h.IssueJWT)

	rec := send(e, http.MethodPost, "/jwt", `{"email":" a@x.com ","name":"A"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	tok, _ := decode(t, rec)["token"].(string)
	id, err := utils.ParseAccessToken(testSecret, tok)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if id.Email != "a@x.com" {
		t.Errorf("email = %q", id.Email)
	}
	if id.Claims["name"] != "A" {
		t.Errorf("name claim lost: %v", id.Claims)
	}
	exp, _ := id.Claims["exp"].(float64)
	if d := time.Until(time.Unix(int64(exp), 0)); d < 59*time.Minute || d > 61*time.Minute {
		t.Errorf("token lifetime = %s, want about 1h", d)
	}
}

func TestIssueJWT_Rejects(t *testing.T) {
	e := newEcho()
	e.POST("/jwt", NewAuthHandler(testSecret, time.Hour).IssueJWT)

	wantError(t, send(e, http.MethodPost, "/jwt", `{"name":"A"}`), http.StatusBadRequest, "email is required")
	wantError(t, send(e, http.MethodPost, "/jwt", `{"email":"   "}`), http.StatusBadRequest, "email is required")
	wantError(t, send(e, http.MethodPost, "/jwt", `not json`), http.StatusBadRequest, "invalid request body")
	wantError(t, send(e, http.MethodPost, "/jwt", `null`), http.StatusBadRequest, "invalid request body")
}

func userEcho(users *memory.UserStore, cache service.RoleCache) *echo.Echo {
	e := newEcho()
	h := NewUserHandler(users, service.NewStoreRoleProvider(users), cache, time.Second)
	e.GET("/users", h.ListUsers)
	e.POST("/users", h.CreateUser)
	e.DELETE("/users/:id", h.DeleteUser)
	e.GET("/users/role/:email", h.GetUserRole)
	e.PATCH("/users/role/:id", h.UpdateUserRole)
	return e
}

func TestCreateUser_Idempotent(t *testing.T) {
	users := memory.NewUserStore()
	e := userEcho(users, nil)

	rec := send(e, http.MethodPost, "/users", `{"email":"a@x.com","name":"A","role":"admin"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d, body %s", rec.Code, rec.Body.String())
	}
	res := decode(t, rec)
	if res["acknowledged"] != true {
		t.Errorf("acknowledged = %v", res["acknowledged"])
	}
	if id, _ := res["insertedId"].(string); len(id) != 24 {
		t.Errorf("insertedId = %v, want 24 hex chars", res["insertedId"])
	}

	rec = send(e, http.MethodPost, "/users", `{"email":"a@x.com","name":"Other"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("second create status = %d", rec.Code)
	}
	if m := decode(t, rec); m["message"] != "users already exist" {
		t.Errorf("second create body = %v", m)
	}
	if users.Len() != 1 {
		t.Errorf("stored users = %d, want 1", users.Len())
	}

	// a role in the registration body is ignored
	rec = send(e, http.MethodGet, "/users/role/a@x.com", "")
	if rec.Body.String() != "student" {
		t.Errorf("role after create = %q, want student", rec.Body.String())
	}
}

func TestCreateUser_Concurrent(t *testing.T) {
	users := memory.NewUserStore()
	e := userEcho(users, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			send(e, http.MethodPost, "/users", `{"email":"race@x.com"}`)
		}()
	}
	wg.Wait()
	if users.Len() != 1 {
		t.Errorf("stored users = %d, want 1", users.Len())
	}
}

func TestCreateUser_RequiresEmail(t *testing.T) {
	e := userEcho(memory.NewUserStore(), nil)
	wantError(t, send(e, http.MethodPost, "/users", `{"name":"A"}`), http.StatusBadRequest, "email is required")
}

func TestListUsers_EmptyIsArray(t *testing.T) {
	e := userEcho(memory.NewUserStore(), nil)
	rec := send(e, http.MethodGet, "/users", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("got %d %q, want 200 []", rec.Code, rec.Body.String())
	}
}

func TestDeleteUser(t *testing.T) {
	users := memory.NewUserStore()
	cache := &forgetter{}
	e := userEcho(users, cache)

	id := decode(t, send(e, http.MethodPost, "/users", `{"email":"a@x.com"}`))["insertedId"].(string)

	wantError(t, send(e, http.MethodDelete, "/users/not-hex", ""), http.StatusBadRequest, "invalid id")

	rec := send(e, http.MethodDelete, "/users/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if n := decode(t, rec)["deletedCount"]; n != float64(1) {
		t.Errorf("deletedCount = %v, want 1", n)
	}
	if len(cache.emails) != 1 || cache.emails[0] != "a@x.com" {
		t.Errorf("evicted = %v, want [a@x.com]", cache.emails)
	}

	rec = send(e, http.MethodDelete, "/users/"+id, "")
	if n := decode(t, rec)["deletedCount"]; n != float64(0) {
		t.Errorf("second delete deletedCount = %v, want 0", n)
	}
}

func TestUpdateUserRole(t *testing.T) {
	users := memory.NewUserStore()
	cache := &forgetter{}
	e := userEcho(users, cache)

	id := decode(t, send(e, http.MethodPost, "/users", `{"email":"a@x.com"}`))["insertedId"].(string)

	wantError(t, send(e, http.MethodPatch, "/users/role/"+id, `{"role":"root"}`), http.StatusBadRequest,
		"role must be one of student, instructor, admin")
	wantError(t, send(e, http.MethodPatch, "/users/role/zzz", `{"role":"admin"}`), http.StatusBadRequest, "invalid id")

	rec := send(e, http.MethodPatch, "/users/role/"+id, `{"role":"admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	res := decode(t, rec)
	if res["matchedCount"] != float64(1) || res["modifiedCount"] != float64(1) {
		t.Errorf("update result = %v", res)
	}
	if _, ok := res["upsertedId"]; !ok {
		t.Errorf("upsertedId missing from %v", res)
	}
	if len(cache.emails) != 1 || cache.emails[0] != "a@x.com" {
		t.Errorf("evicted = %v, want [a@x.com]", cache.emails)
	}
	if got := send(e, http.MethodGet, "/users/role/a@x.com", "").Body.String(); got != "admin" {
		t.Errorf("role = %q, want admin", got)
	}
}

func TestGetUserRole_UnknownIsStudent(t *testing.T) {
	e := userEcho(memory.NewUserStore(), nil)
	rec := send(e, http.MethodGet, "/users/role/nobody@x.com", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "student" {
		t.Errorf("got %d %q, want 200 student", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMETextPlain) {
		t.Errorf("content type = %q, want text/plain", ct)
	}
}

func TestStoreFailureIs500(t *testing.T) {
	users := memory.NewUserStore()
	users.SetErr(errors.New("connection refused"))
	e := userEcho(users, nil)

	wantError(t, send(e, http.MethodGet, "/users", ""), http.StatusInternalServerError, "internal server error")
	wantError(t, send(e, http.MethodPost, "/users", `{"email":"a@x.com"}`), http.StatusInternalServerError, "internal server error")
}

func TestStoreTimeoutIs504(t *testing.T) {
	users := memory.NewUserStore()
	users.SetErr(context.DeadlineExceeded)
	e := userEcho(users, nil)
	wantError(t, send(e, http.MethodGet, "/users", ""), http.StatusGatewayTimeout, "database timeout")
}

func TestMenu(t *testing.T) {
	menu := memory.NewMenuStore()
	inv := &invalidator{}
	h := NewMenuHandler(menu, inv, time.Second)
	e := newEcho()
	e.GET("/menu", h.ListMenu)
	e.GET("/menu/:email", h.ListInstructorMenu)
	e.POST("/menu", h.CreateMenuItem, asIdentity("i@x.com"))

	if got := strings.TrimSpace(send(e, http.MethodGet, "/menu", "").Body.String()); got != "[]" {
		t.Errorf("empty menu = %q, want []", got)
	}

	rec := send(e, http.MethodPost, "/menu", `{"name":"Archery","price":12.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	send(e, http.MethodPost, "/menu", `{"name":"Canoe","instructorEmail":"j@x.com"}`)

	if len(inv.routes) != 2 || inv.routes[0] != MenuRoute {
		t.Errorf("invalidated = %v", inv.routes)
	}
	if n := len(decodeList(t, send(e, http.MethodGet, "/menu", ""))); n != 2 {
		t.Errorf("menu items = %d, want 2", n)
	}

	mine := decodeList(t, send(e, http.MethodGet, "/menu/i@x.com", ""))
	if len(mine) != 1 || mine[0]["name"] != "Archery" {
		t.Errorf("instructor items = %v", mine)
	}
	if id, _ := mine[0]["_id"].(string); len(id) != 24 {
		t.Errorf("_id = %v, want hex string", mine[0]["_id"])
	}
}

func TestCarts(t *testing.T) {
	carts := memory.NewCartStore()
	pub := &recordingPublisher{err: errors.New("broker down")}
	h := NewCartHandler(carts, pub, time.Second)
	e := newEcho()
	e.POST("/carts", h.AddCartItem)
	e.GET("/carts", h.ListCart)
	e.DELETE("/carts/:id", h.DeleteCartItem)

	rec := send(e, http.MethodPost, "/carts", `{"email":"a@x.com","menuItemId":"m1","name":"Archery","price":12.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d (a publish failure must not fail the request)", rec.Code)
	}
	cartID := decode(t, rec)["insertedId"].(string)

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.CartID != cartID || ev.Email != "a@x.com" || ev.MenuItemID != "m1" || ev.Price != 12.5 {
		t.Errorf("event = %+v", ev)
	}

	if got := strings.TrimSpace(send(e, http.MethodGet, "/carts", "").Body.String()); got != "[]" {
		t.Errorf("no email = %q, want []", got)
	}
	if carts.ListCalls() != 0 {
		t.Errorf("store queried %d times without email", carts.ListCalls())
	}

	if n := len(decodeList(t, send(e, http.MethodGet, "/carts?email=a@x.com", ""))); n != 1 {
		t.Errorf("cart items = %d, want 1", n)
	}
	if n := len(decodeList(t, send(e, http.MethodGet, "/carts?email=b@x.com", ""))); n != 0 {
		t.Errorf("other cart items = %d, want 0", n)
	}

	rec = send(e, http.MethodDelete, "/carts/"+cartID, "")
	if n := decode(t, rec)["deletedCount"]; n != float64(1) {
		t.Errorf("deletedCount = %v, want 1", n)
	}
	wantError(t, send(e, http.MethodDelete, "/carts/xyz", ""), http.StatusBadRequest, "invalid id")
}

func TestWelcomeAndHealth(t *testing.T) {
	e := newEcho()
	e.GET("/", Welcome)
	down := HealthHandler{Ping: func(context.Context) error { return errors.New("no server") }}
	up := HealthHandler{}
	e.GET("/down", down.Health)
	e.GET("/up", up.Health)

	if got := send(e, http.MethodGet, "/", "").Body.String(); got != WelcomeText {
		t.Errorf("GET / = %q", got)
	}
	if rec := send(e, http.MethodGet, "/down", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("down status = %d, want 503", rec.Code)
	}
	if rec := send(e, http.MethodGet, "/up", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("up = %d %q", rec.Code, rec.Body.String())
	}
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	e := newEcho()
	rec := send(e, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if m := decode(t, rec); m["error"] != true || m["message"] == "" {
		t.Errorf("body = %v", m)
	}
}

func TestBindDocument_DropsClientID(t *testing.T) {
	menu := memory.NewMenuStore()
	e := newEcho()
	e.POST("/menu", NewMenuHandler(menu, nil, 0).CreateMenuItem)

	rec := send(e, http.MethodPost, "/menu", `{"_id":"mine","name":"x","instructorEmail":"i@x.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if id, _ := decode(t, rec)["insertedId"].(string); id == "mine" || len(id) != 24 {
		t.Errorf("insertedId = %q, want a generated ObjectID", id)
	}
}

func TestEmailParam_Decoding(t *testing.T) {
	users := memory.NewUserStore()
	h := NewUserHandler(users, service.NewStoreRoleProvider(users), nil, time.Second)
	menu := NewMenuHandler(memory.NewMenuStore(), nil, time.Second)
	e := newEcho()

	for _, tt := range []struct {
		name    string
		handler echo.HandlerFunc
	}{
		{"GetUserRole", h.GetUserRole},
		{"ListInstructorMenu", menu.ListInstructorMenu},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.SetParamNames("email")
			c.SetParamValues("a%zz")
			if err := tt.handler(c); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			wantError(t, rec, http.StatusBadRequest, "invalid email")
		})
	}

	users.CreateIfAbsent(context.Background(), "a@x.com", map[string]any{"role": "admin"})
	rec := send(userEcho(users, nil), http.MethodGet, "/users/role/a%40x.com", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "admin" {
		t.Errorf("GET /users/role/a%%40x.com = %d %q", rec.Code, rec.Body.String())
	}
}
