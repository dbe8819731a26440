package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/summer-camp-booking/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}, "X-Multi": {"a", "b"}}
	body := []byte(`[{"name":"Pottery"}]`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encodePayload() error = %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(bs)
	if !ok {
		t.Fatal("decodePayload() not ok")
	}
	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" || len(gotHdr["X-Multi"]) != 2 {
		t.Errorf("header = %v", gotHdr)
	}
	if !bytes.Equal(gotBody, body) {
		t.Errorf("body = %q", gotBody)
	}
}

func TestDecodePayload_Corrupt(t *testing.T) {
	for _, bs := range [][]byte{nil, {0, 0, 0}, {0, 0, 0, 200, 0, 0, 0, 50, '{'}} {
		if _, _, _, ok := decodePayload(bs); ok {
			t.Errorf("decodePayload(%v) should fail", bs)
		}
	}
}

func TestResponseCache_DisabledWithoutRedis(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", Methods: []string{"GET"}}, nil)
	if err := rc.Invalidate(context.Background(), "/menu"); err != nil {
		t.Errorf("Invalidate() error = %v", err)
	}

	e := echo.New()
	e.GET("/menu", func(c echo.Context) error { return c.String(http.StatusOK, "menu") }, rc.Middleware())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "menu" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "" {
		t.Error("disabled cache must not set X-Cache")
	}
}

func TestResponseCache_KeyDependsOnQuery(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Prefix: "cache"}, nil)
	a := rc.Key(http.MethodGet, "/menu", "")
	b := rc.Key("get", "/menu", "")
	c := rc.Key(http.MethodGet, "/menu", "page=2")
	if a != b {
		t.Error("method must be case-insensitive")
	}
	if a == c {
		t.Error("query string must change the key")
	}
}

func TestCaptureWriter_Truncates(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	if !cw.truncated {
		t.Error("expected truncated")
	}
	if rec.Body.String() != "abcdef" {
		t.Errorf("client body = %q, forwarding must be complete", rec.Body.String())
	}
}
