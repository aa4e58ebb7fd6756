package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mcheros/storefront/internal/session"
)

func TestSessionMiddleware_MintsAndReusesVisitor(t *testing.T) {
	store := session.NewStore(time.Minute)
	defer store.Close()

	var seen []string
	handler := SessionMiddleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitor := visitorFromContext(r.Context())
		if visitor == nil {
			t.Fatal("no visitor in context")
		}
		seen = append(seen, visitor.ID)
	}))

	// first request: a visitor is minted and a cookie set
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/cart", nil))

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookie {
		t.Fatalf("expected a session cookie, got %v", cookies)
	}

	// second request with the cookie: same visitor
	request := httptest.NewRequest("GET", "/api/cart", nil)
	request.AddCookie(cookies[0])
	handler.ServeHTTP(httptest.NewRecorder(), request)

	if len(seen) != 2 || seen[0] != seen[1] {
		t.Errorf("expected the same visitor across requests, got %v", seen)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 visitor in the store, got %d", store.Len())
	}
}

func TestSessionMiddleware_ExpiredCookieGetsFreshVisitor(t *testing.T) {
	store := session.NewStore(time.Minute)
	defer store.Close()

	handler := SessionMiddleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	request := httptest.NewRequest("GET", "/api/cart", nil)
	request.AddCookie(&http.Cookie{Name: sessionCookie, Value: "long-gone"})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected a replacement cookie, got %v", cookies)
	}
	if cookies[0].Value == "long-gone" {
		t.Error("expired session id must not be kept")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getRequestID(r.Context()) == "" {
			t.Error("no request id in context")
		}
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

	if recorder.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	// a caller-supplied id is kept
	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("X-Request-ID", "req-fixed")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if got := recorder.Header().Get("X-Request-ID"); got != "req-fixed" {
		t.Errorf("expected req-fixed, got %s", got)
	}
}
