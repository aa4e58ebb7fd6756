package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mcheros/storefront/internal/session"
)

const sessionCookie = "storefront_session"

type ctxKey string

const (
	visitorKey   ctxKey = "visitor"
	requestIDKey ctxKey = "request_id"
)

// SessionMiddleware resolves the visitor from the session cookie, minting a
// new visitor (and cookie) when there is none or the old one has expired.
func SessionMiddleware(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var visitor *session.Visitor
			if c, err := r.Cookie(sessionCookie); err == nil {
				if v, ok := store.Get(c.Value); ok {
					visitor = v
				}
			}
			if visitor == nil {
				visitor = store.Create()
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookie,
					Value:    visitor.ID,
					Path:     "/",
					HttpOnly: true,
				})
			}

			ctx := context.WithValue(r.Context(), visitorKey, visitor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func visitorFromContext(ctx context.Context) *session.Visitor {
	if v, ok := ctx.Value(visitorKey).(*session.Visitor); ok {
		return v
	}
	return nil
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
