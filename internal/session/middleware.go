package session

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// CookieName is the browser cookie carrying the session id.
const CookieName = "sessionid"

type ctxKey struct{}

// FromContext returns the request's session. The second return is false when
// Middleware is not installed on the route.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok
}

// Middleware binds one session to each request: it loads the session named
// by the request cookie (creating a fresh one when absent or expired), puts
// it on the request context, and persists it after the handler runs if the
// handler marked it modified. New sessions get their id cookie set up front.
func Middleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := loadSession(r, store)

			if sess.IsNew {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))

			if !sess.Modified() {
				return
			}

			// The response may already be on the wire; save on a fresh
			// context so a cancelled request cannot drop the write.
			saveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := store.Save(saveCtx, sess); err != nil {
				log.Printf("session save error: %v", err)
			}
		})
	}
}

func loadSession(r *http.Request, store Store) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return New()
	}

	sess, err := store.Load(r.Context(), cookie.Value)
	if errors.Is(err, ErrSessionNotFound) {
		return New()
	}
	if err != nil {
		log.Printf("session load error: %v", err) // log store error but continue with a fresh session
		return New()
	}

	return sess
}
