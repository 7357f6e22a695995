// Package auth handles portal authentication. Two credential forms are
// accepted interchangeably on API routes: the portal session cookie
// (browser clients) and a bearer JWT (API clients, external tools).
// LoadUser places the resolved SessionUser into the request context;
// RequireSignedIn and RequireRole gate routes with JSON 401/403 bodies.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
)

const (
	// SessionName is the portal session cookie name.
	SessionName = "kdmhub-session"

	isAuthKey      = "is_authenticated"
	userIDKey      = "user_id"
	userNameKey    = "user_name"
	userEmailKey   = "user_email"
	userRoleKey    = "user_role"
	userPartnerKey = "user_partner_id"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

// SessionUser is what we cache in the session / encode in the bearer
// token and inject into r.Context().
type SessionUser struct {
	ID        string
	Name      string
	Email     string
	Role      string
	PartnerID string // set for partner-role users only
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadUser injects the user into context if the request carries a valid
// session cookie or bearer token. Session wins when both are present.
// If neither the session store nor the token verifier is configured yet,
// it is a no-op.
func LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := userFromSession(r); u != nil {
			next.ServeHTTP(w, withUser(r, u))
			return
		}
		if u := userFromBearer(r); u != nil {
			next.ServeHTTP(w, withUser(r, u))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFromSession(r *http.Request) *SessionUser {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil
	}
	return &SessionUser{
		ID:        getString(sess, userIDKey),
		Name:      getString(sess, userNameKey),
		Email:     getString(sess, userEmailKey),
		Role:      getString(sess, userRoleKey),
		PartnerID: getString(sess, userPartnerKey),
	}
}

func userFromBearer(r *http.Request) *SessionUser {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	u, err := VerifyToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil
	}
	return u
}

// RequireSignedIn ensures there is a user in context (set by LoadUser).
// API callers get a JSON 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the signed-in user holds one of the allowed roles.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				httpjson.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SignIn writes the user into the portal session cookie.
func SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[userRoleKey] = u.Role
	sess.Values[userPartnerKey] = u.PartnerID
	return sess.Save(r, w)
}

// SignOut clears the portal session cookie.
func SignOut(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// InitSessionStore initializes the global session Store. In production
// (secure=true) cookies are Secure with SameSite=None; in dev, Lax.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))
	return nil
}

// WithTestUser injects a user directly into the request context,
// bypassing session and token verification. For handler tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
