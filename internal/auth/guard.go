package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	CookieName = "sid"

	// LoginPath is where unauthenticated callers of protected routes are sent.
	LoginPath = "/login.html"
)

var (
	// ErrInvalidCredentials is returned by Authenticate on a username or
	// password mismatch.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrSession matches failures of the session store while logging in or out.
	ErrSession = errors.New("session store error")
)

type sessionError struct {
	op  string
	err error
}

func (e *sessionError) Error() string { return "session " + e.op + ": " + e.err.Error() }

func (e *sessionError) Unwrap() error { return e.err }

func (e *sessionError) Is(target error) bool { return target == ErrSession }

type GuardConfig struct {
	Username     string
	Password     string
	Secret       []byte
	TTL          time.Duration
	SecureCookie bool
}

// Guard ties the session cookie to the session store and checks the single
// configured login.
type Guard struct {
	store Store
	cfg   GuardConfig
	now   func() time.Time
}

func NewGuard(store Store, cfg GuardConfig) *Guard {
	return &Guard{store: store, cfg: cfg, now: time.Now}
}

// Authenticate checks the credentials and, on a match, starts an
// authenticated session and sets its cookie on w. The comparison is a plain
// string comparison against the configured values.
func (g *Guard) Authenticate(ctx context.Context, w http.ResponseWriter, username, password string) (*Session, error) {
	if username != g.cfg.Username || password != g.cfg.Password {
		return nil, ErrInvalidCredentials
	}

	issuedAt := g.now()
	s := &Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		ExpiresAt:     issuedAt.Add(g.cfg.TTL),
	}
	token, err := SignSessionID(s.ID, g.cfg.Secret, issuedAt, s.ExpiresAt)
	if err != nil {
		return nil, &sessionError{op: "sign", err: err}
	}
	if err := g.store.Save(ctx, s); err != nil {
		return nil, &sessionError{op: "save", err: err}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   g.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Destroy ends the caller's session and clears the cookie. Calling it without
// a session is not an error.
func (g *Guard) Destroy(w http.ResponseWriter, r *http.Request) error {
	if id, ok := g.sessionID(r); ok {
		if err := g.store.Delete(r.Context(), id); err != nil {
			return &sessionError{op: "destroy", err: err}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Authenticated reports whether the request carries a live authenticated
// session.
func (g *Guard) Authenticated(r *http.Request) bool {
	id, ok := g.sessionID(r)
	if !ok {
		return false
	}
	s, err := g.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			log.Ctx(r.Context()).Error().Err(err).Msg("session lookup failed")
		}
		return false
	}
	return s.Authenticated
}

// Require redirects callers without an authenticated session to the login
// page before next runs.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Authenticated(r) {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, err := ParseSessionID(c.Value, g.cfg.Secret)
	if err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("ignoring session cookie")
		return "", false
	}
	return id, true
}
