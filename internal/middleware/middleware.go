package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const (
	SessionName = "____sb"
	LoginPath   = "/ac/login/"

	AccountTypeJobSeeker = 1
	AccountTypeEmployer  = 2

	sessionTTL = 14 * 24 * time.Hour
)

func HTTPSMiddleware(next http.Handler, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env != "dev" && r.Header.Get("X-Forwarded-Proto") != "https" {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func LoggingMiddleware(next http.Handler) http.Handler {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info().
			Str("Host", r.Host).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Str("x-forwarded-for", r.Header.Get("x-forwarded-for")).
			Msg("req")
		next.ServeHTTP(w, r)
	})
}

func HeadersMiddleware(next http.Handler, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env != "dev" {
			w.Header().Set("Content-Security-Policy", "upgrade-insecure-requests")
			w.Header().Set("X-Frame-Options", "deny")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Referrer-Policy", "origin")
		}
		next.ServeHTTP(w, r)
	})
}

// UserJWT is the signed identity kept in the session cookie.
type UserJWT struct {
	AccountID   string `json:"account_id"`
	UID         string `json:"uid"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	AccountType int    `json:"account_type"`
	EmployerID  int    `json:"employer_id,omitempty"`
	jwt.StandardClaims
}

func (u *UserJWT) IsJobSeeker() bool {
	return u != nil && u.AccountType == AccountTypeJobSeeker
}

func (u *UserJWT) IsEmployer() bool {
	return u != nil && u.AccountType == AccountTypeEmployer
}

// SignIn stores a signed UserJWT in the session.
func SignIn(w http.ResponseWriter, r *http.Request, sessionStore sessions.Store, jwtKey []byte, user UserJWT) error {
	now := time.Now()
	user.StandardClaims = jwt.StandardClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(sessionTTL).Unix(),
	}
	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, user).SignedString(jwtKey)
	if err != nil {
		return err
	}
	sess, err := sessionStore.Get(r, SessionName)
	if err != nil {
		return err
	}
	sess.Values["jwt"] = tk
	return sess.Save(r, w)
}

// SignOut drops the identity but keeps pending flash messages.
func SignOut(w http.ResponseWriter, r *http.Request, sessionStore sessions.Store) error {
	sess, err := sessionStore.Get(r, SessionName)
	if err != nil {
		return err
	}
	for k := range sess.Values {
		if k != "_flash" {
			delete(sess.Values, k)
		}
	}
	return sess.Save(r, w)
}

func GetUserFromJWT(r *http.Request, sessionStore sessions.Store, jwtKey []byte) (*UserJWT, error) {
	sess, err := sessionStore.Get(r, SessionName)
	if err != nil {
		return nil, errors.New("could not find cookie")
	}
	tk, ok := sess.Values["jwt"].(string)
	if !ok {
		return nil, errors.New("could not find jwt in session")
	}
	token, err := jwt.ParseWithClaims(tk, &UserJWT{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("token is expired or invalid")
	}
	claims, ok := token.Claims.(*UserJWT)
	if !ok || claims.AccountID == "" {
		return nil, errors.New("could not convert jwt claims to UserJWT")
	}
	return claims, nil
}

func IsSignedOn(r *http.Request, sessionStore sessions.Store, jwtKey []byte) bool {
	_, err := GetUserFromJWT(r, sessionStore, jwtKey)
	return err == nil
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

func UserAuthenticatedMiddleware(sessionStore sessions.Store, jwtKey []byte, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsSignedOn(r, sessionStore, jwtKey) {
			redirectToLogin(w, r)
			return
		}
		next(w, r)
	})
}

func EmployerAuthenticatedMiddleware(sessionStore sessions.Store, jwtKey []byte, next http.HandlerFunc) http.HandlerFunc {
	return roleMiddleware(sessionStore, jwtKey, AccountTypeEmployer, next)
}

func JobSeekerAuthenticatedMiddleware(sessionStore sessions.Store, jwtKey []byte, next http.HandlerFunc) http.HandlerFunc {
	return roleMiddleware(sessionStore, jwtKey, AccountTypeJobSeeker, next)
}

func roleMiddleware(sessionStore sessions.Store, jwtKey []byte, accountType int, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := GetUserFromJWT(r, sessionStore, jwtKey)
		if err != nil {
			redirectToLogin(w, r)
			return
		}
		if user.AccountType != accountType {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// SafeRedirectTarget keeps post login redirects on this site.
func SafeRedirectTarget(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
