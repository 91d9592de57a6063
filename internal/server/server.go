package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/getsentry/raven-go"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/sebez/jobboard/internal/config"
	"github.com/sebez/jobboard/internal/email"
	"github.com/sebez/jobboard/internal/middleware"
	"github.com/sebez/jobboard/internal/template"
)

const (
	CacheKeyLanding = "landing"

	cacheLifeWindow = 10 * time.Minute
)

type Server struct {
	cfg          config.Config
	Conn         *sql.DB
	router       *mux.Router
	tmpl         *template.Template
	emailClient  email.Client
	SessionStore *sessions.CookieStore
	bigCache     *bigcache.BigCache
	logger       zerolog.Logger
}

func NewServer(
	cfg config.Config,
	conn *sql.DB,
	r *mux.Router,
	t *template.Template,
	emailClient email.Client,
	sessionStore *sessions.CookieStore,
) (Server, error) {
	if cfg.SentryDSN != "" {
		if err := raven.SetDSN(cfg.SentryDSN); err != nil {
			return Server{}, fmt.Errorf("unable to configure sentry: %w", err)
		}
	}
	bigCache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(cacheLifeWindow))
	if err != nil {
		return Server{}, fmt.Errorf("unable to create cache: %w", err)
	}
	return Server{
		cfg:          cfg,
		Conn:         conn,
		router:       r,
		tmpl:         t,
		emailClient:  emailClient,
		SessionStore: sessionStore,
		bigCache:     bigCache,
		logger:       zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}, nil
}

func (s Server) RegisterRoute(path string, handler func(w http.ResponseWriter, r *http.Request), methods []string) {
	s.router.HandleFunc(path, handler).Methods(methods...)
}

func (s Server) RegisterPathPrefix(path string, handler http.Handler, methods []string) {
	s.router.PathPrefix(path).Handler(handler).Methods(methods...)
}

func (s Server) NotFound(handler http.HandlerFunc) {
	s.router.NotFoundHandler = handler
}

func (s Server) GetConfig() config.Config {
	return s.cfg
}

func (s Server) GetEmail() email.Client {
	return s.emailClient
}

func (s Server) GetJWTSigningKey() []byte {
	return s.cfg.JwtSigningKey
}

// CurrentUser returns the signed in user, or nil for anonymous requests.
func (s Server) CurrentUser(r *http.Request) *middleware.UserJWT {
	user, err := middleware.GetUserFromJWT(r, s.SessionStore, s.cfg.JwtSigningKey)
	if err != nil {
		return nil
	}
	return user
}

func (s Server) SignIn(w http.ResponseWriter, r *http.Request, user middleware.UserJWT) error {
	return middleware.SignIn(w, r, s.SessionStore, s.cfg.JwtSigningKey, user)
}

func (s Server) SignOut(w http.ResponseWriter, r *http.Request) error {
	return middleware.SignOut(w, r, s.SessionStore)
}

// Flash queues a message for the next rendered page.
func (s Server) Flash(w http.ResponseWriter, r *http.Request, msg string) {
	sess, err := s.SessionStore.Get(r, middleware.SessionName)
	if err != nil {
		s.Log(err, "unable to get session for flash")
		return
	}
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		s.Log(err, "unable to save flash")
	}
}

func (s Server) popFlashes(w http.ResponseWriter, r *http.Request) []string {
	sess, err := s.SessionStore.Get(r, middleware.SessionName)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		s.Log(err, "unable to clear flashes")
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(string); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func (s Server) Render(r *http.Request, w http.ResponseWriter, status int, htmlView string, data map[string]interface{}) error {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["SiteName"] = s.cfg.SiteName
	data["SiteHost"] = s.cfg.SiteHost
	data["SupportEmail"] = s.cfg.SupportEmail
	data["User"] = s.CurrentUser(r)
	data["Messages"] = s.popFlashes(w, r)

	return s.tmpl.Render(w, status, htmlView, data)
}

// RenderError shows the shared error page with the given status.
func (s Server) RenderError(r *http.Request, w http.ResponseWriter, status int) {
	err := s.Render(r, w, status, "error.html", map[string]interface{}{
		"Status":  status,
		"Message": http.StatusText(status),
	})
	if err != nil {
		s.Log(err, "unable to render error page")
	}
}

func (s Server) XML(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	w.Write(data)
}

func (s Server) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (s Server) TEXT(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

// MEDIA serves a private download, so unlike static assets it is never cached.
func (s Server) MEDIA(w http.ResponseWriter, status int, media []byte, mediaType, fileName string) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(status)
	w.Write(media)
}

func (s Server) Log(err error, msg string) {
	if s.cfg.SentryDSN != "" {
		raven.CaptureErrorAndWait(err, map[string]string{"ctx": msg})
	}
	s.logger.Error().Err(err).Msg(msg)
}

func (s Server) Redirect(w http.ResponseWriter, r *http.Request, status int, dst string) {
	http.Redirect(w, r, dst, status)
}

func (s Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	if s.cfg.Env == "dev" {
		s.logger.Info().Msgf("local env http://localhost:%s", s.cfg.Port)
		addr = fmt.Sprintf("localhost:%s", s.cfg.Port)
	}
	srv := &http.Server{
		Addr: addr,
		Handler: middleware.HTTPSMiddleware(
			middleware.GzipMiddleware(
				middleware.LoggingMiddleware(middleware.HeadersMiddleware(s.router, s.cfg.Env)),
			),
			s.cfg.Env,
		),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s Server) CacheGet(key string) ([]byte, bool) {
	out, err := s.bigCache.Get(key)
	if err != nil {
		return []byte{}, false
	}
	return out, true
}

func (s Server) CacheSet(key string, val []byte) error {
	return s.bigCache.Set(key, val)
}

func (s Server) CacheDelete(key string) error {
	err := s.bigCache.Delete(key)
	if err == bigcache.ErrEntryNotFound {
		return nil
	}
	return err
}
