package agora

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/jhchabran/agora/metrics"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"
)

const (
	sessionKey = "agora-session"
)

//go:embed assets/templates/*.html
var templatesFS embed.FS

// A ReportHook is called after a report has been accepted.
type ReportHook func(ctx context.Context, report *ReportEvent) error

// A ReportEvent describes an accepted report.
type ReportEvent struct {
	ClientID    string
	ContentID   int64
	ContentType ContentType
	Reason      string
	ReportedAt  time.Time
}

type ServerConfig struct {
	Addr         string
	ServerSecret string
	CurrentUser  Author
	// SecureCookies should be set when served over https.
	SecureCookies bool
	// MaxConnections caps the simultaneously accepted connections, 0 means no cap.
	MaxConnections int
}

// A Server exposes the interaction state of each client over HTTP. Every client, told
// apart by a session cookie, gets its own namespace in the shared backend.
type Server struct {
	Logger          zerolog.Logger
	config          *ServerConfig
	backend         Backend
	router          *httprouter.Router
	sessionStore    *sessions.CookieStore
	done            chan struct{}
	idleConnsClosed chan struct{}
	reportHooks     []ReportHook
}

// NewServer returns a Server over backend. config is copied, the caller keeps its own.
func NewServer(config *ServerConfig, logger zerolog.Logger, backend Backend) *Server {
	cfg := *config
	if cfg.CurrentUser == (Author{}) {
		cfg.CurrentUser = DefaultAuthor
	}
	config = &cfg

	sessionStore := sessions.NewCookieStore([]byte(config.ServerSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	// the cookie and the codecs must agree on the lifetime of a client id.
	sessionStore.MaxAge(86400 * 365)

	return &Server{
		config:          config,
		backend:         backend,
		router:          httprouter.New(),
		Logger:          logger,
		sessionStore:    sessionStore,
		done:            make(chan struct{}),
		idleConnsClosed: make(chan struct{}),
	}
}

// AddReportHook registers a hook to run on every accepted report.
func (s *Server) AddReportHook(h ReportHook) {
	s.reportHooks = append(s.reportHooks, h)
}

// Prepare parses the templates and declares the routes.
func (s *Server) Prepare() error {
	tmpl, err := template.New("thread.html").Funcs(helpers).ParseFS(templatesFS, "assets/templates/*.html")
	if err != nil {
		return err
	}

	s.router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, MethodNotAllowed(r.Method, r.URL.Path))
	})

	s.router.GET("/healthz", s.HandleHealth())
	s.router.Handler("GET", "/metrics", promhttp.Handler())

	withMiddlewares(func(m middleware) {
		s.router.GET("/threads/:type/:id", m(s.HandleThread(tmpl)))

		s.router.GET("/api/threads/:type/:id/comments", m(s.HandleListComments()))
		s.router.POST("/api/threads/:type/:id/comments", m(s.HandleAddComment()))

		s.router.GET("/api/votes/:type/:id", m(s.HandleGetVote()))
		s.router.POST("/api/votes/:type/:id", m(s.HandleCastVote()))

		s.router.GET("/api/favorites/:type/:id", m(s.HandleGetFavorite()))
		s.router.POST("/api/favorites/:type/:id", m(s.HandleToggleFavorite()))

		s.router.GET("/api/hidden/:type/:id", m(s.HandleGetHidden()))
		s.router.POST("/api/hidden/:type/:id", m(s.HandleToggleHidden()))

		s.router.GET("/api/reports/:type/:id", m(s.HandleGetReport()))
		s.router.POST("/api/reports/:type/:id", m(s.HandleReport()))

		s.router.GET("/api/questions/:id/answers/:answer_id/accepted", m(s.HandleGetAccepted()))
		s.router.POST("/api/questions/:id/answers/:answer_id/accepted", m(s.HandleToggleAccepted()))
	}, s.logRequestMiddleware(), s.loadClientMiddleware())

	return nil
}

func (s *Server) Start() error {
	httpServer := http.Server{Addr: s.config.Addr, Handler: s}

	l, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	if s.config.MaxConnections > 0 {
		l = netutil.LimitListener(l, s.config.MaxConnections)
	}

	errc := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	s.Logger.Info().Str("addr", l.Addr().String()).Int("max_connections", s.config.MaxConnections).Msg("Listening")

	select {
	case err := <-errc:
		return err
	case <-s.done:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	close(s.idleConnsClosed)

	return nil
}

// Stop shuts the server down, waiting for pending requests. It must only be called
// once Start is running.
func (s *Server) Stop() {
	close(s.done)
	<-s.idleConnsClosed
}

func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(res, req)
}

// runReportHooks runs the report hooks, logging failures. A failing hook never fails
// the report itself.
func (s *Server) runReportHooks(ctx context.Context, ev *ReportEvent) {
	for _, h := range s.reportHooks {
		if err := h(ctx, ev); err != nil {
			metrics.ReportHookFailuresTotal.Inc()
			s.Logger.Warn().Err(err).
				Int64("content_id", ev.ContentID).
				Str("content_type", ev.ContentType.String()).
				Msg("Report hook failed")
		}
	}
}
