package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"catalog-share/internal/metrics"
	"catalog-share/internal/share"
)

// SharePath is where the share API is mounted.
const SharePath = "/api/v1/share"

const defaultMaxBytes = 200 << 10

// Config captures server configuration.
type Config struct {
	// Shares serves the share API. When nil the API is not mounted.
	Shares *share.Router
	// MaxBytes bounds the body of a new share.
	MaxBytes int64
	// TrustProxy honours X-Forwarded-* headers.
	TrustProxy bool
	// BaseURL, when set, is used for share URLs instead of the request.
	BaseURL string
	// Port is the listen port, used in share URLs when the request names
	// none.
	Port          int
	DrainDuration time.Duration
	Logger        *slog.Logger
}

// Server wraps HTTP handling logic.
type Server struct {
	shares     *share.Router
	router     chi.Router
	maxBytes   int64
	trustProxy bool
	baseURL    *url.URL
	port       int
	drain      time.Duration
	logger     *slog.Logger
	isReady    atomic.Bool
}

// New constructs a new Server instance.
func New(cfg Config) (*Server, error) {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}

	var parsedBase *url.URL
	if cfg.BaseURL != "" {
		var err error
		parsedBase, err = url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		if parsedBase.Scheme == "" || parsedBase.Host == "" {
			return nil, errors.New("base url must include scheme and host")
		}
		parsedBase.Path = strings.TrimSuffix(parsedBase.Path, "/")
	}

	srv := &Server{
		shares:     cfg.Shares,
		router:     chi.NewRouter(),
		maxBytes:   cfg.MaxBytes,
		trustProxy: cfg.TrustProxy,
		baseURL:    parsedBase,
		port:       cfg.Port,
		drain:      cfg.DrainDuration,
		logger:     cfg.Logger,
	}
	srv.isReady.Store(true)
	srv.routes()
	return srv, nil
}

// Handler returns the underlying router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(s.logRequests)

	if s.shares != nil {
		r.Route(SharePath, func(sr chi.Router) {
			sr.Post("/", s.handleCreate)
			sr.Get("/{id}", s.handleResolve)
			sr.Get("/{id}/qr", s.handleQR)
		})
	} else {
		s.logger.Info("no share prefixes configured, share API disabled")
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/livez", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)
	r.Get("/drain", s.handleDrain)
	r.Get("/undrain", s.handleUndrain)
	r.Handle("/metrics", metrics.Handler())
}

func (s *Server) isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if s.trustProxy {
		proto := strings.ToLower(firstHeaderValue(r, "X-Forwarded-Proto"))
		if proto == "https" {
			return true
		}
	}
	return false
}

// shareURL builds the absolute URL of path. A configured base URL wins;
// otherwise scheme, host and port come from the request, with forwarded
// headers taking precedence when the proxy is trusted.
func (s *Server) shareURL(r *http.Request, path string) string {
	if s.baseURL != nil {
		u := *s.baseURL
		u.Path = u.Path + path
		return u.String()
	}

	scheme := "http"
	if s.isSecureRequest(r) {
		scheme = "https"
	}

	host := r.Host
	if s.trustProxy {
		if fh := firstHeaderValue(r, "X-Forwarded-Host"); fh != "" {
			host = fh
		}
	}
	hostname, port := splitHostPort(host)
	if hostname == "" {
		hostname = "localhost"
	}
	if s.trustProxy {
		if fp := firstHeaderValue(r, "X-Forwarded-Port"); fp != "" {
			port = fp
		}
	}
	if port == "" && s.port != 0 {
		port = strconv.Itoa(s.port)
	}

	hostport := hostname
	if strings.Contains(hostname, ":") {
		hostport = "[" + hostname + "]"
	}
	if port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		hostport = net.JoinHostPort(hostname, port)
	}
	return scheme + "://" + hostport + path
}

func splitHostPort(host string) (string, string) {
	if h, p, err := net.SplitHostPort(host); err == nil {
		return h, p
	}
	return strings.Trim(host, "[]"), ""
}

func firstHeaderValue(r *http.Request, name string) string {
	v := r.Header.Get(name)
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
