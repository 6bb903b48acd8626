package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Config configures the listener.
type Config struct {
	Addr        string
	TLSCertFile string
	TLSKeyFile  string
	ReadTimeout time.Duration
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	cfg        Config
}

// New creates a new HTTP server.
func New(cfg Config, handler http.Handler) *Server {
	readHeader := cfg.ReadTimeout
	if readHeader <= 0 || readHeader > 10*time.Second {
		readHeader = 10 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeader,
			ReadTimeout:       cfg.ReadTimeout,
			IdleTimeout:       2 * time.Minute,
		},
		cfg: cfg,
	}
}

// TLSEnabled reports whether a certificate is configured.
func (s *Server) TLSEnabled() bool {
	return s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != ""
}

// Listen binds the configured address.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.cfg.Addr)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	if s.TLSEnabled() {
		err = s.httpServer.ServeTLS(ln, s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
