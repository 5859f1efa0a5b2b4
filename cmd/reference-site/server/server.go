// Package server provides an importable HTTP server that mimics the login
// flow of the reference client site. E2E tests start and stop it
// programmatically instead of depending on the public site.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/thesyncim/logincheck/pkg/login"
)

// Config holds server configuration options.
type Config struct {
	Addr         string            // Listen address (e.g., ":8080" or ":0" for random port)
	ReadTimeout  time.Duration     // HTTP read timeout
	WriteTimeout time.Duration     // HTTP write timeout
	Accounts     map[string]string // username -> password accepted by the login form
	HashKey      []byte            // session cookie HMAC key; random when nil
	BlockKey     []byte            // session cookie encryption key; random when nil
	Logger       *zap.Logger       // default: zap.NewNop()
}

// DefaultConfig returns a configuration suitable for testing.
// Uses ":0" to bind to a random available port and accepts the valid
// records of login.DefaultCatalog().
func DefaultConfig() Config {
	accounts := make(map[string]string)
	for _, r := range login.DefaultCatalog().Valid() {
		accounts[r.Username] = r.Password
	}
	return Config{
		Addr:         ":0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Accounts:     accounts,
	}
}

// Server is an importable HTTP server serving the reference login site.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
	listener   net.Listener
	addr       string
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new server with the given configuration.
// The server is not started until Start() is called.
func NewServer(cfg Config) (*Server, error) {
	if len(cfg.Accounts) == 0 {
		return nil, errors.New("at least one account is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	hashKey, blockKey := cfg.HashKey, cfg.BlockKey
	if hashKey == nil {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	if blockKey == nil {
		blockKey = securecookie.GenerateRandomKey(32)
	}
	if hashKey == nil || blockKey == nil {
		return nil, errors.New("failed to generate session keys")
	}

	h := &handler{
		accounts: cfg.Accounts,
		cookies:  securecookie.New(hashKey, blockKey),
		log:      cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.home)
	mux.HandleFunc(login.LoginPagePath, h.login)
	mux.HandleFunc(login.PortalPath, h.portal)
	mux.HandleFunc("/client/logout", h.logout)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		log:        cfg.Logger,
	}, nil
}

// Start begins listening and serving HTTP requests.
// Returns the actual address the server is listening on (useful when port is 0).
// This method is non-blocking - the server runs in a goroutine.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	// Create listener to get actual port
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = ln
	s.addr = ln.Addr().String()
	s.running = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("reference site stopped", zap.Error(err))
		}
	}()

	return s.addr, nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server is listening on.
// Returns empty string if server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns an http URL for the running server that a browser on the
// same host can open. Wildcard listen addresses are mapped to localhost.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	return "http://localhost:" + port + "/"
}
