package respserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/braddunbar/bradis/internal/storage"
	"github.com/braddunbar/bradis/pkg/cmap"
)

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the address for the plaintext port.
	Addr string
	// TLSEnabled enables an additional TLS port.
	TLSEnabled bool
	// TLSAddr is the address for the TLS port.
	TLSAddr string
	// TLSConfig is required if TLSEnabled is set.
	TLSConfig *tls.Config
	// ReadTimeout bounds reading a command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply batch.
	WriteTimeout time.Duration
	// IdleTimeout bounds the gap between commands.
	IdleTimeout time.Duration
	// RateLimit is the maximum commands per second per IP; 0 disables.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// Server accepts connections and wires them to the store.
type Server struct {
	cfg    *Config
	store  *storage.Store
	logger *slog.Logger

	nextID  atomic.Uint64
	conns   *cmap.Map[*conn]
	plainLn net.Listener
	tlsLn   net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

// New creates a server for the given store.
func New(cfg *Config, store *storage.Store, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		conns:    cmap.New[*conn](),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Start begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	s.running.Store(true)

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.plainLn = ln
	s.logger.Info("listening", "addr", s.cfg.Addr)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("accept loop error", "error", err)
		}
	}()

	if s.cfg.TLSEnabled {
		if s.cfg.TLSConfig == nil {
			return errors.New("respserver: TLS enabled without TLS config")
		}
		tlsLn, err := tls.Listen("tcp", s.cfg.TLSAddr, s.cfg.TLSConfig)
		if err != nil {
			return err
		}
		s.tlsLn = tlsLn
		s.logger.Info("listening", "addr", s.cfg.TLSAddr, "tls", true)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.acceptLoop(ctx, tlsLn); err != nil && s.running.Load() {
				s.logger.Error("tls accept loop error", "error", err)
			}
		}()
	}

	return nil
}

// Addr returns the bound plaintext address, useful when Addr was ":0".
func (s *Server) Addr() net.Addr {
	if s.plainLn == nil {
		return nil
	}
	return s.plainLn.Addr()
}

// Shutdown closes the listeners and every live connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.plainLn != nil {
		if err := s.plainLn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.tlsLn != nil {
		if err := s.tlsLn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.conns.Range(func(_ uint64, c *conn) bool {
		c.close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		netConn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		c := s.newConn(netConn)
		s.conns.Set(c.id, c)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve()
			s.conns.Delete(c.id)
		}()
	}
}

// allow applies the per-IP command rate limit.
func (s *Server) allow(ip string) bool {
	if s.cfg.RateLimit <= 0 {
		return true
	}
	s.limiterMu.Lock()
	lim, ok := s.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateLimit)
		s.limiters[ip] = lim
	}
	s.limiterMu.Unlock()
	return lim.Allow()
}
