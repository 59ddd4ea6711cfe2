// Package mock serves a fake handler over a real HTTP listener.
package mock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/journal"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// ShutdownTimeout bounds graceful shutdown in StartWithContext.
const ShutdownTimeout = 5 * time.Second

var errNilResponse = errors.New("handler returned no response")

// Server exposes a fake.Handler on a TCP port
type Server struct {
	handler  fake.Handler
	port     int
	delay    time.Duration
	verbose  bool
	metadata map[string]any
	journal  *journal.Journal
	logger   *zap.Logger
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithVerbose logs every request at Info instead of Debug
func WithVerbose(verbose bool) Option {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// WithMetadata seeds the environment of every inbound request
func WithMetadata(metadata map[string]any) Option {
	return func(s *Server) {
		s.metadata = metadata
	}
}

// WithJournal records every served request
func WithJournal(j *journal.Journal) Option {
	return func(s *Server) {
		s.journal = j
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server dispatching to h
func NewServer(h fake.Handler, opts ...Option) *Server {
	s := &Server{
		handler: h,
		port:    3000,
		logger:  fake.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return ":" + strconv.Itoa(s.port)
}

// Handler returns the net/http side of the server.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleRequest)
}

// Start serves until the listener fails.
func (s *Server) Start() error {
	return s.StartWithContext(context.Background())
}

// StartWithContext serves until ctx is done, then shuts down gracefully.
func (s *Server) StartWithContext(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("mock server shutdown failed", zap.Error(err))
		}
	}()

	s.logger.Info("mock server starting", zap.String("addr", ln.Addr().String()))
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	status, err := s.serve(w, r)
	duration := time.Since(start)

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if s.verbose {
		s.logger.Info("served", fields...)
	} else {
		s.logger.Debug("served", fields...)
	}

	if s.journal != nil {
		entry := journal.Entry{
			Method:   r.Method,
			URL:      r.URL.String(),
			Status:   status,
			Duration: duration,
		}
		if err != nil {
			entry.Error = err.Error()
		}
		if _, jerr := s.journal.Record(entry); jerr != nil {
			s.logger.Warn("failed to record journal entry", zap.Error(jerr))
		}
	}
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) (int, error) {
	sr, err := message.NewServerRequest(r, s.metadata)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return http.StatusBadRequest, err
	}

	if s.handler == nil {
		http.Error(w, fake.ErrNoHandler.Error(), http.StatusBadGateway)
		return http.StatusBadGateway, fake.ErrNoHandler
	}
	resp, err := s.handler.Handle(sr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return http.StatusBadGateway, err
	}
	if resp == nil {
		http.Error(w, errNilResponse.Error(), http.StatusBadGateway)
		return http.StatusBadGateway, errNilResponse
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != nil && r.Method != http.MethodHead {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return status, fmt.Errorf("failed to write response body: %w", err)
		}
	}
	return status, nil
}
