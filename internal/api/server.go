package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"ratingsync/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server serves the lookup API until its context is cancelled.
type Server struct {
	bind    string
	handler http.Handler
	logger  *slog.Logger
}

// NewServer constructs a server bound to addr.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{bind: addr, handler: handler, logger: logging.NewComponentLogger(logger, "api")}
}

// Serve listens on the configured address. ready, when non-nil, receives the
// bound address once the listener is open.
func (s *Server) Serve(ctx context.Context, ready func(net.Addr)) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.bind, err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("lookup api listening", logging.String("addr", listener.Addr().String()))
	if ready != nil {
		ready(listener.Addr())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	s.logger.Info("lookup api stopped")
	return nil
}
