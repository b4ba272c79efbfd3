package testapp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/information-sharing-networks/newsletter/internal/config"
	"github.com/information-sharing-networks/newsletter/internal/database"
	"github.com/information-sharing-networks/newsletter/internal/server"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerHandle is a server running in a detached goroutine.
//
// Errors raised while serving are only logged: the goroutine is not awaited
// by whoever launched it. Stop is provided for cleanup, a server that is never
// stopped lives until the process exits.
type ServerHandle struct {
	addr   net.Addr
	cancel context.CancelFunc
	done   chan struct{}
}

// Launch builds the server around pool and starts serving on listener.
// Construction errors are returned before anything is started; the listener is
// closed in that case. Launch does not wait for the server to exit.
// A nil logger means slog.Default().
func Launch(listener net.Listener, pool *pgxpool.Pool, cfg *config.ServerEnvironment, logger *slog.Logger) (*ServerHandle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := server.NewServer(pool, database.New(pool), cfg, logger)
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &ServerHandle{
		addr:   listener.Addr(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		if err := srv.Serve(ctx, listener); err != nil {
			logger.Error("server stopped with error", slog.String("error", err.Error()))
		}
	}()

	return h, nil
}

// Addr is the address the server is listening on.
func (h *ServerHandle) Addr() net.Addr {
	return h.addr
}

// Done is closed when the server goroutine has exited.
func (h *ServerHandle) Done() <-chan struct{} {
	return h.done
}

// Stop asks the server to shut down and waits up to timeout for it to exit.
// It reports whether the server exited in time.
func (h *ServerHandle) Stop(timeout time.Duration) bool {
	h.cancel()

	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
