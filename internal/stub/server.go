package stub

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
)

// NewEcho builds the stub's echo instance with the given handler mounted.
func NewEcho(h *Handler, accessLog bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if accessLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("concrnt-loadtest-stub"))
	h.RegisterRoutes(e)
	return e
}

// Serve runs the stub on addr until ctx is done.
func Serve(ctx context.Context, addr string, h *Handler, logger *zap.Logger) error {
	e := NewEcho(h, true)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("stub target listening", zap.String("addr", addr))
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// Seed puts n messages authored by author onto timelineID so actors have something to react to.
func Seed(store *Store, author, timelineID string, n int) {
	for i := 0; i < n; i++ {
		store.PutMessage(author, `{"type":"message"}`, []string{timelineID})
	}
}
