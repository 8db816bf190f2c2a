package worker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// HTTPServer serves Handler on Addr until the context is cancelled.
type HTTPServer struct {
	Addr    string
	Handler http.Handler
}

func (w *HTTPServer) Start(ctx context.Context) error {
	srv := &http.Server{Addr: w.Addr, Handler: w.Handler, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		slog.Info("http server: listening", "addr", w.Addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("http server: stopped", "addr", w.Addr)
	return nil
}
