package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

// PreviewServer serves an exported snapshot bundle locally with
// no-cache headers, so re-exporting and reloading the browser always
// shows the latest projection.
type PreviewServer struct {
	bundlePath string
	port       int
	server     *http.Server
}

// NewPreviewServer creates a preview server for the directory holding
// an exported index.html.
func NewPreviewServer(bundlePath string, port int) *PreviewServer {
	return &PreviewServer{
		bundlePath: bundlePath,
		port:       port,
	}
}

// Handler returns the server's handler, independent of the listener.
func (p *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", noCache(http.FileServer(http.Dir(p.bundlePath))))
	return mux
}

// Start serves the bundle and blocks until the server stops.
func (p *PreviewServer) Start() error {
	if _, err := os.Stat(filepath.Join(p.bundlePath, "index.html")); err != nil {
		return fmt.Errorf("no index.html in %s: export a snapshot first", p.bundlePath)
	}

	p.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", p.port),
		Handler: p.Handler(),
	}
	fmt.Fprintf(os.Stderr, "preview of %s at %s\n", p.bundlePath, p.URL())
	return p.server.ListenAndServe()
}

// StartWithGracefulShutdown serves the bundle until an interrupt or
// termination signal arrives, then shuts down gracefully. The signal
// handler is installed before the listener opens, so a signal can never
// hit the default handler while the server runs.
func (p *PreviewServer) StartWithGracefulShutdown() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errc := make(chan error, 1)
	go func() {
		if err := p.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-stop:
		return p.Stop()
	case err := <-errc:
		return err
	}
}

// Stop shuts the server down gracefully.
func (p *PreviewServer) Stop() error {
	if p.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.server.Shutdown(ctx)
}

// URL returns the server's local address.
func (p *PreviewServer) URL() string {
	return fmt.Sprintf("http://localhost:%d", p.port)
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
