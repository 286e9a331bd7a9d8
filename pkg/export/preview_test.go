package export_test

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/kestrelui/canopy/pkg/export"
)

func TestGracefulShutdownPropagatesStartError(t *testing.T) {
	// Empty bundle, no index.html: starting must fail instead of
	// waiting for a signal forever.
	srv := export.NewPreviewServer(t.TempDir(), 0)

	done := make(chan error, 1)
	go func() { done <- srv.StartWithGracefulShutdown() }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "index.html") {
			t.Errorf("err = %v, want missing index.html", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("start error never surfaced")
	}
}

func TestGracefulShutdownStopsOnSignal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := export.NewPreviewServer(dir, 0)

	done := make(chan error, 1)
	go func() { done <- srv.StartWithGracefulShutdown() }()

	// Give the handler and listener time to come up, then signal
	// ourselves the way ctrl+c would.
	time.Sleep(200 * time.Millisecond)
	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("shutdown returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down on SIGTERM")
	}
}
