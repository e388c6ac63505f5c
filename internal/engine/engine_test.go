package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\nPATH=/usr/bin:/bin\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a POSIX shell")
	}
}

func TestLocate_FirstLiveCandidateWins(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "fake-broken", "exit 1")
	writeScript(t, dir, "fake-good", "echo 10.05.1")
	writeScript(t, dir, "fake-later", "echo 9.99")
	t.Setenv("PATH", dir)

	h, err := Locate(context.Background(), Options{
		Candidates: []string{"fake-missing", "fake-broken", "fake-good", "fake-later"},
		Fallback:   filepath.Join(dir, "does-not-exist"),
	})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if h.Source != "fake-good" {
		t.Errorf("Source = %q, want fake-good", h.Source)
	}
	if h.Path != filepath.Join(dir, "fake-good") {
		t.Errorf("Path = %q", h.Path)
	}
	if h.Version != "10.05.1" {
		t.Errorf("Version = %q, want 10.05.1", h.Version)
	}
}

func TestLocate_ExplicitPathFirst(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	explicit := writeScript(t, dir, "my-gs", "echo 10.02.0")
	writeScript(t, dir, "fake-good", "echo 10.05.1")
	t.Setenv("PATH", dir)

	h, err := Locate(context.Background(), Options{
		Explicit:   explicit,
		Candidates: []string{"fake-good"},
	})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if h.Source != "configured" || h.Path != explicit {
		t.Errorf("got %+v, want configured %s", h, explicit)
	}
}

func TestLocate_BrokenExplicitFallsThrough(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	explicit := writeScript(t, dir, "my-gs", "exit 3")
	writeScript(t, dir, "fake-good", "echo 10.05.1")
	t.Setenv("PATH", dir)

	h, err := Locate(context.Background(), Options{
		Explicit:   explicit,
		Candidates: []string{"fake-good"},
	})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if h.Source != "fake-good" {
		t.Errorf("Source = %q, want fake-good", h.Source)
	}
}

func TestLocate_ProbeTimeoutRejectsCandidate(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "fake-slow", "exec sleep 5")
	writeScript(t, dir, "fake-good", "echo ok")
	t.Setenv("PATH", dir)

	start := time.Now()
	h, err := Locate(context.Background(), Options{
		Candidates:   []string{"fake-slow", "fake-good"},
		ProbeTimeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if h.Source != "fake-good" {
		t.Errorf("Source = %q, want fake-good", h.Source)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("probe was not bounded, took %s", elapsed)
	}
}

func TestLocate_BundledFallback(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	bundled := writeScript(t, dir, "bundled-gs", "echo 10.05.1")
	t.Setenv("PATH", t.TempDir())

	h, err := Locate(context.Background(), Options{
		Candidates: []string{"gs"},
		Fallback:   bundled,
	})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if h.Source != "bundled" || h.Path != bundled {
		t.Errorf("got %+v, want bundled %s", h, bundled)
	}
}

func TestLocate_NotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := Locate(context.Background(), Options{
		Candidates: []string{"definitely-not-ghostscript"},
		Fallback:   filepath.Join(t.TempDir(), "missing"),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocate_FallbackDirectoryIsNotAccepted(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := Locate(context.Background(), Options{
		Candidates: []string{},
		Fallback:   t.TempDir(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
