// Package engine locates a usable Ghostscript executable on the host.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var ErrNotFound = errors.New("ghostscript not found, please install Ghostscript")

// DefaultCandidates are the command names tried when probing PATH, in
// priority order.
var DefaultCandidates = []string{"gs", "gswin64c", "gswin32c", "gsc"}

const DefaultProbeTimeout = 5 * time.Second

// Handle identifies the resolved executable. It is the first argument of every
// engine invocation and is never modified after Locate returns.
type Handle struct {
	Path    string `json:"path"`
	Source  string `json:"source"` // "configured", "bundled" or the candidate name
	Version string `json:"version,omitempty"`
}

type Options struct {
	// Explicit is tried before any candidate. Empty skips it.
	Explicit     string
	Candidates   []string
	Fallback     string
	ProbeTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Candidates == nil {
		o.Candidates = DefaultCandidates
	}
	if o.Fallback == "" {
		o.Fallback = BundledPath()
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
	return o
}

// BundledPath is where a Ghostscript distribution shipped next to the binary
// is expected: <exe dir>/../gs10.05.1/bin/gs (gswin64c.exe on Windows).
func BundledPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	name := "gs"
	if runtime.GOOS == "windows" {
		name = "gswin64c.exe"
	}
	return filepath.Clean(filepath.Join(filepath.Dir(exe), "..", "gs10.05.1", "bin", name))
}

// Locate returns the first candidate that runs "--version" and exits 0 within
// the probe timeout. If none does, the fallback path is accepted when it is an
// existing regular file. Otherwise ErrNotFound is returned.
func Locate(ctx context.Context, opts Options) (Handle, error) {
	opts = opts.withDefaults()

	var tried []string
	if opts.Explicit != "" {
		if v, err := Probe(ctx, opts.Explicit, opts.ProbeTimeout); err == nil {
			return Handle{Path: opts.Explicit, Source: "configured", Version: v}, nil
		}
		tried = append(tried, opts.Explicit)
	}

	for _, name := range opts.Candidates {
		path, err := exec.LookPath(name)
		if err != nil {
			tried = append(tried, name)
			continue
		}
		v, err := Probe(ctx, path, opts.ProbeTimeout)
		if err != nil {
			tried = append(tried, name)
			continue
		}
		return Handle{Path: path, Source: name, Version: v}, nil
	}

	if opts.Fallback != "" {
		if st, err := os.Stat(opts.Fallback); err == nil && st.Mode().IsRegular() {
			h := Handle{Path: opts.Fallback, Source: "bundled"}
			// version is informational only for the bundled copy
			h.Version, _ = Probe(ctx, opts.Fallback, opts.ProbeTimeout)
			return h, nil
		}
		tried = append(tried, opts.Fallback)
	}

	return Handle{}, fmt.Errorf("%w (tried %s)", ErrNotFound, strings.Join(tried, ", "))
}

// Probe runs path --version under timeout and returns the trimmed stdout.
// It never touches the filesystem beyond executing path.
func Probe(ctx context.Context, path string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.WaitDelay = time.Second
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("probe %s: %w", path, ctx.Err())
		}
		return "", fmt.Errorf("probe %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}
