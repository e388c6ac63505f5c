// Package enginetest provides a fake Ghostscript executable for tests.
//
// The fake understands -sOutputFile= and --version. Its behaviour for a
// compression run is picked by the FAKE_GS_MODE environment variable:
//
//	ok          write FAKE_GS_BYTES (default 400) bytes to the output
//	fail        print a diagnostic, write a partial output, exit 1
//	silentfail  exit 2 without output or diagnostic
//	empty       create a zero-byte output and exit 0
//	none        exit 0 without creating the output
//	slow        write a partial output, then sleep far longer than any test timeout
//
// When FAKE_GS_ARGS is set the received arguments are written there, one per
// line.
package enginetest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/toricodesthings/pdf-compression-service/internal/engine"
)

const script = `#!/bin/sh
PATH=/usr/bin:/bin
if [ "$1" = "--version" ]; then
  echo 10.05.1
  exit 0
fi
out=""
for a in "$@"; do
  case "$a" in
    -sOutputFile=*) out="${a#-sOutputFile=}" ;;
  esac
done
if [ -n "$FAKE_GS_ARGS" ]; then
  printf '%s\n' "$@" > "$FAKE_GS_ARGS"
fi
case "${FAKE_GS_MODE:-ok}" in
  ok)
    head -c "${FAKE_GS_BYTES:-400}" /dev/zero > "$out"
    ;;
  fail)
    echo "partial" > "$out"
    echo "Error: /undefined in --run--" >&2
    exit 1
    ;;
  silentfail)
    exit 2
    ;;
  empty)
    : > "$out"
    ;;
  none)
    ;;
  slow)
    echo "partial" > "$out"
    exec sleep 30
    ;;
esac
exit 0
`

// Install writes the fake into a temp dir and returns a Handle for it. Tests
// are skipped on platforms without a POSIX shell.
func Install(t testing.TB) engine.Handle {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ghostscript requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "gs")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ghostscript: %v", err)
	}
	return engine.Handle{Path: path, Source: "gs", Version: "10.05.1"}
}

// SamplePDF writes a small file carrying a PDF signature and returns its path.
func SamplePDF(t testing.TB, dir string, size int) string {
	t.Helper()
	if size < 8 {
		size = 8
	}
	data := make([]byte, size)
	copy(data, "%PDF-1.4\n")
	for i := len("%PDF-1.4\n"); i < size; i++ {
		data[i] = 'x'
	}
	path := filepath.Join(dir, "sample.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write sample pdf: %v", err)
	}
	return path
}
