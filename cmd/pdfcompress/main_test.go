package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/toricodesthings/pdf-compression-service/internal/enginetest"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GHOSTSCRIPT_PATH", enginetest.Install(t).Path)

	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_CompressOnce(t *testing.T) {
	dir := t.TempDir()
	input := enginetest.SamplePDF(t, dir, 1000)
	output := filepath.Join(dir, "nested", "small.pdf")

	out, err := runCLI(t, "", input, "-o", output, "-q", "max")
	if err != nil {
		t.Fatalf("Execute: %v\n%s", err, out)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if !strings.Contains(out, "Quality: max") || !strings.Contains(out, "Compression ratio: 60.0%") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCLI_InvalidQuality(t *testing.T) {
	input := enginetest.SamplePDF(t, t.TempDir(), 100)
	_, err := runCLI(t, "", input, "--quality", "ultra")
	if err == nil || !strings.Contains(err.Error(), "low, medium, high, max") {
		t.Fatalf("expected quality error, got %v", err)
	}
}

func TestCLI_FailureExitsNonZero(t *testing.T) {
	t.Setenv("FAKE_GS_MODE", "fail")
	input := enginetest.SamplePDF(t, t.TempDir(), 100)

	out, err := runCLI(t, "", input)
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected errFailed, got %v", err)
	}
	if !strings.Contains(out, "Error: Ghostscript error") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCLI_NoArgsIsInteractive(t *testing.T) {
	out, err := runCLI(t, "quit\n")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "PDF COMPRESSION MENU") || !strings.Contains(out, "Goodbye!") {
		t.Errorf("expected the interactive loop:\n%s", out)
	}
}
