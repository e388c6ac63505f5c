// Package compressor runs one Ghostscript compression per call and reports
// the outcome as a tagged Result.
package compressor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/toricodesthings/pdf-compression-service/internal/engine"
	"github.com/toricodesthings/pdf-compression-service/internal/format"
	"github.com/toricodesthings/pdf-compression-service/internal/quality"
)

const (
	DefaultTimeout = 2 * time.Minute

	compatibilityLevel = "1.4"
	maxDiagnosticBytes = 4 << 10
)

type Options struct {
	// Timeout bounds one engine run. Zero means DefaultTimeout.
	Timeout time.Duration
	// PresetOnly drops the per-tier resolution and filter flags and relies on
	// -dPDFSETTINGS alone.
	PresetOnly bool
	Logger     *slog.Logger
}

// Compressor is safe for concurrent use as long as each call gets its own
// input and output paths.
type Compressor struct {
	engine     engine.Handle
	timeout    time.Duration
	presetOnly bool
	logger     *slog.Logger
}

// New fails with engine.ErrNotFound when h does not name an executable.
func New(h engine.Handle, opts Options) (*Compressor, error) {
	if strings.TrimSpace(h.Path) == "" {
		return nil, engine.ErrNotFound
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Compressor{
		engine:     h,
		timeout:    opts.Timeout,
		presetOnly: opts.PresetOnly,
		logger:     opts.Logger,
	}, nil
}

func (c *Compressor) Engine() engine.Handle  { return c.engine }
func (c *Compressor) Timeout() time.Duration { return c.timeout }
func (c *Compressor) PresetOnly() bool       { return c.presetOnly }

// Args builds the engine command line, without the executable itself. The
// input path is always the last argument.
func (c *Compressor) Args(tier quality.Tier, inputPath, outputPath string) []string {
	p, _ := tier.Preset()

	args := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=" + compatibilityLevel,
		"-dPDFSETTINGS=" + p.PDFSettings,
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dSAFER",
	}

	if !c.presetOnly {
		res := strconv.Itoa(p.Resolution)
		for _, kind := range []string{"Color", "Gray", "Mono"} {
			args = append(args,
				"-dDownsample"+kind+"Images=true",
				"-d"+kind+"ImageDownsampleType="+p.DownsampleType,
				"-d"+kind+"ImageResolution="+res,
			)
		}
		// mono images keep the preset's CCITT/bitmap encoding
		for _, kind := range []string{"Color", "Gray"} {
			args = append(args,
				"-dAutoFilter"+kind+"Images=false",
				"-d"+kind+"ImageFilter="+p.ImageFilter,
			)
		}
	}

	return append(args, "-sOutputFile="+outputPath, inputPath)
}

// Compress validates req, runs the engine and verifies its output. The
// output path is only usable when the returned Result has Success set.
func (c *Compressor) Compress(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("compression panicked", "panic", r, "input", req.InputPath)
			c.removeOutput(req.OutputPath)
			res = failure(KindUnexpected, fmt.Sprintf("Unexpected error: %v", r))
		}
	}()

	// 1) validate
	tier, err := quality.Parse(req.Quality)
	if err != nil {
		return failure(KindInvalidInput, err.Error())
	}

	in, err := os.Stat(req.InputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return failure(KindInvalidInput, "Input file not found: "+req.InputPath)
		}
		return failure(KindUnexpected, "Unexpected error: "+err.Error())
	}
	if !in.Mode().IsRegular() {
		return failure(KindInvalidInput, "Input path is not a regular file: "+req.InputPath)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return failure(KindInvalidInput, "Output path required")
	}

	// 2) prepare
	if dir := filepath.Dir(req.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return failure(KindUnexpected, fmt.Sprintf("Unexpected error: create output dir: %v", err))
		}
	}

	// 3) invoke
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := c.Args(tier, req.InputPath, req.OutputPath)
	cmd := exec.CommandContext(runCtx, c.engine.Path, args...)
	cmd.WaitDelay = 5 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logger.Debug("invoking ghostscript", "engine", c.engine.Path, "quality", tier, "args", args)
	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)
	diag := diagnostic(stderr.Bytes())

	// 4) verify
	switch {
	case runErr == nil:
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		c.removeOutput(req.OutputPath)
		limit := c.timeout
		if ctx.Err() != nil {
			// the caller's deadline fired before ours
			limit = elapsed.Round(time.Millisecond)
		}
		c.logger.Warn("ghostscript timed out", "input", req.InputPath, "timeout", limit)
		r := failure(KindTimeout, fmt.Sprintf("Compression timed out after %s", limit))
		r.Diagnostic = diag
		return r
	case ctx.Err() != nil:
		c.removeOutput(req.OutputPath)
		return failure(KindUnexpected, "Unexpected error: compression cancelled: "+ctx.Err().Error())
	default:
		c.removeOutput(req.OutputPath)
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return failure(KindUnexpected, "Unexpected error: "+runErr.Error())
		}
		c.logger.Warn("ghostscript failed", "input", req.InputPath, "exit_code", exitErr.ExitCode(), "stderr", diag)
		return engineFailure(diag, fmt.Sprintf("Ghostscript exited with status %d", exitErr.ExitCode()))
	}

	out, err := os.Stat(req.OutputPath)
	if err != nil {
		c.removeOutput(req.OutputPath)
		return engineFailure(diag, "Compression failed: Output file not created")
	}
	if out.Size() == 0 {
		c.removeOutput(req.OutputPath)
		return engineFailure(diag, "Compression failed: Output file is empty")
	}

	// 5) report
	ratio := Ratio(in.Size(), out.Size())
	c.logger.Info("compression finished",
		"quality", tier,
		"original_bytes", in.Size(),
		"compressed_bytes", out.Size(),
		"ratio", ratio,
		"duration", elapsed,
	)

	return Result{
		Success:        true,
		Kind:           KindOK,
		Message:        format.Summary(in.Size(), out.Size(), ratio),
		Diagnostic:     diag,
		OriginalSize:   in.Size(),
		CompressedSize: out.Size(),
		Ratio:          ratio,
	}
}

func engineFailure(diag, fallback string) Result {
	r := failure(KindEngineFailure, fallback)
	if diag != "" {
		r.Message = "Ghostscript error: " + diag
		r.Diagnostic = diag
	}
	return r
}

func diagnostic(b []byte) string {
	return format.Truncate(strings.TrimSpace(string(b)), maxDiagnosticBytes)
}

func (c *Compressor) removeOutput(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("failed to remove output", "path", path, "error", err)
	}
}
