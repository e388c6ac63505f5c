package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toricodesthings/pdf-compression-service/internal/compressor"
	"github.com/toricodesthings/pdf-compression-service/internal/config"
	"github.com/toricodesthings/pdf-compression-service/internal/console"
	"github.com/toricodesthings/pdf-compression-service/internal/engine"
	"github.com/toricodesthings/pdf-compression-service/internal/logging"
	"github.com/toricodesthings/pdf-compression-service/internal/quality"
)

// errFailed marks a compression failure that has already been reported.
var errFailed = errors.New("compression failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var (
		output      string
		qualityName string
		interactive bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "pdfcompress [input.pdf]",
		Short: "Compress PDF files using Ghostscript",
		Long: `Compress PDF files using Ghostscript.

Quality options:
  low     - Low quality, smallest file size (72 dpi)
  medium  - Medium quality (150 dpi) [DEFAULT]
  high    - High quality (300 dpi)
  max     - Maximum quality, color preserving (300 dpi)

Without arguments, or with -i, an interactive prompt is started.`,
		Example: `  pdfcompress input.pdf
  pdfcompress input.pdf -o compressed.pdf -q low
  pdfcompress input.pdf --quality high`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !interactive {
				interactive = true
			}
			if !interactive {
				if _, err := quality.Parse(qualityName); err != nil {
					return err
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := "error"
			if verbose {
				level = "debug"
			}
			logger := logging.New(level, cfg.LogFormat, cmd.ErrOrStderr())

			handle, err := engine.Locate(cmd.Context(), engine.Options{
				Explicit:     cfg.GhostscriptPath,
				ProbeTimeout: cfg.ProbeTimeout,
			})
			if err != nil {
				return err
			}
			comp, err := compressor.New(handle, compressor.Options{
				Timeout:    cfg.EngineTimeout,
				PresetOnly: cfg.PresetOnly,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			con := console.New(comp, in, out)
			if interactive {
				return con.Interactive(cmd.Context())
			}
			if !con.Run(cmd.Context(), args[0], output, qualityName) {
				return errFailed
			}
			return nil
		},
	}

	cmd.SetOut(out)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF file path (default: <input>_compressed.pdf)")
	cmd.Flags().StringVarP(&qualityName, "quality", "q", quality.Default.String(), "Compression quality: low, medium, high, max")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run in interactive mode")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log Ghostscript invocations to stderr")
	return cmd
}
