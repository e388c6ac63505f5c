// Package console drives the compressor from a terminal: a one-shot run for
// command-line use and a prompt loop for interactive use.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/toricodesthings/pdf-compression-service/internal/compressor"
	"github.com/toricodesthings/pdf-compression-service/internal/engine"
	"github.com/toricodesthings/pdf-compression-service/internal/format"
	"github.com/toricodesthings/pdf-compression-service/internal/quality"
)

const banner = `
+--------------------------------------------------------------+
|                        PDF COMPRESSOR                        |
|                   Using Ghostscript Engine                   |
|                                                              |
|      Compress PDF files with various quality settings        |
+--------------------------------------------------------------+
`

var quitWords = map[string]bool{"quit": true, "exit": true, "q": true}

type Compressor interface {
	Compress(ctx context.Context, req compressor.Request) compressor.Result
	Engine() engine.Handle
}

type Console struct {
	comp Compressor
	in   io.Reader
	out  io.Writer

	startReader sync.Once
	lines       chan string
}

func New(comp Compressor, in io.Reader, out io.Writer) *Console {
	return &Console{comp: comp, in: in, out: out, lines: make(chan string)}
}

// DefaultOutput is <dir>/<stem>_compressed<ext> for the given input.
func DefaultOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_compressed" + ext
}

// Run compresses a single file and reports the outcome. It returns true on
// success.
func (c *Console) Run(ctx context.Context, input, output, q string) bool {
	if output == "" {
		output = DefaultOutput(input)
	}

	fmt.Fprintf(c.out, "Compressing: %s\n", input)
	fmt.Fprintf(c.out, "Output: %s\n", output)
	fmt.Fprintf(c.out, "Quality: %s\n", q)
	fmt.Fprintf(c.out, "Original size: %s\n", c.sizeOf(input))

	return c.compress(ctx, input, output, q)
}

// Interactive prompts for files until the user quits or input ends.
func (c *Console) Interactive(ctx context.Context) error {
	fmt.Fprint(c.out, banner)
	fmt.Fprintf(c.out, "Ghostscript found: %s\n", c.comp.Engine().Path)

	for {
		if err := ctx.Err(); err != nil {
			return c.cancelled(err)
		}

		fmt.Fprintln(c.out, "\n"+strings.Repeat("=", 60))
		fmt.Fprintln(c.out, "PDF COMPRESSION MENU")
		fmt.Fprintln(c.out, strings.Repeat("=", 60))

		input, err := c.prompt(ctx, "Enter path to PDF file (or 'quit' to exit)", "")
		if err != nil {
			return c.endOfInput(err)
		}
		if quitWords[strings.ToLower(input)] {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}

		input = strings.Trim(input, `"'`)
		if _, err := os.Stat(input); err != nil {
			fmt.Fprintf(c.out, "Error: File not found - %s\n", input)
			continue
		}
		if !strings.HasSuffix(strings.ToLower(input), ".pdf") {
			fmt.Fprintln(c.out, "Error: Please provide a PDF file")
			continue
		}
		output := DefaultOutput(input)

		c.showQualityOptions()
		choice, err := c.prompt(ctx, "Choose quality (1-4 or name)", "2")
		if err != nil {
			return c.endOfInput(err)
		}
		tier := quality.FromMenu(choice)

		fmt.Fprintf(c.out, "\nInput file: %s\n", input)
		fmt.Fprintf(c.out, "Output file: %s\n", output)
		fmt.Fprintf(c.out, "Quality: %s\n", tier)
		fmt.Fprintf(c.out, "Original size: %s\n", c.sizeOf(input))

		confirm, err := c.prompt(ctx, "Proceed with compression? (y/n)", "y")
		if err != nil {
			return c.endOfInput(err)
		}
		if a := strings.ToLower(confirm); a != "y" && a != "yes" {
			fmt.Fprintln(c.out, "Compression cancelled.")
			continue
		}

		fmt.Fprintln(c.out, "\nCompressing PDF...")
		c.compress(ctx, input, output, tier.String())
	}
}

func (c *Console) compress(ctx context.Context, input, output, q string) bool {
	res := c.comp.Compress(ctx, compressor.Request{InputPath: input, OutputPath: output, Quality: q})
	if res.Success {
		fmt.Fprintf(c.out, "OK: %s\n", res.Message)
		return true
	}
	fmt.Fprintf(c.out, "Error: %s\n", res.Message)
	return false
}

func (c *Console) showQualityOptions() {
	fmt.Fprintln(c.out, "\nAvailable compression quality options:")
	for i, t := range quality.Tiers() {
		p, _ := t.Preset()
		line := fmt.Sprintf("  %d. %-6s - %s", i+1, t, p.Description)
		if t == quality.Default {
			line += " [DEFAULT]"
		}
		fmt.Fprintln(c.out, line)
	}
}

// prompt prints label (with its default, if any) and waits for one trimmed
// line. It returns io.EOF once input is exhausted and ctx.Err() if ctx ends
// first.
func (c *Console) prompt(ctx context.Context, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(c.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(c.out, "%s: ", label)
	}

	c.startReader.Do(func() { go c.readLines() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			fmt.Fprintln(c.out)
			return "", io.EOF
		}
		v := strings.TrimSpace(line)
		if v == "" {
			v = def
		}
		return v, nil
	}
}

// readLines feeds c.lines until the input ends. A blocked read cannot be
// interrupted, so the goroutine lives as long as the reader does.
func (c *Console) readLines() {
	sc := bufio.NewScanner(c.in)
	for sc.Scan() {
		c.lines <- sc.Text()
	}
	close(c.lines)
}

func (c *Console) endOfInput(err error) error {
	if err == io.EOF {
		fmt.Fprintln(c.out, "Goodbye!")
		return nil
	}
	return c.cancelled(err)
}

func (c *Console) cancelled(err error) error {
	fmt.Fprintln(c.out, "\nOperation cancelled by user")
	return err
}

func (c *Console) sizeOf(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return format.FileSize(fi.Size())
}
