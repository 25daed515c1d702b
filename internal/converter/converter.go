// Package converter turns PDFs into single-file positioned HTML with the
// poppler pdftohtml tool.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrOutputExists      = errors.New("output target already exists")
	ErrEmptyRange        = errors.New("empty page range")
)

// Options controls the pdftohtml run and the post-processing of its output.
type Options struct {
	Binary            string
	Title             string
	TitleFromFileName bool
	EmbedImages       bool
	CenterPages       bool
	ComplexStyles     bool
	SingleFile        bool
	FirstPage         int // 0 means the first page
	LastPage          int // 0 or past the end means the last page
	Timeout           time.Duration
}

// DefaultOptions matches what the processing pipeline needs: one file,
// absolutely positioned fragments, images inlined.
func DefaultOptions() Options {
	return Options{
		Binary:            "pdftohtml",
		TitleFromFileName: true,
		EmbedImages:       true,
		CenterPages:       true,
		ComplexStyles:     true,
		SingleFile:        true,
		Timeout:           5 * time.Minute,
	}
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Converter runs pdftohtml.
type Converter struct {
	opts Options
	run  runFunc
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Converter {
	if opts.Binary == "" {
		opts.Binary = "pdftohtml"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Converter{opts: opts, run: execRun, log: log}
}

// Options returns the converter's settings.
func (c *Converter) Options() Options {
	return c.opts
}

// PageCount opens the PDF and returns its number of pages. The reader panics
// on some malformed cross-reference tables; those surface as errors.
func PageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	f, r, err := pdflib.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}

// Convert writes the HTML rendering of pdfPath to outputFile. It refuses to
// overwrite an existing output.
func (c *Converter) Convert(ctx context.Context, pdfPath, outputFile string) error {
	if !strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
		return fmt.Errorf("%w (%s): accepted formats are .pdf", ErrUnsupportedFormat, filepath.Ext(pdfPath))
	}
	if _, err := os.Stat(outputFile); err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, outputFile)
	}

	// The page count only clamps the range. pdftohtml reads some files the
	// PDF reader cannot (AES-256 encryption), so without a requested range
	// it runs over the whole document.
	var first, last int
	pages, err := PageCount(pdfPath)
	switch {
	case err == nil:
		first, last = c.pageRange(pages)
		if first > last {
			return fmt.Errorf("%w: %d-%d of %d", ErrEmptyRange, first, last, pages)
		}
	case c.opts.FirstPage > 0 || c.opts.LastPage > 0:
		return fmt.Errorf("page range needs a page count: %w", err)
	default:
		c.log.Warn("page count unavailable, converting all pages", "pdf", pdfPath, "error", err)
	}

	tmpDir, err := os.MkdirTemp("", "pdfoutline-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	tmpPDF := filepath.Join(tmpDir, base+".pdf")
	if err := copyFile(pdfPath, tmpPDF); err != nil {
		return err
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	args := c.buildArgs(tmpPDF, first, last)
	if out, err := c.run(ctx, c.opts.Binary, args...); err != nil {
		return fmt.Errorf("pdftohtml: %w: %s", err, strings.TrimSpace(string(out)))
	}

	produced := filepath.Join(tmpDir, base+"-html.html")
	data, err := os.ReadFile(produced)
	if err != nil {
		return fmt.Errorf("read pdftohtml output: %w", err)
	}

	title := c.opts.Title
	if c.opts.TitleFromFileName {
		title = base
	}
	data, err = Postprocess(data, tmpDir, PostOptions{
		Title:       title,
		EmbedImages: c.opts.EmbedImages,
		CenterPages: c.opts.CenterPages,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return writeAtomic(outputFile, data)
}

// writeAtomic writes data to a temp file beside path and renames it into
// place, so readers never see a partial document.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".convert-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (c *Converter) pageRange(pages int) (int, int) {
	first := c.opts.FirstPage
	if first <= 0 {
		first = 1
	}
	last := c.opts.LastPage
	if last <= 0 || last > pages {
		last = pages
	}
	return first, last
}

// buildArgs leaves out -f/-l when first is 0.
func (c *Converter) buildArgs(pdfPath string, first, last int) []string {
	var args []string
	if first > 0 {
		args = append(args, "-f", strconv.Itoa(first), "-l", strconv.Itoa(last))
	}
	if c.opts.ComplexStyles {
		args = append(args, "-c")
	}
	if c.opts.SingleFile {
		args = append(args, "-s", "-noframes")
	}
	args = append(args, "-q", pdfPath)
	return args
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// IsPDF sniffs the "%PDF-" header.
func IsPDF(r io.Reader) bool {
	head := make([]byte, 5)
	n, _ := io.ReadFull(r, head)
	return bytes.Equal(head[:n], []byte("%PDF-"))
}
