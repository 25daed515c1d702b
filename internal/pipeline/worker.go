package pipeline

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/pdfoutline/internal/converter"
	"github.com/dgallion1/pdfoutline/internal/headings"
	"github.com/dgallion1/pdfoutline/internal/joblog"
	"github.com/dgallion1/pdfoutline/internal/storage"
)

// ProcessedURL is where finished files are announced in the job log.
const ProcessedURL = "/conversion/proc"

var ErrNoPDFs = errors.New("archive contains no PDF files")

// Converter renders a PDF into positioned HTML.
type Converter interface {
	Convert(ctx context.Context, pdfPath, outputFile string) error
}

// Worker converts and outlines the PDFs of a single upload.
type Worker struct {
	conv     Converter
	store    *storage.Store
	locks    *PathLocks
	log      *slog.Logger
	maxEntry int64
}

func NewWorker(conv Converter, store *storage.Store, locks *PathLocks, log *slog.Logger, maxEntry int64) *Worker {
	if locks == nil {
		locks = NewPathLocks()
	}
	return &Worker{
		conv:     conv,
		store:    store,
		locks:    locks,
		log:      log,
		maxEntry: maxEntry,
	}
}

// Process runs the full pipeline for a job and records the outcome both on
// the job and in its log file.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	jl := joblog.NewWriter(job.LogPath)

	if err := jl.Start(); err != nil {
		log.Error("job log unavailable", "error", err)
	}

	if err := w.run(ctx, job, jl, log); err != nil {
		log.Error("processing failed", "error", err)
		job.AddError(err.Error())
		jl.Exception(err)
		jl.Finish(false, "")
		job.SetStatus(StatusFailed, job.Snapshot().Phase)
		return
	}

	jl.Finish(true, ProcessedURL)
	job.SetStatus(StatusCompleted, "done")
	log.Info("processing complete", "outputs", len(job.Snapshot().Outputs))
}

func (w *Worker) run(ctx context.Context, job *Job, jl *joblog.Writer, log *slog.Logger) error {
	job.SetStatus(StatusUnpacking, "unpacking")
	src := w.store.Path(storage.Uploads, job.Filename)
	if !w.store.Exists(storage.Uploads, job.Filename) {
		return fmt.Errorf("%s: %w", job.Filename, storage.ErrNotFound)
	}

	var pdfs []string
	switch {
	case storage.HasExt(src, "zip"):
		jl.Printf("Unzipping file...")
		tmpDir, err := os.MkdirTemp("", "pdfoutline-unzip-*")
		if err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(tmpDir)
		pdfs, err = extractPDFs(src, tmpDir, w.maxEntry)
		if err != nil {
			return err
		}
		log.Info("unzipped archive", "pdfs", len(pdfs))
	case storage.HasExt(src, "pdf"):
		pdfs = []string{src}
	default:
		return fmt.Errorf("%w (%s): accepted formats are .pdf and .zip", converter.ErrUnsupportedFormat, filepath.Ext(src))
	}

	for _, pdf := range pdfs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.processPDF(ctx, job, jl, log, pdf); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) processPDF(ctx context.Context, job *Job, jl *joblog.Writer, log *slog.Logger, pdf string) error {
	name := filepath.Base(pdf)
	outName := storage.BaseName(name) + ".html"
	out := w.store.Path(storage.Processed, outName)

	// Readers of the processed file take the same lock, so they see either
	// nothing or the finished outline.
	unlock := w.locks.Lock(out)
	defer unlock()

	jl.Printf("Converting file [%s] ...", name)
	job.SetStatus(StatusConverting, "converting "+name)
	if err := w.conv.Convert(ctx, pdf, out); err != nil {
		return fmt.Errorf("convert %s: %w", name, err)
	}

	jl.Printf("Outlining headings in [%s] ...", outName)
	job.SetStatus(StatusOutlining, "outlining "+outName)

	res, err := headings.Transform(out)
	if err != nil {
		return fmt.Errorf("outline %s: %w", outName, err)
	}

	jl.Printf("%d headings wrapped", len(res.Headings))
	job.AddOutput(outName, len(res.Headings))
	log.Info("outlined file",
		"output", outName,
		"candidates", res.Candidates,
		"groups", res.Groups,
		"headings", len(res.Headings),
	)
	return nil
}

// extractPDFs copies the .pdf entries of a zip archive into dir, flattening
// any folder structure. Later entries with an already used name are skipped.
func extractPDFs(zipPath, dir string, maxEntry int64) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	var out []string
	seen := make(map[string]bool)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !storage.HasExt(f.Name, "pdf") {
			continue
		}
		name := storage.SafeName(f.Name)
		if seen[name] {
			continue
		}
		seen[name] = true

		dst := filepath.Join(dir, name)
		if err := extractEntry(f, dst, maxEntry); err != nil {
			return nil, err
		}
		out = append(out, dst)
	}
	if len(out) == 0 {
		return nil, ErrNoPDFs
	}
	return out, nil
}

func extractEntry(f *zip.File, dst string, maxEntry int64) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxEntry > 0 {
		r = io.LimitReader(rc, maxEntry+1)
	}

	fh, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	n, err := io.Copy(fh, r)
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if maxEntry > 0 && n > maxEntry {
		return fmt.Errorf("entry %s exceeds max size (%d bytes)", f.Name, maxEntry)
	}
	return nil
}
