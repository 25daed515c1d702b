package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dgallion1/pdfoutline/internal/converter"
	"github.com/dgallion1/pdfoutline/internal/headings"
	"github.com/dgallion1/pdfoutline/internal/storage"
	"github.com/spf13/cobra"
)

// Flag variables.
var (
	flagOutputDir string
	flagNoImages  bool
	flagNoCenter  bool
	flagFirstPage int
	flagLastPage  int
	flagTitle     string
	flagPdftohtml string
	flagNoOutline bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.pdf>",
	Short: "Convert a PDF to HTML with pdftohtml and outline its headings",
	Long: `Convert runs pdftohtml on a PDF, writes a single self-contained HTML file
and then wraps its headings the way transform does.

Examples:
  outline convert paper.pdf
  outline convert paper.pdf --output_dir ./out --no-images
  outline convert paper.pdf --first 3 --last 10`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: next to the PDF)")
	convertCmd.Flags().BoolVar(&flagNoImages, "no-images", false, "Keep images as separate files instead of inlining them")
	convertCmd.Flags().BoolVar(&flagNoCenter, "no-center", false, "Do not center pages horizontally")
	convertCmd.Flags().IntVar(&flagFirstPage, "first", 0, "First page to convert")
	convertCmd.Flags().IntVar(&flagLastPage, "last", 0, "Last page to convert")
	convertCmd.Flags().StringVar(&flagTitle, "title", "", "Document title (default: PDF file name)")
	convertCmd.Flags().StringVar(&flagPdftohtml, "pdftohtml", "pdftohtml", "Path to the pdftohtml binary")
	convertCmd.Flags().BoolVar(&flagNoOutline, "no-outline", false, "Skip heading detection")
}

func runConvert(cmd *cobra.Command, args []string) error {
	pdf := args[0]

	dir := flagOutputDir
	if dir == "" {
		dir = filepath.Dir(pdf)
	}
	out := filepath.Join(dir, storage.BaseName(pdf)+".html")

	opts := converter.DefaultOptions()
	opts.Binary = flagPdftohtml
	opts.EmbedImages = !flagNoImages
	opts.CenterPages = !flagNoCenter
	opts.FirstPage = flagFirstPage
	opts.LastPage = flagLastPage
	if flagTitle != "" {
		opts.Title = flagTitle
		opts.TitleFromFileName = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("converting", "pdf", pdf, "output", out)
	if err := converter.New(opts, logger).Convert(ctx, pdf, out); err != nil {
		return err
	}

	if flagNoOutline {
		fmt.Fprintf(cmd.OutOrStdout(), "Written: %s\n", out)
		return nil
	}

	res, err := headings.Transform(out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Written: %s (%d headings wrapped)\n", out, len(res.Headings))
	return nil
}
