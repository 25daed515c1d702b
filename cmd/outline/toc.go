package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pdfoutline/internal/doctree"
	"github.com/dgallion1/pdfoutline/internal/storage"
	"github.com/dgallion1/pdfoutline/internal/toc"
	"github.com/spf13/cobra"
)

var (
	flagTocMarkdown bool
	flagTocJSON     bool
)

var tocCmd = &cobra.Command{
	Use:   "toc <file.html|file.md>",
	Short: "Print the table of contents of an outlined HTML file",
	Long: `Toc reads the <hN> headings of an outlined file and prints them as an
indented list. Markdown files are outlined from their ATX and setext
headings. With --markdown an HTML document is exported as Markdown instead.

Examples:
  outline toc report.html
  outline toc report.html --json
  outline toc report.html --markdown > report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runToc,
}

func init() {
	rootCmd.AddCommand(tocCmd)
	tocCmd.Flags().BoolVar(&flagTocMarkdown, "markdown", false, "Export the document as Markdown")
	tocCmd.Flags().BoolVar(&flagTocJSON, "json", false, "Print the outline as JSON")
}

func runToc(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if flagTocMarkdown {
		md, err := toc.Markdown(data)
		if err != nil {
			return fmt.Errorf("markdown export: %w", err)
		}
		_, err = io.WriteString(out, md)
		return err
	}

	var tree *doctree.DocTree
	if storage.HasExt(path, "md", "markdown") {
		tree = toc.FromMarkdown(data, filepath.Base(path))
	} else if tree, err = toc.FromHTML(bytes.NewReader(data), filepath.Base(path)); err != nil {
		return err
	}
	if flagTocJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}
	printTree(out, tree)
	return nil
}

func printTree(w io.Writer, tree *doctree.DocTree) {
	fmt.Fprintln(w, tree.Title)
	var walk func(nodes []*doctree.DocNode, depth int)
	walk = func(nodes []*doctree.DocNode, depth int) {
		for _, n := range nodes {
			fmt.Fprintf(w, "%s- %s", strings.Repeat("  ", depth), n.Title)
			if n.Page > 0 {
				fmt.Fprintf(w, " (p. %d)", n.Page)
			}
			fmt.Fprintln(w)
			walk(n.Children, depth+1)
		}
	}
	walk(tree.Children, 0)
}
