package toc

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/pdfoutline/internal/doctree"
	"github.com/dgallion1/pdfoutline/internal/markup"
)

// Markdown converts a processed HTML document to UTF-8 Markdown. Synthesized
// headings up to h6 become ATX headings.
func Markdown(data []byte) (string, error) {
	doc, err := markup.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	md, err := htmltomarkdown.ConvertNode(doc.Root)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return string(md), nil
}

// FromMarkdown builds the outline from the headings of a Markdown document.
func FromMarkdown(src []byte, title string) *doctree.DocTree {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(strings.TrimSuffix(title, ".md"), ".markdown"),
	}

	b := newBuilder()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			b.add(inlineText(h, src), h.Level, 0)
		}
	}
	tree.Children = b.root.Children
	return tree
}

// inlineText gets the text of a heading's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(inlineText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
