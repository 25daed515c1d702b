// Package toc reads the heading outline back out of a processed document and
// exports it as Markdown.
package toc

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/pdfoutline/internal/doctree"
	"github.com/dgallion1/pdfoutline/internal/headings"
	"github.com/dgallion1/pdfoutline/internal/markup"
)

// stackEntry tracks the open section at each nesting depth.
type stackEntry struct {
	node  *doctree.DocNode
	level int
}

// builder nests headings by level, popping back to the nearest shallower one.
type builder struct {
	root  *doctree.DocNode
	stack []stackEntry
}

func newBuilder() *builder {
	root := &doctree.DocNode{}
	return &builder{root: root, stack: []stackEntry{{node: root, level: 0}}}
}

func (b *builder) add(title string, level, page int) {
	newNode := &doctree.DocNode{Title: title, Level: level, Page: page}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, newNode)
	b.stack = append(b.stack, stackEntry{node: newNode, level: level})
}

// FromHTML builds the outline from <hN> elements. Any N >= 1 counts, since
// synthesized depths are not capped at 6. The input is decoded with the
// charset it declares, as the heading pass does when it writes the file.
func FromHTML(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	doc, err := markup.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return fromNode(doc.Root, filename), nil
}

func fromNode(doc *html.Node, filename string) *doctree.DocTree {
	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".html"), ".htm"),
	}
	if t := markup.Find(doc, "title"); t != nil {
		if title := strings.TrimSpace(markup.TextContent(t)); title != "" {
			tree.Title = title
		}
	}

	b := newBuilder()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.add(headingTitle(n), level, pageNumber(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if body := markup.Find(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	tree.Children = b.root.Children
	return tree
}

// headingLevel parses "h<N>", returning 0 for anything else.
func headingLevel(tag string) int {
	if len(tag) < 2 || tag[0] != 'h' {
		return 0
	}
	n, err := strconv.Atoi(tag[1:])
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// headingTitle joins the text of the wrapped fragments with single spaces.
func headingTitle(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if headingLevel(c.Data) > 0 && c.Type == html.ElementNode {
			continue
		}
		if t := strings.TrimSpace(markup.TextContent(c)); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(markup.TextContent(n))
	}
	return strings.Join(parts, " ")
}

var pageDigits = regexp.MustCompile(`\d+`)

// pageNumber extracts N from the enclosing "pageN-div" container id.
func pageNumber(n *html.Node) int {
	id, ok := headings.PageID(n)
	if !ok {
		return 0
	}
	m := pageDigits.FindString(id)
	if m == "" {
		return 0
	}
	p, _ := strconv.Atoi(m)
	return p
}
