// Package headings rebuilds a heading hierarchy from the flat, absolutely
// positioned paragraphs pdftohtml emits.
//
// Bold standalone paragraphs are grouped by page and vertical offset, each
// group's text is reduced to a shape ("3.2 Overview" -> "*.* Overview"), and
// shapes get outline depths in the order they first appear. The groups are
// then wrapped in <hN> elements in place.
package headings

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/dgallion1/pdfoutline/internal/markup"
)

// Heading describes one wrapped group.
type Heading struct {
	Level     int       `json:"level"`
	Text      string    `json:"text"`
	PageID    string    `json:"page_id"`
	Key       string    `json:"key"`
	Fragments int       `json:"fragments"`
	Signature Signature `json:"-"`
}

// Result summarizes one pass over a document.
type Result struct {
	Candidates int       `json:"candidates"`
	Groups     int       `json:"groups"`
	Rejected   int       `json:"rejected"`
	Headings   []Heading `json:"headings"`
}

// Changed reports whether the pass modified the tree.
func (r Result) Changed() bool {
	return len(r.Headings) > 0
}

type plannedGroup struct {
	group *Group
	level int
	sig   Signature
}

// TransformDocument wraps every accepted heading group under root in place.
func TransformDocument(root *html.Node) Result {
	groups := GroupCandidates(Candidates(root))

	res := Result{Groups: groups.Len()}
	table := NewLevelTable()

	var plan []plannedGroup
	for g := range groups.All() {
		res.Candidates += len(g.Candidates)
		sig := Classify(g.Text())
		if sig.Kind == Rejected {
			res.Rejected++
			continue
		}
		plan = append(plan, plannedGroup{group: g, level: table.Assign(sig.Pattern), sig: sig})
	}

	for _, pg := range plan {
		Wrap(pg.group, pg.level)
		res.Headings = append(res.Headings, Heading{
			Level:     pg.level,
			Text:      pg.group.Text(),
			PageID:    pg.group.PageID,
			Key:       pg.group.Key,
			Fragments: len(pg.group.Candidates),
			Signature: pg.sig,
		})
	}
	return res
}

// Transform rewrites the document at path in place. A document without any
// accepted heading is left untouched on disk.
func Transform(path string) (Result, error) {
	doc, err := markup.Load(path)
	if err != nil {
		return Result{}, err
	}
	res := TransformDocument(doc.Root)
	if !res.Changed() {
		return res, nil
	}
	if err := doc.Save(); err != nil {
		return res, fmt.Errorf("save %s: %w", path, err)
	}
	return res, nil
}
