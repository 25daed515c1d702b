package headings

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/pdfoutline/internal/markup"
)

// TagFor returns the heading element name for a depth ("h1", "h2", ...).
// Depths beyond 6 produce non-standard tags such as "h7".
func TagFor(level int) string {
	return "h" + strconv.Itoa(level)
}

// Wrap moves the paragraphs of g into a new heading element at depth level,
// inserted where the first paragraph stood. The heading takes over the
// absolute top offset; the paragraphs keep only their horizontal position.
func Wrap(g *Group, level int) *html.Node {
	tag := TagFor(level)
	h := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}

	st := markup.ParseStyle("position:absolute")
	if g.HasY {
		st.Set("top", strconv.Itoa(g.Y)+"px")
	}
	st.Set("left", "0px")
	markup.SetStyle(h, st)

	first := g.Candidates[0].Paragraph
	first.Parent.InsertBefore(h, first)

	for _, c := range g.Candidates {
		p := c.Paragraph
		if _, ok := markup.Attr(p, "style"); ok {
			pst := markup.StyleOf(p)
			pst.Delete("top")
			markup.SetStyle(p, pst)
		}

		if p.Parent != nil {
			p.Parent.RemoveChild(p)
		}
		h.AppendChild(p)
	}
	return h
}
