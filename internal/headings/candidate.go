package headings

import (
	"iter"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/pdfoutline/internal/markup"
)

// Candidate is a paragraph shaped like a standalone bold heading run.
type Candidate struct {
	Paragraph *html.Node
	Emphasis  *html.Node
	PageID    string
	Text      string

	X, Y       int
	HasX, HasY bool
}

func isEmphasis(n *html.Node) bool {
	return markup.IsElement(n, "b", "strong")
}

// Candidates yields, in document order, every <p> whose only child is a
// bold run. Paragraphs outside a page container are skipped. The tree must
// not be modified while the sequence is being consumed.
func Candidates(root *html.Node) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		var walk func(*html.Node) bool
		walk = func(n *html.Node) bool {
			if markup.IsElement(n, "p") && markup.ChildCount(n) == 1 && isEmphasis(n.FirstChild) {
				if c, ok := newCandidate(n); ok {
					if !yield(c) {
						return false
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(root)
	}
}

func newCandidate(p *html.Node) (Candidate, bool) {
	pageID, ok := PageID(p)
	if !ok {
		return Candidate{}, false
	}
	st := markup.StyleOf(p)
	c := Candidate{
		Paragraph: p,
		Emphasis:  p.FirstChild,
		PageID:    pageID,
		Text:      strings.TrimSpace(markup.TextContent(p.FirstChild)),
	}
	c.X, c.HasX = st.Int("left")
	c.Y, c.HasY = st.Int("top")
	return c, true
}
