package headings

import (
	"golang.org/x/net/html"

	"github.com/dgallion1/pdfoutline/internal/markup"
)

// PageID walks up from n to the page container, the element whose parent is
// <body>, and returns that container's id. ok is false when n does not sit
// under a page or the page carries no id.
func PageID(n *html.Node) (id string, ok bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Parent != nil && markup.IsElement(cur.Parent, "body") {
			if !markup.IsElement(cur) {
				return "", false
			}
			return markup.Attr(cur, "id")
		}
	}
	return "", false
}
