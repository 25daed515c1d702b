package converter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const centerStyle = "<!-- PDF2HTML STYLE START -->\n<style>body > * {margin: auto;}</style>\n<!-- PDF2HTML STYLE END -->"

// PostOptions selects the edits applied to pdftohtml output.
type PostOptions struct {
	Title       string
	EmbedImages bool
	CenterPages bool
}

// Postprocess sets the title, centers pages and inlines local images found in
// dir as data URIs.
func Postprocess(data []byte, dir string, opts PostOptions) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	head := doc.Find("head").First()

	if opts.EmbedImages {
		doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
			src, _ := s.Attr("src")
			if uri, ok := imageDataURI(dir, src); ok {
				s.SetAttr("src", uri)
			}
		})
	}

	if opts.CenterPages {
		head.AppendHtml(centerStyle)
	}

	if opts.Title != "" {
		if t := doc.Find("title").First(); t.Length() > 0 {
			t.SetText(opts.Title)
		} else {
			head.AppendHtml("<title>" + html.EscapeString(opts.Title) + "</title>")
		}
	}

	out, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("serializing HTML: %w", err)
	}
	return []byte(out), nil
}

// imageDataURI reads a png or jpg that sits next to the HTML.
func imageDataURI(dir, src string) (string, bool) {
	if strings.Contains(src, ":") {
		return "", false
	}
	name := filepath.Base(src)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch ext {
	case "png", "jpg", "jpeg":
	default:
		return "", false
	}
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", false
	}
	if ext == "jpg" {
		ext = "jpeg"
	}
	return "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(raw), true
}
