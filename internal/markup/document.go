// Package markup loads, edits and saves converter HTML without disturbing
// its byte encoding.
package markup

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a parsed markup file together with what is needed to write it
// back in the encoding it was read in.
type Document struct {
	Path    string
	Root    *html.Node
	Charset string

	enc  encoding.Encoding // nil means UTF-8, written through untouched
	bom  bool
	mode os.FileMode
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	doc.Path = path
	doc.mode = info.Mode().Perm()
	return doc, nil
}

// Parse builds a Document from raw bytes. UTF-8 input is handed to the
// parser as is, so invalid sequences survive a round trip byte for byte.
// So is input that declares no charset at all. Other encodings are decoded
// here and re-encoded on save.
func Parse(data []byte) (*Document, error) {
	doc := &Document{mode: 0o644}

	if bytes.HasPrefix(data, utf8BOM) {
		doc.bom = true
		data = data[len(utf8BOM):]
	}

	enc, name, _ := charset.DetermineEncoding(data, "text/html")
	doc.Charset = name
	src := data
	if name != "utf-8" && !doc.bom && declared(enc) {
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		src = decoded
		doc.enc = enc
	} else {
		doc.Charset = "utf-8"
	}

	root, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	doc.Root = root
	return doc, nil
}

// declared reports whether enc came from a BOM or a <meta> declaration.
// Without either, DetermineEncoding falls back to a bare windows-1252 guess.
func declared(enc encoding.Encoding) bool {
	return enc != charmap.Windows1252
}

// Render writes the tree to w in the document's original encoding.
// Characters the target encoding cannot hold are written as numeric
// character references.
func (d *Document) Render(w io.Writer) error {
	if d.bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return err
		}
	}
	if d.enc == nil {
		return html.Render(w, d.Root)
	}
	ew := encoding.HTMLEscapeUnsupported(d.enc.NewEncoder()).Writer(w)
	return html.Render(ew, d.Root)
}

// Bytes renders the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save overwrites the file the document was loaded from.
func (d *Document) Save() error {
	return d.SaveAs(d.Path)
}

// SaveAs renders into a temp file next to path and renames it into place.
func (d *Document) SaveAs(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".outline-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, d.mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
