package headings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/dgallion1/pdfoutline/internal/markup"
)

func boldPara(top, left int, text string) string {
	return fmt.Sprintf(`<p style="position:absolute;top:%dpx;left:%dpx;white-space:nowrap" class="ft01"><b>%s</b></p>`, top, left, text)
}

func page(id string, paras ...string) string {
	return `<div id="` + id + `" style="position:relative;width:918px;height:1188px;">` + strings.Join(paras, "") + `</div>`
}

func document(pages ...string) string {
	return `<!DOCTYPE html><html><head><title>test</title></head><body>` + strings.Join(pages, "") + `</body></html>`
}

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return root
}

func renderDoc(t *testing.T, root *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func headingLevels(res Result) []int {
	out := make([]int, 0, len(res.Headings))
	for _, h := range res.Headings {
		out = append(out, h.Level)
	}
	return out
}

func TestPageID(t *testing.T) {
	root := parseDoc(t, document(page("page3-div", boldPara(20, 10, "1 Intro"))))
	b := markup.Find(root, "b")
	id, ok := PageID(b)
	if !ok {
		t.Fatal("expected page id")
	}
	if id != "page3-div" {
		t.Errorf("expected %q, got %q", "page3-div", id)
	}
}

func TestPageID_NotUnderPage(t *testing.T) {
	root := parseDoc(t, `<html><body><p><b>Loose</b></p></body></html>`)
	if _, ok := PageID(markup.Find(root, "b")); ok {
		t.Error("expected no page id for a paragraph without an enclosing page")
	}
	if _, ok := PageID(markup.Find(root, "head")); ok {
		t.Error("expected no page id outside <body>")
	}
}

func TestCandidates_Shape(t *testing.T) {
	src := document(page("page1-div",
		boldPara(20, 10, "1 Heading"),
		`<p style="position:absolute;top:40px;left:10px"><b>2 Two</b> children</p>`,
		`<p style="position:absolute;top:60px;left:10px">Plain text</p>`,
		`<p style="position:absolute;top:80px;left:10px"><i>3 Italic</i></p>`,
		`<p style="position:absolute;top:100px;left:10px"><strong>4 Strong</strong></p>`,
	))
	root := parseDoc(t, src)

	var texts []string
	for c := range Candidates(root) {
		texts = append(texts, c.Text)
	}
	want := []string{"1 Heading", "4 Strong"}
	if len(texts) != len(want) {
		t.Fatalf("expected candidates %v, got %v", want, texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("candidate %d: expected %q, got %q", i, want[i], texts[i])
		}
	}
}

func TestCandidates_Coordinates(t *testing.T) {
	src := document(page("page1-div",
		boldPara(108, 72, "1 Full"),
		`<p style="position:absolute;left:72px"><b>2 No top</b></p>`,
		`<p><b>3 No style</b></p>`,
	))
	var got []Candidate
	for c := range Candidates(parseDoc(t, src)) {
		got = append(got, c)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if !got[0].HasX || !got[0].HasY || got[0].X != 72 || got[0].Y != 108 {
		t.Errorf("expected (72, 108), got %+v", got[0])
	}
	if !got[1].HasX || got[1].HasY {
		t.Errorf("expected x only, got HasX=%v HasY=%v", got[1].HasX, got[1].HasY)
	}
	if got[2].HasX || got[2].HasY {
		t.Errorf("expected no coordinates, got HasX=%v HasY=%v", got[2].HasX, got[2].HasY)
	}
}

func TestCandidates_EarlyStop(t *testing.T) {
	src := document(page("page1-div", boldPara(10, 0, "1 A"), boldPara(20, 0, "2 B"), boldPara(30, 0, "3 C")))
	n := 0
	for range Candidates(parseDoc(t, src)) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected to stop after 2, got %d", n)
	}
}

func TestGroupCandidates_SameLine(t *testing.T) {
	src := document(
		page("page1-div",
			boldPara(20, 10, "1"),
			boldPara(20, 40, "Introduction"),
			boldPara(60, 10, "2 Next"),
		),
		page("page2-div", boldPara(20, 10, "3 Other page")),
	)
	groups := GroupCandidates(Candidates(parseDoc(t, src)))

	wantKeys := []string{"page1-div_20", "page1-div_60", "page2-div_20"}
	keys := groups.Keys()
	if len(keys) != len(wantKeys) {
		t.Fatalf("expected keys %v, got %v", wantKeys, keys)
	}
	for i := range wantKeys {
		if keys[i] != wantKeys[i] {
			t.Errorf("key %d: expected %q, got %q", i, wantKeys[i], keys[i])
		}
	}

	first := groups.Get("page1-div_20")
	if len(first.Candidates) != 2 {
		t.Fatalf("expected 2 candidates in first group, got %d", len(first.Candidates))
	}
	if first.Text() != "1" {
		t.Errorf("expected representative text %q, got %q", "1", first.Text())
	}
}

func TestGroupCandidates_MissingTopSharesSentinel(t *testing.T) {
	src := document(page("page1-div",
		`<p style="left:10px"><b>A</b></p>`,
		boldPara(30, 10, "1 Middle"),
		`<p style="left:90px"><b>B</b></p>`,
	))
	groups := GroupCandidates(Candidates(parseDoc(t, src)))
	g := groups.Get("page1-div_")
	if g == nil {
		t.Fatal("expected sentinel group for candidates without a top offset")
	}
	if len(g.Candidates) != 2 {
		t.Errorf("expected 2 candidates under the sentinel key, got %d", len(g.Candidates))
	}
	if groups.Keys()[0] != "page1-div_" {
		t.Errorf("expected sentinel group first, got %v", groups.Keys())
	}
}

func TestTransformDocument_SingleHeading(t *testing.T) {
	src := document(page("page1-div",
		`<p style="position:absolute;top:20px;left:10px"><b>1 Introduction</b></p>`,
		`<p style="position:absolute;top:50px;left:10px">Body text here.</p>`,
	))
	root := parseDoc(t, src)
	res := TransformDocument(root)

	if len(res.Headings) != 1 {
		t.Fatalf("expected 1 heading, got %d", len(res.Headings))
	}
	if res.Headings[0].Level != 1 {
		t.Errorf("expected level 1, got %d", res.Headings[0].Level)
	}

	out := renderDoc(t, root)
	want := `<h1 style="position:absolute;top:20px;left:0px"><p style="position:absolute;left:10px"><b>1 Introduction</b></p></h1>`
	if !strings.Contains(out, want) {
		t.Errorf("expected output to contain %s\ngot: %s", want, out)
	}
	if !strings.Contains(out, `<p style="position:absolute;top:50px;left:10px">Body text here.</p>`) {
		t.Errorf("expected body paragraph untouched, got: %s", out)
	}
}

func TestTransformDocument_RecurrenceResetsDepth(t *testing.T) {
	src := document(page("page1-div",
		boldPara(20, 10, "1 Introduction"),
		boldPara(60, 10, "1.1 Background"),
		boldPara(200, 10, "2 Introduction"),
		boldPara(240, 10, "2.1 Background"),
	))
	res := TransformDocument(parseDoc(t, src))
	got := headingLevels(res)
	want := []int{1, 2, 1, 2}
	if !equalInts(got, want) {
		t.Errorf("expected levels %v, got %v", want, got)
	}
}

func TestTransformDocument_DistinctShapesDeepen(t *testing.T) {
	src := document(page("page1-div",
		boldPara(20, 10, "1 Introduction"),
		boldPara(60, 10, "1.1 Background"),
		boldPara(100, 10, "1.2 Motivation"),
		boldPara(140, 10, "2 Method"),
	))
	res := TransformDocument(parseDoc(t, src))
	got := headingLevels(res)
	want := []int{1, 2, 3, 4}
	if !equalInts(got, want) {
		t.Errorf("expected levels %v, got %v", want, got)
	}
}

func TestTransformDocument_DocumentOrderNotKeyOrder(t *testing.T) {
	// "page1-div_100" sorts before "page1-div_50"; levels must follow the page.
	src := document(page("page1-div",
		boldPara(50, 10, "1 Scope"),
		boldPara(100, 10, "(a) Detail"),
	))
	root := parseDoc(t, src)
	res := TransformDocument(root)
	got := headingLevels(res)
	want := []int{1, 2}
	if !equalInts(got, want) {
		t.Fatalf("expected levels %v, got %v", want, got)
	}
	if res.Headings[0].Text != "1 Scope" {
		t.Errorf("expected first heading %q, got %q", "1 Scope", res.Headings[0].Text)
	}
	out := renderDoc(t, root)
	if !strings.Contains(out, `<h2 style="position:absolute;top:100px;left:0px">`) {
		t.Errorf("expected (a) Detail at h2, got: %s", out)
	}
}

func TestTransformDocument_BulletTrack(t *testing.T) {
	src := document(page("page1-div",
		boldPara(20, 10, "1 Overview"),
		boldPara(40, 10, "• First"),
		boldPara(60, 10, "• Second"),
		boldPara(80, 10, "2 Overview"),
		boldPara(100, 10, "• Third"),
	))
	res := TransformDocument(parseDoc(t, src))
	got := headingLevels(res)
	want := []int{1, 2, 2, 1, 2}
	if !equalInts(got, want) {
		t.Errorf("expected levels %v, got %v", want, got)
	}
	if res.Headings[1].Signature.Kind != SymbolDelimited {
		t.Errorf("expected bullet to classify as symbol-delimited, got %s", res.Headings[1].Signature.Kind)
	}
}

func TestTransformDocument_MultiFragmentGroup(t *testing.T) {
	src := document(page("page1-div",
		boldPara(20, 10, "3"),
		boldPara(20, 40, "Results"),
	))
	root := parseDoc(t, src)
	res := TransformDocument(root)
	if len(res.Headings) != 1 {
		t.Fatalf("expected 1 heading, got %d", len(res.Headings))
	}
	if res.Headings[0].Fragments != 2 {
		t.Errorf("expected 2 fragments, got %d", res.Headings[0].Fragments)
	}

	h := markup.Find(root, "h1")
	if h == nil {
		t.Fatal("expected an h1 wrapper")
	}
	var lefts []string
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		v, _ := markup.StyleOf(c).Get("left")
		lefts = append(lefts, v)
		if _, ok := markup.StyleOf(c).Get("top"); ok {
			t.Error("expected top stripped from wrapped paragraph")
		}
	}
	if len(lefts) != 2 || lefts[0] != "10px" || lefts[1] != "40px" {
		t.Errorf("expected paragraphs at 10px then 40px, got %v", lefts)
	}
}

func TestTransformDocument_RejectedLeftAlone(t *testing.T) {
	src := document(page("page1-div", boldPara(20, 10, "lowercase note")))
	root := parseDoc(t, src)
	before := renderDoc(t, root)

	res := TransformDocument(root)
	if res.Changed() {
		t.Error("expected no change")
	}
	if res.Rejected != 1 {
		t.Errorf("expected 1 rejected group, got %d", res.Rejected)
	}
	if after := renderDoc(t, root); after != before {
		t.Errorf("expected identical tree\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestTransformDocument_TwoChildParagraphNeverWrapped(t *testing.T) {
	src := document(page("page1-div",
		`<p style="position:absolute;top:20px;left:10px"><b>1 Bold</b><b> Split</b></p>`,
	))
	res := TransformDocument(parseDoc(t, src))
	if res.Candidates != 0 || res.Changed() {
		t.Errorf("expected no candidates, got %+v", res)
	}
}

func TestTransformDocument_RerunWrapsAgain(t *testing.T) {
	root := parseDoc(t, document(page("page1-div", boldPara(20, 10, "1 Introduction"))))

	first := TransformDocument(root)
	if len(first.Headings) != 1 {
		t.Fatalf("expected 1 heading on first pass, got %d", len(first.Headings))
	}

	// Not idempotent: the wrapped paragraph still looks like a candidate.
	second := TransformDocument(root)
	if len(second.Headings) != 1 {
		t.Fatalf("expected the second pass to wrap again, got %d headings", len(second.Headings))
	}
	if second.Headings[0].Key != "page1-div_" {
		t.Errorf("expected sentinel key after top was stripped, got %q", second.Headings[0].Key)
	}

	outer := markup.Find(root, "h1")
	if outer == nil || !markup.IsElement(outer.FirstChild, "h1") {
		t.Fatalf("expected nested h1 wrappers, got: %s", renderDoc(t, root))
	}
	if _, ok := markup.StyleOf(outer.FirstChild).Get("top"); ok {
		t.Error("expected inner wrapper without top")
	}
}

func TestTransform_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.html")
	src := document(page("page1-div", boldPara(20, 10, "1 Introduction"), boldPara(60, 10, "1.1 Scope")))
	if err := os.WriteFile(path, []byte(src), 0o640); err != nil {
		t.Fatal(err)
	}

	res, err := Transform(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(res.Headings))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "<h1 ") || !strings.Contains(out, "<h2 ") {
		t.Errorf("expected h1 and h2 in output, got: %s", out)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("expected mode 0640 preserved, got %o", info.Mode().Perm())
	}
}

func TestTransform_NoHeadingsLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.html")
	src := "<HTML><BODY><DIV id=page1-div><P>just text</P></DIV></BODY></HTML>\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Transform(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Changed() {
		t.Error("expected no change")
	}
	data, _ := os.ReadFile(path)
	if string(data) != src {
		t.Errorf("expected file byte-identical, got %q", data)
	}
}

func TestTransform_MissingFile(t *testing.T) {
	_, err := Transform(filepath.Join(t.TempDir(), "missing.html"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestTransform_Latin1File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latin1.html")
	src := `<html><head><meta charset="iso-8859-1"><title>t</title></head><body>` +
		page("page1-div",
			boldPara(20, 10, "1 R\xe9sum\xe9"),
			`<p style="position:absolute;top:40px;left:10px">check &#10003; done</p>`,
			boldPara(60, 10, "1.1 \xdcbersicht"),
		) + `</body></html>`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Transform(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := headingLevels(res); !equalInts(got, []int{1, 2}) {
		t.Fatalf("expected levels [1 2], got %v", got)
	}
	if res.Headings[0].Text != "1 Résumé" {
		t.Errorf("expected decoded heading text, got %q", res.Headings[0].Text)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<b>1 R\xe9sum\xe9</b>", "<b>1.1 \xdcbersicht</b>", "check &#10003; done", "<h1 "} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("expected %q in output, got %q", want, data)
		}
	}
	if bytes.Contains(data, []byte("\xc3\xa9")) {
		t.Errorf("expected latin-1 bytes, found utf-8 in %q", data)
	}
}

func TestTransform_UndeclaredUTF8File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.html")
	// Keep every non-ASCII byte past the first KiB so no sniffing can see it.
	src := `<html><head><title>t</title><style>` + strings.Repeat(" ", 1100) + `</style></head><body>` +
		page("page1-div",
			boldPara(20, 10, "1 Intro"),
			boldPara(60, 10, "• Überblick"),
			`<p style="position:absolute;top:80px;left:10px">check &#10003; done</p>`,
		) + `</body></html>`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Transform(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(res.Headings))
	}
	sig := res.Headings[1].Signature
	if sig.Kind != SymbolDelimited || sig.Pattern != "•" || sig.Alpha != "" {
		t.Errorf("expected bullet signature, got %+v", sig)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "<b>• Überblick</b>") || !strings.Contains(out, "check ✓ done") {
		t.Errorf("expected utf-8 text kept intact, got %s", out)
	}
}

func TestTransformDocument_RecurrenceAcrossPages(t *testing.T) {
	src := document(
		page("page1-div",
			boldPara(20, 10, "1 Introduction"),
			boldPara(60, 10, "1.1 Background"),
		),
		page("page2-div",
			boldPara(20, 10, "2 Introduction"),
		),
	)
	res := TransformDocument(parseDoc(t, src))
	got := headingLevels(res)
	want := []int{1, 2, 1}
	if !equalInts(got, want) {
		t.Errorf("expected levels %v, got %v", want, got)
	}
	if res.Headings[2].PageID != "page2-div" {
		t.Errorf("expected last heading on page2-div, got %q", res.Headings[2].PageID)
	}
}
