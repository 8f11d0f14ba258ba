package printer

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Line is one printable row flattened from the receipt markup.
type Line struct {
	Cells   []string
	Heading bool
	Rule    bool
}

// Text joins the cells with single spaces.
func (l Line) Text() string {
	return strings.Join(l.Cells, " ")
}

// RenderText flattens an HTML receipt into rows a character printer can print.
// Table rows keep their cells apart so amounts can be right-aligned; headings
// and horizontal rules are marked.
func RenderText(r io.Reader) ([]Line, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	w := &lineWriter{}
	w.walk(root)
	w.flush()
	return w.lines, nil
}

type lineWriter struct {
	lines   []Line
	cells   []string
	text    strings.Builder
	heading bool
}

func (w *lineWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text.WriteString(n.Data)
		w.text.WriteByte(' ')
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head, atom.Title:
			return
		case atom.Br:
			w.flush()
			return
		case atom.Hr:
			w.flush()
			w.lines = append(w.lines, Line{Rule: true})
			return
		}
	}

	block := isBlock(n)
	if block {
		w.flush()
	}
	if isHeading(n) {
		w.heading = true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if n.Type == html.ElementNode && (n.DataAtom == atom.Td || n.DataAtom == atom.Th) {
		w.endCell()
		return
	}
	if block {
		w.flush()
	}
}

func (w *lineWriter) endCell() {
	cell := collapse(w.text.String())
	w.text.Reset()
	w.cells = append(w.cells, cell)
}

func (w *lineWriter) flush() {
	if rest := collapse(w.text.String()); rest != "" {
		w.cells = append(w.cells, rest)
	}
	w.text.Reset()

	cells := w.cells[:0:0]
	for _, cell := range w.cells {
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	if len(cells) > 0 {
		w.lines = append(w.lines, Line{Cells: cells, Heading: w.heading})
	}
	w.cells = nil
	w.heading = false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isHeading(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3:
		return true
	}
	return false
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Tr, atom.Li, atom.Table, atom.Thead, atom.Tbody, atom.Tfoot,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Section, atom.Header, atom.Footer,
		atom.Ul, atom.Ol, atom.Body:
		return true
	}
	return false
}

// FormatText lays lines out as plain text for spoolers.
func FormatText(lines []Line, width int) string {
	if width <= 0 {
		width = DefaultCharWidth
	}
	var b strings.Builder
	for _, line := range lines {
		switch {
		case line.Rule:
			b.WriteString(strings.Repeat("-", width))
			b.WriteByte('\n')
		case len(line.Cells) == 2:
			b.WriteString(keyValue(line.Cells[0], line.Cells[1], width))
			b.WriteByte('\n')
		default:
			for _, wrapped := range wrap(line.Text(), width) {
				b.WriteString(wrapped)
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// FormatESCPOS lays lines out as an ESC/POS stream ending in a partial cut.
func FormatESCPOS(title string, lines []Line, width int) []byte {
	r := NewReceipt(width)
	if title != "" {
		r.SetAlign(AlignCenter).SetBold(true).SetFontSize(FontDouble).Text(title).
			SetFontSize(FontNormal).SetBold(false).SetAlign(AlignLeft)
	}
	for _, line := range lines {
		switch {
		case line.Rule:
			r.Separator('-')
		case line.Heading:
			r.SetAlign(AlignCenter).SetBold(true).Text(line.Text()).SetBold(false).SetAlign(AlignLeft)
		case len(line.Cells) == 2:
			r.KeyValue(line.Cells[0], line.Cells[1])
		default:
			r.Text(line.Text())
		}
	}
	return r.FeedLines(3).PartialCut().Bytes()
}
