package printer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ESC/POS command bytes.
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Text alignment
const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

// Font size
const (
	FontNormal = 0x00
	FontDouble = 0x11
	FontWide   = 0x10
	FontTall   = 0x01
)

// DefaultCharWidth fits 80mm paper; 58mm paper takes 32.
const DefaultCharWidth = 48

// Receipt builds an ESC/POS byte stream for thermal printers.
type Receipt struct {
	buf   bytes.Buffer
	width int
}

// NewReceipt creates an ESC/POS stream with the given character width.
func NewReceipt(charWidth int) *Receipt {
	if charWidth <= 0 {
		charWidth = DefaultCharWidth
	}
	r := &Receipt{width: charWidth}
	r.Init()
	return r
}

// Init sends ESC @ (initialize printer).
func (r *Receipt) Init() *Receipt {
	r.buf.Write([]byte{ESC, '@'})
	return r
}

// FeedLines sends n line feeds.
func (r *Receipt) FeedLines(n int) *Receipt {
	for i := 0; i < n; i++ {
		r.buf.WriteByte(LF)
	}
	return r
}

func (r *Receipt) SetAlign(align int) *Receipt {
	r.buf.Write([]byte{ESC, 'a', byte(align)})
	return r
}

func (r *Receipt) SetBold(on bool) *Receipt {
	b := byte(0)
	if on {
		b = 1
	}
	r.buf.Write([]byte{ESC, 'E', b})
	return r
}

func (r *Receipt) SetFontSize(size byte) *Receipt {
	r.buf.Write([]byte{GS, '!', size})
	return r
}

// Text writes s wrapped to the paper width, one feed per printed line.
func (r *Receipt) Text(s string) *Receipt {
	for _, line := range wrap(s, r.width) {
		r.buf.WriteString(line)
		r.buf.WriteByte(LF)
	}
	return r
}

func (r *Receipt) TextF(format string, args ...any) *Receipt {
	return r.Text(fmt.Sprintf(format, args...))
}

// Separator prints a full-width rule.
func (r *Receipt) Separator(char byte) *Receipt {
	r.buf.WriteString(strings.Repeat(string(char), r.width))
	r.buf.WriteByte(LF)
	return r
}

// KeyValue prints key left-aligned and value right-aligned on one line.
func (r *Receipt) KeyValue(key, value string) *Receipt {
	r.buf.WriteString(keyValue(key, value, r.width))
	r.buf.WriteByte(LF)
	return r
}

// PartialCut sends the partial cut command.
func (r *Receipt) PartialCut() *Receipt {
	r.buf.Write([]byte{GS, 'V', 0x01})
	return r
}

// Bytes returns the accumulated ESC/POS stream.
func (r *Receipt) Bytes() []byte {
	return r.buf.Bytes()
}

// Width is the configured character width.
func (r *Receipt) Width() int {
	return r.width
}

func keyValue(key, value string, width int) string {
	spaces := width - utf8.RuneCountInString(key) - utf8.RuneCountInString(value)
	if spaces < 1 {
		spaces = 1
	}
	return key + strings.Repeat(" ", spaces) + value
}

func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var (
		lines   []string
		current string
	)
	for _, word := range words {
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	return append(lines, current)
}
