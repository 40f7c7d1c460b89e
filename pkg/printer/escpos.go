package printer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ESC/POS command bytes
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

const (
	FontNormal = 0x00
	FontDouble = 0x11 // double width and height
)

// Document builds an ESC/POS byte stream for a receipt printer.
type Document struct {
	buf   bytes.Buffer
	width int // characters per line: 32 on 58mm paper, 42 or 48 on 80mm
}

// NewDocument creates a document for charWidth characters per line.
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = 42
	}
	d := &Document{width: charWidth}
	d.buf.Write([]byte{ESC, '@'})
	return d
}

func (d *Document) Width() int {
	return d.width
}

func (d *Document) LineFeed() *Document {
	d.buf.WriteByte(LF)
	return d
}

func (d *Document) FeedLines(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(LF)
	}
	return d
}

func (d *Document) SetAlign(align int) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(align)})
	return d
}

func (d *Document) SetBold(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

func (d *Document) SetFontSize(size byte) *Document {
	d.buf.Write([]byte{GS, '!', size})
	return d
}

// Text writes a line of text followed by a line feed.
func (d *Document) Text(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(LF)
	return d
}

func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

// Wrapped breaks s into lines of the document width. Used for signatures,
// which have no spaces.
func (d *Document) Wrapped(s string) *Document {
	runes := []rune(s)
	for len(runes) > d.width {
		d.Text(string(runes[:d.width]))
		runes = runes[d.width:]
	}
	if len(runes) > 0 {
		d.Text(string(runes))
	}
	return d
}

func (d *Document) Separator(char byte) *Document {
	return d.Text(strings.Repeat(string(char), d.width))
}

// KeyValue prints key left and value right aligned on one line.
func (d *Document) KeyValue(key, value string) *Document {
	return d.Text(d.justify(key, value))
}

// ItemLine prints "2x Schnitzel        25,80".
func (d *Document) ItemLine(qty int, name, total string) *Document {
	return d.Text(d.justify(fmt.Sprintf("%dx %s", qty, name), total))
}

func (d *Document) justify(left, right string) string {
	spaces := d.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if spaces < 1 {
		spaces = 1
	}
	return left + strings.Repeat(" ", spaces) + right
}

// QRCode prints data as a QR code (model 2, error correction M). Printers
// without QR support ignore the command.
func (d *Document) QRCode(data string, moduleSize byte) *Document {
	if moduleSize == 0 {
		moduleSize = 4
	}
	d.buf.Write([]byte{GS, '(', 'k', 4, 0, 49, 65, 50, 0})      // model 2
	d.buf.Write([]byte{GS, '(', 'k', 3, 0, 49, 67, moduleSize}) // module size
	d.buf.Write([]byte{GS, '(', 'k', 3, 0, 49, 69, 49})         // error correction M
	n := len(data) + 3
	d.buf.Write([]byte{GS, '(', 'k', byte(n % 256), byte(n / 256), 49, 80, 48})
	d.buf.WriteString(data)
	d.buf.Write([]byte{GS, '(', 'k', 3, 0, 49, 81, 48}) // print
	d.buf.WriteByte(LF)
	return d
}

func (d *Document) PartialCut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x01})
	return d
}

// Bytes returns the accumulated byte stream.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}
