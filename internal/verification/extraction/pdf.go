package extraction

import (
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

const (
	maxInflatedBytes = 4 << 20
	// kerning at or below this in a TJ array is rendered as a word gap
	tjSpaceThreshold = -200
)

// pdfStream matches a stream object whose dictionary nests at most one level.
var pdfStream = regexp.MustCompile(`(?s)<<([^<>]*(?:<<[^<>]*>>[^<>]*)*)>>\s*stream\r?\n(.*?)\r?\nendstream`)

// isPDF reports whether data starts with the PDF header.
func isPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-"))
}

// pdfText pulls the text shown by content streams, one line per text
// positioning operator. It understands unfiltered and FlateDecode streams,
// which is what agency-issued clearance letters use. Anything else is skipped.
func pdfText(data []byte) string {
	var b strings.Builder
	for _, m := range pdfStream.FindAllSubmatch(data, -1) {
		dict, body := m[1], m[2]
		switch {
		case bytes.Contains(dict, []byte("/FlateDecode")):
			inflated, err := inflate(body)
			if err != nil {
				continue
			}
			body = inflated
		case bytes.Contains(dict, []byte("/Filter")):
			continue
		}
		appendShownText(&b, body)
	}
	return b.String()
}

func inflate(body []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(io.LimitReader(r, maxInflatedBytes))
}

// appendShownText scans a content stream for string operands and writes the
// text, breaking lines on Td, TD, T* and ET.
func appendShownText(b *strings.Builder, content []byte) {
	var line strings.Builder
	flush := func() {
		if text := strings.Join(strings.Fields(line.String()), " "); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
		line.Reset()
	}

	inArray := false
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '(':
			s, end := readLiteral(content, i+1)
			line.WriteString(s)
			i = end
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '[':
			inArray = true
		case c == ']':
			inArray = false
		case inArray && (c == '-' || c == '.' || isDigit(c)):
			start := i
			for i+1 < len(content) && (content[i+1] == '.' || isDigit(content[i+1])) {
				i++
			}
			if n, err := strconv.ParseFloat(string(content[start:i+1]), 64); err == nil && n <= tjSpaceThreshold {
				line.WriteByte(' ')
			}
		case isLetter(c) || c == '*':
			start := i
			for i+1 < len(content) && (isLetter(content[i+1]) || content[i+1] == '*') {
				i++
			}
			switch string(content[start : i+1]) {
			case "Td", "TD", "T*", "ET":
				flush()
			}
		}
	}
	flush()
}

// readLiteral decodes a PDF literal string starting after its opening
// parenthesis. It returns the text and the index of the closing parenthesis.
func readLiteral(content []byte, i int) (string, int) {
	var s strings.Builder
	depth := 0
	for ; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '\\' && i+1 < len(content):
			i++
			switch e := content[i]; {
			case e == 'n':
				s.WriteByte('\n')
			case e == 'r', e == '\n':
			case e == 't':
				s.WriteByte(' ')
			case e == 'b', e == 'f':
			case e >= '0' && e <= '7':
				end := i
				for end+1 < len(content) && end-i < 2 && content[end+1] >= '0' && content[end+1] <= '7' {
					end++
				}
				if n, err := strconv.ParseUint(string(content[i:end+1]), 8, 8); err == nil {
					s.WriteByte(byte(n))
				}
				i = end
			default:
				s.WriteByte(e)
			}
		case c == '(':
			depth++
			s.WriteByte(c)
		case c == ')':
			if depth == 0 {
				return s.String(), i
			}
			depth--
			s.WriteByte(c)
		default:
			s.WriteByte(c)
		}
	}
	return s.String(), i
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
