// Package loader extracts plain text from uploaded PDF documents.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ExtractText parses the PDF and returns the text of all pages in order.
// A document that cannot be parsed is a terminal error for its session.
// Decoding is best effort: text is recovered from the string operands of
// the page content streams, which covers standard-encoded documents.
func ExtractText(data []byte) (string, error) {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read page %d content: %w", pageNr, err)
		}
		sb.WriteString(decodePageText(content))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// decodePageText walks a decoded content stream and collects the literal
// and hex string operands fed to the text-showing operators. Positioning
// operators that start a new line emit a newline so words don't fuse.
func decodePageText(content []byte) string {
	var sb strings.Builder
	i := 0
	for i < len(content) {
		switch content[i] {
		case '(':
			s, next := readLiteralString(content, i)
			sb.WriteString(s)
			i = next
		case '<':
			if i+1 < len(content) && content[i+1] == '<' {
				i += 2 // dictionary start, not a string
				continue
			}
			s, next := readHexString(content, i)
			sb.WriteString(s)
			i = next
		case 'T':
			if i+1 < len(content) && (content[i+1] == 'd' || content[i+1] == 'D' || content[i+1] == '*') {
				sb.WriteByte('\n')
				i += 2
				continue
			}
			i++
		default:
			i++
		}
	}
	return sb.String()
}

// readLiteralString consumes a (...) string starting at start, handling
// nested parentheses, escape sequences and octal codes.
func readLiteralString(content []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	i := start
	for i < len(content) {
		c := content[i]
		switch c {
		case '\\':
			if i+1 >= len(content) {
				return sb.String(), i + 1
			}
			i++
			switch e := content[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
				// no visible text
			case '(', ')', '\\':
				sb.WriteByte(e)
			case '\n', '\r':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					code := int(e - '0')
					for n := 0; n < 2 && i+1 < len(content) && content[i+1] >= '0' && content[i+1] <= '7'; n++ {
						i++
						code = code*8 + int(content[i]-'0')
					}
					sb.WriteByte(byte(code))
				} else {
					sb.WriteByte(e)
				}
			}
			i++
		case '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i
}

// readHexString consumes a <...> string starting at start.
func readHexString(content []byte, start int) (string, int) {
	var sb strings.Builder
	i := start + 1
	var hi byte
	haveHi := false
	for i < len(content) && content[i] != '>' {
		c := content[i]
		v, ok := hexVal(c)
		if ok {
			if haveHi {
				sb.WriteByte(hi<<4 | v)
				haveHi = false
			} else {
				hi = v
				haveHi = true
			}
		}
		i++
	}
	if haveHi {
		// odd digit count: trailing digit implies a zero low nibble
		sb.WriteByte(hi << 4)
	}
	if i < len(content) {
		i++ // consume '>'
	}
	return sb.String(), i
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
