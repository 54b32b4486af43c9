package extract

import (
	"bytes"
	"errors"
	"strings"
)

// extractRTF strips RTF control words and groups, keeping the document text.
// Paragraph and line controls become newlines; font, color, style and info
// groups are dropped entirely.
func extractRTF(data []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte(`{\rtf`)) {
		return "", errors.New("not an rtf document")
	}

	var out strings.Builder
	depth := 0
	skipDepth := 0 // group depth we are skipping until it closes

	i := 0
	for i < len(data) {
		switch ch := data[i]; ch {
		case '{':
			depth++
			i++
		case '}':
			if skipDepth > 0 && depth == skipDepth {
				skipDepth = 0
			}
			depth--
			i++
		case '\\':
			i = consumeControl(data, i+1, depth, &skipDepth, &out)
		case '\r', '\n':
			i++
		default:
			if skipDepth == 0 {
				out.WriteByte(ch)
			}
			i++
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// consumeControl handles the token after a backslash and returns the index of
// the next unconsumed byte.
func consumeControl(data []byte, i int, depth int, skipDepth *int, out *strings.Builder) int {
	if i >= len(data) {
		return i
	}

	switch c := data[i]; {
	case c == '\'':
		// \'hh hex-escaped byte
		if i+2 < len(data) {
			if b, ok := hexByte(data[i+1], data[i+2]); ok && *skipDepth == 0 {
				out.WriteByte(b)
			}
			return i + 3
		}
		return len(data)
	case c == '\\' || c == '{' || c == '}':
		if *skipDepth == 0 {
			out.WriteByte(c)
		}
		return i + 1
	case c == '~':
		if *skipDepth == 0 {
			out.WriteByte(' ')
		}
		return i + 1
	case c == '*':
		// ignorable destination, drop the whole group
		if *skipDepth == 0 {
			*skipDepth = depth
		}
		return i + 1
	case isAlpha(c):
		word, arg, hasArg, next := readControlWord(data, i)
		if *skipDepth != 0 {
			return next
		}
		switch word {
		case "par", "line", "sect", "page":
			out.WriteString("\n")
		case "tab":
			out.WriteString("\t")
		case "u":
			if hasArg {
				if arg < 0 {
					arg += 65536
				}
				out.WriteRune(rune(arg))
				// the byte after \uN is the ANSI fallback, skip it
				if next < len(data) && data[next] != '\\' && data[next] != '{' && data[next] != '}' {
					next++
				}
			}
		case "fonttbl", "colortbl", "stylesheet", "info", "pict", "themedata", "header", "footer":
			*skipDepth = depth
		}
		return next
	default:
		// unknown escape, drop it
		return i + 1
	}
}

// readControlWord parses a control word with its optional numeric argument.
// A single trailing space belongs to the control word.
func readControlWord(data []byte, i int) (word string, arg int, hasArg bool, next int) {
	j := i
	for j < len(data) && isAlpha(data[j]) {
		j++
	}
	word = string(data[i:j])

	k := j
	neg := false
	if k < len(data) && data[k] == '-' {
		neg = true
		k++
	}
	for k < len(data) && isDigit(data[k]) {
		arg = arg*10 + int(data[k]-'0')
		hasArg = true
		k++
	}
	if neg {
		arg = -arg
	}
	if k < len(data) && data[k] == ' ' {
		k++
	}
	return word, arg, hasArg, k
}

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexVal(hi)
	l, ok2 := hexVal(lo)
	if !ok1 || !ok2 {
		return 0, false
	}
	return h<<4 | l, true
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

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
