package parsers

import (
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/text/unicode/runenames"

	"github.com/mvp-joe/project-census/internal/analyzer/extraction"
)

// pythonDocstring returns the docstring of a function or class body: the first
// statement when it is a bare string literal. Bytes and f-strings do not count.
// An empty docstring after cleaning is reported as absent.
func pythonDocstring(body *sitter.Node, source []byte) extraction.Documentation {
	stmts := namedChildren(body)
	if len(stmts) == 0 {
		return extraction.Documentation{}
	}

	first := stmts[0]
	if first.Kind() != "expression_statement" || first.NamedChildCount() != 1 {
		return extraction.Documentation{}
	}

	expr := first.NamedChild(0)
	var parts []*sitter.Node
	switch expr.Kind() {
	case "string":
		parts = []*sitter.Node{expr}
	case "concatenated_string":
		parts = namedChildren(expr)
	default:
		return extraction.Documentation{}
	}

	var sb strings.Builder
	for _, part := range parts {
		if part.Kind() != "string" {
			return extraction.Documentation{}
		}
		value, ok := stringLiteralValue(extractNodeText(part, source))
		if !ok {
			return extraction.Documentation{}
		}
		sb.WriteString(value)
	}

	doc := cleandoc(sb.String())
	if doc == "" {
		return extraction.Documentation{}
	}
	return extraction.Doc(doc)
}

// stringLiteralValue decodes a Python string literal including its prefix and
// quotes. It returns false for bytes and formatted literals.
func stringLiteralValue(literal string) (string, bool) {
	literal = strings.ReplaceAll(literal, "\r\n", "\n")

	quoteAt := strings.IndexAny(literal, `'"`)
	if quoteAt < 0 {
		return "", false
	}

	prefix := strings.ToLower(literal[:quoteAt])
	if strings.ContainsAny(prefix, "bft") {
		return "", false
	}
	raw := strings.Contains(prefix, "r")

	body := literal[quoteAt:]
	quoteLen := 1
	if strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`) {
		quoteLen = 3
	}
	if len(body) < 2*quoteLen {
		return "", false
	}
	body = body[quoteLen : len(body)-quoteLen]

	if raw {
		return body, true
	}
	return unescapePython(body), true
}

// unescapePython decodes backslash escapes the way a non-raw Python string
// literal does. Unrecognized or malformed escapes are kept verbatim.
func unescapePython(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))

	for len(s) > 0 {
		if s[0] != '\\' || len(s) == 1 {
			_, size := utf8.DecodeRuneInString(s)
			sb.WriteString(s[:size])
			s = s[size:]
			continue
		}

		r, n, ok := pythonEscape(s)
		if !ok {
			sb.WriteByte('\\')
			s = s[1:]
			continue
		}
		if r >= 0 {
			sb.WriteRune(r)
		}
		s = s[n:]
	}

	return sb.String()
}

var simpleEscapes = map[byte]rune{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
}

// pythonEscape decodes the escape sequence at the start of s, which begins
// with a backslash. It returns the rune (-1 for a line continuation) and the
// number of bytes consumed.
func pythonEscape(s string) (rune, int, bool) {
	c := s[1]
	if c == '\n' {
		return -1, 2, true
	}
	if r, ok := simpleEscapes[c]; ok {
		return r, 2, true
	}

	switch {
	case c >= '0' && c <= '7':
		n := 2
		for n < 4 && n < len(s) && s[n] >= '0' && s[n] <= '7' {
			n++
		}
		v, _ := strconv.ParseUint(s[1:n], 8, 32)
		return rune(v), n, true
	case c == 'x':
		return hexEscape(s, 2)
	case c == 'u':
		return hexEscape(s, 4)
	case c == 'U':
		return hexEscape(s, 8)
	case c == 'N':
		if len(s) < 3 || s[2] != '{' {
			return 0, 0, false
		}
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, 0, false
		}
		r, ok := lookupRuneName(s[3:end])
		return r, end + 1, ok
	}
	return 0, 0, false
}

func hexEscape(s string, digits int) (rune, int, bool) {
	if len(s) < 2+digits {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[2:2+digits], 16, 32)
	if err != nil || v > unicode.MaxRune {
		return 0, 0, false
	}
	return rune(v), 2 + digits, true
}

var (
	runeNamesOnce sync.Once
	runeNames     map[string]rune
)

// lookupRuneName resolves a \N{...} character name, ignoring case.
func lookupRuneName(name string) (rune, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}

	for _, prefix := range []string{"CJK UNIFIED IDEOGRAPH-", "CJK COMPATIBILITY IDEOGRAPH-"} {
		if hex, ok := strings.CutPrefix(name, prefix); ok {
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil || v > unicode.MaxRune {
				return 0, false
			}
			return rune(v), true
		}
	}

	runeNamesOnce.Do(func() {
		runeNames = make(map[string]rune, 40000)
		for r := rune(0); r <= unicode.MaxRune; r++ {
			if r >= 0xD800 && r <= 0xDFFF {
				continue
			}
			n := runenames.Name(r)
			if n == "" || strings.HasPrefix(n, "<") {
				continue
			}
			if _, dup := runeNames[n]; !dup {
				runeNames[n] = r
			}
		}
	})

	r, ok := runeNames[name]
	return r, ok
}

// cleandoc normalizes docstring indentation: tabs are expanded, the first
// line is left-trimmed, the common leading whitespace of the remaining lines
// is removed, and blank lines at either end are dropped.
func cleandoc(doc string) string {
	lines := strings.Split(expandTabs(doc, 8), "\n")

	margin := -1
	for _, line := range lines[1:] {
		runes := []rune(line)
		content := len([]rune(strings.TrimLeftFunc(line, unicode.IsSpace)))
		if content == 0 {
			continue
		}
		indent := len(runes) - content
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeftFunc(lines[0], unicode.IsSpace)
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			runes := []rune(lines[i])
			if len(runes) <= margin {
				lines[i] = ""
				continue
			}
			lines[i] = string(runes[margin:])
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}

	return strings.Join(lines, "\n")
}

// expandTabs replaces each tab with spaces up to the next multiple of size,
// with columns counted from the start of each line.
func expandTabs(s string, size int) string {
	if !strings.Contains(s, "\t") {
		return s
	}

	var sb strings.Builder
	column := 0
	for _, r := range s {
		switch r {
		case '\t':
			pad := size - column%size
			sb.WriteString(strings.Repeat(" ", pad))
			column += pad
		case '\n', '\r':
			sb.WriteRune(r)
			column = 0
		default:
			sb.WriteRune(r)
			column++
		}
	}
	return sb.String()
}
