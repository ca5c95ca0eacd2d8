package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chazu/brushwork/pkg/graph"
)

// kwPrefix marks keyword names rewritten by preprocessSource. Keywords
// become plain string literals so they never collide with script
// variables of the same name.
const kwPrefix = "__kw_"

// preprocessSource rewrites brush script source into text zygomys accepts:
// ";" comments become "//" comments, :keyword tokens become "__kw_keyword"
// strings and kebab-case identifiers get underscores. String literals are
// copied untouched and line structure is kept, so zygomys error positions
// still point into the original source.
func preprocessSource(source string) string {
	s := scanner{src: source}
	s.out.Grow(len(source) + len(source)/4)
	for !s.done() {
		switch c := s.peek(0); {
		case c == '"':
			s.quoted('"', true)
		case c == '`':
			s.quoted('`', false)
		case c == ';':
			s.comment()
		case c == ':' && s.peek(1) == '=':
			s.copy(2)
		case c == ':' && isLetter(s.peek(1)):
			s.keyword()
		case c == '-' && s.pos > 0 && isIdentChar(s.src[s.pos-1]) && isLetter(s.peek(1)):
			s.out.WriteByte('_')
			s.pos++
		default:
			s.copy(1)
		}
	}
	return s.out.String()
}

type scanner struct {
	src string
	pos int
	out strings.Builder
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

// peek returns the byte off positions ahead, or 0 past the end.
func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) copy(n int) {
	end := min(s.pos+n, len(s.src))
	s.out.WriteString(s.src[s.pos:end])
	s.pos = end
}

// quoted copies a literal delimited by q, honoring backslash escapes when
// escapes is set. An unterminated literal runs to the end of the source.
func (s *scanner) quoted(q byte, escapes bool) {
	s.copy(1)
	for !s.done() {
		switch c := s.peek(0); {
		case c == q:
			s.copy(1)
			return
		case escapes && c == '\\':
			s.copy(2)
		default:
			s.copy(1)
		}
	}
}

func (s *scanner) comment() {
	for s.peek(0) == ';' {
		s.pos++
	}
	s.out.WriteString("//")
	end := strings.IndexByte(s.src[s.pos:], '\n')
	if end < 0 {
		end = len(s.src) - s.pos
	}
	s.copy(end)
}

func (s *scanner) keyword() {
	start := s.pos + 1
	end := start
	for end < len(s.src) && isKWChar(s.src[end]) {
		end++
	}
	s.out.WriteString(`"` + kwPrefix + s.src[start:end] + `"`)
	s.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }

func isKWChar(c byte) bool { return isIdentChar(c) || c == '-' }

// zygomysLine matches the position prefix zygomys puts on errors, as in
// "Error on line 5: unexpected token" or "line 5: ...".
var zygomysLine = regexp.MustCompile(`(?i)(?:\bon line|^line) (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into script errors, keeping
// the line number when zygomys reports one.
func parseZygomysError(err error) []EvalError {
	msg := strings.TrimSpace(err.Error())
	m := zygomysLine.FindStringSubmatch(msg)
	if m == nil {
		return []EvalError{{Message: msg}}
	}
	line, _ := strconv.Atoi(m[1])
	return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
}

// locateSources records the position of the form that defines each named
// node. Anonymous nodes keep a zero position.
func locateSources(g *graph.DesignGraph, source string) {
	lines := strings.Split(source, "\n")
	for _, n := range g.Nodes {
		if n.Name == "" {
			continue
		}
		head := "(defbrush "
		if n.Kind == graph.NodeGroup {
			head = "(group "
		}
		needle := head + strconv.Quote(n.Name)
		for i, line := range lines {
			if col := strings.Index(line, needle); col >= 0 {
				n.Source = graph.SourceRef{Line: i + 1, Col: col + 1}
				break
			}
		}
	}
}
