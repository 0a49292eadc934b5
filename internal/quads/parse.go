// Package quads reads N-Triples and N-Quads dumps into models.Triple values.
//
// The parser is line-oriented and forgiving in the same places real dumps
// need it to be: bare unquoted tokens are accepted as terms, a fourth
// (graph) term is parsed and dropped, datatypes are ignored, and language
// tagged literals can be filtered to a single language.
package quads

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/persistorai/triplewalk/internal/models"
)

// Parse errors.
var (
	ErrUnterminated = errors.New("unterminated term")
	ErrBadEscape    = errors.New("invalid escape sequence")
	ErrMissingDot   = errors.New("statement must end with '.'")
	ErrTooFewTerms  = errors.New("statement needs subject, predicate and object")
)

// errSkipLanguage marks a literal whose language tag is filtered out.
var errSkipLanguage = errors.New("language filtered")

// Parser turns single statements into triples.
type Parser struct {
	// Lang keeps only literals tagged with this language (plus untagged
	// literals). Empty keeps every literal.
	Lang string
}

// ParseLine parses one statement. ok is false for blank lines, comments and
// statements dropped by the language filter.
func (p Parser) ParseLine(line string) (models.Triple, bool, error) {
	rest := strings.TrimSpace(line)
	if rest == "" || rest[0] == '#' {
		return models.Triple{}, false, nil
	}

	var terms [4]string

	n := 0

	for n < len(terms) {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" || rest[0] == '.' {
			break
		}

		term, remainder, err := p.term(rest)
		if errors.Is(err, errSkipLanguage) {
			return models.Triple{}, false, nil
		}

		if err != nil {
			return models.Triple{}, false, fmt.Errorf("term %d: %w", n+1, err)
		}

		terms[n] = term
		n++
		rest = remainder
	}

	if n < 3 {
		return models.Triple{}, false, ErrTooFewTerms
	}

	rest = strings.TrimSpace(rest)
	if rest == "" || rest[0] != '.' {
		return models.Triple{}, false, ErrMissingDot
	}

	t := models.Triple{
		Subject:   models.Node(terms[0]),
		Predicate: models.Node(terms[1]),
		Object:    models.Node(terms[2]),
	}

	if err := t.Validate(); err != nil {
		return models.Triple{}, false, err
	}

	return t, true, nil
}

// ParseLine parses one statement with no language filter.
func ParseLine(line string) (models.Triple, bool, error) {
	return Parser{}.ParseLine(line)
}

func (p Parser) term(s string) (string, string, error) {
	switch s[0] {
	case '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", s, ErrUnterminated
		}

		return s[1:end], s[end+1:], nil
	case '"':
		return p.literal(s[1:])
	default:
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			end = len(s)
		}

		// A bare token may run into the terminating dot: `_:b1 <p> _:b2.`
		tok := s[:end]
		if end == len(s) && len(tok) > 1 && strings.HasSuffix(tok, ".") {
			tok = tok[:len(tok)-1]
			end--
		}

		return tok, s[end:], nil
	}
}

// literal parses the body of a quoted literal (after the opening quote),
// then an optional ^^<datatype> or @lang suffix.
func (p Parser) literal(s string) (string, string, error) {
	var b strings.Builder

	i := 0
	for {
		if i >= len(s) {
			return "", s, ErrUnterminated
		}

		c := s[i]
		if c == '"' {
			break
		}

		if c != '\\' {
			b.WriteByte(c)
			i++

			continue
		}

		if i+1 >= len(s) {
			return "", s, ErrUnterminated
		}

		n, err := unescape(&b, s[i+1:])
		if err != nil {
			return "", s, err
		}

		i += 1 + n
	}

	rest := s[i+1:]

	switch {
	case strings.HasPrefix(rest, "^^<"):
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return "", rest, ErrUnterminated
		}

		rest = rest[end+1:]
	case strings.HasPrefix(rest, "@"):
		end := strings.IndexAny(rest, " \t.")
		if end < 0 {
			end = len(rest)
		}

		lang := rest[1:end]
		rest = rest[end:]

		if p.Lang != "" && !strings.EqualFold(lang, p.Lang) {
			return "", rest, errSkipLanguage
		}
	}

	return b.String(), rest, nil
}

// unescape decodes the escape whose body (after the backslash) starts s and
// returns how many bytes of s it consumed.
func unescape(b *strings.Builder, s string) (int, error) {
	switch s[0] {
	case '\\':
		b.WriteByte('\\')
	case '"':
		b.WriteByte('"')
	case '\'':
		b.WriteByte('\'')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'u', 'U':
		width := 4
		if s[0] == 'U' {
			width = 8
		}

		if len(s) < 1+width {
			return 0, ErrBadEscape
		}

		code, err := strconv.ParseUint(s[1:1+width], 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return 0, ErrBadEscape
		}

		b.WriteRune(rune(code))

		return 1 + width, nil
	default:
		return 0, ErrBadEscape
	}

	return 1, nil
}
