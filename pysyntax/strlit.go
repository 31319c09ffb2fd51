package pysyntax

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// UnquoteString returns the value of a single Python string literal
// token, including any prefix. f-strings are returned with their
// replacement fields left untouched.
func UnquoteString(lit string) (string, error) {
	i := strings.IndexAny(lit, `'"`)
	if i < 0 || !isStringPrefix(lit[:i]) && i != 0 {
		return "", &Error{Msg: "malformed string literal " + strconv.Quote(lit)}
	}
	prefix := strings.ToLower(lit[:i])
	body := lit[i:]
	quote := body[:1]
	if strings.HasPrefix(body, strings.Repeat(quote, 3)) && len(body) >= 6 {
		quote = strings.Repeat(quote, 3)
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return "", &Error{Msg: "malformed string literal " + strconv.Quote(lit)}
	}
	body = body[len(quote) : len(body)-len(quote)]
	if strings.Contains(prefix, "r") {
		return body, nil
	}
	return unescape(body, strings.Contains(prefix, "b"))
}

func unescape(s string, bytesLit bool) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 32)
			writeCode(&b, rune(n), bytesLit)
			i = j - 1
		case 'x':
			if i+3 > len(s) {
				return "", &Error{Msg: `truncated \xXX escape`}
			}
			n, err := strconv.ParseUint(s[i+1:i+3], 16, 32)
			if err != nil {
				return "", &Error{Msg: `invalid \xXX escape`}
			}
			writeCode(&b, rune(n), bytesLit)
			i += 2
		case 'u', 'U':
			size := 4
			if e == 'U' {
				size = 8
			}
			if bytesLit {
				b.WriteByte('\\')
				b.WriteByte(e)
				continue
			}
			if i+1+size > len(s) {
				return "", &Error{Msg: "truncated \\" + string(e) + " escape"}
			}
			n, err := strconv.ParseUint(s[i+1:i+1+size], 16, 32)
			if err != nil || n > utf8.MaxRune {
				return "", &Error{Msg: "invalid \\" + string(e) + " escape"}
			}
			b.WriteRune(rune(n))
			i += size
		default:
			// Unknown escapes, including \N{...}, are kept verbatim.
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

func writeCode(b *strings.Builder, r rune, bytesLit bool) {
	if bytesLit || r < utf8.RuneSelf {
		b.WriteByte(byte(r))
	} else {
		b.WriteRune(r)
	}
}
