package edn

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

type parser struct {
	src      []byte
	pos      int
	label    string
	registry *Registry
}

// errorAt builds a SyntaxError for byte offset off.
func (p *parser) errorAt(off int, format string, args ...any) error {
	line, col := 1, 1
	for i := 0; i < off && i < len(p.src); i++ {
		if p.src[i] == '\n' {
			line++
			col = 1
			continue
		}
		// count runes, not bytes
		if utf8.RuneStart(p.src[i]) {
			col++
		}
	}
	return &SyntaxError{Source: p.label, Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) errorf(format string, args ...any) error {
	return p.errorAt(p.pos, format, args...)
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(n int) byte {
	if p.pos+n >= len(p.src) {
		return 0
	}
	return p.src[p.pos+n]
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(string(p.src[p.pos:]), s)
}

// skipSpace skips whitespace and both comment forms.
func (p *parser) skipSpace() error {
	for !p.eof() {
		switch c := p.peek(); c {
		case ' ', '\t', '\n', '\r':
			p.pos++
		case '#':
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
		case '/':
			start := p.pos
			p.pos++
			for !p.eof() && p.peek() != '/' {
				p.pos++
			}
			if p.eof() {
				return p.errorAt(start, "unterminated comment")
			}
			p.pos++
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, found end of input", c)
		}
		return p.errorf("expected %q, found %q", c, p.peek())
	}
	p.pos++
	return nil
}

// parseSequence parses zero or more items up to end of input.
func (p *parser) parseSequence() ([]byte, error) {
	var out []byte
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.eof() {
			return out, nil
		}
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		out = append(out, item...)
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.peek() == ',' {
			p.pos++
		}
	}
}

func (p *parser) parseItem() ([]byte, error) {
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}
	c := p.peek()
	switch {
	case c == '[':
		return p.parseArray()
	case c == '{':
		return p.parseMap()
	case c == '"' || c == '\'':
		return p.parseStrings()
	case c == '<' && p.peekAt(1) == '<':
		return p.parseStrings()
	case c == '(' && p.peekAt(1) == '_':
		return p.parseStreamingString()
	case c == '-' || isDigit(c):
		return p.parseNumber()
	case isLetter(c):
		return p.parseWord()
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

// parseIndicator consumes an encoding indicator if one follows.
// allowIndefinite permits the bare "_" form.
func (p *parser) parseIndicator(allowIndefinite bool) (indicator, error) {
	if p.peek() != '_' {
		return indPreferred, nil
	}
	start := p.pos
	p.pos++
	var ind indicator
	switch p.peek() {
	case 'i':
		ind = indImmediate
	case '0':
		ind = ind1
	case '1':
		ind = ind2
	case '2':
		ind = ind4
	case '3':
		ind = ind8
	default:
		if !allowIndefinite {
			return 0, p.errorAt(start, "indefinite length indicator not allowed here")
		}
		return indIndefinite, nil
	}
	p.pos++
	if isWordChar(p.peek()) {
		return 0, p.errorAt(start, "invalid encoding indicator")
	}
	return ind, nil
}

func (p *parser) parseArray() ([]byte, error) {
	p.pos++ // [
	ind, err := p.parseIndicator(true)
	if err != nil {
		return nil, err
	}
	var items [][]byte
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.peek() == ']' {
			p.pos++
			break
		}
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if err := p.separator(']'); err != nil {
			return nil, err
		}
	}
	out, err := encodeContainer(majorArray, items, len(items), ind)
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	return out, nil
}

func (p *parser) parseMap() ([]byte, error) {
	p.pos++ // {
	ind, err := p.parseIndicator(true)
	if err != nil {
		return nil, err
	}
	var items [][]byte
	pairs := 0
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.peek() == '}' {
			p.pos++
			break
		}
		if p.eof() {
			return nil, p.errorf("unterminated map")
		}
		key, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		value, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, key, value)
		pairs++
		if err := p.separator('}'); err != nil {
			return nil, err
		}
	}
	out, err := encodeContainer(majorMap, items, pairs, ind)
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	return out, nil
}

// separator consumes an optional comma between container members and
// checks that the container continues or closes.
func (p *parser) separator(closer byte) error {
	if err := p.skipSpace(); err != nil {
		return err
	}
	if p.peek() == ',' {
		p.pos++
		return nil
	}
	if p.eof() {
		return p.errorf("expected %q, found end of input", closer)
	}
	return nil
}

// stringPart is one literal in a concatenation.
type stringPart struct {
	major   byte
	content []byte
	item    []byte // set for extension literals, which are complete items
	off     int
}

// parseStrings parses a string literal, any "+" concatenation that
// follows it, and a trailing encoding indicator.
func (p *parser) parseStrings() ([]byte, error) {
	start := p.pos
	first, err := p.parseStringPart()
	if err != nil {
		return nil, err
	}
	parts := []stringPart{first}
	for {
		save := p.pos
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.peek() != '+' {
			p.pos = save
			break
		}
		p.pos++
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		part, err := p.parseStringPart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	if first.item != nil {
		if len(parts) > 1 {
			return nil, p.errorAt(parts[1].off, "application extension literal cannot be concatenated")
		}
		if p.peek() == '_' {
			return nil, p.errorf("encoding indicator not allowed on application extension literal")
		}
		return first.item, nil
	}

	major := first.major
	var content []byte
	for _, part := range parts {
		if part.item != nil {
			return nil, p.errorAt(part.off, "application extension literal cannot be concatenated")
		}
		switch {
		case part.major == major:
		case major == majorText && part.major == majorBytes:
			// bytes may join text when the result is valid UTF-8
		default:
			return nil, p.errorAt(part.off, "cannot concatenate text string onto byte string")
		}
		content = append(content, part.content...)
	}
	if major == majorText && !utf8.Valid(content) {
		return nil, p.errorAt(start, "concatenated text string is not valid UTF-8")
	}

	ind, err := p.parseIndicator(true)
	if err != nil {
		return nil, err
	}
	var chunks [][]byte
	if ind != indIndefinite || len(content) > 0 {
		chunks = [][]byte{content}
	}
	out, err := encodeString(major, chunks, ind)
	if err != nil {
		return nil, p.errorAt(start, "%v", err)
	}
	return out, nil
}

func (p *parser) parseStringPart() (stringPart, error) {
	off := p.pos
	switch c := p.peek(); {
	case c == '"':
		s, err := p.parseQuoted('"')
		if err != nil {
			return stringPart{}, err
		}
		return stringPart{major: majorText, content: []byte(s), off: off}, nil
	case c == '\'':
		s, err := p.parseQuoted('\'')
		if err != nil {
			return stringPart{}, err
		}
		return stringPart{major: majorBytes, content: []byte(s), off: off}, nil
	case c == '<' && p.peekAt(1) == '<':
		content, err := p.parseEmbedded()
		if err != nil {
			return stringPart{}, err
		}
		return stringPart{major: majorBytes, content: content, off: off}, nil
	case isLetter(c):
		word := p.readWord()
		if p.peek() != '\'' {
			return stringPart{}, p.errorAt(off, "expected string, found %q", word)
		}
		return p.parseAppString(word, off)
	default:
		if p.eof() {
			return stringPart{}, p.errorf("expected string, found end of input")
		}
		return stringPart{}, p.errorf("expected string, found %q", c)
	}
}

// parseQuoted reads a quoted literal and resolves its escapes.
func (p *parser) parseQuoted(quote byte) (string, error) {
	start := p.pos
	p.pos++
	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorAt(start, "unterminated string")
		}
		c := p.peek()
		if c == quote {
			p.pos++
			return sb.String(), nil
		}
		if c != '\\' {
			r, size := utf8.DecodeRune(p.src[p.pos:])
			if r == utf8.RuneError && size <= 1 {
				return "", p.errorf("invalid UTF-8 in string")
			}
			sb.WriteRune(r)
			p.pos += size
			continue
		}
		escOff := p.pos
		p.pos++
		switch e := p.peek(); e {
		case '"', '\'', '\\', '/':
			sb.WriteByte(e)
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'u':
			p.pos++
			r, err := p.parseUnicodeEscape(escOff)
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
			continue
		default:
			return "", p.errorAt(escOff, "invalid escape sequence")
		}
		p.pos++
	}
}

// parseUnicodeEscape reads the part of a \u escape after the "u":
// either {hex...} or four hex digits, joining surrogate pairs.
func (p *parser) parseUnicodeEscape(escOff int) (rune, error) {
	if p.peek() == '{' {
		p.pos++
		start := p.pos
		for isHexDigit(p.peek()) {
			p.pos++
		}
		digits := string(p.src[start:p.pos])
		if err := p.expect('}'); err != nil {
			return 0, err
		}
		v, err := strconv.ParseUint(digits, 16, 32)
		if err != nil || v > utf8.MaxRune || (v >= 0xd800 && v <= 0xdfff) {
			return 0, p.errorAt(escOff, "invalid unicode escape")
		}
		return rune(v), nil
	}
	hi, ok := p.hex4()
	if !ok {
		return 0, p.errorAt(escOff, "invalid unicode escape")
	}
	if hi < 0xd800 || hi > 0xdfff {
		return rune(hi), nil
	}
	if hi > 0xdbff || !p.hasPrefix(`\u`) {
		return 0, p.errorAt(escOff, "unpaired surrogate in unicode escape")
	}
	p.pos += 2
	lo, ok := p.hex4()
	if !ok || lo < 0xdc00 || lo > 0xdfff {
		return 0, p.errorAt(escOff, "unpaired surrogate in unicode escape")
	}
	return 0x10000 + (rune(hi)-0xd800)<<10 + (rune(lo) - 0xdc00), nil
}

func (p *parser) hex4() (uint64, bool) {
	if p.pos+4 > len(p.src) {
		return 0, false
	}
	v, err := strconv.ParseUint(string(p.src[p.pos:p.pos+4]), 16, 16)
	if err != nil {
		return 0, false
	}
	p.pos += 4
	return v, true
}

// parseEmbedded parses <<item, ...>> and returns the concatenated items.
func (p *parser) parseEmbedded() ([]byte, error) {
	start := p.pos
	p.pos += 2
	var content []byte
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.hasPrefix(">>") {
			p.pos += 2
			return content, nil
		}
		if p.eof() {
			return nil, p.errorAt(start, "unterminated embedded sequence")
		}
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		content = append(content, item...)
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.peek() == ',' {
			p.pos++
		}
	}
}

// parseStreamingString parses (_ chunk, chunk, ...).
func (p *parser) parseStreamingString() ([]byte, error) {
	start := p.pos
	p.pos += 2
	var (
		major  byte
		chunks [][]byte
	)
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.peek() == ')' {
			p.pos++
			break
		}
		if p.eof() {
			return nil, p.errorAt(start, "unterminated indefinite length string")
		}
		part, err := p.parseStringPart()
		if err != nil {
			return nil, err
		}
		if part.item != nil {
			return nil, p.errorAt(part.off, "application extension literal not allowed as string chunk")
		}
		if len(chunks) == 0 {
			major = part.major
		} else if part.major != major {
			return nil, p.errorAt(part.off, "indefinite length string chunks must share a type")
		}
		if major == majorText && !utf8.Valid(part.content) {
			return nil, p.errorAt(part.off, "text chunk is not valid UTF-8")
		}
		chunks = append(chunks, part.content)
		if err := p.separator(')'); err != nil {
			return nil, err
		}
	}
	if len(chunks) == 0 {
		return nil, p.errorAt(start, "indefinite length string needs at least one chunk; use \"\"_ or ''_ for none")
	}
	out, err := encodeString(major, chunks, indIndefinite)
	if err != nil {
		return nil, p.errorAt(start, "%v", err)
	}
	return out, nil
}

// parseNumber handles integers, floats, signed infinity, and tags.
func (p *parser) parseNumber() ([]byte, error) {
	start := p.pos
	neg := false
	if p.peek() == '-' {
		neg = true
		p.pos++
	}
	if p.hasPrefix("Infinity") {
		p.pos += len("Infinity")
		if isWordChar(p.peek()) {
			return nil, p.errorAt(start, "invalid number")
		}
		return p.finishFloat(math.Inf(boolSign(neg)), start)
	}
	if !isDigit(p.peek()) {
		return nil, p.errorAt(start, "invalid number")
	}

	base := 10
	if p.peek() == '0' {
		switch p.peekAt(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
	}
	digitsStart := p.pos
	if base != 10 {
		p.pos += 2
		digitsStart = p.pos
	}

	isFloat := false
scan:
	for !p.eof() {
		c := p.peek()
		switch {
		case base == 16 && isHexDigit(c):
		case base == 10 && isDigit(c):
		case base == 8 && c >= '0' && c <= '7':
		case base == 2 && (c == '0' || c == '1'):
		case (base == 10 || base == 16) && c == '.' && isFloatDigit(p.peekAt(1), base):
			isFloat = true
		case base == 10 && (c == 'e' || c == 'E'):
			isFloat = true
			if s := p.peekAt(1); s == '+' || s == '-' {
				p.pos++
			}
		case base == 16 && (c == 'p' || c == 'P'):
			isFloat = true
			if s := p.peekAt(1); s == '+' || s == '-' {
				p.pos++
			}
		default:
			break scan
		}
		p.pos++
	}
	text := string(p.src[digitsStart:p.pos])
	if text == "" {
		return nil, p.errorAt(start, "invalid number")
	}

	if isFloat {
		literal := text
		if base == 16 {
			literal = "0x" + text
			if !strings.ContainsAny(text, "pP") {
				return nil, p.errorAt(start, "hexadecimal float needs a binary exponent")
			}
		}
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil && !isRangeError(err) {
			return nil, p.errorAt(start, "invalid number %q", string(p.src[start:p.pos]))
		}
		if neg {
			f = -f
		}
		if isWordChar(p.peek()) && p.peek() != '_' {
			return nil, p.errorAt(start, "invalid number")
		}
		return p.finishFloat(f, start)
	}

	n, ok := new(big.Int).SetString(text, base)
	if !ok {
		return nil, p.errorAt(start, "invalid number %q", string(p.src[start:p.pos]))
	}
	if neg {
		n.Neg(n)
	}
	ind, err := p.parseIndicator(false)
	if err != nil {
		return nil, err
	}
	if p.peek() == '(' {
		return p.parseTag(n, ind, start)
	}
	if isWordChar(p.peek()) {
		return nil, p.errorAt(start, "invalid number")
	}
	out, err := encodeInteger(n, ind)
	if err != nil {
		return nil, p.errorAt(start, "%v", err)
	}
	return out, nil
}

func (p *parser) finishFloat(f float64, start int) ([]byte, error) {
	ind, err := p.parseIndicator(false)
	if err != nil {
		return nil, err
	}
	out, err := encodeFloat(f, ind)
	if err != nil {
		return nil, p.errorAt(start, "%v", err)
	}
	return out, nil
}

func (p *parser) parseTag(n *big.Int, ind indicator, start int) ([]byte, error) {
	if n.Sign() < 0 || !n.IsUint64() {
		return nil, p.errorAt(start, "tag number must be an unsigned 64-bit integer")
	}
	p.pos++ // (
	content, err := p.parseItem()
	if err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	out, err := appendHead(nil, majorTag, n.Uint64(), ind)
	if err != nil {
		return nil, p.errorAt(start, "%v", err)
	}
	return append(out, content...), nil
}

// parseWord handles keywords, simple(n), and application literals.
func (p *parser) parseWord() ([]byte, error) {
	start := p.pos
	word := p.readWord()
	if p.peek() == '\'' {
		p.pos = start
		return p.parseStrings()
	}
	switch word {
	case "false":
		return []byte{0xf4}, nil
	case "true":
		return []byte{0xf5}, nil
	case "null":
		return []byte{0xf6}, nil
	case "undefined":
		return []byte{0xf7}, nil
	case "NaN":
		return p.finishFloat(math.NaN(), start)
	case "Infinity":
		return p.finishFloat(math.Inf(1), start)
	case "simple":
		return p.parseSimple(start)
	}
	return nil, p.errorAt(start, "unknown identifier %q", word)
}

func (p *parser) parseSimple(start int) ([]byte, error) {
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	numStart := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	v, err := strconv.ParseUint(string(p.src[numStart:p.pos]), 10, 64)
	if err != nil {
		return nil, p.errorAt(numStart, "simple value needs a decimal number")
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	out, err := encodeSimple(v)
	if err != nil {
		return nil, p.errorAt(start, "%v", err)
	}
	return out, nil
}

// readWord consumes [A-Za-z][A-Za-z0-9]*.
func (p *parser) readWord() string {
	start := p.pos
	for !p.eof() && (isLetter(p.peek()) || isDigit(p.peek())) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isWordChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isFloatDigit(c byte, base int) bool {
	if base == 16 {
		return isHexDigit(c)
	}
	return isDigit(c)
}

func boolSign(neg bool) int {
	if neg {
		return -1
	}
	return 1
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}
