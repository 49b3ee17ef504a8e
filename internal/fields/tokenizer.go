package fields

// tokenizer fills a caller-owned pool. It never allocates tokens beyond the
// pool and never retains src past a single call.
type tokenizer struct {
	src  []byte
	pos  int
	pool []Token
	n    int
}

func (t *tokenizer) run() error {
	t.skipSpace()
	if t.pos >= len(t.src) {
		return syntaxErr(t.pos, "empty payload")
	}
	if t.src[t.pos] != '{' {
		return syntaxErr(t.pos, "expected object, found %q", t.src[t.pos])
	}
	if err := t.value(-1); err != nil {
		return err
	}
	t.skipSpace()
	if t.pos != len(t.src) {
		return syntaxErr(t.pos, "unexpected trailing data")
	}
	return nil
}

func (t *tokenizer) alloc(kind Kind, start, parent int) (int, error) {
	if t.n >= len(t.pool) {
		return -1, ErrTooManyTokens
	}
	idx := t.n
	t.pool[idx] = Token{Kind: kind, Start: start, End: -1, Parent: parent}
	t.n++
	if parent >= 0 {
		t.pool[parent].Size++
	}
	return idx, nil
}

func (t *tokenizer) value(parent int) error {
	t.skipSpace()
	if t.pos >= len(t.src) {
		return syntaxErr(t.pos, "unexpected end of input")
	}
	switch c := t.src[t.pos]; {
	case c == '{':
		return t.object(parent)
	case c == '[':
		return t.array(parent)
	case c == '"':
		return t.str(KindString, parent)
	case c == '-' || isDigit(c):
		return t.number(parent)
	case c == 't':
		return t.literal("true", parent)
	case c == 'f':
		return t.literal("false", parent)
	case c == 'n':
		return t.literal("null", parent)
	default:
		return syntaxErr(t.pos, "unexpected character %q", c)
	}
}

func (t *tokenizer) object(parent int) error {
	idx, err := t.alloc(KindObject, t.pos, parent)
	if err != nil {
		return err
	}
	t.pos++
	t.skipSpace()
	if t.peek('}') {
		t.pos++
		t.pool[idx].End = t.pos
		return nil
	}
	for {
		t.skipSpace()
		if t.pos >= len(t.src) {
			return syntaxErr(t.pos, "unterminated object")
		}
		if t.src[t.pos] != '"' {
			return syntaxErr(t.pos, "expected string key")
		}
		key := t.n
		if err := t.str(KindKey, idx); err != nil {
			return err
		}
		t.skipSpace()
		if !t.peek(':') {
			return syntaxErr(t.pos, "expected ':' after key")
		}
		t.pos++
		if err := t.value(key); err != nil {
			return err
		}
		t.skipSpace()
		switch {
		case t.peek(','):
			t.pos++
		case t.peek('}'):
			t.pos++
			t.pool[idx].End = t.pos
			return nil
		case t.pos >= len(t.src):
			return syntaxErr(t.pos, "unterminated object")
		default:
			return syntaxErr(t.pos, "expected ',' or '}'")
		}
	}
}

func (t *tokenizer) array(parent int) error {
	idx, err := t.alloc(KindArray, t.pos, parent)
	if err != nil {
		return err
	}
	t.pos++
	t.skipSpace()
	if t.peek(']') {
		t.pos++
		t.pool[idx].End = t.pos
		return nil
	}
	for {
		if err := t.value(idx); err != nil {
			return err
		}
		t.skipSpace()
		switch {
		case t.peek(','):
			t.pos++
		case t.peek(']'):
			t.pos++
			t.pool[idx].End = t.pos
			return nil
		case t.pos >= len(t.src):
			return syntaxErr(t.pos, "unterminated array")
		default:
			return syntaxErr(t.pos, "expected ',' or ']'")
		}
	}
}

func (t *tokenizer) str(kind Kind, parent int) error {
	open := t.pos
	t.pos++
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		switch {
		case c == '"':
			idx, err := t.alloc(kind, open+1, parent)
			if err != nil {
				return err
			}
			t.pool[idx].End = t.pos
			t.pos++
			return nil
		case c == '\\':
			if err := t.escape(); err != nil {
				return err
			}
		case c < 0x20:
			return syntaxErr(t.pos, "control character in string")
		default:
			t.pos++
		}
	}
	return syntaxErr(open, "unterminated string")
}

func (t *tokenizer) escape() error {
	t.pos++
	if t.pos >= len(t.src) {
		return syntaxErr(t.pos, "unterminated escape")
	}
	switch t.src[t.pos] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		t.pos++
		return nil
	case 'u':
		t.pos++
		for i := 0; i < 4; i++ {
			if t.pos >= len(t.src) || !isHex(t.src[t.pos]) {
				return syntaxErr(t.pos, "invalid unicode escape")
			}
			t.pos++
		}
		return nil
	default:
		return syntaxErr(t.pos, "invalid escape %q", t.src[t.pos])
	}
}

func (t *tokenizer) number(parent int) error {
	start := t.pos
	if t.peek('-') {
		t.pos++
	}
	if !t.digits() {
		return syntaxErr(t.pos, "expected digit")
	}
	if t.peek('.') {
		t.pos++
		if !t.digits() {
			return syntaxErr(t.pos, "expected digit after decimal point")
		}
	}
	if t.peek('e') || t.peek('E') {
		t.pos++
		if t.peek('+') || t.peek('-') {
			t.pos++
		}
		if !t.digits() {
			return syntaxErr(t.pos, "expected exponent digits")
		}
	}
	if t.pos < len(t.src) && !isDelimiter(t.src[t.pos]) {
		return syntaxErr(t.pos, "unexpected character %q in number", t.src[t.pos])
	}
	idx, err := t.alloc(KindNumber, start, parent)
	if err != nil {
		return err
	}
	t.pool[idx].End = t.pos
	return nil
}

func (t *tokenizer) literal(word string, parent int) error {
	start := t.pos
	end := start + len(word)
	if end > len(t.src) {
		return syntaxErr(start, "unexpected end of input")
	}
	if string(t.src[start:end]) != word {
		return syntaxErr(start, "invalid literal")
	}
	if end < len(t.src) && !isDelimiter(t.src[end]) {
		return syntaxErr(end, "invalid literal")
	}
	idx, err := t.alloc(KindLiteral, start, parent)
	if err != nil {
		return err
	}
	t.pool[idx].End = end
	t.pos = end
	return nil
}

func (t *tokenizer) digits() bool {
	start := t.pos
	for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
		t.pos++
	}
	return t.pos > start
}

func (t *tokenizer) peek(c byte) bool {
	return t.pos < len(t.src) && t.src[t.pos] == c
}

func (t *tokenizer) skipSpace() {
	for t.pos < len(t.src) {
		switch t.src[t.pos] {
		case ' ', '\t', '\n', '\r':
			t.pos++
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', '}', ']':
		return true
	}
	return false
}
