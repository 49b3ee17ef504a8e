package fields

import "math"

// Recognized top-level keys.
const (
	KeyError  = "error"
	KeyIgnore = "ignore"
	KeyCount  = "count"
)

// Field is the raw value captured for a recognized key.
type Field struct {
	Key  string
	Raw  string
	Kind Kind
}

// Int converts the raw value using atoi rules.
func (f Field) Int() int {
	return Atoi(f.Raw)
}

// Fields holds the recognized keys of one payload, in document order.
type Fields struct {
	// Errors lists every "error" member; each is a status write candidate.
	Errors []Field
	// Info lists "ignore" and "count" members. They carry no state.
	Info []Field
}

// Ignore returns the last "ignore" value, if any.
func (f Fields) Ignore() (string, bool) {
	return f.info(KeyIgnore)
}

// Count returns the last "count" value, if any.
func (f Fields) Count() (string, bool) {
	return f.info(KeyCount)
}

func (f Fields) info(key string) (string, bool) {
	for i := len(f.Info) - 1; i >= 0; i-- {
		if f.Info[i].Key == key {
			return f.Info[i].Raw, true
		}
	}
	return "", false
}

// Parser owns a reusable token pool. A Parser is not safe for concurrent use.
type Parser struct {
	pool [MaxTokens]Token
	n    int
}

// NewParser returns a parser with an empty pool.
func NewParser() *Parser {
	return &Parser{}
}

// Tokenize fills the pool from text. The returned slice aliases the pool and
// is only valid until the next call.
func (p *Parser) Tokenize(text []byte) ([]Token, error) {
	clear(p.pool[:p.n])
	p.n = 0
	tz := tokenizer{src: text, pool: p.pool[:]}
	err := tz.run()
	p.n = tz.n
	if err != nil {
		return nil, err
	}
	return p.pool[:p.n], nil
}

// Parse tokenizes text and extracts the recognized root-level keys. On error
// no fields are returned.
func (p *Parser) Parse(text []byte) (Fields, error) {
	tokens, err := p.Tokenize(text)
	if err != nil {
		return Fields{}, err
	}

	var out Fields
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind != KindKey || tok.Parent != 0 || i+1 >= len(tokens) {
			continue
		}
		value := tokens[i+1]
		switch key := tok.Text(text); key {
		case KeyError:
			out.Errors = append(out.Errors, Field{Key: key, Raw: value.Text(text), Kind: value.Kind})
		case KeyIgnore, KeyCount:
			out.Info = append(out.Info, Field{Key: key, Raw: value.Text(text), Kind: value.Kind})
		}
	}
	return out, nil
}

// Parse is a convenience wrapper using a fresh Parser.
func Parse(text []byte) (Fields, error) {
	return NewParser().Parse(text)
}

// Atoi mirrors C atoi: skip leading whitespace, accept one sign, then read
// decimal digits until the first non-digit. No digits yields 0. Results
// saturate at the int32 range instead of overflowing.
func Atoi(s string) int {
	i := 0
	for i < len(s) && isCSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	var n int64
	for ; i < len(s) && isDigit(s[i]); i++ {
		n = n*10 + int64(s[i]-'0')
		if n > math.MaxInt32 {
			n = math.MaxInt32 + 1
			break
		}
	}
	if neg {
		n = -n
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return int(n)
}

func isCSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
