package fields

// MaxTokens bounds the number of spans a single payload may produce.
const MaxTokens = 128

// Kind identifies the syntactic role of a token.
type Kind uint8

const (
	KindObject Kind = iota + 1
	KindArray
	KindKey
	KindString
	KindNumber
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Token is a span of the source buffer. String and key spans exclude the
// surrounding quotes. Parent is the index of the enclosing token, -1 for the
// root. Size counts direct children: members for objects, elements for
// arrays, and 1 for a key with its value.
type Token struct {
	Kind   Kind
	Start  int
	End    int
	Size   int
	Parent int
}

// Text returns the token's span of src.
func (t Token) Text(src []byte) string {
	if t.Start < 0 || t.End > len(src) || t.End < t.Start {
		return ""
	}
	return string(src[t.Start:t.End])
}
