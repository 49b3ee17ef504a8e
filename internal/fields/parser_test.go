package fields_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ComittmentIssues/esp32-error-decoder/internal/fields"
)

func TestParseErrorField(t *testing.T) {
	got, err := fields.Parse([]byte(`{"error": 9}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("expected one error field, got %d", len(got.Errors))
	}
	if got.Errors[0].Raw != "9" || got.Errors[0].Kind != fields.KindNumber {
		t.Fatalf("unexpected field: %+v", got.Errors[0])
	}
	if got.Errors[0].Int() != 9 {
		t.Fatalf("unexpected value: %d", got.Errors[0].Int())
	}
}

func TestParseInformationalFieldsOnly(t *testing.T) {
	got, err := fields.Parse([]byte(`{"ignore": "x", "count": 3}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(got.Errors) != 0 {
		t.Fatalf("expected no status candidates, got %+v", got.Errors)
	}
	ignore, ok := got.Ignore()
	if !ok || ignore != "x" {
		t.Fatalf("unexpected ignore: %q %v", ignore, ok)
	}
	count, ok := got.Count()
	if !ok || count != "3" {
		t.Fatalf("unexpected count: %q %v", count, ok)
	}
}

func TestParsePublisherPayload(t *testing.T) {
	got, err := fields.Parse([]byte(`{"error":12,"ignore":"randstring"}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(got.Errors) != 1 || got.Errors[0].Int() != 12 {
		t.Fatalf("unexpected errors: %+v", got.Errors)
	}
	if v, _ := got.Ignore(); v != "randstring" {
		t.Fatalf("unexpected ignore: %q", v)
	}
}

func TestParseKeyMatchingIsExact(t *testing.T) {
	got, err := fields.Parse([]byte(`{"Error":1,"errors":2,"err":3,"ERROR":4}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(got.Errors) != 0 {
		t.Fatalf("expected no matches, got %+v", got.Errors)
	}
}

func TestParseSkipsNestedKeys(t *testing.T) {
	got, err := fields.Parse([]byte(`{"meta":{"error":7},"list":[{"error":8}],"error":2}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(got.Errors) != 1 || got.Errors[0].Int() != 2 {
		t.Fatalf("expected only the root error field, got %+v", got.Errors)
	}
}

func TestParseIgnoresValueNamedLikeKey(t *testing.T) {
	got, err := fields.Parse([]byte(`{"ignore":"error","count":"error"}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(got.Errors) != 0 {
		t.Fatalf("string values must not match keys: %+v", got.Errors)
	}
}

func TestParseDuplicateErrorKeysInOrder(t *testing.T) {
	got, err := fields.Parse([]byte(`{"error":3,"error":5}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(got.Errors) != 2 || got.Errors[0].Int() != 3 || got.Errors[1].Int() != 5 {
		t.Fatalf("unexpected order: %+v", got.Errors)
	}
}

func TestParseCapturesNestedValueSpan(t *testing.T) {
	got, err := fields.Parse([]byte(`{"count":[1,2]}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if v, _ := got.Count(); v != "[1,2]" {
		t.Fatalf("unexpected raw span: %q", v)
	}
}

// A non-numeric error value silently becomes 0. This mirrors the atoi
// conversion used by the device firmware and is kept on purpose.
func TestErrorValueNumericFallback(t *testing.T) {
	cases := []struct {
		payload string
		want    int
	}{
		{`{"error":"abc"}`, 0},
		{`{"error":true}`, 0},
		{`{"error":null}`, 0},
		{`{"error":""}`, 0},
		{`{"error":"7"}`, 7},
		{`{"error":" 12x"}`, 12},
		{`{"error":5.9}`, 5},
		{`{"error":-1}`, -1},
		{`{"error":1e3}`, 1},
	}
	for _, tc := range cases {
		t.Run(tc.payload, func(t *testing.T) {
			got, err := fields.Parse([]byte(tc.payload))
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if len(got.Errors) != 1 {
				t.Fatalf("expected one error field, got %d", len(got.Errors))
			}
			if v := got.Errors[0].Int(); v != tc.want {
				t.Fatalf("got %d want %d", v, tc.want)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		`{"error": `,
		``,
		`   `,
		`{"error":9`,
		`{"error" 9}`,
		`{error:9}`,
		`{"error":9,}`,
		`{"error":09x}`,
		`{"error":tru}`,
		`{"error":"unterminated}`,
		`{"error":"bad\q"}`,
		`[1,2,3]`,
		`5`,
		`{"error":1}{"error":2}`,
		`{"a":[1,2}`,
	}
	for _, payload := range cases {
		t.Run(fmt.Sprintf("%q", payload), func(t *testing.T) {
			got, err := fields.Parse([]byte(payload))
			if !errors.Is(err, fields.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if len(got.Errors) != 0 || len(got.Info) != 0 {
				t.Fatalf("expected no fields on failure, got %+v", got)
			}
			var syntax *fields.SyntaxError
			if !errors.As(err, &syntax) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
		})
	}
}

func TestParseTooManyTokens(t *testing.T) {
	// Root object plus 64 key/value pairs needs 129 tokens.
	var b strings.Builder
	b.WriteByte('{')
	for i := 0; i < 64; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `"k%d":%d`, i, i)
	}
	b.WriteByte('}')

	_, err := fields.Parse([]byte(b.String()))
	if !errors.Is(err, fields.ErrTooManyTokens) {
		t.Fatalf("expected ErrTooManyTokens, got %v", err)
	}
	if errors.Is(err, fields.ErrMalformed) {
		t.Fatal("token exhaustion must not be reported as malformed")
	}
}

func TestParseExactlyAtCapacity(t *testing.T) {
	// Root object, 62 pairs, then a key holding a one-element array: 128.
	var b strings.Builder
	b.WriteByte('{')
	for i := 0; i < 62; i++ {
		fmt.Fprintf(&b, `"k%d":%d,`, i, i)
	}
	b.WriteString(`"error":[4]}`)

	tokens, err := fields.NewParser().Tokenize([]byte(b.String()))
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if len(tokens) != fields.MaxTokens {
		t.Fatalf("expected %d tokens, got %d", fields.MaxTokens, len(tokens))
	}
}

func TestTokenizeSpans(t *testing.T) {
	src := []byte(`{"error": 5, "ignore": "a\"b"}`)
	tokens, err := fields.NewParser().Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	want := []struct {
		kind   fields.Kind
		text   string
		parent int
		size   int
	}{
		{fields.KindObject, string(src), -1, 2},
		{fields.KindKey, "error", 0, 1},
		{fields.KindNumber, "5", 1, 0},
		{fields.KindKey, "ignore", 0, 1},
		{fields.KindString, `a\"b`, 3, 0},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		tok := tokens[i]
		if tok.Kind != w.kind || tok.Text(src) != w.text || tok.Parent != w.parent || tok.Size != w.size {
			t.Fatalf("token %d: got %+v (%q), want %+v", i, tok, tok.Text(src), w)
		}
		if tok.End < tok.Start {
			t.Fatalf("token %d has end before start", i)
		}
	}
}

func TestParserReuseDoesNotLeakTokens(t *testing.T) {
	p := fields.NewParser()
	if _, err := p.Parse([]byte(`{"error":1,"ignore":"x","count":2}`)); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	got, err := p.Parse([]byte(`{"count":5}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(got.Errors) != 0 {
		t.Fatalf("stale fields leaked: %+v", got)
	}
	if _, err := p.Parse([]byte(`{"error":`)); !errors.Is(err, fields.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestAtoi(t *testing.T) {
	cases := map[string]int{
		"":             0,
		"0":            0,
		"15":           15,
		"+4":           4,
		"-3":           -3,
		"\t\n 8":       8,
		"x9":           0,
		"99999999999":  2147483647,
		"-99999999999": -2147483648,
	}
	for in, want := range cases {
		if got := fields.Atoi(in); got != want {
			t.Errorf("Atoi(%q) = %d, want %d", in, got, want)
		}
	}
}
