package value

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"0", 0, true},
		{"1", 1, true},
		{"-1", -1, true},
		{"1000", 1000, true},
		{"9223372036854775807", math.MaxInt64, true},
		{"-9223372036854775808", math.MinInt64, true},
		{"", 0, false},
		{"01", 0, false},
		{"-0", 0, false},
		{"+1", 0, false},
		{" 1", 0, false},
		{"1 ", 0, false},
		{"1.5", 0, false},
		{"9223372036854775808", 0, false},
		{"-9223372036854775809", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseInt([]byte(tt.in))
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseInt(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewStr_Encodings(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123", "int"},
		{"-45", "int"},
		{"0", "int"},
		{"012", "embstr"},
		{"hello", "embstr"},
		{strings.Repeat("x", 44), "embstr"},
		{strings.Repeat("x", 45), "raw"},
	}
	for _, tt := range tests {
		if got := NewStr([]byte(tt.in)).Encoding(); got != tt.want {
			t.Errorf("NewStr(%q).Encoding() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStr_BytesAndLen(t *testing.T) {
	if got := NewStr([]byte("123")).Bytes(); string(got) != "123" {
		t.Errorf("int bytes = %q", got)
	}
	if got := NewStr([]byte("-45")).Len(); got != 3 {
		t.Errorf("int len = %d", got)
	}
	f := NewStrFloat(3.10)
	if string(f.Bytes()) != "3.1" {
		t.Errorf("float bytes = %q", f.Bytes())
	}
	if f.Len() != 3 {
		t.Errorf("float len = %d", f.Len())
	}
}

func TestStr_Append(t *testing.T) {
	s := NewStr([]byte("12"))
	if n := s.Append([]byte("3")); n != 3 {
		t.Fatalf("append len = %d", n)
	}
	if s.Encoding() != "int" {
		t.Errorf("numeric append should stay int, got %s", s.Encoding())
	}

	s.Append([]byte("x"))
	if s.Encoding() != "embstr" {
		t.Errorf("encoding = %s, want embstr", s.Encoding())
	}

	s.Append([]byte(strings.Repeat("y", 64)))
	if s.Encoding() != "raw" {
		t.Errorf("encoding = %s, want raw", s.Encoding())
	}
	if string(s.Bytes()) != "123x"+strings.Repeat("y", 64) {
		t.Errorf("bytes = %q", s.Bytes())
	}
}

func TestStr_SetRange(t *testing.T) {
	s := NewStr([]byte("Hello World"))
	if n := s.SetRange(6, []byte("Redis")); n != 11 {
		t.Fatalf("len = %d", n)
	}
	if string(s.Bytes()) != "Hello Redis" {
		t.Errorf("bytes = %q", s.Bytes())
	}

	// Padding past the end.
	s = NewStr(nil)
	s.SetRange(3, []byte("ab"))
	if string(s.Bytes()) != "\x00\x00\x00ab" {
		t.Errorf("padded = %q", s.Bytes())
	}
}

func TestStr_GetRange(t *testing.T) {
	s := NewStr([]byte("This is a string"))
	tests := []struct {
		start, end int64
		want       string
	}{
		{0, 3, "This"},
		{-3, -1, "ing"},
		{0, -1, "This is a string"},
		{10, 100, "string"},
		{5, 3, ""},
		{100, 200, ""},
		{-100, 3, "This"},
	}
	for _, tt := range tests {
		if got := s.GetRange(tt.start, tt.end); string(got) != tt.want {
			t.Errorf("GetRange(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestStr_IncrBy(t *testing.T) {
	s := NewStr([]byte("10"))
	if n, err := s.IncrBy(5); err != nil || n != 15 {
		t.Fatalf("IncrBy = %d, %v", n, err)
	}

	s = NewStr([]byte("abc"))
	if _, err := s.IncrBy(1); !errors.Is(err, ErrNotInteger) {
		t.Errorf("expected ErrNotInteger, got %v", err)
	}

	s = NewStrInt(math.MaxInt64)
	if _, err := s.IncrBy(1); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
	if v, _ := s.Int(); v != math.MaxInt64 {
		t.Errorf("value changed on overflow: %d", v)
	}

	s = NewStrInt(math.MinInt64)
	if _, err := s.IncrBy(-1); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow on underflow, got %v", err)
	}
}

func TestStr_IncrByFloat(t *testing.T) {
	s := NewStr([]byte("10.5"))
	if f, err := s.IncrByFloat(0.1); err != nil || f != 10.6 {
		t.Fatalf("IncrByFloat = %v, %v", f, err)
	}
	if s.Encoding() != "float" {
		t.Errorf("encoding = %s", s.Encoding())
	}

	s = NewStr([]byte("abc"))
	if _, err := s.IncrByFloat(1); !errors.Is(err, ErrNotFloat) {
		t.Errorf("expected ErrNotFloat, got %v", err)
	}

	s = NewStrFloat(math.MaxFloat64)
	if _, err := s.IncrByFloat(math.MaxFloat64); !errors.Is(err, ErrNaNOrInfinity) {
		t.Errorf("expected ErrNaNOrInfinity, got %v", err)
	}
}
