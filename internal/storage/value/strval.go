package value

import (
	"math"
	"strconv"
)

// maxEmbStrLen is the longest byte string kept in the embedded encoding.
const maxEmbStrLen = 44

// String encoding tags.
const (
	StrInt = iota
	StrEmb
	StrRaw
	StrFloat
)

// Str is a string value in one of four representations: a decoded integer,
// a short embedded string, a raw byte string, or a float produced by
// INCRBYFLOAT.
type Str struct {
	enc int
	i   int64
	f   float64
	b   []byte
}

// ParseInt parses b as a canonical decimal i64: no leading zeros, no sign
// other than a leading minus, no whitespace, and no "-0".
func ParseInt(b []byte) (int64, bool) {
	switch {
	case len(b) == 1 && b[0] == '0':
		return 0, true
	case len(b) == 0:
		return 0, false
	}

	neg := false
	rest := b
	if b[0] == '-' {
		neg = true
		rest = b[1:]
	}
	if len(rest) == 0 || rest[0] < '1' || rest[0] > '9' {
		return 0, false
	}

	var n int64
	for _, c := range rest {
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int64(c - '0')
		if neg {
			if n < (math.MinInt64+d)/10 {
				return 0, false
			}
			n = n*10 - d
		} else {
			if n > (math.MaxInt64-d)/10 {
				return 0, false
			}
			n = n*10 + d
		}
	}
	return n, true
}

// NewStr builds a string value, choosing the most compact encoding.
func NewStr(b []byte) *Str {
	if i, ok := ParseInt(b); ok {
		return &Str{enc: StrInt, i: i}
	}
	if len(b) <= maxEmbStrLen {
		return &Str{enc: StrEmb, b: append([]byte(nil), b...)}
	}
	return &Str{enc: StrRaw, b: append([]byte(nil), b...)}
}

// NewStrInt builds an integer-encoded string value.
func NewStrInt(i int64) *Str {
	return &Str{enc: StrInt, i: i}
}

// NewStrFloat builds a float-encoded string value.
func NewStrFloat(f float64) *Str {
	return &Str{enc: StrFloat, f: f}
}

// Encoding returns the OBJECT ENCODING name.
func (s *Str) Encoding() string {
	switch s.enc {
	case StrInt:
		return "int"
	case StrEmb:
		return "embstr"
	case StrFloat:
		return "float"
	default:
		return "raw"
	}
}

// Bytes renders the value as a byte string.
func (s *Str) Bytes() []byte {
	switch s.enc {
	case StrInt:
		return strconv.AppendInt(nil, s.i, 10)
	case StrFloat:
		return []byte(formatStrFloat(s.f))
	default:
		return s.b
	}
}

// Len returns the byte length of the rendered value.
func (s *Str) Len() int {
	switch s.enc {
	case StrInt:
		return intLen(s.i)
	case StrFloat:
		return len(formatStrFloat(s.f))
	default:
		return len(s.b)
	}
}

func intLen(i int64) int {
	n := 1
	if i < 0 {
		n++
	}
	for i >= 10 || i <= -10 {
		i /= 10
		n++
	}
	return n
}

// formatStrFloat renders a float with trailing zeros trimmed and no
// scientific notation.
func formatStrFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Int returns the value as an i64 if its bytes form a canonical integer.
func (s *Str) Int() (int64, bool) {
	if s.enc == StrInt {
		return s.i, true
	}
	return ParseInt(s.Bytes())
}

// Float returns the value parsed as a float.
func (s *Str) Float() (float64, bool) {
	switch s.enc {
	case StrInt:
		return float64(s.i), true
	case StrFloat:
		return s.f, true
	}
	f, err := strconv.ParseFloat(string(s.b), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Append concatenates data, re-encoding the result. An integer that remains
// a canonical integer keeps the int encoding.
func (s *Str) Append(data []byte) int {
	joined := append(s.Bytes(), data...)
	*s = *NewStr(joined)
	return s.Len()
}

// SetRange pads the value with zero bytes to offset and overwrites with
// patch, returning the new length.
func (s *Str) SetRange(offset int, patch []byte) int {
	b := s.Bytes()
	end := offset + len(patch)
	if end > len(b) {
		grown := make([]byte, end)
		copy(grown, b)
		b = grown
	} else {
		b = append([]byte(nil), b...)
	}
	copy(b[offset:], patch)
	*s = *NewStr(b)
	return s.Len()
}

// GetRange returns the inclusive [start, end] byte range with Python-style
// negative indices, clamped to the value bounds.
func (s *Str) GetRange(start, end int64) []byte {
	b := s.Bytes()
	n := int64(len(b))
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if end < 0 {
		end += n
		if end < 0 {
			return nil
		}
	}
	if end >= n {
		end = n - 1
	}
	if start > end || start >= n {
		return nil
	}
	return b[start : end+1]
}

// IncrBy adds delta, requiring the current value to be a canonical integer.
// Overflow is reported without modifying the value.
func (s *Str) IncrBy(delta int64) (int64, error) {
	cur, ok := s.Int()
	if !ok {
		return 0, ErrNotInteger
	}
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrOverflow
	}
	*s = Str{enc: StrInt, i: cur + delta}
	return s.i, nil
}

// IncrByFloat adds delta, requiring the current value to parse as a float.
// Results that are NaN or infinite are rejected.
func (s *Str) IncrByFloat(delta float64) (float64, error) {
	cur, ok := s.Float()
	if !ok {
		return 0, ErrNotFloat
	}
	next := cur + delta
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return 0, ErrNaNOrInfinity
	}
	*s = Str{enc: StrFloat, f: next}
	return next, nil
}
