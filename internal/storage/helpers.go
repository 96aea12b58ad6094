package storage

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/braddunbar/bradis/internal/resp"
)

// argInt parses a command argument as an i64 (plain decimal, leading zeros
// allowed, as argument positions accept).
func argInt(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	return n, err == nil
}

// argFloat parses a float argument, accepting inf spellings. NaN parses;
// callers that must reject it check explicitly.
func argFloat(b []byte) (float64, bool) {
	f, err := strconv.ParseFloat(string(b), 64)
	return f, err == nil
}

// argMatch reports a case-insensitive match against an option name.
func argMatch(b []byte, option string) bool {
	return strings.EqualFold(string(b), option)
}

// scoreBound parses a ZRANGEBYSCORE bound: optional `(` prefix for
// exclusive, -inf/+inf for the infinities.
func scoreBound(b []byte) (f float64, exclusive, ok bool) {
	if len(b) > 0 && b[0] == '(' {
		exclusive = true
		b = b[1:]
	}
	f, ok = argFloat(b)
	if math.IsNaN(f) {
		ok = false
	}
	return f, exclusive, ok
}

// lexBound parses a BYLEX bound: `[` or `(` prefixed member, or the `-`/`+`
// endpoints.
func lexBound(b []byte) (member string, exclusive, unbounded, ok bool) {
	switch {
	case len(b) == 1 && b[0] == '-':
		return "", false, true, true
	case len(b) == 1 && b[0] == '+':
		return "", false, true, true
	case len(b) > 0 && b[0] == '[':
		return string(b[1:]), false, false, true
	case len(b) > 0 && b[0] == '(':
		return string(b[1:]), true, false, true
	}
	return "", false, false, false
}

// clampRange converts Python-style inclusive indices into concrete bounds
// for a container of length n.
func clampRange(start, stop, n int64) (int64, int64) {
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}

// argTimeout parses a blocking timeout in floating point seconds. Zero
// means no timeout. A non-nil reply is the error to send.
func argTimeout(b []byte) (time.Duration, resp.Reply) {
	f, ok := argFloat(b)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errTimeout
	}
	if f < 0 {
		return 0, errNegTimeout
	}
	return time.Duration(f * float64(time.Second)), nil
}
