package storage

import (
	"strings"
	"testing"

	"github.com/braddunbar/bradis/internal/resp"
)

func TestSetOptions(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	// NX/XX.
	expect(t, s, c, resp.OK, "SET", "k", "a", "NX")
	expect(t, s, c, resp.Nil, "SET", "k", "b", "NX")
	expect(t, s, c, resp.BulkString("a"), "GET", "k")
	expect(t, s, c, resp.OK, "SET", "k", "b", "XX")
	expect(t, s, c, resp.Nil, "SET", "missing", "x", "XX")
	expect(t, s, c, errSyntax, "SET", "k", "v", "NX", "XX")

	// GET flag returns the previous value.
	expect(t, s, c, resp.BulkString("b"), "SET", "k", "c", "GET")
	expect(t, s, c, resp.Nil, "SET", "fresh", "x", "GET")

	// Expiry options.
	expect(t, s, c, resp.OK, "SET", "t", "v", "EX", "100")
	if r := do(t, s, c, "TTL", "t"); r.(resp.Integer) <= 0 {
		t.Fatalf("TTL = %v", r)
	}
	expect(t, s, c, resp.Error("ERR invalid expire time in 'set' command"), "SET", "t", "v", "EX", "0")
	expect(t, s, c, errSyntax, "SET", "t", "v", "EX", "10", "KEEPTTL")

	// Plain SET clears the TTL; KEEPTTL preserves it.
	do(t, s, c, "SET", "t", "v", "EX", "100")
	do(t, s, c, "SET", "t", "v2", "KEEPTTL")
	if r := do(t, s, c, "TTL", "t"); r.(resp.Integer) <= 0 {
		t.Fatalf("KEEPTTL lost the TTL: %v", r)
	}
	do(t, s, c, "SET", "t", "v3")
	expect(t, s, c, resp.Integer(-1), "TTL", "t")
}

func TestSetexAndFriends(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.OK, "SETEX", "k", "100", "v")
	expect(t, s, c, resp.BulkString("v"), "GET", "k")
	expect(t, s, c, resp.Error("ERR invalid expire time in 'setex' command"), "SETEX", "k", "0", "v")
	expect(t, s, c, resp.Error("ERR invalid expire time in 'psetex' command"), "PSETEX", "k", "-5", "v")

	expect(t, s, c, resp.Integer(0), "SETNX", "k", "other")
	expect(t, s, c, resp.Integer(1), "SETNX", "k2", "other")

	expect(t, s, c, resp.BulkString("v"), "GETDEL", "k")
	expect(t, s, c, resp.Integer(0), "EXISTS", "k")
	expect(t, s, c, resp.Nil, "GETDEL", "k")
}

func TestGetexTTLHandling(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "k", "v")
	expect(t, s, c, resp.BulkString("v"), "GETEX", "k", "EX", "100")
	if r := do(t, s, c, "TTL", "k"); r.(resp.Integer) <= 0 {
		t.Fatalf("TTL = %v", r)
	}
	expect(t, s, c, resp.BulkString("v"), "GETEX", "k", "PERSIST")
	expect(t, s, c, resp.Integer(-1), "TTL", "k")
	// Plain GETEX does not touch the TTL.
	do(t, s, c, "EXPIRE", "k", "100")
	expect(t, s, c, resp.BulkString("v"), "GETEX", "k")
	if r := do(t, s, c, "TTL", "k"); r.(resp.Integer) <= 0 {
		t.Fatalf("plain GETEX cleared TTL: %v", r)
	}
}

func TestMSetMGet(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.OK, "MSET", "a", "1", "b", "2")
	expect(t, s, c, resp.Array{resp.BulkString("1"), resp.BulkString("2"), resp.Nil},
		"MGET", "a", "b", "nope")

	expect(t, s, c, resp.Integer(0), "MSETNX", "a", "9", "c", "3")
	expect(t, s, c, resp.Nil, "GET", "c")
	expect(t, s, c, resp.Integer(1), "MSETNX", "c", "3", "d", "4")
}

func TestIncrDecr(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Integer(1), "INCR", "n")
	expect(t, s, c, resp.Integer(3), "INCRBY", "n", "2")
	expect(t, s, c, resp.Integer(2), "DECR", "n")
	expect(t, s, c, resp.Integer(-8), "DECRBY", "n", "10")

	do(t, s, c, "SET", "s", "abc")
	expect(t, s, c, errNotInteger, "INCR", "s")

	do(t, s, c, "SET", "big", "9223372036854775807")
	expect(t, s, c, errIncrOverflow, "INCR", "big")
	expect(t, s, c, resp.BulkString("9223372036854775807"), "GET", "big")

	do(t, s, c, "SET", "small", "-9223372036854775808")
	expect(t, s, c, errIncrOverflow, "DECR", "small")
}

func TestIncrByFloat(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.BulkString("10.5"), "INCRBYFLOAT", "f", "10.5")
	expect(t, s, c, resp.BulkString("10.6"), "INCRBYFLOAT", "f", "0.1")
	expect(t, s, c, resp.BulkString("float"), "OBJECT", "ENCODING", "f")

	expect(t, s, c, errNotFloat, "INCRBYFLOAT", "f", "nan")
	expect(t, s, c, errNotFloat, "INCRBYFLOAT", "f", "inf")

	do(t, s, c, "SET", "s", "notanumber")
	expect(t, s, c, errNotFloat, "INCRBYFLOAT", "s", "1")
}

func TestAppendAndStrlen(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Integer(5), "APPEND", "k", "Hello")
	expect(t, s, c, resp.Integer(11), "APPEND", "k", " World")
	expect(t, s, c, resp.BulkString("Hello World"), "GET", "k")
	expect(t, s, c, resp.Integer(11), "STRLEN", "k")
	expect(t, s, c, resp.Integer(0), "STRLEN", "missing")

	// Integer length is its decimal length.
	do(t, s, c, "SET", "n", "-123")
	expect(t, s, c, resp.Integer(4), "STRLEN", "n")

	// Numeric append keeps the int encoding.
	do(t, s, c, "SET", "num", "12")
	do(t, s, c, "APPEND", "num", "3")
	expect(t, s, c, resp.BulkString("int"), "OBJECT", "ENCODING", "num")
}

func TestGetRangeSetRange(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "k", "This is a string")
	expect(t, s, c, resp.BulkString("This"), "GETRANGE", "k", "0", "3")
	expect(t, s, c, resp.BulkString("ing"), "GETRANGE", "k", "-3", "-1")
	expect(t, s, c, resp.BulkString(""), "GETRANGE", "k", "5", "3")
	expect(t, s, c, resp.BulkString("This"), "SUBSTR", "k", "0", "3")

	expect(t, s, c, resp.Integer(16), "SETRANGE", "k", "10", "Redis!")
	expect(t, s, c, resp.BulkString("This is a Redis!"), "GET", "k")

	// Zero padding on a fresh key.
	expect(t, s, c, resp.Integer(5), "SETRANGE", "pad", "3", "ab")
	expect(t, s, c, resp.BulkString("\x00\x00\x00ab"), "GET", "pad")

	expect(t, s, c, errOffsetRange, "SETRANGE", "k", "-1", "x")
}

func TestStringEncodings(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "i", "12345")
	expect(t, s, c, resp.BulkString("int"), "OBJECT", "ENCODING", "i")

	do(t, s, c, "SET", "e", "short string")
	expect(t, s, c, resp.BulkString("embstr"), "OBJECT", "ENCODING", "e")

	do(t, s, c, "SET", "r", strings.Repeat("x", 45))
	expect(t, s, c, resp.BulkString("raw"), "OBJECT", "ENCODING", "r")

	// Leading zeros and -0 are not canonical integers.
	do(t, s, c, "SET", "z1", "012")
	expect(t, s, c, resp.BulkString("embstr"), "OBJECT", "ENCODING", "z1")
	do(t, s, c, "SET", "z2", "-0")
	expect(t, s, c, resp.BulkString("embstr"), "OBJECT", "ENCODING", "z2")
}

func TestGetSet(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Nil, "GETSET", "k", "v1")
	expect(t, s, c, resp.BulkString("v1"), "GETSET", "k", "v2")
	expect(t, s, c, resp.BulkString("v2"), "GET", "k")

	do(t, s, c, "LPUSH", "l", "x")
	expect(t, s, c, errWrongType, "GETSET", "l", "v")
}
