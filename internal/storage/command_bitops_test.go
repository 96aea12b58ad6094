package storage

import (
	"testing"

	"github.com/braddunbar/bradis/internal/resp"
)

func TestSetBitGetBit(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Integer(0), "SETBIT", "k", "7", "1")
	expect(t, s, c, resp.Integer(1), "GETBIT", "k", "7")
	expect(t, s, c, resp.Integer(1), "SETBIT", "k", "7", "0")
	expect(t, s, c, resp.Integer(0), "GETBIT", "k", "7")
	expect(t, s, c, resp.Integer(0), "GETBIT", "k", "100")
	expect(t, s, c, resp.Integer(0), "GETBIT", "missing", "3")

	expect(t, s, c, errBitValue, "SETBIT", "k", "1", "2")
	expect(t, s, c, errBitOffset, "SETBIT", "k", "-1", "1")
	expect(t, s, c, errBitOffset, "GETBIT", "k", "notanumber")
}

func TestBitcount(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "k", "foobar")
	expect(t, s, c, resp.Integer(26), "BITCOUNT", "k")
	expect(t, s, c, resp.Integer(4), "BITCOUNT", "k", "0", "0")
	expect(t, s, c, resp.Integer(6), "BITCOUNT", "k", "1", "1")
	expect(t, s, c, resp.Integer(26), "BITCOUNT", "k", "0", "-1")
	expect(t, s, c, resp.Integer(17), "BITCOUNT", "k", "5", "30", "BIT")
	expect(t, s, c, resp.Integer(0), "BITCOUNT", "missing")
	expect(t, s, c, errSyntax, "BITCOUNT", "k", "0", "1", "WORDS")
}

func TestBitcountBitRangeScenario(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SETBIT", "x", "2", "1")
	do(t, s, c, "SETBIT", "x", "7", "1")
	do(t, s, c, "SETBIT", "x", "14", "1")
	do(t, s, c, "SETBIT", "x", "20", "1")
	expect(t, s, c, resp.Integer(2), "BITCOUNT", "x", "3", "19", "BIT")
}

func TestBitpos(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "k", "\x00\xff\xf0")
	expect(t, s, c, resp.Integer(8), "BITPOS", "k", "1")
	expect(t, s, c, resp.Integer(8), "BITPOS", "k", "1", "0")
	expect(t, s, c, resp.Integer(16), "BITPOS", "k", "1", "2")

	do(t, s, c, "SET", "ones", "\xff\xff")
	// All ones with no end: zeros begin just past the string.
	expect(t, s, c, resp.Integer(16), "BITPOS", "ones", "0")
	// With an explicit end there is no zero to find.
	expect(t, s, c, resp.Integer(-1), "BITPOS", "ones", "0", "0", "-1")

	expect(t, s, c, resp.Integer(-1), "BITPOS", "missing", "1")
	expect(t, s, c, resp.Integer(0), "BITPOS", "missing", "0")
	expect(t, s, c, errBitValue, "BITPOS", "k", "2")
}

func TestBitop(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "a", "abc")
	do(t, s, c, "SET", "b", "ab")

	// Shorter sources are zero padded.
	expect(t, s, c, resp.Integer(3), "BITOP", "AND", "dst", "a", "b")
	expect(t, s, c, resp.BulkString("ab\x00"), "GET", "dst")

	expect(t, s, c, resp.Integer(3), "BITOP", "OR", "dst", "a", "b")
	expect(t, s, c, resp.BulkString("abc"), "GET", "dst")

	expect(t, s, c, resp.Integer(3), "BITOP", "XOR", "dst", "a", "b")
	expect(t, s, c, resp.BulkString("\x00\x00c"), "GET", "dst")

	// NOT twice is the identity.
	do(t, s, c, "BITOP", "NOT", "n1", "a")
	do(t, s, c, "BITOP", "NOT", "n2", "n1")
	expect(t, s, c, resp.BulkString("abc"), "GET", "n2")
	expect(t, s, c,
		resp.Error("ERR BITOP NOT must be called with a single source key."),
		"BITOP", "NOT", "dst", "a", "b")

	// Empty result deletes the destination.
	do(t, s, c, "SET", "dst", "something")
	expect(t, s, c, resp.Integer(0), "BITOP", "AND", "dst", "none1", "none2")
	expect(t, s, c, resp.Integer(0), "EXISTS", "dst")
}

func TestBitfield(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Array{resp.Integer(1), resp.Integer(0)},
		"BITFIELD", "bf", "INCRBY", "u8", "100", "1", "GET", "u4", "0")

	expect(t, s, c, resp.Array{resp.Integer(0), resp.Integer(5)},
		"BITFIELD", "bf2", "SET", "i8", "#1", "5", "GET", "i8", "#1")

	// WRAP is the default overflow policy. SET returns the previous value.
	expect(t, s, c, resp.Array{resp.Integer(0)}, "BITFIELD", "w", "SET", "i8", "0", "127")
	expect(t, s, c, resp.Array{resp.Integer(-128)}, "BITFIELD", "w", "INCRBY", "i8", "0", "1")

	// SAT clamps.
	expect(t, s, c, resp.Array{resp.Integer(0), resp.Integer(127)},
		"BITFIELD", "sat", "OVERFLOW", "SAT", "SET", "i8", "0", "127", "INCRBY", "i8", "0", "10")

	// FAIL yields nil and skips the write.
	expect(t, s, c, resp.Array{resp.Integer(0), resp.Nil},
		"BITFIELD", "f", "SET", "u8", "0", "255", "OVERFLOW", "FAIL", "INCRBY", "u8", "0", "10")
	expect(t, s, c, resp.Array{resp.Integer(255)}, "BITFIELD", "f", "GET", "u8", "0")

	expect(t, s, c, errOverflowType, "BITFIELD", "bf", "OVERFLOW", "MAYBE")
	expect(t, s, c,
		resp.Error("ERR Invalid bitfield type. Use something like i16 u8. Note that u64 is not supported but i64 is."),
		"BITFIELD", "bf", "GET", "u64", "0")
}

func TestBitfieldRO(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "BITFIELD", "bf", "SET", "u8", "0", "42")
	expect(t, s, c, resp.Array{resp.Integer(42)}, "BITFIELD_RO", "bf", "GET", "u8", "0")
	expect(t, s, c,
		resp.Error("ERR BITFIELD_RO only supports the GET subcommand"),
		"BITFIELD_RO", "bf", "SET", "u8", "0", "1")
}
