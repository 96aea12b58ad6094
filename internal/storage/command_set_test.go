package storage

import (
	"testing"

	"github.com/braddunbar/bradis/internal/resp"
)

func TestSetBasics(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Integer(3), "SADD", "s", "1", "2", "3")
	expect(t, s, c, resp.Integer(0), "SADD", "s", "1", "2", "3")
	expect(t, s, c, resp.Integer(3), "SCARD", "s")
	expect(t, s, c, resp.Integer(1), "SISMEMBER", "s", "2")
	expect(t, s, c, resp.Integer(0), "SISMEMBER", "s", "9")
	expect(t, s, c, resp.Array{resp.Integer(1), resp.Integer(0)}, "SMISMEMBER", "s", "1", "9")

	expect(t, s, c, resp.Set{resp.BulkString("1"), resp.BulkString("2"), resp.BulkString("3")},
		"SMEMBERS", "s")

	expect(t, s, c, resp.Integer(2), "SREM", "s", "1", "3", "nope")
	expect(t, s, c, resp.Integer(1), "SCARD", "s")
}

func TestSetEncodings(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SADD", "ints", "1", "2")
	expect(t, s, c, resp.BulkString("intset"), "OBJECT", "ENCODING", "ints")

	// A non-integer member promotes, preserving current members.
	do(t, s, c, "SADD", "ints", "x")
	expect(t, s, c, resp.BulkString("listpack"), "OBJECT", "ENCODING", "ints")
	expect(t, s, c, resp.Integer(1), "SISMEMBER", "ints", "1")

	expect(t, s, c, resp.OK, "CONFIG", "SET", "set-max-intset-entries", "2")
	do(t, s, c, "SADD", "grow", "1", "2")
	expect(t, s, c, resp.BulkString("intset"), "OBJECT", "ENCODING", "grow")
	do(t, s, c, "SADD", "grow", "3")
	expect(t, s, c, resp.BulkString("listpack"), "OBJECT", "ENCODING", "grow")

	expect(t, s, c, resp.OK, "CONFIG", "SET", "set-max-listpack-entries", "3")
	do(t, s, c, "SADD", "grow", "4")
	expect(t, s, c, resp.BulkString("hashtable"), "OBJECT", "ENCODING", "grow")
}

func TestSPop(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SADD", "s", "a", "b", "c")

	r := do(t, s, c, "SPOP", "s")
	if _, ok := r.(resp.Bulk); !ok {
		t.Fatalf("SPOP reply %T", r)
	}
	expect(t, s, c, resp.Integer(2), "SCARD", "s")

	r = do(t, s, c, "SPOP", "s", "5")
	if len(r.(resp.Array)) != 2 {
		t.Fatalf("SPOP count = %v", r)
	}
	expect(t, s, c, resp.Integer(0), "EXISTS", "s")

	expect(t, s, c, resp.Nil, "SPOP", "s")
	expect(t, s, c, resp.Array{}, "SPOP", "s", "2")
	expect(t, s, c,
		resp.Error("ERR value is out of range, must be positive"), "SPOP", "s", "-1")
}

func TestSRandMember(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SADD", "s", "a", "b")
	if r := do(t, s, c, "SRANDMEMBER", "s", "-5"); len(r.(resp.Array)) != 5 {
		t.Fatalf("negative count = %v", r)
	}
	if r := do(t, s, c, "SRANDMEMBER", "s", "5"); len(r.(resp.Array)) != 2 {
		t.Fatalf("positive count = %v", r)
	}
	// SRANDMEMBER does not remove.
	expect(t, s, c, resp.Integer(2), "SCARD", "s")
}

func TestSMove(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SADD", "src", "a", "b")
	expect(t, s, c, resp.Integer(1), "SMOVE", "src", "dst", "a")
	expect(t, s, c, resp.Integer(0), "SISMEMBER", "src", "a")
	expect(t, s, c, resp.Integer(1), "SISMEMBER", "dst", "a")
	expect(t, s, c, resp.Integer(0), "SMOVE", "src", "dst", "nope")

	// Moving the last member deletes the source.
	expect(t, s, c, resp.Integer(1), "SMOVE", "src", "dst", "b")
	expect(t, s, c, resp.Integer(0), "EXISTS", "src")
}

func TestSetAlgebra(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SADD", "a", "1", "2", "3")
	do(t, s, c, "SADD", "b", "2", "3", "4")

	expect(t, s, c, resp.Set{resp.BulkString("1"), resp.BulkString("2"),
		resp.BulkString("3"), resp.BulkString("4")}, "SUNION", "a", "b")
	expect(t, s, c, resp.Set{resp.BulkString("2"), resp.BulkString("3")}, "SINTER", "a", "b")
	expect(t, s, c, resp.Set{resp.BulkString("1")}, "SDIFF", "a", "b")

	expect(t, s, c, resp.Integer(2), "SINTERSTORE", "dst", "a", "b")
	expect(t, s, c, resp.Integer(1), "SISMEMBER", "dst", "2")

	expect(t, s, c, resp.Integer(2), "SINTERCARD", "2", "a", "b")
	expect(t, s, c, resp.Integer(1), "SINTERCARD", "2", "a", "b", "LIMIT", "1")

	// Empty result deletes the destination.
	expect(t, s, c, resp.Integer(0), "SDIFFSTORE", "dst", "a", "a")
	expect(t, s, c, resp.Integer(0), "EXISTS", "dst")

	// Missing keys behave as empty sets.
	expect(t, s, c, resp.Set{}, "SINTER", "a", "missing")
}
