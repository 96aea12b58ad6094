package storage

import (
	"testing"

	"github.com/braddunbar/bradis/internal/resp"
)

func TestHashBasics(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Integer(2), "HSET", "h", "f1", "v1", "f2", "v2")
	expect(t, s, c, resp.Integer(0), "HSET", "h", "f1", "updated")
	expect(t, s, c, resp.Error("ERR wrong number of arguments for 'hset' command"), "HSET", "h", "f1")

	expect(t, s, c, resp.BulkString("updated"), "HGET", "h", "f1")
	expect(t, s, c, resp.Nil, "HGET", "h", "nope")
	expect(t, s, c, resp.Nil, "HGET", "missing", "f")

	expect(t, s, c, resp.Integer(2), "HLEN", "h")
	expect(t, s, c, resp.Integer(1), "HEXISTS", "h", "f2")
	expect(t, s, c, resp.Integer(0), "HEXISTS", "h", "nope")
	expect(t, s, c, resp.Integer(7), "HSTRLEN", "h", "f1")

	expect(t, s, c, resp.Array{resp.BulkString("updated"), resp.Nil},
		"HMGET", "h", "f1", "nope")

	expect(t, s, c, resp.Map{
		resp.BulkString("f1"), resp.BulkString("updated"),
		resp.BulkString("f2"), resp.BulkString("v2"),
	}, "HGETALL", "h")
	expect(t, s, c, resp.Array{resp.BulkString("f1"), resp.BulkString("f2")}, "HKEYS", "h")
	expect(t, s, c, resp.Array{resp.BulkString("updated"), resp.BulkString("v2")}, "HVALS", "h")

	expect(t, s, c, resp.Integer(1), "HDEL", "h", "f1", "nope")
	expect(t, s, c, resp.Integer(1), "HLEN", "h")
}

func TestHSetNX(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Integer(1), "HSETNX", "h", "f", "v")
	expect(t, s, c, resp.Integer(0), "HSETNX", "h", "f", "other")
	expect(t, s, c, resp.BulkString("v"), "HGET", "h", "f")
}

func TestHIncrBy(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Integer(5), "HINCRBY", "h", "n", "5")
	expect(t, s, c, resp.Integer(3), "HINCRBY", "h", "n", "-2")

	do(t, s, c, "HSET", "h", "s", "abc")
	expect(t, s, c, resp.Error("ERR hash value is not an integer"), "HINCRBY", "h", "s", "1")

	do(t, s, c, "HSET", "h", "max", "9223372036854775807")
	expect(t, s, c, errIncrOverflow, "HINCRBY", "h", "max", "1")

	expect(t, s, c, resp.BulkString("1.5"), "HINCRBYFLOAT", "h", "f", "1.5")
	expect(t, s, c, resp.BulkString("2"), "HINCRBYFLOAT", "h", "f", "0.5")
	expect(t, s, c, errNotFloat, "HINCRBYFLOAT", "h", "f", "inf")
}

func TestHashEncodingThresholds(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.OK, "CONFIG", "SET", "hash-max-listpack-entries", "2")
	do(t, s, c, "HSET", "h", "a", "1", "b", "2")
	expect(t, s, c, resp.BulkString("listpack"), "OBJECT", "ENCODING", "h")
	do(t, s, c, "HSET", "h", "c", "3")
	expect(t, s, c, resp.BulkString("hashtable"), "OBJECT", "ENCODING", "h")

	// Value size promotes too.
	expect(t, s, c, resp.OK, "CONFIG", "SET", "hash-max-listpack-value", "3")
	do(t, s, c, "HSET", "h2", "f", "okay")
	expect(t, s, c, resp.BulkString("hashtable"), "OBJECT", "ENCODING", "h2")
}

func TestHRandField(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "HSET", "h", "a", "1", "b", "2")

	r := do(t, s, c, "HRANDFIELD", "h")
	if _, ok := r.(resp.Bulk); !ok {
		t.Fatalf("HRANDFIELD reply %T", r)
	}

	r = do(t, s, c, "HRANDFIELD", "h", "5")
	if len(r.(resp.Array)) != 2 {
		t.Fatalf("positive count exceeds size: %v", r)
	}
	r = do(t, s, c, "HRANDFIELD", "h", "-5")
	if len(r.(resp.Array)) != 5 {
		t.Fatalf("negative count allows repeats: %v", r)
	}
	r = do(t, s, c, "HRANDFIELD", "h", "2", "WITHVALUES")
	if len(r.(resp.Array)) != 4 {
		t.Fatalf("WITHVALUES pairs: %v", r)
	}

	expect(t, s, c, resp.Nil, "HRANDFIELD", "missing")
	expect(t, s, c, resp.Array{}, "HRANDFIELD", "missing", "3")
}
