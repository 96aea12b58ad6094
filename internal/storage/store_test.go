package storage

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/braddunbar/bradis/internal/resp"
)

// newTestStore builds a store whose executor is driven synchronously by the
// test via do().
func newTestStore() *Store {
	return New(DefaultLimits(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func newTestClient(s *Store, id uint64) *Client {
	c := NewClient(id, "127.0.0.1:50000", "127.0.0.1:6379")
	s.connect(c)
	return c
}

func args(line ...string) [][]byte {
	out := make([][]byte, 0, len(line))
	for _, arg := range line {
		out = append(out, []byte(arg))
	}
	return out
}

// do runs one command on the executor path and returns the next reply.
func do(t *testing.T, s *Store, c *Client, line ...string) resp.Reply {
	t.Helper()
	s.dispatch(c, args(line...))
	s.unblockReady()
	r, ok := c.Outbox().TryNext()
	if !ok {
		t.Fatalf("no reply for %v", line)
	}
	return r
}

// doQuiet runs a command that may not reply (blocking registrations).
func doQuiet(s *Store, c *Client, line ...string) {
	s.dispatch(c, args(line...))
	s.unblockReady()
}

// nextReply returns the next queued reply frame, if any.
func nextReply(c *Client) (resp.Reply, bool) {
	return c.Outbox().TryNext()
}

// wire renders a reply as RESP2 for comparison.
func wire(t *testing.T, r resp.Reply) string {
	t.Helper()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := resp.Write(w, r, resp.V2); err != nil {
		t.Fatalf("render: %v", err)
	}
	w.Flush()
	return buf.String()
}

// expect asserts the next reply of a command against its RESP2 wire form.
func expect(t *testing.T, s *Store, c *Client, want resp.Reply, line ...string) {
	t.Helper()
	got := do(t, s, c, line...)
	if wire(t, got) != wire(t, want) {
		t.Fatalf("%v => %q, want %q", line, wire(t, got), wire(t, want))
	}
}

// ============================================================
// Basics
// ============================================================

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.OK, "SET", "k", "v")
	expect(t, s, c, resp.BulkString("v"), "GET", "k")
	expect(t, s, c, resp.Nil, "GET", "missing")
}

func TestUnknownCommandAndArity(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Error("ERR unknown command 'nope'"), "NOPE")
	expect(t, s, c, resp.Error("ERR wrong number of arguments for 'get' command"), "GET")
	expect(t, s, c, resp.Error("ERR wrong number of arguments for 'set' command"), "SET", "k")
}

func TestWrongType(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "LPUSH", "l", "a")
	expect(t, s, c, errWrongType, "GET", "l")
	expect(t, s, c, errWrongType, "INCR", "l")
	expect(t, s, c, errWrongType, "SADD", "l", "x")
}

func TestTypeAndExistsAfterEmptying(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "RPUSH", "l", "a")
	expect(t, s, c, resp.Simple("list"), "TYPE", "l")
	do(t, s, c, "LPOP", "l")
	expect(t, s, c, resp.Simple("none"), "TYPE", "l")
	expect(t, s, c, resp.Integer(0), "EXISTS", "l")

	do(t, s, c, "SADD", "s", "a")
	do(t, s, c, "SREM", "s", "a")
	expect(t, s, c, resp.Integer(0), "EXISTS", "s")

	do(t, s, c, "HSET", "h", "f", "v")
	do(t, s, c, "HDEL", "h", "f")
	expect(t, s, c, resp.Integer(0), "EXISTS", "h")

	do(t, s, c, "ZADD", "z", "1", "m")
	do(t, s, c, "ZREM", "z", "m")
	expect(t, s, c, resp.Integer(0), "EXISTS", "z")
}

func TestDirtyCounter(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	base := s.dirty
	do(t, s, c, "SADD", "s", "1", "2", "3")
	if s.dirty != base+3 {
		t.Fatalf("dirty = %d, want %d", s.dirty, base+3)
	}
	do(t, s, c, "SADD", "s", "1", "2", "3")
	if s.dirty != base+3 {
		t.Fatalf("repeated SADD changed dirty: %d", s.dirty)
	}
	do(t, s, c, "GET", "x")
	if s.dirty != base+3 {
		t.Fatalf("read changed dirty: %d", s.dirty)
	}
}

// ============================================================
// TTL
// ============================================================

func TestTTLBasics(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.Integer(-2), "TTL", "missing")
	do(t, s, c, "SET", "k", "v")
	expect(t, s, c, resp.Integer(-1), "TTL", "k")
	expect(t, s, c, resp.Integer(1), "EXPIRE", "k", "100")
	if r := do(t, s, c, "TTL", "k"); r.(resp.Integer) <= 0 || r.(resp.Integer) > 100 {
		t.Fatalf("TTL = %v", r)
	}
	expect(t, s, c, resp.Integer(1), "PERSIST", "k")
	expect(t, s, c, resp.Integer(-1), "TTL", "k")
}

func TestExpiredKeyIsAbsent(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "k", "v")
	// A deadline in the past deletes synchronously.
	expect(t, s, c, resp.Integer(1), "PEXPIRE", "k", "-1")
	expect(t, s, c, resp.Nil, "GET", "k")
	expect(t, s, c, resp.Integer(0), "EXISTS", "k")
}

func TestLazyExpireOnRead(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "k", "v")
	// Plant a deadline in the past directly, as if time had passed.
	s.dbs[0].expires["k"] = nowMillis() - 10
	expect(t, s, c, resp.Nil, "GET", "k")
	if _, ok := s.dbs[0].objects["k"]; ok {
		t.Fatal("expired key should be reaped on read")
	}
}

func TestExpireModifiers(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "a", "x")

	// GT on a persistent key never succeeds; LT always does.
	expect(t, s, c, resp.Integer(0), "EXPIRE", "a", "10", "GT")
	expect(t, s, c, resp.Integer(-1), "TTL", "a")
	expect(t, s, c, resp.Integer(1), "EXPIRE", "a", "10")
	expect(t, s, c, resp.Integer(0), "EXPIRE", "a", "5", "GT")
	if r := do(t, s, c, "TTL", "a"); r.(resp.Integer) < 9 {
		t.Fatalf("TTL shrank: %v", r)
	}
	expect(t, s, c, resp.Integer(1), "EXPIRE", "a", "20", "GT")
	if r := do(t, s, c, "TTL", "a"); r.(resp.Integer) < 19 {
		t.Fatalf("GT did not extend: %v", r)
	}

	// NX only without TTL, XX only with.
	expect(t, s, c, resp.Integer(0), "EXPIRE", "a", "30", "NX")
	expect(t, s, c, resp.Integer(1), "EXPIRE", "a", "30", "XX")
	do(t, s, c, "SET", "b", "x")
	expect(t, s, c, resp.Integer(1), "EXPIRE", "b", "30", "NX")
	expect(t, s, c, resp.Integer(1), "EXPIRE", "b", "10", "LT")

	// LT on a persistent key succeeds.
	do(t, s, c, "SET", "p", "x")
	expect(t, s, c, resp.Integer(1), "EXPIRE", "p", "10", "LT")
}

// ============================================================
// WATCH / MULTI / EXEC
// ============================================================

func TestWatchAbort(t *testing.T) {
	s := newTestStore()
	a := newTestClient(s, 1)
	b := newTestClient(s, 2)

	do(t, s, a, "SET", "x", "1")
	expect(t, s, a, resp.OK, "WATCH", "x")
	expect(t, s, a, resp.OK, "MULTI")
	expect(t, s, a, resp.Queued, "GET", "x")

	expect(t, s, b, resp.OK, "SET", "x", "2")

	expect(t, s, a, resp.NilArray, "EXEC")
	expect(t, s, a, resp.BulkString("2"), "GET", "x")
}

func TestExecRunsQueue(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.OK, "MULTI")
	expect(t, s, c, resp.Queued, "SET", "k", "v")
	expect(t, s, c, resp.Queued, "GET", "k")
	expect(t, s, c, resp.Array{resp.OK, resp.BulkString("v")}, "EXEC")
}

func TestExecWithoutMulti(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)
	expect(t, s, c, errExecNoMulti, "EXEC")
	expect(t, s, c, resp.Error("ERR DISCARD without MULTI"), "DISCARD")
}

func TestExecAbortOnQueueError(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.OK, "MULTI")
	expect(t, s, c, resp.Error("ERR unknown command 'nope'"), "NOPE")
	expect(t, s, c, resp.Queued, "SET", "k", "v")
	expect(t, s, c, errExecAbort, "EXEC")
	// The queue did not run.
	expect(t, s, c, resp.Nil, "GET", "k")
}

func TestWatchInsideMulti(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "MULTI")
	expect(t, s, c, errWatchInMulti, "WATCH", "k")
}

func TestDiscardClearsQueue(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "MULTI")
	do(t, s, c, "SET", "k", "v")
	expect(t, s, c, resp.OK, "DISCARD")
	expect(t, s, c, resp.Nil, "GET", "k")
}

func TestUnwatchClearsAbort(t *testing.T) {
	s := newTestStore()
	a := newTestClient(s, 1)
	b := newTestClient(s, 2)

	do(t, s, a, "SET", "x", "1")
	do(t, s, a, "WATCH", "x")
	do(t, s, b, "SET", "x", "2")
	expect(t, s, a, resp.OK, "UNWATCH")
	do(t, s, a, "MULTI")
	do(t, s, a, "GET", "x")
	expect(t, s, a, resp.Array{resp.BulkString("2")}, "EXEC")
}

func TestBlockingDegradesInsideMulti(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "MULTI")
	do(t, s, c, "BLPOP", "nokey", "0")
	expect(t, s, c, resp.Array{resp.NilArray}, "EXEC")
}

// ============================================================
// Blocking
// ============================================================

func TestBLPOPHandoff(t *testing.T) {
	s := newTestStore()
	a := newTestClient(s, 1)
	b := newTestClient(s, 2)

	doQuiet(s, a, "BLPOP", "k", "0")
	if _, ok := nextReply(a); ok {
		t.Fatal("BLPOP should not reply while blocked")
	}
	if a.blocker == nil {
		t.Fatal("client should be parked")
	}

	expect(t, s, b, resp.Integer(3), "RPUSH", "k", "a", "b", "c")

	r, ok := nextReply(a)
	if !ok {
		t.Fatal("waiter was not served")
	}
	want := resp.Array{resp.BulkString("k"), resp.BulkString("a")}
	if wire(t, r) != wire(t, want) {
		t.Fatalf("waiter got %q", wire(t, r))
	}
	expect(t, s, b, resp.Array{resp.BulkString("b"), resp.BulkString("c")}, "LRANGE", "k", "0", "-1")
}

func TestBlockedWaitersServedFIFO(t *testing.T) {
	s := newTestStore()
	a := newTestClient(s, 1)
	b := newTestClient(s, 2)
	pusher := newTestClient(s, 3)

	doQuiet(s, a, "BLPOP", "k", "0")
	doQuiet(s, b, "BLPOP", "k", "0")

	do(t, s, pusher, "RPUSH", "k", "1", "2")

	ra, _ := nextReply(a)
	rb, _ := nextReply(b)
	if wire(t, ra) != wire(t, resp.Array{resp.BulkString("k"), resp.BulkString("1")}) {
		t.Fatalf("first waiter got %q", wire(t, ra))
	}
	if wire(t, rb) != wire(t, resp.Array{resp.BulkString("k"), resp.BulkString("2")}) {
		t.Fatalf("second waiter got %q", wire(t, rb))
	}
}

func TestBZPopMinHandoff(t *testing.T) {
	s := newTestStore()
	a := newTestClient(s, 1)
	b := newTestClient(s, 2)

	doQuiet(s, a, "BZPOPMIN", "z", "0")
	do(t, s, b, "ZADD", "z", "5", "m")

	r, ok := nextReply(a)
	if !ok {
		t.Fatal("waiter was not served")
	}
	want := resp.Array{resp.BulkString("z"), resp.BulkString("m"), resp.BulkString("5")}
	if wire(t, r) != wire(t, want) {
		t.Fatalf("waiter got %q", wire(t, r))
	}
}

func TestClientUnblock(t *testing.T) {
	s := newTestStore()
	a := newTestClient(s, 1)
	admin := newTestClient(s, 2)

	doQuiet(s, a, "BLPOP", "k", "0")
	expect(t, s, admin, resp.Integer(1), "CLIENT", "UNBLOCK", "1")
	if r, ok := nextReply(a); !ok || wire(t, r) != wire(t, resp.NilArray) {
		t.Fatalf("TIMEOUT unblock got %v", r)
	}

	doQuiet(s, a, "BLPOP", "k", "0")
	expect(t, s, admin, resp.Integer(1), "CLIENT", "UNBLOCK", "1", "ERROR")
	if r, ok := nextReply(a); !ok || wire(t, r) != wire(t, errUnblocked) {
		t.Fatalf("ERROR unblock got %v", r)
	}

	expect(t, s, admin, resp.Integer(0), "CLIENT", "UNBLOCK", "1")
}

func TestBlockingTimeoutArgs(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, errNegTimeout, "BLPOP", "k", "-1")
	expect(t, s, c, errTimeout, "BLPOP", "k", "nope")
	expect(t, s, c, errTimeout, "BLPOP", "k", "inf")
}

// ============================================================
// Pubsub
// ============================================================

func TestPubsubRestrictionRESP2(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	doQuiet(s, c, "SUBSCRIBE", "x")
	if r, ok := nextReply(c); !ok || wire(t, r) != wire(t, resp.Push{
		resp.BulkString("subscribe"), resp.BulkString("x"), resp.Integer(1),
	}) {
		t.Fatalf("subscribe confirm = %v", r)
	}

	expect(t, s, c,
		resp.Error("ERR Can't execute 'get': only (P)SUBSCRIBE / (P)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context"),
		"GET", "x")
	expect(t, s, c, resp.Array{resp.BulkString("pong"), resp.BulkString("")}, "PING")
	expect(t, s, c, resp.Array{resp.BulkString("pong"), resp.BulkString("hey")}, "PING", "hey")

	doQuiet(s, c, "UNSUBSCRIBE")
	nextReply(c) // unsubscribe confirmation
	expect(t, s, c, resp.Nil, "GET", "x")
}

func TestPublishDelivery(t *testing.T) {
	s := newTestStore()
	sub := newTestClient(s, 1)
	pat := newTestClient(s, 2)
	pub := newTestClient(s, 3)

	doQuiet(s, sub, "SUBSCRIBE", "news")
	nextReply(sub)
	doQuiet(s, pat, "PSUBSCRIBE", "n*")
	nextReply(pat)

	expect(t, s, pub, resp.Integer(2), "PUBLISH", "news", "hi")

	if r, ok := nextReply(sub); !ok || wire(t, r) != wire(t, resp.Push{
		resp.BulkString("message"), resp.BulkString("news"), resp.BulkString("hi"),
	}) {
		t.Fatalf("subscriber got %v", r)
	}
	if r, ok := nextReply(pat); !ok || wire(t, r) != wire(t, resp.Push{
		resp.BulkString("pmessage"), resp.BulkString("n*"), resp.BulkString("news"), resp.BulkString("hi"),
	}) {
		t.Fatalf("pattern subscriber got %v", r)
	}
}

func TestPubsubIntrospection(t *testing.T) {
	s := newTestStore()
	sub := newTestClient(s, 1)
	c := newTestClient(s, 2)

	doQuiet(s, sub, "SUBSCRIBE", "alpha")
	nextReply(sub)
	doQuiet(s, sub, "PSUBSCRIBE", "a*")
	nextReply(sub)

	expect(t, s, c, resp.Array{resp.BulkString("alpha")}, "PUBSUB", "CHANNELS")
	expect(t, s, c, resp.Array{resp.BulkString("alpha"), resp.Integer(1), resp.BulkString("other"), resp.Integer(0)},
		"PUBSUB", "NUMSUB", "alpha", "other")
	expect(t, s, c, resp.Integer(1), "PUBSUB", "NUMPAT")
}

func TestUnsubscribeAllAlwaysReplies(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	doQuiet(s, c, "UNSUBSCRIBE")
	r, ok := nextReply(c)
	if !ok {
		t.Fatal("expected at least one unsubscribe reply")
	}
	want := resp.Push{resp.BulkString("unsubscribe"), resp.Nil, resp.Integer(0)}
	if wire(t, r) != wire(t, want) {
		t.Fatalf("got %q, want %q", wire(t, r), wire(t, want))
	}
}

// ============================================================
// Databases
// ============================================================

func TestSelectAndSwapDB(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "k", "zero")
	expect(t, s, c, resp.OK, "SELECT", "1")
	expect(t, s, c, resp.Nil, "GET", "k")
	do(t, s, c, "SET", "k", "one")

	expect(t, s, c, resp.OK, "SWAPDB", "0", "1")
	expect(t, s, c, resp.BulkString("zero"), "GET", "k")

	expect(t, s, c, errDBIndex, "SELECT", "16")
	expect(t, s, c, errDBIndex, "SELECT", "-1")
}

func TestMoveAndCopy(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "k", "v")
	expect(t, s, c, resp.Integer(1), "MOVE", "k", "1")
	expect(t, s, c, resp.Nil, "GET", "k")
	do(t, s, c, "SELECT", "1")
	expect(t, s, c, resp.BulkString("v"), "GET", "k")

	expect(t, s, c, resp.Integer(1), "COPY", "k", "k2")
	expect(t, s, c, resp.BulkString("v"), "GET", "k2")
	expect(t, s, c, resp.Integer(0), "COPY", "k", "k2")
	expect(t, s, c, resp.Integer(1), "COPY", "k", "k2", "REPLACE")
	expect(t, s, c, errSameObject, "COPY", "k", "k")
}

func TestFlushDBAndFlushAll(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "a", "1")
	do(t, s, c, "SELECT", "1")
	do(t, s, c, "SET", "b", "2")

	expect(t, s, c, resp.OK, "FLUSHDB")
	expect(t, s, c, resp.Integer(0), "DBSIZE")
	do(t, s, c, "SELECT", "0")
	expect(t, s, c, resp.Integer(1), "DBSIZE")

	expect(t, s, c, resp.OK, "FLUSHALL")
	expect(t, s, c, resp.Integer(0), "DBSIZE")
}

// ============================================================
// Connection state
// ============================================================

func TestHello(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, errNoProto, "HELLO", "4")

	r := do(t, s, c, "HELLO", "3")
	if c.Proto() != resp.V3 {
		t.Fatalf("proto = %d", c.Proto())
	}
	if _, ok := r.(resp.Map); !ok {
		t.Fatalf("HELLO reply type %T", r)
	}

	// RESP3 subscribers are unrestricted.
	doQuiet(s, c, "SUBSCRIBE", "x")
	nextReply(c)
	expect(t, s, c, resp.Nil, "GET", "anything")
}

func TestReset(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "HELLO", "3")
	do(t, s, c, "SELECT", "3")
	do(t, s, c, "MULTI")
	doQuiet(s, c, "RESET")

	r, ok := nextReply(c)
	if !ok || wire(t, r) != wire(t, resp.Simple("RESET")) {
		t.Fatalf("RESET reply = %v", r)
	}
	if c.db != 0 || c.inMulti || c.Proto() != resp.V2 {
		t.Fatalf("state not reset: db=%d multi=%v proto=%d", c.db, c.inMulti, c.Proto())
	}
}

func TestClientReplyModes(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	// OFF suppresses everything, including the OFF acknowledgment.
	doQuiet(s, c, "CLIENT", "REPLY", "OFF")
	if _, ok := nextReply(c); ok {
		t.Fatal("OFF should not reply")
	}
	doQuiet(s, c, "SET", "k", "v")
	if _, ok := nextReply(c); ok {
		t.Fatal("replies should be suppressed under OFF")
	}

	// ON resumes with its own +OK.
	expect(t, s, c, resp.OK, "CLIENT", "REPLY", "ON")
	expect(t, s, c, resp.BulkString("v"), "GET", "k")

	// SKIP suppresses exactly the next reply.
	doQuiet(s, c, "CLIENT", "REPLY", "SKIP")
	doQuiet(s, c, "SET", "k", "v2")
	if _, ok := nextReply(c); ok {
		t.Fatal("SKIP should suppress the next reply")
	}
	expect(t, s, c, resp.BulkString("v2"), "GET", "k")
}

func TestClientListFields(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 7)

	do(t, s, c, "CLIENT", "SETNAME", "tester")
	r := do(t, s, c, "CLIENT", "INFO")
	line := string(r.(resp.Bulk))
	for _, field := range []string{"id=7", "name=tester", "db=0", "sub=0", "psub=0", "multi=-1", "flags=N", "resp=2"} {
		if !bytes.Contains([]byte(line), []byte(field)) {
			t.Errorf("CLIENT INFO missing %q in %q", field, line)
		}
	}

	expect(t, s, c, errClientName, "CLIENT", "SETNAME", "has space")
	expect(t, s, c, resp.Integer(7), "CLIENT", "ID")
}

func TestMonitorFeed(t *testing.T) {
	s := newTestStore()
	m := newTestClient(s, 1)
	c := newTestClient(s, 2)

	expect(t, s, m, resp.OK, "MONITOR")
	do(t, s, c, "SET", "k", "v")

	r, ok := nextReply(m)
	if !ok {
		t.Fatal("monitor got no feed")
	}
	line := string(r.(resp.Simple))
	if !bytes.Contains([]byte(line), []byte(`"k"`)) || !bytes.Contains([]byte(line), []byte("[0 ")) {
		t.Fatalf("feed line = %q", line)
	}
}

// ============================================================
// CONFIG
// ============================================================

func TestConfigSetGetAndAliases(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.OK, "CONFIG", "SET", "zset-max-listpack-entries", "1")
	expect(t, s, c,
		resp.Map{resp.BulkString("zset-max-ziplist-entries"), resp.BulkString("1")},
		"CONFIG", "GET", "zset-max-ziplist-entries")

	// Memory suffixes: lower k = 1000, kb = 1024.
	expect(t, s, c, resp.OK, "CONFIG", "SET", "proto-max-bulk-len", "1k")
	if s.readerCfg.BlobLimit() != 1000 {
		t.Fatalf("blob limit = %d", s.readerCfg.BlobLimit())
	}
	expect(t, s, c, resp.OK, "CONFIG", "SET", "proto-max-bulk-len", "1kb")
	if s.readerCfg.BlobLimit() != 1024 {
		t.Fatalf("blob limit = %d", s.readerCfg.BlobLimit())
	}

	expect(t, s, c, resp.OK, "CONFIG", "SET", "lazyfree-lazy-expire", "yes")
	if !s.limits.LazyExpire {
		t.Fatal("lazy expire not applied")
	}

	expect(t, s, c,
		resp.Error("ERR Unknown option or number of arguments for CONFIG SET - 'bogus'"),
		"CONFIG", "SET", "bogus", "1")
}

func TestConfigResetStat(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "k", "v")
	if s.dirty == 0 || s.numCommands == 0 {
		t.Fatal("stats should move")
	}
	expect(t, s, c, resp.OK, "CONFIG", "RESETSTAT")
	if s.dirty != 0 {
		t.Fatalf("dirty = %d after RESETSTAT", s.dirty)
	}
}

// ============================================================
// COMMAND introspection
// ============================================================

func TestCommandIntrospection(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	if r := do(t, s, c, "COMMAND", "COUNT"); r.(resp.Integer) < 100 {
		t.Fatalf("COMMAND COUNT = %v", r)
	}

	expect(t, s, c, resp.Array{resp.BulkString("get"), resp.BulkString("getbit"),
		resp.BulkString("getdel"), resp.BulkString("getex"), resp.BulkString("getrange"),
		resp.BulkString("getset")},
		"COMMAND", "LIST", "FILTERBY", "PATTERN", "get*")

	expect(t, s, c, resp.Array{resp.BulkString("k")}, "COMMAND", "GETKEYS", "GET", "k")
	expect(t, s, c, resp.Array{resp.BulkString("a"), resp.BulkString("b")},
		"COMMAND", "GETKEYS", "MSET", "a", "1", "b", "2")
	expect(t, s, c, resp.Error("ERR Invalid command specified"), "COMMAND", "GETKEYS", "NOPE")
	expect(t, s, c, resp.Error("ERR Invalid number of arguments specified for command"),
		"COMMAND", "GETKEYS", "GET")
	expect(t, s, c, resp.Error("ERR The command has no key arguments"),
		"COMMAND", "GETKEYS", "PING")
}

// ============================================================
// Keyspace commands
// ============================================================

func TestKeysAndScan(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	do(t, s, c, "SET", "one", "1")
	do(t, s, c, "SET", "two", "2")
	do(t, s, c, "SET", "three", "3")

	r := do(t, s, c, "KEYS", "t*")
	if len(r.(resp.Array)) != 2 {
		t.Fatalf("KEYS t* = %v", r)
	}

	r = do(t, s, c, "SCAN", "0", "MATCH", "o*")
	pair := r.(resp.Array)
	if string(pair[0].(resp.Bulk)) != "0" {
		t.Fatalf("cursor = %v", pair[0])
	}
	if len(pair[1].(resp.Array)) != 1 {
		t.Fatalf("SCAN matches = %v", pair[1])
	}
}

func TestRenameSemantics(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, errNoSuchKey, "RENAME", "missing", "dst")
	do(t, s, c, "SET", "src", "v")
	expect(t, s, c, resp.OK, "RENAME", "src", "dst")
	expect(t, s, c, resp.BulkString("v"), "GET", "dst")

	do(t, s, c, "SET", "other", "x")
	expect(t, s, c, resp.Integer(0), "RENAMENX", "dst", "other")
	expect(t, s, c, resp.Integer(1), "RENAMENX", "dst", "fresh")
}

func TestUnlinkDeletesImmediately(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	for i := 0; i < 200; i++ {
		do(t, s, c, "RPUSH", "big", "payload")
	}
	expect(t, s, c, resp.Integer(1), "UNLINK", "big")
	expect(t, s, c, resp.Integer(0), "EXISTS", "big")
}

func TestObjectEncodingLifecycle(t *testing.T) {
	s := newTestStore()
	c := newTestClient(s, 1)

	expect(t, s, c, resp.OK, "CONFIG", "SET", "zset-max-listpack-entries", "1")
	do(t, s, c, "ZADD", "z", "1", "a")
	expect(t, s, c, resp.BulkString("listpack"), "OBJECT", "ENCODING", "z")
	do(t, s, c, "ZADD", "z", "2", "b")
	expect(t, s, c, resp.BulkString("skiplist"), "OBJECT", "ENCODING", "z")
	expect(t, s, c, resp.Array{resp.BulkString("a"), resp.BulkString("b")}, "ZRANGE", "z", "0", "-1")

	// Promotion is sticky even after removals.
	do(t, s, c, "ZREM", "z", "b")
	expect(t, s, c, resp.BulkString("skiplist"), "OBJECT", "ENCODING", "z")

	expect(t, s, c, errNoSuchKey, "OBJECT", "ENCODING", "nope")
}
