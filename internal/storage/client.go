package storage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/braddunbar/bradis/internal/resp"
)

// Reply modes set via CLIENT REPLY. SKIP is tracked separately as a
// one-shot flag on the client.
const (
	replyOn = iota
	replyOff
)

// Client is the executor-side session record for one connection. Every
// field except the outbox is owned by the store goroutine.
type Client struct {
	ID        uint64
	Addr      string
	LAddr     string
	CreatedAt time.Time

	// CloseConn asks the connection to tear down. Set by the server
	// before the client is registered and safe to call from the executor.
	CloseConn func()

	db      int
	name    []byte
	lastCmd string

	// proto is atomic: the writer goroutine reads it while HELLO updates
	// it on the executor.
	proto atomic.Int32
	monitor    bool
	inMulti    bool
	multiError bool
	queued     [][][]byte

	// Reply handling.
	replyMode  int
	skipNext   bool
	suppressed bool
	collecting bool
	collected  []resp.Reply

	// Pubsub subscriptions, by channel and by pattern.
	channels map[string]struct{}
	patterns map[string]struct{}

	// Blocking state, nil unless parked on keys.
	blocker *blocker

	// inExec degrades blocking commands to their empty reply.
	inExec bool

	out *Outbox
}

// NewClient builds a session record. The id must be unique for the process
// lifetime; addresses are informational.
func NewClient(id uint64, addr, laddr string) *Client {
	c := &Client{
		ID:        id,
		Addr:      addr,
		LAddr:     laddr,
		CreatedAt: time.Now(),
		channels:  make(map[string]struct{}),
		patterns:  make(map[string]struct{}),
		out:       NewOutbox(),
	}
	c.proto.Store(resp.V2)
	return c
}

// Proto returns the negotiated protocol version.
func (c *Client) Proto() int { return int(c.proto.Load()) }

// Outbox returns the reply queue consumed by the connection's writer.
func (c *Client) Outbox() *Outbox { return c.out }

// push emits a command reply, honoring CLIENT REPLY suppression and EXEC
// collection.
func (c *Client) push(r resp.Reply) {
	if c.collecting {
		c.collected = append(c.collected, r)
		return
	}
	if c.suppressed {
		return
	}
	c.out.Push(r)
}

// pushAlways emits a frame that is not a command reply (pubsub messages,
// monitor feed) and is never suppressed.
func (c *Client) pushAlways(r resp.Reply) {
	c.out.Push(r)
}

// subscriptionCount is sub + psub.
func (c *Client) subscriptionCount() int {
	return len(c.channels) + len(c.patterns)
}

// flags renders the CLIENT LIST flags field.
func (c *Client) flags() string {
	var out []byte
	if c.blocker != nil {
		out = append(out, 'b')
	}
	if c.inMulti {
		out = append(out, 'x')
	}
	if c.monitor {
		out = append(out, 'O')
	}
	if c.subscriptionCount() > 0 {
		out = append(out, 'P')
	}
	if len(out) == 0 {
		return "N"
	}
	return string(out)
}

// Outbox is the thread-safe reply queue between the executor and a
// connection's writer goroutine.
type Outbox struct {
	mu     sync.Mutex
	items  []resp.Reply
	closed bool
	signal chan struct{}
}

// NewOutbox returns an empty open outbox.
func NewOutbox() *Outbox {
	return &Outbox{signal: make(chan struct{}, 1)}
}

// Push appends a reply. Pushing to a closed outbox is a no-op, which covers
// executor work that finishes after a client is gone.
func (o *Outbox) Push(r resp.Reply) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.items = append(o.items, r)
	o.mu.Unlock()

	select {
	case o.signal <- struct{}{}:
	default:
	}
}

// Close wakes the consumer and discards future pushes.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	select {
	case o.signal <- struct{}{}:
	default:
	}
}

// Next blocks until a reply is available or the outbox is closed and
// drained.
func (o *Outbox) Next() (resp.Reply, bool) {
	for {
		o.mu.Lock()
		if len(o.items) > 0 {
			r := o.items[0]
			o.items = o.items[1:]
			o.mu.Unlock()
			return r, true
		}
		closed := o.closed
		o.mu.Unlock()

		if closed {
			return nil, false
		}
		<-o.signal
	}
}

// TryNext returns the next reply without blocking.
func (o *Outbox) TryNext() (resp.Reply, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.items) == 0 {
		return nil, false
	}
	r := o.items[0]
	o.items = o.items[1:]
	return r, true
}
