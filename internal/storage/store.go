package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage/value"
	"github.com/braddunbar/bradis/internal/telemetry/metric"
)

// message is one unit of executor work.
type message interface{ storeMessage() }

type connectMsg struct{ client *Client }

type disconnectMsg struct{ id uint64 }

type readyMsg struct {
	client *Client
	args   [][]byte
}

type timeoutMsg struct {
	id  uint64
	seq uint64
}

type applyMsg struct{ fn func(*Store) }

func (connectMsg) storeMessage()    {}
func (disconnectMsg) storeMessage() {}
func (readyMsg) storeMessage()      {}
func (timeoutMsg) storeMessage()    {}
func (applyMsg) storeMessage()      {}

// Store owns all databases and applies every command sequentially on a
// single goroutine.
type Store struct {
	msgs chan message

	dbs      [Databases]*DB
	clients  map[uint64]*Client
	order    []uint64
	pubsub   *pubsub
	watching *watching
	blocking *blocking
	monitors map[uint64]*Client
	reclaim  *reclaimer

	limits    Limits
	readerCfg *resp.ReaderConfig

	// Stats, reset by CONFIG RESETSTAT.
	dirty          int64
	numCommands    int64
	numConnections int64
	expiredKeys    int64

	logger  *slog.Logger
	metrics *metric.Registry
}

// New creates a store. The reader config is shared with every connection so
// CONFIG SET proto-max-bulk-len takes effect immediately.
func New(limits Limits, readerCfg *resp.ReaderConfig, logger *slog.Logger, metrics *metric.Registry) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if readerCfg == nil {
		readerCfg = resp.NewReaderConfig()
	}

	s := &Store{
		msgs:      make(chan message, 1024),
		clients:   make(map[uint64]*Client),
		pubsub:    newPubsub(),
		watching:  newWatching(),
		blocking:  newBlocking(),
		monitors:  make(map[uint64]*Client),
		reclaim:   startReclaimer(metrics),
		limits:    limits,
		readerCfg: readerCfg,
		logger:    logger,
		metrics:   metrics,
	}
	for i := range s.dbs {
		s.dbs[i] = newDB()
	}
	return s
}

// ReaderConfig returns the shared protocol limits.
func (s *Store) ReaderConfig() *resp.ReaderConfig { return s.readerCfg }

// Run consumes messages until ctx is canceled. It is the only goroutine
// that touches keyspace state.
func (s *Store) Run(ctx context.Context) {
	defer s.reclaim.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.msgs:
			s.handle(msg)
		}
	}
}

func (s *Store) handle(msg message) {
	switch m := msg.(type) {
	case connectMsg:
		s.connect(m.client)
	case disconnectMsg:
		s.disconnect(m.id)
	case readyMsg:
		s.dispatch(m.client, m.args)
		s.unblockReady()
	case timeoutMsg:
		s.blockTimeout(m.id, m.seq)
	case applyMsg:
		m.fn(s)
		s.unblockReady()
	}
	s.updateKeyspaceMetrics()
}

// Connect registers a new client session.
func (s *Store) Connect(c *Client) { s.msgs <- connectMsg{c} }

// Disconnect removes a client and all its registrations.
func (s *Store) Disconnect(id uint64) { s.msgs <- disconnectMsg{id} }

// Ready submits one complete command for a client.
func (s *Store) Ready(c *Client, args [][]byte) { s.msgs <- readyMsg{c, args} }

// Apply runs fn on the executor goroutine, used for config reloads.
func (s *Store) Apply(fn func(*Store)) { s.msgs <- applyMsg{fn} }

func (s *Store) connect(c *Client) {
	s.numConnections++
	s.clients[c.ID] = c
	s.order = append(s.order, c.ID)
	if s.metrics != nil {
		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ConnectedClients.Set(float64(len(s.clients)))
	}
}

func (s *Store) disconnect(id uint64) {
	c, ok := s.clients[id]
	if !ok {
		return
	}
	s.blocking.remove(id)
	delete(s.monitors, id)
	s.pubsub.disconnect(c)
	s.watching.remove(id)
	delete(s.clients, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	c.out.Close()
	if s.metrics != nil {
		s.metrics.ConnectedClients.Set(float64(len(s.clients)))
		s.metrics.BlockedClients.Set(float64(len(s.blocking.byClient)))
	}
}

// ============================================================
// Keyspace access with lazy expiration
// ============================================================

// expireIfNeeded reaps key when its deadline has passed, waking watchers
// like any other delete.
func (s *Store) expireIfNeeded(db int, key string) {
	d := s.dbs[db]
	if !d.isExpired(key) {
		return
	}
	v := d.objects[key]
	delete(d.objects, key)
	delete(d.expires, key)
	s.reclaim.drop(v, s.limits.LazyExpire)
	s.watching.touch(dbKey{db, key})
	s.dirty++
	s.expiredKeys++
	if s.metrics != nil {
		s.metrics.ExpiredKeys.Inc()
	}
}

// lookup returns the live value for key, applying lazy expiration.
func (s *Store) lookup(db int, key string) (value.Value, bool) {
	s.expireIfNeeded(db, key)
	v, ok := s.dbs[db].objects[key]
	return v, ok
}

// exists reports whether key is live.
func (s *Store) exists(db int, key string) bool {
	_, ok := s.lookup(db, key)
	return ok
}

// setValue stores a value, dropping any previous one, clearing the TTL
// unless keepTTL.
func (s *Store) setValue(db int, key string, v value.Value, keepTTL bool) {
	s.expireIfNeeded(db, key)
	d := s.dbs[db]
	if old, ok := d.objects[key]; ok {
		s.reclaim.drop(old, s.limits.LazyUserDel)
	}
	if !keepTTL {
		delete(d.expires, key)
	}
	d.objects[key] = v
}

// deleteKey removes key, returning whether it was live.
func (s *Store) deleteKey(db int, key string, lazy bool) bool {
	s.expireIfNeeded(db, key)
	d := s.dbs[db]
	v, ok := d.objects[key]
	if !ok {
		return false
	}
	delete(d.objects, key)
	delete(d.expires, key)
	s.reclaim.drop(v, lazy)
	return true
}

// noteWrite records a committed mutation of key: the dirty counter grows by
// the mutation count, watchers are flagged, and blocked clients waiting on
// the key are scheduled.
func (s *Store) noteWrite(db int, key string, mutations int) {
	if mutations <= 0 {
		return
	}
	s.dirty += int64(mutations)
	s.watching.touch(dbKey{db, key})
	s.blocking.markReady(dbKey{db, key})
}

// deleteIfEmpty removes a container key once its value has no members.
func (s *Store) deleteIfEmpty(db int, key string, size int) {
	if size > 0 {
		return
	}
	d := s.dbs[db]
	if v, ok := d.objects[key]; ok {
		delete(d.objects, key)
		delete(d.expires, key)
		s.reclaim.drop(v, s.limits.LazyUserDel)
	}
}

// ============================================================
// Typed accessors
// ============================================================

func (s *Store) getStr(db int, key string) (*value.Str, bool, bool) {
	v, ok := s.lookup(db, key)
	if !ok {
		return nil, false, true
	}
	str, isStr := v.(*value.Str)
	return str, ok, isStr
}

func (s *Store) getHash(db int, key string) (*value.Hash, bool, bool) {
	v, ok := s.lookup(db, key)
	if !ok {
		return nil, false, true
	}
	h, isHash := v.(*value.Hash)
	return h, ok, isHash
}

func (s *Store) getSet(db int, key string) (*value.Set, bool, bool) {
	v, ok := s.lookup(db, key)
	if !ok {
		return nil, false, true
	}
	set, isSet := v.(*value.Set)
	return set, ok, isSet
}

func (s *Store) getZSet(db int, key string) (*value.ZSet, bool, bool) {
	v, ok := s.lookup(db, key)
	if !ok {
		return nil, false, true
	}
	z, isZSet := v.(*value.ZSet)
	return z, ok, isZSet
}

func (s *Store) getList(db int, key string) (*value.List, bool, bool) {
	v, ok := s.lookup(db, key)
	if !ok {
		return nil, false, true
	}
	l, isList := v.(*value.List)
	return l, ok, isList
}

// ============================================================
// Dispatch
// ============================================================

// queueExempt lists the commands that bypass the MULTI queue.
var queueExempt = map[string]bool{
	"multi": true, "exec": true, "discard": true,
	"watch": true, "unwatch": true, "reset": true, "quit": true,
}

// pubsubAllowed lists the commands permitted under the RESP2 subscriber
// restriction.
var pubsubAllowed = map[string]bool{
	"subscribe": true, "unsubscribe": true, "psubscribe": true,
	"punsubscribe": true, "ping": true, "quit": true, "reset": true,
}

// dispatch validates and runs a single command for a client.
func (s *Store) dispatch(c *Client, args [][]byte) {
	if len(args) == 0 {
		return
	}

	s.numCommands++
	if s.metrics != nil {
		s.metrics.CommandsTotal.Inc()
	}

	name := lowerName(args[0])
	cmd, known := commandTable[name]

	c.suppressed = c.replyMode == replyOff || c.skipNext
	c.skipNext = false

	if c.inMulti && !queueExempt[name] {
		if !known {
			c.multiError = true
			c.push(errUnknownCommand(name))
			return
		}
		if !cmd.checkArity(len(args)) {
			c.multiError = true
			c.push(errArity(name))
			return
		}
		c.queued = append(c.queued, args)
		c.push(resp.Queued)
		return
	}

	if c.Proto() == resp.V2 && c.subscriptionCount() > 0 && !pubsubAllowed[name] {
		c.push(errPubsubContext(name))
		return
	}

	if !known {
		c.push(errUnknownCommand(name))
		return
	}
	if !cmd.checkArity(len(args)) {
		c.push(errArity(name))
		return
	}

	c.lastCmd = name
	s.feedMonitors(c, cmd, args)
	s.run(c, cmd, args[1:])
}

// run executes the handler and parks the client when it asks to block.
func (s *Store) run(c *Client, cmd *Command, args [][]byte) {
	intent := cmd.Run(s, c, args)
	if intent == nil {
		return
	}

	if c.inExec || c.collecting {
		// Inside a transaction blocking commands degrade to their
		// empty reply.
		c.push(intent.emptyReply)
		return
	}
	s.block(c, cmd, intent, args)
}

// feedMonitors streams the command to every monitor except admin commands
// and the monitors' own traffic.
func (s *Store) feedMonitors(c *Client, cmd *Command, args [][]byte) {
	if len(s.monitors) == 0 || cmd.Admin || c.monitor {
		return
	}
	now := time.Now()
	line := fmt.Sprintf("%d.%06d [%d %s]", now.Unix(), now.Nanosecond()/1000, c.db, c.Addr)
	for _, arg := range args {
		line += fmt.Sprintf(" %q", arg)
	}
	for _, m := range s.monitors {
		m.pushAlways(resp.Simple(line))
	}
}

// ============================================================
// Blocking
// ============================================================

// blockIntent is returned by a handler that needs to park its client.
type blockIntent struct {
	keys       [][]byte
	timeout    time.Duration
	emptyReply resp.Reply
}

// block parks the client on the intent's keys and schedules the timeout.
func (s *Store) block(c *Client, cmd *Command, intent *blockIntent, args [][]byte) {
	keys := make([]dbKey, 0, len(intent.keys))
	for _, k := range intent.keys {
		keys = append(keys, dbKey{c.db, string(k)})
	}

	full := make([][]byte, 0, len(args)+1)
	full = append(full, []byte(cmd.Name))
	full = append(full, args...)

	bl := &blocker{
		client:     c,
		keys:       keys,
		args:       full,
		emptyReply: intent.emptyReply,
	}
	s.blocking.add(bl)

	if intent.timeout > 0 {
		id, seq := c.ID, bl.seq
		bl.timer = time.AfterFunc(intent.timeout, func() {
			s.msgs <- timeoutMsg{id, seq}
		})
	}
	if s.metrics != nil {
		s.metrics.BlockedClients.Set(float64(len(s.blocking.byClient)))
	}
}

// blockTimeout wakes a parked client with its empty reply, unless it was
// already served.
func (s *Store) blockTimeout(id, seq uint64) {
	bl, ok := s.blocking.byClient[id]
	if !ok || bl.seq != seq {
		return
	}
	s.blocking.remove(id)
	bl.client.push(bl.emptyReply)
	if s.metrics != nil {
		s.metrics.BlockedClients.Set(float64(len(s.blocking.byClient)))
	}
}

// unblockReady serves waiters for every key that received content during
// the last command, looping while service itself readies more keys.
func (s *Store) unblockReady() {
	for {
		keys := s.blocking.takeReady()
		if len(keys) == 0 {
			return
		}
		for _, key := range keys {
			s.serveKey(key)
		}
	}
}

// serveKey re-runs the head waiter's command as if it had been reissued,
// until a waiter still blocks or the queue drains.
func (s *Store) serveKey(key dbKey) {
	for {
		bl := s.blocking.front(key)
		if bl == nil {
			return
		}
		s.blocking.remove(bl.client.ID)

		name := lowerName(bl.args[0])
		cmd := commandTable[name]
		intent := cmd.Run(s, bl.client, bl.args[1:])
		if intent != nil {
			// Still nothing to consume: put the waiter back at the
			// front and stop serving this key.
			s.blocking.addFront(bl)
			return
		}
		if s.metrics != nil {
			s.metrics.BlockedClients.Set(float64(len(s.blocking.byClient)))
		}
	}
}

// unblockClient implements CLIENT UNBLOCK.
func (s *Store) unblockClient(id uint64, withError bool) bool {
	bl, ok := s.blocking.byClient[id]
	if !ok {
		return false
	}
	s.blocking.remove(id)
	if withError {
		bl.client.push(errUnblocked)
	} else {
		bl.client.push(bl.emptyReply)
	}
	if s.metrics != nil {
		s.metrics.BlockedClients.Set(float64(len(s.blocking.byClient)))
	}
	return true
}

// ============================================================
// Misc helpers
// ============================================================

func lowerName(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// resetClient clears all session state, as RESET and teardown require.
func (s *Store) resetClient(c *Client) {
	s.watching.remove(c.ID)
	s.pubsub.disconnect(c)
	delete(s.monitors, c.ID)
	c.monitor = false
	c.inMulti = false
	c.multiError = false
	c.queued = nil
	c.name = nil
	c.db = 0
	c.proto.Store(resp.V2)
	c.replyMode = replyOn
	c.skipNext = false
}

// updateKeyspaceMetrics refreshes the per-db key gauges.
func (s *Store) updateKeyspaceMetrics() {
	if s.metrics == nil {
		return
	}
	for i, d := range s.dbs {
		s.metrics.KeyspaceKeys.WithLabelValues(strconv.Itoa(i)).Set(float64(d.Len()))
	}
	s.metrics.PubsubChannels.Set(float64(len(s.pubsub.channels)))
}
