package storage

import (
	"time"

	"github.com/braddunbar/bradis/internal/resp"
)

// blocker records one client parked on a set of keys.
type blocker struct {
	client *Client

	// keys the client waits on, in command order.
	keys []dbKey

	// args replays the original command when a key becomes ready.
	args [][]byte

	// emptyReply is what a timeout or CLIENT UNBLOCK TIMEOUT yields.
	emptyReply resp.Reply

	// seq invalidates timers that fire after the client was served.
	seq uint64

	timer *time.Timer
}

// blocking manages per-key FIFO waiter queues plus a per-client back
// pointer, so timeout and teardown remove a waiter from every queue.
type blocking struct {
	byKey    map[dbKey][]*blocker
	byClient map[uint64]*blocker
	ready    []dbKey
	readySet map[dbKey]struct{}
	seq      uint64
}

func newBlocking() *blocking {
	return &blocking{
		byKey:    make(map[dbKey][]*blocker),
		byClient: make(map[uint64]*blocker),
		readySet: make(map[dbKey]struct{}),
	}
}

// add parks a client on keys. The caller schedules the timeout.
func (b *blocking) add(bl *blocker) {
	b.seq++
	bl.seq = b.seq
	b.byClient[bl.client.ID] = bl
	bl.client.blocker = bl
	for _, key := range bl.keys {
		b.byKey[key] = append(b.byKey[key], bl)
	}
}

// addFront re-parks a waiter at the head of its queues, used when a served
// waiter turns out to still be blocked.
func (b *blocking) addFront(bl *blocker) {
	b.byClient[bl.client.ID] = bl
	bl.client.blocker = bl
	for _, key := range bl.keys {
		b.byKey[key] = append([]*blocker{bl}, b.byKey[key]...)
	}
}

// remove unparks a client from every queue.
func (b *blocking) remove(id uint64) *blocker {
	bl, ok := b.byClient[id]
	if !ok {
		return nil
	}
	delete(b.byClient, id)
	bl.client.blocker = nil
	if bl.timer != nil {
		bl.timer.Stop()
	}
	for _, key := range bl.keys {
		queue := b.byKey[key]
		for i, other := range queue {
			if other == bl {
				b.byKey[key] = append(queue[:i:i], queue[i+1:]...)
				break
			}
		}
		if len(b.byKey[key]) == 0 {
			delete(b.byKey, key)
		}
	}
	return bl
}

// front returns the first waiter for key.
func (b *blocking) front(key dbKey) *blocker {
	queue := b.byKey[key]
	if len(queue) == 0 {
		return nil
	}
	return queue[0]
}

// markReady queues key for waiter service after the current command.
func (b *blocking) markReady(key dbKey) {
	if _, waiting := b.byKey[key]; !waiting {
		return
	}
	if _, ok := b.readySet[key]; ok {
		return
	}
	b.readySet[key] = struct{}{}
	b.ready = append(b.ready, key)
}

// takeReady drains the ready queue.
func (b *blocking) takeReady() []dbKey {
	if len(b.ready) == 0 {
		return nil
	}
	keys := b.ready
	b.ready = nil
	b.readySet = make(map[dbKey]struct{})
	return keys
}
