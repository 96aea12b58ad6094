package storage

import (
	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/pkg/glob"
)

// pubsub is the server-wide subscription registry. PUBLISH from any
// database reaches all subscribers; introspection reads the same maps.
type pubsub struct {
	channels map[string]map[uint64]*Client
	patterns map[string]map[uint64]*Client
}

func newPubsub() *pubsub {
	return &pubsub{
		channels: make(map[string]map[uint64]*Client),
		patterns: make(map[string]map[uint64]*Client),
	}
}

// subscribe registers c on a channel, reporting whether it was new.
func (p *pubsub) subscribe(c *Client, channel string) bool {
	if _, ok := c.channels[channel]; ok {
		return false
	}
	c.channels[channel] = struct{}{}
	if p.channels[channel] == nil {
		p.channels[channel] = make(map[uint64]*Client)
	}
	p.channels[channel][c.ID] = c
	return true
}

// unsubscribe removes c from a channel.
func (p *pubsub) unsubscribe(c *Client, channel string) bool {
	if _, ok := c.channels[channel]; !ok {
		return false
	}
	delete(c.channels, channel)
	delete(p.channels[channel], c.ID)
	if len(p.channels[channel]) == 0 {
		delete(p.channels, channel)
	}
	return true
}

// psubscribe registers c on a pattern.
func (p *pubsub) psubscribe(c *Client, pattern string) bool {
	if _, ok := c.patterns[pattern]; ok {
		return false
	}
	c.patterns[pattern] = struct{}{}
	if p.patterns[pattern] == nil {
		p.patterns[pattern] = make(map[uint64]*Client)
	}
	p.patterns[pattern][c.ID] = c
	return true
}

// punsubscribe removes c from a pattern.
func (p *pubsub) punsubscribe(c *Client, pattern string) bool {
	if _, ok := c.patterns[pattern]; !ok {
		return false
	}
	delete(c.patterns, pattern)
	delete(p.patterns[pattern], c.ID)
	if len(p.patterns[pattern]) == 0 {
		delete(p.patterns, pattern)
	}
	return true
}

// publish delivers message to channel and pattern subscribers, returning
// the receiver count.
func (p *pubsub) publish(channel string, message []byte) int {
	count := 0
	for _, c := range p.channels[channel] {
		c.pushAlways(resp.Push{
			resp.BulkString("message"),
			resp.BulkString(channel),
			resp.Bulk(message),
		})
		count++
	}
	for pattern, subs := range p.patterns {
		if !glob.Match([]byte(channel), []byte(pattern)) {
			continue
		}
		for _, c := range subs {
			c.pushAlways(resp.Push{
				resp.BulkString("pmessage"),
				resp.BulkString(pattern),
				resp.BulkString(channel),
				resp.Bulk(message),
			})
			count++
		}
	}
	return count
}

// disconnect drops every registration for a client.
func (p *pubsub) disconnect(c *Client) {
	for channel := range c.channels {
		p.unsubscribe(c, channel)
	}
	for pattern := range c.patterns {
		p.punsubscribe(c, pattern)
	}
}

// activeChannels returns channels with at least one subscriber, optionally
// filtered by a glob pattern.
func (p *pubsub) activeChannels(pattern []byte) []string {
	var out []string
	for channel := range p.channels {
		if pattern != nil && !glob.Match([]byte(channel), pattern) {
			continue
		}
		out = append(out, channel)
	}
	return out
}

// numSub returns the subscriber count for a channel.
func (p *pubsub) numSub(channel string) int {
	return len(p.channels[channel])
}

// numPat returns the number of distinct active patterns.
func (p *pubsub) numPat() int {
	return len(p.patterns)
}
