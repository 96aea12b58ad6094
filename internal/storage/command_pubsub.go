package storage

import (
	"github.com/braddunbar/bradis/internal/resp"
)

func init() {
	register(&Command{Name: "subscribe", Arity: -2, Run: subscribeCmd})
	register(&Command{Name: "unsubscribe", Arity: -1, Run: unsubscribeCmd})
	register(&Command{Name: "psubscribe", Arity: -2, Run: psubscribeCmd})
	register(&Command{Name: "punsubscribe", Arity: -1, Run: punsubscribeCmd})
	register(&Command{Name: "publish", Arity: 3, Run: publishCmd})
	register(&Command{Name: "pubsub", Arity: -2, Run: pubsubCmd})
}

// subConfirm pushes the per-channel confirmation frame.
func subConfirm(c *Client, kind, channel string, count int) {
	var name resp.Reply = resp.BulkString(channel)
	if channel == "" {
		name = resp.Nil
	}
	c.pushAlways(resp.Push{
		resp.BulkString(kind),
		name,
		resp.Integer(int64(count)),
	})
}

func subscribeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	for _, channel := range args {
		s.pubsub.subscribe(c, string(channel))
		subConfirm(c, "subscribe", string(channel), c.subscriptionCount())
	}
	s.updateKeyspaceMetrics()
	return nil
}

func unsubscribeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args) == 0 {
		// Unsubscribe all; always confirm at least once.
		if len(c.channels) == 0 {
			subConfirm(c, "unsubscribe", "", c.subscriptionCount())
			return nil
		}
		for channel := range c.channels {
			s.pubsub.unsubscribe(c, channel)
			subConfirm(c, "unsubscribe", channel, c.subscriptionCount())
		}
		s.updateKeyspaceMetrics()
		return nil
	}
	for _, channel := range args {
		s.pubsub.unsubscribe(c, string(channel))
		subConfirm(c, "unsubscribe", string(channel), c.subscriptionCount())
	}
	s.updateKeyspaceMetrics()
	return nil
}

func psubscribeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	for _, pattern := range args {
		s.pubsub.psubscribe(c, string(pattern))
		subConfirm(c, "psubscribe", string(pattern), c.subscriptionCount())
	}
	return nil
}

func punsubscribeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args) == 0 {
		if len(c.patterns) == 0 {
			subConfirm(c, "punsubscribe", "", c.subscriptionCount())
			return nil
		}
		for pattern := range c.patterns {
			s.pubsub.punsubscribe(c, pattern)
			subConfirm(c, "punsubscribe", pattern, c.subscriptionCount())
		}
		return nil
	}
	for _, pattern := range args {
		s.pubsub.punsubscribe(c, string(pattern))
		subConfirm(c, "punsubscribe", string(pattern), c.subscriptionCount())
	}
	return nil
}

func publishCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	count := s.pubsub.publish(string(args[0]), args[1])
	return reply(c, resp.Integer(int64(count)))
}

func pubsubCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	switch {
	case argMatch(args[0], "CHANNELS"):
		var pattern []byte
		switch len(args) {
		case 1:
		case 2:
			pattern = args[1]
		default:
			return reply(c, errUnknownSubcommand(string(args[0]), "PUBSUB"))
		}
		channels := s.pubsub.activeChannels(pattern)
		out := make(resp.Array, 0, len(channels))
		for _, channel := range channels {
			out = append(out, resp.BulkString(channel))
		}
		return reply(c, out)
	case argMatch(args[0], "NUMSUB"):
		out := make(resp.Array, 0, (len(args)-1)*2)
		for _, channel := range args[1:] {
			out = append(out, resp.Bulk(channel))
			out = append(out, resp.Integer(int64(s.pubsub.numSub(string(channel)))))
		}
		return reply(c, out)
	case argMatch(args[0], "NUMPAT"):
		if len(args) != 1 {
			return reply(c, errUnknownSubcommand(string(args[0]), "PUBSUB"))
		}
		return reply(c, resp.Integer(int64(s.pubsub.numPat())))
	}
	return reply(c, errUnknownSubcommand(string(args[0]), "PUBSUB"))
}
