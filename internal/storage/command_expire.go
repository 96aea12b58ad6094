package storage

import (
	"math"

	"github.com/braddunbar/bradis/internal/resp"
)

func init() {
	register(&Command{Name: "expire", Arity: -3, Run: expireCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "pexpire", Arity: -3, Run: pexpireCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "expireat", Arity: -3, Run: expireatCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "pexpireat", Arity: -3, Run: pexpireatCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "ttl", Arity: 2, Run: ttlCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "pttl", Arity: 2, Run: pttlCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "expiretime", Arity: 2, Run: expiretimeCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "pexpiretime", Arity: 2, Run: pexpiretimeCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "persist", Arity: 2, Run: persistCmd, Keys: keySpec{kind: keysSingle}, Write: true})
}

// expireGeneric implements the four TTL-setting commands. The value n is
// interpreted per unit and relativity; modifiers gate the update.
func expireGeneric(s *Store, c *Client, args [][]byte, name string, unitMS int64, relative bool) *blockIntent {
	key := string(args[0])
	n, ok := argInt(args[1])
	if !ok {
		return reply(c, errNotInteger)
	}

	var nx, xx, gt, lt bool
	for _, opt := range args[2:] {
		switch {
		case argMatch(opt, "NX"):
			nx = true
		case argMatch(opt, "XX"):
			xx = true
		case argMatch(opt, "GT"):
			gt = true
		case argMatch(opt, "LT"):
			lt = true
		default:
			return reply(c, errSyntax)
		}
	}
	if (nx && (xx || gt || lt)) || (gt && lt) {
		return reply(c, resp.Error("ERR NX and XX, GT or LT options at the same time are not compatible"))
	}

	if !s.exists(c.db, key) {
		return reply(c, resp.Integer(0))
	}

	// Overflow in deadline computation is an error, not a wrap.
	if n > math.MaxInt64/unitMS || n < math.MinInt64/unitMS {
		return reply(c, errInvalidExpire(name))
	}
	deadline := n * unitMS
	if relative {
		now := nowMillis()
		if deadline > 0 && now > math.MaxInt64-deadline {
			return reply(c, errInvalidExpire(name))
		}
		deadline += now
	}

	current, hasTTL := s.dbs[c.db].ttl(key)
	currentDeadline := int64(math.MaxInt64)
	if hasTTL {
		currentDeadline = nowMillis() + current
	}

	switch {
	case nx && hasTTL:
		return reply(c, resp.Integer(0))
	case xx && !hasTTL:
		return reply(c, resp.Integer(0))
	case gt && deadline <= currentDeadline:
		// A persistent key acts as +inf, so GT never succeeds on it.
		return reply(c, resp.Integer(0))
	case lt && deadline >= currentDeadline:
		return reply(c, resp.Integer(0))
	}

	if deadline <= nowMillis() {
		// Negative or past deadlines delete the key synchronously.
		s.deleteKey(c.db, key, s.limits.LazyExpire)
		s.noteWrite(c.db, key, 1)
		return reply(c, resp.Integer(1))
	}

	s.dbs[c.db].expireAt(key, deadline)
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(1))
}

func expireCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return expireGeneric(s, c, args, "expire", 1000, true)
}

func pexpireCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return expireGeneric(s, c, args, "pexpire", 1, true)
}

func expireatCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return expireGeneric(s, c, args, "expireat", 1000, false)
}

func pexpireatCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return expireGeneric(s, c, args, "pexpireat", 1, false)
}

// ttlReply returns -2 for missing keys, -1 for persistent ones, otherwise
// the remaining time in the requested unit.
func ttlReply(s *Store, c *Client, key string, unitMS int64) resp.Reply {
	if !s.exists(c.db, key) {
		return resp.Integer(-2)
	}
	remaining, ok := s.dbs[c.db].ttl(key)
	if !ok {
		return resp.Integer(-1)
	}
	if unitMS == 1000 {
		// Round up, matching the second-granularity commands.
		return resp.Integer((remaining + 999) / 1000)
	}
	return resp.Integer(remaining)
}

func ttlCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return reply(c, ttlReply(s, c, string(args[0]), 1000))
}

func pttlCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return reply(c, ttlReply(s, c, string(args[0]), 1))
}

// expiretimeReply returns the absolute deadline instead of the remainder.
func expiretimeReply(s *Store, c *Client, key string, unitMS int64) resp.Reply {
	if !s.exists(c.db, key) {
		return resp.Integer(-2)
	}
	d := s.dbs[c.db]
	at, ok := d.expires[key]
	if !ok {
		return resp.Integer(-1)
	}
	if unitMS == 1000 {
		return resp.Integer(at / 1000)
	}
	return resp.Integer(at)
}

func expiretimeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return reply(c, expiretimeReply(s, c, string(args[0]), 1000))
}

func pexpiretimeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return reply(c, expiretimeReply(s, c, string(args[0]), 1))
}

func persistCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	if !s.exists(c.db, key) {
		return reply(c, resp.Integer(0))
	}
	if !s.dbs[c.db].persist(key) {
		return reply(c, resp.Integer(0))
	}
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(1))
}
