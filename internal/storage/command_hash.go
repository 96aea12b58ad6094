package storage

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage/value"
)

func init() {
	register(&Command{Name: "hset", Arity: -4, Run: hsetCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "hmset", Arity: -4, Run: hmsetCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "hsetnx", Arity: 4, Run: hsetnxCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "hget", Arity: 3, Run: hgetCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "hmget", Arity: -3, Run: hmgetCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "hdel", Arity: -3, Run: hdelCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "hlen", Arity: 2, Run: hlenCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "hstrlen", Arity: 3, Run: hstrlenCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "hexists", Arity: 3, Run: hexistsCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "hkeys", Arity: 2, Run: hkeysCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "hvals", Arity: 2, Run: hvalsCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "hgetall", Arity: 2, Run: hgetallCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "hincrby", Arity: 4, Run: hincrbyCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "hincrbyfloat", Arity: 4, Run: hincrbyfloatCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "hrandfield", Arity: -2, Run: hrandfieldCmd, Keys: keySpec{kind: keysSingle}})
}

// hashOrCreate fetches a hash, creating an empty one when absent.
func hashOrCreate(s *Store, c *Client, key string) (*value.Hash, bool) {
	h, exists, isHash := s.getHash(c.db, key)
	if exists && !isHash {
		return nil, false
	}
	if !exists {
		h = value.NewHash()
		s.dbs[c.db].objects[key] = h
	}
	return h, true
}

func hsetCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args)%2 != 1 {
		return reply(c, errArity("hset"))
	}
	key := string(args[0])
	h, ok := hashOrCreate(s, c, key)
	if !ok {
		return reply(c, errWrongType)
	}
	added := 0
	for i := 1; i < len(args); i += 2 {
		if h.Set(args[i], args[i+1], s.limits.hashConfig()) {
			added++
		}
	}
	s.noteWrite(c.db, key, (len(args)-1)/2)
	return reply(c, resp.Integer(int64(added)))
}

func hmsetCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args)%2 != 1 {
		return reply(c, errArity("hmset"))
	}
	key := string(args[0])
	h, ok := hashOrCreate(s, c, key)
	if !ok {
		return reply(c, errWrongType)
	}
	for i := 1; i < len(args); i += 2 {
		h.Set(args[i], args[i+1], s.limits.hashConfig())
	}
	s.noteWrite(c.db, key, (len(args)-1)/2)
	return reply(c, resp.OK)
}

func hsetnxCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	h, ok := hashOrCreate(s, c, key)
	if !ok {
		return reply(c, errWrongType)
	}
	if h.Has(args[1]) {
		s.deleteIfEmpty(c.db, key, h.Len())
		return reply(c, resp.Integer(0))
	}
	h.Set(args[1], args[2], s.limits.hashConfig())
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(1))
}

func hgetCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	h, exists, isHash := s.getHash(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Nil)
	}
	if !isHash {
		return reply(c, errWrongType)
	}
	v, ok := h.Get(args[1])
	if !ok {
		return reply(c, resp.Nil)
	}
	return reply(c, resp.Bulk(v))
}

func hmgetCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	h, exists, isHash := s.getHash(c.db, string(args[0]))
	if exists && !isHash {
		return reply(c, errWrongType)
	}
	out := make(resp.Array, 0, len(args)-1)
	for _, field := range args[1:] {
		if !exists {
			out = append(out, resp.Nil)
			continue
		}
		if v, ok := h.Get(field); ok {
			out = append(out, resp.Bulk(v))
		} else {
			out = append(out, resp.Nil)
		}
	}
	return reply(c, out)
}

func hdelCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	h, exists, isHash := s.getHash(c.db, key)
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isHash {
		return reply(c, errWrongType)
	}
	removed := 0
	for _, field := range args[1:] {
		if h.Delete(field) {
			removed++
		}
	}
	s.deleteIfEmpty(c.db, key, h.Len())
	s.noteWrite(c.db, key, removed)
	return reply(c, resp.Integer(int64(removed)))
}

func hlenCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	h, exists, isHash := s.getHash(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isHash {
		return reply(c, errWrongType)
	}
	return reply(c, resp.Integer(int64(h.Len())))
}

func hstrlenCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	h, exists, isHash := s.getHash(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isHash {
		return reply(c, errWrongType)
	}
	v, ok := h.Get(args[1])
	if !ok {
		return reply(c, resp.Integer(0))
	}
	return reply(c, resp.Integer(int64(len(v))))
}

func hexistsCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	h, exists, isHash := s.getHash(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isHash {
		return reply(c, errWrongType)
	}
	if h.Has(args[1]) {
		return reply(c, resp.Integer(1))
	}
	return reply(c, resp.Integer(0))
}

func hkeysCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return hcollect(s, c, args, true, false)
}

func hvalsCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return hcollect(s, c, args, false, true)
}

func hcollect(s *Store, c *Client, args [][]byte, keys, vals bool) *blockIntent {
	h, exists, isHash := s.getHash(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Array{})
	}
	if !isHash {
		return reply(c, errWrongType)
	}
	var out resp.Array
	h.Range(func(field, val []byte) bool {
		if keys {
			out = append(out, resp.Bulk(append([]byte(nil), field...)))
		}
		if vals {
			out = append(out, resp.Bulk(append([]byte(nil), val...)))
		}
		return true
	})
	return reply(c, out)
}

func hgetallCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	h, exists, isHash := s.getHash(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Map{})
	}
	if !isHash {
		return reply(c, errWrongType)
	}
	var out resp.Map
	h.Range(func(field, val []byte) bool {
		out = append(out, resp.Bulk(append([]byte(nil), field...)))
		out = append(out, resp.Bulk(append([]byte(nil), val...)))
		return true
	})
	return reply(c, out)
}

func hincrbyCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	delta, ok := argInt(args[2])
	if !ok {
		return reply(c, errNotInteger)
	}
	h, okType := hashOrCreate(s, c, key)
	if !okType {
		return reply(c, errWrongType)
	}

	cur := int64(0)
	if raw, ok := h.Get(args[1]); ok {
		cur, ok = value.ParseInt(raw)
		if !ok {
			s.deleteIfEmpty(c.db, key, h.Len())
			return reply(c, resp.Error("ERR hash value is not an integer"))
		}
	}
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		s.deleteIfEmpty(c.db, key, h.Len())
		return reply(c, errIncrOverflow)
	}

	next := cur + delta
	h.Set(args[1], strconv.AppendInt(nil, next, 10), s.limits.hashConfig())
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(next))
}

func hincrbyfloatCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	delta, ok := argFloat(args[2])
	if !ok || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return reply(c, errNotFloat)
	}
	h, okType := hashOrCreate(s, c, key)
	if !okType {
		return reply(c, errWrongType)
	}

	cur := float64(0)
	if raw, ok := h.Get(args[1]); ok {
		if cur, ok = argFloat(raw); !ok {
			s.deleteIfEmpty(c.db, key, h.Len())
			return reply(c, resp.Error("ERR hash value is not a float"))
		}
	}
	next := cur + delta
	if math.IsNaN(next) || math.IsInf(next, 0) {
		s.deleteIfEmpty(c.db, key, h.Len())
		return reply(c, errIncrNaN)
	}

	rendered := resp.FormatFloat(next)
	h.Set(args[1], []byte(rendered), s.limits.hashConfig())
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.BulkString(rendered))
}

func hrandfieldCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	h, exists, isHash := s.getHash(c.db, string(args[0]))
	if exists && !isHash {
		return reply(c, errWrongType)
	}

	withValues := false
	count := int64(1)
	hasCount := false
	switch len(args) {
	case 1:
	case 2, 3:
		var ok bool
		if count, ok = argInt(args[1]); !ok {
			return reply(c, errNotInteger)
		}
		hasCount = true
		if len(args) == 3 {
			if !argMatch(args[2], "WITHVALUES") {
				return reply(c, errSyntax)
			}
			withValues = true
		}
	default:
		return reply(c, errSyntax)
	}

	if !exists {
		if hasCount {
			return reply(c, resp.Array{})
		}
		return reply(c, resp.Nil)
	}

	if !hasCount {
		field, _, _ := h.At(rand.Intn(h.Len()))
		return reply(c, resp.Bulk(field))
	}

	var out resp.Array
	appendPair := func(i int) {
		field, val, _ := h.At(i)
		out = append(out, resp.Bulk(field))
		if withValues {
			out = append(out, resp.Bulk(val))
		}
	}

	if count < 0 {
		// Negative count allows repeats.
		for i := int64(0); i < -count; i++ {
			appendPair(rand.Intn(h.Len()))
		}
	} else {
		n := int(count)
		if n > h.Len() {
			n = h.Len()
		}
		for _, i := range rand.Perm(h.Len())[:n] {
			appendPair(i)
		}
	}
	return reply(c, out)
}
