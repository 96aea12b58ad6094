package storage

import (
	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage/value"
)

func init() {
	register(&Command{Name: "select", Arity: 2, Run: selectCmd})
	register(&Command{Name: "swapdb", Arity: 3, Run: swapdbCmd, Write: true})
	register(&Command{Name: "flushdb", Arity: -1, Run: flushdbCmd, Write: true})
	register(&Command{Name: "flushall", Arity: -1, Run: flushallCmd, Write: true})
	register(&Command{Name: "move", Arity: 3, Run: moveCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "copy", Arity: -3, Run: copyCmd, Keys: keySpec{kind: keysDouble}, Write: true})
}

// dbIndexArg parses a database index argument.
func dbIndexArg(b []byte) (int, bool) {
	n, ok := argInt(b)
	if !ok || n < 0 || n >= Databases {
		return 0, false
	}
	return int(n), true
}

func selectCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	index, ok := dbIndexArg(args[0])
	if !ok {
		return reply(c, errDBIndex)
	}
	c.db = index
	return reply(c, resp.OK)
}

func swapdbCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	a, ok1 := dbIndexArg(args[0])
	b, ok2 := dbIndexArg(args[1])
	if !ok1 || !ok2 {
		return reply(c, errDBIndex)
	}
	if a != b {
		s.dbs[a], s.dbs[b] = s.dbs[b], s.dbs[a]
		s.watching.touchDB(a)
		s.watching.touchDB(b)
		s.dirty++
	}
	return reply(c, resp.OK)
}

// flushFlag parses the optional ASYNC/SYNC argument, falling back to the
// lazyfree-lazy-user-flush default.
func flushFlag(s *Store, args [][]byte) (lazy bool, errReply resp.Reply) {
	switch len(args) {
	case 0:
		return s.limits.LazyUserFlush, nil
	case 1:
		switch {
		case argMatch(args[0], "ASYNC"):
			return true, nil
		case argMatch(args[0], "SYNC"):
			return false, nil
		}
	}
	return false, errSyntax
}

// flushDB clears one database, dropping values per the lazy flag.
func (s *Store) flushDB(index int, lazy bool) {
	d := s.dbs[index]
	for _, v := range d.objects {
		s.reclaim.drop(v, lazy)
	}
	count := len(d.objects)
	s.dbs[index] = newDB()
	s.watching.touchDB(index)
	s.dirty += int64(count)
}

func flushdbCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	lazy, errReply := flushFlag(s, args)
	if errReply != nil {
		return reply(c, errReply)
	}
	s.flushDB(c.db, lazy)
	return reply(c, resp.OK)
}

func flushallCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	lazy, errReply := flushFlag(s, args)
	if errReply != nil {
		return reply(c, errReply)
	}
	for i := range s.dbs {
		s.flushDB(i, lazy)
	}
	return reply(c, resp.OK)
}

func moveCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	dst, ok := dbIndexArg(args[1])
	if !ok {
		return reply(c, errDBIndex)
	}
	if dst == c.db {
		return reply(c, errSameObject)
	}

	v, exists := s.lookup(c.db, key)
	if !exists {
		return reply(c, resp.Integer(0))
	}
	s.expireIfNeeded(dst, key)
	if _, taken := s.dbs[dst].objects[key]; taken {
		return reply(c, resp.Integer(0))
	}

	src := s.dbs[c.db]
	ttl, hasTTL := src.expires[key]
	delete(src.objects, key)
	delete(src.expires, key)
	s.dbs[dst].objects[key] = v
	if hasTTL {
		s.dbs[dst].expires[key] = ttl
	}

	s.noteWrite(c.db, key, 1)
	s.watching.touch(dbKey{dst, key})
	s.blocking.markReady(dbKey{dst, key})
	s.dirty++
	return reply(c, resp.Integer(1))
}

func copyCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	src, dst := string(args[0]), string(args[1])
	dstDB := c.db
	replace := false

	rest := args[2:]
	for i := 0; i < len(rest); i++ {
		switch {
		case argMatch(rest[i], "DB"):
			if i+1 >= len(rest) {
				return reply(c, errSyntax)
			}
			var ok bool
			if dstDB, ok = dbIndexArg(rest[i+1]); !ok {
				return reply(c, errDBIndex)
			}
			i++
		case argMatch(rest[i], "REPLACE"):
			replace = true
		default:
			return reply(c, errSyntax)
		}
	}

	if src == dst && dstDB == c.db {
		return reply(c, errSameObject)
	}

	v, exists := s.lookup(c.db, src)
	if !exists {
		return reply(c, resp.Integer(0))
	}
	s.expireIfNeeded(dstDB, dst)
	if _, taken := s.dbs[dstDB].objects[dst]; taken && !replace {
		return reply(c, resp.Integer(0))
	}

	clone := cloneValue(v)
	if clone == nil {
		return reply(c, errWrongType)
	}
	if old, ok := s.dbs[dstDB].objects[dst]; ok {
		s.reclaim.drop(old, s.limits.LazyUserDel)
	}
	s.dbs[dstDB].objects[dst] = clone
	delete(s.dbs[dstDB].expires, dst)
	if ttl, hasTTL := s.dbs[c.db].expires[src]; hasTTL {
		s.dbs[dstDB].expires[dst] = ttl
	}

	s.watching.touch(dbKey{dstDB, dst})
	s.blocking.markReady(dbKey{dstDB, dst})
	s.dirty++
	return reply(c, resp.Integer(1))
}

// cloneValue deep copies any stored value.
func cloneValue(v value.Value) value.Value {
	switch val := v.(type) {
	case *value.Str:
		return val.Clone()
	case *value.Hash:
		return val.Clone()
	case *value.Set:
		return val.Clone()
	case *value.ZSet:
		return val.Clone()
	case *value.List:
		return val.Clone()
	}
	return nil
}
