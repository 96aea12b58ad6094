package storage

import (
	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage/value"
)

func init() {
	register(&Command{Name: "lpush", Arity: -3, Run: lpushCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "rpush", Arity: -3, Run: rpushCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "lpushx", Arity: -3, Run: lpushxCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "rpushx", Arity: -3, Run: rpushxCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "lpop", Arity: -2, Run: lpopCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "rpop", Arity: -2, Run: rpopCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "llen", Arity: 2, Run: llenCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "lrange", Arity: 4, Run: lrangeCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "lindex", Arity: 3, Run: lindexCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "lset", Arity: 4, Run: lsetCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "linsert", Arity: 5, Run: linsertCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "lrem", Arity: 4, Run: lremCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "ltrim", Arity: 4, Run: ltrimCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "lpos", Arity: -3, Run: lposCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "lmove", Arity: 5, Run: lmoveCmd, Keys: keySpec{kind: keysDouble}, Write: true})
	register(&Command{Name: "rpoplpush", Arity: 3, Run: rpoplpushCmd, Keys: keySpec{kind: keysDouble}, Write: true})
	register(&Command{Name: "lmpop", Arity: -4, Run: lmpopCmd, Keys: keySpec{kind: keysNone}, Write: true})
	register(&Command{Name: "blpop", Arity: -3, Run: blpopCmd, Keys: keySpec{kind: keysTrailing}, Write: true})
	register(&Command{Name: "brpop", Arity: -3, Run: brpopCmd, Keys: keySpec{kind: keysTrailing}, Write: true})
	register(&Command{Name: "blmove", Arity: 6, Run: blmoveCmd, Keys: keySpec{kind: keysDouble}, Write: true})
	register(&Command{Name: "brpoplpush", Arity: 4, Run: brpoplpushCmd, Keys: keySpec{kind: keysDouble}, Write: true})
	register(&Command{Name: "blmpop", Arity: -5, Run: blmpopCmd, Keys: keySpec{kind: keysNone}, Write: true})
}

// listOrCreate fetches a list, creating an empty one when absent.
func listOrCreate(s *Store, c *Client, key string) (*value.List, bool) {
	l, exists, isList := s.getList(c.db, key)
	if exists && !isList {
		return nil, false
	}
	if !exists {
		l = value.NewList()
		s.dbs[c.db].objects[key] = l
	}
	return l, true
}

func push(s *Store, c *Client, args [][]byte, left, requireExists bool) *blockIntent {
	key := string(args[0])

	if requireExists {
		l, exists, isList := s.getList(c.db, key)
		if exists && !isList {
			return reply(c, errWrongType)
		}
		if !exists {
			return reply(c, resp.Integer(0))
		}
		return doPush(s, c, key, l, args[1:], left)
	}

	l, ok := listOrCreate(s, c, key)
	if !ok {
		return reply(c, errWrongType)
	}
	return doPush(s, c, key, l, args[1:], left)
}

func doPush(s *Store, c *Client, key string, l *value.List, entries [][]byte, left bool) *blockIntent {
	for _, entry := range entries {
		if left {
			l.PushFront(entry, s.limits.ListMaxListpackSize)
		} else {
			l.PushBack(entry, s.limits.ListMaxListpackSize)
		}
	}
	s.noteWrite(c.db, key, len(entries))
	return reply(c, resp.Integer(int64(l.Len())))
}

func lpushCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return push(s, c, args, true, false)
}

func rpushCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return push(s, c, args, false, false)
}

func lpushxCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return push(s, c, args, true, true)
}

func rpushxCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return push(s, c, args, false, true)
}

func pop(s *Store, c *Client, args [][]byte, left bool) *blockIntent {
	key := string(args[0])

	hasCount := false
	count := int64(1)
	if len(args) == 2 {
		var ok bool
		if count, ok = argInt(args[1]); !ok || count < 0 {
			return reply(c, resp.Error("ERR value is out of range, must be positive"))
		}
		hasCount = true
	} else if len(args) > 2 {
		return reply(c, errSyntax)
	}

	l, exists, isList := s.getList(c.db, key)
	if exists && !isList {
		return reply(c, errWrongType)
	}
	if !exists {
		if hasCount {
			return reply(c, resp.NilArray)
		}
		return reply(c, resp.Nil)
	}

	if count > int64(l.Len()) {
		count = int64(l.Len())
	}
	out := make(resp.Array, 0, count)
	for i := int64(0); i < count; i++ {
		var entry []byte
		if left {
			entry, _ = l.PopFront()
		} else {
			entry, _ = l.PopBack()
		}
		out = append(out, resp.Bulk(entry))
	}
	s.deleteIfEmpty(c.db, key, l.Len())
	s.noteWrite(c.db, key, int(count))

	if !hasCount {
		if len(out) == 0 {
			return reply(c, resp.Nil)
		}
		return reply(c, out[0])
	}
	return reply(c, out)
}

func lpopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return pop(s, c, args, true)
}

func rpopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return pop(s, c, args, false)
}

func llenCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	l, exists, isList := s.getList(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isList {
		return reply(c, errWrongType)
	}
	return reply(c, resp.Integer(int64(l.Len())))
}

func lrangeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	start, ok1 := argInt(args[1])
	stop, ok2 := argInt(args[2])
	if !ok1 || !ok2 {
		return reply(c, errNotInteger)
	}

	l, exists, isList := s.getList(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Array{})
	}
	if !isList {
		return reply(c, errWrongType)
	}

	from, to := clampRange(start, stop, int64(l.Len()))
	var out resp.Array
	l.Range(int(from), int(to), func(_ int, entry []byte) bool {
		out = append(out, resp.Bulk(append([]byte(nil), entry...)))
		return true
	})
	if out == nil {
		out = resp.Array{}
	}
	return reply(c, out)
}

func lindexCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	index, ok := argInt(args[1])
	if !ok {
		return reply(c, errNotInteger)
	}
	l, exists, isList := s.getList(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Nil)
	}
	if !isList {
		return reply(c, errWrongType)
	}
	if index < 0 {
		index += int64(l.Len())
	}
	entry, ok := l.Get(int(index))
	if !ok {
		return reply(c, resp.Nil)
	}
	return reply(c, resp.Bulk(entry))
}

func lsetCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	index, ok := argInt(args[1])
	if !ok {
		return reply(c, errNotInteger)
	}
	l, exists, isList := s.getList(c.db, key)
	if !exists {
		return reply(c, errNoSuchKey)
	}
	if !isList {
		return reply(c, errWrongType)
	}
	if index < 0 {
		index += int64(l.Len())
	}
	if !l.Set(int(index), args[2]) {
		return reply(c, errIndexRange)
	}
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.OK)
}

func linsertCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])

	var before bool
	switch {
	case argMatch(args[1], "BEFORE"):
		before = true
	case argMatch(args[1], "AFTER"):
	default:
		return reply(c, errSyntax)
	}

	l, exists, isList := s.getList(c.db, key)
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isList {
		return reply(c, errWrongType)
	}

	n := l.Insert(args[2], args[3], before, s.limits.ListMaxListpackSize)
	if n < 0 {
		return reply(c, resp.Integer(-1))
	}
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(int64(n)))
}

func lremCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	count, ok := argInt(args[1])
	if !ok {
		return reply(c, errNotInteger)
	}
	l, exists, isList := s.getList(c.db, key)
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isList {
		return reply(c, errWrongType)
	}
	removed := l.Remove(count, args[2])
	s.deleteIfEmpty(c.db, key, l.Len())
	s.noteWrite(c.db, key, int(removed))
	return reply(c, resp.Integer(removed))
}

func ltrimCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	start, ok1 := argInt(args[1])
	stop, ok2 := argInt(args[2])
	if !ok1 || !ok2 {
		return reply(c, errNotInteger)
	}
	l, exists, isList := s.getList(c.db, key)
	if !exists {
		return reply(c, resp.OK)
	}
	if !isList {
		return reply(c, errWrongType)
	}

	before := l.Len()
	from, to := clampRange(start, stop, int64(before))
	l.Trim(int(from), int(to), s.limits.ListMaxListpackSize)
	s.deleteIfEmpty(c.db, key, l.Len())
	if l.Len() != before {
		s.noteWrite(c.db, key, 1)
	}
	return reply(c, resp.OK)
}

func lposCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	rank := int64(0)
	count := int64(-1)
	maxlen := int64(0)
	hasCount := false

	rest := args[2:]
	for i := 0; i < len(rest); i += 2 {
		if i+1 >= len(rest) {
			return reply(c, errSyntax)
		}
		n, ok := argInt(rest[i+1])
		if !ok {
			return reply(c, errNotInteger)
		}
		switch {
		case argMatch(rest[i], "RANK"):
			if n == 0 {
				return reply(c, resp.Error("ERR RANK can't be zero. Use 1 to start searching from the first matching element in the head of the list or a negative rank to start searching from the tail. A value of -1 means the last matching element, -2 means the penultimate and so forth."))
			}
			rank = n
		case argMatch(rest[i], "COUNT"):
			if n < 0 {
				return reply(c, resp.Error("ERR COUNT can't be negative"))
			}
			count = n
			hasCount = true
		case argMatch(rest[i], "MAXLEN"):
			if n < 0 {
				return reply(c, resp.Error("ERR MAXLEN can't be negative"))
			}
			maxlen = n
		default:
			return reply(c, errSyntax)
		}
	}

	l, exists, isList := s.getList(c.db, string(args[0]))
	if exists && !isList {
		return reply(c, errWrongType)
	}
	if !exists {
		if hasCount {
			return reply(c, resp.Array{})
		}
		return reply(c, resp.Nil)
	}

	searchCount := count
	if !hasCount {
		searchCount = 1
	}
	positions := l.Pos(args[1], rank, searchCount, maxlen)

	if !hasCount {
		if len(positions) == 0 {
			return reply(c, resp.Nil)
		}
		return reply(c, resp.Integer(positions[0]))
	}
	out := make(resp.Array, 0, len(positions))
	for _, p := range positions {
		out = append(out, resp.Integer(p))
	}
	return reply(c, out)
}

// edgeFromArg parses LEFT/RIGHT.
func edgeFromArg(b []byte) (left, ok bool) {
	switch {
	case argMatch(b, "LEFT"):
		return true, true
	case argMatch(b, "RIGHT"):
		return false, true
	}
	return false, false
}

// lmove pops from src and pushes to dst, atomically, creating dst when
// needed. It reports the moved element, or nil absent data.
func lmove(s *Store, c *Client, src, dst string, srcLeft, dstLeft bool) (resp.Reply, bool) {
	srcList, srcExists, srcIsList := s.getList(c.db, src)
	if srcExists && !srcIsList {
		return errWrongType, true
	}
	_, dstExists, dstIsList := s.getList(c.db, dst)
	if dstExists && !dstIsList {
		return errWrongType, true
	}
	if !srcExists || srcList.Len() == 0 {
		return nil, false
	}

	var entry []byte
	if srcLeft {
		entry, _ = srcList.PopFront()
	} else {
		entry, _ = srcList.PopBack()
	}

	dstList, _ := listOrCreate(s, c, dst)
	if dstLeft {
		dstList.PushFront(entry, s.limits.ListMaxListpackSize)
	} else {
		dstList.PushBack(entry, s.limits.ListMaxListpackSize)
	}

	s.deleteIfEmpty(c.db, src, srcList.Len())
	s.noteWrite(c.db, src, 1)
	s.noteWrite(c.db, dst, 1)
	return resp.Bulk(entry), true
}

func lmoveCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	srcLeft, ok1 := edgeFromArg(args[2])
	dstLeft, ok2 := edgeFromArg(args[3])
	if !ok1 || !ok2 {
		return reply(c, errSyntax)
	}
	r, done := lmove(s, c, string(args[0]), string(args[1]), srcLeft, dstLeft)
	if !done {
		return reply(c, resp.Nil)
	}
	return reply(c, r)
}

func rpoplpushCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	r, done := lmove(s, c, string(args[0]), string(args[1]), false, true)
	if !done {
		return reply(c, resp.Nil)
	}
	return reply(c, r)
}

// lmpopParse parses numkeys key… LEFT|RIGHT [COUNT n].
func lmpopParse(args [][]byte) (keys [][]byte, left bool, count int64, errReply resp.Reply) {
	numkeys, ok := argInt(args[0])
	if !ok || numkeys <= 0 || int64(len(args)) < numkeys+2 {
		return nil, false, 0, errSyntax
	}
	keys = args[1 : 1+numkeys]
	rest := args[1+numkeys:]

	left, ok = edgeFromArg(rest[0])
	if !ok {
		return nil, false, 0, errSyntax
	}

	count = 1
	if len(rest) == 3 && argMatch(rest[1], "COUNT") {
		if count, ok = argInt(rest[2]); !ok || count <= 0 {
			return nil, false, 0, resp.Error("ERR count should be greater than 0")
		}
	} else if len(rest) != 1 {
		return nil, false, 0, errSyntax
	}
	return keys, left, count, nil
}

// lmpopRun pops from the first non-empty list key.
func lmpopRun(s *Store, c *Client, keys [][]byte, left bool, count int64) (resp.Reply, bool) {
	for _, keyRaw := range keys {
		key := string(keyRaw)
		l, exists, isList := s.getList(c.db, key)
		if exists && !isList {
			return errWrongType, true
		}
		if !exists || l.Len() == 0 {
			continue
		}

		if count > int64(l.Len()) {
			count = int64(l.Len())
		}
		entries := make(resp.Array, 0, count)
		for i := int64(0); i < count; i++ {
			var entry []byte
			if left {
				entry, _ = l.PopFront()
			} else {
				entry, _ = l.PopBack()
			}
			entries = append(entries, resp.Bulk(entry))
		}
		s.deleteIfEmpty(c.db, key, l.Len())
		s.noteWrite(c.db, key, int(count))
		return resp.Array{resp.BulkString(key), entries}, true
	}
	return nil, false
}

func lmpopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	keys, left, count, errReply := lmpopParse(args)
	if errReply != nil {
		return reply(c, errReply)
	}
	if r, done := lmpopRun(s, c, keys, left, count); done {
		return reply(c, r)
	}
	return reply(c, resp.NilArray)
}

// blockingPop implements BLPOP/BRPOP.
func blockingPop(s *Store, c *Client, args [][]byte, left bool) *blockIntent {
	timeout, errReply := argTimeout(args[len(args)-1])
	if errReply != nil {
		return reply(c, errReply)
	}
	keys := args[:len(args)-1]

	for _, keyRaw := range keys {
		key := string(keyRaw)
		l, exists, isList := s.getList(c.db, key)
		if exists && !isList {
			return reply(c, errWrongType)
		}
		if !exists || l.Len() == 0 {
			continue
		}
		var entry []byte
		if left {
			entry, _ = l.PopFront()
		} else {
			entry, _ = l.PopBack()
		}
		s.deleteIfEmpty(c.db, key, l.Len())
		s.noteWrite(c.db, key, 1)
		return reply(c, resp.Array{resp.BulkString(key), resp.Bulk(entry)})
	}

	return &blockIntent{keys: keys, timeout: timeout, emptyReply: resp.NilArray}
}

func blpopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return blockingPop(s, c, args, true)
}

func brpopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return blockingPop(s, c, args, false)
}

func blmoveCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	srcLeft, ok1 := edgeFromArg(args[2])
	dstLeft, ok2 := edgeFromArg(args[3])
	if !ok1 || !ok2 {
		return reply(c, errSyntax)
	}
	timeout, errReply := argTimeout(args[4])
	if errReply != nil {
		return reply(c, errReply)
	}

	r, done := lmove(s, c, string(args[0]), string(args[1]), srcLeft, dstLeft)
	if done {
		return reply(c, r)
	}
	return &blockIntent{keys: args[:1], timeout: timeout, emptyReply: resp.Nil}
}

func brpoplpushCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	timeout, errReply := argTimeout(args[2])
	if errReply != nil {
		return reply(c, errReply)
	}
	r, done := lmove(s, c, string(args[0]), string(args[1]), false, true)
	if done {
		return reply(c, r)
	}
	return &blockIntent{keys: args[:1], timeout: timeout, emptyReply: resp.Nil}
}

func blmpopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	timeout, errReply := argTimeout(args[0])
	if errReply != nil {
		return reply(c, errReply)
	}
	keys, left, count, errReply := lmpopParse(args[1:])
	if errReply != nil {
		return reply(c, errReply)
	}
	if r, done := lmpopRun(s, c, keys, left, count); done {
		return reply(c, r)
	}
	return &blockIntent{keys: keys, timeout: timeout, emptyReply: resp.NilArray}
}
