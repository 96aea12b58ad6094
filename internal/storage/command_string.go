package storage

import (
	"math"
	"time"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage/value"
)

func init() {
	register(&Command{Name: "get", Arity: 2, Run: getCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "set", Arity: -3, Run: setCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "setnx", Arity: 3, Run: setnxCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "setex", Arity: 4, Run: setexCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "psetex", Arity: 4, Run: psetexCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "getset", Arity: 3, Run: getsetCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "getdel", Arity: 2, Run: getdelCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "getex", Arity: -2, Run: getexCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "mget", Arity: -2, Run: mgetCmd, Keys: keySpec{kind: keysAll}})
	register(&Command{Name: "mset", Arity: -3, Run: msetCmd, Keys: keySpec{kind: keysOdd}, Write: true})
	register(&Command{Name: "msetnx", Arity: -3, Run: msetnxCmd, Keys: keySpec{kind: keysOdd}, Write: true})
	register(&Command{Name: "append", Arity: 3, Run: appendCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "strlen", Arity: 2, Run: strlenCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "incr", Arity: 2, Run: incrCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "decr", Arity: 2, Run: decrCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "incrby", Arity: 3, Run: incrbyCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "decrby", Arity: 3, Run: decrbyCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "incrbyfloat", Arity: 3, Run: incrbyfloatCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "getrange", Arity: 4, Run: getrangeCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "substr", Arity: 4, Run: getrangeCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "setrange", Arity: 4, Run: setrangeCmd, Keys: keySpec{kind: keysSingle}, Write: true})
}

func getCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	str, ok, isStr := s.getStr(c.db, string(args[0]))
	if !ok {
		return reply(c, resp.Nil)
	}
	if !isStr {
		return reply(c, errWrongType)
	}
	return reply(c, resp.Bulk(str.Bytes()))
}

func setCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	val := args[1]

	var (
		nx, xx, keepTTL, withGet bool
		expireAt                 int64
		hasExpire                bool
	)

	rest := args[2:]
	for i := 0; i < len(rest); i++ {
		switch {
		case argMatch(rest[i], "NX"):
			if xx {
				return reply(c, errSyntax)
			}
			nx = true
		case argMatch(rest[i], "XX"):
			if nx {
				return reply(c, errSyntax)
			}
			xx = true
		case argMatch(rest[i], "GET"):
			withGet = true
		case argMatch(rest[i], "KEEPTTL"):
			if hasExpire {
				return reply(c, errSyntax)
			}
			keepTTL = true
		case argMatch(rest[i], "EX"), argMatch(rest[i], "PX"),
			argMatch(rest[i], "EXAT"), argMatch(rest[i], "PXAT"):
			if hasExpire || keepTTL || i+1 >= len(rest) {
				return reply(c, errSyntax)
			}
			n, ok := argInt(rest[i+1])
			if !ok {
				return reply(c, errNotInteger)
			}
			at, ok := expireDeadline(rest[i], n)
			if !ok {
				return reply(c, errInvalidExpire("set"))
			}
			expireAt = at
			hasExpire = true
			i++
		default:
			return reply(c, errSyntax)
		}
	}

	old, exists, oldIsStr := s.getStr(c.db, key)
	if withGet && exists && !oldIsStr {
		return reply(c, errWrongType)
	}

	if (nx && exists) || (xx && !exists) {
		if withGet {
			if exists {
				return reply(c, resp.Bulk(old.Bytes()))
			}
			return reply(c, resp.Nil)
		}
		return reply(c, resp.Nil)
	}

	s.setValue(c.db, key, value.NewStr(val), keepTTL)
	if hasExpire {
		s.dbs[c.db].expireAt(key, expireAt)
	}
	s.noteWrite(c.db, key, 1)

	if withGet {
		if exists {
			return reply(c, resp.Bulk(old.Bytes()))
		}
		return reply(c, resp.Nil)
	}
	return reply(c, resp.OK)
}

// expireDeadline turns a SET expiry option into an absolute deadline.
func expireDeadline(option []byte, n int64) (int64, bool) {
	now := nowMillis()
	switch {
	case argMatch(option, "EX"):
		if n <= 0 || n > math.MaxInt64/1000-now/1000 {
			return 0, false
		}
		return now + n*1000, true
	case argMatch(option, "PX"):
		if n <= 0 {
			return 0, false
		}
		return now + n, true
	case argMatch(option, "EXAT"):
		if n <= 0 || n > math.MaxInt64/1000 {
			return 0, false
		}
		return n * 1000, true
	default: // PXAT
		if n <= 0 {
			return 0, false
		}
		return n, true
	}
}

func setnxCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	if s.exists(c.db, key) {
		return reply(c, resp.Integer(0))
	}
	s.setValue(c.db, key, value.NewStr(args[1]), false)
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(1))
}

func setexCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return setWithTTL(s, c, args, time.Second, "setex")
}

func psetexCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return setWithTTL(s, c, args, time.Millisecond, "psetex")
}

func setWithTTL(s *Store, c *Client, args [][]byte, unit time.Duration, name string) *blockIntent {
	key := string(args[0])
	n, ok := argInt(args[1])
	if !ok {
		return reply(c, errNotInteger)
	}
	if n <= 0 || n > math.MaxInt64/int64(unit/time.Millisecond)-nowMillis() {
		return reply(c, errInvalidExpire(name))
	}
	s.setValue(c.db, key, value.NewStr(args[2]), false)
	s.dbs[c.db].expireAt(key, nowMillis()+n*int64(unit/time.Millisecond))
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.OK)
}

func getsetCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	old, exists, isStr := s.getStr(c.db, key)
	if exists && !isStr {
		return reply(c, errWrongType)
	}
	s.setValue(c.db, key, value.NewStr(args[1]), false)
	s.noteWrite(c.db, key, 1)
	if !exists {
		return reply(c, resp.Nil)
	}
	return reply(c, resp.Bulk(old.Bytes()))
}

func getdelCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	str, exists, isStr := s.getStr(c.db, key)
	if !exists {
		return reply(c, resp.Nil)
	}
	if !isStr {
		return reply(c, errWrongType)
	}
	out := str.Bytes()
	s.deleteKey(c.db, key, s.limits.LazyUserDel)
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Bulk(out))
}

func getexCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])

	var (
		persist   bool
		expireAt  int64
		hasExpire bool
	)
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch {
		case argMatch(rest[i], "PERSIST"):
			if hasExpire {
				return reply(c, errSyntax)
			}
			persist = true
		case argMatch(rest[i], "EX"), argMatch(rest[i], "PX"),
			argMatch(rest[i], "EXAT"), argMatch(rest[i], "PXAT"):
			if hasExpire || persist || i+1 >= len(rest) {
				return reply(c, errSyntax)
			}
			n, ok := argInt(rest[i+1])
			if !ok {
				return reply(c, errNotInteger)
			}
			at, ok := expireDeadline(rest[i], n)
			if !ok {
				return reply(c, errInvalidExpire("getex"))
			}
			expireAt = at
			hasExpire = true
			i++
		default:
			return reply(c, errSyntax)
		}
	}

	str, exists, isStr := s.getStr(c.db, key)
	if !exists {
		return reply(c, resp.Nil)
	}
	if !isStr {
		return reply(c, errWrongType)
	}

	switch {
	case persist:
		if s.dbs[c.db].persist(key) {
			s.noteWrite(c.db, key, 1)
		}
	case hasExpire:
		s.dbs[c.db].expireAt(key, expireAt)
		s.noteWrite(c.db, key, 1)
	}
	return reply(c, resp.Bulk(str.Bytes()))
}

func mgetCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	out := make(resp.Array, 0, len(args))
	for _, key := range args {
		str, ok, isStr := s.getStr(c.db, string(key))
		if !ok || !isStr {
			out = append(out, resp.Nil)
			continue
		}
		out = append(out, resp.Bulk(str.Bytes()))
	}
	return reply(c, out)
}

func msetCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args)%2 != 0 {
		return reply(c, errArity("mset"))
	}
	for i := 0; i < len(args); i += 2 {
		key := string(args[i])
		s.setValue(c.db, key, value.NewStr(args[i+1]), false)
		s.noteWrite(c.db, key, 1)
	}
	return reply(c, resp.OK)
}

func msetnxCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	if len(args)%2 != 0 {
		return reply(c, errArity("msetnx"))
	}
	for i := 0; i < len(args); i += 2 {
		if s.exists(c.db, string(args[i])) {
			return reply(c, resp.Integer(0))
		}
	}
	for i := 0; i < len(args); i += 2 {
		key := string(args[i])
		s.setValue(c.db, key, value.NewStr(args[i+1]), false)
		s.noteWrite(c.db, key, 1)
	}
	return reply(c, resp.Integer(1))
}

// strOrCreate fetches a string value, creating an empty one when absent.
func strOrCreate(s *Store, c *Client, key string) (*value.Str, bool) {
	str, exists, isStr := s.getStr(c.db, key)
	if exists && !isStr {
		return nil, false
	}
	if !exists {
		str = value.NewStr(nil)
		s.dbs[c.db].objects[key] = str
	}
	return str, true
}

func appendCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	existing, exists, isStr := s.getStr(c.db, key)
	if exists && !isStr {
		return reply(c, errWrongType)
	}
	current := 0
	if exists {
		current = existing.Len()
	}
	if int64(current+len(args[1])) > s.readerCfg.BlobLimit() {
		return reply(c, errStringLength)
	}

	str, _ := strOrCreate(s, c, key)
	n := str.Append(args[1])
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(int64(n)))
}

func strlenCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	str, ok, isStr := s.getStr(c.db, string(args[0]))
	if !ok {
		return reply(c, resp.Integer(0))
	}
	if !isStr {
		return reply(c, errWrongType)
	}
	return reply(c, resp.Integer(int64(str.Len())))
}

func incrCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return incrByAmount(s, c, string(args[0]), 1)
}

func decrCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return incrByAmount(s, c, string(args[0]), -1)
}

func incrbyCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	n, ok := argInt(args[1])
	if !ok {
		return reply(c, errNotInteger)
	}
	return incrByAmount(s, c, string(args[0]), n)
}

func decrbyCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	n, ok := argInt(args[1])
	if !ok {
		return reply(c, errNotInteger)
	}
	if n == math.MinInt64 {
		return reply(c, errIncrOverflow)
	}
	return incrByAmount(s, c, string(args[0]), -n)
}

func incrByAmount(s *Store, c *Client, key string, delta int64) *blockIntent {
	str, exists, isStr := s.getStr(c.db, key)
	if exists && !isStr {
		return reply(c, errWrongType)
	}
	if !exists {
		// A missing key counts as zero.
		str = value.NewStrInt(0)
	}
	next, err := str.IncrBy(delta)
	switch err {
	case nil:
	case value.ErrOverflow:
		return reply(c, errIncrOverflow)
	default:
		return reply(c, errNotInteger)
	}
	if !exists {
		s.dbs[c.db].objects[key] = str
	}
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(next))
}

func incrbyfloatCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	delta, ok := argFloat(args[1])
	if !ok || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return reply(c, errNotFloat)
	}
	str, exists, isStr := s.getStr(c.db, key)
	if exists && !isStr {
		return reply(c, errWrongType)
	}
	if !exists {
		// A missing key counts as zero.
		str = value.NewStrInt(0)
	}
	next, err := str.IncrByFloat(delta)
	switch err {
	case nil:
	case value.ErrNaNOrInfinity:
		return reply(c, errIncrNaN)
	default:
		return reply(c, errNotFloat)
	}
	if !exists {
		s.dbs[c.db].objects[key] = str
	}
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.BulkString(resp.FormatFloat(next)))
}

func getrangeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	start, ok1 := argInt(args[1])
	end, ok2 := argInt(args[2])
	if !ok1 || !ok2 {
		return reply(c, errNotInteger)
	}
	str, ok, isStr := s.getStr(c.db, string(args[0]))
	if !ok {
		return reply(c, resp.Bulk(nil))
	}
	if !isStr {
		return reply(c, errWrongType)
	}
	return reply(c, resp.Bulk(str.GetRange(start, end)))
}

func setrangeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	offset, ok := argInt(args[1])
	if !ok || offset < 0 {
		return reply(c, errOffsetRange)
	}
	if offset+int64(len(args[2])) > s.readerCfg.BlobLimit() {
		return reply(c, errStringLength)
	}

	str, exists, isStr := s.getStr(c.db, key)
	if exists && !isStr {
		return reply(c, errWrongType)
	}
	if !exists {
		if len(args[2]) == 0 {
			return reply(c, resp.Integer(0))
		}
		str = value.NewStr(nil)
		s.dbs[c.db].objects[key] = str
	}
	if len(args[2]) == 0 {
		return reply(c, resp.Integer(int64(str.Len())))
	}
	n := str.SetRange(int(offset), args[2])
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(int64(n)))
}
