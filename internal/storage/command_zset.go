package storage

import (
	"math"
	"math/rand"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage/value"
)

func init() {
	register(&Command{Name: "zadd", Arity: -4, Run: zaddCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "zcard", Arity: 2, Run: zcardCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zscore", Arity: 3, Run: zscoreCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zmscore", Arity: -3, Run: zmscoreCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zincrby", Arity: 4, Run: zincrbyCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "zrank", Arity: -3, Run: zrankCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zrevrank", Arity: -3, Run: zrevrankCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zcount", Arity: 4, Run: zcountCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zlexcount", Arity: 4, Run: zlexcountCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zrem", Arity: -3, Run: zremCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "zrange", Arity: -4, Run: zrangeCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zrangestore", Arity: -5, Run: zrangestoreCmd, Keys: keySpec{kind: keysDouble}, Write: true})
	register(&Command{Name: "zrangebyscore", Arity: -4, Run: zrangebyscoreCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zrevrangebyscore", Arity: -4, Run: zrevrangebyscoreCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zrangebylex", Arity: -4, Run: zrangebylexCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zrevrangebylex", Arity: -4, Run: zrevrangebylexCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zrevrange", Arity: -4, Run: zrevrangeCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "zpopmin", Arity: -2, Run: zpopminCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "zpopmax", Arity: -2, Run: zpopmaxCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "zmpop", Arity: -4, Run: zmpopCmd, Keys: keySpec{kind: keysNone}, Write: true})
	register(&Command{Name: "zrandmember", Arity: -2, Run: zrandmemberCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "bzpopmin", Arity: -3, Run: bzpopminCmd, Keys: keySpec{kind: keysTrailing}, Write: true})
	register(&Command{Name: "bzpopmax", Arity: -3, Run: bzpopmaxCmd, Keys: keySpec{kind: keysTrailing}, Write: true})
	register(&Command{Name: "bzmpop", Arity: -5, Run: bzmpopCmd, Keys: keySpec{kind: keysNone}, Write: true})
}

// zsetOrCreate fetches a sorted set, creating an empty one when absent.
func zsetOrCreate(s *Store, c *Client, key string) (*value.ZSet, bool) {
	z, exists, isZSet := s.getZSet(c.db, key)
	if exists && !isZSet {
		return nil, false
	}
	if !exists {
		z = value.NewZSet()
		s.dbs[c.db].objects[key] = z
	}
	return z, true
}

// scoreReply renders a score for the connection's protocol version.
func scoreReply(c *Client, score float64) resp.Reply {
	if c.Proto() >= resp.V3 {
		return resp.Double(score)
	}
	return resp.BulkString(resp.FormatFloat(score))
}

func zaddCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])

	var nx, xx, gt, lt, ch, incr bool
	i := 1
	for ; i < len(args); i++ {
		switch {
		case argMatch(args[i], "NX"):
			nx = true
		case argMatch(args[i], "XX"):
			xx = true
		case argMatch(args[i], "GT"):
			gt = true
		case argMatch(args[i], "LT"):
			lt = true
		case argMatch(args[i], "CH"):
			ch = true
		case argMatch(args[i], "INCR"):
			incr = true
		default:
			goto pairs
		}
	}
pairs:
	if nx && xx {
		return reply(c, resp.Error("ERR XX and NX options at the same time are not compatible"))
	}
	if (gt && lt) || (gt && nx) || (lt && nx) {
		return reply(c, resp.Error("ERR GT, LT, and/or NX options at the same time are not compatible"))
	}

	pairs := args[i:]
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return reply(c, errSyntax)
	}
	if incr && len(pairs) != 2 {
		return reply(c, resp.Error("ERR INCR option supports a single increment-element pair"))
	}

	// Validate all scores before mutating.
	scores := make([]float64, 0, len(pairs)/2)
	for j := 0; j < len(pairs); j += 2 {
		f, ok := argFloat(pairs[j])
		if !ok || math.IsNaN(f) {
			return reply(c, errNotFloat)
		}
		scores = append(scores, f)
	}

	z, ok := zsetOrCreate(s, c, key)
	if !ok {
		return reply(c, errWrongType)
	}

	added, changed := 0, 0
	var incrResult *float64
	for j := 0; j < len(pairs); j += 2 {
		score := scores[j/2]
		member := string(pairs[j+1])
		old, exists := z.Score(member)

		if (nx && exists) || (xx && !exists) {
			continue
		}

		next := score
		if incr {
			if exists {
				next = old + score
				if math.IsNaN(next) {
					s.deleteIfEmpty(c.db, key, z.Len())
					return reply(c, errIncrNaN)
				}
			}
		}
		if exists && ((gt && next <= old) || (lt && next >= old)) {
			if incr {
				incrResult = nil
			}
			continue
		}

		if z.Add(member, next, s.limits.zsetConfig()) {
			added++
			changed++
		} else if next != old {
			changed++
		}
		if incr {
			incrResult = &next
		}
	}

	s.deleteIfEmpty(c.db, key, z.Len())
	mutations := changed
	s.noteWrite(c.db, key, mutations)

	if incr {
		if incrResult == nil {
			return reply(c, resp.Nil)
		}
		return reply(c, scoreReply(c, *incrResult))
	}
	if ch {
		return reply(c, resp.Integer(int64(changed)))
	}
	return reply(c, resp.Integer(int64(added)))
}

func zcardCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	z, exists, isZSet := s.getZSet(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isZSet {
		return reply(c, errWrongType)
	}
	return reply(c, resp.Integer(int64(z.Len())))
}

func zscoreCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	z, exists, isZSet := s.getZSet(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Nil)
	}
	if !isZSet {
		return reply(c, errWrongType)
	}
	score, ok := z.Score(string(args[1]))
	if !ok {
		return reply(c, resp.Nil)
	}
	return reply(c, scoreReply(c, score))
}

func zmscoreCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	z, exists, isZSet := s.getZSet(c.db, string(args[0]))
	if exists && !isZSet {
		return reply(c, errWrongType)
	}
	out := make(resp.Array, 0, len(args)-1)
	for _, member := range args[1:] {
		if !exists {
			out = append(out, resp.Nil)
			continue
		}
		if score, ok := z.Score(string(member)); ok {
			out = append(out, scoreReply(c, score))
		} else {
			out = append(out, resp.Nil)
		}
	}
	return reply(c, out)
}

func zincrbyCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	delta, ok := argFloat(args[1])
	if !ok || math.IsNaN(delta) {
		return reply(c, errNotFloat)
	}
	z, okType := zsetOrCreate(s, c, key)
	if !okType {
		return reply(c, errWrongType)
	}
	member := string(args[2])
	next := delta
	if old, exists := z.Score(member); exists {
		next = old + delta
		if math.IsNaN(next) {
			s.deleteIfEmpty(c.db, key, z.Len())
			return reply(c, errIncrNaN)
		}
	}
	z.Add(member, next, s.limits.zsetConfig())
	s.noteWrite(c.db, key, 1)
	return reply(c, scoreReply(c, next))
}

func zrankCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return zrank(s, c, args, false)
}

func zrevrankCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return zrank(s, c, args, true)
}

func zrank(s *Store, c *Client, args [][]byte, rev bool) *blockIntent {
	withScore := false
	if len(args) == 3 {
		if !argMatch(args[2], "WITHSCORE") {
			return reply(c, errSyntax)
		}
		withScore = true
	} else if len(args) > 3 {
		return reply(c, errSyntax)
	}

	z, exists, isZSet := s.getZSet(c.db, string(args[0]))
	if exists && !isZSet {
		return reply(c, errWrongType)
	}

	miss := func() *blockIntent {
		if withScore {
			return reply(c, resp.NilArray)
		}
		return reply(c, resp.Nil)
	}
	if !exists {
		return miss()
	}

	rank := z.Rank(string(args[1]))
	if rank < 0 {
		return miss()
	}
	if rev {
		rank = z.Len() - 1 - rank
	}
	if withScore {
		score, _ := z.Score(string(args[1]))
		return reply(c, resp.Array{resp.Integer(int64(rank)), scoreReply(c, score)})
	}
	return reply(c, resp.Integer(int64(rank)))
}

func zcountCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	min, minEx, ok1 := scoreBound(args[1])
	max, maxEx, ok2 := scoreBound(args[2])
	if !ok1 || !ok2 {
		return reply(c, resp.Error("ERR min or max is not a float"))
	}
	z, exists, isZSet := s.getZSet(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isZSet {
		return reply(c, errWrongType)
	}
	return reply(c, resp.Integer(int64(z.CountByScore(min, max, minEx, maxEx))))
}

func zlexcountCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	min, minEx, minInf, ok1 := lexBound(args[1])
	max, maxEx, maxInf, ok2 := lexBound(args[2])
	if !ok1 || !ok2 {
		return reply(c, resp.Error("ERR min or max not valid string range item"))
	}
	z, exists, isZSet := s.getZSet(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isZSet {
		return reply(c, errWrongType)
	}
	// `+` as the low endpoint or `-` as the high one match nothing.
	if string(args[1]) == "+" || string(args[2]) == "-" {
		return reply(c, resp.Integer(0))
	}
	return reply(c, resp.Integer(int64(z.CountByLex(min, max, minEx, maxEx, minInf, maxInf))))
}

func zremCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	z, exists, isZSet := s.getZSet(c.db, key)
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isZSet {
		return reply(c, errWrongType)
	}
	removed := 0
	for _, member := range args[1:] {
		if z.Remove(string(member)) {
			removed++
		}
	}
	s.deleteIfEmpty(c.db, key, z.Len())
	s.noteWrite(c.db, key, removed)
	return reply(c, resp.Integer(int64(removed)))
}

// zEntriesReply renders entries, optionally with scores.
func zEntriesReply(c *Client, entries []value.ZEntry, withScores bool) resp.Reply {
	out := make(resp.Array, 0, len(entries))
	for _, e := range entries {
		out = append(out, resp.BulkString(e.Member))
		if withScores {
			out = append(out, scoreReply(c, e.Score))
		}
	}
	return out
}

// zRangeSpec is a parsed ZRANGE-family range selection.
type zRangeSpec struct {
	byScore, byLex bool
	rev            bool
	withScores     bool
	offset, count  int64
	hasLimit       bool

	start, stop int64

	minScore, maxScore float64
	minEx, maxEx       bool

	minLex, maxLex     string
	minLexEx, maxLexEx bool
	minInf, maxInf     bool

	// empty marks a lex range that cannot match, e.g. `+` as the min.
	empty bool
}

// parseBounds fills in the bound fields from the raw start/stop args.
func (spec *zRangeSpec) parseBounds(start, stop []byte) resp.Reply {
	switch {
	case spec.byScore:
		var ok1, ok2 bool
		lo, hi := start, stop
		if spec.rev {
			lo, hi = stop, start
		}
		spec.minScore, spec.minEx, ok1 = scoreBound(lo)
		spec.maxScore, spec.maxEx, ok2 = scoreBound(hi)
		if !ok1 || !ok2 {
			return resp.Error("ERR min or max is not a float")
		}
	case spec.byLex:
		var ok1, ok2 bool
		lo, hi := start, stop
		if spec.rev {
			lo, hi = stop, start
		}
		spec.minLex, spec.minLexEx, spec.minInf, ok1 = lexBound(lo)
		spec.maxLex, spec.maxLexEx, spec.maxInf, ok2 = lexBound(hi)
		if !ok1 || !ok2 {
			return resp.Error("ERR min or max not valid string range item")
		}
		// `+` as the low endpoint or `-` as the high one match nothing.
		if (len(lo) == 1 && lo[0] == '+') || (len(hi) == 1 && hi[0] == '-') {
			spec.empty = true
		}
	default:
		var ok1, ok2 bool
		spec.start, ok1 = argInt(start)
		spec.stop, ok2 = argInt(stop)
		if !ok1 || !ok2 {
			return errNotInteger
		}
	}
	return nil
}

// selectEntries applies the parsed spec to a sorted set.
func (spec *zRangeSpec) selectEntries(z *value.ZSet) []value.ZEntry {
	if spec.empty {
		return nil
	}
	count := int64(-1)
	offset := int64(0)
	if spec.hasLimit {
		offset, count = spec.offset, spec.count
	}
	switch {
	case spec.byScore:
		return z.RangeByScore(spec.minScore, spec.maxScore, spec.minEx, spec.maxEx, spec.rev, int(offset), int(count))
	case spec.byLex:
		return z.RangeByLex(spec.minLex, spec.maxLex, spec.minLexEx, spec.maxLexEx, spec.minInf, spec.maxInf, spec.rev, int(offset), int(count))
	default:
		n := int64(z.Len())
		start, stop := clampRange(spec.start, spec.stop, n)
		if start > stop {
			return nil
		}
		if !spec.rev {
			return z.RangeByRank(int(start), int(stop))
		}
		// Reverse ranges index from the highest rank down.
		entries := z.RangeByRank(int(n-1-stop), int(n-1-start))
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
		return entries
	}
}

func zrangeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	spec := &zRangeSpec{}

	rest := args[3:]
	for i := 0; i < len(rest); i++ {
		switch {
		case argMatch(rest[i], "BYSCORE"):
			spec.byScore = true
		case argMatch(rest[i], "BYLEX"):
			spec.byLex = true
		case argMatch(rest[i], "REV"):
			spec.rev = true
		case argMatch(rest[i], "WITHSCORES"):
			spec.withScores = true
		case argMatch(rest[i], "LIMIT"):
			if i+2 >= len(rest) {
				return reply(c, errSyntax)
			}
			var ok1, ok2 bool
			spec.offset, ok1 = argInt(rest[i+1])
			spec.count, ok2 = argInt(rest[i+2])
			if !ok1 || !ok2 {
				return reply(c, errNotInteger)
			}
			spec.hasLimit = true
			i += 2
		default:
			return reply(c, errSyntax)
		}
	}

	if spec.byScore && spec.byLex {
		return reply(c, errSyntax)
	}
	if spec.hasLimit && !spec.byScore && !spec.byLex {
		return reply(c, resp.Error("ERR syntax error, LIMIT is only supported in combination with either BYSCORE or BYLEX"))
	}
	if spec.byLex && spec.withScores {
		return reply(c, errSyntax)
	}

	if errReply := spec.parseBounds(args[1], args[2]); errReply != nil {
		return reply(c, errReply)
	}

	z, exists, isZSet := s.getZSet(c.db, string(args[0]))
	if exists && !isZSet {
		return reply(c, errWrongType)
	}
	if !exists {
		return reply(c, resp.Array{})
	}
	return reply(c, zEntriesReply(c, spec.selectEntries(z), spec.withScores))
}

func zrangestoreCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	dst := string(args[0])
	spec := &zRangeSpec{}

	rest := args[4:]
	for i := 0; i < len(rest); i++ {
		switch {
		case argMatch(rest[i], "BYSCORE"):
			spec.byScore = true
		case argMatch(rest[i], "BYLEX"):
			spec.byLex = true
		case argMatch(rest[i], "REV"):
			spec.rev = true
		case argMatch(rest[i], "LIMIT"):
			if i+2 >= len(rest) {
				return reply(c, errSyntax)
			}
			var ok1, ok2 bool
			spec.offset, ok1 = argInt(rest[i+1])
			spec.count, ok2 = argInt(rest[i+2])
			if !ok1 || !ok2 {
				return reply(c, errNotInteger)
			}
			spec.hasLimit = true
			i += 2
		default:
			return reply(c, errSyntax)
		}
	}
	if spec.hasLimit && !spec.byScore && !spec.byLex {
		return reply(c, resp.Error("ERR syntax error, LIMIT is only supported in combination with either BYSCORE or BYLEX"))
	}
	if errReply := spec.parseBounds(args[2], args[3]); errReply != nil {
		return reply(c, errReply)
	}

	z, exists, isZSet := s.getZSet(c.db, string(args[1]))
	if exists && !isZSet {
		return reply(c, errWrongType)
	}

	var entries []value.ZEntry
	if exists {
		entries = spec.selectEntries(z)
	}

	if len(entries) == 0 {
		if s.deleteKey(c.db, dst, s.limits.LazyUserDel) {
			s.noteWrite(c.db, dst, 1)
		}
		return reply(c, resp.Integer(0))
	}

	out := value.NewZSet()
	for _, e := range entries {
		out.Add(e.Member, e.Score, s.limits.zsetConfig())
	}
	s.setValue(c.db, dst, out, false)
	s.noteWrite(c.db, dst, len(entries))
	return reply(c, resp.Integer(int64(len(entries))))
}

// legacyZRange implements the fixed-shape legacy range commands.
func legacyZRange(s *Store, c *Client, args [][]byte, spec *zRangeSpec, allowScores, allowLimit bool) *blockIntent {
	rest := args[3:]
	for i := 0; i < len(rest); i++ {
		switch {
		case allowScores && argMatch(rest[i], "WITHSCORES"):
			spec.withScores = true
		case allowLimit && argMatch(rest[i], "LIMIT"):
			if i+2 >= len(rest) {
				return reply(c, errSyntax)
			}
			var ok1, ok2 bool
			spec.offset, ok1 = argInt(rest[i+1])
			spec.count, ok2 = argInt(rest[i+2])
			if !ok1 || !ok2 {
				return reply(c, errNotInteger)
			}
			spec.hasLimit = true
			i += 2
		default:
			return reply(c, errSyntax)
		}
	}

	if errReply := spec.parseBounds(args[1], args[2]); errReply != nil {
		return reply(c, errReply)
	}

	z, exists, isZSet := s.getZSet(c.db, string(args[0]))
	if exists && !isZSet {
		return reply(c, errWrongType)
	}
	if !exists {
		return reply(c, resp.Array{})
	}
	return reply(c, zEntriesReply(c, spec.selectEntries(z), spec.withScores))
}

func zrangebyscoreCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return legacyZRange(s, c, args, &zRangeSpec{byScore: true}, true, true)
}

func zrevrangebyscoreCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return legacyZRange(s, c, args, &zRangeSpec{byScore: true, rev: true}, true, true)
}

func zrangebylexCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return legacyZRange(s, c, args, &zRangeSpec{byLex: true}, false, true)
}

func zrevrangebylexCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return legacyZRange(s, c, args, &zRangeSpec{byLex: true, rev: true}, false, true)
}

func zrevrangeCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return legacyZRange(s, c, args, &zRangeSpec{rev: true}, true, false)
}

// zpop implements ZPOPMIN/ZPOPMAX: flat pair without count, nested with.
func zpop(s *Store, c *Client, args [][]byte, fromMax bool) *blockIntent {
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

	z, exists, isZSet := s.getZSet(c.db, key)
	if exists && !isZSet {
		return reply(c, errWrongType)
	}
	if !exists {
		return reply(c, resp.Array{})
	}

	var popped []value.ZEntry
	if fromMax {
		popped = z.PopMax(int(count))
	} else {
		popped = z.PopMin(int(count))
	}
	s.deleteIfEmpty(c.db, key, z.Len())
	s.noteWrite(c.db, key, len(popped))

	if !hasCount {
		if len(popped) == 0 {
			return reply(c, resp.Array{})
		}
		e := popped[0]
		return reply(c, resp.Array{resp.BulkString(e.Member), scoreReply(c, e.Score)})
	}

	out := make(resp.Array, 0, len(popped))
	for _, e := range popped {
		out = append(out, resp.Array{resp.BulkString(e.Member), scoreReply(c, e.Score)})
	}
	return reply(c, out)
}

func zpopminCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return zpop(s, c, args, false)
}

func zpopmaxCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return zpop(s, c, args, true)
}

// zmpopParse parses the shared ZMPOP/BZMPOP tail: numkeys key… MIN|MAX
// [COUNT n].
func zmpopParse(args [][]byte) (keys [][]byte, fromMax bool, count int64, errReply resp.Reply) {
	numkeys, ok := argInt(args[0])
	if !ok || numkeys <= 0 || int64(len(args)) < numkeys+2 {
		return nil, false, 0, errSyntax
	}
	keys = args[1 : 1+numkeys]
	rest := args[1+numkeys:]

	switch {
	case argMatch(rest[0], "MIN"):
	case argMatch(rest[0], "MAX"):
		fromMax = true
	default:
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
	return keys, fromMax, count, nil
}

// zmpopRun pops from the first non-empty key, or reports absence.
func zmpopRun(s *Store, c *Client, keys [][]byte, fromMax bool, count int64) (resp.Reply, bool) {
	for _, keyRaw := range keys {
		key := string(keyRaw)
		z, exists, isZSet := s.getZSet(c.db, key)
		if exists && !isZSet {
			return errWrongType, true
		}
		if !exists || z.Len() == 0 {
			continue
		}

		var popped []value.ZEntry
		if fromMax {
			popped = z.PopMax(int(count))
		} else {
			popped = z.PopMin(int(count))
		}
		s.deleteIfEmpty(c.db, key, z.Len())
		s.noteWrite(c.db, key, len(popped))

		entries := make(resp.Array, 0, len(popped))
		for _, e := range popped {
			entries = append(entries, resp.Array{resp.BulkString(e.Member), scoreReply(c, e.Score)})
		}
		return resp.Array{resp.BulkString(key), entries}, true
	}
	return nil, false
}

func zmpopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	keys, fromMax, count, errReply := zmpopParse(args)
	if errReply != nil {
		return reply(c, errReply)
	}
	if r, done := zmpopRun(s, c, keys, fromMax, count); done {
		return reply(c, r)
	}
	return reply(c, resp.NilArray)
}

func zrandmemberCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	z, exists, isZSet := s.getZSet(c.db, string(args[0]))
	if exists && !isZSet {
		return reply(c, errWrongType)
	}

	withScores := false
	hasCount := false
	count := int64(1)
	switch len(args) {
	case 1:
	case 2, 3:
		var ok bool
		if count, ok = argInt(args[1]); !ok {
			return reply(c, errNotInteger)
		}
		hasCount = true
		if len(args) == 3 {
			if !argMatch(args[2], "WITHSCORES") {
				return reply(c, errSyntax)
			}
			withScores = true
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
		e, _ := z.At(rand.Intn(z.Len()))
		return reply(c, resp.BulkString(e.Member))
	}

	var out resp.Array
	appendEntry := func(i int) {
		e, _ := z.At(i)
		out = append(out, resp.BulkString(e.Member))
		if withScores {
			out = append(out, scoreReply(c, e.Score))
		}
	}
	if count < 0 {
		for i := int64(0); i < -count; i++ {
			appendEntry(rand.Intn(z.Len()))
		}
	} else {
		n := int(count)
		if n > z.Len() {
			n = z.Len()
		}
		for _, i := range rand.Perm(z.Len())[:n] {
			appendEntry(i)
		}
	}
	return reply(c, out)
}

// bzpop implements BZPOPMIN/BZPOPMAX.
func bzpop(s *Store, c *Client, args [][]byte, fromMax bool) *blockIntent {
	timeout, errReply := argTimeout(args[len(args)-1])
	if errReply != nil {
		return reply(c, errReply)
	}
	keys := args[:len(args)-1]

	for _, keyRaw := range keys {
		key := string(keyRaw)
		z, exists, isZSet := s.getZSet(c.db, key)
		if exists && !isZSet {
			return reply(c, errWrongType)
		}
		if !exists || z.Len() == 0 {
			continue
		}

		var popped []value.ZEntry
		if fromMax {
			popped = z.PopMax(1)
		} else {
			popped = z.PopMin(1)
		}
		s.deleteIfEmpty(c.db, key, z.Len())
		s.noteWrite(c.db, key, 1)
		e := popped[0]
		return reply(c, resp.Array{
			resp.BulkString(key),
			resp.BulkString(e.Member),
			scoreReply(c, e.Score),
		})
	}

	return &blockIntent{keys: keys, timeout: timeout, emptyReply: resp.NilArray}
}

func bzpopminCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return bzpop(s, c, args, false)
}

func bzpopmaxCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return bzpop(s, c, args, true)
}

func bzmpopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	timeout, errReply := argTimeout(args[0])
	if errReply != nil {
		return reply(c, errReply)
	}
	keys, fromMax, count, errReply := zmpopParse(args[1:])
	if errReply != nil {
		return reply(c, errReply)
	}
	if r, done := zmpopRun(s, c, keys, fromMax, count); done {
		return reply(c, r)
	}
	return &blockIntent{keys: keys, timeout: timeout, emptyReply: resp.NilArray}
}
