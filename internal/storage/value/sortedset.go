package value

import "strconv"

// ZSetConfig holds the thresholds for the compact sorted set encoding.
type ZSetConfig struct {
	MaxListpackEntries int
	MaxListpackValue   int
}

// ZEntry is a member/score pair.
type ZEntry struct {
	Member string
	Score  float64
}

// ZSet is a sorted set: member to score with (score, member) ordered
// iteration. Small sets are a listpack of member/score pairs kept in order;
// large sets pair a score map with a skiplist.
type ZSet struct {
	pack   *Listpack
	scores map[string]float64
	list   *SkipList
}

// NewZSet returns an empty sorted set in the compact encoding.
func NewZSet() *ZSet {
	return &ZSet{pack: NewListpack()}
}

// Encoding returns the OBJECT ENCODING name.
func (z *ZSet) Encoding() string {
	if z.pack != nil {
		return "listpack"
	}
	return "skiplist"
}

// Len returns the member count.
func (z *ZSet) Len() int {
	if z.pack != nil {
		return z.pack.Len() / 2
	}
	return z.list.Len()
}

func formatScore(f float64) []byte {
	return strconv.AppendFloat(nil, f, 'f', -1, 64)
}

func parseScore(b []byte) float64 {
	f, _ := strconv.ParseFloat(string(b), 64)
	return f
}

// promote converts the listpack into the skiplist encoding.
func (z *ZSet) promote() {
	z.scores = make(map[string]float64, z.pack.Len()/2)
	z.list = NewSkipList()
	it := z.pack.Iterator()
	for {
		member, ok := it.Next()
		if !ok {
			break
		}
		scoreRaw, _ := it.Next()
		score := parseScore(scoreRaw)
		z.scores[string(member)] = score
		z.list.Insert(string(member), score)
	}
	z.pack = nil
}

// packIndex returns the listpack pair index of member, or -1.
func (z *ZSet) packIndex(member string) int {
	it := z.pack.Iterator()
	for i := 0; ; i += 2 {
		m, ok := it.Next()
		if !ok {
			return -1
		}
		if string(m) == member {
			return i
		}
		it.Next()
	}
}

// Score returns the member's score.
func (z *ZSet) Score(member string) (float64, bool) {
	if z.pack != nil {
		i := z.packIndex(member)
		if i < 0 {
			return 0, false
		}
		return parseScore(z.pack.Get(i + 1)), true
	}
	score, ok := z.scores[member]
	return score, ok
}

// Add inserts member with score, or updates its score, keeping iteration
// order. It returns true when the member was newly added.
func (z *ZSet) Add(member string, score float64, cfg ZSetConfig) bool {
	if z.pack != nil {
		existing := z.packIndex(member)
		next := z.Len()
		if existing < 0 {
			next++
		}
		if len(member) > cfg.MaxListpackValue || next > cfg.MaxListpackEntries {
			z.promote()
		} else {
			if existing >= 0 {
				z.pack.Remove(existing)
				z.pack.Remove(existing)
			}
			z.packInsert(member, score)
			return existing < 0
		}
	}

	if old, ok := z.scores[member]; ok {
		if old != score {
			z.list.Delete(member, old)
			z.list.Insert(member, score)
			z.scores[member] = score
		}
		return false
	}
	z.scores[member] = score
	z.list.Insert(member, score)
	return true
}

// packInsert places member at its (score, member) position in the listpack.
func (z *ZSet) packInsert(member string, score float64) {
	it := z.pack.Iterator()
	i := 0
	for {
		m, ok := it.Next()
		if !ok {
			break
		}
		s, _ := it.Next()
		existing := parseScore(s)
		if existing > score || (existing == score && string(m) > member) {
			break
		}
		i += 2
	}
	z.pack.Insert(i, []byte(member))
	z.pack.Insert(i+1, formatScore(score))
}

// Remove deletes member, returning whether it was present.
func (z *ZSet) Remove(member string) bool {
	if z.pack != nil {
		i := z.packIndex(member)
		if i < 0 {
			return false
		}
		z.pack.Remove(i)
		z.pack.Remove(i)
		return true
	}
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	delete(z.scores, member)
	z.list.Delete(member, score)
	return true
}

// At returns the entry at rank i in (score, member) order.
func (z *ZSet) At(i int) (ZEntry, bool) {
	if i < 0 || i >= z.Len() {
		return ZEntry{}, false
	}
	if z.pack != nil {
		member := z.pack.Get(i * 2)
		score := z.pack.Get(i*2 + 1)
		return ZEntry{Member: string(member), Score: parseScore(score)}, true
	}
	n := z.list.ByRank(i)
	return ZEntry{Member: n.Member, Score: n.Score}, true
}

// Rank returns the zero-based rank of member, or -1.
func (z *ZSet) Rank(member string) int {
	if z.pack != nil {
		i := z.packIndex(member)
		if i < 0 {
			return -1
		}
		return i / 2
	}
	score, ok := z.scores[member]
	if !ok {
		return -1
	}
	return z.list.Rank(member, score)
}

// RangeByRank returns entries for the inclusive rank range [start, stop].
// Bounds must already be clamped; start > stop yields nil.
func (z *ZSet) RangeByRank(start, stop int) []ZEntry {
	if start < 0 {
		start = 0
	}
	if stop >= z.Len() {
		stop = z.Len() - 1
	}
	if start > stop {
		return nil
	}
	out := make([]ZEntry, 0, stop-start+1)
	if z.pack != nil {
		for i := start; i <= stop; i++ {
			e, _ := z.At(i)
			out = append(out, e)
		}
		return out
	}
	n := z.list.ByRank(start)
	for i := start; i <= stop && n != nil; i++ {
		out = append(out, ZEntry{Member: n.Member, Score: n.Score})
		n = n.Next()
	}
	return out
}

// firstScoreRank returns the rank of the first entry inside the min bound.
func (z *ZSet) firstScoreRank(min float64, ex bool) int {
	if z.pack != nil {
		for i := 0; i < z.Len(); i++ {
			e, _ := z.At(i)
			if !scoreBelow(e.Score, min, ex) {
				return i
			}
		}
		return z.Len()
	}
	n := z.list.FirstInScoreRange(min, ex)
	if n == nil {
		return z.Len()
	}
	return z.list.Rank(n.Member, n.Score)
}

// lastScoreRank returns the rank of the last entry inside the max bound, or
// -1 when none is.
func (z *ZSet) lastScoreRank(max float64, ex bool) int {
	if z.pack != nil {
		for i := z.Len() - 1; i >= 0; i-- {
			e, _ := z.At(i)
			if !scoreBelow(max, e.Score, ex) {
				return i
			}
		}
		return -1
	}
	n := z.list.LastInScoreRange(max, ex)
	if n == nil {
		return -1
	}
	return z.list.Rank(n.Member, n.Score)
}

// RangeByScore returns entries with scores inside the given bounds, after
// skipping offset and limited to count (count < 0 means unlimited), walking
// in reverse when rev is set.
func (z *ZSet) RangeByScore(min, max float64, minEx, maxEx, rev bool, offset, count int) []ZEntry {
	lo := z.firstScoreRank(min, minEx)
	hi := z.lastScoreRank(max, maxEx)
	return z.collectRanks(lo, hi, rev, offset, count)
}

// CountByScore counts entries with scores inside the bounds.
func (z *ZSet) CountByScore(min, max float64, minEx, maxEx bool) int {
	lo := z.firstScoreRank(min, minEx)
	hi := z.lastScoreRank(max, maxEx)
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

// firstLexRank is the rank of the first entry inside the lex min bound.
func (z *ZSet) firstLexRank(min string, ex, unbounded bool) int {
	if unbounded {
		return 0
	}
	if z.pack != nil {
		for i := 0; i < z.Len(); i++ {
			e, _ := z.At(i)
			if !lexBelow(e.Member, min, ex) {
				return i
			}
		}
		return z.Len()
	}
	n := z.list.FirstInLexRange(min, ex)
	if n == nil {
		return z.Len()
	}
	return z.list.Rank(n.Member, n.Score)
}

// lastLexRank is the rank of the last entry inside the lex max bound.
func (z *ZSet) lastLexRank(max string, ex, unbounded bool) int {
	if unbounded {
		return z.Len() - 1
	}
	if z.pack != nil {
		for i := z.Len() - 1; i >= 0; i-- {
			e, _ := z.At(i)
			if !lexBelow(max, e.Member, ex) {
				return i
			}
		}
		return -1
	}
	n := z.list.LastInLexRange(max, ex)
	if n == nil {
		return -1
	}
	return z.list.Rank(n.Member, n.Score)
}

// RangeByLex returns entries with members inside the lex bounds.
func (z *ZSet) RangeByLex(min, max string, minEx, maxEx, minInf, maxInf, rev bool, offset, count int) []ZEntry {
	lo := z.firstLexRank(min, minEx, minInf)
	hi := z.lastLexRank(max, maxEx, maxInf)
	return z.collectRanks(lo, hi, rev, offset, count)
}

// CountByLex counts entries with members inside the lex bounds.
func (z *ZSet) CountByLex(min, max string, minEx, maxEx, minInf, maxInf bool) int {
	lo := z.firstLexRank(min, minEx, minInf)
	hi := z.lastLexRank(max, maxEx, maxInf)
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

// collectRanks gathers the rank range [lo, hi] with offset/count applied in
// iteration direction.
func (z *ZSet) collectRanks(lo, hi int, rev bool, offset, count int) []ZEntry {
	if hi < lo || lo >= z.Len() {
		return nil
	}
	if offset < 0 {
		return nil
	}

	total := hi - lo + 1
	if offset >= total {
		return nil
	}
	remaining := total - offset
	if count >= 0 && count < remaining {
		remaining = count
	}

	out := make([]ZEntry, 0, remaining)
	if rev {
		for i := hi - offset; i > hi-offset-remaining; i-- {
			e, _ := z.At(i)
			out = append(out, e)
		}
	} else {
		for i := lo + offset; i < lo+offset+remaining; i++ {
			e, _ := z.At(i)
			out = append(out, e)
		}
	}
	return out
}

// PopMin removes and returns up to count lowest entries.
func (z *ZSet) PopMin(count int) []ZEntry {
	return z.pop(count, false)
}

// PopMax removes and returns up to count highest entries.
func (z *ZSet) PopMax(count int) []ZEntry {
	return z.pop(count, true)
}

func (z *ZSet) pop(count int, fromMax bool) []ZEntry {
	if count > z.Len() {
		count = z.Len()
	}
	out := make([]ZEntry, 0, count)
	for i := 0; i < count; i++ {
		var e ZEntry
		if fromMax {
			e, _ = z.At(z.Len() - 1)
		} else {
			e, _ = z.At(0)
		}
		z.Remove(e.Member)
		out = append(out, e)
	}
	return out
}
