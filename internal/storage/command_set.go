package storage

import (
	"math/rand"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage/value"
)

func init() {
	register(&Command{Name: "sadd", Arity: -3, Run: saddCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "srem", Arity: -3, Run: sremCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "spop", Arity: -2, Run: spopCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "scard", Arity: 2, Run: scardCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "sismember", Arity: 3, Run: sismemberCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "smismember", Arity: -3, Run: smismemberCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "smembers", Arity: 2, Run: smembersCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "srandmember", Arity: -2, Run: srandmemberCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "smove", Arity: 4, Run: smoveCmd, Keys: keySpec{kind: keysDouble}, Write: true})
	register(&Command{Name: "sunion", Arity: -2, Run: sunionCmd, Keys: keySpec{kind: keysAll}})
	register(&Command{Name: "sunionstore", Arity: -3, Run: sunionstoreCmd, Keys: keySpec{kind: keysAll}, Write: true})
	register(&Command{Name: "sinter", Arity: -2, Run: sinterCmd, Keys: keySpec{kind: keysAll}})
	register(&Command{Name: "sinterstore", Arity: -3, Run: sinterstoreCmd, Keys: keySpec{kind: keysAll}, Write: true})
	register(&Command{Name: "sintercard", Arity: -3, Run: sintercardCmd, Keys: keySpec{kind: keysSkipOne}})
	register(&Command{Name: "sdiff", Arity: -2, Run: sdiffCmd, Keys: keySpec{kind: keysAll}})
	register(&Command{Name: "sdiffstore", Arity: -3, Run: sdiffstoreCmd, Keys: keySpec{kind: keysAll}, Write: true})
}

// setOrCreate fetches a set, creating an empty one when absent.
func setOrCreate(s *Store, c *Client, key string) (*value.Set, bool) {
	set, exists, isSet := s.getSet(c.db, key)
	if exists && !isSet {
		return nil, false
	}
	if !exists {
		set = value.NewSet()
		s.dbs[c.db].objects[key] = set
	}
	return set, true
}

func saddCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	set, ok := setOrCreate(s, c, key)
	if !ok {
		return reply(c, errWrongType)
	}
	added := 0
	for _, member := range args[1:] {
		if set.Add(member, s.limits.setConfig()) {
			added++
		}
	}
	s.deleteIfEmpty(c.db, key, set.Len())
	s.noteWrite(c.db, key, added)
	return reply(c, resp.Integer(int64(added)))
}

func sremCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	set, exists, isSet := s.getSet(c.db, key)
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isSet {
		return reply(c, errWrongType)
	}
	removed := 0
	for _, member := range args[1:] {
		if set.Remove(member) {
			removed++
		}
	}
	s.deleteIfEmpty(c.db, key, set.Len())
	s.noteWrite(c.db, key, removed)
	return reply(c, resp.Integer(int64(removed)))
}

func spopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
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

	set, exists, isSet := s.getSet(c.db, key)
	if exists && !isSet {
		return reply(c, errWrongType)
	}
	if !exists {
		if hasCount {
			return reply(c, resp.Array{})
		}
		return reply(c, resp.Nil)
	}

	if !hasCount {
		member, _ := set.At(rand.Intn(set.Len()))
		set.Remove(member)
		s.deleteIfEmpty(c.db, key, set.Len())
		s.noteWrite(c.db, key, 1)
		return reply(c, resp.Bulk(member))
	}

	if count > int64(set.Len()) {
		count = int64(set.Len())
	}
	out := make(resp.Array, 0, count)
	for i := int64(0); i < count; i++ {
		member, _ := set.At(rand.Intn(set.Len()))
		set.Remove(member)
		out = append(out, resp.Bulk(member))
	}
	s.deleteIfEmpty(c.db, key, set.Len())
	s.noteWrite(c.db, key, int(count))
	return reply(c, out)
}

func scardCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	set, exists, isSet := s.getSet(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isSet {
		return reply(c, errWrongType)
	}
	return reply(c, resp.Integer(int64(set.Len())))
}

func sismemberCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	set, exists, isSet := s.getSet(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isSet {
		return reply(c, errWrongType)
	}
	if set.Has(args[1]) {
		return reply(c, resp.Integer(1))
	}
	return reply(c, resp.Integer(0))
}

func smismemberCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	set, exists, isSet := s.getSet(c.db, string(args[0]))
	if exists && !isSet {
		return reply(c, errWrongType)
	}
	out := make(resp.Array, 0, len(args)-1)
	for _, member := range args[1:] {
		if exists && set.Has(member) {
			out = append(out, resp.Integer(1))
		} else {
			out = append(out, resp.Integer(0))
		}
	}
	return reply(c, out)
}

func smembersCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	set, exists, isSet := s.getSet(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Set{})
	}
	if !isSet {
		return reply(c, errWrongType)
	}
	out := make(resp.Set, 0, set.Len())
	for _, member := range set.Members() {
		out = append(out, resp.Bulk(member))
	}
	return reply(c, out)
}

func srandmemberCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	set, exists, isSet := s.getSet(c.db, string(args[0]))
	if exists && !isSet {
		return reply(c, errWrongType)
	}

	hasCount := false
	count := int64(1)
	if len(args) == 2 {
		var ok bool
		if count, ok = argInt(args[1]); !ok {
			return reply(c, errNotInteger)
		}
		hasCount = true
	} else if len(args) > 2 {
		return reply(c, errSyntax)
	}

	if !exists {
		if hasCount {
			return reply(c, resp.Array{})
		}
		return reply(c, resp.Nil)
	}

	if !hasCount {
		member, _ := set.At(rand.Intn(set.Len()))
		return reply(c, resp.Bulk(member))
	}

	var out resp.Array
	if count < 0 {
		for i := int64(0); i < -count; i++ {
			member, _ := set.At(rand.Intn(set.Len()))
			out = append(out, resp.Bulk(member))
		}
	} else {
		n := int(count)
		if n > set.Len() {
			n = set.Len()
		}
		for _, i := range rand.Perm(set.Len())[:n] {
			member, _ := set.At(i)
			out = append(out, resp.Bulk(member))
		}
	}
	return reply(c, out)
}

func smoveCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	src, dst := string(args[0]), string(args[1])
	member := args[2]

	srcSet, srcExists, srcIsSet := s.getSet(c.db, src)
	if srcExists && !srcIsSet {
		return reply(c, errWrongType)
	}
	_, dstExists, dstIsSet := s.getSet(c.db, dst)
	if dstExists && !dstIsSet {
		return reply(c, errWrongType)
	}

	if !srcExists || !srcSet.Has(member) {
		return reply(c, resp.Integer(0))
	}
	if src == dst {
		return reply(c, resp.Integer(1))
	}

	srcSet.Remove(member)
	s.deleteIfEmpty(c.db, src, srcSet.Len())
	s.noteWrite(c.db, src, 1)

	dstSet, _ := setOrCreate(s, c, dst)
	dstSet.Add(member, s.limits.setConfig())
	s.noteWrite(c.db, dst, 1)
	return reply(c, resp.Integer(1))
}

// loadSets fetches the operand sets for a set algebra command, treating
// missing keys as empty.
func loadSets(s *Store, c *Client, keys [][]byte) ([]*value.Set, bool) {
	out := make([]*value.Set, 0, len(keys))
	for _, key := range keys {
		set, exists, isSet := s.getSet(c.db, string(key))
		if exists && !isSet {
			return nil, false
		}
		if !exists {
			set = nil
		}
		out = append(out, set)
	}
	return out, true
}

func sunion(sets []*value.Set) [][]byte {
	seen := make(map[string]struct{})
	var out [][]byte
	for _, set := range sets {
		if set == nil {
			continue
		}
		set.Range(func(member []byte) bool {
			if _, ok := seen[string(member)]; !ok {
				seen[string(member)] = struct{}{}
				out = append(out, append([]byte(nil), member...))
			}
			return true
		})
	}
	return out
}

func sinter(sets []*value.Set, limit int) [][]byte {
	var out [][]byte
	if len(sets) == 0 || sets[0] == nil {
		return nil
	}
	sets[0].Range(func(member []byte) bool {
		for _, other := range sets[1:] {
			if other == nil || !other.Has(member) {
				return true
			}
		}
		out = append(out, append([]byte(nil), member...))
		return limit <= 0 || len(out) < limit
	})
	return out
}

func sdiff(sets []*value.Set) [][]byte {
	var out [][]byte
	if len(sets) == 0 || sets[0] == nil {
		return nil
	}
	sets[0].Range(func(member []byte) bool {
		for _, other := range sets[1:] {
			if other != nil && other.Has(member) {
				return true
			}
		}
		out = append(out, append([]byte(nil), member...))
		return true
	})
	return out
}

func membersReply(members [][]byte) resp.Set {
	out := make(resp.Set, 0, len(members))
	for _, m := range members {
		out = append(out, resp.Bulk(m))
	}
	return out
}

// storeMembers writes an algebra result to dst, deleting it when empty.
func storeMembers(s *Store, c *Client, dst string, members [][]byte) *blockIntent {
	if len(members) == 0 {
		if s.deleteKey(c.db, dst, s.limits.LazyUserDel) {
			s.noteWrite(c.db, dst, 1)
		}
		return reply(c, resp.Integer(0))
	}
	set := value.NewSet()
	for _, m := range members {
		set.Add(m, s.limits.setConfig())
	}
	s.setValue(c.db, dst, set, false)
	s.noteWrite(c.db, dst, len(members))
	return reply(c, resp.Integer(int64(len(members))))
}

func sunionCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	sets, ok := loadSets(s, c, args)
	if !ok {
		return reply(c, errWrongType)
	}
	return reply(c, membersReply(sunion(sets)))
}

func sunionstoreCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	sets, ok := loadSets(s, c, args[1:])
	if !ok {
		return reply(c, errWrongType)
	}
	return storeMembers(s, c, string(args[0]), sunion(sets))
}

func sinterCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	sets, ok := loadSets(s, c, args)
	if !ok {
		return reply(c, errWrongType)
	}
	return reply(c, membersReply(sinter(sets, 0)))
}

func sinterstoreCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	sets, ok := loadSets(s, c, args[1:])
	if !ok {
		return reply(c, errWrongType)
	}
	return storeMembers(s, c, string(args[0]), sinter(sets, 0))
}

func sintercardCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	numkeys, ok := argInt(args[0])
	if !ok || numkeys <= 0 || int(numkeys) > len(args)-1 {
		return reply(c, resp.Error("ERR numkeys should be greater than 0"))
	}
	keys := args[1 : 1+numkeys]
	rest := args[1+numkeys:]

	limit := 0
	if len(rest) == 2 && argMatch(rest[0], "LIMIT") {
		n, ok := argInt(rest[1])
		if !ok || n < 0 {
			return reply(c, resp.Error("ERR LIMIT can't be negative"))
		}
		limit = int(n)
	} else if len(rest) != 0 {
		return reply(c, errSyntax)
	}

	sets, ok := loadSets(s, c, keys)
	if !ok {
		return reply(c, errWrongType)
	}
	return reply(c, resp.Integer(int64(len(sinter(sets, limit)))))
}

func sdiffCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	sets, ok := loadSets(s, c, args)
	if !ok {
		return reply(c, errWrongType)
	}
	return reply(c, membersReply(sdiff(sets)))
}

func sdiffstoreCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	sets, ok := loadSets(s, c, args[1:])
	if !ok {
		return reply(c, errWrongType)
	}
	return storeMembers(s, c, string(args[0]), sdiff(sets))
}
