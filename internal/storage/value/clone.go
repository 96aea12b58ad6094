package value

// Clone returns a deep copy preserving the encoding.
func (lp *Listpack) Clone() *Listpack {
	return &Listpack{buf: append([]byte(nil), lp.buf...), count: lp.count}
}

// Clone returns a deep copy preserving the storage class.
func (s *IntSet) Clone() *IntSet {
	return &IntSet{
		i16: append([]int16(nil), s.i16...),
		i32: append([]int32(nil), s.i32...),
		i64: append([]int64(nil), s.i64...),
	}
}

func (m *linkedMap) clone() *linkedMap {
	out := newLinkedMap()
	m.Range(func(k string, v []byte) bool {
		out.Set(k, append([]byte(nil), v...))
		return true
	})
	return out
}

// Clone returns a deep copy.
func (s *Str) Clone() *Str {
	out := *s
	out.b = append([]byte(nil), s.b...)
	return &out
}

// Clone returns a deep copy preserving the encoding.
func (h *Hash) Clone() *Hash {
	if h.table != nil {
		return &Hash{table: h.table.clone()}
	}
	return &Hash{pack: h.pack.Clone()}
}

// Clone returns a deep copy preserving the encoding.
func (s *Set) Clone() *Set {
	switch {
	case s.ints != nil:
		return &Set{ints: s.ints.Clone()}
	case s.pack != nil:
		return &Set{pack: s.pack.Clone()}
	default:
		return &Set{table: s.table.clone()}
	}
}

// Clone returns a deep copy preserving the encoding.
func (z *ZSet) Clone() *ZSet {
	if z.pack != nil {
		return &ZSet{pack: z.pack.Clone()}
	}
	out := &ZSet{scores: make(map[string]float64, len(z.scores)), list: NewSkipList()}
	for n := z.list.First(); n != nil; n = n.Next() {
		out.scores[n.Member] = n.Score
		out.list.Insert(n.Member, n.Score)
	}
	return out
}

// Clone returns a deep copy preserving the encoding.
func (l *List) Clone() *List {
	if l.pack != nil {
		return &List{pack: l.pack.Clone()}
	}
	quick := NewQuickList()
	for node := l.quick.head; node != nil; node = node.next {
		clone := &qlNode{lp: node.lp.Clone(), prev: quick.tail}
		if quick.tail != nil {
			quick.tail.next = clone
		} else {
			quick.head = clone
		}
		quick.tail = clone
	}
	quick.count = l.quick.count
	return &List{quick: quick}
}
