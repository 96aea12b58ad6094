package value

import "strconv"

// SetConfig holds the thresholds for compact set encodings.
type SetConfig struct {
	MaxIntsetEntries   int
	MaxListpackEntries int
	MaxListpackValue   int
}

// Set is an unordered collection of byte string members. All-integer sets
// use an intset; small mixed sets use a listpack; everything else a hash
// table. Adding an integer member never demotes.
type Set struct {
	ints  *IntSet
	pack  *Listpack
	table *linkedMap
}

// NewSet returns an empty set in the intset encoding.
func NewSet() *Set {
	return &Set{ints: NewIntSet()}
}

// Encoding returns the OBJECT ENCODING name.
func (s *Set) Encoding() string {
	switch {
	case s.ints != nil:
		return "intset"
	case s.pack != nil:
		return "listpack"
	default:
		return "hashtable"
	}
}

// Len returns the member count.
func (s *Set) Len() int {
	switch {
	case s.ints != nil:
		return s.ints.Len()
	case s.pack != nil:
		return s.pack.Len()
	default:
		return s.table.Len()
	}
}

// toListpack converts the intset encoding, preserving sorted order.
func (s *Set) toListpack() {
	pack := NewListpack()
	for _, v := range s.ints.Members() {
		pack.Append(strconv.AppendInt(nil, v, 10))
	}
	s.pack = pack
	s.ints = nil
}

// toTable converts the current encoding into a hash table.
func (s *Set) toTable() {
	table := newLinkedMap()
	switch {
	case s.ints != nil:
		for _, v := range s.ints.Members() {
			table.Set(strconv.FormatInt(v, 10), nil)
		}
		s.ints = nil
	case s.pack != nil:
		it := s.pack.Iterator()
		for {
			m, ok := it.Next()
			if !ok {
				break
			}
			table.Set(string(m), nil)
		}
		s.pack = nil
	}
	s.table = table
}

// packIndex returns the listpack index of member, or -1.
func (s *Set) packIndex(member []byte) int {
	it := s.pack.Iterator()
	for i := 0; ; i++ {
		m, ok := it.Next()
		if !ok {
			return -1
		}
		if string(m) == string(member) {
			return i
		}
	}
}

// Has reports membership.
func (s *Set) Has(member []byte) bool {
	switch {
	case s.ints != nil:
		v, ok := ParseInt(member)
		return ok && s.ints.Contains(v)
	case s.pack != nil:
		return s.packIndex(member) >= 0
	default:
		return s.table.Has(string(member))
	}
}

// Add inserts member, promoting the encoding as cfg requires. It returns
// true when the member was newly added.
func (s *Set) Add(member []byte, cfg SetConfig) bool {
	if s.ints != nil {
		if v, ok := ParseInt(member); ok {
			if s.ints.Contains(v) {
				return false
			}
			if s.ints.Len()+1 > cfg.MaxIntsetEntries {
				s.promoteFromIntset(s.ints.Len()+1, intLen(v), cfg)
			} else {
				s.ints.Insert(v)
				return true
			}
		} else {
			s.promoteFromIntset(s.ints.Len()+1, len(member), cfg)
		}
	}

	if s.pack != nil {
		if s.packIndex(member) >= 0 {
			return false
		}
		if len(member) > cfg.MaxListpackValue || s.pack.Len()+1 > cfg.MaxListpackEntries {
			s.toTable()
		} else {
			s.pack.Append(member)
			return true
		}
	}

	return s.table.Set(string(member), nil)
}

// promoteFromIntset leaves the intset for the smallest encoding that can
// hold count members where the widest is widest bytes long.
func (s *Set) promoteFromIntset(count, widest int, cfg SetConfig) {
	if count <= cfg.MaxListpackEntries && widest <= cfg.MaxListpackValue && s.intsetFitsListpack(cfg) {
		s.toListpack()
	} else {
		s.toTable()
	}
}

func (s *Set) intsetFitsListpack(cfg SetConfig) bool {
	for _, v := range s.ints.Members() {
		if intLen(v) > cfg.MaxListpackValue {
			return false
		}
	}
	return true
}

// Remove deletes member, returning whether it was present.
func (s *Set) Remove(member []byte) bool {
	switch {
	case s.ints != nil:
		v, ok := ParseInt(member)
		return ok && s.ints.Remove(v)
	case s.pack != nil:
		i := s.packIndex(member)
		if i < 0 {
			return false
		}
		return s.pack.Remove(i)
	default:
		return s.table.Delete(string(member))
	}
}

// At returns the member at iteration position i.
func (s *Set) At(i int) ([]byte, bool) {
	switch {
	case s.ints != nil:
		v, ok := s.ints.Get(i)
		if !ok {
			return nil, false
		}
		return strconv.AppendInt(nil, v, 10), true
	case s.pack != nil:
		m := s.pack.Get(i)
		if m == nil {
			return nil, false
		}
		return m, true
	default:
		k, _, ok := s.table.At(i)
		if !ok {
			return nil, false
		}
		return []byte(k), true
	}
}

// Members returns all members: sorted for intsets, insertion order
// otherwise.
func (s *Set) Members() [][]byte {
	out := make([][]byte, 0, s.Len())
	s.Range(func(m []byte) bool {
		out = append(out, append([]byte(nil), m...))
		return true
	})
	return out
}

// Range calls fn for each member until fn returns false.
func (s *Set) Range(fn func(member []byte) bool) {
	switch {
	case s.ints != nil:
		for _, v := range s.ints.Members() {
			if !fn(strconv.AppendInt(nil, v, 10)) {
				return
			}
		}
	case s.pack != nil:
		it := s.pack.Iterator()
		for {
			m, ok := it.Next()
			if !ok {
				return
			}
			if !fn(m) {
				return
			}
		}
	default:
		s.table.Range(func(k string, _ []byte) bool { return fn([]byte(k)) })
	}
}
