package value

import (
	"math"
	"sort"
)

// IntSet is a sorted array of integers with a fixed-width storage class that
// widens from 16 to 32 to 64 bits as members require.
type IntSet struct {
	i16 []int16
	i32 []int32
	i64 []int64
}

// NewIntSet returns an empty intset using the narrowest storage.
func NewIntSet() *IntSet {
	return &IntSet{}
}

func fits16(v int64) bool { return v >= math.MinInt16 && v <= math.MaxInt16 }
func fits32(v int64) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }

// Len returns the number of members.
func (s *IntSet) Len() int {
	switch {
	case s.i64 != nil:
		return len(s.i64)
	case s.i32 != nil:
		return len(s.i32)
	default:
		return len(s.i16)
	}
}

// Contains reports whether v is a member.
func (s *IntSet) Contains(v int64) bool {
	switch {
	case s.i64 != nil:
		i := sort.Search(len(s.i64), func(i int) bool { return s.i64[i] >= v })
		return i < len(s.i64) && s.i64[i] == v
	case s.i32 != nil:
		if !fits32(v) {
			return false
		}
		w := int32(v)
		i := sort.Search(len(s.i32), func(i int) bool { return s.i32[i] >= w })
		return i < len(s.i32) && s.i32[i] == w
	default:
		if !fits16(v) {
			return false
		}
		w := int16(v)
		i := sort.Search(len(s.i16), func(i int) bool { return s.i16[i] >= w })
		return i < len(s.i16) && s.i16[i] == w
	}
}

// widen upgrades the storage class so v fits.
func (s *IntSet) widen(v int64) {
	if s.i64 == nil && !fits32(v) {
		s.i64 = make([]int64, 0, s.Len()+1)
		if s.i32 != nil {
			for _, x := range s.i32 {
				s.i64 = append(s.i64, int64(x))
			}
			s.i32 = nil
		} else {
			for _, x := range s.i16 {
				s.i64 = append(s.i64, int64(x))
			}
			s.i16 = nil
		}
		return
	}
	if s.i64 == nil && s.i32 == nil && !fits16(v) {
		s.i32 = make([]int32, 0, len(s.i16)+1)
		for _, x := range s.i16 {
			s.i32 = append(s.i32, int32(x))
		}
		s.i16 = nil
	}
}

// Insert adds v, returning true if it was not already present.
func (s *IntSet) Insert(v int64) bool {
	s.widen(v)
	switch {
	case s.i64 != nil:
		i := sort.Search(len(s.i64), func(i int) bool { return s.i64[i] >= v })
		if i < len(s.i64) && s.i64[i] == v {
			return false
		}
		s.i64 = append(s.i64, 0)
		copy(s.i64[i+1:], s.i64[i:])
		s.i64[i] = v
	case s.i32 != nil:
		w := int32(v)
		i := sort.Search(len(s.i32), func(i int) bool { return s.i32[i] >= w })
		if i < len(s.i32) && s.i32[i] == w {
			return false
		}
		s.i32 = append(s.i32, 0)
		copy(s.i32[i+1:], s.i32[i:])
		s.i32[i] = w
	default:
		w := int16(v)
		i := sort.Search(len(s.i16), func(i int) bool { return s.i16[i] >= w })
		if i < len(s.i16) && s.i16[i] == w {
			return false
		}
		s.i16 = append(s.i16, 0)
		copy(s.i16[i+1:], s.i16[i:])
		s.i16[i] = w
	}
	return true
}

// Remove deletes v, returning true if it was present. The storage class
// never narrows.
func (s *IntSet) Remove(v int64) bool {
	switch {
	case s.i64 != nil:
		i := sort.Search(len(s.i64), func(i int) bool { return s.i64[i] >= v })
		if i >= len(s.i64) || s.i64[i] != v {
			return false
		}
		s.i64 = append(s.i64[:i], s.i64[i+1:]...)
	case s.i32 != nil:
		if !fits32(v) {
			return false
		}
		w := int32(v)
		i := sort.Search(len(s.i32), func(i int) bool { return s.i32[i] >= w })
		if i >= len(s.i32) || s.i32[i] != w {
			return false
		}
		s.i32 = append(s.i32[:i], s.i32[i+1:]...)
	default:
		if !fits16(v) {
			return false
		}
		w := int16(v)
		i := sort.Search(len(s.i16), func(i int) bool { return s.i16[i] >= w })
		if i >= len(s.i16) || s.i16[i] != w {
			return false
		}
		s.i16 = append(s.i16[:i], s.i16[i+1:]...)
	}
	return true
}

// Get returns the member at sorted index i.
func (s *IntSet) Get(i int) (int64, bool) {
	if i < 0 || i >= s.Len() {
		return 0, false
	}
	switch {
	case s.i64 != nil:
		return s.i64[i], true
	case s.i32 != nil:
		return int64(s.i32[i]), true
	default:
		return int64(s.i16[i]), true
	}
}

// Members returns all members in sorted order.
func (s *IntSet) Members() []int64 {
	out := make([]int64, s.Len())
	for i := range out {
		out[i], _ = s.Get(i)
	}
	return out
}
