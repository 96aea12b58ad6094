package value

import "bytes"

// List is a sequence of byte strings: a single listpack while it fits one
// node's worth of entries, a quicklist afterwards. LTRIM may collapse a
// shrunken quicklist back into a single listpack.
type List struct {
	pack  *Listpack
	quick *QuickList
}

// NewList returns an empty list in the compact encoding.
func NewList() *List {
	return &List{pack: NewListpack()}
}

// Encoding returns the OBJECT ENCODING name.
func (l *List) Encoding() string {
	if l.pack != nil {
		return "listpack"
	}
	return "quicklist"
}

// Len returns the entry count.
func (l *List) Len() int {
	if l.pack != nil {
		return l.pack.Len()
	}
	return l.quick.Len()
}

// promote converts the listpack into a quicklist.
func (l *List) promote(size int64) {
	quick := NewQuickList()
	it := l.pack.Iterator()
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		quick.PushBack(entry, size)
	}
	l.quick = quick
	l.pack = nil
}

// maybePromote switches encodings when entry would overflow the single
// listpack node.
func (l *List) maybePromote(entry []byte, size int64) {
	if l.pack != nil && !nodeFits(l.pack, entry, size) {
		l.promote(size)
	}
}

// PushFront prepends entry.
func (l *List) PushFront(entry []byte, size int64) {
	l.maybePromote(entry, size)
	if l.pack != nil {
		l.pack.Prepend(entry)
		return
	}
	l.quick.PushFront(entry, size)
}

// PushBack appends entry.
func (l *List) PushBack(entry []byte, size int64) {
	l.maybePromote(entry, size)
	if l.pack != nil {
		l.pack.Append(entry)
		return
	}
	l.quick.PushBack(entry, size)
}

// PopFront removes and returns the first entry.
func (l *List) PopFront() ([]byte, bool) {
	if l.pack != nil {
		return l.pack.PopFront()
	}
	return l.quick.PopFront()
}

// PopBack removes and returns the last entry.
func (l *List) PopBack() ([]byte, bool) {
	if l.pack != nil {
		return l.pack.PopBack()
	}
	return l.quick.PopBack()
}

// Get returns the entry at index i.
func (l *List) Get(i int) ([]byte, bool) {
	if i < 0 || i >= l.Len() {
		return nil, false
	}
	if l.pack != nil {
		return l.pack.Get(i), true
	}
	return l.quick.Get(i)
}

// Set replaces the entry at index i.
func (l *List) Set(i int, entry []byte) bool {
	if l.pack != nil {
		return l.pack.Replace(i, entry)
	}
	return l.quick.Set(i, entry)
}

// Insert places entry before or after the first occurrence of pivot. It
// returns the new length, or -1 when the pivot is missing.
func (l *List) Insert(pivot, entry []byte, before bool, size int64) int {
	idx := l.indexOf(pivot)
	if idx < 0 {
		return -1
	}
	if !before {
		idx++
	}

	l.maybePromote(entry, size)
	if l.pack != nil {
		l.pack.Insert(idx, entry)
	} else {
		l.quick.InsertAt(idx, entry, size)
	}
	return l.Len()
}

func (l *List) indexOf(entry []byte) int {
	found := -1
	l.Range(0, l.Len()-1, func(i int, e []byte) bool {
		if bytes.Equal(e, entry) {
			found = i
			return false
		}
		return true
	})
	return found
}

// Range calls fn for each entry in the inclusive pre-clamped index range.
func (l *List) Range(start, stop int, fn func(i int, entry []byte) bool) {
	if start < 0 {
		start = 0
	}
	if stop >= l.Len() {
		stop = l.Len() - 1
	}
	if start > stop {
		return
	}
	if l.pack != nil {
		it := l.pack.Iterator()
		for i := 0; i <= stop; i++ {
			entry, ok := it.Next()
			if !ok {
				return
			}
			if i >= start && !fn(i, entry) {
				return
			}
		}
		return
	}
	l.quick.Range(start, stop, fn)
}

// Remove deletes occurrences of entry per LREM semantics: count > 0 scans
// head to tail removing count matches, count < 0 scans tail to head, and
// count == 0 removes all. It returns the number removed.
func (l *List) Remove(count int64, entry []byte) int64 {
	var removed int64

	if count >= 0 {
		limit := count
		for i := 0; i < l.Len(); {
			e, _ := l.Get(i)
			if bytes.Equal(e, entry) {
				l.removeAt(i)
				removed++
				if limit > 0 && removed == limit {
					break
				}
				continue
			}
			i++
		}
		return removed
	}

	limit := -count
	for i := l.Len() - 1; i >= 0; i-- {
		e, _ := l.Get(i)
		if bytes.Equal(e, entry) {
			l.removeAt(i)
			removed++
			if removed == limit {
				break
			}
		}
	}
	return removed
}

func (l *List) removeAt(i int) {
	if l.pack != nil {
		l.pack.Remove(i)
		return
	}
	l.quick.RemoveAt(i)
}

// Trim keeps the inclusive pre-clamped index range [start, stop], deleting
// everything else. A quicklist whose remainder fits a single node collapses
// back to a listpack.
func (l *List) Trim(start, stop int, size int64) {
	if start < 0 {
		start = 0
	}
	if stop >= l.Len() {
		stop = l.Len() - 1
	}
	if start > stop {
		if l.pack != nil {
			l.pack = NewListpack()
		} else {
			l.pack = NewListpack()
			l.quick = nil
		}
		return
	}

	kept := NewListpack()
	fits := true
	l.Range(start, stop, func(_ int, entry []byte) bool {
		if fits && !nodeFits(kept, entry, size) {
			fits = false
		}
		kept.Append(entry)
		return true
	})

	if fits {
		l.pack = kept
		l.quick = nil
		return
	}

	quick := NewQuickList()
	it := kept.Iterator()
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		quick.PushBack(entry, size)
	}
	l.pack = nil
	l.quick = quick
}

// Pos implements LPOS: find positions of entry. rank selects the starting
// occurrence (negative scans from the tail), count bounds matches returned
// (0 means all), and maxlen bounds compared entries (0 means all).
func (l *List) Pos(entry []byte, rank, count, maxlen int64) []int64 {
	var out []int64
	n := int64(l.Len())

	if rank >= 0 {
		if rank == 0 {
			rank = 1
		}
		var skipped, compared int64
		for i := int64(0); i < n; i++ {
			if maxlen > 0 && compared >= maxlen {
				break
			}
			compared++
			e, _ := l.Get(int(i))
			if !bytes.Equal(e, entry) {
				continue
			}
			skipped++
			if skipped < rank {
				continue
			}
			out = append(out, i)
			if count > 0 && int64(len(out)) == count {
				break
			}
			if count == 0 {
				continue
			}
		}
		return out
	}

	// Negative rank scans from the tail.
	want := -rank
	var skipped, compared int64
	for i := n - 1; i >= 0; i-- {
		if maxlen > 0 && compared >= maxlen {
			break
		}
		compared++
		e, _ := l.Get(int(i))
		if !bytes.Equal(e, entry) {
			continue
		}
		skipped++
		if skipped < want {
			continue
		}
		out = append(out, i)
		if count > 0 && int64(len(out)) == count {
			break
		}
	}
	return out
}

// Entries returns every entry as a copy.
func (l *List) Entries() [][]byte {
	if l.pack != nil {
		return l.pack.Entries()
	}
	return l.quick.Entries()
}
