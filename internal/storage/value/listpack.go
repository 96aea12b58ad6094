package value

import "encoding/binary"

// Listpack is a contiguous byte buffer of length-prefixed entries. Each
// entry is laid out as:
//
//	uvarint(len) | data | backlen
//
// where backlen encodes the byte length of the header plus data in reversed
// 7-bit groups, so an iterator positioned at the end of an entry can skip
// backward without scanning from the front.
type Listpack struct {
	buf   []byte
	count int
}

// NewListpack returns an empty listpack.
func NewListpack() *Listpack {
	return &Listpack{}
}

// Len returns the number of entries.
func (lp *Listpack) Len() int { return lp.count }

// Size returns the buffer size in bytes.
func (lp *Listpack) Size() int { return len(lp.buf) }

// appendEntry appends a single encoded entry to buf.
func appendEntry(buf, data []byte) []byte {
	start := len(buf)
	buf = binary.AppendUvarint(buf, uint64(len(data)))
	buf = append(buf, data...)
	return appendBacklen(buf, uint64(len(buf)-start))
}

// appendBacklen appends l in reversed 7-bit groups. The first byte written
// has its high bit clear; subsequent (more significant) groups set it, so a
// backward scan stops at the clear bit.
func appendBacklen(buf []byte, l uint64) []byte {
	buf = append(buf, byte(l&127))
	l >>= 7
	for l > 0 {
		buf = append(buf, byte(l&127)|128)
		l >>= 7
	}
	return buf
}

// readBacklen decodes the backlen field ending at end (exclusive) and
// returns the entry length it encodes plus the backlen field size.
func readBacklen(buf []byte, end int) (entryLen uint64, fieldLen int) {
	i := end - 1
	for i >= 0 && buf[i]&128 != 0 {
		entryLen = entryLen<<7 | uint64(buf[i]&127)
		i--
	}
	entryLen = entryLen<<7 | uint64(buf[i])
	return entryLen, end - i
}

// Append adds an entry at the tail.
func (lp *Listpack) Append(data []byte) {
	lp.buf = appendEntry(lp.buf, data)
	lp.count++
}

// Prepend adds an entry at the head.
func (lp *Listpack) Prepend(data []byte) {
	entry := appendEntry(nil, data)
	lp.buf = append(entry, lp.buf...)
	lp.count++
}

// entryBounds returns the data bounds and the offset just past the entry
// starting at offset.
func (lp *Listpack) entryBounds(offset int) (dataStart, dataEnd, next int) {
	l, n := binary.Uvarint(lp.buf[offset:])
	dataStart = offset + n
	dataEnd = dataStart + int(l)
	// The backlen field holds header+data length in 7-bit groups.
	blen := 1
	for v := uint64(dataEnd-offset) >> 7; v > 0; v >>= 7 {
		blen++
	}
	return dataStart, dataEnd, dataEnd + blen
}

// readBacklenForward returns the backlen field starting at offset, scanning
// forward: the field ends at the last byte with the high bit set, or at the
// first byte when the value fits seven bits.
func readBacklenForward(buf []byte, offset int) (uint64, int) {
	l := uint64(buf[offset] & 127)
	n := 1
	for offset+n < len(buf) && buf[offset+n]&128 != 0 {
		l |= uint64(buf[offset+n]&127) << (7 * uint(n))
		n++
	}
	return l, n
}

// Get returns the entry at index i, or nil if out of range.
func (lp *Listpack) Get(i int) []byte {
	if i < 0 || i >= lp.count {
		return nil
	}
	it := lp.Iterator()
	for ; i > 0; i-- {
		it.Next()
	}
	data, _ := it.Next()
	return data
}

// Remove deletes the entry at index i.
func (lp *Listpack) Remove(i int) bool {
	start, end, ok := lp.byteRange(i)
	if !ok {
		return false
	}
	lp.buf = append(lp.buf[:start], lp.buf[end:]...)
	lp.count--
	return true
}

// Replace swaps the entry at index i for data.
func (lp *Listpack) Replace(i int, data []byte) bool {
	start, end, ok := lp.byteRange(i)
	if !ok {
		return false
	}
	entry := appendEntry(nil, data)
	rest := append(entry, lp.buf[end:]...)
	lp.buf = append(lp.buf[:start], rest...)
	return true
}

// Insert places data before the entry at index i. i == Len appends.
func (lp *Listpack) Insert(i int, data []byte) bool {
	if i == lp.count {
		lp.Append(data)
		return true
	}
	start, _, ok := lp.byteRange(i)
	if !ok {
		return false
	}
	entry := appendEntry(nil, data)
	rest := append(entry, lp.buf[start:]...)
	lp.buf = append(lp.buf[:start], rest...)
	lp.count++
	return true
}

// byteRange returns the buffer range of the entry at index i.
func (lp *Listpack) byteRange(i int) (start, end int, ok bool) {
	if i < 0 || i >= lp.count {
		return 0, 0, false
	}
	offset := 0
	for ; i > 0; i-- {
		_, _, offset = lp.entryBounds(offset)
	}
	start = offset
	_, _, end = lp.entryBounds(offset)
	return start, end, true
}

// PopFront removes and returns the first entry.
func (lp *Listpack) PopFront() ([]byte, bool) {
	if lp.count == 0 {
		return nil, false
	}
	dataStart, dataEnd, next := lp.entryBounds(0)
	data := append([]byte(nil), lp.buf[dataStart:dataEnd]...)
	lp.buf = lp.buf[next:]
	lp.count--
	return data, true
}

// PopBack removes and returns the last entry.
func (lp *Listpack) PopBack() ([]byte, bool) {
	if lp.count == 0 {
		return nil, false
	}
	entryLen, fieldLen := readBacklen(lp.buf, len(lp.buf))
	start := len(lp.buf) - fieldLen - int(entryLen)
	l, n := binary.Uvarint(lp.buf[start:])
	data := append([]byte(nil), lp.buf[start+n:start+n+int(l)]...)
	lp.buf = lp.buf[:start]
	lp.count--
	return data, true
}

// lpIterator iterates entries front to back.
type lpIterator struct {
	lp     *Listpack
	offset int
}

// Iterator returns a forward iterator.
func (lp *Listpack) Iterator() *lpIterator {
	return &lpIterator{lp: lp}
}

// Next returns the next entry. The returned slice aliases the buffer and is
// only valid until the next mutation.
func (it *lpIterator) Next() ([]byte, bool) {
	if it.offset >= len(it.lp.buf) {
		return nil, false
	}
	dataStart, dataEnd, next := it.lp.entryBounds(it.offset)
	it.offset = next
	return it.lp.buf[dataStart:dataEnd], true
}

// lpRevIterator iterates entries back to front.
type lpRevIterator struct {
	lp  *Listpack
	end int
}

// RevIterator returns a backward iterator.
func (lp *Listpack) RevIterator() *lpRevIterator {
	return &lpRevIterator{lp: lp, end: len(lp.buf)}
}

// Next returns the previous entry, walking toward the front.
func (it *lpRevIterator) Next() ([]byte, bool) {
	if it.end <= 0 {
		return nil, false
	}
	entryLen, fieldLen := readBacklen(it.lp.buf, it.end)
	start := it.end - fieldLen - int(entryLen)
	l, n := binary.Uvarint(it.lp.buf[start:])
	it.end = start
	return it.lp.buf[start+n : start+n+int(l)], true
}

// Entries returns all entries as copies, front to back.
func (lp *Listpack) Entries() [][]byte {
	out := make([][]byte, 0, lp.count)
	it := lp.Iterator()
	for {
		data, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, append([]byte(nil), data...))
	}
	return out
}
