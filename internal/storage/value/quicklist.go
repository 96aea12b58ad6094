package value

// nodeFits translates the signed list-max-listpack-size config into a
// fit check. Positive values bound entries per node; negative values pick a
// byte size class per node.
func nodeFits(lp *Listpack, entry []byte, size int64) bool {
	if size >= 0 {
		if size == 0 {
			size = 128
		}
		return int64(lp.Len()) < size
	}
	var limit int
	switch size {
	case -1:
		limit = 4 * 1024
	case -2:
		limit = 8 * 1024
	case -3:
		limit = 16 * 1024
	case -4:
		limit = 32 * 1024
	default:
		limit = 64 * 1024
	}
	return lp.Size()+len(entry) <= limit
}

type qlNode struct {
	lp         *Listpack
	prev, next *qlNode
}

// QuickList is a doubly linked list of listpack nodes, sized by the
// list-max-listpack-size config.
type QuickList struct {
	head, tail *qlNode
	count      int
}

// NewQuickList returns an empty quicklist.
func NewQuickList() *QuickList {
	return &QuickList{}
}

// Len returns the total entry count.
func (q *QuickList) Len() int { return q.count }

// Nodes returns the number of listpack nodes.
func (q *QuickList) Nodes() int {
	n := 0
	for node := q.head; node != nil; node = node.next {
		n++
	}
	return n
}

func (q *QuickList) pushNodeFront() *qlNode {
	node := &qlNode{lp: NewListpack(), next: q.head}
	if q.head != nil {
		q.head.prev = node
	} else {
		q.tail = node
	}
	q.head = node
	return node
}

func (q *QuickList) pushNodeBack() *qlNode {
	node := &qlNode{lp: NewListpack(), prev: q.tail}
	if q.tail != nil {
		q.tail.next = node
	} else {
		q.head = node
	}
	q.tail = node
	return node
}

func (q *QuickList) removeNode(node *qlNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		q.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		q.tail = node.prev
	}
}

// PushFront prepends an entry, opening a new head node when the current one
// is full.
func (q *QuickList) PushFront(entry []byte, size int64) {
	node := q.head
	if node == nil || !nodeFits(node.lp, entry, size) {
		node = q.pushNodeFront()
	}
	node.lp.Prepend(entry)
	q.count++
}

// PushBack appends an entry.
func (q *QuickList) PushBack(entry []byte, size int64) {
	node := q.tail
	if node == nil || !nodeFits(node.lp, entry, size) {
		node = q.pushNodeBack()
	}
	node.lp.Append(entry)
	q.count++
}

// PopFront removes and returns the first entry.
func (q *QuickList) PopFront() ([]byte, bool) {
	if q.head == nil {
		return nil, false
	}
	entry, _ := q.head.lp.PopFront()
	if q.head.lp.Len() == 0 {
		q.removeNode(q.head)
	}
	q.count--
	return entry, true
}

// PopBack removes and returns the last entry.
func (q *QuickList) PopBack() ([]byte, bool) {
	if q.tail == nil {
		return nil, false
	}
	entry, _ := q.tail.lp.PopBack()
	if q.tail.lp.Len() == 0 {
		q.removeNode(q.tail)
	}
	q.count--
	return entry, true
}

// locate finds the node and in-node index for list index i.
func (q *QuickList) locate(i int) (*qlNode, int) {
	if i < 0 || i >= q.count {
		return nil, 0
	}
	for node := q.head; node != nil; node = node.next {
		if i < node.lp.Len() {
			return node, i
		}
		i -= node.lp.Len()
	}
	return nil, 0
}

// Get returns the entry at index i.
func (q *QuickList) Get(i int) ([]byte, bool) {
	node, j := q.locate(i)
	if node == nil {
		return nil, false
	}
	return node.lp.Get(j), true
}

// Set replaces the entry at index i.
func (q *QuickList) Set(i int, entry []byte) bool {
	node, j := q.locate(i)
	if node == nil {
		return false
	}
	return node.lp.Replace(j, entry)
}

// InsertAt places entry before index i. i == Len appends to the tail node.
func (q *QuickList) InsertAt(i int, entry []byte, size int64) {
	if i <= 0 {
		q.PushFront(entry, size)
		return
	}
	if i >= q.count {
		q.PushBack(entry, size)
		return
	}
	node, j := q.locate(i)
	// Splitting nodes is avoided: grow the located node in place.
	node.lp.Insert(j, entry)
	q.count++
}

// RemoveAt deletes the entry at index i.
func (q *QuickList) RemoveAt(i int) bool {
	node, j := q.locate(i)
	if node == nil {
		return false
	}
	node.lp.Remove(j)
	if node.lp.Len() == 0 {
		q.removeNode(node)
	}
	q.count--
	return true
}

// Range calls fn for each entry in [start, stop] (inclusive, pre-clamped).
func (q *QuickList) Range(start, stop int, fn func(i int, entry []byte) bool) {
	i := 0
	for node := q.head; node != nil && i <= stop; node = node.next {
		if i+node.lp.Len() <= start {
			i += node.lp.Len()
			continue
		}
		it := node.lp.Iterator()
		for {
			entry, ok := it.Next()
			if !ok {
				break
			}
			if i >= start && i <= stop {
				if !fn(i, entry) {
					return
				}
			}
			i++
			if i > stop {
				return
			}
		}
	}
}

// Entries returns every entry as a copy.
func (q *QuickList) Entries() [][]byte {
	out := make([][]byte, 0, q.count)
	for node := q.head; node != nil; node = node.next {
		out = append(out, node.lp.Entries()...)
	}
	return out
}
