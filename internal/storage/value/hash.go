package value

// HashConfig holds the thresholds for the compact hash encoding.
type HashConfig struct {
	MaxListpackEntries int
	MaxListpackValue   int
}

// Hash is a field/value mapping preserving insertion order, encoded as a
// listpack of alternating fields and values while small, and a hash table
// afterwards. Promotion is one-way.
type Hash struct {
	pack  *Listpack
	table *linkedMap
}

// NewHash returns an empty hash in the compact encoding.
func NewHash() *Hash {
	return &Hash{pack: NewListpack()}
}

// Encoding returns the OBJECT ENCODING name.
func (h *Hash) Encoding() string {
	if h.table != nil {
		return "hashtable"
	}
	return "listpack"
}

// Len returns the number of fields.
func (h *Hash) Len() int {
	if h.table != nil {
		return h.table.Len()
	}
	return h.pack.Len() / 2
}

// promote converts the listpack into a hash table.
func (h *Hash) promote() {
	table := newLinkedMap()
	it := h.pack.Iterator()
	for {
		field, ok := it.Next()
		if !ok {
			break
		}
		val, _ := it.Next()
		table.Set(string(field), append([]byte(nil), val...))
	}
	h.table = table
	h.pack = nil
}

// packIndex returns the listpack entry index of field, or -1.
func (h *Hash) packIndex(field []byte) int {
	it := h.pack.Iterator()
	for i := 0; ; i += 2 {
		f, ok := it.Next()
		if !ok {
			return -1
		}
		if string(f) == string(field) {
			return i
		}
		it.Next()
	}
}

// Get returns the value for field.
func (h *Hash) Get(field []byte) ([]byte, bool) {
	if h.table != nil {
		return h.table.Get(string(field))
	}
	i := h.packIndex(field)
	if i < 0 {
		return nil, false
	}
	return h.pack.Get(i + 1), true
}

// Has reports whether field exists.
func (h *Hash) Has(field []byte) bool {
	_, ok := h.Get(field)
	return ok
}

// Set stores field=val, promoting the encoding first if the pair or the new
// size exceeds cfg. It returns true when the field was newly added.
func (h *Hash) Set(field, val []byte, cfg HashConfig) bool {
	if h.pack != nil {
		exists := h.packIndex(field) >= 0
		next := h.Len()
		if !exists {
			next++
		}
		if len(field) > cfg.MaxListpackValue || len(val) > cfg.MaxListpackValue || next > cfg.MaxListpackEntries {
			h.promote()
		}
	}

	if h.table != nil {
		return h.table.Set(string(field), append([]byte(nil), val...))
	}

	if i := h.packIndex(field); i >= 0 {
		h.pack.Replace(i+1, val)
		return false
	}
	h.pack.Append(field)
	h.pack.Append(val)
	return true
}

// Delete removes field, returning whether it existed.
func (h *Hash) Delete(field []byte) bool {
	if h.table != nil {
		return h.table.Delete(string(field))
	}
	i := h.packIndex(field)
	if i < 0 {
		return false
	}
	h.pack.Remove(i)
	h.pack.Remove(i)
	return true
}

// Range calls fn for each field/value pair in insertion order until fn
// returns false.
func (h *Hash) Range(fn func(field, val []byte) bool) {
	if h.table != nil {
		h.table.Range(func(k string, v []byte) bool { return fn([]byte(k), v) })
		return
	}
	it := h.pack.Iterator()
	for {
		field, ok := it.Next()
		if !ok {
			return
		}
		val, _ := it.Next()
		if !fn(field, val) {
			return
		}
	}
}

// At returns the pair at insertion-order position i, for random field
// selection.
func (h *Hash) At(i int) (field, val []byte, ok bool) {
	if h.table != nil {
		k, v, ok := h.table.At(i)
		return []byte(k), v, ok
	}
	if i < 0 || i >= h.Len() {
		return nil, nil, false
	}
	return h.pack.Get(i * 2), h.pack.Get(i*2 + 1), true
}
