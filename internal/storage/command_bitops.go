package storage

import (
	"math"
	"math/bits"
	"strconv"

	"github.com/braddunbar/bradis/internal/resp"
	"github.com/braddunbar/bradis/internal/storage/value"
)

func init() {
	register(&Command{Name: "setbit", Arity: 4, Run: setbitCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "getbit", Arity: 3, Run: getbitCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "bitcount", Arity: -2, Run: bitcountCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "bitpos", Arity: -3, Run: bitposCmd, Keys: keySpec{kind: keysSingle}})
	register(&Command{Name: "bitop", Arity: -4, Run: bitopCmd, Keys: keySpec{kind: keysSkipOne}, Write: true})
	register(&Command{Name: "bitfield", Arity: -2, Run: bitfieldCmd, Keys: keySpec{kind: keysSingle}, Write: true})
	register(&Command{Name: "bitfield_ro", Arity: -2, Run: bitfieldRoCmd, Keys: keySpec{kind: keysSingle}})
}

// bitOffset parses a bit offset, bounded by eight times the bulk limit.
func bitOffset(s *Store, b []byte) (int64, bool) {
	n, ok := argInt(b)
	if !ok || n < 0 || n >= s.readerCfg.BlobLimit()*8 {
		return 0, false
	}
	return n, true
}

func setbitCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	key := string(args[0])
	offset, ok := bitOffset(s, args[1])
	if !ok {
		return reply(c, errBitOffset)
	}
	bit, ok := argInt(args[2])
	if !ok || (bit != 0 && bit != 1) {
		return reply(c, errBitValue)
	}

	str, okType := strOrCreate(s, c, key)
	if !okType {
		return reply(c, errWrongType)
	}

	b := str.Bytes()
	byteIndex := int(offset / 8)
	if byteIndex >= len(b) {
		grown := make([]byte, byteIndex+1)
		copy(grown, b)
		b = grown
	} else {
		b = append([]byte(nil), b...)
	}

	mask := byte(1 << (7 - offset%8))
	old := int64(0)
	if b[byteIndex]&mask != 0 {
		old = 1
	}
	if bit == 1 {
		b[byteIndex] |= mask
	} else {
		b[byteIndex] &^= mask
	}

	*str = *value.NewStr(b)
	s.noteWrite(c.db, key, 1)
	return reply(c, resp.Integer(old))
}

func getbitCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	offset, ok := bitOffset(s, args[1])
	if !ok {
		return reply(c, errBitOffset)
	}
	str, exists, isStr := s.getStr(c.db, string(args[0]))
	if !exists {
		return reply(c, resp.Integer(0))
	}
	if !isStr {
		return reply(c, errWrongType)
	}
	b := str.Bytes()
	byteIndex := int(offset / 8)
	if byteIndex >= len(b) {
		return reply(c, resp.Integer(0))
	}
	if b[byteIndex]&(1<<(7-offset%8)) != 0 {
		return reply(c, resp.Integer(1))
	}
	return reply(c, resp.Integer(0))
}

// bitRange resolves a [start, end] range in BYTE or BIT units against a
// string of n bytes, returning bit bounds (inclusive) or ok=false for an
// empty range.
func bitRange(start, end int64, n int64, byBit bool) (int64, int64, bool) {
	total := n * 8
	if !byBit {
		start, end = clampRange(start, end, n)
		if start > end || n == 0 {
			return 0, 0, false
		}
		return start * 8, end*8 + 7, true
	}
	start, end = clampRange(start, end, total)
	if start > end || total == 0 {
		return 0, 0, false
	}
	return start, end, true
}

func bitcountCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	str, exists, isStr := s.getStr(c.db, string(args[0]))
	if exists && !isStr {
		return reply(c, errWrongType)
	}

	var b []byte
	if exists {
		b = str.Bytes()
	}

	byBit := false
	start, end := int64(0), int64(-1)
	switch len(args) {
	case 1:
	case 3, 4:
		var ok1, ok2 bool
		start, ok1 = argInt(args[1])
		end, ok2 = argInt(args[2])
		if !ok1 || !ok2 {
			return reply(c, errNotInteger)
		}
		if len(args) == 4 {
			switch {
			case argMatch(args[3], "BYTE"):
			case argMatch(args[3], "BIT"):
				byBit = true
			default:
				return reply(c, errSyntax)
			}
		}
	default:
		return reply(c, errSyntax)
	}

	from, to, ok := bitRange(start, end, int64(len(b)), byBit)
	if !ok {
		return reply(c, resp.Integer(0))
	}
	return reply(c, resp.Integer(simpleCountBits(b, from, to)))
}

// simpleCountBits counts set bits in the inclusive bit range.
func simpleCountBits(b []byte, from, to int64) int64 {
	var count int64
	for i := from; i <= to; {
		if i%8 == 0 && i+7 <= to {
			count += int64(bits.OnesCount8(b[i/8]))
			i += 8
			continue
		}
		if b[i/8]&(1<<(7-i%8)) != 0 {
			count++
		}
		i++
	}
	return count
}

func bitposCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	bit, ok := argInt(args[1])
	if !ok || (bit != 0 && bit != 1) {
		return reply(c, errBitValue)
	}

	str, exists, isStr := s.getStr(c.db, string(args[0]))
	if exists && !isStr {
		return reply(c, errWrongType)
	}
	var b []byte
	if exists {
		b = str.Bytes()
	}

	byBit := false
	start, end := int64(0), int64(-1)
	hasEnd := false
	switch len(args) {
	case 2:
	case 3, 4, 5:
		if start, ok = argInt(args[2]); !ok {
			return reply(c, errNotInteger)
		}
		if len(args) >= 4 {
			if end, ok = argInt(args[3]); !ok {
				return reply(c, errNotInteger)
			}
			hasEnd = true
		}
		if len(args) == 5 {
			switch {
			case argMatch(args[4], "BYTE"):
			case argMatch(args[4], "BIT"):
				byBit = true
			default:
				return reply(c, errSyntax)
			}
		}
	default:
		return reply(c, errSyntax)
	}

	from, to, nonEmpty := bitRange(start, end, int64(len(b)), byBit)
	if !nonEmpty {
		if bit == 0 && !hasEnd {
			return reply(c, resp.Integer(int64(len(b))*8))
		}
		return reply(c, resp.Integer(-1))
	}

	for i := from; i <= to; i++ {
		cur := int64(0)
		if b[i/8]&(1<<(7-i%8)) != 0 {
			cur = 1
		}
		if cur == bit {
			return reply(c, resp.Integer(i))
		}
	}

	// Searching for 0 with no explicit end: the string is treated as
	// right-padded with zeros.
	if bit == 0 && !hasEnd {
		return reply(c, resp.Integer(int64(len(b)) * 8))
	}
	return reply(c, resp.Integer(-1))
}

func bitopCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	dest := string(args[1])
	srcKeys := args[2:]

	var isNot bool
	switch {
	case argMatch(args[0], "AND"), argMatch(args[0], "OR"), argMatch(args[0], "XOR"):
	case argMatch(args[0], "NOT"):
		if len(srcKeys) != 1 {
			return reply(c, resp.Error("ERR BITOP NOT must be called with a single source key."))
		}
		isNot = true
	default:
		return reply(c, errSyntax)
	}

	srcs := make([][]byte, 0, len(srcKeys))
	longest := 0
	for _, k := range srcKeys {
		str, exists, isStr := s.getStr(c.db, string(k))
		if exists && !isStr {
			return reply(c, errWrongType)
		}
		var b []byte
		if exists {
			b = str.Bytes()
		}
		if len(b) > longest {
			longest = len(b)
		}
		srcs = append(srcs, b)
	}

	out := make([]byte, longest)
	if isNot {
		src := srcs[0]
		for i := range out {
			out[i] = ^src[i]
		}
	} else {
		for i := range out {
			var acc byte
			for j, src := range srcs {
				var cur byte
				if i < len(src) {
					cur = src[i]
				}
				if j == 0 {
					acc = cur
					continue
				}
				switch {
				case argMatch(args[0], "AND"):
					acc &= cur
				case argMatch(args[0], "OR"):
					acc |= cur
				default:
					acc ^= cur
				}
			}
			out[i] = acc
		}
	}

	if len(out) == 0 {
		if s.deleteKey(c.db, dest, s.limits.LazyUserDel) {
			s.noteWrite(c.db, dest, 1)
		}
		return reply(c, resp.Integer(0))
	}

	s.setValue(c.db, dest, value.NewStr(out), false)
	s.noteWrite(c.db, dest, 1)
	return reply(c, resp.Integer(int64(len(out))))
}

// ============================================================
// BITFIELD
// ============================================================

// Overflow policies.
const (
	overflowWrap = iota
	overflowSat
	overflowFail
)

type bitfieldOp struct {
	kind     byte // 'g', 's', 'i'
	signed   bool
	width    uint
	offset   int64
	operand  int64
	overflow int
}

// parseBitfieldType parses u1..u63 / i1..i64.
func parseBitfieldType(b []byte) (signed bool, width uint, ok bool) {
	if len(b) < 2 {
		return false, 0, false
	}
	switch b[0] {
	case 'i', 'I':
		signed = true
	case 'u', 'U':
	default:
		return false, 0, false
	}
	n, err := strconv.Atoi(string(b[1:]))
	if err != nil || n < 1 {
		return false, 0, false
	}
	if signed && n > 64 || !signed && n > 63 {
		return false, 0, false
	}
	return signed, uint(n), true
}

// parseBitfieldOffset parses N or #N (scaled by width).
func parseBitfieldOffset(s *Store, b []byte, width uint) (int64, bool) {
	scale := int64(1)
	if len(b) > 0 && b[0] == '#' {
		scale = int64(width)
		b = b[1:]
	}
	n, ok := argInt(b)
	if !ok || n < 0 {
		return 0, false
	}
	offset := n * scale
	if offset+int64(width) > s.readerCfg.BlobLimit()*8 {
		return 0, false
	}
	return offset, true
}

func bitfieldCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return bitfield(s, c, args, false)
}

func bitfieldRoCmd(s *Store, c *Client, args [][]byte) *blockIntent {
	return bitfield(s, c, args, true)
}

func bitfield(s *Store, c *Client, args [][]byte, readonly bool) *blockIntent {
	key := string(args[0])

	var ops []bitfieldOp
	overflow := overflowWrap
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch {
		case argMatch(rest[i], "OVERFLOW"):
			if readonly {
				return reply(c, resp.Error("ERR BITFIELD_RO only supports the GET subcommand"))
			}
			if i+1 >= len(rest) {
				return reply(c, errSyntax)
			}
			switch {
			case argMatch(rest[i+1], "WRAP"):
				overflow = overflowWrap
			case argMatch(rest[i+1], "SAT"):
				overflow = overflowSat
			case argMatch(rest[i+1], "FAIL"):
				overflow = overflowFail
			default:
				return reply(c, errOverflowType)
			}
			i++
		case argMatch(rest[i], "GET"), argMatch(rest[i], "SET"), argMatch(rest[i], "INCRBY"):
			op := bitfieldOp{overflow: overflow}
			switch {
			case argMatch(rest[i], "GET"):
				op.kind = 'g'
			case argMatch(rest[i], "SET"):
				op.kind = 's'
			default:
				op.kind = 'i'
			}
			if readonly && op.kind != 'g' {
				return reply(c, resp.Error("ERR BITFIELD_RO only supports the GET subcommand"))
			}

			need := 2
			if op.kind != 'g' {
				need = 3
			}
			if i+need >= len(rest) {
				return reply(c, errSyntax)
			}

			var ok bool
			op.signed, op.width, ok = parseBitfieldType(rest[i+1])
			if !ok {
				return reply(c, resp.Error("ERR Invalid bitfield type. Use something like i16 u8. Note that u64 is not supported but i64 is."))
			}
			op.offset, ok = parseBitfieldOffset(s, rest[i+2], op.width)
			if !ok {
				return reply(c, errBitOffset)
			}
			if op.kind != 'g' {
				op.operand, ok = argInt(rest[i+3])
				if !ok {
					return reply(c, errNotInteger)
				}
			}
			ops = append(ops, op)
			i += need
		default:
			return reply(c, errSyntax)
		}
	}

	str, exists, isStr := s.getStr(c.db, key)
	if exists && !isStr {
		return reply(c, errWrongType)
	}
	var buf []byte
	if exists {
		buf = append([]byte(nil), str.Bytes()...)
	}

	out := make(resp.Array, 0, len(ops))
	mutated := false
	for _, op := range ops {
		// Grow to cover the field for writes.
		needed := int((op.offset + int64(op.width) + 7) / 8)
		if op.kind != 'g' && needed > len(buf) {
			grown := make([]byte, needed)
			copy(grown, buf)
			buf = grown
		}

		cur := readField(buf, op.offset, op.width, op.signed)
		switch op.kind {
		case 'g':
			out = append(out, resp.Integer(cur))
		case 's':
			next, okWrite := applyOverflow(op.operand, op.signed, op.width, op.overflow)
			if !okWrite {
				out = append(out, resp.Nil)
				continue
			}
			writeField(buf, op.offset, op.width, next)
			mutated = true
			out = append(out, resp.Integer(cur))
		case 'i':
			sum, overflowed := addField(cur, op.operand, op.signed, op.width)
			var next int64
			okWrite := true
			if overflowed {
				switch op.overflow {
				case overflowWrap:
					next = wrapField(cur+op.operand, op.signed, op.width)
				case overflowSat:
					next = saturateField(op.operand, op.signed, op.width)
				default:
					okWrite = false
				}
			} else {
				next = sum
			}
			if !okWrite {
				out = append(out, resp.Nil)
				continue
			}
			writeField(buf, op.offset, op.width, next)
			mutated = true
			out = append(out, resp.Integer(next))
		}
	}

	if mutated {
		if !exists {
			str = value.NewStr(nil)
		}
		*str = *value.NewStr(buf)
		s.dbs[c.db].objects[key] = str
		s.noteWrite(c.db, key, 1)
	}
	return reply(c, out)
}

// readField extracts a big-endian bit field.
func readField(buf []byte, offset int64, width uint, signed bool) int64 {
	var v uint64
	for i := uint(0); i < width; i++ {
		pos := offset + int64(i)
		v <<= 1
		byteIndex := pos / 8
		if byteIndex < int64(len(buf)) && buf[byteIndex]&(1<<(7-pos%8)) != 0 {
			v |= 1
		}
	}
	if signed && width < 64 && v&(1<<(width-1)) != 0 {
		// Sign extend.
		v |= ^uint64(0) << width
	}
	return int64(v)
}

// writeField stores the low width bits of v big-endian at offset.
func writeField(buf []byte, offset int64, width uint, v int64) {
	for i := uint(0); i < width; i++ {
		pos := offset + int64(i)
		bit := (uint64(v) >> (width - 1 - i)) & 1
		byteIndex := pos / 8
		mask := byte(1 << (7 - pos%8))
		if bit == 1 {
			buf[byteIndex] |= mask
		} else {
			buf[byteIndex] &^= mask
		}
	}
}

// fieldBounds returns the min and max representable values.
func fieldBounds(signed bool, width uint) (int64, int64) {
	if signed {
		if width == 64 {
			return math.MinInt64, math.MaxInt64
		}
		return -(1 << (width - 1)), (1 << (width - 1)) - 1
	}
	return 0, int64((uint64(1) << width) - 1)
}

// applyOverflow validates a SET operand against the field bounds.
func applyOverflow(v int64, signed bool, width uint, policy int) (int64, bool) {
	min, max := fieldBounds(signed, width)
	if v >= min && v <= max {
		return v, true
	}
	switch policy {
	case overflowWrap:
		return wrapField(v, signed, width), true
	case overflowSat:
		if v < min {
			return min, true
		}
		return max, true
	default:
		return 0, false
	}
}

// addField adds with overflow detection against the field bounds.
func addField(cur, delta int64, signed bool, width uint) (int64, bool) {
	min, max := fieldBounds(signed, width)
	sum := cur + delta
	if signed && width == 64 {
		// Detect two's complement wraparound.
		if (delta > 0 && sum < cur) || (delta < 0 && sum > cur) {
			return 0, true
		}
		return sum, false
	}
	if sum < min || sum > max {
		return 0, true
	}
	return sum, false
}

// wrapField reduces v modulo the field width.
func wrapField(v int64, signed bool, width uint) int64 {
	if width == 64 {
		return v
	}
	masked := uint64(v) & ((uint64(1) << width) - 1)
	if signed && masked&(1<<(width-1)) != 0 {
		masked |= ^uint64(0) << width
	}
	return int64(masked)
}

// saturateField clamps an overflowed increment at the bound the delta was
// heading for.
func saturateField(delta int64, signed bool, width uint) int64 {
	min, max := fieldBounds(signed, width)
	if delta > 0 {
		return max
	}
	return min
}
