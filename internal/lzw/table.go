package lzw

// tableSize is the number of slots in the string table and the number of
// distinct 12-bit codes.
const tableSize = 1 << MaxCodeWidth

// probeStride is the linear-probing step. It is coprime with tableSize, so
// a probe sequence visits every slot.
const probeStride = 601

// StringTable maps (prefix code, suffix pixel) to the code of their
// concatenation. It is an open-addressed hash table over three parallel
// arrays; code 0 marks an empty slot, which is safe because every code the
// encoder stores is at least clear+2.
type StringTable struct {
	code   [tableSize]uint16
	prefix [tableSize]uint16
	suffix [tableSize]uint8
}

// Reset empties every slot.
func (t *StringTable) Reset() {
	clear(t.code[:])
}

func hash(prefix uint16, suffix uint8) int {
	key := uint32(prefix)<<8 | uint32(suffix)
	return int((key ^ key>>12) & (tableSize - 1))
}

func probe(slot int) int {
	return (slot + probeStride) & (tableSize - 1)
}

// Search returns the code stored for (prefix, suffix), or 0 if absent.
func (t *StringTable) Search(prefix uint16, suffix uint8) uint16 {
	code, _ := t.Probe(prefix, suffix)
	return code
}

// Probe is Search that also returns the slot where the probe stopped: the
// matching slot when found, otherwise the empty slot where (prefix, suffix)
// belongs. The slot can be handed to Add without probing again.
func (t *StringTable) Probe(prefix uint16, suffix uint8) (code uint16, slot int) {
	slot = hash(prefix, suffix)
	for {
		code = t.code[slot]
		if code == 0 {
			return 0, slot
		}
		if t.prefix[slot] == prefix && t.suffix[slot] == suffix {
			return code, slot
		}
		slot = probe(slot)
	}
}

// Add stores code for (prefix, suffix) at slot. The slot must come from a
// Probe that just missed; it is not validated.
func (t *StringTable) Add(slot int, prefix uint16, suffix uint8, code uint16) {
	t.prefix[slot] = prefix
	t.suffix[slot] = suffix
	t.code[slot] = code
}

// Insert probes for the first free slot of (prefix, suffix) and stores code
// there.
func (t *StringTable) Insert(prefix uint16, suffix uint8, code uint16) {
	slot := hash(prefix, suffix)
	for t.code[slot] != 0 {
		slot = probe(slot)
	}
	t.Add(slot, prefix, suffix, code)
}
