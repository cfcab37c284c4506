package ir

// StringTable interns UTF-8 strings with reverse lookup. Index 0 is always
// the empty string; identical strings always share one index, keeping the
// table minimal.
type StringTable struct {
	strs  []string
	index map[string]uint32
}

// NewStringTable returns a table with index 0 already reserved for "".
func NewStringTable() *StringTable {
	t := &StringTable{index: make(map[string]uint32)}
	t.Intern("")
	return t
}

// Intern returns s's index, assigning a fresh one if s hasn't been seen.
func (t *StringTable) Intern(s string) uint32 {
	if idx, ok := t.index[s]; ok {
		return idx
	}
	idx := uint32(len(t.strs))
	t.strs = append(t.strs, s)
	t.index[s] = idx
	return idx
}

// Get returns the string at idx, or "" if idx is out of range.
func (t *StringTable) Get(idx uint32) string {
	if int(idx) >= len(t.strs) {
		return ""
	}
	return t.strs[idx]
}

// Len returns the number of interned entries, including the empty string.
func (t *StringTable) Len() int { return len(t.strs) }

// All returns the interned strings in index order (index i at position i).
// The slice is owned by the table; callers must not mutate it.
func (t *StringTable) All() []string { return t.strs }
