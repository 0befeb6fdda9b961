package ankoku

const tableMaxLoad = 0.75

// Table is an open-addressed hash map keyed by interned strings. An entry
// with a nil key is empty when its value is null and a tombstone when its
// value is true.
type Table struct {
	count   int // live entries plus tombstones
	live    int
	entries []entry
}

type entry struct {
	key   *ObjString
	value Value
}

func (e *entry) isTombstone() bool {
	return e.key == nil && !e.value.IsNull()
}

// Len returns the number of keys currently present.
func (t *Table) Len() int { return t.live }

// Capacity returns the size of the backing slot array.
func (t *Table) Capacity() int { return len(t.entries) }

func findEntry(entries []entry, key *ObjString) *entry {
	mask := uint32(len(entries) - 1)
	index := key.Hash & mask
	var tombstone *entry
	for {
		e := &entries[index]
		if e.key == nil {
			if e.value.IsNull() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & mask
	}
}

func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.live == 0 {
		return NullVal(), false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return NullVal(), false
	}
	return e.value, true
}

// Set stores value under key and reports whether the key was newly added.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}
	e := findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew {
		t.live++
		if e.value.IsNull() {
			t.count++
		}
	}
	e.key = key
	e.value = value
	return isNew
}

// Delete removes key, leaving a tombstone so later probes keep walking.
func (t *Table) Delete(key *ObjString) bool {
	if t.live == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = BoolVal(true)
	t.live--
	return true
}

// AddAll copies every entry of from into t.
func (t *Table) AddAll(from *Table) {
	for i := range from.entries {
		e := &from.entries[i]
		if e.key != nil {
			t.Set(e.key, e.value)
		}
	}
}

// FindString looks a string up by content. It is how the intern table
// finds an existing object before one is allocated.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if t.live == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value.IsNull() {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) & mask
	}
}

// Each calls fn for every live entry in slot order.
func (t *Table) Each(fn func(key *ObjString, value Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}

// removeWhite drops entries whose key was not marked in the current
// collection cycle.
func (t *Table) removeWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked {
			t.Delete(e.key)
		}
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)
	t.count = 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.key == nil {
			continue
		}
		dest := findEntry(entries, e.key)
		dest.key = e.key
		dest.value = e.value
		t.count++
	}
	t.entries = entries
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
