package value

// NewMap returns an empty Map. Per §4.8, a map with zero entries has
// no backing storage at all.
func NewMap() *Map {
	return &Map{}
}

func (m *Map) Count() int { return m.count }

// Clear drops every entry, freeing the backing storage entirely
// (matching the same empty-map representation NewMap starts with).
func (m *Map) Clear() {
	m.entries = nil
	m.count = 0
}

func (m *Map) capacity() int { return len(m.entries) }

const mapMinCapacity = 16
const mapMaxLoad = 0.9

func (m *Map) grow(capacity int) {
	old := m.entries
	m.entries = make([]mapEntry, capacity)
	for _, e := range old {
		if e.Used && !e.Tombstone {
			m.insertNoGrow(e.Key, e.Val)
		}
	}
}

func (m *Map) ensureCapacity() {
	if len(m.entries) == 0 {
		m.grow(mapMinCapacity)
		return
	}
	if float64(m.count+1) > float64(len(m.entries))*mapMaxLoad {
		m.grow(len(m.entries) * 2)
	}
}

// findSlot returns the index of the slot for key: either the
// occupied slot holding it, or the first empty/tombstone slot probed
// on its way, following linear probing.
func (m *Map) findSlot(key Value) int {
	cap := len(m.entries)
	idx := int(Hash(key)) % cap
	var tombstone = -1
	for {
		e := &m.entries[idx]
		if !e.Used {
			if e.Tombstone {
				if tombstone == -1 {
					tombstone = idx
				}
			} else {
				if tombstone != -1 {
					return tombstone
				}
				return idx
			}
		} else if Equal(e.Key, key) {
			return idx
		}
		idx = (idx + 1) % cap
	}
}

func (m *Map) insertNoGrow(key, val Value) bool {
	idx := m.findSlot(key)
	e := &m.entries[idx]
	isNew := !e.Used
	e.Key = key
	e.Val = val
	e.Used = true
	e.Tombstone = false
	return isNew
}

// Set stores key -> val, returning whether the key was new.
func (m *Map) Set(key, val Value) bool {
	m.ensureCapacity()
	isNew := m.insertNoGrow(key, val)
	if isNew {
		m.count++
	}
	return isNew
}

// Get returns the value for key, or (Undefined, false) if absent.
func (m *Map) Get(key Value) (Value, bool) {
	if len(m.entries) == 0 {
		return UndefinedVal(), false
	}
	idx := m.findSlot(key)
	e := &m.entries[idx]
	if !e.Used || e.Tombstone {
		return UndefinedVal(), false
	}
	return e.Val, true
}

// Remove deletes key if present, returning its former value.
// Removing the last key frees the entry storage entirely (§8).
func (m *Map) Remove(key Value) (Value, bool) {
	if len(m.entries) == 0 {
		return UndefinedVal(), false
	}
	idx := m.findSlot(key)
	e := &m.entries[idx]
	if !e.Used || e.Tombstone {
		return UndefinedVal(), false
	}
	val := e.Val
	e.Used = false
	e.Tombstone = true
	e.Key = UndefinedVal()
	m.count--
	if m.count == 0 {
		m.entries = nil
	} else if len(m.entries) > mapMinCapacity && float64(m.count) < float64(len(m.entries))*mapMaxLoad/2 {
		newCap := len(m.entries) / 2
		if newCap < mapMinCapacity {
			newCap = mapMinCapacity
		}
		m.grow(newCap)
	}
	return val, true
}

// Iterate implements the `iterate(iter, step)` protocol (§4.8, §8):
// starting from iter (Undefined for "begin"), returns the next
// occupied bucket index as a Value, or false when exhausted. The
// bucket index itself is the iterator token, deliberately observable
// per SPEC_FULL §9 Open Question (b).
func (m *Map) Iterate(iter Value) (Value, bool) {
	start := 0
	if !iter.IsUndefined() {
		start = int(iter.AsNum()) + 1
	}
	for i := start; i < len(m.entries); i++ {
		if m.entries[i].Used && !m.entries[i].Tombstone {
			return NumVal(float64(i)), true
		}
	}
	return UndefinedVal(), false
}

// IteratorValue returns the (key, value) pair at the bucket token
// produced by Iterate.
func (m *Map) IteratorValue(iter Value) (Value, Value) {
	idx := int(iter.AsNum())
	e := &m.entries[idx]
	return e.Key, e.Val
}
