package refval

// Slot is any stack or local-register cell an interpreter state holds. Most
// are refval.Value, but a local slot may also hold a numeric value or be
// empty (long/double occupy two slots); Slots is intentionally untyped so
// the interpreter's own stack/locals representation can supply it directly
// without wrapping every non-reference cell.
type Slots = []any

// Cascade replaces every occurrence of a refined value across every slot in
// every given slice, then keeps re-resolving until no slot changes. A slot
// holding a Multi is rebuilt whenever one of its members was refined — the
// member is swapped (or shed, if its replacement is nil) and the Multi's
// aggregated isNull/isPrecise/utb are re-derived — and the rebuilt Multi is
// itself recorded as a replacement so other slots aliasing the same Multi
// pick it up on the next pass. replacements maps old identity -> new value;
// it is mutated in place so callers can inspect what changed.
func (s *Session) Cascade(slotGroups []Slots, replacements map[Value]Value) {
	for {
		changed := false
		for _, group := range slotGroups {
			for i, slot := range group {
				v, ok := slot.(Value)
				if !ok || v == nil {
					continue
				}
				if replacement, ok := replacements[v]; ok && replacement != v {
					group[i] = replacement
					changed = true
					continue
				}
				if m, isMulti := v.(*Multi); isMulti {
					if rebuilt, didChange := s.rebuildMulti(m, replacements); didChange {
						replacements[m] = rebuilt
						group[i] = rebuilt
						changed = true
					}
				}
			}
		}
		if !changed {
			return
		}
	}
}

// rebuildMulti applies replacements to m's members: a member mapped to nil
// is shed, one mapped to another Multi contributes that Multi's members, and
// one mapped to a single-origin value is swapped in. A changed member list
// collapses to nil (no members left) or a single value, or is rebuilt as a
// fresh Multi with re-derived nullness/precision/bound.
func (s *Session) rebuildMulti(m *Multi, replacements map[Value]Value) (Value, bool) {
	kept := make([]SingleOrigin, 0, len(m.values))
	changed := false
	for _, member := range m.values {
		r, hit := replacements[member]
		if !hit || r == Value(member) {
			kept = append(kept, member)
			continue
		}
		changed = true
		switch rv := r.(type) {
		case nil:
		case *Multi:
			kept = append(kept, rv.values...)
		case SingleOrigin:
			kept = append(kept, rv)
		}
	}
	if !changed {
		return m, false
	}
	switch len(kept) {
	case 0:
		return nil, true
	case 1:
		return kept[0], true
	default:
		sortByOrigin(kept)
		return s.buildMulti(kept), true
	}
}

// Replace records that old has been refined to new (or removed, if new is
// nil) in the replacements map, the map Cascade consumes.
func Replace(replacements map[Value]Value, old, new Value) {
	replacements[old] = new
}
