package refval

// Summarize collapses v to a single-origin value materialized at pc,
// carrying v's joined nullness, precision, and upper type bound. Return
// sites use this to hand a caller one value per returned abstraction
// instead of leaking every contributing origin across the method boundary.
// A value that is already single-origin is re-keyed to pc only when its
// origin differs; a Multi always collapses.
func (s *Session) Summarize(pc int, v Value) Value {
	switch t := v.(type) {
	case *Multi:
		return s.buildFromUTB(pc, t.isNull, t.isPrecise, t.utb)
	case *Null:
		if t.origin == pc {
			return t
		}
		return &Null{origin: pc, ts: s.freshTimestamp()}
	default:
		if v.Origin() == pc {
			return v
		}
		return s.buildFromUTB(pc, v.IsNull(), isPrecise(v), v.UTB())
	}
}

// Adapt rebuilds v in target: a session over the same lattice but with its
// own timestamp counter and join memo (a distinct interpretation run, e.g.
// the caller's when translating a callee's results back across an invoke).
// The rebuilt value is keyed to pc in the target session; timestamps are
// freshly allocated there, since identity guarantees never cross sessions.
func (s *Session) Adapt(target *Session, pc int, v Value) Value {
	if target == s {
		return s.Summarize(pc, v)
	}
	switch t := v.(type) {
	case *Null:
		return target.NullValue(pc)
	case *Multi:
		return target.buildFromUTB(pc, t.isNull, t.isPrecise, t.utb)
	default:
		return target.buildFromUTB(pc, v.IsNull(), isPrecise(v), v.UTB())
	}
}
