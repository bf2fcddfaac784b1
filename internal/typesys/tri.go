package typesys

// Tri is a three-valued logic answer, used wherever the class hierarchy (or
// a value's nullness) cannot be decided from partial information.
type Tri byte

const (
	Unknown Tri = iota
	Yes
	No
)

func (t Tri) String() string {
	switch t {
	case Yes:
		return "Yes"
	case No:
		return "No"
	default:
		return "Unknown"
	}
}

// Join implements the three-valued join used by nullness merging:
// Yes⊔No=Unknown, Unknown⊔x=Unknown, x⊔x=x.
func (t Tri) Join(other Tri) Tri {
	if t == other {
		return t
	}
	return Unknown
}
