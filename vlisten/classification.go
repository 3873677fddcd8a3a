package vlisten

// Classification is the four-way outcome of checking an inbound
// block header against the local chain.
type Classification uint8

// Valid classification values.
const (
	// ClassUnspecified is the zero value for Classification.
	// Returning ClassUnspecified is a bug.
	ClassUnspecified Classification = iota

	// ClassContinues indicates the header directly extends the local tip.
	ClassContinues

	// ClassAlternative indicates the header attaches to a known
	// non-tip ancestor, forming an alternative branch.
	ClassAlternative

	// ClassUseless indicates the header is well-formed
	// but offers nothing over the local chain.
	ClassUseless

	// ClassInvalid indicates the header is malformed or inconsistent.
	ClassInvalid
)

func (c Classification) String() string {
	switch c {
	case ClassContinues:
		return "Continues"
	case ClassAlternative:
		return "Alternative"
	case ClassUseless:
		return "Useless"
	case ClassInvalid:
		return "Invalid"
	default:
		return "Unspecified"
	}
}

// Outcome pairs a classification with its reason.
// The reason is only populated for the useless and invalid cases.
type Outcome struct {
	Class  Classification
	Reason string
}
