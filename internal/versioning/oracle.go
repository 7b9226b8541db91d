package versioning

// Ordering is the result of comparing two tuples.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// Compare orders tuples lexicographically on (major, minor, patch).
func Compare(a, b Tuple) Ordering {
	for _, pair := range [3][2]int{{a.Major, b.Major}, {a.Minor, b.Minor}, {a.Patch, b.Patch}} {
		switch {
		case pair[0] < pair[1]:
			return Less
		case pair[0] > pair[1]:
			return Greater
		}
	}
	return Equal
}

// Less reports whether t sorts before other.
func (t Tuple) Less(other Tuple) bool {
	return Compare(t, other) == Less
}

// Classification is the outcome of checking a saved version.
type Classification string

const (
	UpToDate          Classification = "up_to_date"
	ObsoleteApp       Classification = "obsolete_app"
	UnsupportedLegacy Classification = "unsupported_legacy"
	NeedsMigration    Classification = "needs_migration"
)

// Classify decides what to do with a document saved at version saved.
//
// A document saved by a newer application is ObsoleteApp (warn, do not
// migrate); below minSupported it is UnsupportedLegacy; between minSupported
// (inclusive) and running (exclusive) it NeedsMigration.
func Classify(saved, running, minSupported Tuple) Classification {
	switch {
	case Compare(saved, running) == Greater:
		return ObsoleteApp
	case Compare(saved, minSupported) == Less:
		return UnsupportedLegacy
	case Compare(saved, running) == Less:
		return NeedsMigration
	default:
		return UpToDate
	}
}
