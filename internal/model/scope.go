package model

// RecordScope is the geographic breadth a record tag applies to.
//
// The scopes form a strict hierarchy: World ⊃ Continental ⊃ National. A row
// holding a stronger tag implicitly holds every weaker one for its own
// region, which is why record lookups accept stronger tags as matches and
// why the restorer applies its passes strongest-first.
type RecordScope int

const (
	ScopeNone RecordScope = iota
	ScopeNational
	ScopeContinental
	ScopeWorld
)

// Canonical tag labels for the two scopes that do not vary by continent.
// Continental labels (ER, NAR, ...) come from the definitions.
const (
	TagWorld    = "WR"
	TagNational = "NR"
)

// String returns the scope name used in logs and CLI output.
func (s RecordScope) String() string {
	switch s {
	case ScopeWorld:
		return "world"
	case ScopeContinental:
		return "continental"
	case ScopeNational:
		return "national"
	default:
		return "none"
	}
}

// AtLeast reports whether s is the same scope as other or a stronger one.
func (s RecordScope) AtLeast(other RecordScope) bool {
	return s >= other
}
