package catalog

// NoBranchSentinel is the query-param value that means "sessions with no
// recorded git branch", distinguished from "" which means "all branches".
const NoBranchSentinel = "~"

// BranchFilterKind discriminates the three ways a session listing can be
// scoped by branch.
type BranchFilterKind int

const (
	BranchAll BranchFilterKind = iota
	BranchNamed
	BranchNone
)

// BranchFilter is ported from branch_filter.rs: an enum-like value that is
// either "don't filter", "only sessions with no branch", or "only this
// named branch".
type BranchFilter struct {
	Kind BranchFilterKind
	Name string // only meaningful when Kind == BranchNamed
}

// BranchFilterFromParam parses an optional HTTP query parameter into a
// BranchFilter: missing or empty means All, the sentinel "~" means None,
// anything else is a literal branch name (slashes included).
func BranchFilterFromParam(param *string) BranchFilter {
	if param == nil || *param == "" {
		return BranchFilter{Kind: BranchAll}
	}
	if *param == NoBranchSentinel {
		return BranchFilter{Kind: BranchNone}
	}
	return BranchFilter{Kind: BranchNamed, Name: *param}
}
