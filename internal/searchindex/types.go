// Package searchindex is the per-message full-text search store, built
// on blevesearch/bleve/v2 as the idiomatic Go analogue of the original's
// Tantivy index.
//
// Grounded in original_source/crates/search/src/{indexer,types}.rs:
// per-session delete-then-add semantics, an explicit Commit() step, and
// the SearchDocument/SearchResponse/SessionHit/MatchHit result shapes.
package searchindex

// Document is one indexed message, the unit bleve stores and searches.
type Document struct {
	SessionID  string   `json:"session_id"`
	Project    string   `json:"project"`
	Branch     string   `json:"branch"` // "" = no branch recorded
	Model      string   `json:"model"`  // "" = unknown
	Role       string   `json:"role"`
	Content    string   `json:"content"`
	TurnNumber uint64   `json:"turn_number"`
	Timestamp  int64    `json:"timestamp"` // unix seconds, 0 = unknown
	Skills     []string `json:"skills"`
}

// MatchHit is one matching message within a session.
type MatchHit struct {
	Role       string
	TurnNumber uint64
	Snippet    string // with <mark>...</mark> highlighting
	Timestamp  int64
}

// SessionHit aggregates all matches for one session into a single search
// result row.
type SessionHit struct {
	SessionID  string
	Project    string
	Branch     string
	ModifiedAt int64
	MatchCount int
	BestScore  float64
	TopMatch   MatchHit
	Matches    []MatchHit
}

// Response is the full result of one Search call.
type Response struct {
	Query         string
	TotalSessions int
	TotalMatches  int
	ElapsedMS     float64
	Sessions      []SessionHit
}
