package insight

// SessionFacts is the denormalized per-session view the pattern engine
// operates over. It is deliberately decoupled from catalog.SessionInfo:
// several fields here (duration, per-session commit presence) are
// assembled by joining sessions against session_commits and are not raw
// catalog columns, so a dedicated view type keeps this package free of
// any database dependency.
type SessionFacts struct {
	SessionID        string
	ProjectID        string
	Branch           string // "" = no branch recorded
	Timestamp        int64  // session start, unix seconds
	DurationSeconds  uint32
	FilesEditedCount uint32
	FilesReadCount   uint32
	ReeditedFiles    uint32 // files edited more than once in this session
	HasCommit        bool
	WriteToolCalls   uint32
	EditToolCalls    uint32
	ToolCalls        uint32
	APICalls         uint32
	Model            string // "" = unknown
}
