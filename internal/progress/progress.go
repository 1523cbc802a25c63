// Package progress publishes lock-free indexing progress to many HTTP/SSE
// observers. Direct, mechanical translation of
// original_source/crates/server/src/indexing_state.rs: atomic counters
// plus a broadcast fan-out, the same idiom the teacher's ws/handler.go
// uses for its connection map, generalized from a map-of-conns to a
// slice-of-subscriber-channels.
package progress

import (
	"sync"
	"sync/atomic"
)

// Status is the indexing state machine's current phase.
type Status uint8

const (
	StatusIdle Status = iota
	StatusReadingIndexes
	StatusDeepIndexing
	StatusDone
	StatusError
)

// String renders the status for logging and JSON responses.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusReadingIndexes:
		return "reading_indexes"
	case StatusDeepIndexing:
		return "deep_indexing"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable point-in-time view of State, what observers
// actually receive.
type Snapshot struct {
	Status         Status
	Total          uint64
	Indexed        uint64
	ProjectsFound  uint64
	SessionsFound  uint64
	BytesTotal     uint64
	BytesProcessed uint64
	Error          string
}

// State holds the status and counters as atomics, read without a lock; a
// Snapshot may combine values from slightly different moments. The error
// string and the subscriber list are mutex-guarded.
type State struct {
	status         atomic.Uint32
	total          atomic.Uint64
	indexed        atomic.Uint64
	projectsFound  atomic.Uint64
	sessionsFound  atomic.Uint64
	bytesTotal     atomic.Uint64
	bytesProcessed atomic.Uint64

	errMu sync.RWMutex
	err   string

	subMu       sync.Mutex
	subscribers []chan Snapshot
}

// New returns a State in StatusIdle.
func New() *State {
	return &State{}
}

func (s *State) Status() Status { return Status(s.status.Load()) }

// SetStatus updates the status and notifies subscribers.
func (s *State) SetStatus(st Status) {
	s.status.Store(uint32(st))
	s.notify()
}

func (s *State) Total() uint64 { return s.total.Load() }

// SetTotal sets the total unit of work for the current phase.
func (s *State) SetTotal(n uint64) {
	s.total.Store(n)
	s.notify()
}

func (s *State) Indexed() uint64 { return s.indexed.Load() }

// IncrementIndexed atomically increments the indexed counter and returns
// the post-increment value.
func (s *State) IncrementIndexed() uint64 {
	v := s.indexed.Add(1)
	s.notify()
	return v
}

func (s *State) ProjectsFound() uint64 { return s.projectsFound.Load() }

// SetProjectsFound records how many project directories Pass 1 discovered.
func (s *State) SetProjectsFound(n uint64) {
	s.projectsFound.Store(n)
	s.notify()
}

func (s *State) SessionsFound() uint64 { return s.sessionsFound.Load() }

// SetSessionsFound records how many session files Pass 1 discovered.
func (s *State) SetSessionsFound(n uint64) {
	s.sessionsFound.Store(n)
	s.notify()
}

func (s *State) BytesTotal() uint64 { return s.bytesTotal.Load() }

// SetBytesTotal sets the total byte count of work for the current phase.
func (s *State) SetBytesTotal(n uint64) {
	s.bytesTotal.Store(n)
	s.notify()
}

func (s *State) BytesProcessed() uint64 { return s.bytesProcessed.Load() }

// AddBytesProcessed atomically adds n to the processed-bytes counter and
// returns the post-add value.
func (s *State) AddBytesProcessed(n uint64) uint64 {
	v := s.bytesProcessed.Add(n)
	s.notify()
	return v
}

// SetError records a terminal error and flips status to StatusError.
func (s *State) SetError(msg string) {
	s.errMu.Lock()
	s.err = msg
	s.errMu.Unlock()
	s.status.Store(uint32(StatusError))
	s.notify()
}

// Error returns the last recorded error, if any.
func (s *State) Error() string {
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.err
}

// Snapshot captures the current state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Status:         s.Status(),
		Total:          s.Total(),
		Indexed:        s.Indexed(),
		ProjectsFound:  s.ProjectsFound(),
		SessionsFound:  s.SessionsFound(),
		BytesTotal:     s.BytesTotal(),
		BytesProcessed: s.BytesProcessed(),
		Error:          s.Error(),
	}
}

// Subscribe registers a new observer and returns a receive-only channel of
// snapshots plus an unsubscribe function. The channel is buffered; a slow
// observer that doesn't drain it has updates dropped rather than blocking
// publishers, matching spec.md's "lock-free... many HTTP/SSE readers"
// requirement.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.subMu.Unlock()

	unsubscribe := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, c := range s.subscribers {
			if c == ch {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, unsubscribe
}

func (s *State) notify() {
	snap := s.Snapshot()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default: // slow subscriber, drop this update
		}
	}
}
