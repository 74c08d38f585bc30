package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/shelf/internal/books"
)

// Kind identifies which of the exclusive search states is active.
type Kind int

const (
	KindLoading Kind = iota
	KindList
	KindDetail
	KindError
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindList:
		return "list"
	case KindDetail:
		return "detail"
	case KindError:
		return "error"
	case KindEmpty:
		return "empty"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is the value the presentation renders. Only the fields belonging to
// Kind are meaningful.
type State struct {
	Kind  Kind
	Books []books.Book // KindList
	Book  books.Book   // KindDetail
	Query string       // query behind the current state, if any
	Err   error        // KindError
}

func (s State) clone() State {
	dup := s
	dup.Books = books.CloneAll(s.Books)
	if s.Kind == KindDetail {
		dup.Book = s.Book.Clone()
	}
	return dup
}

// Snapshot is a point-in-time copy of the machine, safe to keep and mutate.
type Snapshot struct {
	State
	Input     string       // current search-bar text
	Recent    []string     // most recent first
	LastQuery string       // last attempted query
	LastList  []books.Book // last successful list
	Seq       uint64       // request sequence of the newest search
	Version   uint64       // bumped on every change; newer snapshots have larger values
	UpdatedAt time.Time
}

// EmptyPolicy decides how a search with zero matches is presented.
type EmptyPolicy int

const (
	// EmptyAsError shows zero matches as a failed load.
	EmptyAsError EmptyPolicy = iota
	// EmptyAsState shows zero matches as a dedicated empty state.
	EmptyAsState
)

func (p EmptyPolicy) String() string {
	if p == EmptyAsState {
		return "empty"
	}
	return "error"
}

// ParseEmptyPolicy accepts "error" or "empty"; blank means "error".
func ParseEmptyPolicy(raw string) (EmptyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "error":
		return EmptyAsError, nil
	case "empty":
		return EmptyAsState, nil
	default:
		return EmptyAsError, fmt.Errorf("unknown empty result policy %q", raw)
	}
}
