package extract

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chai-analysis/chai/analysis/ast"
	L "github.com/chai-analysis/chai/analysis/lattice"

	"github.com/google/uuid"
)

// Kind classifies extracted facts.
type Kind string

const (
	// A branch whose condition was changed by the commit.
	ChangedCondition Kind = "changed-condition"
	// A statement that may execute differently because of a changed
	// condition or a changed call on the way to it.
	AffectedStatement Kind = "affected-statement"
	// A variable written with a changed value.
	ChangedValue Kind = "changed-value"
	// A binding introduced, deleted or renamed by the commit.
	ChangedName Kind = "changed-name"
	// A call inserted, removed or updated by the commit.
	ChangedCall Kind = "changed-call"
	// An unchanged call made by a function entered through a changed call.
	AffectedCall Kind = "affected-call"
)

// Fact is one behavioural change observed at a program point.
type Fact struct {
	ID      uuid.UUID
	Session uuid.UUID
	Kind    Kind
	Version ast.Version
	Line    int
	// Source text of the program element the fact is about.
	Subject string
	Change  L.Change
	Detail  string
}

// String renders the fact without its identifiers.
func (f Fact) String() string {
	str := fmt.Sprintf("%s:%d %s %q %s", f.Version, f.Line, f.Kind, f.Subject, changeName(f.Change))
	if f.Detail != "" {
		str += " (" + f.Detail + ")"
	}
	return str
}

func changeName(c L.Change) string {
	switch c {
	case L.Unchanged:
		return "unchanged"
	case L.InsertedOrRemoved:
		return "inserted-or-removed"
	case L.Mixed:
		return "mixed"
	}
	return "unknown"
}

// Sink collects the facts of one analysis session. It is safe for
// concurrent use.
type Sink struct {
	session uuid.UUID

	mu    sync.Mutex
	facts []Fact
	seen  map[string]bool
}

func NewSink(session uuid.UUID) *Sink {
	return &Sink{session: session, seen: make(map[string]bool)}
}

// Add records f, stamping it with a fresh identifier and the session.
// Facts that render identically to one already recorded are dropped.
func (s *Sink) Add(f Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := f.String()
	if s.seen[key] {
		return
	}
	s.seen[key] = true

	f.ID = uuid.New()
	f.Session = s.session
	s.facts = append(s.facts, f)
}

// Facts returns the recorded facts ordered by version, line, kind and
// subject.
func (s *Sink) Facts() []Fact {
	s.mu.Lock()
	res := append([]Fact(nil), s.facts...)
	s.mu.Unlock()

	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i], res[j]
		switch {
		case a.Version != b.Version:
			return a.Version < b.Version
		case a.Line != b.Line:
			return a.Line < b.Line
		case a.Kind != b.Kind:
			return a.Kind < b.Kind
		case a.Subject != b.Subject:
			return a.Subject < b.Subject
		}
		return a.Detail < b.Detail
	})
	return res
}

func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.facts)
}
