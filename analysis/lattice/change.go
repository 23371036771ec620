package lattice

// Change tracks the commit provenance of an abstract value or control
// edge.
//
//	        Mixed
//	       /     \
//	Unchanged   InsertedOrRemoved
//	       \     /
//	      ChangeBot
type Change int

const (
	ChangeBot Change = iota
	Unchanged
	InsertedOrRemoved
	Mixed
)

func (c Change) Join(o Change) Change {
	switch {
	case c == o:
		return c
	case c == ChangeBot:
		return o
	case o == ChangeBot:
		return c
	}
	return Mixed
}

func (c Change) Leq(o Change) bool {
	return c == o || c == ChangeBot || o == Mixed
}

// Changed holds when the element differs between the two versions on
// at least one path.
func (c Change) Changed() bool {
	return c == InsertedOrRemoved || c == Mixed
}

func (c Change) String() string {
	switch c {
	case Unchanged:
		return colorize.Change("U")
	case InsertedOrRemoved:
		return colorize.Change("C")
	case Mixed:
		return colorize.Change("⊤")
	}
	return colorize.Change("⊥")
}
