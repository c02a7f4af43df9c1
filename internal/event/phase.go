package event

// Phase names a stage of delivery for a broadcast. Phases compare by name:
// two independently constructed phases with the same name are equal and can
// be used as map keys. The zero Phase is PhaseDefault.
//
// Identity carries no ordering. Which phases an event kind is broadcast in,
// and in what order, is decided by the producer at each call site.
type Phase struct {
	name string
}

// defaultPhaseName is how PhaseDefault renders. Internally the default phase
// has the empty name, so the zero Phase and PhaseDefault are the same value.
const defaultPhaseName = "default"

// Built-in phases.
var (
	PhasePre     = PhaseOf("pre")
	PhaseDefault = Phase{}
	PhasePost    = PhaseOf("post")
)

// PhaseOf returns the canonical Phase for name. The empty name and "default"
// both yield PhaseDefault.
func PhaseOf(name string) Phase {
	if name == defaultPhaseName {
		name = ""
	}
	return Phase{name: name}
}

// Name returns the phase name.
func (p Phase) Name() string {
	if p.name == "" {
		return defaultPhaseName
	}
	return p.name
}

// String implements fmt.Stringer.
func (p Phase) String() string {
	return p.Name()
}

// defaultPhases is the phase set used by Broadcast when none is given.
var defaultPhases = []Phase{PhaseDefault}
