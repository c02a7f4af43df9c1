package event

// Scope tags a batch of subscriptions so they can be removed together.
type Scope string

// NoScope is the scope of subscriptions registered without one. It is never
// torn down in bulk.
const NoScope Scope = ""

// subscription is one registered listener.
type subscription struct {
	id      uint64
	kind    Kind
	phase   Phase
	scope   Scope
	label   string
	call    func(any) error
	removed bool
}

// bucket holds the listeners of one (Kind, Phase) in registration order.
// subs is never mutated in place once published: removal marks the entry
// and compaction swaps in a fresh slice, so a slice handed out by snapshot
// stays valid while listeners mutate the registry.
type bucket struct {
	subs []*subscription
	dead int
}

// SubscriptionInfo describes a registered listener.
type SubscriptionInfo struct {
	ID    uint64
	Kind  Kind
	Phase Phase
	Scope Scope
	Label string
}

// Registry maps (Kind, Phase) to FIFO listener lists.
//
// A Registry is not safe for concurrent use. It belongs to the goroutine
// that owns its Bus.
type Registry struct {
	buckets map[Kind]map[Phase]*bucket
	byID    map[uint64]*subscription
	byScope map[Scope]map[uint64]*subscription
	nextID  uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[Kind]map[Phase]*bucket),
		byID:    make(map[uint64]*subscription),
		byScope: make(map[Scope]map[uint64]*subscription),
	}
}

// add appends a listener to the (kind, phase) bucket and returns it.
func (r *Registry) add(kind Kind, phase Phase, scope Scope, label string, call func(any) error) *subscription {
	r.nextID++
	sub := &subscription{
		id:    r.nextID,
		kind:  kind,
		phase: phase,
		scope: scope,
		label: label,
		call:  call,
	}

	phases := r.buckets[kind]
	if phases == nil {
		phases = make(map[Phase]*bucket)
		r.buckets[kind] = phases
	}
	b := phases[phase]
	if b == nil {
		b = &bucket{}
		phases[phase] = b
	}
	b.subs = append(b.subs, sub)

	r.byID[sub.id] = sub
	if scope != NoScope {
		set := r.byScope[scope]
		if set == nil {
			set = make(map[uint64]*subscription)
			r.byScope[scope] = set
		}
		set[sub.id] = sub
	}
	return sub
}

// Remove removes the subscription with the given id. It returns false if no
// such subscription is registered.
func (r *Registry) Remove(id uint64) bool {
	sub, ok := r.byID[id]
	if !ok {
		return false
	}
	r.drop(sub)
	if set := r.byScope[sub.scope]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(r.byScope, sub.scope)
		}
	}
	return true
}

// RemoveScope removes every subscription tagged with scope and returns how
// many were removed. NoScope removes nothing.
func (r *Registry) RemoveScope(scope Scope) int {
	if scope == NoScope {
		return 0
	}
	set := r.byScope[scope]
	delete(r.byScope, scope)
	for _, sub := range set {
		r.drop(sub)
	}
	return len(set)
}

// drop unlinks sub from the id index and its bucket.
func (r *Registry) drop(sub *subscription) {
	delete(r.byID, sub.id)
	sub.removed = true

	phases := r.buckets[sub.kind]
	b := phases[sub.phase]
	if b == nil {
		return
	}
	b.dead++
	if b.dead*2 < len(b.subs) {
		return
	}

	live := make([]*subscription, 0, len(b.subs)-b.dead)
	for _, s := range b.subs {
		if !s.removed {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		delete(phases, sub.phase)
		if len(phases) == 0 {
			delete(r.buckets, sub.kind)
		}
		return
	}
	b.subs = live
	b.dead = 0
}

// snapshot returns the current listener slice for (kind, phase). Callers
// must skip entries whose removed flag is set.
func (r *Registry) snapshot(kind Kind, phase Phase) []*subscription {
	b := r.buckets[kind][phase]
	if b == nil {
		return nil
	}
	return b.subs
}

// Listeners returns the live listeners for (kind, phase) in delivery order.
func (r *Registry) Listeners(kind Kind, phase Phase) []SubscriptionInfo {
	subs := r.snapshot(kind, phase)
	out := make([]SubscriptionInfo, 0, len(subs))
	for _, s := range subs {
		if s.removed {
			continue
		}
		out = append(out, s.info())
	}
	return out
}

// Count returns the number of live listeners for (kind, phase).
func (r *Registry) Count(kind Kind, phase Phase) int {
	b := r.buckets[kind][phase]
	if b == nil {
		return 0
	}
	return len(b.subs) - b.dead
}

// Len returns the total number of live subscriptions.
func (r *Registry) Len() int {
	return len(r.byID)
}

// ScopeLen returns the number of live subscriptions tagged with scope.
func (r *Registry) ScopeLen(scope Scope) int {
	return len(r.byScope[scope])
}

func (s *subscription) info() SubscriptionInfo {
	return SubscriptionInfo{
		ID:    s.id,
		Kind:  s.kind,
		Phase: s.phase,
		Scope: s.scope,
		Label: s.label,
	}
}
