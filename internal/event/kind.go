package event

import "reflect"

// Kind identifies the concrete Go type of an event value. The registry keys
// subscriptions by Kind, so a listener registered for *JoinEvent only ever
// receives *JoinEvent values.
type Kind struct {
	t reflect.Type
}

// KindOf returns the Kind of E.
func KindOf[E any]() Kind {
	return Kind{t: reflect.TypeFor[E]()}
}

// KindOfValue returns the Kind of v's dynamic type. It returns the zero Kind
// for a nil interface.
func KindOfValue(v any) Kind {
	return Kind{t: reflect.TypeOf(v)}
}

// IsZero reports whether k identifies no type.
func (k Kind) IsZero() bool {
	return k.t == nil
}

// String returns the Go type name, e.g. "*events.PlayerJoinEvent".
func (k Kind) String() string {
	if k.t == nil {
		return "<nil>"
	}
	return k.t.String()
}

// concrete reports whether values of this kind can be broadcast.
func (k Kind) concrete() bool {
	return k.t != nil && k.t.Kind() != reflect.Interface
}
