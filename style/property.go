/*
Package style implements CSS property snapshots and offline cascade
resolution for detached node clones.

A clone removed from its live document loses every inherited and
stylesheet-cascaded property. The resolver in sub-package css computes,
per source node, a Snapshot carrying every visually relevant property as
an explicit value, so the clone renders identically without the live
cascade.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package style

import (
	"sort"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'domimage.style'
func tracer() tracing.Trace {
	return tracing.Select("domimage.style")
}

// Property is a raw value for a CSS property. For example, with
//
//	color: black
//
// a property value of "black" is set. The main purpose of wrapping
// the raw string value into type Property is to provide a set of
// convenient type conversion functions and other helpers.
type Property string

// NullStyle is an empty property value.
const NullStyle Property = ""

func (p Property) String() string {
	return string(p)
}

// IsInitial denotes if a property is of inheritence-type "initial"
func (p Property) IsInitial() bool {
	return p == "initial"
}

// IsInherit denotes if a property is of inheritence-type "inherit"
func (p Property) IsInherit() bool {
	return p == "inherit"
}

// IsEmpty checks wether a property is empty, i.e. the null-string.
func (p Property) IsEmpty() bool {
	return p == ""
}

// KeyValue is a container for a style property.
type KeyValue struct {
	Key   string
	Value Property
}

// --- Snapshot ---------------------------------------------------------

// Snapshot maps CSS property names to resolved values. One snapshot
// belongs to exactly one clone node. After the clone builder attaches a
// snapshot to its clone it calls Freeze; from then on the snapshot stays
// immutable for the rest of the conversion operation.
type Snapshot struct {
	props  map[string]Property
	frozen bool
}

// NewSnapshot returns a new empty style snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{props: make(map[string]Property)}
}

// Size returns the number of properties carried by the snapshot.
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.props)
}

// Property returns a style property value, together with an indicator
// wether it has been set in this snapshot.
func (s *Snapshot) Property(key string) (Property, bool) {
	if s == nil {
		return NullStyle, false
	}
	p, ok := s.props[key]
	return p, ok
}

// Set a property's value. Overwrites an existing value, if present.
//
// Style property keys are always converted to lower case. Setting a
// property on a frozen snapshot is an invariant violation and panics.
func (s *Snapshot) Set(key string, p Property) {
	if s.frozen {
		panic("styling: snapshot is frozen, properties are immutable")
	}
	s.props[strings.ToLower(key)] = p
}

// Add a property's value. Does not overwrite an existing value, i.e.,
// does nothing if a value is already set.
func (s *Snapshot) Add(key string, p Property) {
	key = strings.ToLower(key)
	if _, exists := s.props[key]; !exists {
		if s.frozen {
			panic("styling: snapshot is frozen, properties are immutable")
		}
		s.props[key] = p
	}
}

// Delete removes a property from the snapshot.
func (s *Snapshot) Delete(key string) {
	if s.frozen {
		panic("styling: snapshot is frozen, properties are immutable")
	}
	delete(s.props, strings.ToLower(key))
}

// Freeze marks the snapshot as immutable.
func (s *Snapshot) Freeze() *Snapshot {
	if s != nil {
		s.frozen = true
	}
	return s
}

// Clone returns a mutable deep copy of the snapshot. Cache hits hand out
// clones, never the cached snapshot itself, to preserve per-clone
// ownership.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	if s == nil {
		return c
	}
	for k, v := range s.props {
		c.props[k] = v
	}
	return c
}

// Properties returns all properties of the snapshot, sorted by key.
// Stable ordering keeps serialized output deterministic.
func (s *Snapshot) Properties() []KeyValue {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.props))
	for k := range s.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	r := make([]KeyValue, len(keys))
	for i, k := range keys {
		r[i] = KeyValue{k, s.props[k]}
	}
	return r
}

// CSSText serializes the snapshot as a CSS declaration list, properties
// in sorted key order.
func (s *Snapshot) CSSText() string {
	var b strings.Builder
	for _, kv := range s.Properties() {
		if kv.Value.IsEmpty() {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(kv.Key)
		b.WriteString(": ")
		b.WriteString(kv.Value.String())
		b.WriteString(";")
	}
	return b.String()
}

func (s *Snapshot) String() string {
	return "Snapshot { " + s.CSSText() + " }"
}

// --- Inheritance ------------------------------------------------------

// IsInherited returns wether the standard behaviour for a property is to
// be inherited from the parent node, i.e., resolving its value will
// cascade upwards if the node has no local value.
func IsInherited(key string) bool {
	if strings.HasPrefix(key, "list-style") || strings.HasPrefix(key, "font") {
		return true
	}
	switch key {
	case "color", "cursor", "direction", "visibility", "quotes":
		return true
	case "letter-spacing", "line-height", "word-spacing", "white-space":
		return true
	case "word-break", "word-wrap", "overflow-wrap", "tab-size", "hyphens":
		return true
	case "text-align", "text-indent", "text-transform", "text-shadow":
		return true
	case "border-collapse", "border-spacing", "caption-side", "empty-cells":
		return true
	case "orphans", "widows":
		return true
	}
	return false
}
