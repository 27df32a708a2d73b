// Package settings holds the effect settings snapshot exchanged between the control
// thread and unit instances, and the bridge that stores it into and fetches it from
// native units.
package settings

import (
	"sort"

	"github.com/google/uuid"

	"github.com/justyntemme/unithost/pkg/unit"
)

// Snapshot is a bundle of parameter values plus the identity of the instance that
// last fetched authoritative state into it.
//
// The source tag only lets the host skip a redundant store into that same instance.
// Nothing relies on it for correctness.
type Snapshot struct {
	values map[unit.ParameterID]float32
	source uuid.UUID
}

// New returns an empty snapshot with no source.
func New() *Snapshot {
	return &Snapshot{values: make(map[unit.ParameterID]float32)}
}

// FromValues builds a snapshot from a value map. The map is copied.
func FromValues(values map[unit.ParameterID]float32) *Snapshot {
	s := New()
	for id, v := range values {
		s.values[id] = v
	}
	return s
}

// Get returns the stored value of id.
func (s *Snapshot) Get(id unit.ParameterID) (float32, bool) {
	v, ok := s.values[id]
	return v, ok
}

// Set stores a value. The snapshot no longer mirrors its source instance, so the
// source tag is cleared.
func (s *Snapshot) Set(id unit.ParameterID, v float32) {
	if s.values == nil {
		s.values = make(map[unit.ParameterID]float32)
	}
	s.values[id] = v
	s.source = uuid.Nil
}

// Delete removes a value so Store leaves that parameter alone.
func (s *Snapshot) Delete(id unit.ParameterID) {
	delete(s.values, id)
	s.source = uuid.Nil
}

// Len returns the number of stored values.
func (s *Snapshot) Len() int {
	return len(s.values)
}

// IDs returns the stored parameter ids in ascending order.
func (s *Snapshot) IDs() []unit.ParameterID {
	ids := make([]unit.ParameterID, 0, len(s.values))
	for id := range s.values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Source returns the instance that last fetched into the snapshot, or uuid.Nil.
func (s *Snapshot) Source() uuid.UUID {
	return s.source
}

// SetSource tags the snapshot as mirroring the given instance.
func (s *Snapshot) SetSource(id uuid.UUID) {
	s.source = id
}

// Clone returns an independent copy, source tag included.
func (s *Snapshot) Clone() *Snapshot {
	c := FromValues(s.values)
	c.source = s.source
	return c
}

// Equal reports whether both snapshots hold the same values. Source tags are ignored.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if len(s.values) != len(o.values) {
		return false
	}
	for id, v := range s.values {
		if ov, ok := o.values[id]; !ok || ov != v {
			return false
		}
	}
	return true
}
