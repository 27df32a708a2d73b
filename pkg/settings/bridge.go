package settings

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/justyntemme/unithost/pkg/unit"
)

// Store pushes the snapshot into u. Only writable schema parameters with a stored
// value are set; values the schema does not know are ignored. Store only reads s, so
// one snapshot can be stored into many units.
//
// Store does not allocate when the unit's Parameters does not, so it may run at a
// render-session boundary on the audio thread.
func Store(u unit.Unit, s *Snapshot) error {
	if s == nil {
		return nil
	}
	for _, info := range u.Parameters() {
		if !info.Writable() {
			continue
		}
		v, ok := s.values[info.ID]
		if !ok {
			continue
		}
		if err := u.SetParameter(info.ID, unit.ScopeGlobal, 0, v); err != nil {
			return fmt.Errorf("settings: store parameter %d (%s): %w", info.ID, info.Name, err)
		}
	}
	return nil
}

// Fetch reads every readable schema parameter of u into s and tags s with source.
// On failure s keeps the values read so far and its source tag is cleared.
func Fetch(u unit.Unit, s *Snapshot, source uuid.UUID) error {
	s.source = uuid.Nil
	if s.values == nil {
		s.values = make(map[unit.ParameterID]float32)
	}
	for _, info := range u.Parameters() {
		if info.Flags&unit.ParamReadable == 0 {
			continue
		}
		v, err := u.GetParameter(info.ID, unit.ScopeGlobal, 0)
		if err != nil {
			return fmt.Errorf("settings: fetch parameter %d (%s): %w", info.ID, info.Name, err)
		}
		s.values[info.ID] = v
	}
	s.source = source
	return nil
}

// Defaults returns a snapshot holding the schema defaults of every writable parameter.
func Defaults(schema []unit.ParameterInfo) *Snapshot {
	s := New()
	for _, info := range schema {
		if info.Writable() {
			s.values[info.ID] = info.Default
		}
	}
	return s
}
