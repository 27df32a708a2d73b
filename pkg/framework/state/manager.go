// Package state saves and loads settings snapshots as preset data.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/justyntemme/unithost/pkg/settings"
	"github.com/justyntemme/unithost/pkg/unit"
)

const magic = "UNITHOST"

// ErrInvalidFormat is returned when data does not start with the preset header.
var ErrInvalidFormat = errors.New("state: invalid preset format")

// Manager reads and writes preset data for one unit description.
type Manager struct {
	version uint32
	desc    unit.Description
	custom  CustomStateFunc
	load    CustomLoadFunc
}

// CustomStateFunc writes extra state after the parameter values.
type CustomStateFunc func(w io.Writer) error

// CustomLoadFunc reads the extra state written by a CustomStateFunc.
type CustomLoadFunc func(r io.Reader) error

// NewManager creates a state manager for presets of the given unit.
func NewManager(desc unit.Description) *Manager {
	return &Manager{
		version: 1,
		desc:    desc,
	}
}

// SetCustomState sets the functions saving and loading custom state.
func (m *Manager) SetCustomState(save CustomStateFunc, load CustomLoadFunc) {
	m.custom = save
	m.load = load
}

// Save writes s to w.
func (m *Manager) Save(w io.Writer, s *settings.Snapshot) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	// Unit identity
	ident := [3]uint32{uint32(m.desc.Type), uint32(m.desc.Subtype), uint32(m.desc.Manufacturer)}
	if err := binary.Write(w, binary.LittleEndian, ident); err != nil {
		return err
	}

	ids := s.IDs()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		v, _ := s.Get(id)
		rec := [2]uint32{uint32(id), math.Float32bits(v)}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return err
		}
	}

	if m.custom == nil {
		return binary.Write(w, binary.LittleEndian, uint32(0))
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(1)); err != nil {
		return err
	}
	return m.custom(w)
}

// Load reads a snapshot from r. Presets saved for a different unit are rejected.
func (m *Manager) Load(r io.Reader) (*settings.Snapshot, error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if string(header) != magic {
		return nil, ErrInvalidFormat
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version > m.version {
		return nil, fmt.Errorf("state: version %d is newer than supported version %d", version, m.version)
	}

	var ident [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &ident); err != nil {
		return nil, err
	}
	if unit.FourCC(ident[0]) != m.desc.Type || unit.FourCC(ident[1]) != m.desc.Subtype ||
		unit.FourCC(ident[2]) != m.desc.Manufacturer {
		return nil, fmt.Errorf("state: preset is for %s/%s/%s, not %s",
			unit.FourCC(ident[0]), unit.FourCC(ident[1]), unit.FourCC(ident[2]), m.desc)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	s := settings.New()
	for i := uint32(0); i < count; i++ {
		var rec [2]uint32
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, err
		}
		s.Set(unit.ParameterID(rec[0]), math.Float32frombits(rec[1]))
	}

	var hasCustom uint32
	if err := binary.Read(r, binary.LittleEndian, &hasCustom); err != nil {
		return nil, err
	}
	if hasCustom != 0 {
		if m.load == nil {
			return nil, errors.New("state: preset carries custom state but no loader is set")
		}
		if err := m.load(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}
