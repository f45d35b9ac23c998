package access

import "fmt"

// Mode is the kind of access held or requested.
type Mode uint8

const (
	Shared Mode = iota + 1
	Exclusive
)

func (m Mode) String() string {
	switch m {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// State is the mutable part of an Accessor. It is only read or written with the
// accessor mutex held; State values handed out by Accessor.State are copies.
//
//   - Open:       Readers == 0, ReadAllowed && WriteAllowed
//   - Reading(n): Readers == n, ReadAllowed && !WriteAllowed
//   - Writing:    Readers == 0, !ReadAllowed && !WriteAllowed
type State struct {
	Readers        uint32 // active readers, not waiters
	ReadAllowed    bool
	WriteAllowed   bool
	WritersWaiting uint32 // blocked writers, not the active one
}

func openState() State {
	return State{ReadAllowed: true, WriteAllowed: true}
}

// Writing reports whether the snapshot describes a held exclusive access.
func (s State) Writing() bool {
	return s.Readers == 0 && !s.ReadAllowed && !s.WriteAllowed
}

// Open reports whether nobody holds access.
func (s State) Open() bool {
	return s.Readers == 0 && s.ReadAllowed && s.WriteAllowed
}

func (s State) String() string {
	return fmt.Sprintf("readers=%d read_allowed=%t write_allowed=%t writers_waiting=%d",
		s.Readers, s.ReadAllowed, s.WriteAllowed, s.WritersWaiting)
}

// check validates the invariants that hold at every unlock point.
func (s State) check() error {
	if s.Readers > 0 && s.WriteAllowed {
		return fmt.Errorf("%w: write allowed with %d active readers", ErrCorrupted, s.Readers)
	}
	if s.Readers > 0 && !s.ReadAllowed {
		return fmt.Errorf("%w: reads closed with %d active readers", ErrCorrupted, s.Readers)
	}
	if s.Readers == 0 && s.ReadAllowed != s.WriteAllowed {
		return fmt.Errorf("%w: half-open with no readers (%s)", ErrCorrupted, s)
	}
	return nil
}
