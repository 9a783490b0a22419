// Package review drives manual review of duplicate groups as an
// explicit state machine. The machine advances on decision events and
// knows nothing about presentation, so any frontend can drive it.
package review

import (
	"fmt"
	"sort"

	"photodedup/internal/models"
)

// Phase is the kind of state the machine is in.
type Phase int

// Review phases.
const (
	AwaitingDecision Phase = iota
	Approved
	Skipped
	Done
)

// State is the machine's current position.
type State struct {
	Phase Phase
	// GroupIndex is valid for every phase except Done.
	GroupIndex int
	// KeptPath is set when Phase is Approved.
	KeptPath string
}

// Machine walks duplicate groups one at a time, collecting removal
// decisions. Not safe for concurrent use.
type Machine struct {
	groups  [][]string
	state   State
	removal map[string]struct{}
}

// NewMachine creates a review machine over the given groups.
func NewMachine(groups [][]string) *Machine {
	m := &Machine{groups: groups, removal: make(map[string]struct{})}
	if len(groups) == 0 {
		m.state = State{Phase: Done}
	} else {
		m.state = State{Phase: AwaitingDecision, GroupIndex: 0}
	}
	return m
}

// Current returns the machine's state.
func (m *Machine) Current() State {
	return m.state
}

// Group returns the group under review, or nil when the machine is done.
func (m *Machine) Group() []string {
	if m.state.Phase == Done {
		return nil
	}
	return m.groups[m.state.GroupIndex]
}

// Approve keeps exactly keptPath from the current group and marks every
// other member for removal.
func (m *Machine) Approve(keptPath string) error {
	if m.state.Phase != AwaitingDecision {
		return fmt.Errorf("no group awaiting a decision")
	}
	g := m.groups[m.state.GroupIndex]
	found := false
	for _, p := range g {
		if p == keptPath {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("path %q is not a member of group %d", keptPath, m.state.GroupIndex)
	}
	for _, p := range g {
		if p != keptPath {
			m.removal[p] = struct{}{}
		}
	}
	m.state = State{Phase: Approved, GroupIndex: m.state.GroupIndex, KeptPath: keptPath}
	return nil
}

// Skip leaves the current group untouched.
func (m *Machine) Skip() error {
	if m.state.Phase != AwaitingDecision {
		return fmt.Errorf("no group awaiting a decision")
	}
	m.state = State{Phase: Skipped, GroupIndex: m.state.GroupIndex}
	return nil
}

// Advance moves from a decided group to the next undecided one, or to
// Done past the last group.
func (m *Machine) Advance() error {
	if m.state.Phase != Approved && m.state.Phase != Skipped {
		return fmt.Errorf("current group has no decision yet")
	}
	next := m.state.GroupIndex + 1
	if next >= len(m.groups) {
		m.state = State{Phase: Done}
		return nil
	}
	m.state = State{Phase: AwaitingDecision, GroupIndex: next}
	return nil
}

// Selection returns the removal decisions accumulated so far.
func (m *Machine) Selection() models.Selection {
	remove := make([]string, 0, len(m.removal))
	for p := range m.removal {
		remove = append(remove, p)
	}
	sort.Strings(remove)
	return models.Selection{Remove: remove}
}
