package workflow

import "oss-clearance-be/pkg/store"

// Guard is one branch of a guarded transition.
type Guard struct {
	Name   string
	When   func(*store.Store) bool
	Target Phase
}

// Transition is either a direct target or an ordered guard list. The first
// guard whose predicate holds wins.
type Transition struct {
	Target Phase
	Guards []Guard
}

func To(p Phase) Transition {
	return Transition{Target: p}
}

func Guarded(guards ...Guard) Transition {
	return Transition{Guards: guards}
}

// Always is the trailing default guard.
func Always(target Phase) Guard {
	return Guard{Name: "default", When: func(*store.Store) bool { return true }, Target: target}
}

type Table map[Phase]map[Event]Transition

// Next resolves the target for (phase, event). ok is false when the cell is
// missing or no guard matches; the phase is then held.
func (t Table) Next(phase Phase, event Event, st *store.Store) (target Phase, guard string, ok bool) {
	cell, found := t[phase][event]
	if !found {
		return phase, "", false
	}
	if len(cell.Guards) == 0 {
		return cell.Target, "", cell.Target != ""
	}
	for _, g := range cell.Guards {
		if g.When != nil && g.When(st) {
			return g.Target, g.Name, true
		}
	}
	return phase, "", false
}

func oemApproved(st *store.Store) bool {
	return st.OEMApproval == store.OEMApproved
}

// DefaultTable is the clearance phase order. Every phase moves forward on
// COMPLETED; compliance keeps a guarded cell whose branches currently share
// a target.
func DefaultTable() Table {
	t := Table{}
	for i, p := range Phases[:len(Phases)-1] {
		t[p] = map[Event]Transition{EventCompleted: To(Phases[i+1])}
	}
	t[PhaseCompliance] = map[Event]Transition{
		EventCompleted: Guarded(
			Guard{Name: "oem_approved", When: oemApproved, Target: PhaseFinalList},
			Always(PhaseFinalList),
		),
	}
	return t
}
