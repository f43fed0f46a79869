package ast

// Resolution is the outcome of a successful operation switch dispatch.
type Resolution struct {
	CaseIndex int       // Index of the matched case
	Case      *Case     // The matched case
	Execute   []*Policy // Policy list to run in place of the switch
}

// Resolve returns the first case, in declaration order, that declares op.
// Path and verb are compared by exact string equality; later matching cases
// are never considered. ok is false when no case matches, leaving the default
// to the caller.
func (s *OperationSwitch) Resolve(op Operation) (res Resolution, ok bool) {
	if s == nil {
		return Resolution{}, false
	}
	for i, c := range s.Cases {
		if c.Matches(op) {
			return Resolution{CaseIndex: i, Case: c, Execute: c.Execute}, true
		}
	}
	return Resolution{}, false
}

// Matches returns true if the case declares op.
func (c *Case) Matches(op Operation) bool {
	for _, candidate := range c.Operations {
		if candidate.Path == op.Path && candidate.Verb == op.Verb {
			return true
		}
	}
	return false
}

// RootSwitch returns the first operation switch of the assembly's main sequence,
// the conventional dispatch point of an API-Connect assembly.
func (a *Assembly) RootSwitch() *OperationSwitch {
	if a == nil {
		return nil
	}
	for _, p := range a.Execute {
		if p.Kind == PolicyKindOperationSwitch {
			return p.OperationSwitch
		}
	}
	return nil
}
