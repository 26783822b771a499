// Package interview holds the interview lifecycle state machine, the
// per-message conversation pipeline and the service operations that drive a
// session from DRAFT to COMPLETED.
package interview

import (
	"fmt"

	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

// transitions maps each state to the single state reachable from it.
var transitions = map[model.Status][]model.Status{
	model.StatusDraft:      {model.StatusReady},
	model.StatusReady:      {model.StatusAssigned},
	model.StatusAssigned:   {model.StatusInProgress},
	model.StatusInProgress: {model.StatusCompleted},
	model.StatusCompleted:  {}, // terminal
}

type precondition struct {
	holds func(iv *model.Interview) bool
	needs string
}

var preconditions = map[model.Status]precondition{
	model.StatusReady: {
		holds: func(iv *model.Interview) bool { return iv.MatchAnalysis != nil },
		needs: "match analysis is required; upload and analyze documents first",
	},
	model.StatusAssigned: {
		holds: func(iv *model.Interview) bool { return iv.CandidateLinkToken != nil && *iv.CandidateLinkToken != "" },
		needs: "candidate link token is required",
	},
	model.StatusCompleted: {
		holds: func(iv *model.Interview) bool { return iv.Report != nil },
		needs: "final report is required",
	},
}

// CanTransition reports whether target is directly reachable from current.
func CanTransition(current, target model.Status) bool {
	for _, s := range transitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// NextStates returns the states reachable from s in one hop.
func NextStates(s model.Status) []model.Status {
	return append([]model.Status(nil), transitions[s]...)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s model.Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// ValidateTransition checks the adjacency table and the target's precondition
// without mutating iv.
func ValidateTransition(iv *model.Interview, target model.Status) error {
	if !CanTransition(iv.Status, target) {
		return &StateTransitionError{
			Kind:    InvalidStateTransition,
			From:    iv.Status,
			To:      target,
			Allowed: NextStates(iv.Status),
		}
	}
	if pre, ok := preconditions[target]; ok && !pre.holds(iv) {
		return &StateTransitionError{
			Kind:   PreconditionNotMet,
			From:   iv.Status,
			To:     target,
			Reason: pre.needs,
		}
	}
	return nil
}

// Transition validates and, only on success, moves iv to target.
func Transition(iv *model.Interview, target model.Status) error {
	if err := ValidateTransition(iv, target); err != nil {
		return err
	}
	iv.Status = target
	return nil
}

type TransitionErrorKind string

const (
	InvalidStateTransition TransitionErrorKind = "invalid_state_transition"
	PreconditionNotMet     TransitionErrorKind = "precondition_not_met"
)

type StateTransitionError struct {
	Kind    TransitionErrorKind
	From    model.Status
	To      model.Status
	Allowed []model.Status
	Reason  string
}

func (e *StateTransitionError) Error() string {
	if e.Kind == PreconditionNotMet {
		return fmt.Sprintf("preconditions not met for transition to %s: %s", e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition from %s to %s (valid transitions: %v)", e.From, e.To, e.Allowed)
}
