package engine

import "github.com/zjrosen/partymix/internal/audio/domain"

// Transition records one request changing state during a tick.
type Transition struct {
	Sound  domain.PlayingSound
	From   domain.RequestState
	To     domain.RequestState
	Sample string
	Err    error
}

// TickReport lists the transitions of one Update.
type TickReport struct {
	Time        domain.WorldTime
	Transitions []Transition
}

func (r *TickReport) add(s domain.PlayingSound, to domain.RequestState, sample string) {
	from := s.State
	s.State = to
	r.Transitions = append(r.Transitions, Transition{Sound: s, From: from, To: to, Sample: sample})
}

func (r *TickReport) addErr(s domain.PlayingSound, err error) {
	from := s.State
	s.State = domain.StateFailed
	r.Transitions = append(r.Transitions, Transition{Sound: s, From: from, To: domain.StateFailed, Err: err})
}

// Count returns how many transitions ended in state.
func (r TickReport) Count(state domain.RequestState) int {
	n := 0
	for _, t := range r.Transitions {
		if t.To == state {
			n++
		}
	}
	return n
}

// Empty reports whether nothing changed.
func (r TickReport) Empty() bool { return len(r.Transitions) == 0 }
