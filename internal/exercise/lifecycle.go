package exercise

import (
	"fmt"
)

type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseLoading     Phase = "loading"
	PhaseReady       Phase = "ready"
	PhaseConfigError Phase = "config_error"
	PhaseAnswered    Phase = "answered"
	PhaseCompleted   Phase = "completed"
)

var transitions = map[Phase][]Phase{
	PhaseIdle:     {PhaseLoading},
	PhaseLoading:  {PhaseReady, PhaseConfigError},
	PhaseReady:    {PhaseReady, PhaseAnswered, PhaseCompleted},
	PhaseAnswered: {PhaseReady, PhaseAnswered, PhaseCompleted},
	// Completed stays interactive so the learner can retry.
	PhaseCompleted: {PhaseAnswered, PhaseCompleted, PhaseReady},
}

// Lifecycle tracks the phase of one exercise instance.
type Lifecycle struct {
	phase Phase
	err   error
	// locked is set by tools that end an attempt for good, like a timed-out question.
	locked bool
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{phase: PhaseIdle}
}

func (l *Lifecycle) Phase() Phase {
	return l.phase
}

// Err returns the configuration error that ended loading.
func (l *Lifecycle) Err() error {
	return l.err
}

func (l *Lifecycle) transition(to Phase) error {
	for _, allowed := range transitions[l.phase] {
		if allowed == to {
			l.phase = to
			return nil
		}
	}
	return fmt.Errorf("invalid transition from %s to %s", l.phase, to)
}

func (l *Lifecycle) StartLoading() error {
	return l.transition(PhaseLoading)
}

// Finish ends loading in Ready, or ConfigError when err is set.
func (l *Lifecycle) Finish(err error) error {
	if err != nil {
		l.err = err
		return l.transition(PhaseConfigError)
	}
	return l.transition(PhaseReady)
}

// Record moves to Answered, or to Completed on a correct answer.
func (l *Lifecycle) Record(result Result) error {
	if l.locked {
		return fmt.Errorf("attempt is locked")
	}
	if result.Correct {
		return l.transition(PhaseCompleted)
	}
	return l.transition(PhaseAnswered)
}

// Retry clears the feedback of the previous attempt.
func (l *Lifecycle) Retry() error {
	l.locked = false
	return l.transition(PhaseReady)
}

func (l *Lifecycle) Lock() {
	l.locked = true
}

func (l *Lifecycle) ControlsEnabled() bool {
	switch l.phase {
	case PhaseReady, PhaseAnswered, PhaseCompleted:
		return !l.locked
	default:
		return false
	}
}
