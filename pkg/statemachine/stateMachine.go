// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package statemachine

import (
	"errors"
)

type StateDirection int64

const (
	Forward StateDirection = iota
	Backward
	Stop
)

const notRunningState = ""

var errNoStates = errors.New("state machine needs at least one state")

// StateMachine walks an ordered list of named states, e.g. the phases of a deployment run.
type StateMachine struct {
	index   int
	states  []string
	stopped bool
}

func NewStateMachine(states []string) (*StateMachine, error) {
	if len(states) == 0 {
		return nil, errNoStates
	}
	return &StateMachine{
		states: states,
	}, nil
}

// CurrentState returns the empty state once the machine went past the last state or was stopped
func (sm *StateMachine) CurrentState() string {
	if !sm.Running() {
		return notRunningState
	}
	return sm.states[sm.index]
}

func (sm *StateMachine) Running() bool {
	return !sm.stopped && sm.index >= 0 && sm.index < len(sm.states)
}

func (sm *StateMachine) Stop() {
	sm.stopped = true
}

func (sm *StateMachine) NextState(direction StateDirection) {
	if !sm.Running() {
		return
	}
	switch direction {
	case Forward:
		sm.index++
	case Backward:
		if sm.index > 0 {
			sm.index--
		}
	case Stop:
		sm.Stop()
	}
}

// States returns a copy of the configured states
func (sm *StateMachine) States() []string {
	out := make([]string, len(sm.states))
	copy(out, sm.states)
	return out
}
