// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"errors"
	"sync"
)

type Outcome int

const (
	Done Outcome = iota
	Skipped
	Recovered
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Skipped:
		return "skipped"
	case Recovered:
		return "recovered"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// StepResult records how one step of a run ended. Recovered steps carry the error that was
// tolerated, Fatal steps the one that aborted the run.
type StepResult struct {
	Step     string
	Contract string
	Outcome  Outcome
	Err      error
}

type StepResults struct {
	Results []StepResult
	Lock    sync.Mutex
}

func (sr *StepResults) Add(result StepResult) {
	sr.Lock.Lock()
	defer sr.Lock.Unlock()
	sr.Results = append(sr.Results, result)
}

func (sr *StepResults) AddDone(step, contract string) {
	sr.Add(StepResult{Step: step, Contract: contract, Outcome: Done})
}

func (sr *StepResults) AddSkipped(step, contract string) {
	sr.Add(StepResult{Step: step, Contract: contract, Outcome: Skipped})
}

func (sr *StepResults) AddRecovered(step, contract string, err error) {
	sr.Add(StepResult{Step: step, Contract: contract, Outcome: Recovered, Err: err})
}

func (sr *StepResults) AddFatal(step, contract string, err error) {
	sr.Add(StepResult{Step: step, Contract: contract, Outcome: Fatal, Err: err})
}

// Merge appends all results of other
func (sr *StepResults) Merge(other *StepResults) {
	if other == nil {
		return
	}
	for _, r := range other.GetResults() {
		sr.Add(r)
	}
}

func (sr *StepResults) GetResults() []StepResult {
	sr.Lock.Lock()
	defer sr.Lock.Unlock()
	out := make([]StepResult, len(sr.Results))
	copy(out, sr.Results)
	return out
}

func (sr *StepResults) Len() int {
	sr.Lock.Lock()
	defer sr.Lock.Unlock()
	return len(sr.Results)
}

func (sr *StepResults) Count(outcome Outcome) int {
	sr.Lock.Lock()
	defer sr.Lock.Unlock()
	n := 0
	for _, r := range sr.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// Filter returns the results of the given step
func (sr *StepResults) Filter(step string) []StepResult {
	sr.Lock.Lock()
	defer sr.Lock.Unlock()
	var out []StepResult
	for _, r := range sr.Results {
		if r.Step == step {
			out = append(out, r)
		}
	}
	return out
}

func (sr *StepResults) HasFatal() bool {
	return sr.Count(Fatal) > 0
}

// Err joins the errors of every fatal result
func (sr *StepResults) Err() error {
	sr.Lock.Lock()
	defer sr.Lock.Unlock()
	var errs []error
	for _, r := range sr.Results {
		if r.Outcome == Fatal {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
