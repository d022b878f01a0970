package domain

import (
	"fmt"
	"time"
)

// RunState represents the current state of a pipeline run.
type RunState string

const (
	RunStatePending   RunState = "pending"
	RunStateScouting  RunState = "scouting"
	RunStateCleaning  RunState = "cleaning"
	RunStateAnalyzing RunState = "analyzing"
	RunStateDone      RunState = "done"
	RunStateFailed    RunState = "failed"
)

// Stage names the batch processing stages in execution order.
type Stage string

const (
	StageScout   Stage = "scout"
	StageCleaner Stage = "cleaner"
	StageAnalyst Stage = "analyst"
)

// Stages returns the batch stages in execution order. Cleaner never runs on
// content Scout has not produced; the orchestrator enforces this ordering.
func Stages() []Stage {
	return []Stage{StageScout, StageCleaner, StageAnalyst}
}

// AttemptStatus is the status of one stage attempt.
type AttemptStatus string

const (
	AttemptStatusRunning   AttemptStatus = "running"
	AttemptStatusSucceeded AttemptStatus = "succeeded"
	AttemptStatusFailed    AttemptStatus = "failed"
)

// StageAttempt records one attempt at one stage. Attempts are append-only:
// a retry creates a new record rather than mutating history, preserving an
// auditable trail.
type StageAttempt struct {
	ID         string
	RunID      string
	Stage      Stage
	Attempt    int
	Status     AttemptStatus
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// PipelineRun identifies one execution of the staged pipeline for a
// campaign. Mutated only by the orchestrator; terminal once Done or Failed.
type PipelineRun struct {
	ID          string
	CampaignID  string
	State       RunState
	Attempts    []StageAttempt
	FailReason  string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Terminal reports whether the run has reached a terminal state. No run
// transitions out of a terminal state.
func (r *PipelineRun) Terminal() bool {
	return r.State == RunStateDone || r.State == RunStateFailed
}

// StageSucceeded reports whether any recorded attempt completed the stage.
func (r *PipelineRun) StageSucceeded(stage Stage) bool {
	for _, a := range r.Attempts {
		if a.Stage == stage && a.Status == AttemptStatusSucceeded {
			return true
		}
	}
	return false
}

// AttemptCount returns the number of recorded attempts for a stage.
func (r *PipelineRun) AttemptCount(stage Stage) int {
	n := 0
	for _, a := range r.Attempts {
		if a.Stage == stage {
			n++
		}
	}
	return n
}

// StateForStage maps a stage to the run state that executes it.
func StateForStage(stage Stage) RunState {
	switch stage {
	case StageScout:
		return RunStateScouting
	case StageCleaner:
		return RunStateCleaning
	case StageAnalyst:
		return RunStateAnalyzing
	default:
		return RunStateFailed
	}
}

// ValidRunTransition reports whether a run may move from one state to
// another. Terminal states have no outgoing transitions; Failed is
// reachable from any non-terminal state.
func ValidRunTransition(from, to RunState) bool {
	if from == RunStateDone || from == RunStateFailed {
		return false
	}
	if to == RunStateFailed {
		return true
	}
	switch from {
	case RunStatePending:
		return to == RunStateScouting
	case RunStateScouting:
		return to == RunStateCleaning
	case RunStateCleaning:
		return to == RunStateAnalyzing
	case RunStateAnalyzing:
		return to == RunStateDone
	default:
		return false
	}
}

// ValidatePipelineRun validates a PipelineRun instance
func ValidatePipelineRun(r *PipelineRun) error {
	if r == nil {
		return fmt.Errorf("pipeline run cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("pipeline run ID is required")
	}

	if r.CampaignID == "" {
		return fmt.Errorf("pipeline run CampaignID is required")
	}

	if !isValidRunState(r.State) {
		return fmt.Errorf("pipeline run State is invalid: %s", r.State)
	}

	return nil
}

// ValidateStageAttempt validates a StageAttempt instance
func ValidateStageAttempt(a *StageAttempt) error {
	if a == nil {
		return fmt.Errorf("stage attempt cannot be nil")
	}

	if a.RunID == "" {
		return fmt.Errorf("stage attempt RunID is required")
	}

	if !isValidStage(a.Stage) {
		return fmt.Errorf("stage attempt Stage is invalid: %s", a.Stage)
	}

	if a.Attempt <= 0 {
		return fmt.Errorf("stage attempt Attempt must be greater than 0")
	}

	if !isValidAttemptStatus(a.Status) {
		return fmt.Errorf("stage attempt Status is invalid: %s", a.Status)
	}

	return nil
}

func isValidRunState(s RunState) bool {
	switch s {
	case RunStatePending, RunStateScouting, RunStateCleaning,
		RunStateAnalyzing, RunStateDone, RunStateFailed:
		return true
	}
	return false
}

func isValidStage(s Stage) bool {
	switch s {
	case StageScout, StageCleaner, StageAnalyst:
		return true
	}
	return false
}

func isValidAttemptStatus(s AttemptStatus) bool {
	switch s {
	case AttemptStatusRunning, AttemptStatusSucceeded, AttemptStatusFailed:
		return true
	}
	return false
}
