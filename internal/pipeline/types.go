package pipeline

import (
	"fmt"
	"time"

	"fontrelease/internal/command"
	"fontrelease/internal/release"
	"fontrelease/internal/trigger"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageProvision    Stage = "provision"
	StageDependencies Stage = "dependencies"
	StageBuild        Stage = "build"
	StageVersion      Stage = "version"
	StagePublish      Stage = "publish"
)

// Stages returns every stage in execution order.
func Stages() []Stage {
	return []Stage{StageProvision, StageDependencies, StageBuild, StageVersion, StagePublish}
}

// Failure returns the error category reported when this stage fails.
func (s Stage) Failure() string {
	switch s {
	case StageProvision:
		return "provisioning failure"
	case StageDependencies:
		return "dependency failure"
	case StageBuild:
		return "build script failure"
	case StageVersion:
		return "version resolution failure"
	case StagePublish:
		return "publication failure"
	default:
		return "stage failure"
	}
}

// Status is the outcome of a stage.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StageResult is the outcome of a single stage.
type StageResult struct {
	Stage    Stage
	Status   Status
	Duration time.Duration
	Err      error
}

// Result describes a run, successful or not.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string

	// Trigger is the event that started the run.
	Trigger trigger.Event

	// Version is the resolved release version. Empty if the run failed earlier.
	Version string

	// Stages holds one entry per stage, in order, including skipped ones.
	Stages []StageResult

	// Release is the created draft, if the publish stage got that far.
	Release *release.Record

	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether every stage succeeded.
func (r *Result) Succeeded() bool {
	if r == nil || len(r.Stages) != len(Stages()) {
		return false
	}
	for _, s := range r.Stages {
		if s.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// skipFrom marks stage and every stage after it as skipped.
func (r *Result) skipFrom(stage Stage) {
	all := Stages()
	for i, s := range all {
		if s == stage {
			for _, rest := range all[i:] {
				r.Stages = append(r.Stages, StageResult{Stage: rest, Status: StatusSkipped})
			}
			return
		}
	}
}

// StageError reports the stage that ended a run.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed (%s): %v", e.Stage, e.Stage.Failure(), e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// ExitCode is the failing command's exit code, or 1 when the failure did not
// come from a command.
func (e *StageError) ExitCode() int {
	if code, ok := command.ExitCode(e.Err); ok && code != 0 {
		return code
	}
	return 1
}
