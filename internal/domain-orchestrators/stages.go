// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import "fmt"

// Stage names one step of the vendoring pipeline
type Stage string

// Pipeline stages, in execution order. Probing and the vulnerability lookup
// cannot fail and are timed as part of StageEmit.
const (
	StageLoad    Stage = "load"
	StageFetch   Stage = "fetch"
	StageVerify  Stage = "verify"
	StageExtract Stage = "extract"
	StageCompile Stage = "compile"
	StageInstall Stage = "install"
	StageEmit    Stage = "emit"
	StageBundle  Stage = "bundle"
)

// StageError reports which pipeline stage failed
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
