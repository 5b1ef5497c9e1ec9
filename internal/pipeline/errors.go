package pipeline

import "fmt"

// Failure codes attached to StageError. Callers use them to decide whether
// a failed run should be refunded: config and parse failures happened before
// any billable work, timeouts and partials after.
const (
	CodeConfig   = "config"
	CodeParse    = "parse"
	CodeTimeout  = "timeout"
	CodePartial  = "partial"
	CodeDelivery = "delivery"
)

// StageError tags a failure with the stage that produced it and a coarse
// failure code.
type StageError struct {
	Stage  string
	Reason string
	Code   string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed (%s): %s", e.Stage, e.Code, e.Reason)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage, code string, err error) *StageError {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return &StageError{Stage: stage, Reason: reason, Code: code, Err: err}
}
