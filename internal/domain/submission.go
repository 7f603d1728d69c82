package domain

// Trigger records what started a submission.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerTimer  Trigger = "timer"
)

// Submission steps, in execution order.
const (
	StepStatusSubmit = "status_submit"
	StepTeardown     = "teardown"
	StepClassify     = "classify"
	StepSubmitRecord = "submit_record"
	StepFetchLogs    = "fetch_logs"
)

// StepOutcome is the result of one submission step. Err is nil on success.
type StepOutcome struct {
	Step string
	Err  error
}

// SubmissionResult summarizes a finished submission. The session is Submitted
// regardless of Failed.
type SubmissionResult struct {
	Trigger Trigger
	Failed  bool
	Steps   []StepOutcome
	// Logs holds this exam's behavior records, most recent first.
	Logs []BehaviorLogEntry
}

// Failures returns the steps that did not succeed.
func (r SubmissionResult) Failures() []StepOutcome {
	var out []StepOutcome
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}
