package evaluation

import "time"

// Submission is one evaluator's completed questionnaire about one evaluated
// employee. Submissions are append-only: they are written once from the
// evaluation form and never mutated afterwards.
type Submission struct {
	ID          string         `json:"id"`
	CompanyID   string         `json:"companyId"`
	EvaluatorID string         `json:"evaluatorId"`
	EvaluatedID string         `json:"evaluatedId"`
	Scores      map[string]int `json:"scores"` // question id -> 1..5
	Comment     string         `json:"comment"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Comment is a free-text remark attached to a submission, annotated for
// display in the results panel.
type Comment struct {
	EvaluatorName string `json:"evaluatorName"`
	Comment       string `json:"comment"`
	Relationship  string `json:"relationship"`
}

// Stats summarizes 360° coverage. Expected counts every
// (evaluator, target) pair needed for full coverage: within each department
// every employee evaluates every colleague plus themselves, so a department
// with n employees contributes n*n pairs.
type Stats struct {
	Completed int `json:"completed"`
	Expected  int `json:"expected"`
	Pending   int `json:"pending"`
}

const (
	WarnMissingReference = "missing_reference"
	WarnMalformedScore   = "malformed_score"
)

// Warning records a per-record anomaly the aggregator recovered from
// instead of aborting the run.
type Warning struct {
	Kind         string `json:"kind"`
	SubmissionID string `json:"submissionId"`
	Detail       string `json:"detail"`
}
