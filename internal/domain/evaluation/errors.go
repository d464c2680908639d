package evaluation

import "errors"

var (
	ErrSubmissionNotFound = errors.New("evaluation submission not found")
	ErrAlreadyEvaluated   = errors.New("evaluator already submitted an evaluation for this employee")
	ErrNoReferenceData    = errors.New("aggregation requires employee, position and question collections")
	ErrInvalidScore       = errors.New("scores must be integers between 1 and 5")
)
