package evaluation

import (
	"fmt"
	"sort"

	"evalsphere/internal/domain/org"
	"evalsphere/internal/domain/survey"
)

// Snapshot is the in-memory input to one aggregation run. The caller
// materializes all collections up front; the aggregator performs no I/O and
// holds no state between runs.
type Snapshot struct {
	Submissions []Submission
	Employees   []org.Employee
	Positions   []org.Position
	Questions   []survey.Question
}

// Result is the reduced view of a snapshot. All maps key by id; a missing
// key means "no data", never zero. A category average of 0 cannot occur
// (scores are 1..5), so absence is the only representation of "unevaluated".
type Result struct {
	// EmployeeCategoryAverages pools every (category, score) data point from
	// submissions targeting the employee and averages per category.
	EmployeeCategoryAverages map[string]map[string]float64 `json:"employeeCategoryAverages"`
	// DepartmentCategoryAverages is the mean of the employee-level category
	// averages of the department's employees. A mean of means, not a
	// sample-weighted average over raw scores; kept that way deliberately so
	// displayed numbers match the historical ones.
	DepartmentCategoryAverages map[string]map[string]float64 `json:"departmentCategoryAverages"`
	// RelationshipBreakdown splits the employee's category averages by the
	// evaluator's relationship. Buckets with no submissions are absent, and
	// unclassifiable submissions contribute to no bucket at all.
	RelationshipBreakdown map[string]map[string]map[Relationship]float64 `json:"relationshipBreakdown"`
	CommentsByEmployee    map[string][]Comment                           `json:"commentsByEmployee"`
	Stats                 Stats                                          `json:"stats"`
	Warnings              []Warning                                      `json:"warnings,omitempty"`
}

type bucket struct {
	sum   float64
	count int
}

func (b *bucket) add(score int) {
	b.sum += float64(score)
	b.count++
}

func (b *bucket) mean() float64 {
	return b.sum / float64(b.count)
}

// Aggregate reduces a snapshot to category averages, relationship
// breakdowns, comments and coverage statistics. Per-record anomalies are
// recovered locally and reported in Result.Warnings; only a snapshot with
// submissions but no reference collections fails hard.
//
// The reduction is deterministic: submissions are processed in creation
// order (id as tie-break) and per-question scores in sorted question-id
// order, so identical snapshots produce bit-identical floats.
func Aggregate(snap Snapshot) (*Result, error) {
	if len(snap.Submissions) > 0 && (snap.Employees == nil || snap.Positions == nil || snap.Questions == nil) {
		return nil, ErrNoReferenceData
	}

	employees := make(map[string]org.Employee, len(snap.Employees))
	for _, emp := range snap.Employees {
		employees[emp.ID] = emp
	}
	positions := make(map[string]org.Position, len(snap.Positions))
	for _, pos := range snap.Positions {
		positions[pos.ID] = pos
	}
	categories := make(map[string]string, len(snap.Questions))
	for _, q := range snap.Questions {
		categories[q.ID] = q.Category
	}

	ordered := make([]Submission, len(snap.Submissions))
	copy(ordered, snap.Submissions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	result := &Result{
		EmployeeCategoryAverages:   map[string]map[string]float64{},
		DepartmentCategoryAverages: map[string]map[string]float64{},
		RelationshipBreakdown:      map[string]map[string]map[Relationship]float64{},
		CommentsByEmployee:         map[string][]Comment{},
	}

	empBuckets := map[string]map[string]*bucket{}
	relBuckets := map[string]map[string]map[Relationship]*bucket{}

	for _, sub := range ordered {
		relationship, evaluatorName := classifySubmission(sub, employees, positions, result)

		for _, questionID := range sortedScoreKeys(sub.Scores) {
			score := sub.Scores[questionID]
			category, ok := categories[questionID]
			if !ok {
				result.warn(WarnMissingReference, sub.ID, fmt.Sprintf("unknown question %s", questionID))
				continue
			}
			if score < 1 || score > 5 {
				result.warn(WarnMalformedScore, sub.ID, fmt.Sprintf("score %d for question %s outside 1-5", score, questionID))
				continue
			}

			perCategory, ok := empBuckets[sub.EvaluatedID]
			if !ok {
				perCategory = map[string]*bucket{}
				empBuckets[sub.EvaluatedID] = perCategory
			}
			b, ok := perCategory[category]
			if !ok {
				b = &bucket{}
				perCategory[category] = b
			}
			b.add(score)

			if relationship != RelationshipUnknown {
				perEmp, ok := relBuckets[sub.EvaluatedID]
				if !ok {
					perEmp = map[string]map[Relationship]*bucket{}
					relBuckets[sub.EvaluatedID] = perEmp
				}
				perRel, ok := perEmp[category]
				if !ok {
					perRel = map[Relationship]*bucket{}
					perEmp[category] = perRel
				}
				rb, ok := perRel[relationship]
				if !ok {
					rb = &bucket{}
					perRel[relationship] = rb
				}
				rb.add(score)
			}
		}

		if sub.Comment != "" {
			result.CommentsByEmployee[sub.EvaluatedID] = append(result.CommentsByEmployee[sub.EvaluatedID], Comment{
				EvaluatorName: evaluatorName,
				Comment:       sub.Comment,
				Relationship:  relationship.Label(),
			})
		}
	}

	for employeeID, perCategory := range empBuckets {
		averages := make(map[string]float64, len(perCategory))
		for category, b := range perCategory {
			averages[category] = b.mean()
		}
		result.EmployeeCategoryAverages[employeeID] = averages
	}

	for employeeID, perEmp := range relBuckets {
		breakdown := make(map[string]map[Relationship]float64, len(perEmp))
		for category, perRel := range perEmp {
			byRel := make(map[Relationship]float64, len(perRel))
			for relationship, b := range perRel {
				byRel[relationship] = b.mean()
			}
			breakdown[category] = byRel
		}
		result.RelationshipBreakdown[employeeID] = breakdown
	}

	aggregateDepartments(snap.Employees, result)

	result.Stats = coverageStats(len(ordered), snap.Employees)

	return result, nil
}

// classifySubmission resolves the evaluator/evaluated relationship for one
// submission, warning on dangling references. A submission that cannot be
// classified still contributes its scores to the unsegmented averages.
func classifySubmission(sub Submission, employees map[string]org.Employee, positions map[string]org.Position, result *Result) (Relationship, string) {
	evaluator, evaluatorKnown := employees[sub.EvaluatorID]
	evaluated, evaluatedKnown := employees[sub.EvaluatedID]

	if !evaluatorKnown || !evaluatedKnown {
		missing := sub.EvaluatorID
		if evaluatorKnown {
			missing = sub.EvaluatedID
		}
		result.warn(WarnMissingReference, sub.ID, fmt.Sprintf("unknown employee %s", missing))
		return RelationshipUnknown, evaluator.Name
	}

	relationship := Classify(evaluator, evaluated, positions)
	if relationship == RelationshipUnknown {
		if _, ok := positions[evaluator.PositionID]; !ok {
			result.warn(WarnMissingReference, sub.ID, fmt.Sprintf("unknown position %s", evaluator.PositionID))
		} else if _, ok := positions[evaluated.PositionID]; !ok {
			result.warn(WarnMissingReference, sub.ID, fmt.Sprintf("unknown position %s", evaluated.PositionID))
		}
		// Cross-department pairs resolve to Unknown without a warning;
		// the UI groups them under "No especificado".
	}
	return relationship, evaluator.Name
}

// aggregateDepartments rolls up employee averages per department, iterating
// employees in slice order to keep float summation reproducible.
func aggregateDepartments(employees []org.Employee, result *Result) {
	deptBuckets := map[string]map[string]*bucket{}
	for _, emp := range employees {
		if emp.DepartmentID == "" {
			continue
		}
		averages, ok := result.EmployeeCategoryAverages[emp.ID]
		if !ok {
			continue
		}
		perCategory, ok := deptBuckets[emp.DepartmentID]
		if !ok {
			perCategory = map[string]*bucket{}
			deptBuckets[emp.DepartmentID] = perCategory
		}
		for _, category := range sortedFloatKeys(averages) {
			b, ok := perCategory[category]
			if !ok {
				b = &bucket{}
				perCategory[category] = b
			}
			b.sum += averages[category]
			b.count++
		}
	}

	for departmentID, perCategory := range deptBuckets {
		averages := make(map[string]float64, len(perCategory))
		for category, b := range perCategory {
			averages[category] = b.mean()
		}
		result.DepartmentCategoryAverages[departmentID] = averages
	}
}

func coverageStats(completed int, employees []org.Employee) Stats {
	deptSizes := map[string]int{}
	for _, emp := range employees {
		if emp.DepartmentID == "" {
			continue
		}
		deptSizes[emp.DepartmentID]++
	}
	expected := 0
	for _, n := range deptSizes {
		expected += n * n
	}
	pending := expected - completed
	if pending < 0 {
		pending = 0
	}
	return Stats{Completed: completed, Expected: expected, Pending: pending}
}

// GlobalPercentage maps an employee's category averages to the 0-100 scale
// shown on summary cards: mean of category averages times 20, because scores
// run 1..5. The second return is false when there are no averages, so "no
// data" never renders as 0%.
func GlobalPercentage(categoryAverages map[string]float64) (float64, bool) {
	if len(categoryAverages) == 0 {
		return 0, false
	}
	total := 0.0
	for _, category := range sortedFloatKeys(categoryAverages) {
		total += categoryAverages[category]
	}
	return total / float64(len(categoryAverages)) * 20, true
}

func (r *Result) warn(kind, submissionID, detail string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, SubmissionID: submissionID, Detail: detail})
}

func sortedScoreKeys(scores map[string]int) []string {
	keys := make([]string, 0, len(scores))
	for key := range scores {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedFloatKeys(values map[string]float64) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
