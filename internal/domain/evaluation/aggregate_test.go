package evaluation

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"evalsphere/internal/domain/org"
	"evalsphere/internal/domain/survey"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		Employees: []org.Employee{
			{ID: "alice", DepartmentID: "d1", PositionID: "manager", Name: "Alice"},
			{ID: "bob", DepartmentID: "d1", PositionID: "staff", Name: "Bob"},
			{ID: "carol", DepartmentID: "d1", PositionID: "staff", Name: "Carol"},
		},
		Positions: []org.Position{
			{ID: "manager", DepartmentID: "d1", Level: 1},
			{ID: "staff", DepartmentID: "d1", Level: 2},
		},
		Questions: []survey.Question{
			{ID: "q1", Category: "Liderazgo"},
			{ID: "q2", Category: "Comunicación"},
		},
	}
}

func at(seconds int) time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(seconds) * time.Second)
}

func TestAggregateCategoryAveragesAndBreakdown(t *testing.T) {
	snap := baseSnapshot()
	snap.Submissions = []Submission{
		{ID: "s1", EvaluatorID: "alice", EvaluatedID: "bob", Scores: map[string]int{"q1": 5}, CreatedAt: at(0)},
		{ID: "s2", EvaluatorID: "carol", EvaluatedID: "bob", Scores: map[string]int{"q1": 3}, CreatedAt: at(1)},
	}

	result, err := Aggregate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result.EmployeeCategoryAverages["bob"]["Liderazgo"]; got != 4 {
		t.Fatalf("expected Liderazgo average 4, got %v", got)
	}
	if got := result.RelationshipBreakdown["bob"]["Liderazgo"][RelationshipSuperior]; got != 5 {
		t.Fatalf("expected superior bucket 5, got %v", got)
	}
	if got := result.RelationshipBreakdown["bob"]["Liderazgo"][RelationshipPeer]; got != 3 {
		t.Fatalf("expected peer bucket 3, got %v", got)
	}
	if _, ok := result.RelationshipBreakdown["bob"]["Liderazgo"][RelationshipSubordinate]; ok {
		t.Fatal("subordinate bucket should be absent, not zero-filled")
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", result.Warnings)
	}
}

func TestAggregateSelfBucket(t *testing.T) {
	snap := baseSnapshot()
	snap.Submissions = []Submission{
		{ID: "s1", EvaluatorID: "bob", EvaluatedID: "bob", Scores: map[string]int{"q1": 4}, CreatedAt: at(0)},
	}

	result, err := Aggregate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.RelationshipBreakdown["bob"]["Liderazgo"][RelationshipSelf]; got != 4 {
		t.Fatalf("expected self bucket 4, got %v", got)
	}
}

func TestAggregateDanglingEvaluator(t *testing.T) {
	snap := baseSnapshot()
	snap.Submissions = []Submission{
		{ID: "s1", EvaluatorID: "dave", EvaluatedID: "bob", Scores: map[string]int{"q2": 5}, CreatedAt: at(0)},
	}

	result, err := Aggregate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The score still counts toward the unsegmented average.
	if got := result.EmployeeCategoryAverages["bob"]["Comunicación"]; got != 5 {
		t.Fatalf("expected Comunicación average 5, got %v", got)
	}
	// But no classified bucket can be attributed to it.
	if _, ok := result.RelationshipBreakdown["bob"]; ok {
		t.Fatal("expected no relationship breakdown for an unclassifiable submission")
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != WarnMissingReference {
		t.Fatalf("expected a missing_reference warning, got %v", result.Warnings)
	}
}

func TestAggregateMalformedScore(t *testing.T) {
	snap := baseSnapshot()
	snap.Submissions = []Submission{
		{ID: "s1", EvaluatorID: "alice", EvaluatedID: "bob", Scores: map[string]int{"q1": 9, "q2": 4}, CreatedAt: at(0)},
	}

	result, err := Aggregate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := result.EmployeeCategoryAverages["bob"]["Liderazgo"]; ok {
		t.Fatal("out-of-range score must not contribute a data point")
	}
	if got := result.EmployeeCategoryAverages["bob"]["Comunicación"]; got != 4 {
		t.Fatalf("valid score in the same submission should survive, got %v", got)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != WarnMalformedScore {
		t.Fatalf("expected a malformed_score warning, got %v", result.Warnings)
	}
}

func TestAggregateUnknownQuestion(t *testing.T) {
	snap := baseSnapshot()
	snap.Submissions = []Submission{
		{ID: "s1", EvaluatorID: "alice", EvaluatedID: "bob", Scores: map[string]int{"deleted": 5}, CreatedAt: at(0)},
	}

	result, err := Aggregate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.EmployeeCategoryAverages) != 0 {
		t.Fatalf("score for a deleted question must be dropped, got %v", result.EmployeeCategoryAverages)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != WarnMissingReference {
		t.Fatalf("expected a missing_reference warning, got %v", result.Warnings)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	result, err := Aggregate(baseSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.EmployeeCategoryAverages) != 0 || len(result.DepartmentCategoryAverages) != 0 {
		t.Fatal("expected empty maps for a snapshot with no submissions")
	}
	if result.Stats.Completed != 0 {
		t.Fatalf("expected 0 completed, got %d", result.Stats.Completed)
	}
	// Three employees in one department: 3*3 expected pairs.
	if result.Stats.Expected != 9 || result.Stats.Pending != 9 {
		t.Fatalf("expected 9 expected/pending, got %+v", result.Stats)
	}
}

func TestAggregateNilReferenceData(t *testing.T) {
	snap := Snapshot{
		Submissions: []Submission{
			{ID: "s1", EvaluatorID: "alice", EvaluatedID: "bob", Scores: map[string]int{"q1": 5}, CreatedAt: at(0)},
		},
	}
	if _, err := Aggregate(snap); !errors.Is(err, ErrNoReferenceData) {
		t.Fatalf("expected ErrNoReferenceData, got %v", err)
	}
}

func TestAggregateDepartmentMeanOfMeans(t *testing.T) {
	snap := baseSnapshot()
	// Bob averages 5, Carol averages 3; the department average is the mean
	// of those employee means, not a reweighting over raw scores.
	snap.Submissions = []Submission{
		{ID: "s1", EvaluatorID: "alice", EvaluatedID: "bob", Scores: map[string]int{"q1": 5}, CreatedAt: at(0)},
		{ID: "s2", EvaluatorID: "alice", EvaluatedID: "carol", Scores: map[string]int{"q1": 3}, CreatedAt: at(1)},
		{ID: "s3", EvaluatorID: "bob", EvaluatedID: "carol", Scores: map[string]int{"q1": 3}, CreatedAt: at(2)},
	}

	result, err := Aggregate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.DepartmentCategoryAverages["d1"]["Liderazgo"]; got != 4 {
		t.Fatalf("expected department average 4, got %v", got)
	}
}

func TestAggregateComments(t *testing.T) {
	snap := baseSnapshot()
	snap.Submissions = []Submission{
		{ID: "s1", EvaluatorID: "alice", EvaluatedID: "bob", Scores: map[string]int{"q1": 5}, Comment: "Gran trabajo", CreatedAt: at(0)},
		{ID: "s2", EvaluatorID: "carol", EvaluatedID: "bob", Scores: map[string]int{"q1": 3}, CreatedAt: at(1)},
	}

	result, err := Aggregate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	comments := result.CommentsByEmployee["bob"]
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment (empty ones dropped), got %d", len(comments))
	}
	if comments[0].EvaluatorName != "Alice" || comments[0].Relationship != "Jefe" {
		t.Fatalf("unexpected comment annotation: %+v", comments[0])
	}
}

func TestAggregateDeterministicAndPure(t *testing.T) {
	snap := baseSnapshot()
	snap.Submissions = []Submission{
		{ID: "s2", EvaluatorID: "carol", EvaluatedID: "bob", Scores: map[string]int{"q1": 3, "q2": 4}, CreatedAt: at(1)},
		{ID: "s1", EvaluatorID: "alice", EvaluatedID: "bob", Scores: map[string]int{"q1": 5, "q2": 2}, CreatedAt: at(0)},
	}

	first, err := Aggregate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Aggregate(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("aggregate must be deterministic for identical input")
	}
	// Inputs stay untouched: the aggregator sorts a copy.
	if snap.Submissions[0].ID != "s2" || snap.Submissions[1].ID != "s1" {
		t.Fatal("aggregate must not reorder the caller's slice")
	}
}

func TestGlobalPercentage(t *testing.T) {
	value, ok := GlobalPercentage(map[string]float64{"A": 4, "B": 2})
	if !ok {
		t.Fatal("expected a value for non-empty averages")
	}
	if math.Abs(value-60) > 1e-9 {
		t.Fatalf("expected 60, got %v", value)
	}

	if _, ok := GlobalPercentage(nil); ok {
		t.Fatal("expected no value for empty averages")
	}
}

func TestCoverageStatsMultipleDepartments(t *testing.T) {
	employees := []org.Employee{
		{ID: "a", DepartmentID: "d1"},
		{ID: "b", DepartmentID: "d1"},
		{ID: "c", DepartmentID: "d2"},
		{ID: "d", DepartmentID: ""},
	}
	stats := coverageStats(3, employees)
	// d1 contributes 2*2, d2 contributes 1*1; the unassigned employee none.
	if stats.Expected != 5 {
		t.Fatalf("expected 5, got %d", stats.Expected)
	}
	if stats.Completed != 3 || stats.Pending != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
