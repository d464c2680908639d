package evaluation

import (
	"context"
	"log/slog"

	"evalsphere/internal/domain/org"
	"evalsphere/internal/domain/survey"
	"evalsphere/internal/platform/metrics"
)

type Service struct {
	Store   *Store
	Org     *org.Store
	Survey  *survey.Store
	Metrics *metrics.Collector
}

func NewService(store *Store, orgStore *org.Store, surveyStore *survey.Store, collector *metrics.Collector) *Service {
	return &Service{Store: store, Org: orgStore, Survey: surveyStore, Metrics: collector}
}

// Submit validates and persists one evaluation. Scores are range-checked at
// this ingestion boundary so the aggregator only ever sees anomalies that
// arrived through older data.
func (s *Service) Submit(ctx context.Context, companyID string, sub Submission) (string, error) {
	if len(sub.Scores) == 0 {
		return "", ErrInvalidScore
	}
	for _, score := range sub.Scores {
		if score < 1 || score > 5 {
			return "", ErrInvalidScore
		}
	}
	return s.Store.CreateSubmission(ctx, companyID, sub)
}

func (s *Service) EvaluatedIDs(ctx context.Context, companyID, evaluatorID string) ([]string, error) {
	return s.Store.ListEvaluatedIDs(ctx, companyID, evaluatorID)
}

// ClassifyTargets labels each listed employee with the evaluator's
// relationship to them, which drives the grouping on the submission form.
func (s *Service) ClassifyTargets(ctx context.Context, companyID, evaluatorID string) (map[string]string, error) {
	snap, err := s.loadReferenceData(ctx, companyID)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]org.Position, len(snap.Positions))
	for _, pos := range snap.Positions {
		positions[pos.ID] = pos
	}

	var evaluator org.Employee
	for _, emp := range snap.Employees {
		if emp.ID == evaluatorID {
			evaluator = emp
			break
		}
	}

	out := make(map[string]string, len(snap.Employees))
	for _, emp := range snap.Employees {
		out[emp.ID] = Classify(evaluator, emp, positions).Label()
	}
	return out, nil
}

// CompanyResults recomputes the full aggregation from source records. There
// is no materialized view; every call reflects the current snapshot.
func (s *Service) CompanyResults(ctx context.Context, companyID string) (*Result, error) {
	snap, err := s.loadReferenceData(ctx, companyID)
	if err != nil {
		return nil, err
	}
	snap.Submissions, err = s.Store.ListSubmissions(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.aggregate(companyID, snap)
}

// EmployeeResults aggregates only the submissions targeting one employee.
// Department rollups are omitted since a single employee's submissions
// cannot stand in for their department.
func (s *Service) EmployeeResults(ctx context.Context, companyID, employeeID string) (*Result, error) {
	snap, err := s.loadReferenceData(ctx, companyID)
	if err != nil {
		return nil, err
	}
	snap.Submissions, err = s.Store.ListSubmissionsForEvaluated(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	result, err := s.aggregate(companyID, snap)
	if err != nil {
		return nil, err
	}
	result.DepartmentCategoryAverages = map[string]map[string]float64{}
	return result, nil
}

func (s *Service) aggregate(companyID string, snap Snapshot) (*Result, error) {
	result, err := Aggregate(snap)
	if err != nil {
		return nil, err
	}
	for _, warning := range result.Warnings {
		slog.Warn("aggregation anomaly",
			"companyId", companyID,
			"kind", warning.Kind,
			"submissionId", warning.SubmissionID,
			"detail", warning.Detail,
		)
	}
	if s.Metrics != nil {
		s.Metrics.RecordAggregation(len(result.Warnings))
	}
	return result, nil
}

func (s *Service) loadReferenceData(ctx context.Context, companyID string) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Employees, err = s.Org.ListEmployees(ctx, companyID); err != nil {
		return Snapshot{}, err
	}
	if snap.Positions, err = s.Org.ListPositions(ctx, companyID); err != nil {
		return Snapshot{}, err
	}
	if snap.Questions, err = s.Survey.ListQuestions(ctx, companyID); err != nil {
		return Snapshot{}, err
	}
	// Empty companies legitimately return nil slices; the aggregator only
	// rejects nil reference data when submissions exist, so normalize here.
	if snap.Employees == nil {
		snap.Employees = []org.Employee{}
	}
	if snap.Positions == nil {
		snap.Positions = []org.Position{}
	}
	if snap.Questions == nil {
		snap.Questions = []survey.Question{}
	}
	return snap, nil
}
