package reports

import (
	"context"

	"evalsphere/internal/domain/evaluation"
)

type Summary struct {
	Employees   int `json:"employees"`
	Departments int `json:"departments"`
	Questions   int `json:"questions"`
	Completed   int `json:"completedEvaluations"`
	Expected    int `json:"expectedEvaluations"`
	Pending     int `json:"pendingEvaluations"`
}

type Service struct {
	Store       *Store
	Evaluations *evaluation.Service
}

func NewService(store *Store, evaluations *evaluation.Service) *Service {
	return &Service{Store: store, Evaluations: evaluations}
}

// Summary feeds the dashboard cards. Coverage numbers come from a full
// aggregation pass so they always match the results page.
func (s *Service) Summary(ctx context.Context, companyID string) (Summary, error) {
	var out Summary
	var err error
	if out.Employees, err = s.Store.EmployeeCount(ctx, companyID); err != nil {
		return Summary{}, err
	}
	if out.Departments, err = s.Store.DepartmentCount(ctx, companyID); err != nil {
		return Summary{}, err
	}
	if out.Questions, err = s.Store.QuestionCount(ctx, companyID); err != nil {
		return Summary{}, err
	}

	result, err := s.Evaluations.CompanyResults(ctx, companyID)
	if err != nil {
		return Summary{}, err
	}
	out.Completed = result.Stats.Completed
	out.Expected = result.Stats.Expected
	out.Pending = result.Stats.Pending
	return out, nil
}
