package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) EmployeeCount(ctx context.Context, companyID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM employees WHERE company_id = $1", companyID)
}

func (s *Store) DepartmentCount(ctx context.Context, companyID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM departments WHERE company_id = $1", companyID)
}

func (s *Store) QuestionCount(ctx context.Context, companyID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM survey_questions WHERE company_id = $1", companyID)
}

func (s *Store) SubmissionCount(ctx context.Context, companyID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM evaluation_submissions WHERE company_id = $1", companyID)
}

func (s *Store) count(ctx context.Context, query, companyID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, query, companyID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
