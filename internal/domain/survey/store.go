package survey

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrQuestionNotFound = errors.New("survey question not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListQuestions(ctx context.Context, companyID string) ([]Question, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, question, category, created_at
    FROM survey_questions
    WHERE company_id = $1
    ORDER BY category, created_at
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.CompanyID, &q.Text, &q.Category, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) CreateQuestion(ctx context.Context, companyID, text, category string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO survey_questions (company_id, question, category)
    VALUES ($1, $2, $3)
    RETURNING id
  `, companyID, text, category).Scan(&id)
	return id, err
}

func (s *Store) UpdateQuestion(ctx context.Context, companyID, questionID, text, category string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE survey_questions
    SET question = $1, category = $2
    WHERE company_id = $3 AND id = $4
  `, text, category, companyID, questionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, companyID, questionID string) error {
	cmd, err := s.DB.Exec(ctx, `
    DELETE FROM survey_questions WHERE company_id = $1 AND id = $2
  `, companyID, questionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}
