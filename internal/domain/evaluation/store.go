package evaluation

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	cryptoutil "evalsphere/internal/platform/crypto"
)

type Store struct {
	DB     *pgxpool.Pool
	Crypto *cryptoutil.Service
}

func NewStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

func (s *Store) CreateSubmission(ctx context.Context, companyID string, sub Submission) (string, error) {
	scoresJSON, err := json.Marshal(sub.Scores)
	if err != nil {
		return "", err
	}

	var commentPlain any = sub.Comment
	var commentEnc []byte
	if s.Crypto != nil && s.Crypto.Configured() {
		commentEnc, err = s.Crypto.EncryptString(sub.Comment)
		if err != nil {
			return "", err
		}
		commentPlain = nil
	}

	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO evaluation_submissions (company_id, evaluator_id, evaluated_id, scores, comment, comment_enc)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id
  `, companyID, sub.EvaluatorID, sub.EvaluatedID, scoresJSON, commentPlain, commentEnc).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrAlreadyEvaluated
		}
		return "", err
	}
	return id, nil
}

func (s *Store) ListSubmissions(ctx context.Context, companyID string) ([]Submission, error) {
	return s.querySubmissions(ctx, `
    SELECT id, company_id, evaluator_id::text, evaluated_id::text, scores, COALESCE(comment, ''), comment_enc, created_at
    FROM evaluation_submissions
    WHERE company_id = $1
    ORDER BY created_at, id
  `, companyID)
}

func (s *Store) ListSubmissionsForEvaluated(ctx context.Context, companyID, employeeID string) ([]Submission, error) {
	return s.querySubmissions(ctx, `
    SELECT id, company_id, evaluator_id::text, evaluated_id::text, scores, COALESCE(comment, ''), comment_enc, created_at
    FROM evaluation_submissions
    WHERE company_id = $1 AND evaluated_id = $2
    ORDER BY created_at, id
  `, companyID, employeeID)
}

// ListEvaluatedIDs returns the ids this evaluator has already covered, used
// by the form to disable completed targets.
func (s *Store) ListEvaluatedIDs(ctx context.Context, companyID, evaluatorID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT evaluated_id::text
    FROM evaluation_submissions
    WHERE company_id = $1 AND evaluator_id = $2
    ORDER BY created_at
  `, companyID, evaluatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) querySubmissions(ctx context.Context, query string, args ...any) ([]Submission, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		var scoresJSON []byte
		var commentPlain string
		var commentEnc []byte
		if err := rows.Scan(&sub.ID, &sub.CompanyID, &sub.EvaluatorID, &sub.EvaluatedID,
			&scoresJSON, &commentPlain, &commentEnc, &sub.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(scoresJSON, &sub.Scores); err != nil {
			return nil, err
		}
		sub.Comment = decryptCommentFallback(s.Crypto, commentEnc, commentPlain)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func decryptCommentFallback(crypto *cryptoutil.Service, encrypted []byte, plain string) string {
	if crypto == nil || !crypto.Configured() || len(encrypted) == 0 {
		return plain
	}
	decrypted, err := crypto.DecryptString(encrypted)
	if err != nil {
		return plain
	}
	return decrypted
}
