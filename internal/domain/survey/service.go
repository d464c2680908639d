package survey

import "context"

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) ListQuestions(ctx context.Context, companyID string) ([]Question, error) {
	return s.Store.ListQuestions(ctx, companyID)
}

func (s *Service) CreateQuestion(ctx context.Context, companyID, text, category string) (string, error) {
	return s.Store.CreateQuestion(ctx, companyID, text, category)
}

func (s *Service) UpdateQuestion(ctx context.Context, companyID, questionID, text, category string) error {
	return s.Store.UpdateQuestion(ctx, companyID, questionID, text, category)
}

func (s *Service) DeleteQuestion(ctx context.Context, companyID, questionID string) error {
	return s.Store.DeleteQuestion(ctx, companyID, questionID)
}
