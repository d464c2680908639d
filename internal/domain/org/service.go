package org

import (
	"context"

	"evalsphere/internal/domain/auth"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) RoleIDByName(ctx context.Context, companyID, name string) (string, error) {
	return s.Store.RoleIDByName(ctx, companyID, name)
}

func (s *Service) Company(ctx context.Context, companyID string) (*Company, error) {
	return s.Store.GetCompany(ctx, companyID)
}

func (s *Service) ListDepartments(ctx context.Context, companyID string) ([]Department, error) {
	return s.Store.ListDepartments(ctx, companyID)
}

func (s *Service) CreateDepartment(ctx context.Context, companyID, name string) (string, error) {
	return s.Store.CreateDepartment(ctx, companyID, name)
}

func (s *Service) UpdateDepartment(ctx context.Context, companyID, departmentID, name string) error {
	return s.Store.UpdateDepartment(ctx, companyID, departmentID, name)
}

func (s *Service) DeleteDepartment(ctx context.Context, companyID, departmentID string) error {
	return s.Store.DeleteDepartment(ctx, companyID, departmentID)
}

func (s *Service) ListPositions(ctx context.Context, companyID string) ([]Position, error) {
	return s.Store.ListPositions(ctx, companyID)
}

func (s *Service) CreatePosition(ctx context.Context, companyID string, pos Position) (string, error) {
	return s.Store.CreatePosition(ctx, companyID, pos)
}

func (s *Service) UpdatePosition(ctx context.Context, companyID, positionID string, pos Position) error {
	return s.Store.UpdatePosition(ctx, companyID, positionID, pos)
}

func (s *Service) DeletePosition(ctx context.Context, companyID, positionID string) error {
	return s.Store.DeletePosition(ctx, companyID, positionID)
}

func (s *Service) Employee(ctx context.Context, companyID, employeeID string) (*Employee, error) {
	return s.Store.GetEmployee(ctx, companyID, employeeID)
}

func (s *Service) EmployeeByUserID(ctx context.Context, companyID, userID string) (*Employee, error) {
	return s.Store.GetEmployeeByUserID(ctx, companyID, userID)
}

func (s *Service) ListEmployees(ctx context.Context, companyID string) ([]Employee, error) {
	return s.Store.ListEmployees(ctx, companyID)
}

// CreateEmployee provisions the employee and a login account with the
// employee role. The caller supplies the initial password.
func (s *Service) CreateEmployee(ctx context.Context, companyID, roleID, password string, emp Employee) (string, error) {
	if emp.PositionID != "" && emp.DepartmentID != "" {
		ok, err := s.Store.PositionBelongsToDepartment(ctx, companyID, emp.PositionID, emp.DepartmentID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrDepartmentMismatch
		}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	return s.Store.CreateEmployeeWithUser(ctx, companyID, roleID, hash, emp)
}

func (s *Service) UpdateEmployee(ctx context.Context, companyID, employeeID string, emp Employee) error {
	if emp.PositionID != "" && emp.DepartmentID != "" {
		ok, err := s.Store.PositionBelongsToDepartment(ctx, companyID, emp.PositionID, emp.DepartmentID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDepartmentMismatch
		}
	}
	return s.Store.UpdateEmployee(ctx, companyID, employeeID, emp)
}

func (s *Service) DeleteEmployee(ctx context.Context, companyID, employeeID string) error {
	return s.Store.DeleteEmployeeWithUser(ctx, companyID, employeeID)
}
