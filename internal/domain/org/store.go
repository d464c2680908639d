package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions rp
    JOIN permissions p ON rp.permission_id = p.id
    WHERE rp.role_id = $1 AND p.key = $2
  `, roleID, permission).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RoleIDByName(ctx context.Context, companyID, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM roles WHERE company_id = $1 AND name = $2
  `, companyID, name).Scan(&id)
	return id, err
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (*Company, error) {
	var c Company
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(logo_url, ''), created_at
    FROM companies
    WHERE id = $1
  `, companyID).Scan(&c.ID, &c.Name, &c.LogoURL, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListDepartments(ctx context.Context, companyID string) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, name, created_at
    FROM departments
    WHERE company_id = $1
    ORDER BY name
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, companyID, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (company_id, name) VALUES ($1, $2) RETURNING id
  `, companyID, name).Scan(&id)
	return id, err
}

func (s *Store) UpdateDepartment(ctx context.Context, companyID, departmentID, name string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE departments SET name = $1 WHERE company_id = $2 AND id = $3
  `, name, companyID, departmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

func (s *Store) DeleteDepartment(ctx context.Context, companyID, departmentID string) error {
	cmd, err := s.DB.Exec(ctx, `
    DELETE FROM departments WHERE company_id = $1 AND id = $2
  `, companyID, departmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

func (s *Store) ListPositions(ctx context.Context, companyID string) ([]Position, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, department_id, title, level, created_at
    FROM positions
    WHERE company_id = $1
    ORDER BY department_id, level, title
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.DepartmentID, &p.Title, &p.Level, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CreatePosition(ctx context.Context, companyID string, pos Position) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO positions (company_id, department_id, title, level)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, companyID, pos.DepartmentID, pos.Title, pos.Level).Scan(&id)
	return id, err
}

func (s *Store) UpdatePosition(ctx context.Context, companyID, positionID string, pos Position) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE positions
    SET department_id = $1, title = $2, level = $3
    WHERE company_id = $4 AND id = $5
  `, pos.DepartmentID, pos.Title, pos.Level, companyID, positionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (s *Store) DeletePosition(ctx context.Context, companyID, positionID string) error {
	cmd, err := s.DB.Exec(ctx, `
    DELETE FROM positions WHERE company_id = $1 AND id = $2
  `, companyID, positionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, companyID, employeeID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, company_id, COALESCE(user_id::text, ''), name, email,
           COALESCE(avatar_url, ''),
           COALESCE(department_id::text, ''),
           COALESCE(position_id::text, ''),
           created_at, updated_at
    FROM employees
    WHERE company_id = $1 AND id = $2
  `, companyID, employeeID)

	var emp Employee
	err := row.Scan(&emp.ID, &emp.CompanyID, &emp.UserID, &emp.Name, &emp.Email,
		&emp.AvatarURL, &emp.DepartmentID, &emp.PositionID, &emp.CreatedAt, &emp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) GetEmployeeByUserID(ctx context.Context, companyID, userID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, company_id, COALESCE(user_id::text, ''), name, email,
           COALESCE(avatar_url, ''),
           COALESCE(department_id::text, ''),
           COALESCE(position_id::text, ''),
           created_at, updated_at
    FROM employees
    WHERE company_id = $1 AND user_id = $2
  `, companyID, userID)

	var emp Employee
	err := row.Scan(&emp.ID, &emp.CompanyID, &emp.UserID, &emp.Name, &emp.Email,
		&emp.AvatarURL, &emp.DepartmentID, &emp.PositionID, &emp.CreatedAt, &emp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, COALESCE(user_id::text, ''), name, email,
           COALESCE(avatar_url, ''),
           COALESCE(department_id::text, ''),
           COALESCE(position_id::text, ''),
           created_at, updated_at
    FROM employees
    WHERE company_id = $1
    ORDER BY name
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.CompanyID, &emp.UserID, &emp.Name, &emp.Email,
			&emp.AvatarURL, &emp.DepartmentID, &emp.PositionID, &emp.CreatedAt, &emp.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

// CreateEmployeeWithUser creates the login account and the employee row in a
// single transaction so a failed half never leaves an orphaned account.
func (s *Store) CreateEmployeeWithUser(ctx context.Context, companyID, roleID, passwordHash string, emp Employee) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID string
	err = tx.QueryRow(ctx, `
    INSERT INTO users (company_id, role_id, email, password_hash, status)
    VALUES ($1, $2, $3, $4, 'active')
    RETURNING id
  `, companyID, roleID, emp.Email, passwordHash).Scan(&userID)
	if err != nil {
		return "", err
	}

	var employeeID string
	err = tx.QueryRow(ctx, `
    INSERT INTO employees (company_id, user_id, name, email, avatar_url, department_id, position_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
  `, companyID, userID, emp.Name, emp.Email, emp.AvatarURL,
		nullIfEmpty(emp.DepartmentID), nullIfEmpty(emp.PositionID)).Scan(&employeeID)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return employeeID, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, companyID, employeeID string, emp Employee) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET name = $1,
        email = $2,
        avatar_url = $3,
        department_id = $4,
        position_id = $5,
        updated_at = now()
    WHERE company_id = $6 AND id = $7
  `, emp.Name, emp.Email, emp.AvatarURL,
		nullIfEmpty(emp.DepartmentID), nullIfEmpty(emp.PositionID), companyID, employeeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// DeleteEmployeeWithUser removes the employee row and its login account
// together. Submissions referencing the employee are kept; the aggregator
// treats them as dangling references.
func (s *Store) DeleteEmployeeWithUser(ctx context.Context, companyID, employeeID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID *string
	err = tx.QueryRow(ctx, `
    DELETE FROM employees WHERE company_id = $1 AND id = $2
    RETURNING user_id::text
  `, companyID, employeeID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEmployeeNotFound
	}
	if err != nil {
		return err
	}

	if userID != nil && *userID != "" {
		if _, err := tx.Exec(ctx, "DELETE FROM users WHERE company_id = $1 AND id = $2", companyID, *userID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) PositionBelongsToDepartment(ctx context.Context, companyID, positionID, departmentID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM positions
    WHERE company_id = $1 AND id = $2 AND department_id = $3
  `, companyID, positionID, departmentID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
