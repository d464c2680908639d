package org

import "time"

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LogoURL   string    `json:"logoUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

type Department struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Position sits inside exactly one department. Level is the hierarchy rank
// within that department and a LOWER level means MORE senior: a level-1
// manager outranks a level-2 staff member. The relationship classifier
// depends on this direction.
type Position struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"companyId"`
	DepartmentID string    `json:"departmentId"`
	Title        string    `json:"title"`
	Level        int       `json:"level"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Employee struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"companyId"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	AvatarURL    string    `json:"avatarUrl"`
	DepartmentID string    `json:"departmentId"`
	PositionID   string    `json:"positionId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
