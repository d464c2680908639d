package org

import "errors"

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrPositionNotFound   = errors.New("position not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDepartmentMismatch = errors.New("position does not belong to the employee's department")
)
