package domain

import "time"

// Employee is a person assets can be issued to.
type Employee struct {
	ID           string
	EmployeeCode string
	Name         string
	Department   string
	Designation  *string
	Contact      *string
	Email        string
	Branch       string
	Status       RecordStatus
	JoiningDate  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmployeeSummary is the slim employee projection joined into history and requests.
type EmployeeSummary struct {
	ID           string
	Name         string
	EmployeeCode string
	Department   string
}

// Summary projects the employee onto EmployeeSummary.
func (e *Employee) Summary() *EmployeeSummary {
	return &EmployeeSummary{
		ID:           e.ID,
		Name:         e.Name,
		EmployeeCode: e.EmployeeCode,
		Department:   e.Department,
	}
}
