package dto

import (
	"time"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// EmployeePayload is the employee create/update body. JoiningDate accepts
// YYYY-MM-DD or RFC3339.
type EmployeePayload struct {
	EmployeeID  *string              `json:"employeeId"`
	Name        *string              `json:"name"`
	Department  *string              `json:"department"`
	Designation *string              `json:"designation"`
	Contact     *string              `json:"contact"`
	Email       *string              `json:"email"`
	Branch      *string              `json:"branch"`
	Status      *domain.RecordStatus `json:"status"`
	JoiningDate *string              `json:"joiningDate"`
}

// EmployeeResponse is the full employee representation.
type EmployeeResponse struct {
	ID          string              `json:"id"`
	EmployeeID  string              `json:"employeeId"`
	Name        string              `json:"name"`
	Department  string              `json:"department"`
	Designation *string             `json:"designation"`
	Contact     *string             `json:"contact"`
	Email       string              `json:"email"`
	Branch      string              `json:"branch"`
	Status      domain.RecordStatus `json:"status"`
	JoiningDate *time.Time          `json:"joiningDate"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// EmployeeListResponse is one page of employees.
type EmployeeListResponse struct {
	Employees []EmployeeResponse `json:"employees"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	Pages     int                `json:"pages"`
}

// NewEmployeeResponse maps an employee.
func NewEmployeeResponse(e *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:          e.ID,
		EmployeeID:  e.EmployeeCode,
		Name:        e.Name,
		Department:  e.Department,
		Designation: e.Designation,
		Contact:     e.Contact,
		Email:       e.Email,
		Branch:      e.Branch,
		Status:      e.Status,
		JoiningDate: e.JoiningDate,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
