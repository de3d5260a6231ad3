package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

// EmployeeService manages the people assets are issued to.
type EmployeeService struct {
	employees repository.EmployeeRepository
	logger    *zap.Logger
}

// EmployeeInput carries writable employee fields; nil leaves a field
// unchanged on update.
type EmployeeInput struct {
	EmployeeCode *string
	Name         *string
	Department   *string
	Designation  *string
	Contact      *string
	Email        *string
	Branch       *string
	Status       *domain.RecordStatus
	JoiningDate  *time.Time
}

// EmployeeQuery filters the employee listing.
type EmployeeQuery struct {
	Search     *string
	Status     *domain.RecordStatus
	Department *string
	PageRequest
}

// EmployeePage is one page of employees.
type EmployeePage struct {
	Employees []domain.Employee
	Total     int
	Page      int
	Pages     int
}

// NewEmployeeService constructs the service.
func NewEmployeeService(employees repository.EmployeeRepository, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{employees: employees, logger: loggerOrNop(logger)}
}

// Create adds an employee.
func (s *EmployeeService) Create(ctx context.Context, input EmployeeInput) (*domain.Employee, error) {
	employee := &domain.Employee{Status: domain.StatusActive, Branch: domain.DefaultBranch}
	if err := applyEmployeeInput(employee, input, true); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, employee, ""); err != nil {
		return nil, err
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	s.logger.Info("employee created", zap.String("employee_id", employee.ID))
	return employee, nil
}

// Get loads one employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "employee")
	}
	return employee, nil
}

// List returns one page of employees, newest first.
func (s *EmployeeService) List(ctx context.Context, query EmployeeQuery) (*EmployeePage, error) {
	if query.Status != nil && !query.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
	}
	page, limit, offset := query.normalize(10)
	filter := repository.EmployeeFilter{
		Search:     query.Search,
		Status:     query.Status,
		Department: query.Department,
		Limit:      limit,
		Offset:     offset,
	}
	employees, err := s.employees.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.employees.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &EmployeePage{Employees: employees, Total: total, Page: page, Pages: PageCount(total, limit)}, nil
}

// Update changes an employee.
func (s *EmployeeService) Update(ctx context.Context, id string, input EmployeeInput) (*domain.Employee, error) {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyEmployeeInput(employee, input, false); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, employee, id); err != nil {
		return nil, err
	}
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, notFoundAs(err, "employee")
	}
	return employee, nil
}

// Delete removes an employee. History records keep their entries with the
// employee reference cleared; employees with asset requests cannot be deleted.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if err := s.employees.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("employee", nil)
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("employee deleted", zap.String("employee_id", id))
	return nil
}

// Departments lists distinct department names.
func (s *EmployeeService) Departments(ctx context.Context) ([]string, error) {
	return s.employees.Departments(ctx)
}

func (s *EmployeeService) checkConflict(ctx context.Context, employee *domain.Employee, excludeID string) error {
	field, err := s.employees.FindConflict(ctx, employee.EmployeeCode, employee.Email, excludeID)
	if err != nil {
		return err
	}
	if field != "" {
		return conflictError(field)
	}
	return nil
}

func applyEmployeeInput(employee *domain.Employee, input EmployeeInput, create bool) error {
	required := []struct {
		field string
		in    *string
		out   *string
	}{
		{"employeeId", input.EmployeeCode, &employee.EmployeeCode},
		{"name", input.Name, &employee.Name},
		{"department", input.Department, &employee.Department},
		{"email", input.Email, &employee.Email},
	}
	for _, r := range required {
		if r.in == nil && !create {
			continue
		}
		value, err := requiredText(r.field, deref(r.in))
		if err != nil {
			return err
		}
		*r.out = value
	}
	if input.Email != nil || create {
		email, err := normalizeEmail(employee.Email)
		if err != nil {
			return err
		}
		employee.Email = email
	}
	if input.Designation != nil {
		employee.Designation = optionalText(input.Designation)
	}
	if input.Contact != nil {
		employee.Contact = optionalText(input.Contact)
	}
	if branch := optionalText(input.Branch); branch != nil {
		employee.Branch = *branch
	}
	if input.JoiningDate != nil {
		employee.JoiningDate = input.JoiningDate
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
		}
		employee.Status = *input.Status
	}
	return nil
}

// normalizeEmail lowercases a bare address and rejects display-name forms.
func normalizeEmail(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	return strings.ToLower(addr.Address), nil
}
