package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
)

type employeeRepository struct {
	s session
}

func (r *employeeRepository) Create(_ context.Context, employee *domain.Employee) error {
	return r.s.write(func(st *state) error {
		if err := checkEmployeeUnique(st, employee); err != nil {
			return err
		}
		employee.ID = newID()
		employee.CreatedAt = r.s.db.now()
		employee.UpdatedAt = employee.CreatedAt
		st.employees[employee.ID] = *employee
		return nil
	})
}

func (r *employeeRepository) Update(_ context.Context, employee *domain.Employee) error {
	return r.s.write(func(st *state) error {
		current, ok := st.employees[employee.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		if err := checkEmployeeUnique(st, employee); err != nil {
			return err
		}
		employee.CreatedAt = current.CreatedAt
		employee.UpdatedAt = r.s.db.now()
		st.employees[employee.ID] = *employee
		return nil
	})
}

func checkEmployeeUnique(st *state, employee *domain.Employee) error {
	for id, other := range st.employees {
		if id == employee.ID {
			continue
		}
		if other.EmployeeCode == employee.EmployeeCode {
			return uniqueViolation("employee_code")
		}
		if strings.EqualFold(other.Email, employee.Email) {
			return uniqueViolation("email")
		}
	}
	return nil
}

func (r *employeeRepository) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	var result *domain.Employee
	err := r.s.read(func(st *state) error {
		employee, ok := st.employees[id]
		if !ok {
			return pgx.ErrNoRows
		}
		result = &employee
		return nil
	})
	return result, err
}

func (r *employeeRepository) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	var result *domain.Employee
	err := r.s.read(func(st *state) error {
		for _, employee := range st.employees {
			if strings.EqualFold(employee.Email, email) {
				employee := employee
				result = &employee
				return nil
			}
		}
		return pgx.ErrNoRows
	})
	return result, err
}

func (r *employeeRepository) Delete(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.employees[id]; !ok {
			return pgx.ErrNoRows
		}
		for _, req := range st.requests {
			if req.EmployeeID == id {
				return foreignKeyViolation("asset_requests_employee_id_fkey")
			}
		}
		for historyID, h := range st.history {
			if h.EmployeeID != nil && *h.EmployeeID == id {
				h.EmployeeID = nil
				st.history[historyID] = h
			}
		}
		delete(st.employees, id)
		return nil
	})
}

func (r *employeeRepository) List(_ context.Context, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	result := []domain.Employee{}
	err := r.s.read(func(st *state) error {
		matched := filterEmployees(st, filter)
		from, to := page(len(matched), filter.Limit, filter.Offset, 10)
		result = append(result, matched[from:to]...)
		return nil
	})
	return result, err
}

func (r *employeeRepository) Count(_ context.Context, filter repository.EmployeeFilter) (int, error) {
	var count int
	err := r.s.read(func(st *state) error {
		count = len(filterEmployees(st, filter))
		return nil
	})
	return count, err
}

func (r *employeeRepository) Departments(_ context.Context) ([]string, error) {
	result := []string{}
	err := r.s.read(func(st *state) error {
		seen := map[string]bool{}
		for _, employee := range st.employees {
			if employee.Department == "" || seen[employee.Department] {
				continue
			}
			seen[employee.Department] = true
			result = append(result, employee.Department)
		}
		sort.Strings(result)
		return nil
	})
	return result, err
}

func (r *employeeRepository) FindConflict(_ context.Context, employeeCode, email, excludeID string) (string, error) {
	var field string
	err := r.s.read(func(st *state) error {
		for id, employee := range st.employees {
			if id == excludeID {
				continue
			}
			if employee.EmployeeCode == employeeCode {
				field = "employeeId"
				return nil
			}
			if strings.EqualFold(employee.Email, email) {
				field = "email"
			}
		}
		return nil
	})
	return field, err
}

func filterEmployees(st *state, filter repository.EmployeeFilter) []domain.Employee {
	matched := []domain.Employee{}
	for _, employee := range st.employees {
		if filter.Status != nil && employee.Status != *filter.Status {
			continue
		}
		if filter.Department != nil && employee.Department != *filter.Department {
			continue
		}
		if !matchesAny(filter.Search, employee.Name, employee.Email, employee.EmployeeCode) {
			continue
		}
		matched = append(matched, employee)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}
