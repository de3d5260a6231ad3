package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// EmployeeFilter defines query params for employee listing.
type EmployeeFilter struct {
	Search     *string
	Status     *domain.RecordStatus
	Department *string
	Limit      int
	Offset     int
}

// EmployeeRepository handles persistence for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error)
	Count(ctx context.Context, filter EmployeeFilter) (int, error)
	Departments(ctx context.Context) ([]string, error)
	// FindConflict returns "employeeId" or "email" when another employee
	// already uses that value, or "" when both are free.
	FindConflict(ctx context.Context, employeeCode, email, excludeID string) (string, error)
}

type employeeRepository struct {
	db DBTX
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(db DBTX) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `id, employee_code, name, department, designation, contact, email, branch, status,
               joining_date, created_at, updated_at`

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (employee_code, name, department, designation, contact, email, branch, status, joining_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		employee.EmployeeCode,
		employee.Name,
		employee.Department,
		employee.Designation,
		employee.Contact,
		employee.Email,
		employee.Branch,
		employee.Status,
		employee.JoiningDate,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	const query = `
        UPDATE employees SET employee_code=$1, name=$2, department=$3, designation=$4, contact=$5, email=$6,
            branch=$7, status=$8, joining_date=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		employee.EmployeeCode,
		employee.Name,
		employee.Department,
		employee.Designation,
		employee.Contact,
		employee.Email,
		employee.Branch,
		employee.Status,
		employee.JoiningDate,
		employee.ID,
	).Scan(&employee.UpdatedAt)
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	return r.fetchSingle(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=$1`, id)
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	return r.fetchSingle(ctx, `SELECT `+employeeColumns+` FROM employees WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *employeeRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Employee, error) {
	var employee domain.Employee
	if err := r.db.QueryRow(ctx, query, arg).Scan(employeeScanTargets(&employee)...); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error) {
	where, args := employeeWhere(filter)
	limit, offset := Page(filter.Limit, filter.Offset, 10)
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		employeeColumns, where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Employee{}
	for rows.Next() {
		var employee domain.Employee
		if err := rows.Scan(employeeScanTargets(&employee)...); err != nil {
			return nil, err
		}
		result = append(result, employee)
	}
	return result, rows.Err()
}

func (r *employeeRepository) Count(ctx context.Context, filter EmployeeFilter) (int, error) {
	where, args := employeeWhere(filter)
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *employeeRepository) Departments(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT department FROM employees WHERE department <> '' ORDER BY department`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var dept string
		if err := rows.Scan(&dept); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

func (r *employeeRepository) FindConflict(ctx context.Context, employeeCode, email, excludeID string) (string, error) {
	const query = `
        SELECT employee_code = $1 AS code_taken
        FROM employees
        WHERE (employee_code=$1 OR LOWER(email)=LOWER($2)) AND ($3 = '' OR id::text <> $3)
        ORDER BY code_taken DESC
        LIMIT 1`
	var codeTaken bool
	err := r.db.QueryRow(ctx, query, employeeCode, email, excludeID).Scan(&codeTaken)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if codeTaken {
		return "employeeId", nil
	}
	return "email", nil
}

func employeeWhere(filter EmployeeFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, containsPattern(*filter.Search))
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(name ILIKE %[1]s ESCAPE '\\' OR email ILIKE %[1]s ESCAPE '\\' OR employee_code ILIKE %[1]s ESCAPE '\\')", placeholder))
	}
	return strings.Join(clauses, " AND "), args
}

func employeeScanTargets(employee *domain.Employee) []any {
	return []any{
		&employee.ID,
		&employee.EmployeeCode,
		&employee.Name,
		&employee.Department,
		&employee.Designation,
		&employee.Contact,
		&employee.Email,
		&employee.Branch,
		&employee.Status,
		&employee.JoiningDate,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	}
}
