package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-tracker/internal/api/dto"
	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/service"
)

// EmployeesHandler exposes employee endpoints.
type EmployeesHandler struct {
	employees *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employees *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{employees: employees}
}

// List handles GET /employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	query := service.EmployeeQuery{
		Search:      optionalQuery(c, "search"),
		Department:  optionalQuery(c, "department"),
		PageRequest: pageRequest(c),
	}
	if status := optionalQuery(c, "status"); status != nil {
		s := domain.RecordStatus(*status)
		query.Status = &s
	}
	page, err := h.employees.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	items := make([]dto.EmployeeResponse, 0, len(page.Employees))
	for i := range page.Employees {
		items = append(items, dto.NewEmployeeResponse(&page.Employees[i]))
	}
	return data(c, http.StatusOK, dto.EmployeeListResponse{Employees: items, Total: page.Total, Page: page.Page, Pages: page.Pages})
}

// Departments handles GET /employees/departments/list.
func (h *EmployeesHandler) Departments(c *fiber.Ctx) error {
	departments, err := h.employees.Departments(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, departments)
}

// Get handles GET /employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	employee, err := h.employees.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEmployeeResponse(employee))
}

// Create handles POST /employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	input, err := employeeInput(c)
	if err != nil {
		return err
	}
	employee, err := h.employees.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewEmployeeResponse(employee))
}

// Update handles PUT /employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	input, err := employeeInput(c)
	if err != nil {
		return err
	}
	employee, err := h.employees.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEmployeeResponse(employee))
}

// Delete handles DELETE /employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	if err := h.employees.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"message": "employee deleted"})
}

func employeeInput(c *fiber.Ctx) (service.EmployeeInput, error) {
	var req dto.EmployeePayload
	if err := bindJSON(c, &req); err != nil {
		return service.EmployeeInput{}, err
	}
	joiningDate, err := parseDate("joiningDate", req.JoiningDate)
	if err != nil {
		return service.EmployeeInput{}, err
	}
	return service.EmployeeInput{
		EmployeeCode: req.EmployeeID,
		Name:         req.Name,
		Department:   req.Department,
		Designation:  req.Designation,
		Contact:      req.Contact,
		Email:        req.Email,
		Branch:       req.Branch,
		Status:       req.Status,
		JoiningDate:  joiningDate,
	}, nil
}
