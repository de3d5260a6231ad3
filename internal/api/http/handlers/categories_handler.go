package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-tracker/internal/api/dto"
	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
	"github.com/spec-kit/asset-tracker/internal/service"
)

// CategoriesHandler exposes category endpoints.
type CategoriesHandler struct {
	categories *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categories *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// List handles GET /categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	filter := repository.CategoryFilter{Search: optionalQuery(c, "search")}
	if status := optionalQuery(c, "status"); status != nil {
		s := domain.RecordStatus(*status)
		filter.Status = &s
	}
	categories, err := h.categories.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, dto.NewCategoryWithCount(&categories[i]))
	}
	return data(c, http.StatusOK, items)
}

// Get handles GET /categories/:id.
func (h *CategoriesHandler) Get(c *fiber.Ctx) error {
	category, err := h.categories.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewCategoryResponse(category))
}

// Create handles POST /categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CategoryPayload
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	category, err := h.categories.Create(c.UserContext(), p.ID(), categoryInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewCategoryResponse(category))
}

// Update handles PUT /categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CategoryPayload
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	category, err := h.categories.Update(c.UserContext(), p.ID(), c.Params("id"), categoryInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewCategoryResponse(category))
}

// Delete handles DELETE /categories/:id.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.categories.Delete(c.UserContext(), p.ID(), c.Params("id")); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"message": "category deleted"})
}

func categoryInput(req dto.CategoryPayload) service.CategoryInput {
	return service.CategoryInput{Name: req.Name, Code: req.Code, Description: req.Description, Status: req.Status}
}
