package dto

import (
	"time"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// CategoryPayload is the category create/update body.
type CategoryPayload struct {
	Name        *string              `json:"name"`
	Code        *string              `json:"code"`
	Description *string              `json:"description"`
	Status      *domain.RecordStatus `json:"status"`
}

// CategoryResponse is a category, with its asset count when listed.
type CategoryResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Code        string              `json:"code"`
	Description *string             `json:"description"`
	Status      domain.RecordStatus `json:"status"`
	AssetCount  *int                `json:"assetCount,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// NewCategoryResponse maps a category.
func NewCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Code:        c.Code,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// NewCategoryWithCount maps a listed category.
func NewCategoryWithCount(c *domain.CategoryWithCount) CategoryResponse {
	resp := NewCategoryResponse(&c.Category)
	count := c.AssetCount
	resp.AssetCount = &count
	return resp
}
