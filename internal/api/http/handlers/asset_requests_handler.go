package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-tracker/internal/api/dto"
	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/service"
)

// AssetRequestsHandler exposes the asset request workflow.
type AssetRequestsHandler struct {
	requests *service.AssetRequestService
}

// NewAssetRequestsHandler constructs handler.
func NewAssetRequestsHandler(requests *service.AssetRequestService) *AssetRequestsHandler {
	return &AssetRequestsHandler{requests: requests}
}

// Create handles POST /asset-requests.
func (h *AssetRequestsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AssetRequestPayload
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	entry, err := h.requests.Create(c.UserContext(), p.User, service.AssetRequestInput{
		CategoryID:    req.CategoryID,
		AssetType:     req.AssetType,
		Justification: req.Justification,
		Priority:      req.Priority,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewAssetRequestResponse(entry))
}

// List handles GET /asset-requests.
func (h *AssetRequestsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var status *domain.RequestStatus
	if raw := optionalQuery(c, "status"); raw != nil {
		s := domain.RequestStatus(*raw)
		status = &s
	}
	entries, err := h.requests.List(c.UserContext(), p.User, status)
	if err != nil {
		return err
	}
	items := make([]dto.AssetRequestResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewAssetRequestResponse(&entries[i]))
	}
	return data(c, http.StatusOK, items)
}

// Get handles GET /asset-requests/:id.
func (h *AssetRequestsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	entry, err := h.requests.Get(c.UserContext(), p.User, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewAssetRequestResponse(entry))
}

// Review handles PATCH /asset-requests/:id/review.
func (h *AssetRequestsHandler) Review(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ReviewPayload
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	entry, err := h.requests.Review(c.UserContext(), p.User, c.Params("id"), service.ReviewInput{
		Status:          req.Status,
		ReviewNotes:     req.ReviewNotes,
		AssignedAssetID: req.AssignedAssetID,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewAssetRequestResponse(entry))
}

// Delete handles DELETE /asset-requests/:id.
func (h *AssetRequestsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.requests.Delete(c.UserContext(), p.User, c.Params("id")); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"message": "asset request deleted"})
}

// PendingCount handles GET /asset-requests/pending/count.
func (h *AssetRequestsHandler) PendingCount(c *fiber.Ctx) error {
	count, err := h.requests.PendingCount(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"count": count})
}
