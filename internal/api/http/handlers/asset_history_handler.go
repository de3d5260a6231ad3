package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-tracker/internal/api/dto"
	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/report"
	"github.com/spec-kit/asset-tracker/internal/service"
)

// AssetHistoryHandler exposes the lifecycle engine and the audit trail.
type AssetHistoryHandler struct {
	lifecycle *service.LifecycleService
	now       func() time.Time
}

// NewAssetHistoryHandler constructs handler.
func NewAssetHistoryHandler(lifecycle *service.LifecycleService) *AssetHistoryHandler {
	return &AssetHistoryHandler{lifecycle: lifecycle, now: time.Now}
}

// Issue handles POST /asset-history/issue.
func (h *AssetHistoryHandler) Issue(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.IssueRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	entry, err := h.lifecycle.Issue(c.UserContext(), p.ID(), service.IssueInput{
		AssetID:    req.AssetID,
		EmployeeID: req.EmployeeID,
		Condition:  req.Condition,
		Notes:      req.Notes,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewHistoryResponse(entry))
}

// Return handles POST /asset-history/return.
func (h *AssetHistoryHandler) Return(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ReturnRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	entry, err := h.lifecycle.Return(c.UserContext(), p.ID(), service.ReturnInput{
		AssetID:   req.AssetID,
		Condition: req.Condition,
		Reason:    req.Reason,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewHistoryResponse(entry))
}

// Scrap handles POST /asset-history/scrap.
func (h *AssetHistoryHandler) Scrap(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ScrapRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	entry, err := h.lifecycle.Scrap(c.UserContext(), p.ID(), service.ScrapInput{
		AssetID: req.AssetID,
		Reason:  req.Reason,
		Notes:   req.Notes,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewHistoryResponse(entry))
}

// List handles GET /asset-history.
func (h *AssetHistoryHandler) List(c *fiber.Ctx) error {
	query, err := historyQuery(c)
	if err != nil {
		return err
	}
	page, err := h.lifecycle.ListHistory(c.UserContext(), query)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.HistoryListResponse{
		History: dto.NewHistoryList(page.Entries),
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
	})
}

// Timeline handles GET /asset-history/timeline/:assetId.
func (h *AssetHistoryHandler) Timeline(c *fiber.Ctx) error {
	entries, err := h.lifecycle.Timeline(c.UserContext(), c.Params("assetId"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewHistoryList(entries))
}

// ReportPDF handles GET /asset-history/report/pdf.
func (h *AssetHistoryHandler) ReportPDF(c *fiber.Ctx) error {
	query, err := historyQuery(c)
	if err != nil {
		return err
	}
	entries, err := h.lifecycle.ReportEntries(c.UserContext(), query)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.RenderHistory(&buf, report.HistoryReport{
		GeneratedAt: h.now(),
		StartDate:   query.StartDate,
		EndDate:     query.EndDate,
		Entries:     entries,
	}); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="asset-history-report.pdf"`)
	return c.Status(http.StatusOK).Send(buf.Bytes())
}

func historyQuery(c *fiber.Ctx) (service.HistoryQuery, error) {
	start, err := parseDate("startDate", optionalQuery(c, "startDate"))
	if err != nil {
		return service.HistoryQuery{}, err
	}
	end, err := endOfDay("endDate", optionalQuery(c, "endDate"))
	if err != nil {
		return service.HistoryQuery{}, err
	}
	query := service.HistoryQuery{
		AssetID:     optionalQuery(c, "assetId"),
		EmployeeID:  optionalQuery(c, "employeeId"),
		StartDate:   start,
		EndDate:     end,
		PageRequest: pageRequest(c),
	}
	if action := optionalQuery(c, "action"); action != nil {
		a := domain.HistoryAction(*action)
		query.Action = &a
	}
	return query, nil
}
