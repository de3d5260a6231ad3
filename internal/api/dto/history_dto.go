package dto

import (
	"time"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// IssueRequest is the POST /asset-history/issue body.
type IssueRequest struct {
	AssetID    string                 `json:"assetId"`
	EmployeeID string                 `json:"employeeId"`
	Condition  *domain.AssetCondition `json:"condition"`
	Notes      *string                `json:"notes"`
}

// ReturnRequest is the POST /asset-history/return body.
type ReturnRequest struct {
	AssetID   string                 `json:"assetId"`
	Condition *domain.AssetCondition `json:"condition"`
	Reason    *string                `json:"reason"`
	Notes     *string                `json:"notes"`
}

// ScrapRequest is the POST /asset-history/scrap body.
type ScrapRequest struct {
	AssetID string  `json:"assetId"`
	Reason  string  `json:"reason"`
	Notes   *string `json:"notes"`
}

// EmployeeRef is the slim employee projection embedded in history and requests.
type EmployeeRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId"`
	Department string `json:"department"`
}

// UserRef is the slim user projection embedded in history and requests.
type UserRef struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// HistoryResponse is one audit record with its related entities.
type HistoryResponse struct {
	ID          string                 `json:"id"`
	AssetID     string                 `json:"assetId"`
	EmployeeID  *string                `json:"employeeId"`
	Action      domain.HistoryAction   `json:"action"`
	ActionDate  time.Time              `json:"actionDate"`
	Condition   *domain.AssetCondition `json:"condition"`
	Reason      *string                `json:"reason"`
	PerformedBy *string                `json:"performedBy"`
	Notes       *string                `json:"notes"`
	CreatedAt   time.Time              `json:"createdAt"`
	Asset       *AssetRef              `json:"asset"`
	Employee    *EmployeeRef           `json:"employee"`
	Performer   *UserRef               `json:"performer"`
}

// HistoryListResponse is one page of the audit trail.
type HistoryListResponse struct {
	History []HistoryResponse `json:"history"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	Pages   int               `json:"pages"`
}

// NewHistoryResponse maps a joined history entry.
func NewHistoryResponse(e *domain.HistoryEntry) HistoryResponse {
	return HistoryResponse{
		ID:          e.ID,
		AssetID:     e.AssetID,
		EmployeeID:  e.EmployeeID,
		Action:      e.Action,
		ActionDate:  e.ActionDate,
		Condition:   e.Condition,
		Reason:      e.Reason,
		PerformedBy: e.PerformedBy,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
		Asset:       NewAssetRef(e.Asset),
		Employee:    NewEmployeeRef(e.Employee),
		Performer:   NewUserRef(e.Performer),
	}
}

// NewHistoryList maps a slice of entries, never returning nil.
func NewHistoryList(entries []domain.HistoryEntry) []HistoryResponse {
	items := make([]HistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, NewHistoryResponse(&entries[i]))
	}
	return items
}

// NewEmployeeRef maps an employee summary; nil stays nil.
func NewEmployeeRef(e *domain.EmployeeSummary) *EmployeeRef {
	if e == nil {
		return nil
	}
	return &EmployeeRef{ID: e.ID, Name: e.Name, EmployeeID: e.EmployeeCode, Department: e.Department}
}

// NewUserRef maps a user summary; nil stays nil.
func NewUserRef(u *domain.UserSummary) *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
