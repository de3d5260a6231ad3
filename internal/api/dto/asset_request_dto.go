package dto

import (
	"time"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// AssetRequestPayload is the POST /asset-requests body.
type AssetRequestPayload struct {
	CategoryID    *string                 `json:"categoryId"`
	AssetType     string                  `json:"assetType"`
	Justification string                  `json:"justification"`
	Priority      *domain.RequestPriority `json:"priority"`
}

// ReviewPayload is the PATCH /asset-requests/:id/review body.
type ReviewPayload struct {
	Status          domain.RequestStatus `json:"status"`
	ReviewNotes     *string              `json:"reviewNotes"`
	AssignedAssetID *string              `json:"assignedAssetId"`
}

// AssetRequestResponse is a request with its related entities.
type AssetRequestResponse struct {
	ID              string                 `json:"id"`
	EmployeeID      string                 `json:"employeeId"`
	RequestedBy     string                 `json:"requestedBy"`
	CategoryID      *string                `json:"categoryId"`
	AssetType       string                 `json:"assetType"`
	Justification   string                 `json:"justification"`
	Priority        domain.RequestPriority `json:"priority"`
	Status          domain.RequestStatus   `json:"status"`
	RequestDate     time.Time              `json:"requestDate"`
	ReviewedBy      *string                `json:"reviewedBy"`
	ReviewDate      *time.Time             `json:"reviewDate"`
	ReviewNotes     *string                `json:"reviewNotes"`
	AssignedAssetID *string                `json:"assignedAssetId"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	Employee        *EmployeeRef           `json:"employee"`
	Requester       *UserRef               `json:"requester"`
	Reviewer        *UserRef               `json:"reviewer"`
	Category        *CategoryRef           `json:"category"`
	AssignedAsset   *AssetRef              `json:"assignedAsset"`
}

// NewAssetRequestResponse maps a joined request.
func NewAssetRequestResponse(r *domain.AssetRequestEntry) AssetRequestResponse {
	resp := AssetRequestResponse{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		RequestedBy:     r.RequestedBy,
		CategoryID:      r.CategoryID,
		AssetType:       r.AssetType,
		Justification:   r.Justification,
		Priority:        r.Priority,
		Status:          r.Status,
		RequestDate:     r.RequestDate,
		ReviewedBy:      r.ReviewedBy,
		ReviewDate:      r.ReviewDate,
		ReviewNotes:     r.ReviewNotes,
		AssignedAssetID: r.AssignedAssetID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Employee:        NewEmployeeRef(r.Employee),
		Requester:       NewUserRef(r.Requester),
		Reviewer:        NewUserRef(r.Reviewer),
		AssignedAsset:   NewAssetRef(r.AssignedAsset),
	}
	if r.Category != nil {
		resp.Category = &CategoryRef{ID: r.Category.ID, Name: r.Category.Name, Code: r.Category.Code}
	}
	return resp
}
