package domain

import "time"

// RequestPriority enumerates asset request urgency.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "Low"
	PriorityMedium RequestPriority = "Medium"
	PriorityHigh   RequestPriority = "High"
	PriorityUrgent RequestPriority = "Urgent"
)

// Valid reports whether p is one of the enumerated priorities.
func (p RequestPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RequestStatus enumerates asset request review states.
type RequestStatus string

const (
	RequestPending   RequestStatus = "Pending"
	RequestApproved  RequestStatus = "Approved"
	RequestRejected  RequestStatus = "Rejected"
	RequestFulfilled RequestStatus = "Fulfilled"
)

// IsReviewOutcome reports whether s can be set by a reviewer.
func (s RequestStatus) IsReviewOutcome() bool {
	return s == RequestApproved || s == RequestRejected || s == RequestFulfilled
}

// AssetRequest is an employee-initiated request for equipment.
type AssetRequest struct {
	ID              string
	EmployeeID      string
	RequestedBy     string
	CategoryID      *string
	AssetType       string
	Justification   string
	Priority        RequestPriority
	Status          RequestStatus
	RequestDate     time.Time
	ReviewedBy      *string
	ReviewDate      *time.Time
	ReviewNotes     *string
	AssignedAssetID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssetRequestEntry is a request with its related entities loaded.
type AssetRequestEntry struct {
	AssetRequest
	Employee      *EmployeeSummary
	Requester     *UserSummary
	Reviewer      *UserSummary
	Category      *CategorySummary
	AssignedAsset *AssetSummary
}
