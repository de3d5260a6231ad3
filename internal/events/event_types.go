package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAssetCreated         EventType = "asset_created"
	EventAssetUpdated         EventType = "asset_updated"
	EventAssetDeleted         EventType = "asset_deleted"
	EventAssetIssued          EventType = "asset_issued"
	EventAssetReturned        EventType = "asset_returned"
	EventAssetScrapped        EventType = "asset_scrapped"
	EventAssetRequestCreated  EventType = "asset_request_created"
	EventAssetRequestReviewed EventType = "asset_request_reviewed"
	EventCategoryChanged      EventType = "category_changed"
)

// RegistryEvents lists the events that change stock totals.
var RegistryEvents = []EventType{
	EventAssetCreated,
	EventAssetUpdated,
	EventAssetDeleted,
	EventAssetIssued,
	EventAssetReturned,
	EventAssetScrapped,
	EventCategoryChanged,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subjectId"`
	ActorID   string      `json:"actorId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New builds an event stamped with a fresh id and the current time.
func New(eventType EventType, subjectID, actorID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TransitionPayload describes a committed lifecycle transition.
type TransitionPayload struct {
	HistoryID  string               `json:"historyId"`
	Action     domain.HistoryAction `json:"action"`
	FromStatus domain.AssetStatus   `json:"fromStatus"`
	ToStatus   domain.AssetStatus   `json:"toStatus"`
	EmployeeID *string              `json:"employeeId,omitempty"`
	Reason     *string              `json:"reason,omitempty"`
}

// RequestReviewedPayload describes a review outcome.
type RequestReviewedPayload struct {
	Status          domain.RequestStatus `json:"status"`
	RequestedBy     string               `json:"requestedBy"`
	AssignedAssetID *string              `json:"assignedAssetId,omitempty"`
}

// RequestCreatedPayload describes a new asset request.
type RequestCreatedPayload struct {
	EmployeeID string                 `json:"employeeId"`
	AssetType  string                 `json:"assetType"`
	Priority   domain.RequestPriority `json:"priority"`
}
