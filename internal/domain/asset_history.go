package domain

import "time"

// HistoryAction enumerates lifecycle events recorded for an asset.
type HistoryAction string

const (
	ActionPurchase HistoryAction = "Purchase"
	ActionIssue    HistoryAction = "Issue"
	ActionReturn   HistoryAction = "Return"
	ActionRepair   HistoryAction = "Repair"
	ActionScrap    HistoryAction = "Scrap"
	ActionTransfer HistoryAction = "Transfer"
)

// Valid reports whether a is one of the enumerated actions.
func (a HistoryAction) Valid() bool {
	switch a {
	case ActionPurchase, ActionIssue, ActionReturn, ActionRepair, ActionScrap, ActionTransfer:
		return true
	}
	return false
}

// AssetHistory is an immutable audit trail entry.
type AssetHistory struct {
	ID          string
	AssetID     string
	EmployeeID  *string
	Action      HistoryAction
	ActionDate  time.Time
	Condition   *AssetCondition
	Reason      *string
	PerformedBy *string
	Notes       *string
	CreatedAt   time.Time
}

// HistoryEntry is a history record with its related entities loaded.
type HistoryEntry struct {
	AssetHistory
	Asset     *AssetSummary
	Employee  *EmployeeSummary
	Performer *UserSummary
}
