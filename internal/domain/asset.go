package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetStatus enumerates lifecycle states for an asset.
type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "Available"
	AssetStatusAssigned    AssetStatus = "Assigned"
	AssetStatusUnderRepair AssetStatus = "Under Repair"
	AssetStatusScrapped    AssetStatus = "Scrapped"
)

// AssetStatuses lists every status in display order.
var AssetStatuses = []AssetStatus{
	AssetStatusAvailable,
	AssetStatusAssigned,
	AssetStatusUnderRepair,
	AssetStatusScrapped,
}

// Valid reports whether s is one of the enumerated statuses.
func (s AssetStatus) Valid() bool {
	for _, candidate := range AssetStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// AssetCondition captures the physical condition of an asset.
type AssetCondition string

const (
	ConditionExcellent AssetCondition = "Excellent"
	ConditionGood      AssetCondition = "Good"
	ConditionFair      AssetCondition = "Fair"
	ConditionPoor      AssetCondition = "Poor"
)

// Valid reports whether c is one of the enumerated conditions.
func (c AssetCondition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// DefaultBranch is used when an asset or employee has no branch.
const DefaultBranch = "Head Office"

// Asset is a trackable physical item owned by the organization.
type Asset struct {
	ID             string
	AssetTag       string
	SerialNumber   string
	CategoryID     string
	Make           string
	Model          string
	Specifications *string
	PurchaseDate   *time.Time
	PurchasePrice  decimal.Decimal
	WarrantyExpiry *time.Time
	Vendor         *string
	Branch         string
	Location       *string
	Status         AssetStatus
	Condition      AssetCondition
	ImageURL       *string
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Category is populated only by queries that join categories.
	Category *CategorySummary
}

// AssetSummary is the slim asset projection joined into history and requests.
type AssetSummary struct {
	ID           string
	AssetTag     string
	SerialNumber string
	Make         string
	Model        string
}

// Summary projects the asset onto AssetSummary.
func (a *Asset) Summary() *AssetSummary {
	return &AssetSummary{
		ID:           a.ID,
		AssetTag:     a.AssetTag,
		SerialNumber: a.SerialNumber,
		Make:         a.Make,
		Model:        a.Model,
	}
}
