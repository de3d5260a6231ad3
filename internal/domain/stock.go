package domain

import "github.com/shopspring/decimal"

// StockBucket is one grouped row of the asset registry: assets sharing a
// status, category and branch.
type StockBucket struct {
	Status       AssetStatus
	CategoryID   string
	CategoryName string
	Branch       string
	Count        int
	TotalValue   decimal.Decimal
}

// StockSummary aggregates counts and purchase values across the registry.
type StockSummary struct {
	TotalAssets     int
	TotalValue      decimal.Decimal
	AvailableAssets int
	AssignedAssets  int
	ByStatus        []StatusCount
	ByCategory      []CategoryStock
	ByBranch        []BranchStock
}

// StatusCount is the number of assets in one status.
type StatusCount struct {
	Status AssetStatus
	Count  int
}

// CategoryStock is the count and value of assets in one category.
type CategoryStock struct {
	CategoryID   string
	CategoryName string
	Count        int
	TotalValue   decimal.Decimal
}

// BranchStock is the count and value of assets in one branch.
type BranchStock struct {
	Branch     string
	Count      int
	TotalValue decimal.Decimal
}
