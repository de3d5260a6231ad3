package dto

import "github.com/spec-kit/asset-tracker/internal/domain"

// StockOverview holds registry-wide totals.
type StockOverview struct {
	TotalAssets     int    `json:"totalAssets"`
	TotalValue      string `json:"totalValue"`
	AvailableAssets int    `json:"availableAssets"`
	AssignedAssets  int    `json:"assignedAssets"`
}

// StatusCount is one row of the status breakdown.
type StatusCount struct {
	Status domain.AssetStatus `json:"status"`
	Count  int                `json:"count"`
}

// CategoryStock is one row of the category breakdown.
type CategoryStock struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Count        int    `json:"count"`
	TotalValue   string `json:"totalValue"`
}

// BranchStock is one row of the branch breakdown.
type BranchStock struct {
	Branch     string `json:"branch"`
	Count      int    `json:"count"`
	TotalValue string `json:"totalValue"`
}

// StockSummaryResponse is the GET /assets/stock/summary body.
type StockSummaryResponse struct {
	Overview   StockOverview   `json:"overview"`
	ByStatus   []StatusCount   `json:"byStatus"`
	ByCategory []CategoryStock `json:"byCategory"`
	ByBranch   []BranchStock   `json:"byBranch"`
}

// NewStockSummaryResponse maps a summary.
func NewStockSummaryResponse(s *domain.StockSummary) StockSummaryResponse {
	resp := StockSummaryResponse{
		Overview: StockOverview{
			TotalAssets:     s.TotalAssets,
			TotalValue:      Money(s.TotalValue),
			AvailableAssets: s.AvailableAssets,
			AssignedAssets:  s.AssignedAssets,
		},
		ByStatus:   make([]StatusCount, 0, len(s.ByStatus)),
		ByCategory: make([]CategoryStock, 0, len(s.ByCategory)),
		ByBranch:   make([]BranchStock, 0, len(s.ByBranch)),
	}
	for _, row := range s.ByStatus {
		resp.ByStatus = append(resp.ByStatus, StatusCount{Status: row.Status, Count: row.Count})
	}
	for _, row := range s.ByCategory {
		resp.ByCategory = append(resp.ByCategory, CategoryStock{
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			Count:        row.Count,
			TotalValue:   Money(row.TotalValue),
		})
	}
	for _, row := range s.ByBranch {
		resp.ByBranch = append(resp.ByBranch, BranchStock{Branch: row.Branch, Count: row.Count, TotalValue: Money(row.TotalValue)})
	}
	return resp
}
