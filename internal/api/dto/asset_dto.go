package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// AssetPayload is the create/update body. Dates accept YYYY-MM-DD or RFC3339.
type AssetPayload struct {
	AssetTag       *string                `json:"assetTag"`
	SerialNumber   *string                `json:"serialNumber"`
	CategoryID     *string                `json:"categoryId"`
	Make           *string                `json:"make"`
	Model          *string                `json:"model"`
	Specifications *string                `json:"specifications"`
	PurchaseDate   *string                `json:"purchaseDate"`
	PurchasePrice  *decimal.Decimal       `json:"purchasePrice"`
	WarrantyExpiry *string                `json:"warrantyExpiry"`
	Vendor         *string                `json:"vendor"`
	Branch         *string                `json:"branch"`
	Location       *string                `json:"location"`
	Status         *domain.AssetStatus    `json:"status"`
	Condition      *domain.AssetCondition `json:"condition"`
	Notes          *string                `json:"notes"`
}

// CategoryRef is the category summary embedded in assets.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// AssetResponse is the full asset representation.
type AssetResponse struct {
	ID             string                `json:"id"`
	AssetTag       string                `json:"assetTag"`
	SerialNumber   string                `json:"serialNumber"`
	CategoryID     string                `json:"categoryId"`
	Category       *CategoryRef          `json:"category,omitempty"`
	Make           string                `json:"make"`
	Model          string                `json:"model"`
	Specifications *string               `json:"specifications"`
	PurchaseDate   *time.Time            `json:"purchaseDate"`
	PurchasePrice  string                `json:"purchasePrice"`
	WarrantyExpiry *time.Time            `json:"warrantyExpiry"`
	Vendor         *string               `json:"vendor"`
	Branch         string                `json:"branch"`
	Location       *string               `json:"location"`
	Status         domain.AssetStatus    `json:"status"`
	Condition      domain.AssetCondition `json:"condition"`
	ImageURL       *string               `json:"imageUrl"`
	Notes          *string               `json:"notes"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// AssetListResponse is one page of assets.
type AssetListResponse struct {
	Assets []AssetResponse `json:"assets"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Pages  int             `json:"pages"`
}

// AssetRef is the slim asset projection embedded in history and requests.
type AssetRef struct {
	ID           string `json:"id"`
	AssetTag     string `json:"assetTag"`
	SerialNumber string `json:"serialNumber"`
	Make         string `json:"make"`
	Model        string `json:"model"`
}

// NewAssetResponse maps a domain asset.
func NewAssetResponse(a *domain.Asset) AssetResponse {
	resp := AssetResponse{
		ID:             a.ID,
		AssetTag:       a.AssetTag,
		SerialNumber:   a.SerialNumber,
		CategoryID:     a.CategoryID,
		Make:           a.Make,
		Model:          a.Model,
		Specifications: a.Specifications,
		PurchaseDate:   a.PurchaseDate,
		PurchasePrice:  Money(a.PurchasePrice),
		WarrantyExpiry: a.WarrantyExpiry,
		Vendor:         a.Vendor,
		Branch:         a.Branch,
		Location:       a.Location,
		Status:         a.Status,
		Condition:      a.Condition,
		ImageURL:       a.ImageURL,
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.Category != nil {
		resp.Category = &CategoryRef{ID: a.Category.ID, Name: a.Category.Name, Code: a.Category.Code}
	}
	return resp
}

// NewAssetRef maps an asset summary; nil stays nil.
func NewAssetRef(a *domain.AssetSummary) *AssetRef {
	if a == nil {
		return nil
	}
	return &AssetRef{ID: a.ID, AssetTag: a.AssetTag, SerialNumber: a.SerialNumber, Make: a.Make, Model: a.Model}
}

// Money renders an amount with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
