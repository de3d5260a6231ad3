package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/asset-tracker/internal/api/dto"
	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/service"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

// ImageUploader persists an uploaded image and returns its public URL.
type ImageUploader interface {
	Save(ctx context.Context, filename, contentType string, size int64, content io.Reader) (string, error)
}

// AssetsHandler exposes the asset registry and the stock summary.
type AssetsHandler struct {
	assets *service.AssetService
	stock  *service.StockService
	images ImageUploader
}

// NewAssetsHandler constructs handler. A nil uploader rejects image uploads.
func NewAssetsHandler(assets *service.AssetService, stock *service.StockService, images ImageUploader) *AssetsHandler {
	return &AssetsHandler{assets: assets, stock: stock, images: images}
}

// List handles GET /assets.
func (h *AssetsHandler) List(c *fiber.Ctx) error {
	query := service.AssetQuery{
		Search:      optionalQuery(c, "search"),
		CategoryID:  optionalQuery(c, "categoryId"),
		Branch:      optionalQuery(c, "branch"),
		PageRequest: pageRequest(c),
	}
	if status := optionalQuery(c, "status"); status != nil {
		s := domain.AssetStatus(*status)
		query.Status = &s
	}
	page, err := h.assets.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	items := make([]dto.AssetResponse, 0, len(page.Assets))
	for i := range page.Assets {
		items = append(items, dto.NewAssetResponse(&page.Assets[i]))
	}
	return data(c, http.StatusOK, dto.AssetListResponse{Assets: items, Total: page.Total, Page: page.Page, Pages: page.Pages})
}

// Get handles GET /assets/:id.
func (h *AssetsHandler) Get(c *fiber.Ctx) error {
	asset, err := h.assets.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewAssetResponse(asset))
}

// Create handles POST /assets with a JSON or multipart body.
func (h *AssetsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	input, err := h.assetInput(c)
	if err != nil {
		return err
	}
	asset, err := h.assets.Create(c.UserContext(), p.ID(), input)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewAssetResponse(asset))
}

// Update handles PUT /assets/:id with a JSON or multipart body.
func (h *AssetsHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	input, err := h.assetInput(c)
	if err != nil {
		return err
	}
	asset, err := h.assets.Update(c.UserContext(), p.ID(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewAssetResponse(asset))
}

// Delete handles DELETE /assets/:id.
func (h *AssetsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.assets.Delete(c.UserContext(), p.ID(), c.Params("id")); err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"message": "asset deleted"})
}

// StockSummary handles GET /assets/stock/summary.
func (h *AssetsHandler) StockSummary(c *fiber.Ctx) error {
	summary, err := h.stock.Summarize(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewStockSummaryResponse(summary))
}

// assetInput decodes the body and stores an uploaded image, if any. The
// service releases the image again when the operation fails.
func (h *AssetsHandler) assetInput(c *fiber.Ctx) (service.AssetInput, error) {
	var payload dto.AssetPayload
	multipart := strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
	if multipart {
		var err error
		if payload, err = assetPayloadFromForm(c); err != nil {
			return service.AssetInput{}, err
		}
	} else if err := bindJSON(c, &payload); err != nil {
		return service.AssetInput{}, err
	}

	input, err := toAssetInput(payload)
	if err != nil {
		return service.AssetInput{}, err
	}
	if multipart {
		if input.ImageURL, err = h.saveImage(c); err != nil {
			return service.AssetInput{}, err
		}
	}
	return input, nil
}

func (h *AssetsHandler) saveImage(c *fiber.Ctx) (*string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart body", nil)
	}
	files := form.File["image"]
	if len(files) == 0 {
		return nil, nil
	}
	if h.images == nil {
		return nil, apperrors.NewValidationError("image uploads are disabled", map[string]any{"field": "image"})
	}
	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable image", map[string]any{"field": "image"})
	}
	defer file.Close()

	url, err := h.images.Save(c.UserContext(), header.Filename, header.Header.Get(fiber.HeaderContentType), header.Size, file)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

func assetPayloadFromForm(c *fiber.Ctx) (dto.AssetPayload, error) {
	form := func(key string) *string {
		val := c.FormValue(key)
		if val == "" {
			return nil
		}
		return &val
	}
	payload := dto.AssetPayload{
		AssetTag:       form("assetTag"),
		SerialNumber:   form("serialNumber"),
		CategoryID:     form("categoryId"),
		Make:           form("make"),
		Model:          form("model"),
		Specifications: form("specifications"),
		PurchaseDate:   form("purchaseDate"),
		WarrantyExpiry: form("warrantyExpiry"),
		Vendor:         form("vendor"),
		Branch:         form("branch"),
		Location:       form("location"),
		Notes:          form("notes"),
	}
	if price := form("purchasePrice"); price != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(*price))
		if err != nil {
			return payload, apperrors.NewValidationError("purchasePrice must be a number", map[string]any{"field": "purchasePrice"})
		}
		payload.PurchasePrice = &d
	}
	if status := form("status"); status != nil {
		s := domain.AssetStatus(*status)
		payload.Status = &s
	}
	if condition := form("condition"); condition != nil {
		cond := domain.AssetCondition(*condition)
		payload.Condition = &cond
	}
	return payload, nil
}

func toAssetInput(p dto.AssetPayload) (service.AssetInput, error) {
	purchaseDate, err := parseDate("purchaseDate", p.PurchaseDate)
	if err != nil {
		return service.AssetInput{}, err
	}
	warrantyExpiry, err := parseDate("warrantyExpiry", p.WarrantyExpiry)
	if err != nil {
		return service.AssetInput{}, err
	}
	return service.AssetInput{
		AssetTag:       p.AssetTag,
		SerialNumber:   p.SerialNumber,
		CategoryID:     p.CategoryID,
		Make:           p.Make,
		Model:          p.Model,
		Specifications: p.Specifications,
		PurchaseDate:   purchaseDate,
		PurchasePrice:  p.PurchasePrice,
		WarrantyExpiry: warrantyExpiry,
		Vendor:         p.Vendor,
		Branch:         p.Branch,
		Location:       p.Location,
		Status:         p.Status,
		Condition:      p.Condition,
		Notes:          p.Notes,
	}, nil
}
