package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/events"
	"github.com/spec-kit/asset-tracker/internal/repository"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

// ImageStore releases stored asset images.
type ImageStore interface {
	Release(ctx context.Context, url string) error
}

// AssetService is the asset registry: CRUD with field-level invariants. It
// never writes history.
type AssetService struct {
	store      *repository.Store
	tx         repository.TxRunner
	images     ImageStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssetDependencies bundles collaborators for the asset service.
type AssetDependencies struct {
	Store      *repository.Store
	Tx         repository.TxRunner
	Images     ImageStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// AssetInput carries the writable asset fields. On create, nil means "use
// the default"; on update, nil means "leave unchanged".
type AssetInput struct {
	AssetTag       *string
	SerialNumber   *string
	CategoryID     *string
	Make           *string
	Model          *string
	Specifications *string
	PurchaseDate   *time.Time
	PurchasePrice  *decimal.Decimal
	WarrantyExpiry *time.Time
	Vendor         *string
	Branch         *string
	Location       *string
	Status         *domain.AssetStatus
	Condition      *domain.AssetCondition
	Notes          *string
	// ImageURL points at an image uploaded for this request. It is released
	// again when the operation fails.
	ImageURL *string
}

// AssetQuery filters the registry listing.
type AssetQuery struct {
	Search     *string
	Status     *domain.AssetStatus
	CategoryID *string
	Branch     *string
	PageRequest
}

// AssetPage is one page of assets.
type AssetPage struct {
	Assets []domain.Asset
	Total  int
	Page   int
	Pages  int
}

// NewAssetService constructs the service.
func NewAssetService(deps AssetDependencies) *AssetService {
	return &AssetService{
		store:      deps.Store,
		tx:         deps.Tx,
		images:     deps.Images,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
}

// Create registers a new asset. New assets always start Available.
func (s *AssetService) Create(ctx context.Context, actorID string, input AssetInput) (*domain.Asset, error) {
	asset, err := s.create(ctx, input)
	if err != nil {
		s.releaseUpload(ctx, input.ImageURL)
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventAssetCreated, asset.ID, actorID, nil))
	return s.Get(ctx, asset.ID)
}

func (s *AssetService) create(ctx context.Context, input AssetInput) (*domain.Asset, error) {
	if input.Status != nil && *input.Status != domain.AssetStatusAvailable {
		return nil, apperrors.NewValidationError("new assets start as Available",
			map[string]any{"field": "status"})
	}

	asset := &domain.Asset{
		Status:        domain.AssetStatusAvailable,
		Condition:     domain.ConditionGood,
		Branch:        domain.DefaultBranch,
		PurchasePrice: decimal.Zero,
	}
	if err := applyAssetInput(asset, input, true); err != nil {
		return nil, err
	}
	if err := checkReferences(ctx, s.store, asset, ""); err != nil {
		return nil, err
	}
	if err := s.store.Assets.Create(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// Get loads one asset with its category.
func (s *AssetService) Get(ctx context.Context, id string) (*domain.Asset, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	asset, err := s.store.Assets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "asset")
	}
	return asset, nil
}

// List returns one page of matching assets, newest first.
func (s *AssetService) List(ctx context.Context, query AssetQuery) (*AssetPage, error) {
	if query.Status != nil && !query.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status",
			map[string]any{"field": "status", "value": *query.Status})
	}
	if query.CategoryID != nil {
		if err := requireID("categoryId", *query.CategoryID); err != nil {
			return nil, err
		}
	}
	page, limit, offset := query.normalize(10)
	filter := repository.AssetFilter{
		Search:     query.Search,
		Status:     query.Status,
		CategoryID: query.CategoryID,
		Branch:     query.Branch,
		Limit:      limit,
		Offset:     offset,
	}

	assets, err := s.store.Assets.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Assets.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &AssetPage{Assets: assets, Total: total, Page: page, Pages: PageCount(total, limit)}, nil
}

// Update applies input to an existing asset. The only status change allowed
// here is marking an Under Repair asset Available again. A replaced image is
// released after the update commits.
func (s *AssetService) Update(ctx context.Context, actorID, id string, input AssetInput) (*domain.Asset, error) {
	previousImage, err := s.update(ctx, id, input)
	if err != nil {
		s.releaseUpload(ctx, input.ImageURL)
		return nil, err
	}

	if previousImage != nil && *previousImage != *input.ImageURL {
		s.release(ctx, *previousImage)
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventAssetUpdated, id, actorID, nil))
	return s.Get(ctx, id)
}

// update returns the image the asset pointed at before, when input replaces it.
func (s *AssetService) update(ctx context.Context, id string, input AssetInput) (*string, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status",
			map[string]any{"field": "status", "value": *input.Status})
	}

	var previousImage *string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
		current, err := st.Assets.LockByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "asset")
		}
		if input.Status != nil && *input.Status != current.Status {
			if current.Status != domain.AssetStatusUnderRepair || *input.Status != domain.AssetStatusAvailable {
				return apperrors.NewInvalidState("status can only change from Under Repair to Available here; use issue, return or scrap",
					map[string]any{"from": current.Status, "to": *input.Status})
			}
		}

		updated := *current
		if err := applyAssetInput(&updated, input, false); err != nil {
			return err
		}
		if err := checkReferences(ctx, st, &updated, id); err != nil {
			return err
		}
		if err := st.Assets.Update(ctx, &updated); err != nil {
			return err
		}
		if input.ImageURL != nil {
			previousImage = current.ImageURL
		}
		return nil
	})
	return previousImage, err
}

// Delete removes an asset that is not assigned, along with its history and image.
func (s *AssetService) Delete(ctx context.Context, actorID, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}

	var image *string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st *repository.Store) error {
		asset, err := st.Assets.LockByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "asset")
		}
		if asset.Status == domain.AssetStatusAssigned {
			return apperrors.NewInvalidState("assigned asset must be returned before deletion",
				map[string]any{"status": asset.Status})
		}
		image = asset.ImageURL
		return st.Assets.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if image != nil {
		s.release(ctx, *image)
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventAssetDeleted, id, actorID, nil))
	return nil
}

// checkReferences verifies the category exists and the tag and serial are free.
func checkReferences(ctx context.Context, st *repository.Store, asset *domain.Asset, excludeID string) error {
	if _, err := st.Categories.GetByID(ctx, asset.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("category not found", map[string]any{"field": "categoryId"})
		}
		return err
	}
	field, err := st.Assets.FindConflict(ctx, asset.AssetTag, asset.SerialNumber, excludeID)
	if err != nil {
		return err
	}
	if field != "" {
		return conflictError(field)
	}
	return nil
}

// releaseUpload drops an image uploaded for a request that failed.
func (s *AssetService) releaseUpload(ctx context.Context, url *string) {
	if url != nil {
		s.release(ctx, *url)
	}
}

// release deletes an image best-effort; failures never change the outcome.
func (s *AssetService) release(ctx context.Context, url string) {
	if s.images == nil || url == "" {
		return
	}
	if err := s.images.Release(ctx, url); err != nil {
		s.logger.Warn("release asset image", zap.String("url", url), zap.Error(err))
	}
}

// applyAssetInput copies input onto asset. With create set, required fields
// must be present.
func applyAssetInput(asset *domain.Asset, input AssetInput, create bool) error {
	required := []struct {
		field string
		in    *string
		out   *string
	}{
		{"assetTag", input.AssetTag, &asset.AssetTag},
		{"serialNumber", input.SerialNumber, &asset.SerialNumber},
		{"categoryId", input.CategoryID, &asset.CategoryID},
		{"make", input.Make, &asset.Make},
		{"model", input.Model, &asset.Model},
	}
	for _, r := range required {
		if r.in == nil {
			if create {
				return apperrors.NewValidationError(r.field+" is required", map[string]any{"field": r.field})
			}
			continue
		}
		value, err := requiredText(r.field, *r.in)
		if err != nil {
			return err
		}
		*r.out = value
	}
	if input.CategoryID != nil {
		if err := requireID("categoryId", asset.CategoryID); err != nil {
			return err
		}
	}

	if input.Specifications != nil {
		asset.Specifications = optionalText(input.Specifications)
	}
	if input.Vendor != nil {
		asset.Vendor = optionalText(input.Vendor)
	}
	if input.Location != nil {
		asset.Location = optionalText(input.Location)
	}
	if input.Notes != nil {
		asset.Notes = optionalText(input.Notes)
	}
	if branch := optionalText(input.Branch); branch != nil {
		asset.Branch = *branch
	}
	if input.PurchaseDate != nil {
		asset.PurchaseDate = input.PurchaseDate
	}
	if input.WarrantyExpiry != nil {
		asset.WarrantyExpiry = input.WarrantyExpiry
	}
	if input.PurchasePrice != nil {
		if input.PurchasePrice.IsNegative() {
			return apperrors.NewValidationError("purchasePrice must not be negative",
				map[string]any{"field": "purchasePrice"})
		}
		asset.PurchasePrice = input.PurchasePrice.Round(2)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return apperrors.NewValidationError("invalid status",
				map[string]any{"field": "status", "value": *input.Status})
		}
		asset.Status = *input.Status
	}
	if input.Condition != nil {
		if !input.Condition.Valid() {
			return apperrors.NewValidationError("invalid condition",
				map[string]any{"field": "condition", "value": *input.Condition})
		}
		asset.Condition = *input.Condition
	}
	if input.ImageURL != nil {
		asset.ImageURL = input.ImageURL
	}
	if asset.PurchaseDate != nil && asset.WarrantyExpiry != nil && asset.WarrantyExpiry.Before(*asset.PurchaseDate) {
		return apperrors.NewValidationError("warrantyExpiry is before purchaseDate",
			map[string]any{"field": "warrantyExpiry"})
	}
	return nil
}
