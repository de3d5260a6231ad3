package memory

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
)

type assetRepository struct {
	s session
}

func (r *assetRepository) Create(_ context.Context, asset *domain.Asset) error {
	return r.s.write(func(st *state) error {
		if err := checkAssetUnique(st, asset); err != nil {
			return err
		}
		if _, ok := st.categories[asset.CategoryID]; !ok {
			return foreignKeyViolation("assets_category_id_fkey")
		}
		asset.ID = newID()
		asset.CreatedAt = r.s.db.now()
		asset.UpdatedAt = asset.CreatedAt
		stored := *asset
		stored.Category = nil
		st.assets[asset.ID] = stored
		return nil
	})
}

func (r *assetRepository) Update(_ context.Context, asset *domain.Asset) error {
	return r.s.write(func(st *state) error {
		current, ok := st.assets[asset.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		if err := checkAssetUnique(st, asset); err != nil {
			return err
		}
		if _, ok := st.categories[asset.CategoryID]; !ok {
			return foreignKeyViolation("assets_category_id_fkey")
		}
		asset.CreatedAt = current.CreatedAt
		asset.UpdatedAt = r.s.db.now()
		stored := *asset
		stored.Category = nil
		st.assets[asset.ID] = stored
		return nil
	})
}

func checkAssetUnique(st *state, asset *domain.Asset) error {
	for id, other := range st.assets {
		if id == asset.ID {
			continue
		}
		if other.AssetTag == asset.AssetTag {
			return uniqueViolation("asset_tag")
		}
		if other.SerialNumber == asset.SerialNumber {
			return uniqueViolation("serial_number")
		}
	}
	return nil
}

func (r *assetRepository) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	var result *domain.Asset
	err := r.s.read(func(st *state) error {
		asset, ok := st.assets[id]
		if !ok {
			return pgx.ErrNoRows
		}
		result = withCategory(st, asset)
		return nil
	})
	return result, err
}

// LockByID needs no extra locking here: transactions already run one at a time.
func (r *assetRepository) LockByID(_ context.Context, id string) (*domain.Asset, error) {
	var result *domain.Asset
	err := r.s.read(func(st *state) error {
		asset, ok := st.assets[id]
		if !ok {
			return pgx.ErrNoRows
		}
		result = &asset
		return nil
	})
	return result, err
}

func (r *assetRepository) SetStatus(_ context.Context, id string, status domain.AssetStatus, condition domain.AssetCondition) error {
	return r.s.write(func(st *state) error {
		asset, ok := st.assets[id]
		if !ok {
			return pgx.ErrNoRows
		}
		asset.Status = status
		asset.Condition = condition
		asset.UpdatedAt = r.s.db.now()
		st.assets[id] = asset
		return nil
	})
}

func (r *assetRepository) Delete(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.assets[id]; !ok {
			return pgx.ErrNoRows
		}
		for reqID, req := range st.requests {
			if req.AssignedAssetID != nil && *req.AssignedAssetID == id {
				req.AssignedAssetID = nil
				st.requests[reqID] = req
			}
		}
		for historyID, h := range st.history {
			if h.AssetID == id {
				delete(st.history, historyID)
			}
		}
		delete(st.assets, id)
		return nil
	})
}

func (r *assetRepository) List(_ context.Context, filter repository.AssetFilter) ([]domain.Asset, error) {
	result := []domain.Asset{}
	err := r.s.read(func(st *state) error {
		matched := filterAssets(st, filter)
		from, to := page(len(matched), filter.Limit, filter.Offset, 10)
		for _, asset := range matched[from:to] {
			result = append(result, *withCategory(st, asset))
		}
		return nil
	})
	return result, err
}

func (r *assetRepository) Count(_ context.Context, filter repository.AssetFilter) (int, error) {
	var count int
	err := r.s.read(func(st *state) error {
		count = len(filterAssets(st, filter))
		return nil
	})
	return count, err
}

func (r *assetRepository) CountByCategory(_ context.Context, categoryID string) (int, error) {
	var count int
	err := r.s.read(func(st *state) error {
		for _, asset := range st.assets {
			if asset.CategoryID == categoryID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *assetRepository) FindConflict(_ context.Context, assetTag, serialNumber, excludeID string) (string, error) {
	var field string
	err := r.s.read(func(st *state) error {
		for id, asset := range st.assets {
			if id == excludeID {
				continue
			}
			if asset.AssetTag == assetTag {
				field = "assetTag"
				return nil
			}
			if asset.SerialNumber == serialNumber {
				field = "serialNumber"
			}
		}
		return nil
	})
	return field, err
}

func (r *assetRepository) StockBuckets(_ context.Context) ([]domain.StockBucket, error) {
	type key struct {
		status   domain.AssetStatus
		category string
		branch   string
	}
	var result []domain.StockBucket
	err := r.s.read(func(st *state) error {
		index := map[key]int{}
		for _, asset := range st.assets {
			k := key{asset.Status, asset.CategoryID, asset.Branch}
			i, ok := index[k]
			if !ok {
				i = len(result)
				index[k] = i
				result = append(result, domain.StockBucket{
					Status:       asset.Status,
					CategoryID:   asset.CategoryID,
					CategoryName: st.categories[asset.CategoryID].Name,
					Branch:       asset.Branch,
					TotalValue:   decimal.Zero,
				})
			}
			result[i].Count++
			result[i].TotalValue = result[i].TotalValue.Add(asset.PurchasePrice)
		}
		return nil
	})
	return result, err
}

func filterAssets(st *state, filter repository.AssetFilter) []domain.Asset {
	matched := []domain.Asset{}
	for _, asset := range st.assets {
		if filter.Status != nil && asset.Status != *filter.Status {
			continue
		}
		if filter.CategoryID != nil && asset.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.Branch != nil && asset.Branch != *filter.Branch {
			continue
		}
		if !matchesAny(filter.Search, asset.AssetTag, asset.SerialNumber, asset.Make, asset.Model) {
			continue
		}
		matched = append(matched, asset)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func withCategory(st *state, asset domain.Asset) *domain.Asset {
	if category, ok := st.categories[asset.CategoryID]; ok {
		asset.Category = &domain.CategorySummary{ID: category.ID, Name: category.Name, Code: category.Code}
	}
	return &asset
}
