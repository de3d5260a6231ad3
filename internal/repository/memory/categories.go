package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
)

type categoryRepository struct {
	s session
}

func (r *categoryRepository) Create(_ context.Context, category *domain.Category) error {
	return r.s.write(func(st *state) error {
		if err := checkCategoryUnique(st, category); err != nil {
			return err
		}
		category.ID = newID()
		category.CreatedAt = r.s.db.now()
		category.UpdatedAt = category.CreatedAt
		st.categories[category.ID] = *category
		return nil
	})
}

func (r *categoryRepository) Update(_ context.Context, category *domain.Category) error {
	return r.s.write(func(st *state) error {
		current, ok := st.categories[category.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		if err := checkCategoryUnique(st, category); err != nil {
			return err
		}
		category.CreatedAt = current.CreatedAt
		category.UpdatedAt = r.s.db.now()
		st.categories[category.ID] = *category
		return nil
	})
}

func checkCategoryUnique(st *state, category *domain.Category) error {
	for id, other := range st.categories {
		if id == category.ID {
			continue
		}
		if strings.EqualFold(other.Name, category.Name) {
			return uniqueViolation("name")
		}
		if other.Code == category.Code {
			return uniqueViolation("code")
		}
	}
	return nil
}

func (r *categoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	var result *domain.Category
	err := r.s.read(func(st *state) error {
		category, ok := st.categories[id]
		if !ok {
			return pgx.ErrNoRows
		}
		result = &category
		return nil
	})
	return result, err
}

// Delete refuses to remove a referenced category, like the RESTRICT foreign key.
func (r *categoryRepository) Delete(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return pgx.ErrNoRows
		}
		for _, asset := range st.assets {
			if asset.CategoryID == id {
				return foreignKeyViolation("assets_category_id_fkey")
			}
		}
		for reqID, req := range st.requests {
			if req.CategoryID != nil && *req.CategoryID == id {
				req.CategoryID = nil
				st.requests[reqID] = req
			}
		}
		delete(st.categories, id)
		return nil
	})
}

func (r *categoryRepository) List(_ context.Context, filter repository.CategoryFilter) ([]domain.CategoryWithCount, error) {
	result := []domain.CategoryWithCount{}
	err := r.s.read(func(st *state) error {
		counts := map[string]int{}
		for _, asset := range st.assets {
			counts[asset.CategoryID]++
		}
		for _, category := range st.categories {
			if filter.Status != nil && category.Status != *filter.Status {
				continue
			}
			if !matchesAny(filter.Search, category.Name, category.Code) {
				continue
			}
			result = append(result, domain.CategoryWithCount{Category: category, AssetCount: counts[category.ID]})
		}
		sort.Slice(result, func(i, j int) bool {
			return result[i].Name < result[j].Name
		})
		return nil
	})
	return result, err
}

func (r *categoryRepository) FindConflict(_ context.Context, name, code, excludeID string) (string, error) {
	var field string
	err := r.s.read(func(st *state) error {
		for id, category := range st.categories {
			if id == excludeID {
				continue
			}
			if strings.EqualFold(category.Name, name) {
				field = "name"
				return nil
			}
			if category.Code == code {
				field = "code"
			}
		}
		return nil
	})
	return field, err
}
