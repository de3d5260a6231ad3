package memory

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
)

type requestRepository struct {
	s session
}

func (r *requestRepository) Create(_ context.Context, request *domain.AssetRequest) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.employees[request.EmployeeID]; !ok {
			return foreignKeyViolation("asset_requests_employee_id_fkey")
		}
		if _, ok := st.users[request.RequestedBy]; !ok {
			return foreignKeyViolation("asset_requests_requested_by_fkey")
		}
		if request.CategoryID != nil {
			if _, ok := st.categories[*request.CategoryID]; !ok {
				return foreignKeyViolation("asset_requests_category_id_fkey")
			}
		}
		request.ID = newID()
		request.CreatedAt = r.s.db.now()
		request.UpdatedAt = request.CreatedAt
		request.RequestDate = request.CreatedAt
		st.requests[request.ID] = *request
		return nil
	})
}

func (r *requestRepository) GetByID(_ context.Context, id string) (*domain.AssetRequest, error) {
	var result *domain.AssetRequest
	err := r.s.read(func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return pgx.ErrNoRows
		}
		result = &req
		return nil
	})
	return result, err
}

func (r *requestRepository) GetEntry(_ context.Context, id string) (*domain.AssetRequestEntry, error) {
	var result *domain.AssetRequestEntry
	err := r.s.read(func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return pgx.ErrNoRows
		}
		result = requestEntry(st, req)
		return nil
	})
	return result, err
}

func (r *requestRepository) Review(_ context.Context, request *domain.AssetRequest) error {
	return r.s.write(func(st *state) error {
		current, ok := st.requests[request.ID]
		if !ok || current.Status != domain.RequestPending {
			return pgx.ErrNoRows
		}
		if request.AssignedAssetID != nil {
			if _, ok := st.assets[*request.AssignedAssetID]; !ok {
				return foreignKeyViolation("asset_requests_assigned_asset_id_fkey")
			}
		}
		current.Status = request.Status
		current.ReviewedBy = request.ReviewedBy
		current.ReviewDate = request.ReviewDate
		current.ReviewNotes = request.ReviewNotes
		current.AssignedAssetID = request.AssignedAssetID
		current.UpdatedAt = r.s.db.now()
		st.requests[request.ID] = current
		return nil
	})
}

func (r *requestRepository) Delete(_ context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.requests[id]; !ok {
			return pgx.ErrNoRows
		}
		delete(st.requests, id)
		return nil
	})
}

func (r *requestRepository) DeletePending(_ context.Context, id, requestedBy string) error {
	return r.s.write(func(st *state) error {
		req, ok := st.requests[id]
		if !ok || req.RequestedBy != requestedBy || req.Status != domain.RequestPending {
			return pgx.ErrNoRows
		}
		delete(st.requests, id)
		return nil
	})
}

func (r *requestRepository) List(_ context.Context, filter repository.AssetRequestFilter) ([]domain.AssetRequestEntry, error) {
	result := []domain.AssetRequestEntry{}
	err := r.s.read(func(st *state) error {
		matched := []domain.AssetRequest{}
		for _, req := range st.requests {
			if filter.RequestedBy != nil && req.RequestedBy != *filter.RequestedBy {
				continue
			}
			if filter.Status != nil && req.Status != *filter.Status {
				continue
			}
			matched = append(matched, req)
		}
		sort.Slice(matched, func(i, j int) bool {
			return matched[i].RequestDate.After(matched[j].RequestDate)
		})
		for _, req := range matched {
			result = append(result, *requestEntry(st, req))
		}
		return nil
	})
	return result, err
}

func (r *requestRepository) CountByStatus(_ context.Context, status domain.RequestStatus) (int, error) {
	var count int
	err := r.s.read(func(st *state) error {
		for _, req := range st.requests {
			if req.Status == status {
				count++
			}
		}
		return nil
	})
	return count, err
}

func requestEntry(st *state, req domain.AssetRequest) *domain.AssetRequestEntry {
	entry := &domain.AssetRequestEntry{AssetRequest: req}
	if employee, ok := st.employees[req.EmployeeID]; ok {
		entry.Employee = employee.Summary()
	}
	if user, ok := st.users[req.RequestedBy]; ok {
		entry.Requester = user.Summary()
	}
	if req.ReviewedBy != nil {
		if user, ok := st.users[*req.ReviewedBy]; ok {
			entry.Reviewer = user.Summary()
		}
	}
	if req.CategoryID != nil {
		if category, ok := st.categories[*req.CategoryID]; ok {
			entry.Category = &domain.CategorySummary{ID: category.ID, Name: category.Name, Code: category.Code}
		}
	}
	if req.AssignedAssetID != nil {
		if asset, ok := st.assets[*req.AssignedAssetID]; ok {
			entry.AssignedAsset = asset.Summary()
		}
	}
	return entry
}
