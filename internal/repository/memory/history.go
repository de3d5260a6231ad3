package memory

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/asset-tracker/internal/domain"
	"github.com/spec-kit/asset-tracker/internal/repository"
)

type historyRepository struct {
	s session
}

func (r *historyRepository) Create(_ context.Context, history *domain.AssetHistory) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.assets[history.AssetID]; !ok {
			return foreignKeyViolation("asset_history_asset_id_fkey")
		}
		if history.EmployeeID != nil {
			if _, ok := st.employees[*history.EmployeeID]; !ok {
				return foreignKeyViolation("asset_history_employee_id_fkey")
			}
		}
		history.ID = newID()
		history.CreatedAt = r.s.db.now()
		if history.ActionDate.IsZero() {
			history.ActionDate = history.CreatedAt
		}
		st.history[history.ID] = *history
		return nil
	})
}

func (r *historyRepository) GetEntry(_ context.Context, id string) (*domain.HistoryEntry, error) {
	var result *domain.HistoryEntry
	err := r.s.read(func(st *state) error {
		h, ok := st.history[id]
		if !ok {
			return pgx.ErrNoRows
		}
		result = historyEntry(st, h)
		return nil
	})
	return result, err
}

func (r *historyRepository) LatestByAction(_ context.Context, assetID string, action domain.HistoryAction) (*domain.AssetHistory, error) {
	var result *domain.AssetHistory
	err := r.s.read(func(st *state) error {
		assetID := assetID
		matched := filterHistory(st, repository.HistoryFilter{AssetID: &assetID, Action: &action})
		if len(matched) == 0 {
			return pgx.ErrNoRows
		}
		result = &matched[0]
		return nil
	})
	return result, err
}

func (r *historyRepository) List(_ context.Context, filter repository.HistoryFilter) ([]domain.HistoryEntry, error) {
	result := []domain.HistoryEntry{}
	err := r.s.read(func(st *state) error {
		matched := filterHistory(st, filter)
		if !filter.All {
			from, to := page(len(matched), filter.Limit, filter.Offset, 20)
			matched = matched[from:to]
		}
		for _, h := range matched {
			result = append(result, *historyEntry(st, h))
		}
		return nil
	})
	return result, err
}

func (r *historyRepository) Count(_ context.Context, filter repository.HistoryFilter) (int, error) {
	var count int
	err := r.s.read(func(st *state) error {
		count = len(filterHistory(st, filter))
		return nil
	})
	return count, err
}

func (r *historyRepository) Timeline(ctx context.Context, assetID string) ([]domain.HistoryEntry, error) {
	return r.List(ctx, repository.HistoryFilter{AssetID: &assetID, All: true})
}

func filterHistory(st *state, filter repository.HistoryFilter) []domain.AssetHistory {
	matched := []domain.AssetHistory{}
	for _, h := range st.history {
		if filter.AssetID != nil && h.AssetID != *filter.AssetID {
			continue
		}
		if filter.EmployeeID != nil && (h.EmployeeID == nil || *h.EmployeeID != *filter.EmployeeID) {
			continue
		}
		if filter.Action != nil && h.Action != *filter.Action {
			continue
		}
		if filter.StartDate != nil && h.ActionDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && h.ActionDate.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, h)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ActionDate.Equal(matched[j].ActionDate) {
			return matched[i].ActionDate.After(matched[j].ActionDate)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func historyEntry(st *state, h domain.AssetHistory) *domain.HistoryEntry {
	entry := &domain.HistoryEntry{AssetHistory: h}
	if asset, ok := st.assets[h.AssetID]; ok {
		entry.Asset = asset.Summary()
	}
	if h.EmployeeID != nil {
		if employee, ok := st.employees[*h.EmployeeID]; ok {
			entry.Employee = employee.Summary()
		}
	}
	if h.PerformedBy != nil {
		if user, ok := st.users[*h.PerformedBy]; ok {
			entry.Performer = user.Summary()
		}
	}
	return entry
}
