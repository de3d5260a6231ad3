package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// HistoryFilter captures history search parameters.
type HistoryFilter struct {
	AssetID    *string
	EmployeeID *string
	Action     *domain.HistoryAction
	StartDate  *time.Time
	EndDate    *time.Time
	// All disables pagination.
	All    bool
	Limit  int
	Offset int
}

// AssetHistoryRepository stores the append-only asset audit trail. It has no
// update or delete operations.
type AssetHistoryRepository interface {
	Create(ctx context.Context, history *domain.AssetHistory) error
	GetEntry(ctx context.Context, id string) (*domain.HistoryEntry, error)
	LatestByAction(ctx context.Context, assetID string, action domain.HistoryAction) (*domain.AssetHistory, error)
	List(ctx context.Context, filter HistoryFilter) ([]domain.HistoryEntry, error)
	Count(ctx context.Context, filter HistoryFilter) (int, error)
	Timeline(ctx context.Context, assetID string) ([]domain.HistoryEntry, error)
}

type assetHistoryRepository struct {
	db DBTX
}

// NewAssetHistoryRepository builds repository.
func NewAssetHistoryRepository(db DBTX) AssetHistoryRepository {
	return &assetHistoryRepository{db: db}
}

const historyEntrySelect = `
        SELECT h.id, h.asset_id, h.employee_id, h.action, h.action_date, h.condition, h.reason,
               h.performed_by, h.notes, h.created_at,
               a.asset_tag, a.serial_number, a.make, a.model,
               e.name, e.employee_code, e.department,
               u.name, u.email, u.role
        FROM asset_history h
        JOIN assets a ON a.id = h.asset_id
        LEFT JOIN employees e ON e.id = h.employee_id
        LEFT JOIN users u ON u.id = h.performed_by`

const historyOrder = ` ORDER BY h.action_date DESC, h.created_at DESC`

func (r *assetHistoryRepository) Create(ctx context.Context, history *domain.AssetHistory) error {
	const query = `
        INSERT INTO asset_history (asset_id, employee_id, action, action_date, condition, reason, performed_by, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		history.AssetID,
		history.EmployeeID,
		history.Action,
		history.ActionDate,
		history.Condition,
		history.Reason,
		history.PerformedBy,
		history.Notes,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *assetHistoryRepository) GetEntry(ctx context.Context, id string) (*domain.HistoryEntry, error) {
	row := r.db.QueryRow(ctx, historyEntrySelect+` WHERE h.id=$1`, id)
	return scanHistoryEntry(row)
}

func (r *assetHistoryRepository) LatestByAction(ctx context.Context, assetID string, action domain.HistoryAction) (*domain.AssetHistory, error) {
	const query = `
        SELECT id, asset_id, employee_id, action, action_date, condition, reason, performed_by, notes, created_at
        FROM asset_history
        WHERE asset_id=$1 AND action=$2
        ORDER BY action_date DESC, created_at DESC
        LIMIT 1`
	var h domain.AssetHistory
	if err := r.db.QueryRow(ctx, query, assetID, action).Scan(
		&h.ID,
		&h.AssetID,
		&h.EmployeeID,
		&h.Action,
		&h.ActionDate,
		&h.Condition,
		&h.Reason,
		&h.PerformedBy,
		&h.Notes,
		&h.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *assetHistoryRepository) List(ctx context.Context, filter HistoryFilter) ([]domain.HistoryEntry, error) {
	where, args := historyWhere(filter)
	query := historyEntrySelect + ` WHERE ` + where + historyOrder
	if !filter.All {
		limit, offset := Page(filter.Limit, filter.Offset, 20)
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, limit, offset)
	}
	return r.query(ctx, query, args...)
}

func (r *assetHistoryRepository) Count(ctx context.Context, filter HistoryFilter) (int, error) {
	where, args := historyWhere(filter)
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM asset_history h WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *assetHistoryRepository) Timeline(ctx context.Context, assetID string) ([]domain.HistoryEntry, error) {
	return r.query(ctx, historyEntrySelect+` WHERE h.asset_id=$1`+historyOrder, assetID)
}

func (r *assetHistoryRepository) query(ctx context.Context, query string, args ...any) ([]domain.HistoryEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.HistoryEntry{}
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func historyWhere(filter HistoryFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AssetID != nil {
		args = append(args, *filter.AssetID)
		clauses = append(clauses, fmt.Sprintf("h.asset_id=$%d", len(args)))
	}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		clauses = append(clauses, fmt.Sprintf("h.employee_id=$%d", len(args)))
	}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		clauses = append(clauses, fmt.Sprintf("h.action=$%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		clauses = append(clauses, fmt.Sprintf("h.action_date >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		clauses = append(clauses, fmt.Sprintf("h.action_date <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func scanHistoryEntry(row interface{ Scan(...any) error }) (*domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	var asset domain.AssetSummary
	var empName, empCode, empDept *string
	var userName, userEmail, userRole *string
	if err := row.Scan(
		&entry.ID,
		&entry.AssetID,
		&entry.EmployeeID,
		&entry.Action,
		&entry.ActionDate,
		&entry.Condition,
		&entry.Reason,
		&entry.PerformedBy,
		&entry.Notes,
		&entry.CreatedAt,
		&asset.AssetTag,
		&asset.SerialNumber,
		&asset.Make,
		&asset.Model,
		&empName,
		&empCode,
		&empDept,
		&userName,
		&userEmail,
		&userRole,
	); err != nil {
		return nil, err
	}
	asset.ID = entry.AssetID
	entry.Asset = &asset
	if entry.EmployeeID != nil && empName != nil {
		entry.Employee = &domain.EmployeeSummary{
			ID:           *entry.EmployeeID,
			Name:         *empName,
			EmployeeCode: deref(empCode),
			Department:   deref(empDept),
		}
	}
	if entry.PerformedBy != nil && userName != nil {
		entry.Performer = &domain.UserSummary{
			ID:    *entry.PerformedBy,
			Name:  *userName,
			Email: deref(userEmail),
			Role:  domain.Role(deref(userRole)),
		}
	}
	return &entry, nil
}
