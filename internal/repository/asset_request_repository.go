package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// AssetRequestFilter scopes request listing.
type AssetRequestFilter struct {
	RequestedBy *string
	Status      *domain.RequestStatus
}

// AssetRequestRepository persists asset requests.
type AssetRequestRepository interface {
	Create(ctx context.Context, request *domain.AssetRequest) error
	GetByID(ctx context.Context, id string) (*domain.AssetRequest, error)
	GetEntry(ctx context.Context, id string) (*domain.AssetRequestEntry, error)
	// Review stores the review fields only while the request is still
	// pending; it returns pgx.ErrNoRows when the request was already reviewed.
	Review(ctx context.Context, request *domain.AssetRequest) error
	Delete(ctx context.Context, id string) error
	// DeletePending removes the request only while it is still pending and
	// owned by requestedBy; otherwise it returns pgx.ErrNoRows.
	DeletePending(ctx context.Context, id, requestedBy string) error
	List(ctx context.Context, filter AssetRequestFilter) ([]domain.AssetRequestEntry, error)
	CountByStatus(ctx context.Context, status domain.RequestStatus) (int, error)
}

type assetRequestRepository struct {
	db DBTX
}

// NewAssetRequestRepository constructs repository.
func NewAssetRequestRepository(db DBTX) AssetRequestRepository {
	return &assetRequestRepository{db: db}
}

const requestEntrySelect = `
        SELECT r.id, r.employee_id, r.requested_by, r.category_id, r.asset_type, r.justification, r.priority,
               r.status, r.request_date, r.reviewed_by, r.review_date, r.review_notes, r.assigned_asset_id,
               r.created_at, r.updated_at,
               e.name, e.employee_code, e.department,
               rq.name, rq.email, rq.role,
               rv.name, rv.email, rv.role,
               c.name, c.code,
               a.asset_tag, a.serial_number, a.make, a.model
        FROM asset_requests r
        LEFT JOIN employees e ON e.id = r.employee_id
        LEFT JOIN users rq ON rq.id = r.requested_by
        LEFT JOIN users rv ON rv.id = r.reviewed_by
        LEFT JOIN categories c ON c.id = r.category_id
        LEFT JOIN assets a ON a.id = r.assigned_asset_id`

func (r *assetRequestRepository) Create(ctx context.Context, request *domain.AssetRequest) error {
	const query = `
        INSERT INTO asset_requests (employee_id, requested_by, category_id, asset_type, justification, priority, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, request_date, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		request.EmployeeID,
		request.RequestedBy,
		request.CategoryID,
		request.AssetType,
		request.Justification,
		request.Priority,
		request.Status,
	).Scan(&request.ID, &request.RequestDate, &request.CreatedAt, &request.UpdatedAt)
}

func (r *assetRequestRepository) GetByID(ctx context.Context, id string) (*domain.AssetRequest, error) {
	const query = `
        SELECT id, employee_id, requested_by, category_id, asset_type, justification, priority, status,
               request_date, reviewed_by, review_date, review_notes, assigned_asset_id, created_at, updated_at
        FROM asset_requests WHERE id=$1`
	var req domain.AssetRequest
	if err := r.db.QueryRow(ctx, query, id).Scan(requestScanTargets(&req)...); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *assetRequestRepository) GetEntry(ctx context.Context, id string) (*domain.AssetRequestEntry, error) {
	return scanRequestEntry(r.db.QueryRow(ctx, requestEntrySelect+` WHERE r.id=$1`, id))
}

func (r *assetRequestRepository) Review(ctx context.Context, request *domain.AssetRequest) error {
	const query = `
        UPDATE asset_requests SET status=$1, reviewed_by=$2, review_date=$3, review_notes=$4,
            assigned_asset_id=$5, updated_at=NOW()
        WHERE id=$6 AND status='Pending'`
	cmd, err := r.db.Exec(ctx, query,
		request.Status,
		request.ReviewedBy,
		request.ReviewDate,
		request.ReviewNotes,
		request.AssignedAssetID,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assetRequestRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM asset_requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assetRequestRepository) DeletePending(ctx context.Context, id, requestedBy string) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM asset_requests WHERE id=$1 AND requested_by=$2 AND status='Pending'`, id, requestedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assetRequestRepository) List(ctx context.Context, filter AssetRequestFilter) ([]domain.AssetRequestEntry, error) {
	query := requestEntrySelect + ` WHERE ($1::uuid IS NULL OR r.requested_by = $1) AND ($2::text IS NULL OR r.status = $2)
        ORDER BY r.request_date DESC`
	rows, err := r.db.Query(ctx, query, filter.RequestedBy, filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.AssetRequestEntry{}
	for rows.Next() {
		entry, err := scanRequestEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func (r *assetRequestRepository) CountByStatus(ctx context.Context, status domain.RequestStatus) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM asset_requests WHERE status=$1`, status).Scan(&count)
	return count, err
}

func requestScanTargets(req *domain.AssetRequest) []any {
	return []any{
		&req.ID,
		&req.EmployeeID,
		&req.RequestedBy,
		&req.CategoryID,
		&req.AssetType,
		&req.Justification,
		&req.Priority,
		&req.Status,
		&req.RequestDate,
		&req.ReviewedBy,
		&req.ReviewDate,
		&req.ReviewNotes,
		&req.AssignedAssetID,
		&req.CreatedAt,
		&req.UpdatedAt,
	}
}

func scanRequestEntry(row pgx.Row) (*domain.AssetRequestEntry, error) {
	var entry domain.AssetRequestEntry
	var empName, empCode, empDept *string
	var rqName, rqEmail, rqRole *string
	var rvName, rvEmail, rvRole *string
	var catName, catCode *string
	var assetTag, assetSerial, assetMake, assetModel *string

	targets := append(requestScanTargets(&entry.AssetRequest),
		&empName, &empCode, &empDept,
		&rqName, &rqEmail, &rqRole,
		&rvName, &rvEmail, &rvRole,
		&catName, &catCode,
		&assetTag, &assetSerial, &assetMake, &assetModel,
	)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	if empName != nil {
		entry.Employee = &domain.EmployeeSummary{
			ID:           entry.EmployeeID,
			Name:         *empName,
			EmployeeCode: deref(empCode),
			Department:   deref(empDept),
		}
	}
	if rqName != nil {
		entry.Requester = &domain.UserSummary{ID: entry.RequestedBy, Name: *rqName, Email: deref(rqEmail), Role: domain.Role(deref(rqRole))}
	}
	if entry.ReviewedBy != nil && rvName != nil {
		entry.Reviewer = &domain.UserSummary{ID: *entry.ReviewedBy, Name: *rvName, Email: deref(rvEmail), Role: domain.Role(deref(rvRole))}
	}
	if entry.CategoryID != nil && catName != nil {
		entry.Category = &domain.CategorySummary{ID: *entry.CategoryID, Name: *catName, Code: deref(catCode)}
	}
	if entry.AssignedAssetID != nil && assetTag != nil {
		entry.AssignedAsset = &domain.AssetSummary{
			ID:           *entry.AssignedAssetID,
			AssetTag:     *assetTag,
			SerialNumber: deref(assetSerial),
			Make:         deref(assetMake),
			Model:        deref(assetModel),
		}
	}
	return &entry, nil
}
