package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

// AssetFilter captures registry search parameters.
type AssetFilter struct {
	Search     *string
	Status     *domain.AssetStatus
	CategoryID *string
	Branch     *string
	Limit      int
	Offset     int
}

// AssetRepository encapsulates asset persistence.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	Update(ctx context.Context, asset *domain.Asset) error
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	// LockByID loads the asset and holds a row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id string) (*domain.Asset, error)
	SetStatus(ctx context.Context, id string, status domain.AssetStatus, condition domain.AssetCondition) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter AssetFilter) ([]domain.Asset, error)
	Count(ctx context.Context, filter AssetFilter) (int, error)
	CountByCategory(ctx context.Context, categoryID string) (int, error)
	// FindConflict returns the name of the unique field ("assetTag" or
	// "serialNumber") already used by another asset, or "" when both are free.
	FindConflict(ctx context.Context, assetTag, serialNumber, excludeID string) (string, error)
	StockBuckets(ctx context.Context) ([]domain.StockBucket, error)
}

type assetRepository struct {
	db DBTX
}

// NewAssetRepository instantiates repository.
func NewAssetRepository(db DBTX) AssetRepository {
	return &assetRepository{db: db}
}

const assetColumns = `a.id, a.asset_tag, a.serial_number, a.category_id, a.make, a.model, a.specifications,
               a.purchase_date, a.purchase_price, a.warranty_expiry, a.vendor, a.branch, a.location,
               a.status, a.condition, a.image_url, a.notes, a.created_at, a.updated_at`

func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	const query = `
        INSERT INTO assets (asset_tag, serial_number, category_id, make, model, specifications, purchase_date,
            purchase_price, warranty_expiry, vendor, branch, location, status, condition, image_url, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		asset.AssetTag,
		asset.SerialNumber,
		asset.CategoryID,
		asset.Make,
		asset.Model,
		asset.Specifications,
		asset.PurchaseDate,
		asset.PurchasePrice,
		asset.WarrantyExpiry,
		asset.Vendor,
		asset.Branch,
		asset.Location,
		asset.Status,
		asset.Condition,
		asset.ImageURL,
		asset.Notes,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
}

func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	const query = `
        UPDATE assets SET asset_tag=$1, serial_number=$2, category_id=$3, make=$4, model=$5, specifications=$6,
            purchase_date=$7, purchase_price=$8, warranty_expiry=$9, vendor=$10, branch=$11, location=$12,
            status=$13, condition=$14, image_url=$15, notes=$16, updated_at=NOW()
        WHERE id=$17
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		asset.AssetTag,
		asset.SerialNumber,
		asset.CategoryID,
		asset.Make,
		asset.Model,
		asset.Specifications,
		asset.PurchaseDate,
		asset.PurchasePrice,
		asset.WarrantyExpiry,
		asset.Vendor,
		asset.Branch,
		asset.Location,
		asset.Status,
		asset.Condition,
		asset.ImageURL,
		asset.Notes,
		asset.ID,
	).Scan(&asset.UpdatedAt)
	return err
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + `, c.id, c.name, c.code
        FROM assets a LEFT JOIN categories c ON c.id = a.category_id
        WHERE a.id=$1`
	return scanAssetWithCategory(r.db.QueryRow(ctx, query, id))
}

func (r *assetRepository) LockByID(ctx context.Context, id string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets a WHERE a.id=$1 FOR UPDATE`
	var asset domain.Asset
	if err := r.db.QueryRow(ctx, query, id).Scan(assetScanTargets(&asset)...); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) SetStatus(ctx context.Context, id string, status domain.AssetStatus, condition domain.AssetCondition) error {
	const query = `UPDATE assets SET status=$1, condition=$2, updated_at=NOW() WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, status, condition, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assetRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM assets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assetRepository) List(ctx context.Context, filter AssetFilter) ([]domain.Asset, error) {
	where, args := assetWhere(filter)
	limit, offset := Page(filter.Limit, filter.Offset, 10)
	query := fmt.Sprintf(`SELECT %s, c.id, c.name, c.code
        FROM assets a LEFT JOIN categories c ON c.id = a.category_id
        WHERE %s ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, assetColumns, where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Asset{}
	for rows.Next() {
		asset, err := scanAssetWithCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *asset)
	}
	return result, rows.Err()
}

func (r *assetRepository) Count(ctx context.Context, filter AssetFilter) (int, error) {
	where, args := assetWhere(filter)
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM assets a WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *assetRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM assets WHERE category_id=$1`, categoryID).Scan(&count)
	return count, err
}

func (r *assetRepository) FindConflict(ctx context.Context, assetTag, serialNumber, excludeID string) (string, error) {
	const query = `
        SELECT asset_tag = $1 AS tag_taken
        FROM assets
        WHERE (asset_tag=$1 OR serial_number=$2) AND ($3 = '' OR id::text <> $3)
        ORDER BY tag_taken DESC
        LIMIT 1`
	var tagTaken bool
	err := r.db.QueryRow(ctx, query, assetTag, serialNumber, excludeID).Scan(&tagTaken)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if tagTaken {
		return "assetTag", nil
	}
	return "serialNumber", nil
}

func (r *assetRepository) StockBuckets(ctx context.Context) ([]domain.StockBucket, error) {
	const query = `
        SELECT a.status, a.category_id, COALESCE(c.name, ''), a.branch,
               COUNT(*), COALESCE(SUM(a.purchase_price), 0)
        FROM assets a LEFT JOIN categories c ON c.id = a.category_id
        GROUP BY a.status, a.category_id, c.name, a.branch`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StockBucket
	for rows.Next() {
		var bucket domain.StockBucket
		if err := rows.Scan(
			&bucket.Status,
			&bucket.CategoryID,
			&bucket.CategoryName,
			&bucket.Branch,
			&bucket.Count,
			&bucket.TotalValue,
		); err != nil {
			return nil, err
		}
		result = append(result, bucket)
	}
	return result, rows.Err()
}

func assetWhere(filter AssetFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("a.status=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("a.category_id=$%d", len(args)))
	}
	if filter.Branch != nil {
		args = append(args, *filter.Branch)
		clauses = append(clauses, fmt.Sprintf("a.branch=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, containsPattern(*filter.Search))
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(a.asset_tag ILIKE %[1]s ESCAPE '\\' OR a.serial_number ILIKE %[1]s ESCAPE '\\' OR a.make ILIKE %[1]s ESCAPE '\\' OR a.model ILIKE %[1]s ESCAPE '\\')",
			placeholder))
	}
	return strings.Join(clauses, " AND "), args
}

func assetScanTargets(asset *domain.Asset) []any {
	return []any{
		&asset.ID,
		&asset.AssetTag,
		&asset.SerialNumber,
		&asset.CategoryID,
		&asset.Make,
		&asset.Model,
		&asset.Specifications,
		&asset.PurchaseDate,
		&asset.PurchasePrice,
		&asset.WarrantyExpiry,
		&asset.Vendor,
		&asset.Branch,
		&asset.Location,
		&asset.Status,
		&asset.Condition,
		&asset.ImageURL,
		&asset.Notes,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	}
}

func scanAssetWithCategory(row pgx.Row) (*domain.Asset, error) {
	var asset domain.Asset
	var catID, catName, catCode *string
	targets := append(assetScanTargets(&asset), &catID, &catName, &catCode)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	if catID != nil {
		asset.Category = &domain.CategorySummary{ID: *catID, Name: deref(catName), Code: deref(catCode)}
	}
	return &asset, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
